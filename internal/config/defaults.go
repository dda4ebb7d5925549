package config

import (
	"path"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/typedstrings/internal/foundation/errors"
	"git.home.luguber.info/inful/typedstrings/internal/naming"
)

// Defaults.
const (
	DefaultOutputFolder = "Assets/Generated"
	DefaultHistoryPath  = ".typedstrings/history.db"
	DefaultDebounce     = 500 * time.Millisecond
	DefaultLineEndings  = "native"
	DefaultAssetSource  = "filesystem"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		ProjectRoot:  ".",
		OutputFolder: DefaultOutputFolder,
		LineEndings:  DefaultLineEndings,
		AssetSource:  DefaultAssetSource,
		History: HistoryConfig{
			Enabled: true,
			Path:    DefaultHistoryPath,
		},
		Watch: WatchConfig{
			Debounce: DefaultDebounce.String(),
		},
		Units: UnitsConfig{
			Scenes:                 ScenesConfig{IgnoreDisabledScenes: true},
			Resources:              FolderUnitConfig{ScanAllFolders: false, FoldersToScan: []string{"Assets"}},
			StreamingAssets:        FolderUnitConfig{ScanAllFolders: true},
			Gizmos:                 FolderUnitConfig{ScanAllFolders: true},
			EditorDefaultResources: FolderUnitConfig{ScanAllFolders: true},
		},
	}
}

// normalize sanitizes user supplied names the way generated code needs them.
func normalize(cfg *Config) error {
	cfg.OutputFolder = naming.ToFolderPath(cfg.OutputFolder, DefaultOutputFolder)
	cfg.Namespace = naming.ToNamespace(cfg.Namespace, "")
	cfg.LineEndings = strings.ToLower(strings.TrimSpace(cfg.LineEndings))
	if cfg.LineEndings == "" {
		cfg.LineEndings = DefaultLineEndings
	}
	cfg.AssetSource = strings.ToLower(strings.TrimSpace(cfg.AssetSource))
	if cfg.AssetSource == "" {
		cfg.AssetSource = DefaultAssetSource
	}
	if strings.TrimSpace(cfg.ProjectRoot) == "" {
		cfg.ProjectRoot = "."
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}

	if _, err := cfg.DebounceDuration(); err != nil {
		return err
	}
	if _, err := cfg.IntervalDuration(); err != nil {
		return err
	}
	return nil
}

// DebounceDuration parses watch.debounce.
func (c *Config) DebounceDuration() (time.Duration, error) {
	return parseDuration("watch.debounce", c.Watch.Debounce, DefaultDebounce)
}

// IntervalDuration parses watch.interval. Zero disables periodic regeneration.
func (c *Config) IntervalDuration() (time.Duration, error) {
	return parseDuration("watch.interval", c.Watch.Interval, 0)
}

func parseDuration(key, raw string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, ferrors.ConfigError("invalid duration for " + key).
			WithCause(err).
			WithContext("value", raw).
			Build()
	}
	return d, nil
}

// OutputPath returns the slash-separated output folder relative to the project root.
func (c *Config) OutputPath() string {
	return path.Clean(c.OutputFolder)
}

// UnitDisabled reports whether a unit label or type is listed in units.disabled.
func (c *Config) UnitDisabled(label, typ string) bool {
	for _, d := range c.Units.Disabled {
		if strings.EqualFold(d, label) || strings.EqualFold(d, typ) {
			return true
		}
	}
	return false
}
