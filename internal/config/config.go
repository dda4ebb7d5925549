// Package config loads typedstrings.yaml, applies .env files and TYPEDSTRINGS_* environment
// overrides, fills defaults and validates the result.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/typedstrings/internal/foundation/errors"
)

// DefaultFileName is the configuration file looked up in the working directory.
const DefaultFileName = "typedstrings.yaml"

// ErrNotFound is returned by Load when the configuration file does not exist.
var ErrNotFound = stderrors.New("configuration file not found")

// Config represents the application configuration.
type Config struct {
	ProjectRoot  string `yaml:"project_root" env:"PROJECT_ROOT" validate:"required"`
	OutputFolder string `yaml:"output_folder" env:"OUTPUT_FOLDER" validate:"required"`
	Namespace    string `yaml:"namespace" env:"NAMESPACE"`
	LineEndings  string `yaml:"line_endings" env:"LINE_ENDINGS" validate:"oneof=native unix windows"`
	AssetSource  string `yaml:"asset_source" env:"ASSET_SOURCE" validate:"oneof=filesystem git"`

	History HistoryConfig `yaml:"history" envPrefix:"HISTORY_"`
	Notify  NotifyConfig  `yaml:"notify" envPrefix:"NOTIFY_"`
	Watch   WatchConfig   `yaml:"watch" envPrefix:"WATCH_"`
	Units   UnitsConfig   `yaml:"units"`
	Custom  []CustomUnit  `yaml:"custom,omitempty" validate:"dive"`
}

// HistoryConfig controls the SQLite run journal.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH" validate:"required_if=Enabled true"`
}

// NotifyConfig controls NATS event publication. An empty URL disables it.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url" env:"NATS_URL" validate:"omitempty,url"`
	Subject string `yaml:"subject" env:"SUBJECT"`
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Debounce    string `yaml:"debounce" env:"DEBOUNCE"`
	Interval    string `yaml:"interval" env:"INTERVAL"`
	MetricsAddr string `yaml:"metrics_addr" env:"METRICS_ADDR" validate:"omitempty,hostname_port"`
}

// FolderUnitConfig is the per-unit folder filter.
type FolderUnitConfig struct {
	ScanAllFolders bool     `yaml:"scan_all_folders"`
	FoldersToScan  []string `yaml:"folders_to_scan"`
}

// ScenesConfig configures the build scene unit.
type ScenesConfig struct {
	IgnoreDisabledScenes bool `yaml:"ignore_disabled_scenes"`
}

// PackagesConfig configures the packages unit.
type PackagesConfig struct {
	PretendThereIsNoPackage bool `yaml:"pretend_there_is_no_package"`
}

// UnitsConfig holds the settings of the built-in units.
type UnitsConfig struct {
	Scenes                 ScenesConfig     `yaml:"scenes"`
	Resources              FolderUnitConfig `yaml:"resources"`
	StreamingAssets        FolderUnitConfig `yaml:"streaming_assets"`
	Gizmos                 FolderUnitConfig `yaml:"gizmos"`
	EditorDefaultResources FolderUnitConfig `yaml:"editor_default_resources"`
	Packages               PackagesConfig   `yaml:"packages"`
	// Disabled lists unit labels or types that are not registered.
	Disabled []string `yaml:"disabled,omitempty"`
}

// CustomUnit declares a list unit with fixed values.
type CustomUnit struct {
	Label    string   `yaml:"label" validate:"required"`
	Type     string   `yaml:"type,omitempty"`
	Priority int      `yaml:"priority,omitempty"`
	Values   []string `yaml:"values" validate:"min=1"`
}

// Load loads configuration from path. Defaults are applied before the file is decoded, so
// omitted keys keep their default value.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.WrapError(ErrNotFound, ferrors.CategoryConfig, "configuration file not found").
				WithContext("path", path).
				Fatal().
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").Fatal().Build()
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").
			WithContext("path", path).
			Fatal().
			Build()
	}
	return finish(cfg)
}

// LoadOrDefault loads path and falls back to the defaults (still honoring the environment)
// when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if stderrors.Is(err, ErrNotFound) {
		return finish(Default())
	}
	return cfg, err
}

func finish(cfg *Config) (*Config, error) {
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := normalize(cfg); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init creates a new configuration file with example content.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", path)).Build()
	}

	example := Default()
	example.Namespace = "Game.Generated"
	example.Notify.Subject = "typedstrings.generated"
	example.Custom = []CustomUnit{
		{Label: "Sound Banks", Type: "SoundBank", Priority: 50, Values: []string{"Master", "Music", "Ambience"}},
	}

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	// #nosec G306 -- the configuration file is meant to be committed.
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").Build()
	}
	return nil
}
