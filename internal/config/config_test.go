package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/typedstrings/internal/foundation/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaultsForOmittedKeys(t *testing.T) {
	cfg, err := Load(writeConfig(t, "namespace: Game\n"))
	require.NoError(t, err)

	assert.Equal(t, "Game", cfg.Namespace)
	assert.Equal(t, DefaultOutputFolder, cfg.OutputFolder)
	assert.Equal(t, "native", cfg.LineEndings)
	assert.Equal(t, "filesystem", cfg.AssetSource)
	assert.True(t, cfg.History.Enabled)
	assert.True(t, cfg.Units.Scenes.IgnoreDisabledScenes)
	assert.Equal(t, []string{"Assets"}, cfg.Units.Resources.FoldersToScan)
	assert.False(t, cfg.Units.Resources.ScanAllFolders)
	assert.True(t, cfg.Units.StreamingAssets.ScanAllFolders)
}

func TestLoadFullFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
project_root: game
output_folder: "/Assets\\Scripts/Generated.v2/"
namespace: "1Game.Strings!"
line_endings: Windows
asset_source: git
history: {enabled: false}
notify: {nats_url: "nats://localhost:4222", subject: builds.strings}
watch: {debounce: 2s, interval: 10m}
units:
  scenes: {ignore_disabled_scenes: false}
  resources: {scan_all_folders: true, folders_to_scan: []}
  packages: {pretend_there_is_no_package: true}
  disabled: [Inputs]
custom:
  - {label: Sound Banks, values: [Master, Music]}
`))
	require.NoError(t, err)

	assert.Equal(t, "game", cfg.ProjectRoot)
	assert.Equal(t, "Assets/Scripts/Generatedv2", cfg.OutputFolder)
	assert.Equal(t, "Game.Strings", cfg.Namespace)
	assert.Equal(t, "windows", cfg.LineEndings)
	assert.Equal(t, "git", cfg.AssetSource)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "builds.strings", cfg.Notify.Subject)
	assert.False(t, cfg.Units.Scenes.IgnoreDisabledScenes)
	assert.Empty(t, cfg.Units.Resources.FoldersToScan)
	assert.True(t, cfg.Units.Packages.PretendThereIsNoPackage)
	assert.True(t, cfg.UnitDisabled("inputs", "Input"))
	assert.False(t, cfg.UnitDisabled("Tags", "Tag"))
	require.Len(t, cfg.Custom, 1)

	debounce, err := cfg.DebounceDuration()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, debounce)
	interval, err := cfg.IntervalDuration()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, interval)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("TYPEDSTRINGS_NAMESPACE", "FromEnv")
	t.Setenv("TYPEDSTRINGS_HISTORY_ENABLED", "false")
	t.Setenv("TYPEDSTRINGS_NOTIFY_SUBJECT", "env.subject")

	cfg, err := Load(writeConfig(t, "namespace: FromFile\n"))
	require.NoError(t, err)

	assert.Equal(t, "FromEnv", cfg.Namespace)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "env.subject", cfg.Notify.Subject)
}

func TestEnvFileIsLoaded(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(".env", []byte("TYPEDSTRINGS_OUTPUT_FOLDER=Assets/FromDotEnv\n"), 0o600))
	t.Setenv("TYPEDSTRINGS_OUTPUT_FOLDER", "")
	require.NoError(t, os.Unsetenv("TYPEDSTRINGS_OUTPUT_FOLDER"))

	cfg, err := LoadOrDefault(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Assets/FromDotEnv", cfg.OutputFolder)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, ErrNotFound)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultOutputFolder, cfg.OutputFolder)
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"line endings", "line_endings: mac\n"},
		{"asset source", "asset_source: svn\n"},
		{"nats url", "notify: {nats_url: 'not a url'}\n"},
		{"metrics addr", "watch: {metrics_addr: 'nope'}\n"},
		{"custom without values", "custom: [{label: Empty, values: []}]\n"},
		{"custom without label", "custom: [{values: [a]}]\n"},
		{"custom bad type", "custom: [{label: X, type: 'Bad Type', values: [a]}]\n"},
		{"custom duplicate", "custom: [{label: X, values: [a]}, {label: x, values: [b]}]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation), err.Error())
		})
	}
}

func TestInvalidDurationIsConfigError(t *testing.T) {
	_, err := Load(writeConfig(t, "watch: {debounce: soon}\n"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "units: [\n"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Game.Generated", cfg.Namespace)
	require.Len(t, cfg.Custom, 1)
	assert.Equal(t, "SoundBank", cfg.Custom[0].Type)

	err = Init(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	assert.NoError(t, Init(path, true))
}
