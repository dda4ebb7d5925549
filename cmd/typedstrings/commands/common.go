package commands

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/typedstrings/internal/catalog"
	"git.home.luguber.info/inful/typedstrings/internal/config"
	ferrors "git.home.luguber.info/inful/typedstrings/internal/foundation/errors"
	"git.home.luguber.info/inful/typedstrings/internal/generator"
	"git.home.luguber.info/inful/typedstrings/internal/history"
	"git.home.luguber.info/inful/typedstrings/internal/logfields"
	"git.home.luguber.info/inful/typedstrings/internal/metrics"
	"git.home.luguber.info/inful/typedstrings/internal/notify"
	"git.home.luguber.info/inful/typedstrings/internal/project"
	"git.home.luguber.info/inful/typedstrings/internal/render"
	"git.home.luguber.info/inful/typedstrings/internal/unit"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"typedstrings.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Generate GenerateCmd `cmd:"" help:"Generate the strongly-typed string files (all units, or one with --unit)"`
	List     ListCmd     `cmd:"" help:"List registered units in processing order and whether their file exists"`
	Relocate RelocateCmd `cmd:"" help:"Move generated files to another output folder"`
	Watch    WatchCmd    `cmd:"" help:"Regenerate whenever assets or project settings change"`
	History  HistoryCmd  `cmd:"" help:"Show recent generation runs"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// app is the wired application shared by the commands.
type app struct {
	cfg         *config.Config
	project     project.Project
	index       *project.CachedIndex
	registry    *unit.Registry
	coordinator *generator.Coordinator
	metrics     *prom.Registry
	journal     *history.Store
	publisher   notify.Publisher
	lineEnding  render.LineEnding
}

type appOption func(*appSettings)

type appSettings struct {
	progress func(generator.Progress)
}

func withProgress(fn func(generator.Progress)) appOption {
	return func(s *appSettings) { s.progress = fn }
}

// newApp loads the configuration and wires every collaborator. The caller must Close it.
func newApp(root *CLI, opts ...appOption) (*app, error) {
	var settings appSettings
	for _, opt := range opts {
		opt(&settings)
	}

	cfg, err := config.LoadOrDefault(root.Config)
	if err != nil {
		return nil, err
	}
	lineEnding, err := render.ParseLineEnding(cfg.LineEndings)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid line_endings").Build()
	}

	proj := project.New(cfg.ProjectRoot)
	if fi, statErr := os.Stat(proj.Root); statErr != nil || !fi.IsDir() {
		return nil, ferrors.ConfigError("project root is not a directory").
			WithCause(statErr).
			WithContext("path", proj.Root).
			Fatal().
			Build()
	}

	var source unit.PathSource = project.NewFileIndex(proj)
	if cfg.AssetSource == "git" {
		source = project.NewGitIndex(proj)
	}
	index := project.NewCachedIndex(source)

	registry, err := catalog.Build(cfg, catalog.Sources{
		Settings: project.NewSettings(proj),
		Assets:   index,
	})
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		project:    proj,
		index:      index,
		registry:   registry,
		metrics:    prom.NewRegistry(),
		publisher:  notify.Noop{},
		lineEnding: lineEnding,
	}

	if cfg.History.Enabled {
		a.journal, err = history.Open(a.historyPath())
		if err != nil {
			return nil, ferrors.StoreError("open history").
				WithCause(err).
				Fatal().
				WithContext("path", a.historyPath()).
				Build()
		}
	}
	if cfg.Notify.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			// Generation does not depend on the broker.
			slog.Warn("NATS unavailable, events disabled", logfields.Error(err))
		} else {
			a.publisher = pub
		}
	}

	coordinatorOpts := []generator.Option{
		generator.WithReadiness(a.ready),
		generator.WithRecorder(metrics.NewPrometheusRecorder(a.metrics)),
		generator.WithPublisher(a.publisher),
		generator.WithBoundary(proj.Root),
		generator.WithProgress(settings.progress),
	}
	if a.journal != nil {
		coordinatorOpts = append(coordinatorOpts, generator.WithJournal(a.journal))
	}
	a.coordinator = generator.New(registry, coordinatorOpts...)
	return a, nil
}

// Close releases the journal and the broker connection.
func (a *app) Close() error {
	var errs []error
	if a.journal != nil {
		errs = append(errs, a.journal.Close())
	}
	errs = append(errs, a.publisher.Close())
	return stderrors.Join(errs...)
}

// ready reports whether the project can be generated: the Assets folder must exist.
func (a *app) ready() bool {
	fi, err := os.Stat(a.project.Path(project.AssetsFolder))
	return err == nil && fi.IsDir()
}

func (a *app) historyPath() string {
	if filepath.IsAbs(a.cfg.History.Path) {
		return a.cfg.History.Path
	}
	return a.project.Path(a.cfg.History.Path)
}

// outputDir resolves a slash-separated project-relative folder.
func (a *app) outputDir(folder string) string {
	return a.project.Path(folder)
}

func (a *app) options() generator.Options {
	return generator.Options{
		Destination: a.outputDir(a.cfg.OutputPath()),
		Namespace:   a.cfg.Namespace,
		LineEnding:  a.lineEnding,
	}
}

// recordedOutput returns the output folder of the last run, or "" when unknown.
func (a *app) recordedOutput(ctx context.Context) string {
	if a.journal == nil {
		return ""
	}
	folder, err := a.journal.State(ctx, history.StateOutputFolder)
	if err != nil {
		if !stderrors.Is(err, history.ErrNoState) {
			slog.Warn("Failed to read recorded output folder", logfields.Error(err))
		}
		return ""
	}
	return folder
}

func (a *app) recordOutput(ctx context.Context, folder string) {
	if a.journal == nil {
		return
	}
	if err := a.journal.SetState(ctx, history.StateOutputFolder, folder); err != nil {
		slog.Warn("Failed to record output folder", logfields.Error(err))
	}
}

// followOutputFolder moves previously generated files when the configured output folder
// differs from the one used by the last run. Files that cannot be moved are logged and left
// behind; generation then writes fresh copies into the new folder.
func (a *app) followOutputFolder(ctx context.Context) {
	previous := a.recordedOutput(ctx)
	current := a.cfg.OutputPath()
	if previous == "" || previous == current {
		return
	}

	slog.Info("Output folder changed, relocating generated files", logfields.From(previous), logfields.To(current))
	result, err := a.coordinator.Relocate(ctx, a.outputDir(previous), a.outputDir(current))
	switch {
	case stderrors.Is(err, generator.ErrNotReady), ctx.Err() != nil:
		slog.Warn("Relocation skipped, will retry on the next run", logfields.From(previous), logfields.To(current))
		return
	case err != nil:
		slog.Warn("Some generated files could not be relocated",
			logfields.From(previous), logfields.To(current),
			slog.Int("moved", len(result.Moved)),
			logfields.Error(err))
	}
	a.recordOutput(ctx, current)
}
