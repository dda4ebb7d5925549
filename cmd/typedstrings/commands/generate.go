package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	ferrors "git.home.luguber.info/inful/typedstrings/internal/foundation/errors"
	"git.home.luguber.info/inful/typedstrings/internal/generator"
	"git.home.luguber.info/inful/typedstrings/internal/logfields"
	"git.home.luguber.info/inful/typedstrings/internal/metrics"
	"git.home.luguber.info/inful/typedstrings/internal/report"
)

// GenerateCmd implements the 'generate' command.
type GenerateCmd struct {
	Unit        string `short:"u" help:"Generate a single unit (type, label or file name)"`
	Report      string `help:"Write a run report (.md, or .html for HTML)" type:"path"`
	MetricsFile string `name:"metrics-file" help:"Write run metrics in Prometheus textfile format" type:"path"`
}

func (g *GenerateCmd) Run(_ *Global, root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(root, withProgress(func(p generator.Progress) {
		slog.Debug("Generating", logfields.Unit(p.Unit), slog.Int("index", p.Index+1), slog.Int("total", p.Total))
	}))
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Failed to close resources", logfields.Error(err))
		}
	}()

	a.followOutputFolder(ctx)

	if g.Unit != "" {
		return g.runOne(ctx, a)
	}
	return g.runAll(ctx, a)
}

func (g *GenerateCmd) runOne(ctx context.Context, a *app) error {
	result, err := a.coordinator.GenerateOne(ctx, g.Unit, a.options())
	if err != nil {
		return runError(err)
	}
	a.recordOutput(ctx, a.cfg.OutputPath())
	fmt.Printf("Generated %s (%d entries)\n", result.Path, result.Entries)
	return g.writeMetrics(a)
}

func (g *GenerateCmd) runAll(ctx context.Context, a *app) error {
	summary, runErr := a.coordinator.GenerateAll(ctx, a.options())
	if runErr != nil && summary.RunID == "" {
		return runError(runErr)
	}
	if summary.Written() > 0 {
		a.recordOutput(ctx, a.cfg.OutputPath())
	}

	for _, r := range summary.Results {
		status := "ok"
		if !r.OK() {
			status = "FAILED"
		}
		fmt.Printf("%-6s %-28s %4d  %s\n", status, r.Label, r.Entries, r.Path)
	}
	fmt.Printf("%d written, %d failed", summary.Written(), summary.Failed())
	if summary.Canceled {
		fmt.Printf(", canceled after %d of %d units", len(summary.Results), summary.Total)
	}
	fmt.Println()

	if g.Report != "" {
		if err := report.Write(g.Report, summary); err != nil {
			return err
		}
		slog.Info("Report written", logfields.Path(g.Report))
	}
	if err := g.writeMetrics(a); err != nil {
		return err
	}

	if runErr != nil {
		category := ferrors.CategoryRuntime
		if classified, ok := ferrors.AsClassified(runErr); ok {
			category = classified.Category()
		}
		return ferrors.WrapError(runErr, category,
			fmt.Sprintf("%d of %d units failed", summary.Failed(), summary.Total)).Build()
	}
	return nil
}

func (g *GenerateCmd) writeMetrics(a *app) error {
	if g.MetricsFile == "" {
		return nil
	}
	if err := metrics.WriteTextfile(a.metrics, g.MetricsFile); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write metrics file").
			WithContext("path", g.MetricsFile).
			Build()
	}
	return nil
}

// runError classifies coordinator errors that are not already classified.
func runError(err error) error {
	if stderrors.Is(err, generator.ErrNotReady) {
		return ferrors.RuntimeError("project is not ready for generation").
			WithCause(err).
			WithContext("hint", "check that the project root contains an Assets folder and no other run is active").
			Build()
	}
	if _, ok := ferrors.AsClassified(err); ok {
		return err
	}
	return ferrors.RuntimeError("generation failed").WithCause(err).Build()
}
