package commands

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ferrors "git.home.luguber.info/inful/typedstrings/internal/foundation/errors"
	"git.home.luguber.info/inful/typedstrings/internal/generator"
	"git.home.luguber.info/inful/typedstrings/internal/logfields"
	"git.home.luguber.info/inful/typedstrings/internal/metrics"
	"git.home.luguber.info/inful/typedstrings/internal/project"
	"git.home.luguber.info/inful/typedstrings/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Interval    string `help:"Also regenerate periodically (e.g. 10m); overrides watch.interval"`
	MetricsAddr string `name:"metrics-addr" help:"Serve Prometheus metrics on this address (e.g. :9090)"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(root)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Failed to close resources", logfields.Error(err))
		}
	}()

	if w.Interval != "" {
		a.cfg.Watch.Interval = w.Interval
	}
	interval, err := a.cfg.IntervalDuration()
	if err != nil {
		return err
	}
	debounce, err := a.cfg.DebounceDuration()
	if err != nil {
		return err
	}

	addr := a.cfg.Watch.MetricsAddr
	if w.MetricsAddr != "" {
		addr = w.MetricsAddr
	}
	if addr != "" {
		srv := serveMetrics(a, addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	a.followOutputFolder(ctx)

	watcher, err := watch.New(watch.Options{
		Dirs: []string{
			a.project.Path(project.AssetsFolder),
			a.project.Path(project.PackagesFolder),
			a.project.Path(project.SettingsFolder),
		},
		Ignore:     []string{a.options().Destination},
		Debounce:   debounce,
		Interval:   interval,
		RunOnStart: true,
	}, a.regenerate)
	if err != nil {
		return ferrors.RuntimeError("create watcher").WithCause(err).Build()
	}
	if err := watcher.Run(ctx); err != nil {
		return ferrors.RuntimeError("watch").WithCause(err).Build()
	}
	return nil
}

// regenerate runs a full generation with a fresh asset index.
func (a *app) regenerate(ctx context.Context, reason string) {
	a.index.Invalidate()
	summary, err := a.coordinator.GenerateAll(ctx, a.options())
	if stderrors.Is(err, generator.ErrNotReady) {
		slog.Warn("Skipping regeneration, project not ready", slog.String("reason", reason))
		return
	}
	if summary.Written() > 0 {
		a.recordOutput(context.WithoutCancel(ctx), a.cfg.OutputPath())
	}
	slog.Info("Regenerated",
		slog.String("reason", reason),
		slog.Int("written", summary.Written()),
		slog.Int("failed", summary.Failed()),
		logfields.DurationMS(float64(summary.Duration.Milliseconds())))
}

func serveMetrics(a *app, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(a.metrics))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	slog.Info("Serving metrics", slog.String("addr", addr))
	return srv
}
