// Package generator drives generation runs: every registered unit is populated into a fresh
// entry set, rendered and written as one source file under the destination folder.
package generator

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/typedstrings/internal/entryset"
	ferrors "git.home.luguber.info/inful/typedstrings/internal/foundation/errors"
	"git.home.luguber.info/inful/typedstrings/internal/history"
	"git.home.luguber.info/inful/typedstrings/internal/logfields"
	"git.home.luguber.info/inful/typedstrings/internal/metrics"
	"git.home.luguber.info/inful/typedstrings/internal/notify"
	"git.home.luguber.info/inful/typedstrings/internal/render"
	"git.home.luguber.info/inful/typedstrings/internal/unit"
)

// ErrNotReady is returned when the host readiness predicate fails or another run is active.
var ErrNotReady = stderrors.New("generator is not ready")

// Options are the global output settings of a run.
type Options struct {
	// Destination is the folder receiving the generated files.
	Destination string
	Namespace   string
	LineEnding  render.LineEnding
}

// Progress is reported before each unit is processed.
type Progress struct {
	Index int
	Total int
	Unit  string
}

// Fraction returns the completed share of the run in [0, 1).
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Index) / float64(p.Total)
}

// RenderedFile is the output of one unit before it is written.
type RenderedFile struct {
	Path    string
	Content string
	Entries int
}

// UnitResult describes what happened to one unit.
type UnitResult struct {
	Label    string
	Type     string
	Path     string
	Entries  int
	Duration time.Duration
	Err      error
}

// OK reports whether the unit file was written.
func (r UnitResult) OK() bool { return r.Err == nil }

// Summary describes a GenerateAll run.
type Summary struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Results   []UnitResult
	// Canceled is set when the context ended before every unit ran.
	Canceled bool
	// Total is the number of units the run was asked to process.
	Total int
}

// Failed returns the number of units that failed.
func (s Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if !r.OK() {
			n++
		}
	}
	return n
}

// Written returns the number of files written.
func (s Summary) Written() int {
	return len(s.Results) - s.Failed()
}

// Outcome classifies the run for metrics and history.
func (s Summary) Outcome() metrics.RunOutcome {
	switch {
	case s.Canceled:
		return metrics.OutcomeCanceled
	case s.Failed() > 0:
		return metrics.OutcomePartial
	default:
		return metrics.OutcomeSuccess
	}
}

// Journal records run history.
type Journal interface {
	RecordUnit(ctx context.Context, r history.UnitRecord) error
	RecordRun(ctx context.Context, r history.RunRecord) error
}

// Coordinator runs units. Runs never overlap: a second run started while one is active is
// refused with ErrNotReady.
type Coordinator struct {
	registry  *unit.Registry
	ready     func() bool
	busy      atomic.Bool
	recorder  metrics.Recorder
	journal   Journal
	publisher notify.Publisher
	progress  func(Progress)
	boundary  string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithReadiness installs the host readiness predicate.
func WithReadiness(ready func() bool) Option {
	return func(c *Coordinator) { c.ready = ready }
}

// WithRecorder installs a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithJournal installs a run history journal.
func WithJournal(j Journal) Option {
	return func(c *Coordinator) { c.journal = j }
}

// WithPublisher installs an event publisher.
func WithPublisher(p notify.Publisher) Option {
	return func(c *Coordinator) {
		if p != nil {
			c.publisher = p
		}
	}
}

// WithProgress installs a callback invoked before each unit.
func WithProgress(fn func(Progress)) Option {
	return func(c *Coordinator) { c.progress = fn }
}

// WithBoundary limits the empty-directory cleanup of Relocate to directories below dir.
func WithBoundary(dir string) Option {
	return func(c *Coordinator) { c.boundary = dir }
}

// New creates a coordinator over the units of registry.
func New(registry *unit.Registry, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry:  registry,
		ready:     func() bool { return true },
		recorder:  metrics.NoopRecorder{},
		publisher: notify.Noop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Units returns the registered units in processing order.
func (c *Coordinator) Units() []unit.Unit {
	return c.registry.Units()
}

func (c *Coordinator) acquire() bool {
	if c.ready != nil && !c.ready() {
		return false
	}
	return c.busy.CompareAndSwap(false, true)
}

func (c *Coordinator) release() {
	c.busy.Store(false)
}

// GenerateAll processes every registered unit in order. Unit failures are logged and the run
// continues; the returned error joins them. Cancellation stops the run before the next unit and
// is reported through Summary.Canceled rather than an error.
func (c *Coordinator) GenerateAll(ctx context.Context, opts Options) (Summary, error) {
	return c.run(ctx, c.registry.Units(), opts)
}

// GenerateOne processes the unit matching key (type, label or file name).
func (c *Coordinator) GenerateOne(ctx context.Context, key string, opts Options) (UnitResult, error) {
	u, ok := c.registry.Lookup(key)
	if !ok {
		return UnitResult{}, ferrors.NotFoundError(fmt.Sprintf("unknown unit %q", key)).Build()
	}

	summary, err := c.run(ctx, []unit.Unit{u}, opts)
	if len(summary.Results) == 0 {
		if err == nil && summary.Canceled {
			err = ctx.Err()
		}
		return UnitResult{Label: u.Label, Type: u.Type}, err
	}
	return summary.Results[0], err
}

func (c *Coordinator) run(ctx context.Context, units []unit.Unit, opts Options) (Summary, error) {
	if !c.acquire() {
		c.recorder.IncRunOutcome(metrics.OutcomeRefused)
		return Summary{}, ErrNotReady
	}
	defer c.release()

	summary := Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Total:     len(units),
	}
	log := slog.With(logfields.RunID(summary.RunID))
	log.Info("Generation started", slog.Int("units", len(units)), logfields.Path(opts.Destination))

	var errs []error
	for i, u := range units {
		if ctx.Err() != nil {
			summary.Canceled = true
			log.Info("Generation canceled", slog.Int("remaining", len(units)-i))
			break
		}
		if c.progress != nil {
			c.progress(Progress{Index: i, Total: len(units), Unit: u.Label})
		}

		result := c.generateUnit(ctx, u, opts)
		summary.Results = append(summary.Results, result)
		c.afterUnit(ctx, summary.RunID, result)

		if result.Err != nil {
			log.Error("Unit generation failed",
				logfields.Unit(u.Label),
				logfields.Category(string(ferrors.GetCategory(result.Err))),
				logfields.Error(result.Err))
			errs = append(errs, fmt.Errorf("unit %s: %w", u.Label, result.Err))
			continue
		}
		log.Debug("Unit generated", logfields.Unit(u.Label), logfields.Path(result.Path), logfields.Entries(result.Entries))
	}

	summary.Duration = time.Since(summary.StartedAt)
	c.afterRun(ctx, summary, opts)
	log.Info("Generation finished",
		slog.Int("written", summary.Written()),
		slog.Int("failed", summary.Failed()),
		slog.Bool("canceled", summary.Canceled),
		logfields.DurationMS(float64(summary.Duration.Milliseconds())))

	return summary, stderrors.Join(errs...)
}

// Render populates and renders u without writing anything.
func (c *Coordinator) Render(ctx context.Context, u unit.Unit, opts Options) (RenderedFile, error) {
	set := entryset.New()
	if err := u.Populate(ctx, set); err != nil {
		if _, classified := ferrors.AsClassified(err); classified {
			return RenderedFile{}, err
		}
		return RenderedFile{}, ferrors.SourceError("populate "+u.Label).
			WithCause(err).
			WithContext("unit", u.Label).
			Build()
	}

	entries := set.Entries()
	content := render.Render(entries, render.Params{
		Type:       u.Type,
		Namespace:  opts.Namespace,
		LineEnding: opts.LineEnding,
	})
	return RenderedFile{
		Path:    filepath.Join(opts.Destination, u.FileName()),
		Content: content,
		Entries: len(entries),
	}, nil
}

func (c *Coordinator) generateUnit(ctx context.Context, u unit.Unit, opts Options) UnitResult {
	start := time.Now()
	result := UnitResult{Label: u.Label, Type: u.Type, Path: filepath.Join(opts.Destination, u.FileName())}

	file, err := c.Render(ctx, u, opts)
	if err == nil {
		result.Entries = file.Entries
		err = writeFile(file)
	}
	result.Err = err
	result.Duration = time.Since(start)
	return result
}

func writeFile(file RenderedFile) error {
	if err := os.MkdirAll(filepath.Dir(file.Path), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").
			WithContext("path", filepath.Dir(file.Path)).
			Build()
	}
	// #nosec G306 -- generated sources are meant to be committed and shared.
	if err := os.WriteFile(file.Path, []byte(file.Content), 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write "+filepath.Base(file.Path)).
			WithContext("path", file.Path).
			Build()
	}
	return nil
}

func (c *Coordinator) afterUnit(ctx context.Context, runID string, r UnitResult) {
	label := metrics.ResultSuccess
	resultText := string(metrics.ResultSuccess)
	errText := ""
	if r.Err != nil {
		label = metrics.ResultFailed
		resultText = string(metrics.ResultFailed)
		errText = r.Err.Error()
	}

	c.recorder.ObserveUnitDuration(r.Label, r.Duration)
	c.recorder.IncUnitResult(r.Label, label)
	if r.Err == nil {
		c.recorder.SetUnitEntries(r.Label, r.Entries)
	}

	// Detached: a canceled run still records the units it finished.
	hookCtx := context.WithoutCancel(ctx)
	if c.journal != nil {
		err := c.journal.RecordUnit(hookCtx, history.UnitRecord{
			RunID:    runID,
			Unit:     r.Label,
			Type:     r.Type,
			Path:     r.Path,
			Result:   resultText,
			Entries:  r.Entries,
			Error:    errText,
			Duration: r.Duration,
		})
		if err != nil {
			slog.Warn("Failed to record unit result", logfields.Unit(r.Label), logfields.Error(err))
		}
	}

	err := c.publisher.Publish(hookCtx, notify.Event{
		RunID:   runID,
		Unit:    r.Label,
		Type:    r.Type,
		Path:    r.Path,
		Result:  resultText,
		Entries: r.Entries,
		Error:   errText,
	})
	if err != nil {
		slog.Warn("Failed to publish generation event", logfields.Unit(r.Label), logfields.Error(err))
	}
}

func (c *Coordinator) afterRun(ctx context.Context, s Summary, opts Options) {
	c.recorder.ObserveRunDuration(s.Duration)
	c.recorder.IncRunOutcome(s.Outcome())

	if c.journal == nil {
		return
	}
	err := c.journal.RecordRun(context.WithoutCancel(ctx), history.RunRecord{
		RunID:     s.RunID,
		StartedAt: s.StartedAt,
		Duration:  s.Duration,
		Outcome:   string(s.Outcome()),
		Units:     len(s.Results),
		Failed:    s.Failed(),
		Canceled:  s.Canceled,
		Output:    opts.Destination,
	})
	if err != nil {
		slog.Warn("Failed to record run", logfields.RunID(s.RunID), logfields.Error(err))
	}
}
