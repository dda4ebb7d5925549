package metrics

import "time"

// ResultLabel enumerates unit result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// RunOutcome is the final status of a generation run.
type RunOutcome string

const (
	OutcomeSuccess  RunOutcome = "success"
	OutcomePartial  RunOutcome = "partial"
	OutcomeCanceled RunOutcome = "canceled"
	OutcomeRefused  RunOutcome = "refused"
)

// Recorder defines observability hooks for generation runs. Implementations may forward to
// Prometheus or anything else; NoopRecorder is the default when metrics are not configured.
type Recorder interface {
	ObserveUnitDuration(unit string, d time.Duration)
	IncUnitResult(unit string, result ResultLabel)
	SetUnitEntries(unit string, n int)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome RunOutcome)
	AddRelocatedFiles(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveUnitDuration(string, time.Duration) {}
func (NoopRecorder) IncUnitResult(string, ResultLabel)         {}
func (NoopRecorder) SetUnitEntries(string, int)                {}
func (NoopRecorder) ObserveRunDuration(time.Duration)          {}
func (NoopRecorder) IncRunOutcome(RunOutcome)                  {}
func (NoopRecorder) AddRelocatedFiles(int)                     {}
