package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "typedstrings"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	unitDuration *prom.HistogramVec
	unitResults  *prom.CounterVec
	unitEntries  *prom.GaugeVec
	runDuration  prom.Histogram
	runOutcome   *prom.CounterVec
	relocated    prom.Counter
}

// NewPrometheusRecorder constructs the metrics and registers them with reg. A nil reg gets a
// private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		unitDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "unit_duration_seconds",
			Help:      "Duration of populating, rendering and writing one unit",
			Buckets:   prom.DefBuckets,
		}, []string{"unit"}),
		unitResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "unit_results_total",
			Help:      "Unit generation results by outcome",
		}, []string{"unit", "result"}),
		unitEntries: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "unit_entries",
			Help:      "Number of enum members in the last generated file of a unit",
		}, []string{"unit"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total generation run duration",
			Buckets:   prom.DefBuckets,
		}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Generation runs by final status",
		}, []string{"outcome"}),
		relocated: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "relocated_files_total",
			Help:      "Generated files moved after an output folder change",
		}),
	}
	reg.MustRegister(pr.unitDuration, pr.unitResults, pr.unitEntries, pr.runDuration, pr.runOutcome, pr.relocated)
	return pr
}

func (p *PrometheusRecorder) ObserveUnitDuration(unit string, d time.Duration) {
	if p == nil {
		return
	}
	p.unitDuration.WithLabelValues(unit).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncUnitResult(unit string, result ResultLabel) {
	if p == nil {
		return
	}
	p.unitResults.WithLabelValues(unit, string(result)).Inc()
}

func (p *PrometheusRecorder) SetUnitEntries(unit string, n int) {
	if p == nil {
		return
	}
	p.unitEntries.WithLabelValues(unit).Set(float64(n))
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome RunOutcome) {
	if p == nil {
		return
	}
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddRelocatedFiles(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.relocated.Add(float64(n))
}
