package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	runDuration    prom.Histogram
	runOutcome     *prom.CounterVec
	targetDuration *prom.HistogramVec
	targetResults  *prom.CounterVec
	stageDuration  *prom.HistogramVec
	taskResults    *prom.CounterVec
	workers        *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "scanbinder",
			Name:      "run_duration_seconds",
			Help:      "Total run duration",
			Buckets:   prom.ExponentialBuckets(1, 2, 12),
		})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "scanbinder",
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"})
		pr.targetDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "scanbinder",
			Name:      "target_duration_seconds",
			Help:      "Duration of individual targets",
			Buckets:   prom.ExponentialBuckets(0.5, 2, 12),
		}, []string{"target"})
		pr.targetResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "scanbinder",
			Name:      "target_results_total",
			Help:      "Target results by outcome",
		}, []string{"target", "result"})
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "scanbinder",
			Name:      "stage_duration_seconds",
			Help:      "Duration of target phases (pretest, before, parallel, after)",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.taskResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "scanbinder",
			Name:      "task_results_total",
			Help:      "Task results by target and success/failure",
		}, []string{"target", "result"})
		pr.workers = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "scanbinder",
			Name:      "target_workers",
			Help:      "Worker count used for the last parallel phase of a target",
		}, []string{"target"})
		reg.MustRegister(pr.runDuration, pr.runOutcome, pr.targetDuration, pr.targetResults, pr.stageDuration, pr.taskResults, pr.workers)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveTargetDuration(target string, d time.Duration) {
	if p == nil || p.targetDuration == nil {
		return
	}
	p.targetDuration.WithLabelValues(target).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTargetResult(target string, result ResultLabel) {
	if p == nil || p.targetResults == nil {
		return
	}
	p.targetResults.WithLabelValues(target, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTaskResult(target string, success bool) {
	if p == nil || p.taskResults == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.taskResults.WithLabelValues(target, res).Inc()
}

func (p *PrometheusRecorder) SetWorkers(target string, n int) {
	if p == nil || p.workers == nil {
		return
	}
	p.workers.WithLabelValues(target).Set(float64(n))
}
