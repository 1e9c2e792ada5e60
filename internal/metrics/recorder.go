package metrics

import "time"

// ResultLabel enumerates target result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for run, target and task metrics.
// Implementations must be safe for concurrent use: task results are recorded
// from scheduler workers.
type Recorder interface {
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome string) // outcome: success|failed|canceled
	ObserveTargetDuration(target string, d time.Duration)
	IncTargetResult(target string, result ResultLabel)
	ObserveStageDuration(stage string, d time.Duration)
	IncTaskResult(target string, success bool)
	SetWorkers(target string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRunDuration(time.Duration)            {}
func (NoopRecorder) IncRunOutcome(string)                        {}
func (NoopRecorder) ObserveTargetDuration(string, time.Duration) {}
func (NoopRecorder) IncTargetResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveStageDuration(string, time.Duration)  {}
func (NoopRecorder) IncTaskResult(string, bool)                  {}
func (NoopRecorder) SetWorkers(string, int)                      {}
