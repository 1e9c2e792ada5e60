// Package build provides the canonical build execution pipeline for scanbinder.
//
// A run loads the layered configuration, binds the configured plugins,
// pretests every target and then drives each target in declaration order
// through its phases:
//
//	before → parallel tasks → after
//
// Failures are reported per target through the UI and never stop sibling
// targets. Only cancellation of the run context aborts the loop.
package build

import (
	"context"
	"time"
)

// Service is the canonical interface for executing scanbinder runs.
type Service interface {
	// Run executes every configured target and returns per-target outcomes.
	Run(ctx context.Context, req Request) (*Result, error)
}

// Request contains all inputs required to execute a run.
type Request struct {
	// ProgramConfig is the path of the program-level config.yaml.
	ProgramConfig string

	// ProjectDir is the directory holding the scans and project.yaml.
	ProjectDir string

	// OutputName is the common base name of the produced documents.
	OutputName string

	// Jobs overrides global.jobs when positive.
	Jobs int
}

// Status represents the outcome of a run or a target.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsSuccess returns true if the run or target completed successfully.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// TargetResult is the outcome of one target.
type TargetResult struct {
	Target         string
	Plugin         string
	Status         Status
	TasksTotal     int
	TasksCompleted int
	// Errors holds every error reported for the target, task errors included.
	Errors   []error
	Duration time.Duration
}

// Result contains the outcome of a run.
type Result struct {
	RunID     string
	Status    Status
	Targets   []TargetResult
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// FailedTargets returns the names of targets that did not succeed.
func (r *Result) FailedTargets() []string {
	var out []string
	for _, t := range r.Targets {
		if t.Status != StatusSuccess {
			out = append(out, t.Target)
		}
	}
	return out
}

func (r *Result) finish(status Status) *Result {
	r.Status = status
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	return r
}
