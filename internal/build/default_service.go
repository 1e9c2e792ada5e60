package build

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/scanbinder/internal/config"
	"git.home.luguber.info/inful/scanbinder/internal/extcmd"
	ferrors "git.home.luguber.info/inful/scanbinder/internal/foundation/errors"
	"git.home.luguber.info/inful/scanbinder/internal/logfields"
	"git.home.luguber.info/inful/scanbinder/internal/metrics"
	"git.home.luguber.info/inful/scanbinder/internal/observability"
	"git.home.luguber.info/inful/scanbinder/internal/plugin"
	"git.home.luguber.info/inful/scanbinder/internal/scheduler"
	"git.home.luguber.info/inful/scanbinder/internal/ui"
)

// Stage names used for logs and metrics.
const (
	StagePretest  = "pretest"
	StageBefore   = "before"
	StageParallel = "parallel"
	StageAfter    = "after"
)

// TitlePretest is the diagnostic title of advisory pretest failures.
const TitlePretest = "pretest error"

// RunnerFactory builds the external command runner for a loaded configuration.
type RunnerFactory func(store *config.Store) (extcmd.Runner, error)

// DefaultService is the standard implementation of Service.
type DefaultService struct {
	registry      *plugin.Registry
	ui            ui.UI
	recorder      metrics.Recorder
	runnerFactory RunnerFactory
}

// NewService creates a DefaultService over the plugin table and UI.
func NewService(registry *plugin.Registry, u ui.UI) *DefaultService {
	return &DefaultService{
		registry: registry,
		ui:       u,
		recorder: metrics.NoopRecorder{},
		runnerFactory: func(store *config.Store) (extcmd.Runner, error) {
			return extcmd.FromConfig(store)
		},
	}
}

// WithRecorder sets the metrics recorder.
func (s *DefaultService) WithRecorder(r metrics.Recorder) *DefaultService {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	s.recorder = r
	return s
}

// WithRunnerFactory allows injecting a custom command runner (for testing).
func (s *DefaultService) WithRunnerFactory(f RunnerFactory) *DefaultService {
	s.runnerFactory = f
	return s
}

// run holds the state shared by all targets of one Run call.
type run struct {
	store   *config.Store
	loaded  *plugin.Loaded
	runner  extcmd.Runner
	jobs    int
	targets []string
}

// Run executes the complete pipeline.
func (s *DefaultService) Run(ctx context.Context, req Request) (*Result, error) {
	result := &Result{RunID: uuid.NewString(), StartTime: time.Now()}
	ctx = observability.WithRunID(ctx, result.RunID)

	r, err := s.prepare(ctx, req)
	if err != nil {
		s.finishRun(result, StatusFailed)
		return result, err
	}

	s.pretest(ctx, r)

	for i, target := range r.targets {
		if ctx.Err() != nil {
			break
		}
		tr, progressOpen := s.runTarget(ctx, r, i, target)
		result.Targets = append(result.Targets, tr)
		if tr.Status == StatusCancelled {
			if progressOpen {
				s.ui.ProgressFinalize(true)
			}
			break
		}
	}

	if ctx.Err() != nil {
		observability.WarnContext(ctx, "Run interrupted")
		s.finishRun(result, StatusCancelled)
		return result, ferrors.CanceledError("interrupted").WithCause(ctx.Err()).Build()
	}

	if failed := result.FailedTargets(); len(failed) > 0 {
		s.finishRun(result, StatusFailed)
		return result, ferrors.BuildError(fmt.Sprintf("%d of %d targets failed: %s",
			len(failed), len(r.targets), strings.Join(failed, ", "))).Build()
	}
	s.finishRun(result, StatusSuccess)
	return result, nil
}

func (s *DefaultService) finishRun(result *Result, status Status) {
	result.finish(status)
	s.recorder.IncRunOutcome(string(status))
	s.recorder.ObserveRunDuration(result.Duration)
}

// prepare covers LOAD_CONFIG and LOAD_PLUGINS. Its errors are fatal.
func (s *DefaultService) prepare(ctx context.Context, req Request) (*run, error) {
	if req.ProgramConfig == "" {
		return nil, ferrors.ValidationError("program configuration path required").Build()
	}

	store, warnings, err := config.Load(req.ProgramConfig, config.ProjectFile(req.ProjectDir),
		config.Injected(req.OutputName, req.ProjectDir))
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		s.ui.Warning("", w)
	}

	targets, err := store.Targets()
	if err != nil {
		return nil, err
	}
	jobs := req.Jobs
	if jobs <= 0 {
		if jobs, err = store.Jobs(); err != nil {
			return nil, err
		}
	}
	runner, err := s.runnerFactory(store)
	if err != nil {
		return nil, err
	}

	loaded := s.registry.LoadAll(store, s.ui)
	observability.InfoContext(ctx, "Configuration loaded",
		slog.String("targets", strings.Join(targets, " ")), logfields.Workers(jobs))

	return &run{store: store, loaded: loaded, runner: runner, jobs: jobs, targets: targets}, nil
}

func (s *DefaultService) instantiate(r *run, target string, exec *plugin.ExecContext) (string, plugin.Plugin, error) {
	name, err := r.store.ResolvePlugin(target)
	if err != nil {
		return "", nil, err
	}
	p, err := r.loaded.New(name, plugin.Binding{Store: r.store, Target: target, Exec: exec, Runner: r.runner})
	if err != nil {
		return name, nil, err
	}
	return name, p, nil
}

// pretest runs every target's Test once. Failures are advisory.
func (s *DefaultService) pretest(ctx context.Context, r *run) {
	start := time.Now()
	ctx = observability.WithStage(ctx, StagePretest)
	for _, target := range r.targets {
		if ctx.Err() != nil {
			return
		}
		_, p, err := s.instantiate(r, target, &plugin.ExecContext{Jobs: r.jobs})
		if err == nil {
			err = p.Test(ctx)
		}
		if err != nil {
			observability.WarnContext(ctx, "Pretest failed", logfields.Target(target), logfields.Error(err))
			s.ui.Error(TitlePretest, fmt.Sprintf("[%s] %v", target, err))
		}
	}
	s.recorder.ObserveStageDuration(StagePretest, time.Since(start))
}

// runTarget drives one target through its phases. It reports whether the
// progress display is still open, which only happens on cancellation.
func (s *DefaultService) runTarget(ctx context.Context, r *run, index int, target string) (TargetResult, bool) {
	start := time.Now()
	tr := TargetResult{Target: target}
	progressOpen := false

	finish := func(status Status) (TargetResult, bool) {
		tr.Status = status
		tr.Duration = time.Since(start)
		s.recorder.ObserveTargetDuration(target, tr.Duration)
		s.recorder.IncTargetResult(target, resultLabel(status))
		return tr, progressOpen
	}
	fail := func(err error) (TargetResult, bool) {
		if ctx.Err() != nil {
			return finish(StatusCancelled)
		}
		if progressOpen {
			s.ui.ProgressFinalize(true)
			progressOpen = false
		}
		tr.Errors = append(tr.Errors, err)
		observability.ErrorContext(ctx, "Target failed", logfields.Error(err))
		s.ui.Error("", fmt.Sprintf("[%s] %v", target, err))
		return finish(StatusFailed)
	}

	exec := &plugin.ExecContext{Jobs: r.jobs}
	name, p, err := s.instantiate(r, target, exec)
	tr.Plugin = name
	ctx = observability.WithTarget(ctx, target, name)
	if err != nil {
		return fail(err)
	}

	msg, err := r.store.GetOption(target, config.OptionMessage, fmt.Sprintf("Running %s...", target))
	if err != nil {
		return fail(err)
	}
	s.ui.ProgressBefore(index+1, len(r.targets), msg)
	progressOpen = true
	observability.InfoContext(ctx, "Running target")

	// before
	stageStart := time.Now()
	tasks, err := beforeStage(observability.WithStage(ctx, StageBefore), p)
	s.recorder.ObserveStageDuration(StageBefore, time.Since(stageStart))
	if err != nil {
		return fail(err)
	}

	// parallel
	stageStart = time.Now()
	pctx := observability.WithStage(ctx, StageParallel)
	workers := max(exec.Jobs, 1)
	s.recorder.SetWorkers(target, workers)
	observability.DebugContext(pctx, "Starting parallel phase", logfields.Tasks(len(tasks)), logfields.Workers(workers))

	s.ui.ProgressCurrent(0)
	batch := scheduler.NewBatch(tasks)
	schedErr := scheduler.Run(pctx, batch, workers, s.ui.ProgressCurrent)

	tr.TasksTotal = batch.Total()
	tr.TasksCompleted = batch.Completed()
	taskErrs := batch.Errors()
	for i := 0; i < tr.TasksCompleted; i++ {
		s.recorder.IncTaskResult(target, true)
	}
	for range taskErrs {
		s.recorder.IncTaskResult(target, false)
	}
	s.recorder.ObserveStageDuration(StageParallel, time.Since(stageStart))
	if schedErr != nil {
		return finish(StatusCancelled)
	}

	// after
	s.ui.ProgressAfter()
	stageStart = time.Now()
	afterErr := p.AfterTasks(observability.WithStage(ctx, StageAfter))
	s.recorder.ObserveStageDuration(StageAfter, time.Since(stageStart))

	var aggregated error
	if len(taskErrs) > 0 {
		aggregated = aggregateTaskErrors(target, taskErrs)
		tr.Errors = append(tr.Errors, aggregated)
	}
	if afterErr != nil {
		if aggregated != nil && ctx.Err() == nil {
			s.ui.ProgressFinalize(true)
			progressOpen = false
			s.ui.Error("", aggregated.Error())
		}
		return fail(afterErr)
	}

	s.ui.ProgressFinalize(false)
	progressOpen = false

	if aggregated != nil {
		observability.ErrorContext(ctx, "Tasks failed", slog.Int("failed_tasks", len(taskErrs)))
		s.ui.Error("", aggregated.Error())
		return finish(StatusFailed)
	}
	observability.InfoContext(ctx, "Target complete", logfields.Tasks(tr.TasksTotal), logfields.Duration(time.Since(start)))
	return finish(StatusSuccess)
}

// beforeStage runs BeforeTasks and collects the batch.
func beforeStage(ctx context.Context, p plugin.Plugin) ([]scheduler.Task, error) {
	if err := p.BeforeTasks(ctx); err != nil {
		return nil, err
	}
	return p.GetTasks(ctx)
}

// TargetError aggregates the task failures of one target.
type TargetError struct {
	Target string
	Tasks  []*scheduler.TaskError
}

func (e *TargetError) Error() string {
	msgs := make([]string, len(e.Tasks))
	for i, t := range e.Tasks {
		msgs[i] = t.Error()
	}
	return fmt.Sprintf("[%s] %s", e.Target, strings.Join(msgs, "\n===\n\n"))
}

func (e *TargetError) Unwrap() []error {
	errs := make([]error, len(e.Tasks))
	for i, t := range e.Tasks {
		errs[i] = t
	}
	return errs
}

func aggregateTaskErrors(target string, errs []*scheduler.TaskError) error {
	return &TargetError{Target: target, Tasks: errs}
}

func resultLabel(s Status) metrics.ResultLabel {
	switch s {
	case StatusSuccess:
		return metrics.ResultSuccess
	case StatusCancelled:
		return metrics.ResultCanceled
	default:
		return metrics.ResultFailed
	}
}
