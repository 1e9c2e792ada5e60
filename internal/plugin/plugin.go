// Package plugin defines the contract between the orchestrator and the
// document plugins, and the registration table that binds plugin names from
// configuration to constructors.
package plugin

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/scanbinder/internal/config"
	"git.home.luguber.info/inful/scanbinder/internal/extcmd"
	ferrors "git.home.luguber.info/inful/scanbinder/internal/foundation/errors"
	"git.home.luguber.info/inful/scanbinder/internal/scheduler"
)

// Plugin drives one target through its phases. Every plugin provides all
// four operations; embed Base to inherit no-op defaults.
type Plugin interface {
	// Test checks options and external tools before any target runs.
	Test(ctx context.Context) error
	// BeforeTasks prepares directories and other state for the parallel phase.
	BeforeTasks(ctx context.Context) error
	// GetTasks returns the independent work items of the parallel phase.
	GetTasks(ctx context.Context) ([]scheduler.Task, error)
	// AfterTasks assembles results. It runs even when tasks failed.
	AfterTasks(ctx context.Context) error
}

// ExecContext carries per-target execution settings. A plugin may lower Jobs
// for its own batch without touching the shared configuration.
type ExecContext struct {
	Jobs int
}

// Binding is everything a plugin instance is bound to for one target run.
type Binding struct {
	Store  *config.Store
	Target string
	Exec   *ExecContext
	Runner extcmd.Runner
}

// Constructor instantiates a plugin for one target run.
type Constructor func(b Binding) (Plugin, error)

// Base is a no-op Plugin with option helpers bound to (store, target).
type Base struct {
	Binding
}

// NewBase returns a Base over b. A nil ExecContext is replaced by one with a single worker.
func NewBase(b Binding) Base {
	if b.Exec == nil {
		b.Exec = &ExecContext{Jobs: 1}
	}
	return Base{Binding: b}
}

func (Base) Test(context.Context) error                         { return nil }
func (Base) BeforeTasks(context.Context) error                  { return nil }
func (Base) GetTasks(context.Context) ([]scheduler.Task, error) { return nil, nil }
func (Base) AfterTasks(context.Context) error                   { return nil }

// Option resolves key for the bound target.
func (b Base) Option(key string, def ...string) (string, error) {
	return b.Store.GetOption(b.Target, key, def...)
}

// Options resolves several keys, stopping at the first failure.
func (b Base) Options(keys ...string) ([]string, error) {
	out := make([]string, len(keys))
	for i, k := range keys {
		v, err := b.Option(k)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Int resolves key for the bound target as an integer.
func (b Base) Int(key string, def ...int) (int, error) {
	return b.Store.GetInt(b.Target, key, def...)
}

// Bool resolves key for the bound target as a boolean.
func (b Base) Bool(key string, def ...bool) (bool, error) {
	return b.Store.GetBool(b.Target, key, def...)
}

// CheckOptions verifies the bound target's option set.
func (b Base) CheckOptions(required []string, allowed ...string) error {
	return b.Store.CheckRequiredOptions(b.Target, required, allowed...)
}

// RequireTool checks that an external tool is installed. With args the tool
// is run and must succeed; without args it only has to start. The error names
// the package providing the tool.
func (b Base) RequireTool(ctx context.Context, pkg, name string, args ...string) error {
	var err error
	if len(args) > 0 {
		_, err = b.Runner.Run(ctx, name, args...)
	} else {
		err = b.Runner.Probe(ctx, name)
	}
	if err == nil {
		return nil
	}
	if ferrors.HasCategory(err, ferrors.CategoryCanceled) {
		return err
	}
	return ferrors.WrapError(err, ferrors.CategoryExternalCommand,
		fmt.Sprintf("'%s' command is not available; install %s and check the 'path' option of the global section", name, pkg)).
		WithKind(extcmd.ErrCommand).
		WithContext("command", name).
		Build()
}
