package plugin

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"git.home.luguber.info/inful/scanbinder/internal/config"
	ferrors "git.home.luguber.info/inful/scanbinder/internal/foundation/errors"
	"git.home.luguber.info/inful/scanbinder/internal/logfields"
)

// ErrPluginLoad marks plugins that are declared in configuration but cannot be bound.
var ErrPluginLoad = errors.New("plugin load error")

// Reporter receives diagnostics produced while loading plugins. ui.UI satisfies it.
type Reporter interface {
	Error(title, message string)
	Warning(title, message string)
}

// Registry is the explicit table of known plugin constructors.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry creates a new empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register adds a constructor under name.
// Returns an error for invalid names, nil constructors and duplicates.
func (r *Registry) Register(name string, c Constructor) error {
	if !config.ValidPluginName(name) {
		return fmt.Errorf("invalid plugin name %q: only letters, digits and underscores are allowed", name)
	}
	if c == nil {
		return fmt.Errorf("cannot register nil constructor for plugin %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.constructors[name]; exists {
		return fmt.Errorf("plugin %s already registered", name)
	}
	r.constructors[name] = c
	return nil
}

// MustRegister is Register for static tables; it panics on error.
func (r *Registry) MustRegister(name string, c Constructor) {
	if err := r.Register(name, c); err != nil {
		panic(err)
	}
}

// Has checks if a plugin with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.constructors[name]
	return ok
}

// Names returns the registered plugin names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.constructors))
	for n := range r.constructors {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) constructor(name string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.constructors[name]
	return c, ok
}

func loadError(name, reason string) error {
	return ferrors.NewErrorf(ferrors.CategoryPlugin, "cannot load plugin '%s': %s", name, reason).
		WithKind(ErrPluginLoad).
		WithContext("plugin", name).
		Build()
}

// LoadAll binds every plugin-default section of store to the table.
//
// Sections with invalid names produce a warning; sections naming an unknown
// plugin produce a load error report. In both cases the section is removed
// so targets using the plugin fail resolution with config.ErrPluginNotFound.
// Loading always continues.
func (r *Registry) LoadAll(store *config.Store, rep Reporter) *Loaded {
	loaded := &Loaded{registry: r, names: make(map[string]struct{})}
	for _, section := range store.PluginSections() {
		name := config.PluginNameFromSection(section)
		if !config.ValidPluginName(name) {
			rep.Warning("", fmt.Sprintf(
				"plugin name should only contain letters, digits and underscores; plugin '%s' was not loaded", name))
			store.RemoveSection(section)
			continue
		}
		if !r.Has(name) {
			err := loadError(name, "no such plugin")
			slog.Warn("Plugin not loaded", logfields.Plugin(name), logfields.Error(err))
			rep.Error("", err.Error())
			store.RemoveSection(section)
			continue
		}
		loaded.names[name] = struct{}{}
		loaded.order = append(loaded.order, name)
		slog.Debug("Plugin loaded", logfields.Plugin(name))
	}
	return loaded
}

// Loaded is the set of plugins bound for one run.
type Loaded struct {
	registry *Registry
	names    map[string]struct{}
	order    []string
}

// Names returns the loaded plugin names in configuration order.
func (l *Loaded) Names() []string {
	return slices.Clone(l.order)
}

// Has reports whether name was loaded.
func (l *Loaded) Has(name string) bool {
	_, ok := l.names[name]
	return ok
}

// New instantiates plugin name for one target run.
func (l *Loaded) New(name string, b Binding) (Plugin, error) {
	if !l.Has(name) {
		return nil, loadError(name, "plugin is not loaded")
	}
	c, _ := l.registry.constructor(name)
	if b.Exec == nil {
		b.Exec = &ExecContext{Jobs: 1}
	}
	p, err := c(b)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryPlugin, fmt.Sprintf("cannot initialize plugin '%s'", name)).
			WithKind(ErrPluginLoad).
			WithContext("plugin", name).
			Build()
	}
	return p, nil
}
