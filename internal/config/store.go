package config

import (
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// GlobalSection holds run-wide options.
const GlobalSection = "global"

// Reserved option names.
const (
	OptionPlugin  = "__plugin__"
	OptionMessage = "__msg__"
)

var pluginNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type section struct {
	name    string
	keys    []string
	options map[string]string
}

func newSection(name string) *section {
	return &section{name: name, options: make(map[string]string)}
}

func (s *section) set(key, value string) {
	if _, ok := s.options[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.options[key] = value
}

func (s *section) get(key string) (string, bool) {
	v, ok := s.options[key]
	return v, ok
}

// Store is the layered configuration of one run: sections of options plus
// the injected values visible from every section. It is not safe for
// concurrent mutation; after loading it is only read.
type Store struct {
	order    []string
	sections map[string]*section
	injected map[string]string
}

func newStore(injected map[string]string) *Store {
	inj := make(map[string]string, len(injected))
	maps.Copy(inj, injected)
	return &Store{sections: make(map[string]*section), injected: inj}
}

func (s *Store) merge(src *section) {
	dst, ok := s.sections[src.name]
	if !ok {
		dst = newSection(src.name)
		s.sections[src.name] = dst
		s.order = append(s.order, src.name)
	}
	for _, k := range src.keys {
		dst.set(k, src.options[k])
	}
}

// IsPluginSection reports whether name has the __<plugin>__ form.
func IsPluginSection(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

// PluginSectionName returns the plugin-default section name for plugin.
func PluginSectionName(plugin string) string {
	return "__" + plugin + "__"
}

// PluginNameFromSection strips the surrounding underscores of a plugin-default section.
func PluginNameFromSection(name string) string {
	return name[2 : len(name)-2]
}

// ValidPluginName reports whether name only contains letters, digits and underscores.
func ValidPluginName(name string) bool {
	return pluginNamePattern.MatchString(name)
}

// Sections returns all section names in declaration order.
func (s *Store) Sections() []string {
	return slices.Clone(s.order)
}

// PluginSections returns the plugin-default section names in declaration order.
func (s *Store) PluginSections() []string {
	var out []string
	for _, name := range s.order {
		if IsPluginSection(name) {
			out = append(out, name)
		}
	}
	return out
}

// HasSection reports whether the named section exists.
func (s *Store) HasSection(name string) bool {
	_, ok := s.sections[name]
	return ok
}

// RemoveSection deletes the named section; removing an absent section is a no-op.
func (s *Store) RemoveSection(name string) {
	if _, ok := s.sections[name]; !ok {
		return
	}
	delete(s.sections, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
}

// InjectedValue returns one of the values injected at load time.
func (s *Store) InjectedValue(name string) string {
	return s.injected[name]
}

// ResolvePlugin returns the plugin bound to target: the target section's
// __plugin__ option when present, the target name otherwise.
func (s *Store) ResolvePlugin(target string) (string, error) {
	plugin := target
	if sec, ok := s.sections[target]; ok {
		if raw, ok := sec.get(OptionPlugin); ok {
			v, err := s.interpolate(target, raw, 0)
			if err != nil {
				return "", err
			}
			plugin = strings.TrimSpace(v)
		}
	}
	if !s.HasSection(PluginSectionName(plugin)) {
		return "", pluginNotFound(target, plugin)
	}
	return plugin, nil
}

// GetOption resolves key for target. Precedence, lowest first: the supplied
// default, injected values, the plugin-default section, the target section.
// The result is whitespace-trimmed.
func (s *Store) GetOption(target, key string, def ...string) (string, error) {
	v, err := s.lookup(target, key, def)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

func (s *Store) lookup(target, key string, def []string) (string, error) {
	plugin, err := s.ResolvePlugin(target)
	if err != nil {
		return "", err
	}

	if sec, ok := s.sections[target]; ok {
		if raw, ok := sec.get(key); ok {
			return s.interpolate(target, raw, 0)
		}
	}
	pluginSection := PluginSectionName(plugin)
	if raw, ok := s.sections[pluginSection].get(key); ok {
		return s.interpolate(pluginSection, raw, 0)
	}
	if v, ok := s.injected[key]; ok {
		return v, nil
	}
	if len(def) > 0 {
		return def[0], nil
	}
	return "", optionMissing(target, key)
}

// GetInt resolves key for target and parses it as a decimal integer.
func (s *Store) GetInt(target, key string, def ...int) (int, error) {
	var defs []string
	if len(def) > 0 {
		defs = []string{strconv.Itoa(def[0])}
	}
	v, err := s.GetOption(target, key, defs...)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, wrapConfigError(err, "error while getting value for option '%s' of target '%s'", key, target)
	}
	return n, nil
}

// GetBool resolves key for target. Accepted values are 1/yes/true/on and
// 0/no/false/off, case-insensitive.
func (s *Store) GetBool(target, key string, def ...bool) (bool, error) {
	var defs []string
	if len(def) > 0 {
		defs = []string{strconv.FormatBool(def[0])}
	}
	v, err := s.GetOption(target, key, defs...)
	if err != nil {
		return false, err
	}
	b, err := ParseBool(v)
	if err != nil {
		return false, wrapConfigError(err, "error while getting value for option '%s' of target '%s'", key, target)
	}
	return b, nil
}

// ParseBool parses the boolean spellings accepted in configuration files.
func ParseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "yes", "true", "on":
		return true, nil
	case "0", "no", "false", "off":
		return false, nil
	}
	return false, strconv.ErrSyntax
}

// CheckRequiredOptions verifies that the non-reserved options of target and
// its plugin-default section contain every required key and nothing outside
// allowed. allowed defaults to required.
func (s *Store) CheckRequiredOptions(target string, required []string, allowed ...string) error {
	plugin, err := s.ResolvePlugin(target)
	if err != nil {
		return err
	}
	if len(allowed) == 0 {
		allowed = required
	}

	present := make(map[string]struct{})
	collect := func(sec *section) {
		if sec == nil {
			return
		}
		for _, k := range sec.keys {
			if !strings.HasPrefix(k, "_") {
				present[k] = struct{}{}
			}
		}
	}
	collect(s.sections[PluginSectionName(plugin)])
	collect(s.sections[target])

	var missing []string
	for _, k := range required {
		if _, ok := present[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return configError("some mandatory options for target '%s' are missing: %s", target, strings.Join(missing, ", "))
	}

	var extra []string
	for k := range present {
		if !slices.Contains(allowed, k) {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		slices.Sort(extra)
		return configError("some extra options are given for target '%s': %s", target, strings.Join(extra, ", "))
	}
	return nil
}

// Global resolves key in the global section.
func (s *Store) Global(key string, def ...string) (string, error) {
	if sec, ok := s.sections[GlobalSection]; ok {
		if raw, ok := sec.get(key); ok {
			v, err := s.interpolate(GlobalSection, raw, 0)
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(v), nil
		}
	}
	if len(def) > 0 {
		return def[0], nil
	}
	return "", optionMissing(GlobalSection, key)
}

// Targets returns global.targets split on whitespace.
func (s *Store) Targets() ([]string, error) {
	v, err := s.Global("targets")
	if err != nil {
		return nil, err
	}
	targets := strings.Fields(v)
	if len(targets) == 0 {
		return nil, configError("option 'targets' of the global section is empty")
	}
	return targets, nil
}

// Jobs returns global.jobs, defaulting to 1.
func (s *Store) Jobs() (int, error) {
	v, err := s.Global("jobs", "1")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, wrapConfigError(err, "error while getting value for option 'jobs' of the global section")
	}
	if n < 1 {
		return 0, configError("option 'jobs' of the global section must be at least 1, got %d", n)
	}
	return n, nil
}
