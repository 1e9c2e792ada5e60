package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Well-known file names.
const (
	ProgramFileName = "config.yaml"
	ProjectFileName = "project.yaml"
)

// Names of the values injected into every lookup context.
const (
	InjectedOutput  = "_OUTPUT"
	InjectedProject = "_PROJECT"
	InjectedSep     = "_SEP"
)

// Injected builds the map of values that are visible in every section.
func Injected(outputName, projectDir string) map[string]string {
	return map[string]string{
		InjectedOutput:  outputName,
		InjectedProject: projectDir,
		InjectedSep:     string(filepath.Separator),
	}
}

// ProjectFile returns the project-level configuration path inside projectDir.
func ProjectFile(projectDir string) string {
	return filepath.Join(projectDir, ProjectFileName)
}

// Load reads the program-level file, overlays the project-level file and
// returns the merged store together with non-fatal warnings.
//
// A missing project file is not an error. Plugin-default sections that only
// the project file introduces are dropped and reported as warnings.
func Load(programPath, projectPath string, injected map[string]string) (*Store, []string, error) {
	program, err := os.ReadFile(programPath)
	if err != nil {
		return nil, nil, wrapConfigError(err, "error reading config file %s", programPath)
	}

	var project []byte
	if projectPath != "" {
		project, err = os.ReadFile(projectPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, wrapConfigError(err, "error reading config file %s", projectPath)
		}
	}

	return LoadData(programPath, program, projectPath, project, injected)
}

// LoadData is Load over in-memory documents. Names are used in diagnostics only.
// A nil project document means there is no project-level configuration.
func LoadData(programName string, program []byte, projectName string, project []byte, injected map[string]string) (*Store, []string, error) {
	store := newStore(injected)

	base, err := parseDocument(programName, program)
	if err != nil {
		return nil, nil, err
	}
	for _, sec := range base {
		store.merge(sec)
	}

	if project == nil {
		return store, nil, nil
	}

	overlay, err := parseDocument(projectName, project)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	for _, sec := range overlay {
		if IsPluginSection(sec.name) && !store.HasSection(sec.name) {
			warnings = append(warnings, fmt.Sprintf(
				"plugin loading is only possible from the program-level configuration; section '%s' in %s ignored",
				sec.name, projectName))
			continue
		}
		store.merge(sec)
	}
	return store, warnings, nil
}

// parseDocument decodes one YAML document of the shape
// section -> option -> scalar, keeping section and option order.
func parseDocument(name string, data []byte) ([]*section, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, wrapConfigError(err, "error parsing config file %s", name)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, configError("%s:%d: top level must be a mapping of sections", name, root.Line)
	}

	var out []*section
	seen := make(map[string]*section)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return nil, configError("%s:%d: section name must be a scalar", name, keyNode.Line)
		}

		sec, ok := seen[keyNode.Value]
		if !ok {
			sec = newSection(keyNode.Value)
			seen[sec.name] = sec
			out = append(out, sec)
		}

		switch {
		case valNode.Kind == yaml.ScalarNode && valNode.Tag == "!!null":
			// empty section
		case valNode.Kind == yaml.MappingNode:
			for j := 0; j+1 < len(valNode.Content); j += 2 {
				k, v := valNode.Content[j], valNode.Content[j+1]
				if k.Kind != yaml.ScalarNode {
					return nil, configError("%s:%d: option name in section '%s' must be a scalar", name, k.Line, sec.name)
				}
				if v.Kind != yaml.ScalarNode {
					return nil, configError("%s:%d: option '%s' in section '%s' must be a scalar value", name, v.Line, k.Value, sec.name)
				}
				value := v.Value
				if v.Tag == "!!null" {
					value = ""
				}
				sec.set(k.Value, value)
			}
		default:
			return nil, configError("%s:%d: section '%s' must be a mapping of options", name, valNode.Line, sec.name)
		}
	}
	return out, nil
}
