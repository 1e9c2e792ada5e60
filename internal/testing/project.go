package testing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Project is a scratch scanbinder setup: a program configuration, a project
// directory and a bin directory of fake external tools.
type Project struct {
	t    *testing.T
	Root string
	// Dir is the project directory passed on the command line.
	Dir string
	// Bin holds the fake tools; use it as the global path option.
	Bin string
}

// NewProject creates an empty project below t.TempDir().
func NewProject(t *testing.T) *Project {
	t.Helper()
	root := t.TempDir()
	p := &Project{
		t:    t,
		Root: root,
		Dir:  filepath.Join(root, "project"),
		Bin:  filepath.Join(root, "bin"),
	}
	for _, d := range []string{p.Dir, p.Bin} {
		if err := os.MkdirAll(d, testDirPermissions); err != nil {
			t.Fatalf("Failed to create %s: %v", d, err)
		}
	}
	return p
}

// ProgramConfig returns the path of the program configuration file.
func (p *Project) ProgramConfig() string {
	return filepath.Join(p.Root, "config.yaml")
}

// expand replaces {{bin}}, {{root}} and {{project}} placeholders.
func (p *Project) expand(s string) string {
	return strings.NewReplacer("{{bin}}", p.Bin, "{{root}}", p.Root, "{{project}}", p.Dir).Replace(s)
}

// WithProgramConfig writes the program configuration.
func (p *Project) WithProgramConfig(yaml string) *Project {
	p.t.Helper()
	p.write(p.ProgramConfig(), p.expand(yaml), testFilePermissions)
	return p
}

// WithProjectConfig writes project.yaml into the project directory.
func (p *Project) WithProjectConfig(yaml string) *Project {
	p.t.Helper()
	p.write(filepath.Join(p.Dir, "project.yaml"), p.expand(yaml), testFilePermissions)
	return p
}

// WithFile writes a file relative to the project directory.
func (p *Project) WithFile(rel, content string) *Project {
	p.t.Helper()
	p.write(filepath.Join(p.Dir, rel), content, testFilePermissions)
	return p
}

// WithTool installs a fake external tool running the given shell body.
func (p *Project) WithTool(name, body string) *Project {
	p.t.Helper()
	p.write(filepath.Join(p.Bin, name), "#!/bin/sh\n"+body+"\n", testToolPermissions)
	return p
}

// Files returns assertions rooted at the project directory.
func (p *Project) Files() *FileAssertions {
	return NewFileAssertions(p.t, p.Dir)
}

func (p *Project) write(path, content string, mode os.FileMode) {
	p.t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), testDirPermissions); err != nil {
		p.t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		p.t.Fatalf("Failed to write %s: %v", path, err)
	}
}
