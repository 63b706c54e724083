// Package manifest handles layoutc.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/layoutc/compiler"
)

// FileName is the manifest file looked up by Load and FindAndLoad.
const FileName = "layoutc.toml"

// Manifest represents a layoutc.toml project configuration.
type Manifest struct {
	Project    Project     `toml:"project"`
	Source     Source      `toml:"source"`
	Compiler   Compiler    `toml:"compiler"`
	Components []Component `toml:"components"`

	// Dir is the directory containing the layoutc.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures template file locations.
type Source struct {
	Dirs []string `toml:"dirs"`
}

// Compiler mirrors compiler.Options.
type Compiler struct {
	AllowRebind       bool   `toml:"allow-rebind"`
	ComponentResolver string `toml:"component-resolver"`
	StripComments     bool   `toml:"strip-comments"`
}

// Component declares a component visible to static invocations. Name may
// be qualified as "module::Name" instead of setting Module.
type Component struct {
	Name   string `toml:"name"`
	Module string `toml:"module"`
}

// Load parses a layoutc.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"templates"}
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a layoutc.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// SourceDirPaths returns absolute paths for the configured template directories.
func (m *Manifest) SourceDirPaths() []string {
	var paths []string
	for _, d := range m.Source.Dirs {
		paths = append(paths, filepath.Join(m.Dir, d))
	}
	return paths
}

// Options returns the compiler options the manifest configures.
func (m *Manifest) Options() compiler.Options {
	return compiler.Options{
		AllowRebind:       m.Compiler.AllowRebind,
		ComponentResolver: m.Compiler.ComponentResolver,
		StripComments:     m.Compiler.StripComments,
	}
}

// Environment registers the declared components, in declaration order, in
// a fresh MapEnvironment.
func (m *Manifest) Environment() (*compiler.MapEnvironment, error) {
	env := compiler.NewMapEnvironment()
	seen := make(map[string]bool, len(m.Components))
	for i, c := range m.Components {
		module, name := SplitComponentName(c.Name)
		if c.Module != "" {
			if module != "" && module != c.Module {
				return nil, fmt.Errorf("component %d: %q conflicts with module %q", i, c.Name, c.Module)
			}
			module = c.Module
		}
		if err := ValidateComponentName(name); err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		key := module + "::" + name
		if seen[key] {
			return nil, fmt.Errorf("component %d: %q declared twice", i, c.Name)
		}
		seen[key] = true
		env.RegisterIn(module, name)
	}
	return env, nil
}
