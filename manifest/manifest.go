// Package manifest handles uds.toml project configuration.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/uds/pkg/variant"
)

// FileName is the name of the project configuration file.
const FileName = "uds.toml"

// Defaults applied after decoding.
const (
	DefaultSourceDir = "src"
	DefaultImagePath = ".uds/image.db"
)

// Manifest represents a uds.toml project configuration.
type Manifest struct {
	Project Project       `toml:"project"`
	Source  Source        `toml:"source"`
	Runtime RuntimeConfig `toml:"runtime"`
	Log     LogConfig     `toml:"log"`
	Image   ImageConfig   `toml:"image"`

	// Dir is the directory containing the uds.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version,omitempty"`
}

// Source configures where assembly listings live.
type Source struct {
	Dirs  []string `toml:"dirs"`
	Entry string   `toml:"entry,omitempty"`
}

// RuntimeConfig tunes the associative variable runtime.
type RuntimeConfig struct {
	// Collation is "ascii" (default) or "unicode".
	Collation string `toml:"collation"`
	// MaxFieldDepth bounds a.b.c chains; 0 means unlimited.
	MaxFieldDepth int `toml:"max-field-depth"`
}

// LogConfig configures commonlog output.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	Path      string `toml:"path,omitempty"`
}

// ImageConfig configures the snapshot database.
type ImageConfig struct {
	Path string `toml:"path"`
}

// Default returns a manifest for a new project called name.
func Default(name string) *Manifest {
	m := &Manifest{Project: Project{Name: name}}
	m.applyDefaults()
	return m
}

func (m *Manifest) applyDefaults() {
	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{DefaultSourceDir}
	}
	if m.Runtime.Collation == "" {
		m.Runtime.Collation = variant.CollateASCII.String()
	}
	if m.Image.Path == "" {
		m.Image.Path = DefaultImagePath
	}
}

// Validate checks values that decode fine but make no sense.
func (m *Manifest) Validate() error {
	var errs []error
	if _, err := variant.ParseCollation(m.Runtime.Collation); err != nil {
		errs = append(errs, fmt.Errorf("runtime.collation: %w", err))
	}
	if m.Runtime.MaxFieldDepth < 0 {
		errs = append(errs, fmt.Errorf("runtime.max-field-depth: must not be negative, got %d", m.Runtime.MaxFieldDepth))
	}
	if m.Log.Verbosity < 0 {
		errs = append(errs, fmt.Errorf("log.verbosity: must not be negative, got %d", m.Log.Verbosity))
	}
	return errors.Join(errs...)
}

// Load parses a uds.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a uds.toml file,
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

// Write encodes m as TOML into dir/uds.toml. An existing file is not
// overwritten.
func Write(dir string, m *Manifest) error {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

// Collation returns the configured string-key collation.
func (m *Manifest) Collation() variant.Collation {
	c, _ := variant.ParseCollation(m.Runtime.Collation)
	return c
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (m *Manifest) SourceDirPaths() []string {
	var paths []string
	for _, d := range m.Source.Dirs {
		paths = append(paths, filepath.Join(m.Dir, d))
	}
	return paths
}

// EntryPath returns the path of the entry listing, or "" if none is set.
func (m *Manifest) EntryPath() string {
	if m.Source.Entry == "" {
		return ""
	}
	return m.resolve(m.Source.Entry)
}

// ImagePath returns the path to the snapshot database.
func (m *Manifest) ImagePath() string {
	return m.resolve(m.Image.Path)
}

// LogPath returns the log file path, or "" for stderr.
func (m *Manifest) LogPath() string {
	if m.Log.Path == "" {
		return ""
	}
	return m.resolve(m.Log.Path)
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
