package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/uds/pkg/variant"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "test-app"
version = "0.1.0"

[source]
dirs = ["src", "lib"]
entry = "src/main.uasm"

[runtime]
collation = "unicode"
max-field-depth = 8

[log]
verbosity = 2
path = "uds.log"

[image]
path = "snapshots.db"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "test-app" {
		t.Errorf("project name = %q, want test-app", m.Project.Name)
	}
	if m.Project.Version != "0.1.0" {
		t.Errorf("project version = %q, want 0.1.0", m.Project.Version)
	}
	if len(m.Source.Dirs) != 2 {
		t.Errorf("source dirs count = %d, want 2", len(m.Source.Dirs))
	}
	if m.Collation() != variant.CollateUnicode {
		t.Errorf("Collation() = %v, want unicode", m.Collation())
	}
	if m.Runtime.MaxFieldDepth != 8 {
		t.Errorf("max-field-depth = %d, want 8", m.Runtime.MaxFieldDepth)
	}
	if m.Log.Verbosity != 2 {
		t.Errorf("log verbosity = %d, want 2", m.Log.Verbosity)
	}

	abs, _ := filepath.Abs(dir)
	if got, want := m.LogPath(), filepath.Join(abs, "uds.log"); got != want {
		t.Errorf("LogPath() = %q, want %q", got, want)
	}
	if got, want := m.ImagePath(), filepath.Join(abs, "snapshots.db"); got != want {
		t.Errorf("ImagePath() = %q, want %q", got, want)
	}
	if got, want := m.EntryPath(), filepath.Join(abs, "src", "main.uasm"); got != want {
		t.Errorf("EntryPath() = %q, want %q", got, want)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "minimal"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(m.Source.Dirs) != 1 || m.Source.Dirs[0] != "src" {
		t.Errorf("default source dirs = %v, want [src]", m.Source.Dirs)
	}
	if m.Runtime.Collation != "ascii" {
		t.Errorf("default collation = %q, want ascii", m.Runtime.Collation)
	}
	if m.Runtime.MaxFieldDepth != 0 {
		t.Errorf("default max-field-depth = %d, want 0", m.Runtime.MaxFieldDepth)
	}
	if m.Image.Path != DefaultImagePath {
		t.Errorf("default image path = %q, want %q", m.Image.Path, DefaultImagePath)
	}
	if m.LogPath() != "" {
		t.Errorf("default LogPath() = %q, want empty", m.LogPath())
	}
	if m.EntryPath() != "" {
		t.Errorf("default EntryPath() = %q, want empty", m.EntryPath())
	}
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad toml", "[project\nname = 1", "parse error"},
		{"unknown key", "[runtime]\ncolour = \"red\"", "unknown key"},
		{"bad collation", "[runtime]\ncollation = \"klingon\"", "runtime.collation"},
		{"negative depth", "[runtime]\nmax-field-depth = -1", "max-field-depth"},
		{"negative verbosity", "[log]\nverbosity = -3", "log.verbosity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tt.content)
			_, err := Load(dir)
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load without uds.toml succeeded")
	}
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, dir, `[project]
name = "found-project"
`)

	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Project.Name != "found-project" {
		t.Errorf("project name = %q, want found-project", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no uds.toml exists")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := Default("fresh")
	m.Runtime.MaxFieldDepth = 4

	if err := Write(dir, m); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := Write(dir, m); err == nil {
		t.Error("second Write overwrote the existing file")
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Project.Name != "fresh" {
		t.Errorf("project name = %q, want fresh", loaded.Project.Name)
	}
	if loaded.Runtime.MaxFieldDepth != 4 {
		t.Errorf("max-field-depth = %d, want 4", loaded.Runtime.MaxFieldDepth)
	}
	if loaded.Collation() != variant.CollateASCII {
		t.Errorf("Collation() = %v, want ascii", loaded.Collation())
	}
}

func TestSourceDirPaths(t *testing.T) {
	m := &Manifest{
		Dir: "/app",
		Source: Source{
			Dirs: []string{"src", "lib"},
		},
	}

	paths := m.SourceDirPaths()
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(paths))
	}
	if paths[0] != "/app/src" {
		t.Errorf("paths[0] = %q, want /app/src", paths[0])
	}
	if paths[1] != "/app/lib" {
		t.Errorf("paths[1] = %q, want /app/lib", paths[1])
	}
}

func TestImagePathAbsolute(t *testing.T) {
	m := &Manifest{Dir: "/app", Image: ImageConfig{Path: "/var/lib/uds.db"}}
	if got := m.ImagePath(); got != "/var/lib/uds.db" {
		t.Errorf("ImagePath() = %q, want /var/lib/uds.db", got)
	}
}
