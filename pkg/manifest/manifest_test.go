package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	tserrors "github.com/matzehuels/typescout/pkg/errors"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeManifest(t, `{
  "name": "my-app",
  "version": "1.0.0",
  "dependencies": {
    "lodash": "^4.17.21",
    "@scope/pkg": "1.2.3"
  },
  "devDependencies": {
    "@types/lodash": "^4.17.0",
    "jest": "^29.0.0"
  },
  "typescout": {
    "exclude": ["left-pad"],
    "include": {"node": true}
  }
}`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if m.Name != "my-app" || m.Version != "1.0.0" {
		t.Errorf("Name/Version = %q/%q", m.Name, m.Version)
	}
	if m.Path != filepath.Join(dir, FileName) {
		t.Errorf("Path = %q", m.Path)
	}
	if diff := cmp.Diff([]string{"@scope/pkg", "lodash"}, m.DependencyNames()); diff != "" {
		t.Errorf("DependencyNames() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"@types/lodash", "jest"}, m.DevDependencyNames()); diff != "" {
		t.Errorf("DevDependencyNames() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"left-pad"}, m.Config.Exclude.Names()); diff != "" {
		t.Errorf("Exclude mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"node"}, m.Config.Include.Names()); diff != "" {
		t.Errorf("Include mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadAcceptsFilePath(t *testing.T) {
	dir := writeManifest(t, `{"dependencies": {"express": "^4.0.0"}}`)

	m, err := Load(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(m.Dependencies) != 1 {
		t.Errorf("Dependencies = %v", m.Dependencies)
	}
}

func TestLoadMissingSections(t *testing.T) {
	dir := writeManifest(t, `{"name": "bare"}`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if m.Dependencies == nil || m.DevDependencies == nil {
		t.Error("missing sections should load as empty maps")
	}
	if !m.Config.Include.IsAbsent() || !m.Config.Exclude.IsAbsent() {
		t.Error("missing config block should leave both lists absent")
	}
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	if !tserrors.Is(err, tserrors.ErrCodeManifestNotFound) {
		t.Errorf("Load() error = %v, want MANIFEST_NOT_FOUND", err)
	}
}

func TestLoadParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{not json`},
		{"empty file", ``},
		{"top-level array", `[1, 2, 3]`},
		{"top-level null", `null`},
		{"dependencies as array", `{"dependencies": ["lodash"]}`},
		{"exclude as string", `{"typescout": {"exclude": "lodash"}}`},
		{"exclude with numbers", `{"typescout": {"exclude": [1, 2]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeManifest(t, tt.content))
			if !tserrors.Is(err, tserrors.ErrCodeManifestParse) {
				t.Errorf("Load() error = %v, want MANIFEST_PARSE_ERROR", err)
			}
		})
	}
}

func TestNameList(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantAbsent bool
		wantNames  []string
	}{
		{"null", `null`, true, nil},
		{"empty array", `[]`, false, []string{}},
		{"array", `["b", "a"]`, false, []string{"b", "a"}},
		{"object keys sorted", `{"b": 1, "a": "x"}`, false, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l NameList
			if err := l.UnmarshalJSON([]byte(tt.json)); err != nil {
				t.Fatalf("UnmarshalJSON() error: %v", err)
			}
			if l.IsAbsent() != tt.wantAbsent {
				t.Errorf("IsAbsent() = %v, want %v", l.IsAbsent(), tt.wantAbsent)
			}
			if !tt.wantAbsent {
				if diff := cmp.Diff(tt.wantNames, l.Names()); diff != "" {
					t.Errorf("Names() mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestNameListMarshal(t *testing.T) {
	tests := []struct {
		list NameList
		want string
	}{
		{Absent(), `null`},
		{List(), `[]`},
		{List("a", "b"), `["a","b"]`},
	}
	for _, tt := range tests {
		got, err := tt.list.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON() error: %v", err)
		}
		if string(got) != tt.want {
			t.Errorf("MarshalJSON() = %s, want %s", got, tt.want)
		}
	}
}

func TestListIsolatesCaller(t *testing.T) {
	names := []string{"a"}
	l := List(names...)
	names[0] = "changed"
	if l.Names()[0] != "a" {
		t.Error("List should copy its input")
	}
}
