package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	tserrors "github.com/matzehuels/typescout/pkg/errors"
	"github.com/matzehuels/typescout/pkg/installer"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if cfg.ManagerFixed {
		t.Error("default manager should not count as fixed")
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".typescout.toml", `
manager = "yarn"
dev_dependencies = true
concurrency = 4
timeout = "30s"
cache_ttl = "1h"
include = ["node"]
exclude = ["left-pad"]
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ManagerValue() != installer.Yarn || !cfg.ManagerFixed {
		t.Errorf("Manager = %q (fixed %v), want yarn fixed", cfg.Manager, cfg.ManagerFixed)
	}
	if cfg.DevDependencies == nil || !*cfg.DevDependencies {
		t.Error("DevDependencies should be true")
	}
	if cfg.Concurrency != 4 || cfg.Timeout != 30*time.Second || cfg.CacheTTL != time.Hour {
		t.Errorf("Concurrency/Timeout/CacheTTL = %d/%s/%s", cfg.Concurrency, cfg.Timeout, cfg.CacheTTL)
	}
	if diff := cmp.Diff([]string{"node"}, cfg.Include); diff != "" {
		t.Errorf("Include mismatch (-want +got):\n%s", diff)
	}
	if cfg.Source != filepath.Join(dir, ".typescout.toml") {
		t.Errorf("Source = %q", cfg.Source)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".typescout.yaml", `
install: true
registry: https://registry.example.com
exclude:
  - left-pad
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.Install || cfg.Registry != "https://registry.example.com" {
		t.Errorf("Install/Registry = %v/%q", cfg.Install, cfg.Registry)
	}
	if cfg.ManagerFixed || cfg.Manager != "npm" {
		t.Errorf("Manager = %q (fixed %v), want npm default", cfg.Manager, cfg.ManagerFixed)
	}
	if cfg.DevDependencies != nil {
		t.Error("DevDependencies should stay unset")
	}
}

func TestLoadPrefersTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".typescout.toml", `concurrency = 3`)
	writeFile(t, dir, ".typescout.yaml", `concurrency: 5`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Concurrency != 3 {
		t.Errorf("Concurrency = %d, want 3 from the toml file", cfg.Concurrency)
	}
}

func TestLoadAcceptsManifestPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".typescout.toml", `concurrency = 2`)

	cfg, err := Load(filepath.Join(dir, "package.json"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", cfg.Concurrency)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".typescout.toml", `concurrency = 3`)
	t.Setenv("TYPESCOUT_CONCURRENCY", "12")
	t.Setenv("TYPESCOUT_MANAGER", "yarn")
	t.Setenv("TYPESCOUT_EXCLUDE", "a,b")
	t.Setenv("TYPESCOUT_TIMEOUT", "5s")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Concurrency != 12 || cfg.Timeout != 5*time.Second {
		t.Errorf("Concurrency/Timeout = %d/%s", cfg.Concurrency, cfg.Timeout)
	}
	if cfg.ManagerValue() != installer.Yarn || !cfg.ManagerFixed {
		t.Errorf("Manager = %q (fixed %v), want yarn fixed", cfg.Manager, cfg.ManagerFixed)
	}
	if diff := cmp.Diff([]string{"a", "b"}, cfg.Exclude); diff != "" {
		t.Errorf("Exclude mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		env     map[string]string
	}{
		{"unknown manager", ".typescout.toml", `manager = "pnpm"`, nil},
		{"zero concurrency", ".typescout.toml", `concurrency = 0`, nil},
		{"bad registry", ".typescout.yaml", `registry: ftp://example.com`, nil},
		{"bad redis url", ".typescout.toml", `redis_url = "localhost:6379"`, nil},
		{"unknown toml key", ".typescout.toml", `managr = "npm"`, nil},
		{"unknown yaml key", ".typescout.yaml", `managr: npm`, nil},
		{"malformed toml", ".typescout.toml", `manager = `, nil},
		{"bad env value", "", "", map[string]string{"TYPESCOUT_CONCURRENCY": "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.file != "" {
				writeFile(t, dir, tt.file, tt.content)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(dir)
			if !tserrors.Is(err, tserrors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestValidateNormalizesManager(t *testing.T) {
	cfg := Default()
	cfg.Manager = " YARN "
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if cfg.Manager != "yarn" {
		t.Errorf("Manager = %q, want yarn", cfg.Manager)
	}
}
