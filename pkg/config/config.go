// Package config loads typescout settings.
//
// Sources are applied lowest to highest: built-in defaults, a project file
// (.typescout.toml or .typescout.yaml in the working directory), then
// TYPESCOUT_* environment variables. The CLI applies explicitly set flags
// on top and calls [Config.Validate] once more.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	tserrors "github.com/matzehuels/typescout/pkg/errors"
	"github.com/matzehuels/typescout/pkg/installer"
	"github.com/matzehuels/typescout/pkg/integrations/npm"
)

// EnvPrefix prefixes every environment variable typescout reads.
const EnvPrefix = "TYPESCOUT_"

// FileNames lists the project config files, in lookup order. The first one
// found is used.
var FileNames = []string{".typescout.toml", ".typescout.yaml", ".typescout.yml"}

const (
	DefaultConcurrency = 8
	DefaultTimeout     = 60 * time.Second
	DefaultCacheTTL    = 24 * time.Hour
)

// Config holds every setting the CLI and engine consume.
type Config struct {
	Manager         string        `toml:"manager" yaml:"manager" env:"MANAGER"`
	DevDependencies *bool         `toml:"dev_dependencies" yaml:"dev_dependencies" env:"DEV_DEPENDENCIES"`
	Install         bool          `toml:"install" yaml:"install" env:"INSTALL"`
	Interactive     bool          `toml:"interactive" yaml:"interactive" env:"INTERACTIVE"`
	Concurrency     int           `toml:"concurrency" yaml:"concurrency" env:"CONCURRENCY"`
	Timeout         time.Duration `toml:"timeout" yaml:"timeout" env:"TIMEOUT"`
	Registry        string        `toml:"registry" yaml:"registry" env:"REGISTRY"`
	CacheTTL        time.Duration `toml:"cache_ttl" yaml:"cache_ttl" env:"CACHE_TTL"`
	CacheDir        string        `toml:"cache_dir" yaml:"cache_dir" env:"CACHE_DIR"`
	NoCache         bool          `toml:"no_cache" yaml:"no_cache" env:"NO_CACHE"`
	RedisURL        string        `toml:"redis_url" yaml:"redis_url" env:"REDIS_URL"`
	Include         []string      `toml:"include" yaml:"include" env:"INCLUDE" envSeparator:","`
	Exclude         []string      `toml:"exclude" yaml:"exclude" env:"EXCLUDE" envSeparator:","`

	// Source is the config file that was read, if any.
	Source string `toml:"-" yaml:"-"`

	// ManagerFixed is true once any source set Manager explicitly. It tells
	// the interactive flow not to ask for a package manager.
	ManagerFixed bool `toml:"-" yaml:"-"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Manager:     installer.NPM.String(),
		Concurrency: DefaultConcurrency,
		Timeout:     DefaultTimeout,
		Registry:    npm.DefaultRegistry,
		CacheTTL:    DefaultCacheTTL,
	}
}

// Load builds the configuration for the project in dir.
func Load(dir string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(dir); err != nil {
		return nil, err
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(dir string) error {
	if strings.EqualFold(filepath.Base(dir), "package.json") {
		dir = filepath.Dir(dir)
	}
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return tserrors.Wrap(tserrors.ErrCodeInvalidConfig, err, "read %s", path)
		}
		if err := c.decode(name, data); err != nil {
			return tserrors.Wrap(tserrors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
		c.Source = path
		return nil
	}
	return nil
}

func (c *Config) decode(name string, data []byte) error {
	before := c.Manager
	c.Manager = ""

	var err error
	if strings.HasSuffix(name, ".toml") {
		var md toml.MetaData
		md, err = toml.Decode(string(data), c)
		if err == nil {
			if extra := md.Undecoded(); len(extra) > 0 {
				err = fmt.Errorf("unknown key %q", extra[0].String())
			}
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err = dec.Decode(c); errors.Is(err, io.EOF) {
			err = nil
		}
	}

	if c.Manager != "" {
		c.ManagerFixed = true
	} else {
		c.Manager = before
	}
	return err
}

func (c *Config) loadEnv() error {
	err := env.ParseWithOptions(c, env.Options{
		Prefix: EnvPrefix,
		OnSet: func(tag string, _ any, isDefault bool) {
			if strings.TrimPrefix(tag, EnvPrefix) == "MANAGER" && !isDefault {
				c.ManagerFixed = true
			}
		},
	})
	if err != nil {
		return tserrors.Wrap(tserrors.ErrCodeInvalidConfig, err, "environment")
	}
	return nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	m, err := installer.ParseManager(c.Manager)
	if err != nil {
		return tserrors.Wrap(tserrors.ErrCodeInvalidConfig, err, "manager")
	}
	c.Manager = m.String()

	if c.Concurrency <= 0 {
		return tserrors.New(tserrors.ErrCodeInvalidConfig, "concurrency must be positive, got %d", c.Concurrency)
	}
	if c.Timeout < 0 {
		return tserrors.New(tserrors.ErrCodeInvalidConfig, "timeout cannot be negative")
	}
	if c.CacheTTL < 0 {
		return tserrors.New(tserrors.ErrCodeInvalidConfig, "cache_ttl cannot be negative")
	}
	if err := tserrors.ValidateURL(c.Registry); err != nil {
		return tserrors.Wrap(tserrors.ErrCodeInvalidConfig, err, "registry")
	}
	if c.RedisURL != "" && !hasAnyPrefix(c.RedisURL, "redis://", "rediss://", "unix://") {
		return tserrors.New(tserrors.ErrCodeInvalidConfig, "redis_url must use redis://, rediss:// or unix://")
	}
	return nil
}

// ManagerValue returns the validated package manager.
func (c *Config) ManagerValue() installer.Manager {
	m, err := installer.ParseManager(c.Manager)
	if err != nil {
		return installer.NPM
	}
	return m
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
