package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/matzehuels/typescout/pkg/cache"
	"github.com/matzehuels/typescout/pkg/config"
	"github.com/matzehuels/typescout/pkg/selection"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "typescout"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	out    io.Writer

	// decider answers interactive prompts; nil renders them on the terminal.
	decider selection.Decider
}

// New creates a new CLI instance whose logger writes to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects human-facing status lines.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// DisableColor switches every renderer to plain ASCII.
func (c *CLI) DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
	c.Logger.SetColorProfile(termenv.Ascii)
}

func (c *CLI) verbose() bool {
	return c.Logger.GetLevel() <= log.DebugLevel
}

// =============================================================================
// Cache Factory
// =============================================================================

// newCache picks the response cache backend: none, redis, or the file cache
// under the user's cache directory.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if cfg.NoCache {
		return cache.NewNullCache(), nil
	}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, appName+":")
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("using redis cache")
		return rc, nil
	}

	dir := cfg.CacheDir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			c.Logger.Debug("cache disabled", "err", err)
			return cache.NewNullCache(), nil
		}
	}
	c.Logger.Debug("using file cache", "dir", dir)
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/typescout/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
