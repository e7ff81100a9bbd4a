package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/typescout/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the registry response cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// resolveCacheDir honors cache_dir from the project config and environment
// before falling back to the XDG location.
func (c *CLI) resolveCacheDir() (string, error) {
	if wd, err := os.Getwd(); err == nil {
		if cfg, err := config.Load(wd); err == nil && cfg.CacheDir != "" {
			return cfg.CacheDir, nil
		}
	}
	return cacheDir()
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached registry responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := printer{w: c.out}
			dir, err := c.resolveCacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}

			count, err := clearDir(dir)
			if err != nil {
				return err
			}
			if count == 0 {
				out.info("Cache is empty")
				return nil
			}

			out.success("Cleared %d cached entries", count)
			out.detail("Directory: %s", dir)
			return nil
		},
	}
}

// clearDir removes every file below dir, then the emptied subdirectories.
// dir itself is kept.
func clearDir(dir string) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	count := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}
		if path == dir {
			return nil
		}
		if !info.IsDir() {
			if err := os.Remove(path); err == nil {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return count, nil
	}
	for _, e := range entries {
		if e.IsDir() {
			_ = os.RemoveAll(filepath.Join(dir, e.Name()))
		}
	}
	return count, nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.resolveCacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(c.out, dir)
			return nil
		},
	}
}
