package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tilegrid/pkg/cache"
	"github.com/matzehuels/tilegrid/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout and artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// fileCacheDir returns the directory of the file cache: [cache].dir when set,
// the XDG cache directory otherwise.
func (c *CLI) fileCacheDir() (string, error) {
	cfg, err := c.config()
	if err != nil {
		return "", err
	}
	if cfg.Cache.Backend != config.BackendFile {
		return "", fmt.Errorf("cache backend is %q; only the file cache is managed here", cfg.Cache.Backend)
	}
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return cacheDir()
}

// Cache entry kinds accepted by "cache clear --kind".
var cacheKinds = []string{"layout", "artifact"}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached layouts and renders",
		Long: `Remove entries from the file cache.

By default every entry is removed. --kind layout removes computed
arrangements only; --kind artifact removes rendered files only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind != "" && !slices.Contains(cacheKinds, kind) {
				return fmt.Errorf("invalid --kind %q (must be %s)", kind, strings.Join(cacheKinds, " or "))
			}
			dir, err := c.fileCacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}

			var segments []string
			if kind != "" {
				segments = []string{kind}
			}
			count, err := fc.Clear(segments...)
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}

			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only clear one kind of entry (layout, artifact)")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.fileCacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(c.stdout, dir)
			return nil
		},
	}
}
