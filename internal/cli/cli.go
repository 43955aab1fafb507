package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tilegrid/pkg/buildinfo"
	"github.com/matzehuels/tilegrid/pkg/cache"
	"github.com/matzehuels/tilegrid/pkg/config"
	"github.com/matzehuels/tilegrid/pkg/pipeline"
	"github.com/matzehuels/tilegrid/pkg/room"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "tilegrid"
)

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

	// ConfigPath overrides the default config file location.
	ConfigPath string

	verbose bool
	cfg     *config.Config
	stdout io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		stdout: os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tilegrid",
		Short: "Tilegrid lays out video call participants in a responsive grid",
		Long: `Tilegrid computes the grid a video call shows its participants in: how many
columns and rows, and how large each 16:9 tile can be inside a given container.

It renders layouts to SVG, PNG, JSON, YAML, and text, previews them live in the
terminal, and serves them over HTTP, WebSocket, and SSH.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default: $XDG_CONFIG_HOME/tilegrid/config.toml)")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())
	registerFlagCompletions(root)

	return root
}

// config loads the configuration once per process.
func (c *CLI) config() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	c.cfg = &cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	store, err := c.newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, nil, c.Logger), nil
}

// newCache opens the configured cache. A file cache that cannot be created
// degrades to no caching; an unreachable Redis is an error.
func (c *CLI) newCache(ctx context.Context, cfg config.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Backend == config.BackendNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == config.BackendRedis {
		c.Logger.Debug("using redis cache", "addr", cfg.RedisAddr)
		return cache.NewRedisCache(ctx, cfg.RedisAddr, cache.WithKeyPrefix(cfg.KeyPrefix))
	}

	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// newRoomStore opens the configured roster store.
func (c *CLI) newRoomStore(ctx context.Context, cfg config.RoomsConfig) (room.Store, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		c.Logger.Debug("using redis room store", "addr", cfg.RedisAddr)
		return room.NewRedisStore(ctx, cfg.RedisAddr, room.WithRoomTTL(cfg.TTL.Duration))
	case config.BackendMongo:
		c.Logger.Debug("using mongo room store", "database", cfg.MongoDatabase)
		store, err := room.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("create indexes: %w", err)
		}
		return store, nil
	default:
		return room.NewMemoryStore(), nil
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/tilegrid/).
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

// =============================================================================
// Options Helpers
// =============================================================================

// applyConfigDefaults fills options the flags left unset from the [grid]
// section, then applies pipeline defaults.
func applyConfigDefaults(opts *pipeline.Options, g config.GridConfig) {
	if opts.Width == 0 && opts.Height == 0 {
		opts.Width, opts.Height = g.Width, g.Height
	}
	if opts.Gap == nil {
		opts.Gap = tiles.Gap(g.Gap)
	}
	if opts.MaxVisible == 0 {
		opts.MaxVisible = g.MaxVisible
	}
	if opts.Style == "" {
		opts.Style = g.Style
	}
	opts.SetLayoutDefaults()
	opts.SetRenderDefaults()
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	formats := strings.Split(s, ",")
	for i, f := range formats {
		formats[i] = strings.TrimSpace(f)
	}
	return formats
}

// parseNames splits a comma-separated list of display names.
func parseNames(s string) []string {
	if s == "" {
		return nil
	}
	names := strings.Split(s, ",")
	for i, n := range names {
		names[i] = strings.TrimSpace(n)
	}
	return names
}
