// Package config loads tilegrid's TOML configuration file.
//
// The file lives at $XDG_CONFIG_HOME/tilegrid/config.toml (falling back to
// ~/.config/tilegrid/config.toml) unless a path is given explicitly. Every
// field is optional; [Default] supplies the values used for anything the
// file leaves out. Two environment variables override the file:
//
//	TILEGRID_REDIS_ADDR  cache.redis_addr and rooms.redis_addr
//	TILEGRID_MONGO_URI   rooms.mongo_uri
//
// Example file:
//
//	[server]
//	addr = ":8080"
//	shutdown_timeout = "10s"
//
//	[ssh]
//	enabled = true
//	addr = ":2222"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[rooms]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[grid]
//	gap = 8
//	style = "dark"
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid"
)

const appName = "tilegrid"

// Environment variables that override the file.
const (
	EnvRedisAddr = "TILEGRID_REDIS_ADDR"
	EnvMongoURI  = "TILEGRID_MONGO_URI"
)

// Backend names accepted in [cache] and [rooms].
const (
	BackendNone   = "none"
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config is the decoded configuration file.
type Config struct {
	Server ServerConfig `toml:"server"`
	SSH    SSHConfig    `toml:"ssh"`
	Cache  CacheConfig  `toml:"cache"`
	Rooms  RoomsConfig  `toml:"rooms"`
	Grid   GridConfig   `toml:"grid"`
}

// ServerConfig configures the HTTP/WebSocket server.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`

	// AllowedOrigins restricts WebSocket upgrades. Empty allows any origin.
	AllowedOrigins []string `toml:"allowed_origins"`
}

// SSHConfig configures the SSH preview server.
type SSHConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`

	// HostKey is a PEM private key file. Empty generates a key per run.
	HostKey     string   `toml:"host_key"`
	IdleTimeout Duration `toml:"idle_timeout"`
}

// CacheConfig selects the layout/artifact cache.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	KeyPrefix string `toml:"key_prefix"`
}

// RoomsConfig selects the roster store.
type RoomsConfig struct {
	Backend       string   `toml:"backend"`
	RedisAddr     string   `toml:"redis_addr"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
	TTL           Duration `toml:"ttl"`
}

// GridConfig holds layout defaults for requests that do not set them.
type GridConfig struct {
	Width      float64 `toml:"width"`
	Height     float64 `toml:"height"`
	Gap        float64 `toml:"gap"`
	MaxVisible int     `toml:"max_visible"`
	Style      string  `toml:"style"`
}

// Duration is a time.Duration written as a string ("30s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration{15 * time.Second},
			WriteTimeout:    Duration{30 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
		},
		SSH: SSHConfig{
			Addr:        ":2222",
			IdleTimeout: Duration{10 * time.Minute},
		},
		Cache: CacheConfig{
			Backend:   BackendFile,
			KeyPrefix: "tilegrid:cache:",
		},
		Rooms: RoomsConfig{
			Backend:       BackendMemory,
			MongoDatabase: "tilegrid",
			TTL:           Duration{24 * time.Hour},
		},
		Grid: GridConfig{
			Width:      grid.DefaultWidth,
			Height:     grid.DefaultHeight,
			Gap:        grid.DefaultGap,
			MaxVisible: grid.MaxCells,
			Style:      "light",
		},
	}
}

// Path returns the default configuration file path.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the configuration. An empty path means the default location,
// where a missing file yields [Default]; an explicit path must exist.
// Environment overrides are applied last.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			cfg := Default()
			cfg.applyEnv()
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case os.IsNotExist(err) && !explicit:
		cfg := Default()
		cfg.applyEnv()
		return cfg, nil
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data on top of [Default]. Unknown keys are an error so
// typos do not silently fall back to defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, errors.New(errors.ErrCodeInvalidInput, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if addr := os.Getenv(EnvRedisAddr); addr != "" {
		c.Cache.RedisAddr = addr
		c.Rooms.RedisAddr = addr
	}
	if uri := os.Getenv(EnvMongoURI); uri != "" {
		c.Rooms.MongoURI = uri
	}
}

// Validate checks backend names and the settings they require.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case BackendNone, BackendFile:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.backend = redis requires cache.redis_addr or %s", EnvRedisAddr)
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid cache.backend %q (must be none, file, or redis)", c.Cache.Backend)
	}

	switch c.Rooms.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Rooms.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "rooms.backend = redis requires rooms.redis_addr or %s", EnvRedisAddr)
		}
	case BackendMongo:
		if c.Rooms.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "rooms.backend = mongo requires rooms.mongo_uri or %s", EnvMongoURI)
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid rooms.backend %q (must be memory, redis, or mongo)", c.Rooms.Backend)
	}

	if err := errors.ValidateDimensions(c.Grid.Width, c.Grid.Height); err != nil {
		return err
	}
	if err := errors.ValidateGap(c.Grid.Gap); err != nil {
		return err
	}
	if c.Grid.MaxVisible < 0 {
		return errors.New(errors.ErrCodeInvalidCount, "grid.max_visible cannot be negative: %d", c.Grid.MaxVisible)
	}
	return nil
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
