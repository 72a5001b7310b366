package cli

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"

	"github.com/matzehuels/vardump/pkg/errors"
	"github.com/matzehuels/vardump/pkg/render"
	"github.com/matzehuels/vardump/pkg/server"
	"github.com/matzehuels/vardump/pkg/store"
)

// envPrefix prefixes environment overrides, e.g. VARDUMP_STORE_BACKEND.
const envPrefix = "VARDUMP"

// Color modes for render.color.
const (
	colorAuto   = "auto"
	colorAlways = "always"
	colorNever  = "never"
)

// Popup offsets in terminal cells.
const (
	defaultPopupOffsetX = 4
	defaultPopupOffsetY = 1
)

// Config is the resolved configuration for all commands.
type Config struct {
	Store      store.Config
	ServerAddr string

	PopupOffsetX int
	PopupOffsetY int

	MaxDepth int
	Color    string

	// File is the config file that was read, empty if none.
	File string
}

func defaultConfig() *Config {
	return &Config{
		Store:        store.Config{Backend: store.BackendFile},
		ServerAddr:   server.DefaultAddr,
		PopupOffsetX: defaultPopupOffsetX,
		PopupOffsetY: defaultPopupOffsetY,
		MaxDepth:     render.DefaultMaxDepth,
		Color:        colorAuto,
	}
}

// loadConfig reads path, or the default config file when path is empty,
// and applies VARDUMP_* environment overrides. A missing default file is
// not an error; a missing explicit one is.
func loadConfig(path string) (*Config, error) {
	def := defaultConfig()

	v := viper.New()
	v.SetDefault("store.backend", def.Store.Backend)
	v.SetDefault("store.dir", "")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_password", "")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongo_database", appName)
	v.SetDefault("server.addr", def.ServerAddr)
	v.SetDefault("popup.offset_x", def.PopupOffsetX)
	v.SetDefault("popup.offset_y", def.PopupOffsetY)
	v.SetDefault("render.max_depth", def.MaxDepth)
	v.SetDefault("render.color", def.Color)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := path
	if file == "" {
		dir, err := configDir()
		if err == nil {
			file = filepath.Join(dir, "config.toml")
			if _, err := os.Stat(file); err != nil {
				file = ""
			}
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if filepath.Ext(file) == "" {
			v.SetConfigType("toml")
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if os.IsNotExist(err) || stderrors.As(err, &notFound) {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s not found", file)
			}
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", file)
		}
	}

	cfg := &Config{
		Store: store.Config{
			Backend: v.GetString("store.backend"),
			Dir:     v.GetString("store.dir"),
			Redis: store.RedisConfig{
				Addr:     v.GetString("store.redis_addr"),
				Password: v.GetString("store.redis_password"),
				DB:       v.GetInt("store.redis_db"),
			},
			Mongo: store.MongoConfig{
				URI:      v.GetString("store.mongo_uri"),
				Database: v.GetString("store.mongo_database"),
			},
		},
		ServerAddr:   v.GetString("server.addr"),
		PopupOffsetX: v.GetInt("popup.offset_x"),
		PopupOffsetY: v.GetInt("popup.offset_y"),
		MaxDepth:     v.GetInt("render.max_depth"),
		Color:        strings.ToLower(v.GetString("render.color")),
		File:         v.ConfigFileUsed(),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Color {
	case colorAuto, colorAlways, colorNever:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "render.color must be auto, always or never, got %q", c.Color)
	}
	if c.MaxDepth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "render.max_depth must not be negative")
	}
	for _, b := range store.Backends {
		if c.Store.Backend == b {
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q (want one of %s)",
		c.Store.Backend, strings.Join(store.Backends, ", "))
}

// colorEnabled resolves a color mode for output written to f.
func colorEnabled(mode string, f *os.File) bool {
	switch mode {
	case colorAlways:
		return true
	case colorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" || f == nil {
		return false
	}
	return isTerminal(f)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// =============================================================================
// Paths
// =============================================================================

// configDir returns the config directory using XDG standard (~/.config/vardump/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// cacheDir returns the cache directory using XDG standard (~/.cache/vardump/).
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
