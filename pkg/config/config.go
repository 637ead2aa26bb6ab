// Package config loads appshell configuration.
//
// Values are layered: [Default] first, then an optional TOML file, then
// APPSHELL_* environment variables. Later layers only override the fields
// they set.
//
// Example config.toml:
//
//	[cache]
//	backend = "redis"
//	ttl = "24h"
//	redis_addr = "localhost:6379"
//
//	[catalog]
//	source = "url"
//	url = "https://example.com/fonts.json"
//
//	[layout]
//	theme = "dark"
//	font = "Zen Maru Gothic"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/matzehuels/appshell/pkg/cache"
	apperrors "github.com/matzehuels/appshell/pkg/errors"
)

// AppName names the config and cache directories.
const AppName = "appshell"

// Catalog sources.
const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
	SourceURL      = "url"
)

// Config is the full application configuration.
type Config struct {
	Cache   CacheConfig   `toml:"cache"`
	Catalog CatalogConfig `toml:"catalog"`
	Server  ServerConfig  `toml:"server"`
	Layout  LayoutConfig  `toml:"layout"`
}

// CacheConfig selects the storage backend shared by the catalog cache, the
// adaptive weights and the visit logs.
type CacheConfig struct {
	Backend string        `toml:"backend" env:"APPSHELL_CACHE_BACKEND"`
	Dir     string        `toml:"dir" env:"APPSHELL_CACHE_DIR"`
	TTL     time.Duration `toml:"ttl" env:"APPSHELL_CACHE_TTL"`

	RedisAddr     string `toml:"redis_addr" env:"APPSHELL_REDIS_ADDR"`
	RedisPassword string `toml:"redis_password" env:"APPSHELL_REDIS_PASSWORD"`
	RedisDB       int    `toml:"redis_db" env:"APPSHELL_REDIS_DB"`

	MongoURI        string `toml:"mongo_uri" env:"APPSHELL_MONGO_URI"`
	MongoDatabase   string `toml:"mongo_database" env:"APPSHELL_MONGO_DATABASE"`
	MongoCollection string `toml:"mongo_collection" env:"APPSHELL_MONGO_COLLECTION"`
}

// CatalogConfig chooses where the font catalog comes from.
type CatalogConfig struct {
	Source string `toml:"source" env:"APPSHELL_CATALOG_SOURCE"`
	Path   string `toml:"path" env:"APPSHELL_CATALOG_PATH"`
	URL    string `toml:"url" env:"APPSHELL_CATALOG_URL"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `toml:"addr" env:"APPSHELL_ADDR"`
	ReadTimeout  time.Duration `toml:"read_timeout" env:"APPSHELL_READ_TIMEOUT"`
	WriteTimeout time.Duration `toml:"write_timeout" env:"APPSHELL_WRITE_TIMEOUT"`
}

// LayoutConfig holds the initial preferences and the theme set crazy mode
// draws from.
type LayoutConfig struct {
	Theme  string   `toml:"theme" env:"APPSHELL_THEME"`
	Font   string   `toml:"font" env:"APPSHELL_FONT"`
	Themes []string `toml:"themes" env:"APPSHELL_THEMES" envSeparator:","`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			Backend:         cache.BackendFile,
			TTL:             24 * time.Hour,
			RedisAddr:       "localhost:6379",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   AppName,
			MongoCollection: "cache",
		},
		Catalog: CatalogConfig{Source: SourceEmbedded},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Layout: LayoutConfig{
			Theme:  "light",
			Font:   "Zen Maru Gothic",
			Themes: []string{"light", "dark", "sakura", "matcha", "ocean", "midnight"},
		},
	}
}

// Load builds a Config from defaults, the TOML file at path and the
// environment. An empty path uses DefaultPath and tolerates it not existing;
// an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return Config{}, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "parse config %s", path)
			}
			if explicit {
				return Config{}, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "config %s", path)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enum fields and the initial preferences.
func (c Config) Validate() error {
	switch c.Catalog.Source {
	case SourceEmbedded:
	case SourceFile:
		if err := apperrors.ValidatePath(c.Catalog.Path); err != nil {
			return err
		}
	case SourceURL:
		if err := apperrors.ValidateURL(c.Catalog.URL); err != nil {
			return err
		}
	default:
		return apperrors.New(apperrors.ErrCodeInvalidInput, "unknown catalog source %q", c.Catalog.Source)
	}

	backends := []string{"", cache.BackendFile, cache.BackendMemory, cache.BackendRedis, cache.BackendMongo, cache.BackendNone}
	if !slices.Contains(backends, c.Cache.Backend) {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "cache ttl cannot be negative")
	}

	if err := apperrors.ValidateThemeID(c.Layout.Theme); err != nil {
		return err
	}
	for _, id := range c.Layout.Themes {
		if err := apperrors.ValidateThemeID(id); err != nil {
			return err
		}
	}
	return apperrors.ValidateFontName(c.Layout.Font)
}

// CacheOptions converts the cache section to cache.Options. An empty Dir
// resolves to CacheDir.
func (c Config) CacheOptions() (cache.Options, error) {
	opts := cache.Options{
		Backend: c.Cache.Backend,
		Dir:     c.Cache.Dir,
		Redis: cache.RedisConfig{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
		},
		Mongo: cache.MongoConfig{
			URI:        c.Cache.MongoURI,
			Database:   c.Cache.MongoDatabase,
			Collection: c.Cache.MongoCollection,
		},
	}
	if opts.Dir == "" {
		dir, err := CacheDir()
		if err != nil {
			return cache.Options{}, err
		}
		opts.Dir = dir
	}
	return opts, nil
}

// DefaultPath returns the config file location following XDG
// (~/.config/appshell/config.toml).
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// CacheDir returns the cache directory following XDG (~/.cache/appshell).
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}
