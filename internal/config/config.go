package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v4"
)

const defaultConfigFile = "config.yaml"

type StorageConfig struct {
	Driver string `yaml:"driver,omitempty"` // bolt or sqlite
	Path   string `yaml:"path,omitempty"`
}

type Config struct {
	APIBaseURL  string        `yaml:"api_base_url,omitempty"`
	ListenAddr  string        `yaml:"listen_addr,omitempty"`
	Storage     StorageConfig `yaml:"storage,omitempty"`
	AuthEnabled bool          `yaml:"auth_enabled,omitempty"`
	APIKey      string        `yaml:"api_key,omitempty"`
	LogLevel    string        `yaml:"log_level,omitempty"`
	LogFormat   string        `yaml:"log_format,omitempty"`
	// TimeZone names the zone whose calendar day counts as today. Empty
	// means the local zone of the process.
	TimeZone string `yaml:"time_zone,omitempty"`
}

func Default() *Config {
	return &Config{
		APIBaseURL: "http://localhost:8080",
		ListenAddr: ":8080",
		Storage: StorageConfig{
			Driver: "bolt",
			Path:   "habits.db",
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads the file named by $HABITS_CONFIG, or config.yaml when unset,
// over the defaults and then applies environment overrides. A file named
// explicitly must exist; the implicit config.yaml is optional.
func Load() (*Config, error) {
	path, explicit := os.LookupEnv("HABITS_CONFIG")
	if !explicit || path == "" {
		path, explicit = defaultConfigFile, false
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("HABITS_API_BASE"); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv("HABITS_DB_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("HABITS_AUTH_TOKEN"); v != "" {
		c.APIKey = v
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "bolt", "sqlite":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Path == "" {
		return errors.New("storage path is required")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToLower(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("bad log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("bad time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}
