package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Source   SourceConfig   `toml:"source"`
	HTTP     HTTPConfig     `toml:"http"`
	Paths    PathsConfig    `toml:"paths"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// SourceConfig contains the remote favorites, metadata and cover endpoints.
type SourceConfig struct {
	Account     string `toml:"account"`
	ReviewsURL  string `toml:"reviews_url"`
	MetadataURL string `toml:"metadata_url"`
	CoversURL   string `toml:"covers_url"`
	PageSize    int    `toml:"page_size"`
	ReviewsTTL  string `toml:"reviews_ttl"`
}

// HTTPConfig contains outbound request settings shared by all sources.
type HTTPConfig struct {
	UserAgent         string  `toml:"user_agent"`
	Timeout           string  `toml:"timeout"`
	Retries           int     `toml:"retries"`
	RetryDelay        string  `toml:"retry_delay"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	GracefulFallback  bool    `toml:"graceful_fallback"`
}

// PathsConfig contains the on-disk roots for caches, public assets and the manifest.
type PathsConfig struct {
	CacheRoot  string `toml:"cache_root"`
	PublicRoot string `toml:"public_root"`
	Manifest   string `toml:"manifest"`
}

// PipelineConfig contains reconciliation pipeline settings.
type PipelineConfig struct {
	Delay       string `toml:"delay"`
	Concurrency int    `toml:"concurrency"`
	Gate        string `toml:"gate"`
	Variants    string `toml:"variants"`
}

// DatabaseConfig contains run history database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the preview server address.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads a TOML configuration file from the specified path and overlays it on [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// envOverrides maps environment variables onto config fields.
var envOverrides = map[string]func(c *Config, v string) error{
	"FAVORITES_ACCOUNT":     func(c *Config, v string) error { c.Source.Account = v; return nil },
	"FAVORITES_USER_AGENT":  func(c *Config, v string) error { c.HTTP.UserAgent = v; return nil },
	"FAVORITES_TIMEOUT":     func(c *Config, v string) error { c.HTTP.Timeout = v; return nil },
	"FAVORITES_CACHE_ROOT":  func(c *Config, v string) error { c.Paths.CacheRoot = v; return nil },
	"FAVORITES_PUBLIC_ROOT": func(c *Config, v string) error { c.Paths.PublicRoot = v; return nil },
	"FAVORITES_MANIFEST":    func(c *Config, v string) error { c.Paths.Manifest = v; return nil },
	"FAVORITES_DATABASE":    func(c *Config, v string) error { c.Database.Path = v; return nil },
	"FAVORITES_LOG_LEVEL":   func(c *Config, v string) error { c.Log.Level = v; return nil },
	"FAVORITES_CONCURRENCY": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: FAVORITES_CONCURRENCY=%q", ErrInvalidConfig, v)
		}
		c.Pipeline.Concurrency = n
		return nil
	},
}

// ApplyEnv overrides config values from FAVORITES_* environment variables.
func (c *Config) ApplyEnv() error {
	for name, apply := range envOverrides {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			continue
		}
		if err := apply(c, v); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks durations, enums and required fields.
func (c *Config) Validate() error {
	if c.Source.Account == "" {
		return fmt.Errorf("%w: source.account is required", ErrInvalidConfig)
	}
	if c.Source.PageSize <= 0 {
		return fmt.Errorf("%w: source.page_size must be positive", ErrInvalidConfig)
	}
	if c.HTTP.Retries <= 0 {
		return fmt.Errorf("%w: http.retries must be positive", ErrInvalidConfig)
	}
	if c.Pipeline.Concurrency <= 0 {
		return fmt.Errorf("%w: pipeline.concurrency must be positive", ErrInvalidConfig)
	}

	for name, value := range map[string]string{
		"source.reviews_ttl": c.Source.ReviewsTTL,
		"http.timeout":       c.HTTP.Timeout,
		"http.retry_delay":   c.HTTP.RetryDelay,
		"pipeline.delay":     c.Pipeline.Delay,
	} {
		if _, err := ParseDuration(value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
	}

	switch c.Pipeline.Gate {
	case "color", "both":
	default:
		return fmt.Errorf("%w: pipeline.gate must be color or both, got %q", ErrInvalidConfig, c.Pipeline.Gate)
	}

	switch c.Pipeline.Variants {
	case "dual", "single":
	default:
		return fmt.Errorf("%w: pipeline.variants must be dual or single, got %q", ErrInvalidConfig, c.Pipeline.Variants)
	}

	return nil
}

// ServerAddr returns host:port for the preview server.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Timeout returns the parsed HTTP timeout.
func (c *Config) Timeout() time.Duration { return c.mustDuration(c.HTTP.Timeout) }

// RetryDelay returns the parsed base retry delay.
func (c *Config) RetryDelay() time.Duration { return c.mustDuration(c.HTTP.RetryDelay) }

// Delay returns the parsed courtesy delay between network fetches.
func (c *Config) Delay() time.Duration { return c.mustDuration(c.Pipeline.Delay) }

// ReviewsTTL returns how long fetched review pages are served from cache. Zero always refetches.
func (c *Config) ReviewsTTL() time.Duration { return c.mustDuration(c.Source.ReviewsTTL) }

// mustDuration parses a duration that [Config.Validate] already checked; invalid values read as zero.
func (c *Config) mustDuration(s string) time.Duration {
	d, err := ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
