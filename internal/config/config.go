// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultUserAgent is the browser-like agent sent by the scraper.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"

// Storage drivers accepted by db.driver.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Admin   AdminConfig   `mapstructure:"admin"`
	DB      DBConfig      `mapstructure:"db"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls the raw TCP listener and its worker pool.
type ServerConfig struct {
	Addr                  string `mapstructure:"addr"`
	Workers               int    `mapstructure:"workers"`
	QueueDepth            int    `mapstructure:"queue_depth"`
	ReadTimeoutSeconds    int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds   int    `mapstructure:"write_timeout_seconds"`
	HandlerTimeoutSeconds int    `mapstructure:"handler_timeout_seconds"`
}

// AdminConfig controls the health and metrics HTTP server.
type AdminConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	Driver                 string `mapstructure:"driver"`
	DSN                    string `mapstructure:"dsn"`
	Table                  string `mapstructure:"table"`
	MaxConns               int32  `mapstructure:"max_conns"`
	MinConns               int32  `mapstructure:"min_conns"`
	MaxConnLifetimeSeconds int    `mapstructure:"max_conn_lifetime_seconds"`
}

// ScrapeConfig describes the ranking page the scrape endpoint reads.
type ScrapeConfig struct {
	URL            string  `mapstructure:"url"`
	Selector       string  `mapstructure:"selector"`
	Source         string  `mapstructure:"source"`
	Limit          int     `mapstructure:"limit"`
	UserAgent      string  `mapstructure:"user_agent"`
	AcceptLanguage string  `mapstructure:"accept_language"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RespectRobots  bool    `mapstructure:"respect_robots"`
	RatePerSecond  float64 `mapstructure:"rate_per_second"`
	RateBurst      int     `mapstructure:"rate_burst"`
	MaxBodyBytes   int     `mapstructure:"max_body_bytes"`
}

// LoggingConfig toggles zap development features and the minimum level.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ARTICLES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("db.dsn", "ARTICLES_DB_DSN", "DATABASE_URL"); err != nil {
		return Config{}, fmt.Errorf("bind db.dsn: %w", err)
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.workers", 4)
	v.SetDefault("server.queue_depth", 64)
	v.SetDefault("server.read_timeout_seconds", 10)
	v.SetDefault("server.write_timeout_seconds", 10)
	v.SetDefault("server.handler_timeout_seconds", 60)
	v.SetDefault("admin.enabled", true)
	v.SetDefault("admin.port", 9090)
	v.SetDefault("db.driver", DriverPostgres)
	v.SetDefault("db.table", "articles")
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 0)
	v.SetDefault("db.max_conn_lifetime_seconds", 1800)
	v.SetDefault("scrape.url", "https://www.imdb.com/chart/top/")
	v.SetDefault("scrape.selector", "h3.ipc-title__text")
	v.SetDefault("scrape.source", "imdb")
	v.SetDefault("scrape.limit", 10)
	v.SetDefault("scrape.user_agent", DefaultUserAgent)
	v.SetDefault("scrape.accept_language", "en-US")
	v.SetDefault("scrape.timeout_seconds", 30)
	v.SetDefault("scrape.respect_robots", false)
	v.SetDefault("scrape.rate_per_second", 1.0)
	v.SetDefault("scrape.rate_burst", 1)
	v.SetDefault("scrape.max_body_bytes", 10*1024*1024)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.Workers <= 0 {
		return fmt.Errorf("server.workers must be > 0")
	}
	if c.Server.QueueDepth < 0 {
		return fmt.Errorf("server.queue_depth must be >= 0")
	}
	if c.Server.ReadTimeoutSeconds <= 0 || c.Server.WriteTimeoutSeconds <= 0 {
		return fmt.Errorf("server read and write timeouts must be > 0")
	}
	if c.Server.HandlerTimeoutSeconds <= 0 {
		return fmt.Errorf("server.handler_timeout_seconds must be > 0")
	}
	if c.Admin.Enabled && c.Admin.Port <= 0 {
		return fmt.Errorf("admin.port must be > 0 when admin is enabled")
	}
	switch c.DB.Driver {
	case DriverPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn (DATABASE_URL) must be set for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("db.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.DB.Driver)
	}
	if c.DB.MaxConns <= 0 {
		return fmt.Errorf("db.max_conns must be > 0")
	}
	if c.DB.MinConns < 0 || c.DB.MinConns > c.DB.MaxConns {
		return fmt.Errorf("db.min_conns must be between 0 and db.max_conns")
	}
	if c.Scrape.URL == "" || c.Scrape.Selector == "" || c.Scrape.Source == "" {
		return fmt.Errorf("scrape.url, scrape.selector and scrape.source are required")
	}
	if c.Scrape.Limit <= 0 {
		return fmt.Errorf("scrape.limit must be > 0")
	}
	if c.Scrape.TimeoutSeconds <= 0 {
		return fmt.Errorf("scrape.timeout_seconds must be > 0")
	}
	if c.Scrape.MaxBodyBytes < 0 {
		return fmt.Errorf("scrape.max_body_bytes must be >= 0")
	}
	return nil
}

// ReadTimeout returns the per-connection read deadline.
func (c Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the per-connection write deadline.
func (c Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeoutSeconds) * time.Second
}

// HandlerTimeout bounds the context passed to route handlers.
func (c Config) HandlerTimeout() time.Duration {
	return time.Duration(c.Server.HandlerTimeoutSeconds) * time.Second
}

// ScrapeTimeout bounds the single page fetch.
func (c Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.Scrape.TimeoutSeconds) * time.Second
}

// MaxConnLifetime converts db.max_conn_lifetime_seconds.
func (c Config) MaxConnLifetime() time.Duration {
	return time.Duration(c.DB.MaxConnLifetimeSeconds) * time.Second
}
