package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	LimitModeStrict = "strict"
	LimitModeLegacy = "legacy"
)

type Config struct {
	Gateway   GatewayConfig   `yaml:"gateway"`
	Server    ServerConfig    `yaml:"server"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Query     QueryConfig     `yaml:"query"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// GatewayConfig is the public listener serving /api/ga/*.
type GatewayConfig struct {
	Listen string `yaml:"listen" env:"GAGW_GATEWAY_LISTEN"`
	Port   int    `yaml:"port" env:"PORT"`
}

// ServerConfig is the ops listener (health, metrics, admin).
type ServerConfig struct {
	Listen string `yaml:"listen" env:"GAGW_SERVER_LISTEN"`
}

type AnalyticsConfig struct {
	PropertyID      string        `yaml:"property_id" env:"GA4_PROPERTY_ID"`
	CredentialsFile string        `yaml:"credentials_file" env:"GOOGLE_APPLICATION_CREDENTIALS"`
	Endpoint        string        `yaml:"endpoint" env:"GAGW_ANALYTICS_ENDPOINT"`
	DefaultDays     int           `yaml:"default_days" env:"GAGW_DEFAULT_DAYS"`
	Timeout         time.Duration `yaml:"timeout" env:"GAGW_UPSTREAM_TIMEOUT"`
}

type QueryConfig struct {
	DefaultLimit int    `yaml:"default_limit" env:"GAGW_DEFAULT_LIMIT"`
	LimitMode    string `yaml:"limit_mode" env:"GAGW_LIMIT_MODE"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"GAGW_CORS_ORIGINS" envSeparator:","`
}

type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" env:"GAGW_RATE_LIMIT_ENABLED"`
	RPS     float64 `yaml:"rps" env:"GAGW_RATE_LIMIT_RPS"`
	Burst   int     `yaml:"burst" env:"GAGW_RATE_LIMIT_BURST"`
}

type LogConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	Output     string `yaml:"output" env:"LOG_OUTPUT"`
	File       string `yaml:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE"`
	Compress   bool   `yaml:"compress" env:"LOG_COMPRESS"`
}

var ErrMissingPropertyID = errors.New("config: analytics.property_id (GA4_PROPERTY_ID) is required")

// Default returns a config with no file behind it. Environment overrides still apply.
func Default() (*Config, error) {
	c := &Config{}
	if err := applyEnv(c); err != nil {
		return nil, err
	}
	setDefaults(c)
	return c, nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := applyEnv(&c); err != nil {
		return nil, err
	}
	setDefaults(&c)
	return &c, nil
}

// Validate reports settings the process cannot start without.
func (c *Config) Validate() error {
	if c.Analytics.PropertyID == "" {
		return ErrMissingPropertyID
	}
	switch c.Query.LimitMode {
	case LimitModeStrict, LimitModeLegacy:
	default:
		return fmt.Errorf("config: query.limit_mode must be %q or %q, got %q", LimitModeStrict, LimitModeLegacy, c.Query.LimitMode)
	}
	return nil
}

func applyEnv(c *Config) error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

func setDefaults(c *Config) {
	if c.Gateway.Port > 0 {
		c.Gateway.Listen = ":" + strconv.Itoa(c.Gateway.Port)
	}
	if c.Gateway.Listen == "" {
		c.Gateway.Listen = ":4000"
	}
	if c.Server.Listen == "" {
		c.Server.Listen = ":4001"
	}
	if c.Analytics.DefaultDays < 1 {
		c.Analytics.DefaultDays = 28
	}
	if c.Analytics.Timeout <= 0 {
		c.Analytics.Timeout = 30 * time.Second
	}
	if c.Query.DefaultLimit <= 0 {
		c.Query.DefaultLimit = 10
	}
	if c.Query.LimitMode == "" {
		c.Query.LimitMode = LimitModeStrict
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if c.RateLimit.RPS <= 0 {
		c.RateLimit.RPS = 10
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Log.File == "" {
		c.Log.File = "logs/gagateway.log"
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = 7
	}
	if c.Log.MaxAgeDays <= 0 {
		c.Log.MaxAgeDays = 7
	}
}
