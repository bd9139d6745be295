// Package config loads the gateway configuration from an optional YAML file
// and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/R3E-Network/heroapps/pkg/logger"
)

// Storage drivers.
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// DefaultConfigPath is read when HEROAPPS_CONFIG is not set. A missing file is
// not an error.
var DefaultConfigPath = filepath.Join("config", "heroapps.yaml")

// Config is the full gateway configuration.
type Config struct {
	Server      ServerConfig         `yaml:"server"`
	Mongo       MongoConfig          `yaml:"mongo"`
	Storage     StorageConfig        `yaml:"storage"`
	Logging     logger.LoggingConfig `yaml:"logging"`
	CORS        CORSConfig           `yaml:"cors"`
	Listing     ListingConfig        `yaml:"listing"`
	RateLimit   RateLimitConfig      `yaml:"rate_limit"`
	Metrics     MetricsConfig        `yaml:"metrics"`
	HealthCheck HealthCheckConfig    `yaml:"health_check"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MongoConfig selects the deployment and collection holding the records.
type MongoConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	Collection     string        `yaml:"collection"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// StorageConfig picks the storage driver.
type StorageConfig struct {
	Driver   string `yaml:"driver"`
	SeedFile string `yaml:"seed_file"`
}

// CORSConfig lists the allowed origins. "*" allows any origin.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ListingConfig bounds listing requests. A zero MaxLimit leaves page size
// unbounded.
type ListingConfig struct {
	MaxLimit int64 `yaml:"max_limit"`
}

// RateLimitConfig enables the per-client limiter when RPS is positive.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// HealthCheckConfig sets the storage monitor cron schedule.
type HealthCheckConfig struct {
	Schedule string `yaml:"schedule"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 5000, ShutdownTimeout: 10 * time.Second},
		Mongo: MongoConfig{
			Database:       "heroAppsDB",
			Collection:     "apps",
			ConnectTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{Driver: DriverMongo},
		Logging: logger.LoggingConfig{Level: "info", Format: "text", Output: "stdout"},
		CORS:    CORSConfig{AllowedOrigins: []string{"*"}},
		RateLimit: RateLimitConfig{
			Burst: 20,
		},
		Metrics:     MetricsConfig{Enabled: true, Path: "/metrics"},
		HealthCheck: HealthCheckConfig{Schedule: "@every 30s"},
	}
}

// Load reads .env if present, then the YAML file named by HEROAPPS_CONFIG (or
// DefaultConfigPath), then applies environment overrides and validates.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	path := os.Getenv("HEROAPPS_CONFIG")
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	cfg := Default()
	if err := cfg.loadFile(path, explicit); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv applies environment overrides on top of the current values.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = port
	}

	// URI is the variable the service has always read; MONGO_URI wins when both are set.
	if v := os.Getenv("URI"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("MONGO_DATABASE"); v != "" {
		c.Mongo.Database = v
	}
	if v := os.Getenv("MONGO_COLLECTION"); v != "" {
		c.Mongo.Collection = v
	}

	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("SEED_FILE"); v != "" {
		c.Storage.SeedFile = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("LOG_OUTPUT"); v != "" {
		c.Logging.Output = v
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORS.AllowedOrigins = splitList(v)
	}

	if v := os.Getenv("LISTING_MAX_LIMIT"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("LISTING_MAX_LIMIT: %w", err)
		}
		c.Listing.MaxLimit = n
	}

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		c.RateLimit.RPS = rps
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_BURST: %w", err)
		}
		c.RateLimit.Burst = burst
	}

	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("METRICS_ENABLED: %w", err)
		}
		c.Metrics.Enabled = enabled
	}
	if v := os.Getenv("METRICS_PATH"); v != "" {
		c.Metrics.Path = v
	}

	if v := os.Getenv("HEALTH_CHECK_SCHEDULE"); v != "" {
		c.HealthCheck.Schedule = v
	}
	return nil
}

// Validate checks the configuration for values the gateway cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}

	switch c.Storage.Driver {
	case DriverMongo:
		if c.Mongo.URI == "" {
			return errors.New("mongo uri is required (set URI or MONGO_URI)")
		}
		if c.Mongo.Database == "" || c.Mongo.Collection == "" {
			return errors.New("mongo database and collection are required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Listing.MaxLimit < 0 {
		return fmt.Errorf("listing max_limit must not be negative")
	}
	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("rate limit rps must not be negative")
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit burst must be positive when rps is set")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path %q must start with /", c.Metrics.Path)
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
