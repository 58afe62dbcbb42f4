package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the tracker.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	API       APIConfig       `yaml:"api"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Registry  RegistryConfig  `yaml:"registry"`
	Images    ImagesConfig    `yaml:"images"`
	Summary   SummaryConfig   `yaml:"summary"`
	Reminders RemindersConfig `yaml:"reminders"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

// APIConfig contains the remote nutrition API settings.
type APIConfig struct {
	BaseURL     string        `yaml:"baseUrl"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"maxAttempts"`
	Backoff     time.Duration `yaml:"backoff"`
}

// LedgerConfig controls meal ledger persistence and day boundaries.
type LedgerConfig struct {
	Timezone   string         `yaml:"timezone"`
	SQLitePath string         `yaml:"sqlitePath"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// RegistryConfig controls where the profile and budget records live.
type RegistryConfig struct {
	SQLitePath string `yaml:"sqlitePath"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ImagesConfig contains S3-compatible storage for saved meal photos.
type ImagesConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// SummaryConfig controls daily summary caching.
type SummaryConfig struct {
	Valkey ValkeyConfig `yaml:"valkey"`
}

// ValkeyConfig contains connection information for cache storage.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// RemindersConfig sets the voice of generated notification copy.
type RemindersConfig struct {
	Tone   string `yaml:"tone"`
	Locale string `yaml:"locale"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HEAL_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("HEAL_API_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.API.Timeout = parsed
		}
	}
	if v := os.Getenv("HEAL_API_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.API.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("LEDGER_TIMEZONE"); v != "" {
		cfg.Ledger.Timezone = v
	}
	if v := os.Getenv("LEDGER_SQLITE_PATH"); v != "" {
		cfg.Ledger.SQLitePath = v
	}
	if v := os.Getenv("LEDGER_POSTGRES_DSN"); v != "" {
		cfg.Ledger.Postgres.DSN = v
	}
	if v := os.Getenv("LEDGER_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Ledger.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("LEDGER_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Ledger.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("REGISTRY_SQLITE_PATH"); v != "" {
		cfg.Registry.SQLitePath = v
	}
	if v := os.Getenv("IMAGES_ENABLED"); v != "" {
		cfg.Images.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("IMAGES_ENDPOINT"); v != "" {
		cfg.Images.Endpoint = v
	}
	if v := os.Getenv("IMAGES_ACCESS_KEY"); v != "" {
		cfg.Images.AccessKey = v
	}
	if v := os.Getenv("IMAGES_SECRET_KEY"); v != "" {
		cfg.Images.SecretKey = v
	}
	if v := os.Getenv("IMAGES_BUCKET"); v != "" {
		cfg.Images.Bucket = v
	}
	if v := os.Getenv("IMAGES_REGION"); v != "" {
		cfg.Images.Region = v
	}
	if v := os.Getenv("SUMMARY_VALKEY_ENABLED"); v != "" {
		cfg.Summary.Valkey.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("SUMMARY_VALKEY_ADDR"); v != "" {
		cfg.Summary.Valkey.Addr = v
	}
	if v := os.Getenv("REMINDERS_TONE"); v != "" {
		cfg.Reminders.Tone = v
	}
	if v := os.Getenv("REMINDERS_LOCALE"); v != "" {
		cfg.Reminders.Locale = v
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		API: APIConfig{
			BaseURL:     "http://localhost:8000",
			Timeout:     60 * time.Second,
			MaxAttempts: 2,
			Backoff:     250 * time.Millisecond,
		},
		Ledger: LedgerConfig{
			Timezone: "UTC",
			Postgres: PostgresConfig{
				MaxConns: 4,
				MinConns: 0,
			},
		},
		Images: ImagesConfig{
			Enabled: false,
			Region:  "auto",
		},
		Summary: SummaryConfig{
			Valkey: ValkeyConfig{
				Enabled: false,
				Prefix:  "summary",
			},
		},
		Reminders: RemindersConfig{
			Tone:   "friendly",
			Locale: "en",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api.baseUrl cannot be empty")
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.API.MaxAttempts <= 0 {
		return errors.New("api.maxAttempts must be positive")
	}
	if c.Ledger.Timezone != "" {
		if _, err := time.LoadLocation(c.Ledger.Timezone); err != nil {
			return fmt.Errorf("ledger.timezone: %w", err)
		}
	}
	if c.Images.Enabled {
		if strings.TrimSpace(c.Images.Endpoint) == "" {
			return errors.New("images.endpoint cannot be empty when images storage is enabled")
		}
		if strings.TrimSpace(c.Images.Bucket) == "" {
			return errors.New("images.bucket cannot be empty when images storage is enabled")
		}
	}
	if c.Summary.Valkey.Enabled && strings.TrimSpace(c.Summary.Valkey.Addr) == "" {
		return errors.New("summary.valkey.addr cannot be empty when the cache is enabled")
	}
	return nil
}

// Location resolves the configured ledger timezone, defaulting to UTC.
func (c *Config) Location() *time.Location {
	if c.Ledger.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Ledger.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
