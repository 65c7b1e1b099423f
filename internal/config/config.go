// Package config loads the runtime configuration of the onboarding service.
//
// Values are resolved in three layers: built-in defaults, an optional YAML
// file, and environment variables, each overriding the previous one.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when present and no explicit file is given.
const DefaultFile = "onboard.yaml"

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Ledger backends.
const (
	LedgerMemory = "memory"
	LedgerRedis  = "redis"
	LedgerSQLite = "sqlite"
	LedgerNone   = "none"
)

// Config is the service configuration.
type Config struct {
	// UseMockBackend selects the deterministic mock instead of the live gateway.
	UseMockBackend bool          `yaml:"use_mock_backend" env:"USE_MOCK_BACKEND"`
	APIURL         string        `yaml:"api_url" env:"ONBOARD_API_URL"`
	APITimeout     time.Duration `yaml:"api_timeout" env:"ONBOARD_API_TIMEOUT"`
	ProductID      string        `yaml:"product_id" env:"ONBOARD_PRODUCT_ID"`
	RefetchStatus  bool          `yaml:"refetch_status" env:"ONBOARD_REFETCH_STATUS"`

	Store         string        `yaml:"store" env:"ONBOARD_STORE"`
	StorePath     string        `yaml:"store_path" env:"ONBOARD_STORE_PATH"`
	RedisAddr     string        `yaml:"redis_addr" env:"ONBOARD_REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"ONBOARD_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"ONBOARD_REDIS_DB"`
	SessionTTL    time.Duration `yaml:"session_ttl" env:"ONBOARD_SESSION_TTL"`

	Ledger     string `yaml:"ledger" env:"ONBOARD_LEDGER"`
	LedgerPath string `yaml:"ledger_path" env:"ONBOARD_LEDGER_PATH"`

	// StateKey is a base64 AES-256 key. When set, session history is encrypted at rest.
	StateKey string `yaml:"state_key" env:"ONBOARD_STATE_KEY"`

	LogLevel     string `yaml:"log_level" env:"ONBOARD_LOG_LEVEL"`
	OTelEndpoint string `yaml:"otel_endpoint" env:"ONBOARD_OTEL_ENDPOINT"`
	Token        string `yaml:"-" env:"ONBOARD_TOKEN"`
	Addr         string `yaml:"addr" env:"ONBOARD_ADDR"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		UseMockBackend: false,
		APITimeout:     15 * time.Second,
		ProductID:      "prod-pn-pg",
		RefetchStatus:  true,
		Store:          StoreFile,
		StorePath:      ".onboard/sessions",
		RedisAddr:      "localhost:6379",
		SessionTTL:     24 * time.Hour,
		Ledger:         LedgerMemory,
		LedgerPath:     ".onboard/outcomes.db",
		LogLevel:       "info",
		Addr:           ":8080",
	}
}

// Load resolves the configuration. An empty path reads DefaultFile if it exists;
// an explicit path must exist.
func Load(path string) (Config, error) {
	return LoadWith(path)
}

// LoadWith is Load with overrides applied after the environment, before validation.
func LoadWith(path string, overrides ...func(*Config)) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := loadFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	for _, o := range overrides {
		o(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Validate checks the combination of settings.
func (c Config) Validate() error {
	var errs []error
	if !c.UseMockBackend && c.APIURL == "" {
		errs = append(errs, errors.New("api_url is required unless the mock backend is used"))
	}
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	switch c.Ledger {
	case LedgerMemory, LedgerRedis, LedgerSQLite, LedgerNone:
	default:
		errs = append(errs, fmt.Errorf("unknown ledger %q", c.Ledger))
	}
	if c.APITimeout <= 0 {
		errs = append(errs, errors.New("api_timeout must be positive"))
	}
	return errors.Join(errs...)
}
