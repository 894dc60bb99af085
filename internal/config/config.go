package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	AllowedOrigin string `envconfig:"ALLOWED_ORIGIN" default:"http://127.0.0.1:3000"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"memory"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"tillpoint.db"`

	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	ParkedSaleTTL time.Duration `envconfig:"PARKED_SALE_TTL" default:"12h"`

	TaxRateText string          `envconfig:"TAX_RATE" default:"0.06"`
	TaxRate     decimal.Decimal `ignored:"true"`

	AuthSecret      string        `envconfig:"AUTH_SECRET"`
	AccessTokenTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"8h"`
	AdminPassword   string        `envconfig:"ADMIN_PASSWORD"`
	CashierPassword string        `envconfig:"CASHIER_PASSWORD"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Load reads the environment. Secrets are never defaulted; the server checks
// them before it starts.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.AuthSecret = strings.TrimSpace(cfg.AuthSecret)
	cfg.AdminPassword = strings.TrimSpace(cfg.AdminPassword)
	cfg.CashierPassword = strings.TrimSpace(cfg.CashierPassword)

	if cfg.StoreDriver == "" {
		cfg.StoreDriver = DriverMemory
	}
	if strings.TrimSpace(cfg.TaxRateText) == "" {
		cfg.TaxRateText = "0.06"
	}

	switch cfg.StoreDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres, DriverMySQL:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required for STORE_DRIVER=%s", cfg.StoreDriver)
		}
	default:
		return Config{}, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(cfg.TaxRateText))
	if err != nil {
		return Config{}, fmt.Errorf("TAX_RATE %q is not a decimal", cfg.TaxRateText)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return Config{}, fmt.Errorf("TAX_RATE must be in [0, 1), got %s", rate)
	}
	cfg.TaxRate = rate

	if cfg.ParkedSaleTTL <= 0 {
		cfg.ParkedSaleTTL = 12 * time.Hour
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 8 * time.Hour
	}

	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}
