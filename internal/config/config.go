package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/leafsii/georef/internal/db"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	Env      string `mapstructure:"APP_ENV" validate:"oneof=dev test prod"`
	Host     string `mapstructure:"HOST" validate:"required"`
	Port     int    `mapstructure:"PORT" validate:"min=1,max=65535"`
	LogLevel string `mapstructure:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`

	Database  DBConfig        `mapstructure:",squash"`
	Bootstrap BootstrapConfig `mapstructure:",squash"`
	Security  SecurityConfig  `mapstructure:",squash"`
}

type DBConfig struct {
	Driver       string `mapstructure:"DB_DRIVER" validate:"oneof=memory postgres sqlite"`
	UseInMemory  bool   `mapstructure:"USE_IN_MEMORY"`
	Host         string `mapstructure:"DB_HOST" validate:"required_if=Driver postgres"`
	Port         int    `mapstructure:"DB_PORT" validate:"min=1,max=65535"`
	User         string `mapstructure:"DB_USER" validate:"required_if=Driver postgres"`
	Password     string `mapstructure:"DB_PASSWORD"`
	Name         string `mapstructure:"DB_NAME" validate:"required_if=Driver postgres"`
	SSLMode      string `mapstructure:"DB_SSL_MODE" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	SQLitePath   string `mapstructure:"DB_SQLITE_PATH" validate:"required_if=Driver sqlite"`
	MaxOpenConns int    `mapstructure:"DB_MAX_OPEN_CONNS" validate:"gte=0"`
	MaxIdleConns int    `mapstructure:"DB_MAX_IDLE_CONNS" validate:"gte=0"`
}

type BootstrapConfig struct {
	MigrateOnStart bool `mapstructure:"MIGRATE_ON_START"`
	SeedOnStart    bool `mapstructure:"SEED_ON_START"`
}

type SecurityConfig struct {
	RateLimitRPM       int      `mapstructure:"RATE_LIMIT_RPM" validate:"gte=0"`
	CORSAllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

func loadDotEnvFiles() {
	candidates := []string{
		".env",
		filepath.Join("..", ".env"),
		filepath.Join("..", "..", ".env"),
	}

	seen := make(map[string]struct{})
	for _, path := range candidates {
		abs := path
		if resolved, err := filepath.Abs(path); err == nil {
			abs = resolved
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}

		if _, err := os.Stat(path); err == nil {
			_ = gotenv.Load(path) // env vars already set take precedence
		}
	}
}

func Load() (*Config, error) {
	loadDotEnvFiles()

	v := viper.New()
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("HOST", "localhost")
	v.SetDefault("PORT", 5001)
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("USE_IN_MEMORY", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "georef")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_SQLITE_PATH", "georef.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("MIGRATE_ON_START", true)
	v.SetDefault("SEED_ON_START", true)
	v.SetDefault("RATE_LIMIT_RPM", 120)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")

	// Handle array parsing for comma-separated values
	if origins := v.GetString("CORS_ALLOWED_ORIGINS"); origins != "" {
		parts := strings.Split(origins, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		v.Set("CORS_ALLOWED_ORIGINS", parts)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	return validator.New().Struct(c)
}

func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

// HTTPAddr is the listen address of the API server
func (c *Config) HTTPAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Engine resolves the storage engine name; USE_IN_MEMORY wins over DB_DRIVER
func (d DBConfig) Engine() string {
	if d.UseInMemory {
		return "memory"
	}
	return d.Driver
}

// DSN builds the connection string for the configured SQL engine
func (d DBConfig) DSN() string {
	switch d.Engine() {
	case "postgres":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(d.User, d.Password),
			Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
			Path:     "/" + d.Name,
			RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
		}
		return u.String()
	case "sqlite":
		return SQLiteDSN(d.SQLitePath)
	default:
		return ""
	}
}

// SQLiteDSN enables foreign keys and a busy timeout on every pooled connection
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// DB converts the settings into the storage factory configuration
func (d DBConfig) DB() *db.Config {
	return &db.Config{
		Type:         d.Engine(),
		DSN:          d.DSN(),
		UseInMemory:  d.UseInMemory,
		MaxOpenConns: d.MaxOpenConns,
		MaxIdleConns: d.MaxIdleConns,
	}
}
