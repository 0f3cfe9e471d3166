// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPGX      = "pgx"
)

// Model backends.
const (
	BackendLinear = "linear"
	BackendDocker = "docker"
)

type Config struct {
	Env  string
	Port int

	Log   LogConfig
	CORS  CORSConfig
	Store StoreConfig
	Redis RedisConfig
	Model ModelConfig

	// HistoryPageSize caps how many saved predictions one listing returns.
	HistoryPageSize int
	BcryptCost      int
}

type LogConfig struct {
	Level  string
	Format string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type StoreConfig struct {
	Driver       string
	Path         string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig configures the history cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type ModelConfig struct {
	Backend string
	// Path is a linear artifact file; empty selects the embedded default.
	Path string

	Image       string
	Command     []string
	PoolSize    int
	Timeout     time.Duration
	Pull        bool
	MemoryLimit int64
	CPULimit    float64
}

// Load reads .env (when present) and the process environment, then
// validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Log = LogConfig{
		Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
		Format: strings.ToLower(v.GetString("LOG_FORMAT")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Store = StoreConfig{
		Driver:       strings.ToLower(v.GetString("STORE_DRIVER")),
		Path:         v.GetString("DB_PATH"),
		DSN:          v.GetString("DATABASE_URL"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Addr:     v.GetString("REDIS_ADDR"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		TTL:      parseDuration(v.GetString("HISTORY_CACHE_TTL"), 5*time.Minute),
	}

	cfg.HistoryPageSize = v.GetInt("HISTORY_PAGE_SIZE")
	cfg.BcryptCost = v.GetInt("BCRYPT_COST")

	cfg.Model = ModelConfig{
		Backend:     strings.ToLower(v.GetString("MODEL_BACKEND")),
		Path:        v.GetString("MODEL_PATH"),
		Image:       v.GetString("MODEL_IMAGE"),
		Command:     strings.Fields(v.GetString("MODEL_COMMAND")),
		PoolSize:    v.GetInt("MODEL_POOL_SIZE"),
		Timeout:     parseDuration(v.GetString("MODEL_TIMEOUT"), 5*time.Second),
		Pull:        v.GetBool("MODEL_PULL"),
		MemoryLimit: v.GetInt64("MODEL_MEMORY_LIMIT"),
		CPULimit:    v.GetFloat64("MODEL_CPU_LIMIT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite driver"))
		}
	case DriverPostgres, DriverPGX:
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for the %s driver", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}

	switch c.Model.Backend {
	case BackendLinear:
	case BackendDocker:
		if c.Model.Image == "" || len(c.Model.Command) == 0 {
			errs = append(errs, errors.New("MODEL_IMAGE and MODEL_COMMAND are required for the docker backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MODEL_BACKEND %q", c.Model.Backend))
	}

	if c.HistoryPageSize <= 0 {
		errs = append(errs, fmt.Errorf("HISTORY_PAGE_SIZE must be positive, got %d", c.HistoryPageSize))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8000)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")

	v.SetDefault("STORE_DRIVER", DriverSQLite)
	v.SetDefault("DB_PATH", "data/predictor.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("HISTORY_CACHE_TTL", "5m")

	v.SetDefault("HISTORY_PAGE_SIZE", 100)
	v.SetDefault("BCRYPT_COST", 12)

	v.SetDefault("MODEL_BACKEND", BackendLinear)
	v.SetDefault("MODEL_PATH", "")
	v.SetDefault("MODEL_IMAGE", "grade-predictor-model:latest")
	v.SetDefault("MODEL_COMMAND", "python /app/predict.py")
	v.SetDefault("MODEL_POOL_SIZE", 2)
	v.SetDefault("MODEL_TIMEOUT", "5s")
	v.SetDefault("MODEL_PULL", false)
	v.SetDefault("MODEL_MEMORY_LIMIT", 256*1024*1024)
	v.SetDefault("MODEL_CPU_LIMIT", 0.5)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
