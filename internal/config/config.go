package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	LockMemory = "memory"
	LockRedis  = "redis"
)

type Config struct {
	App      AppConfig
	Store    StoreConfig
	Database DatabaseConfig
	SQLite   SQLiteConfig
	Payroll  PayrollConfig
	Lock     LockConfig
	Redis    RedisConfig
	CORS     CORSConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

type StoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

type SQLiteConfig struct {
	Path string
}

// PayrollConfig holds the engine settings. Empty schedules disable their job.
type PayrollConfig struct {
	PolicyFile           string
	Workers              int
	Schedule             string
	StaleSessionSchedule string
}

type LockConfig struct {
	Backend string
	TTL     time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() (*Config, error) {
	// The .env file is optional; the process environment always wins.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	} else if err != nil {
		slog.Debug("No .env file found, using process environment")
	}

	config := &Config{}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	config.Store = StoreConfig{Driver: getEnv("STORE_DRIVER", DriverSQLite)}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "hris_payroll"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
	}

	config.SQLite = SQLiteConfig{Path: getEnv("SQLITE_PATH", "payroll.db")}

	// Payroll configuration
	workers, err := strconv.Atoi(getEnv("PAYROLL_WORKERS", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_WORKERS: %w", err)
	}

	config.Payroll = PayrollConfig{
		PolicyFile:           getEnv("POLICY_FILE", ""),
		Workers:              workers,
		Schedule:             os.Getenv("PAYROLL_SCHEDULE"),
		StaleSessionSchedule: os.Getenv("STALE_SESSION_SCHEDULE"),
	}

	// Lock configuration
	lockTTL, err := time.ParseDuration(getEnv("LOCK_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOCK_TTL: %w", err)
	}

	config.Lock = LockConfig{
		Backend: getEnv("LOCK_BACKEND", LockMemory),
		TTL:     lockTTL,
	}

	// Redis configuration
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	config.CORS = CORSConfig{AllowedOrigins: getEnvSlice("CORS_ORIGINS")}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required for the postgres store")
		}
	case DriverSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %s or %s, got %q", DriverPostgres, DriverSQLite, c.Store.Driver)
	}

	switch c.Lock.Backend {
	case LockMemory:
	case LockRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis lock backend")
		}
	default:
		return fmt.Errorf("LOCK_BACKEND must be %s or %s, got %q", LockMemory, LockRedis, c.Lock.Backend)
	}

	if c.Lock.TTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be positive")
	}
	if c.Payroll.Workers <= 0 {
		return fmt.Errorf("PAYROLL_WORKERS must be positive")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses App.LogLevel.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", c.App.LogLevel)
	}
	return level, nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
