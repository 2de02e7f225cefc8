package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DBConfig selects and locates the alert store.
type DBConfig struct {
	Driver          string
	Path            string
	DSN             string
	ConnectAttempts int
	ConnectDelay    time.Duration
}

// Config holds application configuration loaded from environment.
type Config struct {
	DB  DBConfig
	API struct {
		Addr            string
		ShutdownTimeout time.Duration
		Mode            string
	}
	Logging struct {
		Dir   string
		Level string
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() (Config, error) {
	var cfg Config
	invalid := []string{}

	// Database settings
	cfg.DB.Driver = getEnv("DB_DRIVER", DriverSQLite)
	cfg.DB.Path = getEnv("DB_PATH", "alerts.db")
	cfg.DB.DSN = os.Getenv("DB_DSN")

	attempts, err := getEnvAsInt("DB_CONNECT_ATTEMPTS", 1)
	if err != nil || attempts < 1 {
		invalid = append(invalid, "DB_CONNECT_ATTEMPTS")
	}
	cfg.DB.ConnectAttempts = attempts

	if cfg.DB.ConnectDelay, err = getEnvAsDuration("DB_CONNECT_DELAY", 2*time.Second); err != nil {
		invalid = append(invalid, "DB_CONNECT_DELAY")
	}

	// API settings
	cfg.API.Addr = getEnv("API_ADDR", "127.0.0.1:8888")
	cfg.API.Mode = getEnv("GIN_MODE", "release")
	if cfg.API.ShutdownTimeout, err = getEnvAsDuration("API_SHUTDOWN_TIMEOUT", 5*time.Second); err != nil {
		invalid = append(invalid, "API_SHUTDOWN_TIMEOUT")
	}

	// Logging settings; an explicitly empty LOG_DIR disables the log file
	if dir, ok := os.LookupEnv("LOG_DIR"); ok {
		cfg.Logging.Dir = dir
	} else {
		cfg.Logging.Dir = "logs"
	}
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configurations: %v", invalid)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected store driver has what it needs.
func (c Config) Validate() error {
	missing := []string{}
	switch c.DB.Driver {
	case DriverSQLite:
		if c.DB.Path == "" {
			missing = append(missing, "DB_PATH")
		}
	case DriverPostgres:
		if c.DB.DSN == "" {
			missing = append(missing, "DB_DSN")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.API.Addr == "" {
		missing = append(missing, "API_ADDR")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configurations: %v", missing)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(value)
}
