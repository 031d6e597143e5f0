package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	envPrefix = "ROOMBOOKING_"
)

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTPPort          int
	StoreDriver       string
	SQLiteDSN         string
	PostgresURL       string
	JWTSecret         string
	Location          *time.Location
	ReminderSchedule  string
	ReminderLookahead time.Duration
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	LockTTL           time.Duration
}

// Load reads an optional .env file from the working directory and then parses
// the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read .env file: %w", err)
	}
	return LoadFromEnv()
}

// LoadFromEnv parses configuration values from the current process environment.
//
// Optional fields fall back to defaults. Missing required values and invalid
// values are all reported in a single error.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		HTTPPort:          8080,
		StoreDriver:       DriverSQLite,
		SQLiteDSN:         "file:roombooking.db",
		Location:          time.UTC,
		ReminderSchedule:  "@every 1m",
		ReminderLookahead: time.Hour,
		LockTTL:           10 * time.Second,
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if value := env("HTTP_PORT"); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, envPrefix+"HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if value := env("STORE_DRIVER"); value != "" {
		switch driver := strings.ToLower(value); driver {
		case DriverSQLite, DriverPostgres:
			cfg.StoreDriver = driver
		default:
			invalid = append(invalid, envPrefix+"STORE_DRIVER")
		}
	}

	if dsn := env("SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	cfg.PostgresURL = env("POSTGRES_URL")
	if cfg.StoreDriver == DriverPostgres && cfg.PostgresURL == "" {
		missing = append(missing, envPrefix+"POSTGRES_URL")
	}

	if cfg.JWTSecret = env("JWT_SECRET"); cfg.JWTSecret == "" {
		missing = append(missing, envPrefix+"JWT_SECRET")
	}

	if value := env("TIMEZONE"); value != "" {
		loc, err := time.LoadLocation(value)
		if err != nil {
			invalid = append(invalid, envPrefix+"TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	if value := env("REMINDER_SCHEDULE"); value != "" {
		cfg.ReminderSchedule = value
	}

	if value := env("REMINDER_LOOKAHEAD"); value != "" {
		lookahead, err := time.ParseDuration(value)
		if err != nil || lookahead <= 0 {
			invalid = append(invalid, envPrefix+"REMINDER_LOOKAHEAD")
		} else {
			cfg.ReminderLookahead = lookahead
		}
	}

	cfg.RedisAddr = env("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv(envPrefix + "REDIS_PASSWORD")

	if value := env("REDIS_DB"); value != "" {
		db, err := strconv.Atoi(value)
		if err != nil || db < 0 {
			invalid = append(invalid, envPrefix+"REDIS_DB")
		} else {
			cfg.RedisDB = db
		}
	}

	if value := env("LOCK_TTL"); value != "" {
		ttl, err := time.ParseDuration(value)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, envPrefix+"LOCK_TTL")
		} else {
			cfg.LockTTL = ttl
		}
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", ")))
	}
	if len(invalid) > 0 {
		errs = append(errs, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", ")))
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.HTTPPort)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}
