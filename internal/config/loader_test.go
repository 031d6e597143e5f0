package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"HTTP_PORT",
	"STORE_DRIVER",
	"SQLITE_DSN",
	"POSTGRES_URL",
	"JWT_SECRET",
	"TIMEZONE",
	"REMINDER_SCHEDULE",
	"REMINDER_LOOKAHEAD",
	"REDIS_ADDR",
	"REDIS_PASSWORD",
	"REDIS_DB",
	"LOCK_TTL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		// Setenv registers the restore; Unsetenv then removes the value for this test.
		t.Setenv(envPrefix+key, "")
		if err := os.Unsetenv(envPrefix + key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ROOMBOOKING_JWT_SECRET", "super-secret")

		cfg, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 || cfg.Addr() != ":8080" {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.StoreDriver != DriverSQLite {
			t.Fatalf("expected sqlite driver, got %q", cfg.StoreDriver)
		}
		if cfg.SQLiteDSN != "file:roombooking.db" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.Location != time.UTC {
			t.Fatalf("expected UTC location, got %v", cfg.Location)
		}
		if cfg.ReminderSchedule != "@every 1m" || cfg.ReminderLookahead != time.Hour {
			t.Fatalf("unexpected reminder defaults: %q %s", cfg.ReminderSchedule, cfg.ReminderLookahead)
		}
		if cfg.RedisAddr != "" || cfg.LockTTL != 10*time.Second {
			t.Fatalf("unexpected lock defaults: %q %s", cfg.RedisAddr, cfg.LockTTL)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		clearEnv(t)

		_, err := LoadFromEnv()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "missing required environment variables: ROOMBOOKING_JWT_SECRET"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("postgres driver requires a url", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ROOMBOOKING_JWT_SECRET", "secret")
		t.Setenv("ROOMBOOKING_STORE_DRIVER", "Postgres")

		_, err := LoadFromEnv()
		if err == nil || !strings.Contains(err.Error(), "ROOMBOOKING_POSTGRES_URL") {
			t.Fatalf("expected missing postgres url error, got %v", err)
		}
	})

	t.Run("reports missing and invalid values together", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ROOMBOOKING_HTTP_PORT", "http")
		t.Setenv("ROOMBOOKING_STORE_DRIVER", "mysql")
		t.Setenv("ROOMBOOKING_TIMEZONE", "Mars/Olympus")
		t.Setenv("ROOMBOOKING_LOCK_TTL", "-1s")

		_, err := LoadFromEnv()
		if err == nil {
			t.Fatalf("expected error")
		}
		msg := err.Error()
		for _, key := range []string{
			"ROOMBOOKING_JWT_SECRET",
			"ROOMBOOKING_HTTP_PORT",
			"ROOMBOOKING_STORE_DRIVER",
			"ROOMBOOKING_TIMEZONE",
			"ROOMBOOKING_LOCK_TTL",
		} {
			if !strings.Contains(msg, key) {
				t.Fatalf("expected %s in error %q", key, msg)
			}
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ROOMBOOKING_JWT_SECRET", "secret-value")
		t.Setenv("ROOMBOOKING_HTTP_PORT", "9090")
		t.Setenv("ROOMBOOKING_STORE_DRIVER", "postgres")
		t.Setenv("ROOMBOOKING_POSTGRES_URL", "postgres://localhost/rooms")
		t.Setenv("ROOMBOOKING_TIMEZONE", "Asia/Bangkok")
		t.Setenv("ROOMBOOKING_REMINDER_SCHEDULE", "*/5 * * * *")
		t.Setenv("ROOMBOOKING_REMINDER_LOOKAHEAD", "30m")
		t.Setenv("ROOMBOOKING_REDIS_ADDR", "localhost:6379")
		t.Setenv("ROOMBOOKING_REDIS_DB", "2")
		t.Setenv("ROOMBOOKING_LOCK_TTL", "3s")

		cfg, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.StoreDriver != DriverPostgres || cfg.PostgresURL != "postgres://localhost/rooms" {
			t.Fatalf("unexpected store config: %q %q", cfg.StoreDriver, cfg.PostgresURL)
		}
		if cfg.Location.String() != "Asia/Bangkok" {
			t.Fatalf("unexpected location %v", cfg.Location)
		}
		if cfg.ReminderSchedule != "*/5 * * * *" || cfg.ReminderLookahead != 30*time.Minute {
			t.Fatalf("unexpected reminder config: %q %s", cfg.ReminderSchedule, cfg.ReminderLookahead)
		}
		if cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 2 || cfg.LockTTL != 3*time.Second {
			t.Fatalf("unexpected redis config: %+v", cfg)
		}
	})
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	if err := os.WriteFile(".env", []byte("ROOMBOOKING_JWT_SECRET=from-file\nROOMBOOKING_HTTP_PORT=7070\n"), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.JWTSecret != "from-file" || cfg.HTTPPort != 7070 {
		t.Fatalf("expected values from .env, got %+v", cfg)
	}
}
