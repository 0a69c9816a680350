package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "HUB_TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "HUB_TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "HUB_TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "HUB_TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "HUB_TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsBoolOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		envValue   string
		defaultVal bool
		expected   bool
	}{
		{"true literal", "true", false, true},
		{"numeric one", "1", false, true},
		{"false literal", "false", true, false},
		{"garbage keeps default", "sim", true, true},
		{"empty keeps default", "", false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("HUB_TEST_BOOL", tc.envValue)

			if got := getEnvAsBoolOrDefault("HUB_TEST_BOOL", tc.defaultVal); got != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	t.Setenv("HUB_TEST_DUR", "90s")
	if got := getEnvAsDurationOrDefault("HUB_TEST_DUR", time.Minute); got != 90*time.Second {
		t.Errorf("Expected 90s, got %v", got)
	}

	t.Setenv("HUB_TEST_DUR", "-5m")
	if got := getEnvAsDurationOrDefault("HUB_TEST_DUR", time.Minute); got != time.Minute {
		t.Errorf("Expected default for negative duration, got %v", got)
	}

	t.Setenv("HUB_TEST_DUR", "soon")
	if got := getEnvAsDurationOrDefault("HUB_TEST_DUR", time.Minute); got != time.Minute {
		t.Errorf("Expected default for invalid duration, got %v", got)
	}
}

func TestMustGetEnv_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for missing required env var")
		}
	}()

	os.Unsetenv("HUB_NONEXISTENT_REQUIRED_VAR")
	mustGetEnv("HUB_NONEXISTENT_REQUIRED_VAR")
}

func TestMustGetEnv_ReturnsValue(t *testing.T) {
	os.Setenv("HUB_TEST_REQUIRED", "value123")
	defer os.Unsetenv("HUB_TEST_REQUIRED")

	result := mustGetEnv("HUB_TEST_REQUIRED")
	if result != "value123" {
		t.Errorf("Expected 'value123', got %q", result)
	}
}

func TestLoad_DefaultsAndLocation(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hub")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "segredo")
	t.Setenv("TIMEZONE", "Not/AZone")
	t.Setenv("PORT", "")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Port)
	}
	if cfg.RunMigrations {
		t.Errorf("Expected migrations disabled by default")
	}
	if cfg.ReviewDigestCron != "0 7 * * *" {
		t.Errorf("Unexpected digest cron %q", cfg.ReviewDigestCron)
	}
	if cfg.Location() != time.UTC {
		t.Errorf("Expected UTC fallback for unknown timezone, got %v", cfg.Location())
	}
}
