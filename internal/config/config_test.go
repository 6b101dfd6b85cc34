package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{
			name:     "true value",
			key:      "TEST_BOOL",
			value:    "true",
			def:      false,
			expected: true,
		},
		{
			name:     "false value",
			key:      "TEST_BOOL_FALSE",
			value:    "false",
			def:      true,
			expected: false,
		},
		{
			name:     "invalid value uses default",
			key:      "TEST_BOOL_INVALID",
			value:    "invalid",
			def:      true,
			expected: true,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_BOOL_MISSING",
			value:    "",
			def:      false,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JBMON_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("JBMON_PROD_USERNAME", "prod_admin")
	t.Setenv("JBMON_PROD_PASSWORD", "prod_password")
	t.Setenv("JBMON_NONPROD_USERNAME", "nonprod_admin")
	t.Setenv("JBMON_NONPROD_PASSWORD", "nonprod_password")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg := Load()

	if cfg.ListenPort != ":8080" || cfg.StorageDir != "data" {
		t.Errorf("unexpected server defaults: %q %q", cfg.ListenPort, cfg.StorageDir)
	}
	if cfg.CLITimeout != 30*time.Second || cfg.TokenTTL != 12*time.Hour || cfg.RequestTimeout != 5*time.Minute {
		t.Errorf("unexpected timeouts: cli=%v token=%v request=%v", cfg.CLITimeout, cfg.TokenTTL, cfg.RequestTimeout)
	}
	if cfg.SweepConcurrency != 4 || cfg.SweepInterval != 0 {
		t.Errorf("unexpected sweep defaults: %d %v", cfg.SweepConcurrency, cfg.SweepInterval)
	}
	if cfg.ReportRetention != 30*24*time.Hour {
		t.Errorf("ReportRetention = %v", cfg.ReportRetention)
	}
	if cfg.RedisAddr != "" || cfg.AllowedHosts != nil || cfg.AllowedCIDRS != nil {
		t.Errorf("optional settings should be empty: %+v", cfg.Redacted())
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("JBMON_SWEEP_INTERVAL", "15m")
	t.Setenv("JBMON_SWEEP_CONCURRENCY", "8")
	t.Setenv("JBMON_ALLOWED_HOSTS", "jbmon.example.com, 'localhost:8080'")
	t.Setenv("JBMON_ALLOWED_CIDRS", "10.0.0.0/8,192.168.1.10")

	cfg := Load()

	if cfg.SweepInterval != 15*time.Minute || cfg.SweepConcurrency != 8 {
		t.Errorf("sweep overrides not applied: %v %d", cfg.SweepInterval, cfg.SweepConcurrency)
	}
	if len(cfg.AllowedHosts) != 2 || cfg.AllowedHosts[1] != "localhost:8080" {
		t.Errorf("AllowedHosts = %v", cfg.AllowedHosts)
	}
	if len(cfg.AllowedCIDRS) != 2 {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("JBMON_JWT_SECRET", "short")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Load() should panic on a short JWT secret")
		}
	}()
	Load()
}

func TestRedacted(t *testing.T) {
	cfg := &Config{
		JWTSecret:    "secret",
		ProdPassword: "p",
		CLIPassword:  "c",
		RedisUser:    "u",
		ProdUsername: "visible",
	}

	r := cfg.Redacted()
	for name, v := range map[string]string{
		"JWTSecret":    r.JWTSecret,
		"ProdPassword": r.ProdPassword,
		"CLIPassword":  r.CLIPassword,
		"RedisUser":    r.RedisUser,
	} {
		if v != "***REDACTED***" {
			t.Errorf("%s = %q, want redacted", name, v)
		}
	}
	if r.NonProdPassword != "" {
		t.Error("empty fields should stay empty")
	}
	if r.ProdUsername != "visible" {
		t.Error("usernames should not be redacted")
	}
	if cfg.JWTSecret != "secret" {
		t.Error("Redacted() modified the original")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jbmon.env")
	content := "JBMON_SEED_FILE=/from/dotenv.yaml\nJBMON_CLI_PATH=/from/dotenv/jboss-cli.sh\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JBMON_ENV_FILE", path)
	t.Setenv("JBMON_CLI_PATH", "/from/env/jboss-cli.sh")

	// Registers cleanup for the variable the file sets.
	t.Setenv("JBMON_SEED_FILE", "")
	if err := os.Unsetenv("JBMON_SEED_FILE"); err != nil {
		t.Fatal(err)
	}

	if got := loadDotEnv(); got != path {
		t.Fatalf("loadDotEnv() = %q, want %q", got, path)
	}
	if got := os.Getenv("JBMON_SEED_FILE"); got != "/from/dotenv.yaml" {
		t.Errorf("JBMON_SEED_FILE = %q", got)
	}
	if got := os.Getenv("JBMON_CLI_PATH"); got != "/from/env/jboss-cli.sh" {
		t.Errorf("existing variable overridden: JBMON_CLI_PATH = %q", got)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	t.Setenv("JBMON_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	if got := loadDotEnv(); got != "" {
		t.Errorf("loadDotEnv() = %q, want empty", got)
	}
}
