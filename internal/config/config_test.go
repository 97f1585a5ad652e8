package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Database: DatabaseConfig{
			Path: "/data/soundcapsule.db",
		},
		Analytics: AnalyticsConfig{
			Timezone:            "UTC",
			RetentionWindowDays: 30,
			RetentionInterval:   24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_LogLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
		cfg := validConfig()
		cfg.Logger.Level = level
		assert.NoError(t, cfg.Validate(), "level %q", level)
	}

	cfg := validConfig()
	cfg.Logger.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidate_Timezone(t *testing.T) {
	cfg := validConfig()
	cfg.Analytics.Timezone = "Asia/Jakarta"
	if err := cfg.Validate(); err != nil {
		t.Skipf("tzdata not available: %v", err)
	}

	cfg.Analytics.Timezone = "Not/AZone"
	assert.Error(t, cfg.Validate())
}

func TestValidate_Retention(t *testing.T) {
	cfg := validConfig()
	cfg.Analytics.RetentionWindowDays = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Analytics.RetentionInterval = -time.Hour
	assert.Error(t, cfg.Validate())
}

func TestValidate_RateLimit(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.RequestsPerSecond = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.RateLimit.Burst = -1
	assert.Error(t, cfg.Validate())
}

func TestLocation(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name        string
		path        string
		defaultPath string
		want        string
	}{
		{"empty uses default", "", "/default/db", "/default/db"},
		{"tilde expands", "~/data/db", "", filepath.Join(home, "data", "db")},
		{"absolute unchanged", "/var/lib/db", "", "/var/lib/db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandPath(tt.path, tt.defaultPath)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("SOUNDCAPSULE_TEST_KEY", "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", "SOUNDCAPSULE_TEST_KEY", "default"))
	assert.Equal(t, "from-env", getConfigValue("", "SOUNDCAPSULE_TEST_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("", "SOUNDCAPSULE_UNSET_KEY", "default"))
}

func TestGetIntConfigValue(t *testing.T) {
	assert.Equal(t, 45, getIntConfigValue("45", "UNUSED", 30))
	assert.Equal(t, 30, getIntConfigValue("not-a-number", "UNUSED", 30))
	assert.Equal(t, 30, getIntConfigValue("", "SOUNDCAPSULE_UNSET_KEY", 30))
}

func TestGetFloatConfigValue(t *testing.T) {
	assert.Equal(t, 2.5, getFloatConfigValue("2.5", "UNUSED", 20))
	assert.Equal(t, 20.0, getFloatConfigValue("", "SOUNDCAPSULE_UNSET_KEY", 20))
}

func TestParseDurationValue(t *testing.T) {
	d, err := parseDurationValue("90s", "UNUSED", "15s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	d, err = parseDurationValue("", "SOUNDCAPSULE_UNSET_KEY", "24h")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, d)

	_, err = parseDurationValue("soon", "UNUSED", "15s")
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "# comment\nSOUNDCAPSULE_ENVFILE_KEY=hello\nQUOTED=\"world\"\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o600))

	t.Cleanup(func() {
		os.Unsetenv("SOUNDCAPSULE_ENVFILE_KEY")
		os.Unsetenv("QUOTED")
	})

	require.NoError(t, loadEnvFile(envPath))
	assert.Equal(t, "hello", os.Getenv("SOUNDCAPSULE_ENVFILE_KEY"))
	assert.Equal(t, "world", os.Getenv("QUOTED"))
}
