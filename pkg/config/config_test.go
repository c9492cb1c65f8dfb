package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dativebase/old/pkg/observability"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		original, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, original)
			} else {
				os.Unsetenv(k)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	clearEnv(t, "TEST_VAR")
	assert.Equal(t, "default", getEnv("TEST_VAR", "default"))
	os.Setenv("TEST_VAR", "custom")
	assert.Equal(t, "custom", getEnv("TEST_VAR", "default"))
}

func TestGetEnvBool(t *testing.T) {
	clearEnv(t, "TEST_BOOL")
	assert.True(t, getEnvBool("TEST_BOOL", true))
	os.Setenv("TEST_BOOL", "false")
	assert.False(t, getEnvBool("TEST_BOOL", true))
	os.Setenv("TEST_BOOL", "1")
	assert.True(t, getEnvBool("TEST_BOOL", false))
}

func TestGetEnvInt(t *testing.T) {
	clearEnv(t, "TEST_INT")
	assert.Equal(t, 10, getEnvInt("TEST_INT", 10))
	os.Setenv("TEST_INT", "42")
	assert.Equal(t, 42, getEnvInt("TEST_INT", 10))
	os.Setenv("TEST_INT", "not-a-number")
	assert.Equal(t, 10, getEnvInt("TEST_INT", 10))
}

func TestGetEnvDuration(t *testing.T) {
	clearEnv(t, "TEST_DURATION")
	assert.Equal(t, 10*time.Second, getEnvDuration("TEST_DURATION", 10*time.Second))
	os.Setenv("TEST_DURATION", "30s")
	assert.Equal(t, 30*time.Second, getEnvDuration("TEST_DURATION", 10*time.Second))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, observability.DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, observability.InfoLevel, parseLogLevel("info"))
	assert.Equal(t, observability.WarnLevel, parseLogLevel("warning"))
	assert.Equal(t, observability.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, observability.InfoLevel, parseLogLevel("bogus"))
}

func TestLoadInstanceConfigDefaults(t *testing.T) {
	clearEnv(t, "OLD_NAME", "OLD_READONLY", "OLD_PERMANENT_STORE")
	cfg := loadInstanceConfig()
	assert.Equal(t, "old", cfg.Name)
	assert.False(t, cfg.Readonly)
	assert.Equal(t, "/var/old/store", cfg.PermanentStore)
}

func TestLoadInstanceConfigReadonly(t *testing.T) {
	clearEnv(t, "OLD_READONLY")
	os.Setenv("OLD_READONLY", "1")
	assert.True(t, loadInstanceConfig().Readonly)
}

func TestLoadSchedulerConfigDefaults(t *testing.T) {
	clearEnv(t, "OLD_SCHEDULER_ENABLED", "OLD_MORPHEME_REBUILD_SCHEDULE",
		"OLD_BACKUP_SWEEP_SCHEDULE", "OLD_BACKUP_RETENTION")
	cfg := loadSchedulerConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "0 3 * * *", cfg.MorphemeRebuildSchedule)
	assert.Equal(t, "30 3 * * 0", cfg.BackupSweepSchedule)
	assert.Equal(t, 365*24*time.Hour, cfg.BackupRetention)
}

func TestValidateRejectsMismatchedPorts(t *testing.T) {
	cfg := Config{
		Server: ServerConfig{Port: "8080", HealthPort: "8080"},
		Store:  StoreConfig{Type: "sqlite", SQLitePath: "/tmp/old.db"},
		Instance: InstanceConfig{PermanentStore: "/tmp"},
	}
	err := cfg.Validate()
	assert.EqualError(t, err, "server port and health port must be different")
}

func TestValidateRejectsUnknownStoreType(t *testing.T) {
	cfg := Config{
		Server:   ServerConfig{Port: "8080", HealthPort: "9090"},
		Store:    StoreConfig{Type: "mongodb"},
		Instance: InstanceConfig{PermanentStore: "/tmp"},
	}
	err := cfg.Validate()
	assert.ErrorContains(t, err, "invalid store type")
}

func TestValidateRequiresPostgresURL(t *testing.T) {
	cfg := Config{
		Server:   ServerConfig{Port: "8080", HealthPort: "9090"},
		Store:    StoreConfig{Type: "postgres"},
		Instance: InstanceConfig{PermanentStore: "/tmp"},
	}
	err := cfg.Validate()
	assert.ErrorContains(t, err, "postgres URL is required")
}

func TestValidateRequiresPermanentStore(t *testing.T) {
	cfg := Config{
		Server: ServerConfig{Port: "8080", HealthPort: "9090"},
		Store:  StoreConfig{Type: "sqlite", SQLitePath: "/tmp/old.db"},
	}
	err := cfg.Validate()
	assert.ErrorContains(t, err, "permanent store path is required")
}

func TestValidateOtelRequiresEndpointAndServiceName(t *testing.T) {
	cfg := Config{
		Server:        ServerConfig{Port: "8080", HealthPort: "9090"},
		Store:         StoreConfig{Type: "sqlite", SQLitePath: "/tmp/old.db"},
		Instance:      InstanceConfig{PermanentStore: "/tmp"},
		Observability: ObservabilityConfig{OTelEnabled: true},
	}
	assert.ErrorContains(t, cfg.Validate(), "OpenTelemetry endpoint is required")

	cfg.Observability.OTelEndpoint = "localhost:4317"
	assert.ErrorContains(t, cfg.Validate(), "OpenTelemetry service name is required")

	cfg.Observability.OTelServiceName = "old"
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigValidSQLite(t *testing.T) {
	clearEnv(t, "OLD_PORT", "OLD_HEALTH_PORT", "OLD_STORE_TYPE", "OLD_SQLITE_PATH", "OLD_PERMANENT_STORE")
	os.Setenv("OLD_PORT", "8080")
	os.Setenv("OLD_HEALTH_PORT", "9090")
	os.Setenv("OLD_STORE_TYPE", "sqlite")
	os.Setenv("OLD_SQLITE_PATH", "/tmp/old.db")
	os.Setenv("OLD_PERMANENT_STORE", "/tmp/old-store")

	cfg, err := LoadConfig()
	assert.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "sqlite", cfg.Store.Type)
}

func TestLoadConfigInvalidSamePorts(t *testing.T) {
	clearEnv(t, "OLD_PORT", "OLD_HEALTH_PORT")
	os.Setenv("OLD_PORT", "8080")
	os.Setenv("OLD_HEALTH_PORT", "8080")

	_, err := LoadConfig()
	assert.Error(t, err)
}
