package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dativebase/old/pkg/observability"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig
	Instance      InstanceConfig
	Store         StoreConfig
	Cache         CacheConfig
	Tools         ToolsConfig
	Observability ObservabilityConfig
	Scheduler     SchedulerConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes).
	HealthPort string
}

// InstanceConfig holds the per-instance settings: instance name,
// readonly mode, and the on-disk layout for derived artifacts.
type InstanceConfig struct {
	Name                        string
	Readonly                    bool
	PermanentStore              string
	CreateReducedSizeFileCopies bool
	PreferredLossyAudioFormat   string
	EmptyDatabase               bool
	AddLanguageData             bool
}

// StoreConfig selects and configures the Resource Store backend.
type StoreConfig struct {
	Type        string // "postgres" or "sqlite"
	PostgresURL string
	SQLitePath  string
}

// CacheConfig configures the Parser Orchestrator's parse cache.
type CacheConfig struct {
	Enabled        bool
	RedisURL       string
	RedisPassword  string
	RedisDB        int
	ParseCacheSize int
}

// ToolsConfig names the external toolkit binaries and the subprocess
// timeout applied to each invocation.
type ToolsConfig struct {
	FomaPath          string
	FlookupPath       string
	Tgrep2Path        string
	EstimateNgramPath string
	FfmpegPath        string
	Timeout           time.Duration
}

// SchedulerConfig controls the two administrator-invoked background jobs
// (§4.9 morpheme reference rebuild, §4.11 backup retention) run on a cron
// schedule rather than triggered per-request.
type SchedulerConfig struct {
	Enabled                 bool
	MorphemeRebuildSchedule string
	BackupSweepSchedule     string
	BackupRetention         time.Duration
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	LogLevel           observability.LogLevel
	MetricsEnabled     bool
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from an optional YAML overlay file
// (OLD_CONFIG_FILE) followed by environment variables, which always win.
func LoadConfig() (*Config, error) {
	if path := getEnv("OLD_CONFIG_FILE", ""); path != "" {
		if err := applyFileOverlay(path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Server:        loadServerConfig(),
		Instance:      loadInstanceConfig(),
		Store:         loadStoreConfig(),
		Cache:         loadCacheConfig(),
		Tools:         loadToolsConfig(),
		Observability: loadObservabilityConfig(),
		Scheduler:     loadSchedulerConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("OLD_HOST", "0.0.0.0"),
		Port:            getEnv("OLD_PORT", "8080"),
		ReadTimeout:     getEnvDuration("OLD_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("OLD_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("OLD_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("OLD_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("OLD_HEALTH_PORT", "9090"),
	}
}

func loadInstanceConfig() InstanceConfig {
	return InstanceConfig{
		Name:                        getEnv("OLD_NAME", "old"),
		Readonly:                    getEnvBool("OLD_READONLY", false),
		PermanentStore:              getEnv("OLD_PERMANENT_STORE", "/var/old/store"),
		CreateReducedSizeFileCopies: getEnvBool("OLD_CREATE_REDUCED_SIZE_FILE_COPIES", true),
		PreferredLossyAudioFormat:   getEnv("OLD_PREFERRED_LOSSY_AUDIO_FORMAT", "ogg"),
		EmptyDatabase:               getEnvBool("OLD_EMPTY_DATABASE", false),
		AddLanguageData:             getEnvBool("OLD_ADD_LANGUAGE_DATA", false),
	}
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		Type:        getEnv("OLD_STORE_TYPE", "postgres"),
		PostgresURL: getEnv("OLD_POSTGRES_URL", ""),
		SQLitePath:  getEnv("OLD_SQLITE_PATH", ""),
	}
}

func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:        getEnvBool("OLD_CACHE_ENABLED", true),
		RedisURL:       getEnv("OLD_REDIS_URL", ""),
		RedisPassword:  getEnv("OLD_REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("OLD_REDIS_DB", 0),
		ParseCacheSize: getEnvInt("OLD_PARSE_CACHE_SIZE", 1024),
	}
}

func loadToolsConfig() ToolsConfig {
	return ToolsConfig{
		FomaPath:          getEnv("OLD_FOMA_PATH", "foma"),
		FlookupPath:       getEnv("OLD_FLOOKUP_PATH", "flookup"),
		Tgrep2Path:        getEnv("OLD_TGREP2_PATH", "tgrep2"),
		EstimateNgramPath: getEnv("OLD_ESTIMATE_NGRAM_PATH", "estimate-ngram"),
		FfmpegPath:        getEnv("OLD_FFMPEG_PATH", "ffmpeg"),
		Timeout:           getEnvDuration("OLD_TOOL_TIMEOUT", 30*time.Second),
	}
}

func loadSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:                 getEnvBool("OLD_SCHEDULER_ENABLED", true),
		MorphemeRebuildSchedule: getEnv("OLD_MORPHEME_REBUILD_SCHEDULE", "0 3 * * *"),
		BackupSweepSchedule:     getEnv("OLD_BACKUP_SWEEP_SCHEDULE", "30 3 * * 0"),
		BackupRetention:         getEnvDuration("OLD_BACKUP_RETENTION", 365*24*time.Hour),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("OLD_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("OLD_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("OLD_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("OLD_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("OLD_OTEL_SERVICE_NAME", "old"),
		OTelServiceVersion: getEnv("OLD_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("OLD_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	switch c.Store.Type {
	case "postgres":
		if c.Store.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres store")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for sqlite store")
		}
	default:
		return fmt.Errorf("invalid store type: %s (must be postgres or sqlite)", c.Store.Type)
	}

	if c.Instance.PermanentStore == "" {
		return fmt.Errorf("permanent store path is required")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
