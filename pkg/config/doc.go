// Package config provides application configuration management from
// environment variables, with an optional YAML instance-file overlay
// applied before the environment.
//
// # Overview
//
// This package loads and validates configuration with sensible defaults
// for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	OLD_HOST="0.0.0.0"
//	OLD_PORT="8080"
//	OLD_HEALTH_PORT="8081"
//	OLD_READ_TIMEOUT="30s"
//	OLD_WRITE_TIMEOUT="30s"
//
// Instance settings:
//
//	OLD_NAME="blackfoot"
//	OLD_READONLY="0"
//	OLD_PERMANENT_STORE="/var/old/data"
//	OLD_CREATE_REDUCED_SIZE_FILE_COPIES="true"
//	OLD_PREFERRED_LOSSY_AUDIO_FORMAT="ogg"
//	OLD_EMPTY_DATABASE="false"
//	OLD_ADD_LANGUAGE_DATA="false"
//
// Store settings:
//
//	OLD_STORE_TYPE="postgres"  # postgres, sqlite
//	OLD_POSTGRES_URL="postgres://localhost/old"
//	OLD_SQLITE_PATH="/var/old/data/old.db"
//
// Cache settings:
//
//	OLD_CACHE_ENABLED="true"
//	OLD_REDIS_URL="localhost:6379"  # host:port
//	OLD_PARSE_CACHE_SIZE="1024"
//
// External tool paths:
//
//	OLD_FOMA_PATH="foma"
//	OLD_FLOOKUP_PATH="flookup"
//	OLD_TGREP2_PATH="tgrep2"
//	OLD_ESTIMATE_NGRAM_PATH="estimate-ngram"
//	OLD_FFMPEG_PATH="ffmpeg"
//	OLD_TOOL_TIMEOUT="30s"
//
// Observability settings:
//
//	OLD_LOG_LEVEL="info"  # debug, info, warn, error
//	OLD_METRICS_ENABLED="true"
//	OLD_OTEL_ENABLED="true"
//	OLD_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Related Packages
//
//   - pkg/store: uses Store settings
//   - pkg/artifacts: uses PermanentStore
//   - pkg/toolkit: uses the tool paths and Tools.Timeout
//   - pkg/observability: uses Observability settings
package config
