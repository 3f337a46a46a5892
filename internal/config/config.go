package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Bitrix CRM inbound-webhook channel, e.g.
	// https://example.bitrix24.com.br/rest/<user>/<token>
	BitrixWebhookURL string

	// Belle Software scheduling API base URL.
	BelleBaseURL string

	// BellePayloadVersion selects the booking payload shape: "legacy" is the
	// original flat form, "v2" carries per-service durations.
	BellePayloadVersion string

	GatewayTimeout time.Duration

	// MappingFile optionally overrides the embedded translation tables.
	MappingFile string

	DefaultDurationMins int
	DefaultSlotMins     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:                getEnv("PORT", "8000"),
		Env:                 getEnv("ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		BitrixWebhookURL:    strings.TrimRight(getEnv("BITRIX_WEBHOOK_URL", ""), "/"),
		BelleBaseURL:        strings.TrimRight(getEnv("BELLE_BASE_URL", ""), "/"),
		BellePayloadVersion: strings.ToLower(getEnv("BELLE_PAYLOAD_VERSION", "v2")),
		GatewayTimeout:      getEnvAsDuration("GATEWAY_TIMEOUT", 30*time.Second),
		MappingFile:         getEnv("MAPPING_FILE", ""),
		DefaultDurationMins: getEnvAsInt("DEFAULT_DURATION_MINS", 30),
		DefaultSlotMins:     getEnvAsInt("DEFAULT_SLOT_MINS", 15),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
