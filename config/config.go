// Package config provides configuration for the orchestrator.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the orchestrator configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Startup artifacts
	SchemaPath      string
	ToolServersPath string

	// Decision oracle (OpenAI-compatible endpoint)
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration

	// Commit gateway
	GatewayURL     string
	GatewayTimeout time.Duration

	// Bound on automatic supervisor/tool re-entries per user turn.
	MaxToolRounds int

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:        getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:     getEnv("DATABASE_URL", "file:orchestrator.db?cache=shared&mode=rwc"),
		SchemaPath:      getEnv("IBL_SCHEMA_PATH", "ibl_schema.json"),
		ToolServersPath: getEnv("TOOL_SERVERS_PATH", "tool_servers.json"),
		LLMBaseURL:      getEnv("LLM_BASE_URL", "http://localhost:4000"),
		LLMAPIKey:       getEnv("LLM_API_KEY", ""),
		LLMModel:        getEnv("LLM_MODEL", "gpt-4.1"),
		LLMTimeout:      time.Duration(getEnvInt("LLM_TIMEOUT_MS", 60000)) * time.Millisecond,
		GatewayURL:      getEnv("GATEWAY_URL", "http://localhost:9100"),
		GatewayTimeout:  time.Duration(getEnvInt("GATEWAY_TIMEOUT_MS", 30000)) * time.Millisecond,
		MaxToolRounds:   getEnvInt("MAX_TOOL_ROUNDS", 10),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
