package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()
}

// XP modes
const (
	XPModeComputed  = "computed"
	XPModeNarrative = "narrative"
)

type Config struct {
	// Required
	AnthropicAPIKey     string
	CalendarEndpointURL string

	// Google Calendar (remote calendar service)
	GoogleCredentialsFile string
	GoogleTokenFile       string

	// Optional with defaults
	Timezone          string
	ClaudeModel       string
	ClaudeTemperature float64
	XPMode            string
	HTTPPort          int
	CalendarAPIPort   int
	DBPath            string
	WorkflowTimeout   time.Duration
	CalendarTimeout   time.Duration
	LogLevel          string
	DevMode           bool

	// Email notifications (optional)
	ResendAPIKey string
	EmailFrom    string
	NotifyEmail  string
}

func LoadFromEnv() *Config {
	cfg := &Config{
		// Required
		AnthropicAPIKey:     os.Getenv("ANTHROPIC_API_KEY"),
		CalendarEndpointURL: os.Getenv("TASKQUEST_CALENDAR_ENDPOINT_URL"),

		GoogleCredentialsFile: getEnvOrDefault("GOOGLE_CREDENTIALS_FILE", "./credentials.json"),
		GoogleTokenFile:       getEnvOrDefault("GOOGLE_TOKEN_FILE", "./token.json"),

		// Optional with defaults
		Timezone:          getEnvOrDefault("TASKQUEST_TIMEZONE", "Asia/Kolkata"),
		ClaudeModel:       getEnvOrDefault("TASKQUEST_CLAUDE_MODEL", "claude-sonnet-4-20250514"),
		ClaudeTemperature: getEnvAsFloatOrDefault("TASKQUEST_CLAUDE_TEMPERATURE", 0.1),
		XPMode:            getEnvOrDefault("TASKQUEST_XP_MODE", XPModeComputed),
		HTTPPort:          getEnvAsIntOrDefault("TASKQUEST_HTTP_PORT", 8080),
		CalendarAPIPort:   getEnvAsIntOrDefault("TASKQUEST_CALENDAR_API_PORT", 5000),
		DBPath:            getEnvOrDefault("TASKQUEST_DB_PATH", "./taskquest.db"),
		WorkflowTimeout:   getEnvAsDurationOrDefault("TASKQUEST_WORKFLOW_TIMEOUT", 90*time.Second),
		CalendarTimeout:   getEnvAsDurationOrDefault("TASKQUEST_CALENDAR_TIMEOUT", 30*time.Second),
		LogLevel:          getEnvOrDefault("TASKQUEST_LOG_LEVEL", "info"),
		DevMode:           getEnvAsBoolOrDefault("TASKQUEST_DEV_MODE", false),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom:    getEnvOrDefault("TASKQUEST_EMAIL_FROM", "TaskQuest <quests@resend.dev>"),
		NotifyEmail:  os.Getenv("TASKQUEST_NOTIFY_EMAIL"),
	}

	if cfg.XPMode != XPModeNarrative {
		cfg.XPMode = XPModeComputed
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvAsDurationOrDefault accepts Go durations ("45s") or plain seconds ("45").
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
