package config

import (
	"log/slog"
	"os"
	"strings"
)

// Config holds service configuration.
type Config struct {
	LogLevel     string
	DatabaseURL  string
	SQLitePath   string
	RedisURL     string
	LLMAPIKey    string
	LLMModel     string
	LLMBaseURL   string
	TemplatesDir string
}

// Load loads configuration from environment variables. DatabaseURL and
// SQLitePath have no defaults: with neither set, state stays in memory.
func Load() *Config {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	templatesDir := os.Getenv("TEMPLATES_DIR")
	if templatesDir == "" {
		templatesDir = "templates"
	}

	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &Config{
		LogLevel:     logLevel,
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SQLitePath:   os.Getenv("SQLITE_PATH"),
		RedisURL:     os.Getenv("REDIS_URL"),
		LLMAPIKey:    os.Getenv("LLM_API_KEY"),
		LLMModel:     model,
		LLMBaseURL:   os.Getenv("LLM_BASE_URL"),
		TemplatesDir: templatesDir,
	}
}

// SlogLevel maps the configured level name onto a slog level, defaulting to
// info for anything unrecognized.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
