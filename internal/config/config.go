// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv        string
	Port          string
	DatabaseURL   string
	RedisURL      string
	SessionSecret string

	// Text-generation upstream (OpenAI-compatible chat completions).
	// Empty API key switches the assistant to the built-in simulator.
	DeepSeekAPIKey string
	DeepSeekAPIURL string
	DeepSeekModel  string

	// Text-to-speech upstream. Empty API key switches to the simulator.
	TTSAPIKey string
	TTSAPIURL string

	AIReplyTimeout  time.Duration
	CommentInterval time.Duration
	AnalyzeWorkers  int

	// Initial admin account seeded on an empty database.
	AdminUsername string
	AdminPassword string

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379"),
		SessionSecret:  getEnv("SESSION_SECRET", ""),
		DeepSeekAPIKey: getEnv("DEEPSEEK_API_KEY", ""),
		DeepSeekAPIURL: getEnv("DEEPSEEK_API_URL", "https://api.deepseek.com/v1/chat/completions"),
		DeepSeekModel:  getEnv("DEEPSEEK_MODEL", "deepseek-chat"),
		TTSAPIKey:      getEnv("TTS_API_KEY", ""),
		TTSAPIURL:      getEnv("TTS_API_URL", ""),
		AdminUsername:  getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", "admin"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if cfg.AppEnv == "production" && cfg.AdminPassword == "admin" {
		return nil, fmt.Errorf("ADMIN_PASSWORD must be set in production")
	}

	timeoutSecs, err := getEnvInt("AI_REPLY_TIMEOUT", 10)
	if err != nil {
		return nil, err
	}
	cfg.AIReplyTimeout = time.Duration(timeoutSecs) * time.Second

	intervalSecs, err := getEnvInt("COMMENT_FETCH_INTERVAL", 5)
	if err != nil {
		return nil, err
	}
	if intervalSecs < 1 {
		return nil, fmt.Errorf("COMMENT_FETCH_INTERVAL must be at least 1")
	}
	cfg.CommentInterval = time.Duration(intervalSecs) * time.Second

	workers, err := getEnvInt("ANALYZE_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		return nil, fmt.Errorf("ANALYZE_WORKERS must be at least 1")
	}
	cfg.AnalyzeWorkers = workers

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
