package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names. A .env file in the working directory is
// loaded first; variables already present in the environment win.
const (
	EnvBaseURL     = "STUDIRA_API_URL"
	EnvTimeout     = "STUDIRA_REQUEST_TIMEOUT"
	EnvSessionFile = "STUDIRA_SESSION_FILE"
	EnvLogLevel    = "STUDIRA_LOG_LEVEL"
)

func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if v := os.Getenv(EnvSessionFile); v != "" {
		cfg.SessionFile = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
}
