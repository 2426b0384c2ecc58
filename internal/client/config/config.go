// Package config holds runtime settings for the Studira CLI.
//
// Sources are applied in order, later ones winning:
//  1. built-in defaults
//  2. YAML config file (-c/-config flag, else ~/.config/studira/config.yaml)
//  3. environment variables (a .env file in the working directory is loaded
//     first, existing variables are not overridden)
//  4. command-line flags
package config

import (
	"os"
	"path/filepath"
	"time"
)

const appDirName = "studira"

// Config is the resolved runtime configuration.
//
// Fields:
//   - BaseURL: root of the backend API including the fixed prefix,
//     e.g. "http://localhost:5000/api". Read once at startup.
//   - RequestTimeout: upper bound on any single API call.
//   - SessionFile: where the persisted session (token + user) lives.
//   - LogLevel: debug | info | warn | error.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	SessionFile    string
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults for local development.
func (c *Config) LoadDefaults() {
	c.BaseURL = "http://localhost:5000/api"
	c.RequestTimeout = 30 * time.Second
	c.SessionFile = filepath.Join(userConfigDir(), "session.json")
	c.LogLevel = "info"
}

// LoadConfig constructs a Config applying every source in precedence order.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseYaml(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// userConfigDir is ~/.config/studira, falling back to the working directory
// when the home directory cannot be resolved.
func userConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + appDirName
	}
	return filepath.Join(home, ".config", appDirName)
}
