package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/studira/studira/internal/flagx"
)

// yamlConfig is a DTO used exclusively for YAML unmarshalling. The timeout
// is a string like "30s" so config files stay readable; it is parsed into
// the runtime time.Duration when copied over.
type yamlConfig struct {
	BaseURL        string `yaml:"api_url"`
	RequestTimeout string `yaml:"request_timeout"`
	SessionFile    string `yaml:"session_file"`
	LogLevel       string `yaml:"log_level"`
}

// parseYaml overlays cfg with values from a YAML file.
//
// Lookup order for the file path:
//  1. -c / -config command-line flag.
//  2. ~/.config/studira/config.yaml, if it exists.
//
// A missing default file is fine; an explicitly named file that cannot be
// read or parsed panics, since running with silently wrong settings is
// worse than failing fast.
func parseYaml(cfg *Config) {
	path := flagx.ConfigFileFlag()
	explicit := path != ""
	if !explicit {
		path = filepath.Join(userConfigDir(), "config.yaml")
		if _, err := os.Stat(path); err != nil {
			return
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if explicit {
			panic(err)
		}
		return
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		panic(err)
	}
	applyYaml(cfg, &yc)
}

func applyYaml(cfg *Config, yc *yamlConfig) {
	if yc.BaseURL != "" {
		cfg.BaseURL = yc.BaseURL
	}
	if yc.RequestTimeout != "" {
		if d, err := time.ParseDuration(yc.RequestTimeout); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if yc.SessionFile != "" {
		cfg.SessionFile = yc.SessionFile
	}
	if yc.LogLevel != "" {
		cfg.LogLevel = yc.LogLevel
	}
}
