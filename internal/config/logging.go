package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/pinpanel/internal/logging"
)

// LoadLoggingConfig loads logging configuration from a TOML config file.
// Returns default config if file doesn't exist or can't be parsed.
//
//	[logging]
//	level = "info"
//	format = "text"
//	gpio = "debug"   # any other string key is a module level
func LoadLoggingConfig(configPath string) logging.Config {
	if configPath == "" {
		return defaultLoggingConfig()
	}
	cfg, err := ReloadLoggingConfig(configPath)
	if err != nil {
		return defaultLoggingConfig()
	}
	return cfg
}

// ReloadLoggingConfig is the Watcher loader for the logging section.
// Unlike LoadLoggingConfig it reports unreadable or invalid files.
func ReloadLoggingConfig(configPath string) (logging.Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return logging.Config{}, err
	}

	var rawConfig struct {
		Logging map[string]any `toml:"logging"`
	}
	if err := toml.Unmarshal(data, &rawConfig); err != nil {
		return logging.Config{}, err
	}

	cfg := defaultLoggingConfig()
	// Extract level and format, rest are module-specific levels
	for key, value := range rawConfig.Logging {
		str, ok := value.(string)
		if !ok {
			continue
		}
		switch key {
		case "level":
			cfg.Level = str
		case "format":
			cfg.Format = str
		default:
			cfg.Modules[key] = str
		}
	}
	return cfg, nil
}

func defaultLoggingConfig() logging.Config {
	return logging.Config{
		Level:   "info",
		Format:  "text",
		Modules: make(map[string]string),
	}
}
