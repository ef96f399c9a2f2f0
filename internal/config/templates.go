package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Template renders DefaultConfig as a commented TOML document.
func Template() (string, error) {
	data, err := toml.Marshal(toFile(DefaultConfig()))
	if err != nil {
		return "", fmt.Errorf("config template: %w", err)
	}
	return string(data), nil
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

func toFile(cfg Config) fileConfig {
	origins := cfg.Monitor.CorsOrigins
	if origins == nil {
		origins = []string{}
	}
	return fileConfig{
		Device:       cfg.Device,
		Baud:         cfg.Baud,
		Settle:       cfg.Settle.String(),
		OpenAttempts: cfg.OpenAttempts,
		MaxLine:      cfg.MaxLine,
		StrictLoad:   cfg.StrictLoad,
		EOFPolicy:    string(cfg.EOFPolicy),
		Capture:      cfg.Capture,
		Color:        string(cfg.Color),
		Monitor: fileMonitor{
			Addr:        cfg.Monitor.Addr,
			CorsOrigins: origins,
		},
	}
}
