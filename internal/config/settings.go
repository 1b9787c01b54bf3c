package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings are the startup values of a run. They are read once and never reloaded.
type Settings struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Path        string        `yaml:"path"`
	Requests    int           `yaml:"requests"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	LogLevel    string        `yaml:"logLevel"`
	Output      string        `yaml:"output"` // text, json, yaml
}

// DefaultSettings returns the values used when nothing else is configured
func DefaultSettings() Settings {
	return Settings{
		Host:        "127.0.0.1",
		Port:        8080,
		Path:        "/",
		Requests:    10000,
		Concurrency: 50,
		Timeout:     5 * time.Second,
		LogLevel:    "warn",
		Output:      "text",
	}
}

// LoadSettings reads path over the defaults. A missing file is not an error.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("invalid settings file %s: %w", path, err)
	}
	return settings, nil
}

// Validate checks the values a settings file can carry
func (s Settings) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535")
	}
	if s.Requests < 0 {
		return fmt.Errorf("requests cannot be negative")
	}
	if s.Concurrency < 0 {
		return fmt.Errorf("concurrency cannot be negative")
	}
	if s.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	switch s.Output {
	case "", "text", "json", "yaml":
	default:
		return fmt.Errorf("output must be text, json or yaml")
	}
	return nil
}

// ParseTimeout accepts a Go duration ("500ms", "2s") or a bare number of seconds ("2.5")
func ParseTimeout(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q (use a duration such as 5s or a number of seconds)", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
