package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// source resolves a setting from the environment first, then the optional config file
type source struct {
	file map[string]string
}

func (s *source) get(name, defaultValue string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	if s != nil {
		if value, ok := s.file[name]; ok && value != "" {
			return value
		}
	}
	return defaultValue
}

// readFile parses a flat YAML document of NAME: value pairs
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("failed to parse config: %s must be a scalar", k)
		case nil:
			continue
		}
		values[k] = fmt.Sprint(v)
	}
	return values, nil
}

// ParseDuration parses a duration string with a fallback default.
func ParseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
