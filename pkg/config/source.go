package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// source resolves a key from the process environment first and the YAML
// config file second. Values from .env are loaded into the environment
// without overriding variables that are already set.
type source struct {
	file map[string]string
}

func newSource(configFile, dotEnvFile string) (*source, error) {
	if dotEnvFile != "" {
		if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", dotEnvFile, err)
		}
	}

	src := &source{file: map[string]string{}}
	if configFile == "" {
		configFile = os.Getenv(EnvConfigFile)
	}
	if configFile == "" {
		return src, nil
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	for k, v := range raw {
		src.file[strings.ToUpper(k)] = yamlScalar(v)
	}
	return src, nil
}

func yamlScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}

func (s *source) lookup(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return s.file[key]
}

func (s *source) getEnvStr(key, fallback string) string {
	if value := s.lookup(key); value != "" {
		return value
	}
	return fallback
}

func (s *source) getEnvNum(key string, fallback int) int {
	if value := s.lookup(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func (s *source) getEnvBool(key string, fallback bool) bool {
	if value := s.lookup(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func (s *source) getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := s.lookup(key); value != "" {
		if d, err := parseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (s *source) getEnvList(key string) []string {
	value := s.lookup(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseDuration extends time.ParseDuration with a day unit ("7d").
func parseDuration(value string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(value)
}
