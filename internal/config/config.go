// Package config provides configuration loading for codesift surfaces.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug  bool         `yaml:"debug"`
	Server ServerConfig `yaml:"server"`
	Search SearchConfig `yaml:"search"`
	Neural NeuralConfig `yaml:"neural"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SearchConfig holds pipeline defaults applied when a request leaves a knob
// unset.
type SearchConfig struct {
	Workers         int           `yaml:"workers"`
	Timeout         time.Duration `yaml:"timeout"`
	Algorithm       string        `yaml:"algorithm"`
	MergeThreshold  *int          `yaml:"merge_threshold"` // 0 is a real value, so absent must stay distinguishable
	MaxResults      int           `yaml:"max_results"`
	MaxBytes        int           `yaml:"max_bytes"`
	MaxTokens       int           `yaml:"max_tokens"`
	SessionCapacity int           `yaml:"session_capacity"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	IgnorePatterns  []string      `yaml:"ignore_patterns"`
}

// NeuralConfig holds cross-encoder reranker settings. An empty model path
// disables the capability; searches then run lexical-only.
type NeuralConfig struct {
	ModelPath string `yaml:"model_path"`
	MaxLength int    `yaml:"max_length"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, applies defaults and
// environment overrides, and expands the model path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)
	cfg.Neural.ModelPath = expandPath(cfg.Neural.ModelPath, filepath.Dir(path))

	return &cfg, nil
}

// FromEnv builds a config from defaults plus environment overrides, for
// running without a config file.
func FromEnv() *Config {
	cfg := Default()
	applyEnv(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Search.Timeout <= 0 {
		cfg.Search.Timeout = 30 * time.Second
	}
	if cfg.Search.Algorithm == "" {
		cfg.Search.Algorithm = "bm25"
	}
	if cfg.Search.MergeThreshold == nil {
		def := -1 // engine default
		cfg.Search.MergeThreshold = &def
	}
	if cfg.Search.SessionCapacity <= 0 {
		cfg.Search.SessionCapacity = 1000
	}
	if cfg.Search.SessionTTL <= 0 {
		cfg.Search.SessionTTL = cfg.Search.Timeout
	}
	if cfg.Neural.MaxLength <= 0 {
		cfg.Neural.MaxLength = 512
	}
}

// applyEnv overrides select fields from CODESIFT_* environment variables,
// which godotenv may have populated from a .env file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CODESIFT_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
	if v := os.Getenv("CODESIFT_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CODESIFT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("CODESIFT_ALGORITHM"); v != "" {
		cfg.Search.Algorithm = v
	}
	if v := os.Getenv("CODESIFT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Search.Timeout = d
		}
	}
	if v := os.Getenv("CODESIFT_MODEL_PATH"); v != "" {
		cfg.Neural.ModelPath = v
	}
}

// expandPath converts a relative path to absolute. Paths starting with "./"
// are relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
