package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultBaseURL        = "http://localhost:8000/api/v1"
	defaultRequestTimeout = 30 * time.Second
	defaultDirName        = ".loom"
)

type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	DataDir        string
}

type fileConfig struct {
	APIBaseURL     string `yaml:"api_base_url"`
	RequestTimeout string `yaml:"request_timeout"`
	DataDir        string `yaml:"data_dir"`
}

func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return &Config{
		APIBaseURL:     defaultBaseURL,
		RequestTimeout: defaultRequestTimeout,
		DataDir:        filepath.Join(home, defaultDirName),
	}, nil
}

// Load reads the optional config file under the data directory and applies
// environment overrides on top. A missing file is not an error.
func Load() (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(cfg.DataDir, "config.yaml")
	data, err := os.ReadFile(path)
	if err == nil {
		if err := applyFile(cfg, data); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyFile(cfg *Config, data []byte) error {
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	if file.APIBaseURL != "" {
		cfg.APIBaseURL = file.APIBaseURL
	}
	if file.DataDir != "" {
		cfg.DataDir = file.DataDir
	}
	if file.RequestTimeout != "" {
		timeout, err := time.ParseDuration(file.RequestTimeout)
		if err != nil {
			return fmt.Errorf("invalid request_timeout: %w", err)
		}
		cfg.RequestTimeout = timeout
	}

	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LOOM_API_BASE_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("LOOM_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("LOOM_REQUEST_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = timeout
		}
	}
}
