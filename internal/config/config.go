package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath   = "VOSKSCRIBE_CONFIG"
	EnvModel        = "VOSKSCRIBE_MODEL"
	EnvModelDir     = "VOSKSCRIBE_MODEL_DIR"
	EnvAutoDownload = "VOSKSCRIBE_AUTO_DOWNLOAD"
	EnvNoProgress   = "VOSKSCRIBE_NO_PROGRESS"
	EnvLogVerbose   = "VOSKSCRIBE_LOG_VERBOSE"
	EnvLogJSON      = "VOSKSCRIBE_LOG_JSON"
)

type LogConfig struct {
	Verbose bool `yaml:"verbose"`
	JSON    bool `yaml:"json"`
}

type Config struct {
	// Model is a registry name or a model directory. It has no default.
	Model        string    `yaml:"model"`
	ModelDir     string    `yaml:"model_dir"`
	AutoDownload bool      `yaml:"auto_download"`
	NoProgress   bool      `yaml:"no_progress"`
	Log          LogConfig `yaml:"log"`
}

func Default() Config {
	return Config{}
}

// Load reads the YAML file at path, when given, and then applies VOSKSCRIBE_*
// environment overrides. An empty path falls back to $VOSKSCRIBE_CONFIG.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	overrideString(&cfg.Model, EnvModel)
	overrideString(&cfg.ModelDir, EnvModelDir)
	for _, o := range []struct {
		target *bool
		key    string
	}{
		{&cfg.AutoDownload, EnvAutoDownload},
		{&cfg.NoProgress, EnvNoProgress},
		{&cfg.Log.Verbose, EnvLogVerbose},
		{&cfg.Log.JSON, EnvLogJSON},
	} {
		if err := overrideBool(o.target, o.key); err != nil {
			return err
		}
	}
	return nil
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideBool(target *bool, envKey string) error {
	value, ok := os.LookupEnv(envKey)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", envKey, value, err)
	}
	*target = parsed
	return nil
}
