// Package config loads the app's settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings of the serve and run commands.
type Config struct {
	AppID          int64         `yaml:"app_id"`
	PrivateKeyPath string        `yaml:"private_key_path"`
	WebhookSecret  string        `yaml:"webhook_secret"`
	APIURL         string        `yaml:"api_url"`
	Port           int           `yaml:"port"`
	HTTPTimeout    time.Duration `yaml:"http_timeout"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:        8080,
		HTTPTimeout: 30 * time.Second,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Load reads path (if non-empty) over the defaults, then applies environment
// overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("GITHUB_APP_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid GITHUB_APP_ID: %w", err)
		}
		c.AppID = id
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.Port = port
	}
	if v := getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
		}
		c.HTTPTimeout = d
	}
	c.PrivateKeyPath = getEnvOr(getenv, "GITHUB_PRIVATE_KEY_PATH", c.PrivateKeyPath)
	c.WebhookSecret = getEnvOr(getenv, "WEBHOOK_SECRET", c.WebhookSecret)
	c.APIURL = getEnvOr(getenv, "GITHUB_API_URL", c.APIURL)
	c.LogLevel = getEnvOr(getenv, "LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvOr(getenv, "LOG_FORMAT", c.LogFormat)
	return nil
}

func getEnvOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

// ValidateServe reports the settings the webhook server cannot start without.
func (c Config) ValidateServe() error {
	var errs []error
	if c.AppID == 0 {
		errs = append(errs, errors.New("github App ID required (app_id or GITHUB_APP_ID)"))
	}
	if c.PrivateKeyPath == "" {
		errs = append(errs, errors.New("private key path required (private_key_path or GITHUB_PRIVATE_KEY_PATH)"))
	}
	if c.WebhookSecret == "" {
		errs = append(errs, errors.New("webhook secret required (webhook_secret or WEBHOOK_SECRET)"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Port))
	}
	return errors.Join(errs...)
}

// PrivateKey reads the App's PEM private key.
func (c Config) PrivateKey() ([]byte, error) {
	key, err := os.ReadFile(c.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}
	return key, nil
}
