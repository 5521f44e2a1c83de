package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Defaults point at a backend running on the local machine
const (
	DefaultWSURL           = "ws://localhost:8000/ws"
	DefaultAPIURL          = "http://127.0.0.1:8000"
	DefaultReconnectDelay  = 3 * time.Second
	DefaultBannerHideDelay = 3 * time.Second
	DefaultRequestTimeout  = 10 * time.Second
)

// Environment variables that override the config file
const (
	EnvConfigFile        = "FOCUSAGENT_CONFIG"
	EnvWSURL             = "FOCUSAGENT_WS_URL"
	EnvAPIURL            = "FOCUSAGENT_API_URL"
	EnvReconnectDelay    = "FOCUSAGENT_RECONNECT_DELAY"
	EnvReconnectMaxDelay = "FOCUSAGENT_RECONNECT_MAX_DELAY"
	EnvBannerHideDelay   = "FOCUSAGENT_BANNER_HIDE_DELAY"
	EnvRequestTimeout    = "FOCUSAGENT_REQUEST_TIMEOUT"
	EnvDev               = "FOCUSAGENT_DEV"
	EnvLogFile           = "FOCUSAGENT_LOG_FILE"
)

// Config holds everything the client needs to reach the backend
type Config struct {
	WSURL             string        `yaml:"ws_url"`
	APIURL            string        `yaml:"api_url"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	ReconnectMaxDelay time.Duration `yaml:"reconnect_max_delay"` // 0 keeps the delay fixed
	BannerHideDelay   time.Duration `yaml:"banner_hide_delay"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	Dev               bool          `yaml:"dev"`
	LogFile           string        `yaml:"log_file"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		WSURL:           DefaultWSURL,
		APIURL:          DefaultAPIURL,
		ReconnectDelay:  DefaultReconnectDelay,
		BannerHideDelay: DefaultBannerHideDelay,
		RequestTimeout:  DefaultRequestTimeout,
	}
}

// Load builds the configuration from defaults, the config file and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	cfg := Default()

	path, explicit := filePath()
	if path != "" {
		// The default location is optional, an explicit one is not
		if err := cfg.mergeFile(path); err != nil && (explicit || !errors.Is(err, os.ErrNotExist)) {
			return nil, err
		}
	}

	if err := cfg.mergeEnv(os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// filePath returns the config file location and whether the user set it explicitly
func filePath() (string, bool) {
	if p := os.Getenv(EnvConfigFile); p != "" {
		return p, true
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
		if homeDir == "" {
			return "", false
		}
	}
	return filepath.Join(homeDir, ".focusagent", "config.yaml"), false
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv(getenv func(string) string) error {
	if v := getenv(EnvWSURL); v != "" {
		c.WSURL = v
	}
	if v := getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := getenv(EnvLogFile); v != "" {
		c.LogFile = v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{EnvReconnectDelay, &c.ReconnectDelay},
		{EnvReconnectMaxDelay, &c.ReconnectMaxDelay},
		{EnvBannerHideDelay, &c.BannerHideDelay},
		{EnvRequestTimeout, &c.RequestTimeout},
	}
	for _, d := range durations {
		v := getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.key, v, err)
		}
		*d.dst = parsed
	}

	if v := getenv(EnvDev); v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvDev, v, err)
		}
		c.Dev = dev
	}
	return nil
}

// Validate checks URLs and delays
func (c *Config) Validate() error {
	if err := checkURL(c.WSURL, "ws", "wss"); err != nil {
		return fmt.Errorf("ws_url: %w", err)
	}
	if err := checkURL(c.APIURL, "http", "https"); err != nil {
		return fmt.Errorf("api_url: %w", err)
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect_delay must be positive, got %s", c.ReconnectDelay)
	}
	if c.ReconnectMaxDelay != 0 && c.ReconnectMaxDelay < c.ReconnectDelay {
		return fmt.Errorf("reconnect_max_delay %s is below reconnect_delay %s", c.ReconnectMaxDelay, c.ReconnectDelay)
	}
	if c.BannerHideDelay <= 0 {
		return fmt.Errorf("banner_hide_delay must be positive, got %s", c.BannerHideDelay)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) {
			return nil
		}
	}
	return fmt.Errorf("scheme %q not one of %s", u.Scheme, strings.Join(schemes, ", "))
}
