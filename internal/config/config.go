package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	API struct {
		BaseURL            string  `yaml:"base_url"`
		Venue              string  `yaml:"venue"`
		TimeoutSeconds     int     `yaml:"timeout_seconds"`
		RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`
		CacheTTLSeconds    int     `yaml:"cache_ttl_seconds"`
	} `yaml:"api"`

	Calendar struct {
		DefaultMode string `yaml:"default_mode"`
	} `yaml:"calendar"`

	Refresh struct {
		SilentIntervalSeconds int `yaml:"silent_interval_seconds"`
		MarkerIntervalSeconds int `yaml:"marker_interval_seconds"`
	} `yaml:"refresh"`

	Server struct {
		Listen string `yaml:"listen"`
	} `yaml:"server"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://api.yourgolfbooking.com"
	}
	if cfg.API.Venue == "" {
		cfg.API.Venue = "bygolf"
	}
	if cfg.Calendar.DefaultMode == "" {
		cfg.Calendar.DefaultMode = "day"
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/portal.db"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) APITimeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func (c *Config) SilentInterval() time.Duration {
	if c.Refresh.SilentIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Refresh.SilentIntervalSeconds) * time.Second
}

func (c *Config) MarkerInterval() time.Duration {
	if c.Refresh.MarkerIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.Refresh.MarkerIntervalSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.API.CacheTTLSeconds) * time.Second
}
