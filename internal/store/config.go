package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         int `yaml:"port"`
		ReadTimeout  int `yaml:"read_timeout_seconds"`
		WriteTimeout int `yaml:"write_timeout_seconds"`
	} `yaml:"server"`
	Data struct {
		Dir string `yaml:"dir"`
	} `yaml:"data"`
	FMP struct {
		BaseURL        string `yaml:"base_url"`
		APIKeyEnv      string `yaml:"api_key_env"`
		RequestsPerMin int    `yaml:"requests_per_min"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		MaxRetries     int    `yaml:"max_retries"`
	} `yaml:"fmp"`
	Symbols struct {
		ExpiryDays int               `yaml:"expiry_days"`
		Exchanges  []string          `yaml:"exchanges"`
		FieldMap   map[string]string `yaml:"field_map"`
	} `yaml:"symbols"`
	EventSources []EventSource `yaml:"event_sources"`
	Analyst      struct {
		BatchSize    int `yaml:"batch_size"`
		BatchDelayMs int `yaml:"batch_delay_ms"`
		FetchDelayMs int `yaml:"fetch_delay_ms"`
		MaxErrors    int `yaml:"max_errors"`
	} `yaml:"analyst"`
	Tracker struct {
		MaxCapPct float64 `yaml:"max_cap_pct"`
		LowCapPct float64 `yaml:"low_cap_pct"`
	} `yaml:"tracker"`
	Scheduler struct {
		Enabled  bool   `yaml:"enabled"`
		Cron     string `yaml:"cron"`
		Timezone string `yaml:"timezone"`
	} `yaml:"scheduler"`
}

// EventSource describes one upstream calendar endpoint and how its
// payload fields map onto the normalized event shape.
type EventSource struct {
	Name     string            `yaml:"name"`
	Path     string            `yaml:"path"`
	FieldMap map[string]string `yaml:"field_map"`
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be 1-65535", c.Server.Port)
	}
	if c.Data.Dir == "" {
		return errors.New("data.dir cannot be empty")
	}
	if c.FMP.BaseURL == "" {
		return errors.New("fmp.base_url cannot be empty")
	}
	if c.FMP.RequestsPerMin <= 0 {
		return fmt.Errorf("fmp.requests_per_min must be positive, got %d", c.FMP.RequestsPerMin)
	}
	if len(c.EventSources) == 0 {
		return errors.New("event_sources cannot be empty")
	}
	for _, src := range c.EventSources {
		if src.Name == "" {
			return errors.New("event source name cannot be empty")
		}
		if src.Path == "" {
			return fmt.Errorf("event source '%s' has no path", src.Name)
		}
		if len(src.FieldMap) == 0 {
			return fmt.Errorf("event source '%s' has no field_map", src.Name)
		}
		for localKey := range src.FieldMap {
			if localKey == "" {
				return fmt.Errorf("event source '%s' has an empty field_map key", src.Name)
			}
		}
	}
	if c.Tracker.MaxCapPct <= 0 || c.Tracker.MaxCapPct >= 1 {
		return fmt.Errorf("tracker.max_cap_pct must be in (0,1), got %.4f", c.Tracker.MaxCapPct)
	}
	if c.Tracker.LowCapPct <= 0 || c.Tracker.LowCapPct >= 1 {
		return fmt.Errorf("tracker.low_cap_pct must be in (0,1), got %.4f", c.Tracker.LowCapPct)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 120
	}
	if c.Data.Dir == "" {
		c.Data.Dir = "docs"
	}
	if c.FMP.BaseURL == "" {
		c.FMP.BaseURL = "https://financialmodelingprep.com"
	}
	if c.FMP.APIKeyEnv == "" {
		c.FMP.APIKeyEnv = "FMP_API_KEY"
	}
	if c.FMP.RequestsPerMin == 0 {
		// FMP allows 300/min, keep headroom
		c.FMP.RequestsPerMin = 200
	}
	if c.FMP.TimeoutSeconds == 0 {
		c.FMP.TimeoutSeconds = 30
	}
	if c.FMP.MaxRetries == 0 {
		c.FMP.MaxRetries = 3
	}
	if c.Symbols.ExpiryDays == 0 {
		c.Symbols.ExpiryDays = 7
	}
	if c.Analyst.BatchSize == 0 {
		c.Analyst.BatchSize = 3
	}
	if c.Analyst.BatchDelayMs == 0 {
		c.Analyst.BatchDelayMs = 1000
	}
	if c.Analyst.FetchDelayMs == 0 {
		c.Analyst.FetchDelayMs = 100
	}
	if c.Analyst.MaxErrors == 0 {
		c.Analyst.MaxErrors = 100
	}
	if c.Tracker.MaxCapPct == 0 {
		c.Tracker.MaxCapPct = 0.20
	}
	if c.Tracker.LowCapPct == 0 {
		c.Tracker.LowCapPct = 0.05
	}
	if c.Scheduler.Cron == "" {
		c.Scheduler.Cron = "0 0 0 * * *"
	}
	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = "America/New_York"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
