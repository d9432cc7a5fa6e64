package appconf

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// JSONConfig mirrors the on-disk configuration file. Every field is
// optional; command-line flags override whatever the file sets.
type JSONConfig struct {
	Port      int      `json:"port"`
	Env       string   `json:"env"`
	ApiKeys   []string `json:"api-keys"`
	RateLimit int      `json:"rate-limit"`
	NATSURL   string   `json:"nats-url"`
	Verbose   bool     `json:"verbose"`

	Sources               []string          `json:"gtfs-sources"`
	StaticAuthHeaderKey   string            `json:"static-auth-header-key"`
	StaticAuthHeaderValue string            `json:"static-auth-header-value"`
	Lines                 []string          `json:"lines"`
	Destinations          []string          `json:"destinations"`
	DestinationLabels     map[string]string `json:"destination-labels"`
	RefreshMinutes        int               `json:"refresh-minutes"`
	UpcomingWindowMinutes int               `json:"upcoming-window-minutes"`
	SearchFilteredOnly    bool              `json:"search-filtered-lines-only"`
}

// GtfsConfigData carries the feed-related file settings across the
// package boundary without importing the gtfs package.
type GtfsConfigData struct {
	Sources               []string
	StaticAuthHeaderKey   string
	StaticAuthHeaderValue string
	Lines                 []string
	Destinations          []string
	DestinationLabels     map[string]string
	RefreshInterval       time.Duration
	UpcomingWindow        time.Duration
	SearchFilteredOnly    bool
	Env                   Environment
	Verbose               bool
}

// LoadFromFile reads and validates a JSON configuration file.
func LoadFromFile(path string) (*JSONConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg JSONConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *JSONConfig) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate-limit must not be negative, got %d", c.RateLimit)
	}
	if c.RefreshMinutes < 0 {
		return fmt.Errorf("refresh-minutes must not be negative, got %d", c.RefreshMinutes)
	}
	for id := range c.DestinationLabels {
		found := false
		for _, dest := range c.Destinations {
			if dest == id {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("destination label for unknown stop %q", id)
		}
	}
	return nil
}

// ToAppConfig converts the file settings into the server config.
func (c *JSONConfig) ToAppConfig() Config {
	keys := c.ApiKeys
	if keys == nil {
		keys = []string{}
	}
	return Config{
		Port:      c.Port,
		Env:       EnvFromString(c.Env),
		ApiKeys:   keys,
		RateLimit: c.RateLimit,
		NATSURL:   c.NATSURL,
		Verbose:   c.Verbose,
	}
}

// ToGtfsConfigData converts the file settings into the feed config.
func (c *JSONConfig) ToGtfsConfigData() GtfsConfigData {
	return GtfsConfigData{
		Sources:               c.Sources,
		StaticAuthHeaderKey:   c.StaticAuthHeaderKey,
		StaticAuthHeaderValue: c.StaticAuthHeaderValue,
		Lines:                 c.Lines,
		Destinations:          c.Destinations,
		DestinationLabels:     c.DestinationLabels,
		RefreshInterval:       time.Duration(c.RefreshMinutes) * time.Minute,
		UpcomingWindow:        time.Duration(c.UpcomingWindowMinutes) * time.Minute,
		SearchFilteredOnly:    c.SearchFilteredOnly,
		Env:                   EnvFromString(c.Env),
		Verbose:               c.Verbose,
	}
}
