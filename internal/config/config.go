package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration options for goe-client
type Config struct {
	// Charger addresses (hostname or IP, optionally with scheme and port)
	Hosts []string `toml:"hosts"`

	// MQTT Configuration
	MQTTUrl  string `toml:"mqtt_url"`  // Broker URL; selects the MQTT transport when set
	Serial   string `toml:"serial"`    // Charger serial number, used in MQTT topics
	ClientID string `toml:"client_id"` // MQTT client identifier

	// Application Configuration
	Verbose       bool   `toml:"verbose"`        // Enable verbose logging
	APITimeout    int    `toml:"api_timeout"`    // Charger request timeout in seconds (default: 10)
	MetricsListen string `toml:"metrics_listen"` // Listen address for the metrics endpoint
}

// GetDefaultConfig returns a configuration with sensible defaults
func GetDefaultConfig() *Config {
	return &Config{
		ClientID:      DefaultClientID,
		APITimeout:    int(DefaultAPITimeout / time.Second),
		MetricsListen: DefaultMetricsListen,
	}
}

// Load reads a TOML file over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := GetDefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SetHosts replaces the host list with the comma separated entries of s.
func (c *Config) SetHosts(s string) {
	var hosts []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	c.Hosts = hosts
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.HasMQTT() {
		if !strings.HasPrefix(c.MQTTUrl, "ws://") &&
			!strings.HasPrefix(c.MQTTUrl, "wss://") &&
			!strings.HasPrefix(c.MQTTUrl, "mqtt://") &&
			!strings.HasPrefix(c.MQTTUrl, "mqtts://") {
			return fmt.Errorf("MQTT URL must use supported protocol (ws://, wss://, mqtt://, or mqtts://)")
		}
		if c.Serial == "" {
			return fmt.Errorf("serial is required when an MQTT URL is provided")
		}
	} else if len(c.Hosts) == 0 {
		return fmt.Errorf("at least one charger host is required")
	}

	// Set defaults for invalid values
	if c.APITimeout <= 0 {
		c.APITimeout = int(DefaultAPITimeout / time.Second)
	}
	if c.ClientID == "" {
		c.ClientID = DefaultClientID
	}

	return nil
}

// HasMQTT returns true if MQTT is configured
func (c *Config) HasMQTT() bool {
	return c.MQTTUrl != ""
}

// GetAPITimeout returns the API timeout as a duration
func (c *Config) GetAPITimeout() time.Duration {
	return time.Duration(c.APITimeout) * time.Second
}
