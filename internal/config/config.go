package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Auth      AuthConfig       `yaml:"auth"`
	Queue     QueueConfig      `yaml:"queue"`
	Redis     RedisConfig      `yaml:"redis"`
	Tickets   TicketsConfig    `yaml:"tickets"`
	Database  DatabaseConfig   `yaml:"database"`
	Endpoints []EndpointConfig `yaml:"endpoints"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port string `yaml:"port" default:"8080"`
	Host string `yaml:"host" default:"localhost"`
}

// AuthConfig holds the shared secret the charting platform sends with every
// webhook. Signals carrying a different key are silently dropped.
type AuthConfig struct {
	WebhookKey string `yaml:"webhook_key"`
}

// QueueConfig represents dispatch queue configuration
type QueueConfig struct {
	Name               string `yaml:"name" default:"trade-commands"`
	GroupID            string `yaml:"group_id" default:"trades"`
	StaleAfterMs       int64  `yaml:"stale_after_ms" default:"10000"`
	DedupWindowSeconds int    `yaml:"dedup_window_seconds" default:"300"`
	MaxPolls           int    `yaml:"max_polls" default:"128"`
}

// StaleAfter returns the staleness threshold as a duration.
func (q QueueConfig) StaleAfter() time.Duration {
	if q.StaleAfterMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(q.StaleAfterMs) * time.Millisecond
}

// DedupWindow returns the deduplication window as a duration.
func (q QueueConfig) DedupWindow() time.Duration {
	if q.DedupWindowSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(q.DedupWindowSeconds) * time.Second
}

// PollLimit returns the bound on dequeue polling iterations.
func (q QueueConfig) PollLimit() int {
	if q.MaxPolls <= 0 {
		return 128
	}
	return q.MaxPolls
}

// RedisConfig represents the Redis connection shared by the dispatch queue
// and the ticket registry.
type RedisConfig struct {
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"6379"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
}

// Addr returns the host:port address for the Redis client.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// TicketsConfig represents ticket registry configuration
type TicketsConfig struct {
	Enabled bool `yaml:"enabled" default:"true"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver string `yaml:"driver" default:"sqlite"`
	DSN    string `yaml:"dsn" default:"auto-trade-bot.db"`
}

// EndpointConfig represents a downstream notification endpoint
type EndpointConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"` // telegram, webhook
	URL      string `yaml:"url"`
	Token    string `yaml:"token,omitempty"`
	ChatID   string `yaml:"chat_id,omitempty"`
	IsActive bool   `yaml:"is_active" default:"true"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, filename string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
