package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/eadash/agent"
	"github.com/rustyeddy/eadash/api"
	"github.com/rustyeddy/eadash/logging"
)

// Config is the complete dashboard and agent configuration
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Database DatabaseConfig `json:"database" yaml:"database"`
	Log      logging.Config `json:"log" yaml:"log"`
	Ingest   IngestConfig   `json:"ingest" yaml:"ingest"`
	Agent    AgentConfig    `json:"agent" yaml:"agent"`
}

// ServerConfig contains HTTP listener parameters
type ServerConfig struct {
	Host           string   `json:"host" yaml:"host"`
	Port           int      `json:"port" yaml:"port"`
	ProductionMode bool     `json:"production_mode" yaml:"production_mode"`
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
}

// DatabaseConfig locates the SQLite ledger
type DatabaseConfig struct {
	Path string `json:"path" yaml:"path"`
}

// IngestConfig tunes telemetry ingestion
type IngestConfig struct {
	// Dedupe skips trades whose (ticket, close_time) is already recorded.
	Dedupe bool `json:"dedupe" yaml:"dedupe"`
}

// AgentConfig contains the bridge parameters. Durations use
// time.ParseDuration syntax, e.g. "5s", "1m".
type AgentConfig struct {
	DashboardURL    string `json:"dashboard_url" yaml:"dashboard_url"`
	Interval        string `json:"interval" yaml:"interval"`
	Timeout         string `json:"timeout" yaml:"timeout"`
	MaxFailures     int    `json:"max_failures" yaml:"max_failures"`
	ReconnectDelay  string `json:"reconnect_delay" yaml:"reconnect_delay"`
	SettingsRefresh string `json:"settings_refresh,omitempty" yaml:"settings_refresh,omitempty"`
	Symbol          string `json:"symbol" yaml:"symbol"`

	// Values reported by the fixed source.
	Source SourceConfig `json:"source" yaml:"source"`
}

// SourceConfig holds the values a FixedSource reports
type SourceConfig struct {
	Mama     float64 `json:"mama_value" yaml:"mama_value"`
	Fama     float64 `json:"fama_value" yaml:"fama_value"`
	Position string  `json:"position_status" yaml:"position_status"`
	Balance  float64 `json:"balance" yaml:"balance"`
	Equity   float64 `json:"equity" yaml:"equity"`
}

// Load returns the configuration at path, or the defaults when path is
// empty. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadFromFile(path)
	}
	cfg := Default()
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a file (JSON or YAML). Sections
// missing from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from the environment: PORT, EADASH_DB,
// EADASH_LOG_LEVEL and EADASH_DASHBOARD_URL.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("EADASH_DB"); v != "" {
		c.Database.Path = v
	}
	if v := getenv("EADASH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("EADASH_DASHBOARD_URL"); v != "" {
		c.Agent.DashboardURL = v
	}
	return nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("log.format must be 'json' or 'console'")
	}
	if c.Agent.MaxFailures <= 0 {
		return fmt.Errorf("agent.max_failures must be positive")
	}
	for name, v := range map[string]string{
		"agent.interval":        c.Agent.Interval,
		"agent.timeout":         c.Agent.Timeout,
		"agent.reconnect_delay": c.Agent.ReconnectDelay,
	} {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if _, err := parseDuration(c.Agent.SettingsRefresh); err != nil {
		return fmt.Errorf("agent.settings_refresh: %w", err)
	}
	return nil
}

// APIServer converts the server section.
func (c *Config) APIServer() api.ServerConfig {
	return api.ServerConfig{
		Host:           c.Server.Host,
		Port:           c.Server.Port,
		ProductionMode: c.Server.ProductionMode,
		AllowedOrigins: c.Server.AllowedOrigins,
	}
}

// Bridge converts the agent section. Call Validate first.
func (c *Config) Bridge() agent.BridgeConfig {
	interval, _ := parseDuration(c.Agent.Interval)
	delay, _ := parseDuration(c.Agent.ReconnectDelay)
	refresh, _ := parseDuration(c.Agent.SettingsRefresh)
	return agent.BridgeConfig{
		Interval:        interval,
		MaxFailures:     c.Agent.MaxFailures,
		ReconnectDelay:  delay,
		SettingsRefresh: refresh,
	}
}

// AgentTimeout is the per-request push timeout.
func (c *Config) AgentTimeout() time.Duration {
	d, _ := parseDuration(c.Agent.Timeout)
	return d
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		Database: DatabaseConfig{
			Path: "ea_data.db",
		},
		Log: logging.Config{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Agent: AgentConfig{
			DashboardURL:    "http://localhost:5000",
			Interval:        "5s",
			Timeout:         "10s",
			MaxFailures:     5,
			ReconnectDelay:  "5s",
			SettingsRefresh: "1m",
			Symbol:          "XAUUSD",
			Source: SourceConfig{
				Mama:     4350.0,
				Fama:     4340.0,
				Position: "NONE",
				Balance:  10000,
				Equity:   10000,
			},
		},
	}
}
