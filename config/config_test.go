package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "ea_data.db", cfg.Database.Path)
	assert.False(t, cfg.Ingest.Dedupe)
	assert.Equal(t, 5, cfg.Agent.MaxFailures)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
			errMsg:  "server.port must be between 0 and 65535",
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
			errMsg:  "database.path is required",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: true,
			errMsg:  "log.format must be 'json' or 'console'",
		},
		{
			name:    "zero max failures",
			mutate:  func(c *Config) { c.Agent.MaxFailures = 0 },
			wantErr: true,
			errMsg:  "agent.max_failures must be positive",
		},
		{
			name:    "bad interval",
			mutate:  func(c *Config) { c.Agent.Interval = "often" },
			wantErr: true,
			errMsg:  "agent.interval",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Agent.Timeout = "-1s" },
			wantErr: true,
			errMsg:  "agent.timeout must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Server.Port = 8080
			cfg.Ingest.Dedupe = true
			cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
			path := filepath.Join(tmpDir, "test"+tt.ext)

			// Save
			err := cfg.SaveToFile(path)
			require.NoError(t, err)

			// Verify file exists
			_, err = os.Stat(path)
			require.NoError(t, err)

			// Load
			loaded, err := LoadFromFile(path)
			require.NoError(t, err)

			// Compare
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  path: /tmp/ea.db\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ea.db", cfg.Database.Path)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "5s", cfg.Agent.Interval)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":                 "8081",
		"EADASH_DB":            "/var/lib/eadash/ea.db",
		"EADASH_LOG_LEVEL":     "debug",
		"EADASH_DASHBOARD_URL": "https://dash.example.com",
	}
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "/var/lib/eadash/ea.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "https://dash.example.com", cfg.Agent.DashboardURL)

	cfg = Default()
	err := cfg.ApplyEnv(func(k string) string {
		if k == "PORT" {
			return "eighty"
		}
		return ""
	})
	assert.Error(t, err)

	cfg = Default()
	require.NoError(t, cfg.ApplyEnv(noEnv))
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("EADASH_DB", filepath.Join(t.TempDir(), "env.db"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Contains(t, cfg.Database.Path, "env.db")
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.Server.Host = "127.0.0.1"

	srv := cfg.APIServer()
	assert.Equal(t, "127.0.0.1:5000", srv.Addr())

	b := cfg.Bridge()
	assert.Equal(t, 5*time.Second, b.Interval)
	assert.Equal(t, 5, b.MaxFailures)
	assert.Equal(t, 5*time.Second, b.ReconnectDelay)
	assert.Equal(t, time.Minute, b.SettingsRefresh)
	assert.Equal(t, 10*time.Second, cfg.AgentTimeout())
}
