package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, "https://catalog.comifuro.net/catalog", cfg.Fetch.URL)
	assert.True(t, cfg.Fetch.RespectRobots)
}

func TestLoad_YAMLThenEnvThenApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circle-catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /srv/catalog
mapping_file: mapping.yaml
fetch:
  url: https://example.com/catalog
  timeout: 5s
  respect_robots: false
logging:
  level: debug
  format: json
`), 0644))

	t.Setenv("CIRCLE_CATALOG_LOG_LEVEL", "WARN")
	t.Setenv("CIRCLE_CATALOG_TIMEOUT", "12s")
	t.Setenv("CIRCLE_CATALOG_RESPECT_ROBOTS", "not-a-bool")
	t.Setenv("CIRCLE_CATALOG_TRACE_SAMPLE_RATE", "0.25")

	cfg, err := Load(path, func(c *Config) {
		c.DataDir = "/override"
	})
	require.NoError(t, err)

	assert.Equal(t, "/override", cfg.DataDir)
	assert.Equal(t, "mapping.yaml", cfg.MappingFile)
	assert.Equal(t, "https://example.com/catalog", cfg.Fetch.URL)
	assert.Equal(t, 12*time.Second, cfg.Fetch.Timeout)
	assert.False(t, cfg.Fetch.RespectRobots)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 0.25, cfg.Tracing.SampleRate)
	assert.Equal(t, "creator-data.json", cfg.SnapshotFile, "unset keys keep defaults")
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("fetch: [oops"), 0644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default is valid", func(*Config) {}, ""},
		{"bad url", func(c *Config) { c.Fetch.URL = "not a url" }, "Config.Fetch.URL: failed url"},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, "Config.DataDir: failed required"},
		{"zero timeout", func(c *Config) { c.Fetch.Timeout = 0 }, "Config.Fetch.Timeout: failed gt=0"},
		{"unknown level", func(c *Config) { c.Logging.Level = "loud" }, "Config.Logging.Level: failed oneof"},
		{"unknown format", func(c *Config) { c.Logging.Format = "xml" }, "Config.Logging.Format: failed oneof"},
		{"unknown exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }, "Config.Tracing.Exporter: failed oneof"},
		{"sample rate above one", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "Config.Tracing.SampleRate: failed lte=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.DataDir = ""
	cfg.StateFile = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DataDir")
	assert.Contains(t, err.Error(), "StateFile")
}
