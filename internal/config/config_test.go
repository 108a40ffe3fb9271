package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/unlimited-mining/internal/storage"
	"github.com/annel0/unlimited-mining/internal/vec"
	"github.com/annel0/unlimited-mining/internal/world"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, [3]int{153, -13, 341}, cfg.Mine.Origin)
	assert.Equal(t, 10, cfg.Mine.Width)
	assert.Equal(t, 20, cfg.Mine.Length)
	assert.Equal(t, 20, cfg.Mine.CellSize)
	assert.Equal(t, 5*time.Second, cfg.Stations.ConfirmWindow)
}

func TestLoadWithoutPath(t *testing.T) {
	t.Setenv(EnvConfig, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
mine:
  width: 3
  length: 4
  cell_size: 10
  reveal_selector: veins
  seed: 42
stations:
  confirm_window: 2s
storage:
  backend: sqlite
  data_path: /tmp/um
  compress: true
eventbus:
  backend: jetstream
  stream: TEST
`)
	t.Setenv(EnvConfig, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Mine.Width)
	assert.Equal(t, 4, cfg.Mine.Length)
	assert.Equal(t, [3]int{153, -13, 341}, cfg.Mine.Origin, "Незаданные поля берутся из Default")
	assert.Equal(t, 2*time.Second, cfg.Stations.ConfirmWindow)
	assert.Equal(t, storage.BackendSQLite, cfg.Storage.Backend)
	assert.True(t, cfg.Storage.Compress)
	assert.Equal(t, "TEST", cfg.EventBus.Stream)
	assert.Equal(t, 24*time.Hour, cfg.EventBus.RetentionDuration())

	wc, err := cfg.Mine.WorldConfig()
	require.NoError(t, err)
	assert.Equal(t, vec.New(10, 10, 10), wc.CellSize)
	assert.Equal(t, vec.New(153, -13, 341), wc.Origin)
	assert.IsType(t, &world.VeinSelector{}, wc.Reveal)
	assert.NotNil(t, wc.Entrance)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero width", func(c *Config) { c.Mine.Width = 0 }},
		{"odd cell size", func(c *Config) { c.Mine.CellSize = 15 }},
		{"unknown selector", func(c *Config) { c.Mine.RevealSelector = "lava" }},
		{"inherit entrance", func(c *Config) { c.Mine.EntranceSelector = world.SelectorInherit }},
		{"same station tags", func(c *Config) { c.Stations.UpgradeTag = c.Stations.SellTag }},
		{"unknown storage", func(c *Config) { c.Storage.Backend = "floppy" }},
		{"unknown bus", func(c *Config) { c.EventBus.Backend = "kafka" }},
		{"unknown host", func(c *Config) { c.Host.Backend = "grpc" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "LOUD" }},
		{"sample ratio above one", func(c *Config) { c.Telemetry.SampleRatio = 1.5 }},
		{"bad component level", func(c *Config) { c.Logging.Components = map[string]string{"mine": "LOUD"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := Load(writeConfig(t, "mine:\n  cell_size: 7\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeConfig(t, "mine: [unclosed"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestPortFallback(t *testing.T) {
	s := ServerConfig{}
	t.Setenv(EnvRESTPort, "9090")
	t.Setenv(EnvMetricsPort, "not-a-port")
	assert.Equal(t, 9090, s.GetRESTPort())
	assert.Equal(t, 2112, s.GetMetricsPort())

	s.RESTPort = 7000
	assert.Equal(t, 7000, s.GetRESTPort(), "Значение из файла важнее окружения")
}
