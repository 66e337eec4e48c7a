package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/thermlog/internal/config"
	"codeberg.org/mutker/thermlog/internal/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	fs := pflag.NewFlagSet("thermlog", pflag.ContinueOnError)
	config.BindFlags(fs)
	config.BindSwitches(fs)
	require.NoError(t, fs.Parse(args))

	return fs
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "thermlog.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[collector]
data_dir = /srv/thermlog
poll_interval = 10
export_interval = 120
reset_after_export = true
log_level = debug

[onewire]
devices = /tmp/w1
`)

	cfg, err := config.Load(newFlagSet(t, "--config", path))
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "/srv/thermlog", cfg.Collector.DataDir)
	assert.Equal(t, 10, cfg.Collector.PollInterval)
	assert.Equal(t, 120, cfg.Collector.ExportInterval)
	assert.True(t, cfg.Collector.ResetAfterExport)
	assert.Equal(t, "debug", cfg.Collector.LogLevel)
	assert.Equal(t, "/tmp/w1", cfg.OneWire.Devices)
	assert.Equal(t, config.DefaultBootConfig, cfg.OneWire.BootConfig)
	assert.Equal(t, "/srv/thermlog/", cfg.Collector.CSVPrefix)
	assert.Equal(t, "/srv/thermlog/history.db", cfg.Collector.SQLitePath)
	assert.Equal(t, "/srv/thermlog/thermlog.prom", cfg.Collector.TextfilePath)
}

func TestLoadDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.ini")

	cfg, err := config.Load(newFlagSet(t), config.WithConfigFile(missing))
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, config.DefaultDataDir, cfg.Collector.DataDir)
	assert.Equal(t, config.DefaultPollInterval, cfg.Collector.PollInterval)
	assert.Equal(t, config.DefaultExportInterval, cfg.Collector.ExportInterval)
	assert.False(t, cfg.Collector.ResetAfterExport)
	assert.Equal(t, string(config.DefaultLogLevel), cfg.Collector.LogLevel)
	assert.Equal(t, config.DefaultDevices, cfg.OneWire.Devices)
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, `
[collector]
poll_interval = 10
`)

	cfg, err := config.Load(newFlagSet(t, "--config", path, "--interval", "3", "--data-dir", "/data"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Collector.PollInterval)
	assert.Equal(t, "/data", cfg.Collector.DataDir)
	assert.Equal(t, "/data/history.db", cfg.Collector.SQLitePath)
}

func TestInvalidInterval(t *testing.T) {
	path := writeConfig(t, `
[collector]
export_interval = 0
`)

	_, err := config.Load(newFlagSet(t, "--config", path))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, config.ErrInvalidInterval))
}

func TestInvalidLogLevel(t *testing.T) {
	path := writeConfig(t, `
[collector]
log_level = invalid
`)

	_, err := config.Load(newFlagSet(t, "--config", path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid log level")
}
