package metrics_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/thermlog/internal/errors"
	"codeberg.org/mutker/thermlog/internal/logger"
	"codeberg.org/mutker/thermlog/internal/metrics"
	"codeberg.org/mutker/thermlog/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ds18b20 = registry.Family("DS18B20")

func populated(t *testing.T) *registry.Registry {
	t.Helper()

	reg := registry.New()
	require.NoError(t, reg.AddFamily(ds18b20, []registry.ProbeID{"28-000001", "28-000002"}))

	return reg
}

func read(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prom", "thermlog.prom")
	w, err := metrics.New(metrics.Config{Path: path, Enabled: true}, logger.Nop())
	require.NoError(t, err)

	reg := populated(t)
	require.NoError(t, reg.Set(ds18b20, "28-000001", registry.Float(21.5)))

	w.CSVRowWritten()
	w.CSVRowWritten()
	w.CSVRowDropped()
	require.NoError(t, w.Write(reg.Snapshot()))

	out := read(t, path)
	assert.Contains(t, out, `thermlog_probe_temperature_celsius{family="DS18B20",probe="28-000001"} 21.5`)
	assert.NotContains(t, out, `thermlog_probe_temperature_celsius{family="DS18B20",probe="28-000002"}`)
	assert.Contains(t, out, `thermlog_probe_reading_present{family="DS18B20",probe="28-000001"} 1`)
	assert.Contains(t, out, `thermlog_probe_reading_present{family="DS18B20",probe="28-000002"} 0`)
	assert.Contains(t, out, "thermlog_csv_rows_written_total 2")
	assert.Contains(t, out, "thermlog_csv_rows_dropped_total 1")
}

func TestWriteDropsStaleTemperature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thermlog.prom")
	w, err := metrics.New(metrics.Config{Path: path, Enabled: true}, nil)
	require.NoError(t, err)

	reg := populated(t)
	require.NoError(t, reg.Set(ds18b20, "28-000002", registry.Float(22)))
	require.NoError(t, w.Write(reg.Snapshot()))
	assert.Contains(t, read(t, path), `probe="28-000002"} 22`)

	reg.Reset()
	require.NoError(t, w.Write(reg.Snapshot()))

	out := read(t, path)
	assert.NotContains(t, out, "thermlog_probe_temperature_celsius{")
	assert.Contains(t, out, `thermlog_probe_reading_present{family="DS18B20",probe="28-000002"} 0`)
}

func TestDisabledWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thermlog.prom")
	w, err := metrics.New(metrics.Config{Path: path}, logger.Nop())
	require.NoError(t, err)

	w.CSVRowWritten()
	require.NoError(t, w.Write(populated(t).Snapshot()))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestEnabledRequiresPath(t *testing.T) {
	_, err := metrics.New(metrics.Config{Enabled: true}, logger.Nop())
	assert.True(t, errors.HasCode(err, metrics.ErrInvalidPath))
}
