package logger_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/thermlog/internal/errors"
	"codeberg.org/mutker/thermlog/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logger.LogLevel
	}{
		{"debug", logger.DebugLevel},
		{"info", logger.InfoLevel},
		{"", logger.InfoLevel},
		{"warning", logger.WarnLevel},
		{"error", logger.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := logger.ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := logger.ParseLevel("loud")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestFileSinkRecordsDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.txt")

	l, closer, err := logger.New(logger.Options{File: path, Level: logger.WarnLevel})
	require.NoError(t, err)

	l.Debug().Str("probe", "28-000001").Msg("sampled")
	l.With("exporter").Info().Msg("row written")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"probe":"28-000001"`)
	assert.Contains(t, string(data), `"component":"exporter"`)
}

func TestNoSinksDiscards(t *testing.T) {
	l, closer, err := logger.New(logger.Options{})
	require.NoError(t, err)
	require.NotNil(t, closer)

	assert.NotPanics(t, func() {
		l.Error().Msg("dropped")
	})
}

func TestErrorWithCode(t *testing.T) {
	var buf bytes.Buffer
	l := logger.Writer(&buf)

	l.ErrorWithCode(errors.New().New(errors.ErrNoProbesFound)).Msg("detection failed")
	assert.Contains(t, buf.String(), `"error_code":"no_probes_found"`)
}

func TestDefaultFollowsInit(t *testing.T) {
	l := logger.Default().With("onewire")

	path := filepath.Join(t.TempDir(), "run.txt")
	_, closer, err := logger.Init(logger.Options{File: path})
	require.NoError(t, err)

	l.Warn().Msg("overlay missing")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"onewire"`)
	assert.Contains(t, string(data), "overlay missing")

	_, _, err = logger.Init(logger.Options{})
	require.NoError(t, err)
}
