package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/thermlog/internal/config"
	"codeberg.org/mutker/thermlog/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreDefaults(t *testing.T) {
	store, err := config.OpenStore(filepath.Join(t.TempDir(), "thermlog.ini"))
	require.NoError(t, err)

	flags, err := config.Resolve(store, config.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, config.Flags{Console: true}, flags)

	_, err = os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err), "resolving without overrides must not write the store")
}

func TestStoreReadsPersistedValues(t *testing.T) {
	path := writeConfig(t, `
[general]
log = True
console = no

[exports]
csv = on
sqlite = false
`)

	store, err := config.OpenStore(path)
	require.NoError(t, err)

	flags, err := config.Resolve(store, config.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, config.Flags{Log: true, CSV: true}, flags)
}

func TestResolvePersistsOverrides(t *testing.T) {
	path := writeConfig(t, `
[general]
log = false
console = true

[exports]
csv = false

[collector]
poll_interval = 7
`)

	store, err := config.OpenStore(path)
	require.NoError(t, err)

	flags, err := config.Resolve(store, config.Overrides{
		CSV:     config.Bool(true),
		Console: config.Bool(false),
	})
	require.NoError(t, err)
	assert.True(t, flags.CSV)
	assert.False(t, flags.Console)
	assert.False(t, flags.Log)
	assert.True(t, flags.AnyExport())

	reopened, err := config.OpenStore(path)
	require.NoError(t, err)
	flags, err = config.Resolve(reopened, config.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, config.Flags{CSV: true}, flags)

	// Unrelated sections survive the rewrite.
	cfg, err := config.Load(nil, config.WithConfigFile(path))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Collector.PollInterval)
}

func TestSaveRegeneratesFile(t *testing.T) {
	path := writeConfig(t, `
; hand-written note
[exports]
CSV = false

[collector]
poll_interval = 3
`)

	store, err := config.OpenStore(path)
	require.NoError(t, err)

	_, err = config.Resolve(store, config.Overrides{SQLite: config.Bool(true)})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hand-written note")
	assert.NotContains(t, string(data), "CSV")
	assert.Contains(t, string(data), "[general]", "defaults are written out")

	reopened, err := config.OpenStore(path)
	require.NoError(t, err)
	flags, err := config.Resolve(reopened, config.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, config.Flags{Console: true, SQLite: true}, flags)

	cfg, err := config.Load(nil, config.WithConfigFile(path))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Collector.PollInterval)
}

func TestResolveRejectsMalformedBool(t *testing.T) {
	path := writeConfig(t, `
[general]
log = sometimes
`)

	store, err := config.OpenStore(path)
	require.NoError(t, err)

	_, err = config.Resolve(store, config.Overrides{})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, config.ErrInvalidBool))

	// An explicit override replaces the malformed value.
	flags, err := config.Resolve(store, config.Overrides{Log: config.Bool(true)})
	require.NoError(t, err)
	assert.True(t, flags.Log)
}

func TestOverridesFromFlags(t *testing.T) {
	fs := newFlagSet(t, "--csv", "--console=false")

	o, err := config.OverridesFromFlags(fs)
	require.NoError(t, err)
	require.NotNil(t, o.CSV)
	assert.True(t, *o.CSV)
	require.NotNil(t, o.Console)
	assert.False(t, *o.Console)
	assert.Nil(t, o.Log)
	assert.Nil(t, o.SQLite)
	assert.Nil(t, o.Textfile)
}

func TestOverridesRejectMalformedFlag(t *testing.T) {
	fs := newFlagSet(t)
	err := fs.Parse([]string{"--log=maybe"})
	assert.Error(t, err)
}
