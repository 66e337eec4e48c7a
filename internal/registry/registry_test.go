package registry_test

import (
	"fmt"
	"sync"
	"testing"

	"codeberg.org/mutker/thermlog/internal/errors"
	"codeberg.org/mutker/thermlog/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ds18b20 = registry.Family("DS18B20")

func populated(t *testing.T) *registry.Registry {
	t.Helper()

	r := registry.New()
	require.NoError(t, r.AddFamily(ds18b20, []registry.ProbeID{"28-000001", "28-000002"}))
	require.NoError(t, r.AddFamily("DHT22", []registry.ProbeID{"28-000001"}))

	return r
}

func TestAddFamilyStartsAbsent(t *testing.T) {
	r := populated(t)

	snap := r.Snapshot()
	assert.Equal(t, 3, snap.Len())
	assert.Len(t, snap, 2)

	for _, k := range r.Keys() {
		reading, ok := snap.Get(k)
		require.True(t, ok, k.Column())
		assert.True(t, reading.IsAbsent(), k.Column())
	}

	// Cross-family id collisions are distinct entries.
	require.NoError(t, r.Set("DHT22", "28-000001", registry.Float(40)))
	reading, _ := r.Snapshot().Get(registry.Key{Family: ds18b20, ID: "28-000001"})
	assert.True(t, reading.IsAbsent())
}

func TestKeysKeepPopulationOrder(t *testing.T) {
	r := populated(t)

	assert.Equal(t, []registry.Key{
		{Family: ds18b20, ID: "28-000001"},
		{Family: ds18b20, ID: "28-000002"},
		{Family: "DHT22", ID: "28-000001"},
	}, r.Keys())
	assert.Equal(t, []registry.Family{ds18b20, "DHT22"}, r.Families())
	assert.Equal(t, []registry.ProbeID{"28-000001", "28-000002"}, r.Probes(ds18b20))
	assert.Equal(t, 3, r.Len())
}

func TestAddFamilyRejects(t *testing.T) {
	r := registry.New()

	err := r.AddFamily("", []registry.ProbeID{"a"})
	assert.True(t, errors.HasCode(err, registry.ErrEmptyFamily))

	err = r.AddFamily(ds18b20, nil)
	assert.True(t, errors.HasCode(err, registry.ErrNoProbes))

	err = r.AddFamily(ds18b20, []registry.ProbeID{"a", "a"})
	assert.True(t, errors.HasCode(err, registry.ErrDuplicateProbe))
	assert.Equal(t, 0, r.Len(), "failed insert must not leave a partial family")

	require.NoError(t, r.AddFamily(ds18b20, []registry.ProbeID{"a"}))
	err = r.AddFamily(ds18b20, []registry.ProbeID{"b"})
	assert.True(t, errors.HasCode(err, registry.ErrDuplicateFamily))
}

func TestSetThenSnapshot(t *testing.T) {
	r := populated(t)

	require.NoError(t, r.Set(ds18b20, "28-000001", registry.Float(21.5)))
	require.NoError(t, r.Set(ds18b20, "28-000002", registry.Int(22)))

	snap := r.Snapshot()
	v, ok := snap[ds18b20]["28-000001"].Value()
	require.True(t, ok)
	assert.InDelta(t, 21.5, v, 1e-9)
	v, ok = snap[ds18b20]["28-000002"].Value()
	require.True(t, ok)
	assert.InDelta(t, 22.0, v, 1e-9)
}

func TestSetUnknownKey(t *testing.T) {
	r := populated(t)

	err := r.Set(ds18b20, "28-999999", registry.Float(1))
	assert.True(t, errors.HasCode(err, registry.ErrUnknownProbe))

	err = r.Set("MAX31850", "28-000001", registry.Float(1))
	assert.True(t, errors.HasCode(err, registry.ErrUnknownProbe))

	assert.Equal(t, 3, r.Snapshot().Len(), "unknown keys must not be inserted")
}

func TestSnapshotIsACopy(t *testing.T) {
	r := populated(t)
	require.NoError(t, r.Set(ds18b20, "28-000001", registry.Float(10)))

	snap := r.Snapshot()
	snap[ds18b20]["28-000001"] = registry.Float(99)

	require.NoError(t, r.Set(ds18b20, "28-000001", registry.Float(11)))
	v, _ := snap[ds18b20]["28-000001"].Value()
	assert.InDelta(t, 99.0, v, 1e-9)

	v, _ = r.Snapshot()[ds18b20]["28-000001"].Value()
	assert.InDelta(t, 11.0, v, 1e-9)
}

func TestReset(t *testing.T) {
	r := populated(t)
	for _, k := range r.Keys() {
		require.NoError(t, r.Set(k.Family, k.ID, registry.Float(30)))
	}

	r.Reset()

	snap := r.Snapshot()
	assert.Equal(t, 3, snap.Len())
	for _, k := range r.Keys() {
		reading, ok := snap.Get(k)
		require.True(t, ok)
		assert.True(t, reading.IsAbsent(), k.Column())
	}
}

func TestConcurrentSetsAreNotLost(t *testing.T) {
	const writers = 32

	ids := make([]registry.ProbeID, writers)
	for i := range ids {
		ids[i] = registry.ProbeID(fmt.Sprintf("28-%06d", i))
	}
	r := registry.New()
	require.NoError(t, r.AddFamily(ds18b20, ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id registry.ProbeID) {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				assert.NoError(t, r.Set(ds18b20, id, registry.Int(int64(i))))
				_ = r.Snapshot()
			}
		}(i, id)
	}
	wg.Wait()

	snap := r.Snapshot()
	for i, id := range ids {
		v, ok := snap[ds18b20][id].Value()
		require.True(t, ok, id)
		assert.InDelta(t, float64(i), v, 1e-9)
	}
}

func TestReadingString(t *testing.T) {
	assert.Equal(t, "", registry.Absent().String())
	assert.Equal(t, "22", registry.Int(22).String())
	assert.Equal(t, "-3", registry.Int(-3).String())
	assert.Equal(t, "21.5", registry.Float(21.5).String())
	assert.Equal(t, "22.0", registry.Float(22).String())
	assert.Equal(t, "-0.062", registry.Float(-0.062).String())
}

func TestNormalizeFamily(t *testing.T) {
	assert.Equal(t, ds18b20, registry.NormalizeFamily(" ds18b20 "))
	assert.Equal(t, "DS18B20_28-000001", registry.Key{Family: ds18b20, ID: "28-000001"}.Column())
}
