// Package registry holds the latest reading of every detected probe.
//
// The table is populated once at startup with AddFamily and is then shared by
// the poller goroutines (Set) and the exporter (Snapshot). A single mutex
// covers the whole table; polling happens every few seconds, so contention
// does not matter.
package registry

import (
	"sync"

	"codeberg.org/mutker/thermlog/internal/errors"
)

// Registry maps family -> probe id -> latest reading.
type Registry struct {
	mu       sync.Mutex
	table    map[Family]map[ProbeID]Reading
	families []Family
	keys     []Key
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		table: make(map[Family]map[ProbeID]Reading),
	}
}

// AddFamily inserts family with every id set to absent.
//
// AddFamily takes no lock: it must only be called while the registry is being
// populated, before any goroutine calls Set, Snapshot or Reset. Once
// population is done the set of keys never changes.
func (r *Registry) AddFamily(family Family, ids []ProbeID) error {
	errFactory := errors.New()

	if family == "" {
		return errFactory.New(ErrEmptyFamily)
	}
	if len(ids) == 0 {
		return errFactory.WithData(ErrNoProbes, family)
	}
	if _, ok := r.table[family]; ok {
		return errFactory.WithData(ErrDuplicateFamily, family)
	}

	probes := make(map[ProbeID]Reading, len(ids))
	keys := make([]Key, 0, len(ids))
	for _, id := range ids {
		if _, ok := probes[id]; ok {
			return errFactory.WithData(ErrDuplicateProbe, Key{Family: family, ID: id})
		}
		probes[id] = Absent()
		keys = append(keys, Key{Family: family, ID: id})
	}

	r.table[family] = probes
	r.families = append(r.families, family)
	r.keys = append(r.keys, keys...)

	return nil
}

// Set replaces the reading stored for (family, id). Unknown keys are a
// programming error and leave the table untouched.
func (r *Registry) Set(family Family, id ProbeID, reading Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	probes, ok := r.table[family]
	if !ok {
		return errors.New().WithData(ErrUnknownProbe, Key{Family: family, ID: id})
	}
	if _, ok := probes[id]; !ok {
		return errors.New().WithData(ErrUnknownProbe, Key{Family: family, ID: id})
	}
	probes[id] = reading

	return nil
}

// Snapshot returns a deep copy of the table that is safe to read without
// further locking.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := make(Snapshot, len(r.table))
	for family, probes := range r.table {
		cp := make(map[ProbeID]Reading, len(probes))
		for id, reading := range probes {
			cp[id] = reading
		}
		s[family] = cp
	}

	return s
}

// Reset sets every entry of every family back to absent.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, probes := range r.table {
		for id := range probes {
			probes[id] = Absent()
		}
	}
}

// Keys returns every (family, id) pair in population order: families in the
// order they were added, ids in the order they were supplied.
func (r *Registry) Keys() []Key {
	keys := make([]Key, len(r.keys))
	copy(keys, r.keys)

	return keys
}

// Families returns the families in the order they were added.
func (r *Registry) Families() []Family {
	families := make([]Family, len(r.families))
	copy(families, r.families)

	return families
}

// Probes returns the ids of family in the order they were added.
func (r *Registry) Probes(family Family) []ProbeID {
	var ids []ProbeID
	for _, k := range r.keys {
		if k.Family == family {
			ids = append(ids, k.ID)
		}
	}

	return ids
}

// Len returns the number of probes across all families.
func (r *Registry) Len() int {
	return len(r.keys)
}
