package registry

// Snapshot is a point-in-time copy of the registry. It is never mutated
// after Registry.Snapshot returns it.
type Snapshot map[Family]map[ProbeID]Reading

// Get returns the reading stored for k and whether k is present.
func (s Snapshot) Get(k Key) (Reading, bool) {
	probes, ok := s[k.Family]
	if !ok {
		return Reading{}, false
	}
	r, ok := probes[k.ID]

	return r, ok
}

// Len returns the number of leaf values.
func (s Snapshot) Len() int {
	n := 0
	for _, probes := range s {
		n += len(probes)
	}

	return n
}
