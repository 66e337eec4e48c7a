package csvexport

import "codeberg.org/mutker/thermlog/internal/registry"

// FixedColumns lead every row, in this order.
var FixedColumns = []string{"id", "timestamp", "date", "time"}

// Schema is the ordered list of data columns. It is fixed when the file is
// created; every row is flattened by walking it.
type Schema struct {
	keys []registry.Key
}

// NewSchema copies keys into a schema.
func NewSchema(keys []registry.Key) Schema {
	cp := make([]registry.Key, len(keys))
	copy(cp, keys)

	return Schema{keys: cp}
}

// Keys returns a copy of the schema's keys in column order.
func (s Schema) Keys() []registry.Key {
	cp := make([]registry.Key, len(s.keys))
	copy(cp, s.keys)

	return cp
}

// Len returns the number of data columns.
func (s Schema) Len() int {
	return len(s.keys)
}

// Header returns the full header row.
func (s Schema) Header() []string {
	header := make([]string, 0, len(FixedColumns)+len(s.keys))
	header = append(header, FixedColumns...)
	for _, k := range s.keys {
		header = append(header, k.Column())
	}

	return header
}

// flatten returns the snapshot values in schema order. The snapshot must hold
// exactly the schema's keys.
func (s Schema) flatten(snap registry.Snapshot) ([]string, bool) {
	if snap.Len() != len(s.keys) {
		return nil, false
	}

	values := make([]string, 0, len(s.keys))
	for _, k := range s.keys {
		reading, ok := snap.Get(k)
		if !ok {
			return nil, false
		}
		values = append(values, reading.String())
	}

	return values, true
}
