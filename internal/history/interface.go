package history

import (
	"context"
	"time"

	"codeberg.org/mutker/thermlog/internal/registry"
)

// Recorder stores exported snapshots.
type Recorder interface {
	Record(ctx context.Context, at time.Time, snap registry.Snapshot) error
	Close() error
}

// Repository is the storage behind a Recorder.
type Repository interface {
	Store(rows []Row) error
	Close() error
}

// Row is one probe value at one export. Value is nil for an absent reading.
type Row struct {
	Timestamp time.Time
	Family    registry.Family
	Probe     registry.ProbeID
	Value     *float64
}

// Rows flattens snap into rows stamped with at, ordered by family and probe.
func Rows(at time.Time, snap registry.Snapshot) []Row {
	rows := make([]Row, 0, snap.Len())
	for _, family := range sortedFamilies(snap) {
		for _, id := range sortedProbes(snap[family]) {
			row := Row{Timestamp: at, Family: family, Probe: id}
			if v, ok := snap[family][id].Value(); ok {
				row.Value = &v
			}
			rows = append(rows, row)
		}
	}

	return rows
}
