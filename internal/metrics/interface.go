package metrics

import "codeberg.org/mutker/thermlog/internal/registry"

// Writer publishes snapshots and exporter counters.
type Writer interface {
	// Write updates the probe gauges from snap and rewrites the textfile.
	Write(snap registry.Snapshot) error
	CSVRowWritten()
	CSVRowDropped()
}

type Config struct {
	Path    string
	Enabled bool
}
