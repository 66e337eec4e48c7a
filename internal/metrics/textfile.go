// Package metrics publishes probe readings in the Prometheus text format for
// the node_exporter textfile collector.
package metrics

import (
	"os"
	"path/filepath"

	"codeberg.org/mutker/thermlog/internal/errors"
	"codeberg.org/mutker/thermlog/internal/logger"
	"codeberg.org/mutker/thermlog/internal/registry"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace      = "thermlog"
	defaultDirPerm = 0o755
)

type textfile struct {
	path   string
	logger logger.Logger
	reg    *prometheus.Registry

	temperature *prometheus.GaugeVec
	present     *prometheus.GaugeVec
	csvWritten  prometheus.Counter
	csvDropped  prometheus.Counter
}

type noopWriter struct{}

// New returns a Writer for cfg, or one that does nothing when cfg is
// disabled.
func New(cfg Config, log logger.Logger) (Writer, error) {
	errFactory := errors.New()

	if log == nil {
		log = logger.Nop()
	}
	if !cfg.Enabled {
		log.Debug().Msg("Textfile metrics disabled")
		return noopWriter{}, nil
	}
	if cfg.Path == "" {
		return nil, errFactory.New(ErrInvalidPath)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrInvalidPath, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.Path,
			Error: err.Error(),
		})
	}

	t := &textfile{
		path:   cfg.Path,
		logger: log,
		reg:    prometheus.NewRegistry(),

		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "probe",
			Name:      "temperature_celsius",
			Help:      "Latest probe reading in degrees Celsius",
		}, []string{"family", "probe"}),

		present: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "probe",
			Name:      "reading_present",
			Help:      "Whether the probe had a reading at the last export (1=yes, 0=no)",
		}, []string{"family", "probe"}),

		csvWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "csv",
			Name:      "rows_written_total",
			Help:      "Total number of rows appended to the CSV export",
		}),

		csvDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "csv",
			Name:      "rows_dropped_total",
			Help:      "Total number of snapshots that could not be written to the CSV export",
		}),
	}

	for _, c := range []prometheus.Collector{t.temperature, t.present, t.csvWritten, t.csvDropped} {
		if err := t.reg.Register(c); err != nil {
			return nil, errFactory.Wrap(ErrRegisterFailed, err)
		}
	}

	log.Info().Str("path", cfg.Path).Msg("Textfile metrics initialized")

	return t, nil
}

func (t *textfile) Write(snap registry.Snapshot) error {
	for family, probes := range snap {
		for id, reading := range probes {
			labels := prometheus.Labels{"family": string(family), "probe": string(id)}

			v, ok := reading.Value()
			if !ok {
				t.temperature.Delete(labels)
				t.present.With(labels).Set(0)
				continue
			}
			t.temperature.With(labels).Set(v)
			t.present.With(labels).Set(1)
		}
	}

	// WriteToTextfile writes to a temporary file and renames it into place.
	if err := prometheus.WriteToTextfile(t.path, t.reg); err != nil {
		return errors.New().WithData(ErrWriteFailed, struct {
			Path  string
			Error string
		}{
			Path:  t.path,
			Error: err.Error(),
		})
	}

	t.logger.Debug().Str("path", t.path).Int("probes", snap.Len()).Msg("Textfile written")

	return nil
}

func (t *textfile) CSVRowWritten() {
	t.csvWritten.Inc()
}

func (t *textfile) CSVRowDropped() {
	t.csvDropped.Inc()
}

func (noopWriter) Write(registry.Snapshot) error { return nil }

func (noopWriter) CSVRowWritten() {}

func (noopWriter) CSVRowDropped() {}
