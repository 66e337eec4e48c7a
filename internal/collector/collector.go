// Package collector wires the probe detector, the reading registry and the
// export sinks together, and runs the poll and export loops.
package collector

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"codeberg.org/mutker/thermlog/internal/config"
	"codeberg.org/mutker/thermlog/internal/csvexport"
	"codeberg.org/mutker/thermlog/internal/errors"
	"codeberg.org/mutker/thermlog/internal/history"
	"codeberg.org/mutker/thermlog/internal/logger"
	"codeberg.org/mutker/thermlog/internal/metrics"
	"codeberg.org/mutker/thermlog/internal/onewire"
	"codeberg.org/mutker/thermlog/internal/registry"
)

const (
	logDateLayout = "2006-01-02"
	logTimeLayout = "15-04-05"
)

// Options are the collector's inputs. Config, Store, Detector and Sampler
// are required.
type Options struct {
	Families  []string
	Overrides config.Overrides
	Config    *config.Config
	Store     *config.Store
	Detector  onewire.Detector
	Sampler   onewire.Sampler

	// Logger, when set, is used as-is instead of building one from the
	// resolved log and console switches.
	Logger logger.Logger

	// Now and ProcessName default to time.Now and the running binary.
	Now         func() time.Time
	ProcessName string
}

// Collector owns the registry and the sinks for one run.
type Collector struct {
	opts  Options
	cfg   *config.Config
	now   func() time.Time
	state State

	log       logger.Logger
	logCloser io.Closer

	flags    config.Flags
	families []registry.Family
	registry *registry.Registry

	csv     *csvexport.Exporter
	history history.Recorder
	metrics metrics.Writer
}

// New checks opts and returns a collector in StateValidating.
func New(opts Options) (*Collector, error) {
	errFactory := errors.New()

	switch {
	case opts.Config == nil:
		return nil, errFactory.WithMessage(ErrInvalidOptions, "config is required")
	case opts.Store == nil:
		return nil, errFactory.WithMessage(ErrInvalidOptions, "config store is required")
	case opts.Detector == nil:
		return nil, errFactory.WithMessage(ErrInvalidOptions, "detector is required")
	case opts.Sampler == nil:
		return nil, errFactory.WithMessage(ErrInvalidOptions, "sampler is required")
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ProcessName == "" {
		opts.ProcessName = csvexport.ProcessName(os.Args[0])
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Collector{
		opts:     opts,
		cfg:      opts.Config,
		now:      opts.Now,
		state:    StateValidating,
		log:      log,
		registry: registry.New(),
		history:  noopHistory(),
		metrics:  noopMetrics(),
	}, nil
}

// Setup runs the startup sequence. Every error it returns is fatal; the
// recoverable ones are logged and the sequence continues.
func (c *Collector) Setup() error {
	if c.state != StateValidating {
		return errors.New().WithData(ErrNotReady, c.state.String())
	}

	families, err := ValidateFamilies(c.opts.Families)
	if err != nil {
		return err
	}
	c.families = families

	c.transition(StateResolvingConfig)
	if err := c.resolveConfig(); err != nil {
		return err
	}

	c.transition(StateDetectingProbes)
	detected, err := Detect(c.opts.Detector, c.families, c.log.With("detector"))
	if err != nil {
		return err
	}
	if len(detected) == 0 {
		c.log.Warn().Msg("No supported probe families requested, nothing will be sampled")
	}

	c.transition(StatePopulatingRegistry)
	for _, d := range detected {
		if err := c.registry.AddFamily(d.Family, d.Probes); err != nil {
			return err
		}
	}

	if c.flags.AnyExport() {
		c.transition(StateConfiguringExport)
		c.configureExport()
	}

	c.transition(StateDone)

	return nil
}

func (c *Collector) transition(next State) {
	c.log.Debug().
		Str("from", c.state.String()).
		Str("to", next.String()).
		Msg("Collector state changed")
	c.state = next
}

func (c *Collector) resolveConfig() error {
	flags, err := config.Resolve(c.opts.Store, c.opts.Overrides)
	if err != nil {
		return err
	}
	c.flags = flags

	if c.opts.Logger != nil {
		return nil
	}

	level, err := logger.ParseLevel(c.cfg.Collector.LogLevel)
	if err != nil {
		return err
	}

	opts := logger.Options{
		Console:   flags.Console,
		Level:     level,
		IsService: logger.IsService(),
	}
	if flags.Log {
		opts.File = LogFilePath(c.cfg.Collector.LogDir, c.now(), c.opts.ProcessName)
	}

	log, closer, err := logger.Init(opts)
	if err != nil {
		return err
	}
	c.log = log
	c.logCloser = closer

	c.log.Debug().
		Bool("log", flags.Log).
		Bool("console", flags.Console).
		Bool("csv", flags.CSV).
		Bool("sqlite", flags.SQLite).
		Bool("textfile", flags.Textfile).
		Str("log_file", opts.File).
		Msg("Switches resolved")

	return nil
}

// LogFilePath returns the log file of a run started at t.
func LogFilePath(dir string, t time.Time, processName string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s.txt", t.Format(logDateLayout), t.Format(logTimeLayout), processName))
}

// configureExport sets up every enabled sink. A sink that fails to start is
// logged and left disabled for the rest of the run.
func (c *Collector) configureExport() {
	if c.flags.CSV {
		exporter := csvexport.New(
			csvexport.WithLogger(c.log.With("csv")),
			csvexport.WithClock(c.now),
			csvexport.WithProcessName(c.opts.ProcessName),
		)
		schema := csvexport.NewSchema(c.registry.Keys())
		if err := exporter.Initialize(c.cfg.Collector.CSVPrefix, schema); err != nil {
			c.log.Error().Err(err).Msg("CSV export disabled")
		} else {
			c.csv = exporter
		}
	}

	if c.flags.SQLite {
		cfg := history.DefaultConfig()
		cfg.DBPath = c.cfg.Collector.SQLitePath
		cfg.Enabled = true

		rec, err := history.NewService(cfg, c.log.With("history"))
		if err != nil {
			c.log.Error().Err(err).Msg("SQLite history disabled")
		} else {
			c.history = rec
		}
	}

	if c.flags.Textfile {
		w, err := metrics.New(metrics.Config{
			Path:    c.cfg.Collector.TextfilePath,
			Enabled: true,
		}, c.log.With("metrics"))
		if err != nil {
			c.log.Error().Err(err).Msg("Textfile metrics disabled")
		} else {
			c.metrics = w
		}
	}
}

// State returns the current startup state.
func (c *Collector) State() State {
	return c.state
}

// Flags returns the resolved switches. Valid after Setup.
func (c *Collector) Flags() config.Flags {
	return c.flags
}

// Registry returns the shared reading registry.
func (c *Collector) Registry() *registry.Registry {
	return c.registry
}

// CSV returns the CSV exporter, or nil when CSV export is off.
func (c *Collector) CSV() *csvexport.Exporter {
	return c.csv
}

// Logger returns the logger configured during Setup.
func (c *Collector) Logger() logger.Logger {
	return c.log
}

// Close flushes and closes every sink and the log file.
func (c *Collector) Close() error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}

	if c.csv != nil {
		keep(c.csv.Close())
	}
	keep(c.history.Close())

	c.log.Info().Msg("Collector stopped")

	if c.logCloser != nil {
		keep(c.logCloser.Close())
		c.logCloser = nil
	}

	return first
}

func noopHistory() history.Recorder {
	rec, _ := history.NewService(history.Config{}, nil)
	return rec
}

func noopMetrics() metrics.Writer {
	w, _ := metrics.New(metrics.Config{}, nil)
	return w
}
