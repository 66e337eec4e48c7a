package collector

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/thermlog/internal/errors"
	"codeberg.org/mutker/thermlog/internal/registry"
)

// Run starts one poller per family and, when any sink is enabled, the
// exporter. It blocks until ctx is cancelled. Sinks stay open; call Close.
func (c *Collector) Run(ctx context.Context) error {
	if c.state != StateDone {
		return errors.New().WithData(ErrNotReady, c.state.String())
	}

	poll := time.Duration(c.cfg.Collector.PollInterval) * time.Second
	export := time.Duration(c.cfg.Collector.ExportInterval) * time.Second

	c.log.Info().
		Int("families", len(c.registry.Families())).
		Int("probes", c.registry.Len()).
		Dur("poll_interval", poll).
		Dur("export_interval", export).
		Msg("Collector running")

	var wg sync.WaitGroup
	for _, family := range c.registry.Families() {
		wg.Add(1)
		go func(family registry.Family) {
			defer wg.Done()
			c.poller(ctx, family, poll)
		}(family)
	}

	if c.exporting() {
		c.exporter(ctx, export)
	} else {
		<-ctx.Done()
	}

	wg.Wait()
	c.log.Info().Msg("Collector loops stopped")

	return nil
}

func (c *Collector) exporting() bool {
	return c.csv != nil || c.flags.SQLite || c.flags.Textfile
}

func (c *Collector) poller(ctx context.Context, family registry.Family, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.PollOnce(ctx, family)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.PollOnce(ctx, family)
		}
	}
}

func (c *Collector) exporter(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.ExportOnce(ctx)
		}
	}
}

// PollOnce samples every probe of family and stores the readings. A probe
// that cannot be read keeps its previous value.
func (c *Collector) PollOnce(ctx context.Context, family registry.Family) {
	for _, id := range c.registry.Probes(family) {
		if ctx.Err() != nil {
			return
		}

		reading, err := c.opts.Sampler.Sample(ctx, family, id)
		if err != nil {
			c.log.Warn().
				Err(err).
				Str("family", string(family)).
				Str("probe", string(id)).
				Msg("Failed to read probe")
			continue
		}

		if err := c.registry.Set(family, id, reading); err != nil {
			c.log.Error().Err(err).Msg("Failed to store reading")
			continue
		}

		c.log.Debug().
			Str("family", string(family)).
			Str("probe", string(id)).
			Str("value", reading.String()).
			Msg("Probe read")
	}
}

// ExportOnce takes one snapshot and hands it to every enabled sink. The
// registry lock is only held while copying; all I/O works on the copy.
func (c *Collector) ExportOnce(ctx context.Context) {
	snap := c.registry.Snapshot()
	now := c.now()

	if c.csv != nil {
		if err := c.csv.Append(snap); err != nil {
			c.log.Error().Err(err).Msg("CSV row dropped")
			c.metrics.CSVRowDropped()
		} else {
			c.metrics.CSVRowWritten()
		}
	}

	if err := c.history.Record(ctx, now, snap); err != nil {
		c.log.Error().Err(err).Msg("Failed to record history")
	}

	if err := c.metrics.Write(snap); err != nil {
		c.log.Error().Err(err).Msg("Failed to write textfile metrics")
	}

	if c.cfg.Collector.ResetAfterExport {
		c.registry.Reset()
	}
}
