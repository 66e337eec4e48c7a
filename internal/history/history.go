// Package history mirrors exported snapshots into a SQLite database.
package history

import (
	"context"
	"sort"
	"time"

	"codeberg.org/mutker/thermlog/internal/errors"
	"codeberg.org/mutker/thermlog/internal/logger"
	"codeberg.org/mutker/thermlog/internal/registry"
)

type service struct {
	repo Repository
}

type noopRecorder struct{}

// NewService returns a Recorder for cfg. A disabled configuration yields a
// recorder that drops everything.
func NewService(cfg Config, log logger.Logger) (Recorder, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}
	if log == nil {
		log = logger.Nop()
	}

	if !cfg.Enabled {
		log.Debug().Msg("History disabled, using no-op recorder")
		return noopRecorder{}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to create history repository")
		return nil, err
	}

	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, at time.Time, snap registry.Snapshot) error {
	errFactory := errors.New()

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
	}

	if err := s.repo.Store(Rows(at, snap)); err != nil {
		return errFactory.Wrap(ErrRecordFailed, err)
	}

	return nil
}

func (s *service) Close() error {
	if err := s.repo.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	return nil
}

func (noopRecorder) Record(context.Context, time.Time, registry.Snapshot) error {
	return nil
}

func (noopRecorder) Close() error {
	return nil
}

func sortedFamilies(snap registry.Snapshot) []registry.Family {
	families := make([]registry.Family, 0, len(snap))
	for f := range snap {
		families = append(families, f)
	}
	sort.Slice(families, func(i, j int) bool { return families[i] < families[j] })

	return families
}

func sortedProbes(probes map[registry.ProbeID]registry.Reading) []registry.ProbeID {
	ids := make([]registry.ProbeID, 0, len(probes))
	for id := range probes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}
