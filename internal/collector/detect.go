package collector

import (
	"strings"

	"codeberg.org/mutker/thermlog/internal/errors"
	"codeberg.org/mutker/thermlog/internal/logger"
	"codeberg.org/mutker/thermlog/internal/onewire"
	"codeberg.org/mutker/thermlog/internal/registry"
)

// Detected is one family found on the bus together with its probes.
type Detected struct {
	Family registry.Family
	Probes []registry.ProbeID
}

// ValidateFamilies normalizes the requested family names. The list must be
// non-empty and no name may be blank. Repeated names are collapsed, keeping
// the first occurrence.
func ValidateFamilies(names []string) ([]registry.Family, error) {
	errFactory := errors.New()

	if len(names) == 0 {
		return nil, errFactory.WithMessage(ErrInvalidFamilies, "no probe families requested")
	}

	seen := make(map[registry.Family]bool, len(names))
	families := make([]registry.Family, 0, len(names))
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, errFactory.WithData(ErrInvalidFamilies, struct {
				Index int
				Value string
			}{
				Index: i,
				Value: name,
			})
		}

		f := registry.NormalizeFamily(name)
		if seen[f] {
			continue
		}
		seen[f] = true
		families = append(families, f)
	}

	return families, nil
}

// Detect checks prerequisites and enumerates probes for every family.
// Families the detector does not know are skipped with a warning. A known
// family whose bus is not ready, or that has no probes, is an error.
func Detect(det onewire.Detector, families []registry.Family, log logger.Logger) ([]Detected, error) {
	errFactory := errors.New()

	if log == nil {
		log = logger.Nop()
	}

	detected := make([]Detected, 0, len(families))
	for _, family := range families {
		if !det.Supports(family) {
			log.Warn().Str("family", string(family)).Msg("Unsupported probe family, skipping")
			continue
		}

		if !det.PrerequisitesMet(family) {
			return nil, errFactory.WithData(ErrPrerequisitesFailed, family)
		}

		ids, err := det.EnumerateProbes(family)
		if err != nil {
			return nil, errFactory.WithData(ErrNoProbesFound, struct {
				Family string
				Error  string
			}{
				Family: string(family),
				Error:  err.Error(),
			})
		}
		if len(ids) == 0 {
			return nil, errFactory.WithData(ErrNoProbesFound, family)
		}

		log.Info().
			Str("family", string(family)).
			Int("count", len(ids)).
			Msg("Probes detected")

		detected = append(detected, Detected{Family: family, Probes: ids})
	}

	return detected, nil
}
