package onewire

import (
	"context"

	"codeberg.org/mutker/thermlog/internal/registry"
)

// Detector checks bus prerequisites and lists the probes of a family.
type Detector interface {
	// Supports reports whether the family is known to this detector.
	Supports(family registry.Family) bool
	// PrerequisitesMet reports whether the bus for family is usable.
	PrerequisitesMet(family registry.Family) bool
	// EnumerateProbes lists the attached probes of family.
	EnumerateProbes(family registry.Family) ([]registry.ProbeID, error)
}

// Sampler reads the current value of one probe.
type Sampler interface {
	Sample(ctx context.Context, family registry.Family, id registry.ProbeID) (registry.Reading, error)
}
