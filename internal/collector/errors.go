package collector

import "codeberg.org/mutker/thermlog/internal/errors"

const (
	ErrInvalidFamilies     = errors.ErrInvalidFamilies
	ErrPrerequisitesFailed = errors.ErrPrerequisitesFailed
	ErrNoProbesFound       = errors.ErrNoProbesFound
	ErrInvalidOptions      = errors.ErrorCode("collector_invalid_options")
	ErrNotReady            = errors.ErrorCode("collector_not_ready")
)
