package registry

import "codeberg.org/mutker/thermlog/internal/errors"

const (
	ErrEmptyFamily     = errors.ErrorCode("registry_empty_family")
	ErrNoProbes        = errors.ErrorCode("registry_no_probes")
	ErrDuplicateFamily = errors.ErrorCode("registry_duplicate_family")
	ErrDuplicateProbe  = errors.ErrorCode("registry_duplicate_probe")
	ErrUnknownProbe    = errors.ErrorCode("registry_unknown_probe")
)
