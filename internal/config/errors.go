package config

import "codeberg.org/mutker/thermlog/internal/errors"

const (
	ErrInvalidConfig   = errors.ErrInvalidConfig
	ErrReadConfig      = errors.ErrReadConfig
	ErrWriteConfig     = errors.ErrWriteConfig
	ErrInvalidBool     = errors.ErrInvalidBool
	ErrInvalidInterval = errors.ErrInvalidInterval
	ErrBindFlags       = errors.ErrorCode("bind_flags_failed")
)
