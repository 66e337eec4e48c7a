package metrics

import "codeberg.org/mutker/thermlog/internal/errors"

const (
	ErrInvalidPath    = errors.ErrorCode("metrics_invalid_textfile_path")
	ErrRegisterFailed = errors.ErrorCode("metrics_register_failed")
	ErrWriteFailed    = errors.ErrorCode("metrics_write_failed")
)
