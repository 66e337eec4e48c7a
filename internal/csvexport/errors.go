package csvexport

import "codeberg.org/mutker/thermlog/internal/errors"

const (
	ErrInitFailed      = errors.ErrorCode("csv_init_failed")
	ErrNotInitialized  = errors.ErrorCode("csv_not_initialized")
	ErrColumnMismatch  = errors.ErrorCode("csv_column_mismatch")
	ErrCountRowsFailed = errors.ErrorCode("csv_count_rows_failed")
	ErrWriteFailed     = errors.ErrorCode("csv_write_failed")
	ErrCloseFailed     = errors.ErrorCode("csv_close_failed")
)
