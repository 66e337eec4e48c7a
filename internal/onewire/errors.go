package onewire

import "codeberg.org/mutker/thermlog/internal/errors"

const (
	ErrUnsupportedFamily = errors.ErrorCode("onewire_unsupported_family")
	ErrEnumerateFailed   = errors.ErrorCode("onewire_enumerate_failed")
	ErrReadFailed        = errors.ErrorCode("onewire_read_failed")
	ErrCRCMismatch       = errors.ErrorCode("onewire_crc_mismatch")
	ErrMalformedReading  = errors.ErrorCode("onewire_malformed_reading")
)
