//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/obinnaokechukwu/ffnative/native"
)

// Common FFmpeg error codes (AVERROR values)
const (
	AVERROR_EOF         int32 = -541478725             // End of file
	AVERROR_EAGAIN      int32 = -int32(syscall.EAGAIN) // Resource temporarily unavailable
	AVERROR_EINVAL      int32 = -int32(syscall.EINVAL) // Invalid argument
	AVERROR_ENOMEM      int32 = -int32(syscall.ENOMEM) // Out of memory
	AVERROR_INVALIDDATA int32 = -1094995529            // Invalid data
	AVERROR_BUG         int32 = -558323010             // Bug detected
	AVERROR_UNKNOWN     int32 = -1313558101            // Unknown error
)

// Error represents an FFmpeg error.
type Error struct {
	Code    int32  // Raw FFmpeg error code
	Message string // Human-readable message
	Op      string // Operation that failed
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("ffmpeg %s: %s (code %d)", e.Op, e.Message, e.Code)
}

// Unwrap maps AVERROR(ENOMEM) onto native.ErrAllocationFailure so callers
// handle FFmpeg and core allocation failures the same way.
func (e *Error) Unwrap() error {
	if e.Code == AVERROR_ENOMEM {
		return native.ErrAllocationFailure
	}
	return nil
}

// NewError creates a new FFmpeg error from an error code.
// Returns nil if code >= 0.
func NewError(code int32, op string) error {
	if code >= 0 {
		return nil
	}
	return &Error{
		Code:    code,
		Message: ErrorString(code),
		Op:      op,
	}
}

// IsEOF returns true if the error indicates end of file.
func IsEOF(err error) bool {
	return Code(err) == AVERROR_EOF
}

// IsAgain returns true if the error indicates to try again (EAGAIN).
func IsAgain(err error) bool {
	return Code(err) == AVERROR_EAGAIN
}

// Code returns the FFmpeg error code from an error, or 0 if not an FFmpeg error.
func Code(err error) int32 {
	var ffErr *Error
	if errors.As(err, &ffErr) {
		return ffErr.Code
	}
	return 0
}
