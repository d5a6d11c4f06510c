package transfer

import (
	"errors"

	"github.com/ironsheep/color-transfer/internal/imaging"
)

var (
	// ErrResourceExhausted is returned when a processing tier would not fit
	// in the available heap. The fallback ladder recovers it by moving to a
	// smaller tier; callers only see it once the smallest tier fails, in
	// which case the unmodified input is the safe result.
	ErrResourceExhausted = errors.New("transfer: resource exhausted")

	// ErrUnavailable signals that a Filter cannot run, for example because
	// the GPU host failed to initialize. No pixels are returned with it.
	ErrUnavailable = errors.New("transfer: filter unavailable")

	// ErrNoReference is returned when reference statistics cannot be
	// produced because the reference image is missing or unreadable.
	ErrNoReference = errors.New("transfer: no reference statistics")

	// ErrEmptyImage is returned when statistics are requested for an image
	// without pixels.
	ErrEmptyImage = errors.New("transfer: empty image")

	// ErrInvalidBuffer is the fatal error for corrupt pixel buffers.
	ErrInvalidBuffer = imaging.ErrInvalidBuffer
)
