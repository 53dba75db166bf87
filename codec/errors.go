package codec

import "errors"

var (
	// ErrCodecNotFound is returned when no codec is registered under a name.
	ErrCodecNotFound = errors.New("codec not found")

	// ErrCodecExists is returned when registering a name twice.
	ErrCodecExists = errors.New("codec already registered")

	// ErrTruncated is returned when compressed data ends before the plane is complete.
	ErrTruncated = errors.New("compressed data truncated")

	// ErrBadParams is returned for geometry or sample depths a codec cannot handle.
	ErrBadParams = errors.New("invalid codec parameters")
)
