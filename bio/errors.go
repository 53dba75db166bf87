package bio

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned when a handler is queried before a successful Open.
	ErrNotInitialized = errors.New("handler has not been initialized with a file")

	// ErrUnsupported marks a recognized but unsupported feature, e.g., a compression scheme.
	ErrUnsupported = errors.New("unsupported feature")
)

// SignatureError reports that an input does not carry a handler's expected leading bytes.
// The detection cascade treats it as "try the next handler".
type SignatureError struct {
	Format string
	Name   string
}

func (e *SignatureError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("input is not a valid %s file", e.Format)
	}
	return fmt.Sprintf("%s is not a valid %s file", e.Name, e.Format)
}

// DecodeError reports a structurally invalid body in a file whose signature matched.
type DecodeError struct {
	File   string
	Offset int64 // negative when the offset is unknown
	Cause  error
}

func (e *DecodeError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("bad data in %s: %v", e.File, e.Cause)
	}
	return fmt.Sprintf("bad data in %s at offset %d: %v", e.File, e.Offset, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// NewDecodeError returns a DecodeError with a formatted cause.
func NewDecodeError(file string, offset int64, format string, args ...interface{}) error {
	return &DecodeError{File: file, Offset: offset, Cause: fmt.Errorf(format, args...)}
}

// WrapDecodeError annotates err with file and offset unless it already is a DecodeError.
func WrapDecodeError(file string, offset int64, err error) error {
	if err == nil {
		return nil
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{File: file, Offset: offset, Cause: err}
}

// MissingFileError reports that a companion file of a grouped dataset is absent.
type MissingFileError struct {
	File    string
	Dataset string
}

func (e *MissingFileError) Error() string {
	if e.Dataset == "" {
		return fmt.Sprintf("companion file %s not found", e.File)
	}
	return fmt.Sprintf("companion file %s of dataset %s not found", e.File, e.Dataset)
}

// RangeError reports a plane index, coordinate or region outside the valid bounds.
type RangeError struct {
	Msg string
}

func (e *RangeError) Error() string {
	return "out of range: " + e.Msg
}

// NewRangeError returns a RangeError with a formatted message.
func NewRangeError(format string, args ...interface{}) error {
	return &RangeError{Msg: fmt.Sprintf(format, args...)}
}

// SeekError reports a predictive codec asked to decode a plane out of sequence
// when the format allows no reference frame fallback.
type SeekError struct {
	Codec string
	Plane int
	Last  int // last decoded plane or -1
}

func (e *SeekError) Error() string {
	return fmt.Sprintf("%s cannot decode plane %d without its predecessor (last decoded %d)",
		e.Codec, e.Plane, e.Last)
}

func IsSignature(err error) bool {
	var e *SignatureError
	return errors.As(err, &e)
}

func IsDecode(err error) bool {
	var e *DecodeError
	return errors.As(err, &e)
}

func IsMissingFile(err error) bool {
	var e *MissingFileError
	return errors.As(err, &e)
}

func IsRange(err error) bool {
	var e *RangeError
	return errors.As(err, &e)
}

func IsSeek(err error) bool {
	var e *SeekError
	return errors.As(err, &e)
}
