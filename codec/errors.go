package codec

import (
	"errors"
	"fmt"
)

// ErrConfig is returned for invalid, missing or unsupported params.
type ErrConfig struct {
	Err error
}

func (e ErrConfig) Error() string {
	return fmt.Sprintf("invalid codec configuration: %v", e.Err)
}

func (e ErrConfig) Unwrap() error {
	return e.Err
}

// ErrFatal is how an engine marks an error after which its context is
// unusable (memory allocation failure, corrupted state, ...).
type ErrFatal struct {
	Err error
}

func (e ErrFatal) Error() string {
	return fmt.Sprintf("fatal: %v", e.Err)
}

func (e ErrFatal) Unwrap() error {
	return e.Err
}

func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return ErrFatal{Err: err}
}

func IsFatal(err error) bool {
	return errors.As(err, &ErrFatal{})
}

// ErrEngine is an error reported by the engine while processing a unit
// (or while draining, then Timestamp is meaningless).
type ErrEngine struct {
	Err       error
	Timestamp int64
	Fatal     bool
}

func (e ErrEngine) Error() string {
	if e.Fatal {
		return fmt.Sprintf("fatal engine error (ts:%d): %v", e.Timestamp, e.Err)
	}
	return fmt.Sprintf("engine error (ts:%d): %v", e.Timestamp, e.Err)
}

func (e ErrEngine) Unwrap() error {
	return e.Err
}

var (
	ErrNotConfigured = errors.New("the codec is not configured")
)
