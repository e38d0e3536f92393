package storage

import (
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned by KV.Get for a key that has never been set
var ErrKeyNotFound = errors.New("key not found")

// ErrQuotaExceeded is returned by a KV whose size limit a write would exceed
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// ErrUnavailable is returned by a KV that cannot be reached
var ErrUnavailable = errors.New("storage unavailable")

// Kind classifies a write failure
type Kind string

const (
	QuotaExceeded Kind = "quota_exceeded"
	Serialization Kind = "serialization"
	Unavailable   Kind = "unavailable"
)

// Error is a failed write through the gateway
type Error struct {
	Kind Kind
	Key  Key
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("writing %s (%s): %v", e.Key, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// DecodeError is a persisted value that could not be decoded
type DecodeError struct {
	Key Key
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// classify maps a KV write error onto a Kind
func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrQuotaExceeded):
		return QuotaExceeded
	default:
		return Unavailable
	}
}
