package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfig marks invalid stage configuration detected at construction.
	ErrConfig = errors.New("invalid stage configuration")
	// ErrNoInput marks a run whose input queries resolved to no elements.
	ErrNoInput = errors.New("no input elements")
	// ErrStorageCorrupted marks an input location that is unreadable or inconsistent.
	ErrStorageCorrupted = errors.New("storage corrupted")
	// ErrSkip marks an element the extension point chose not to process.
	ErrSkip = errors.New("element skipped")
	// ErrRetry marks a transient per-element failure worth reattempting.
	ErrRetry = errors.New("element retryable")
)

// Class is the retry-policy-facing classification of a per-element error.
type Class int

const (
	// ClassNone means no error.
	ClassNone Class = iota
	// ClassSkip means the element is done, intentionally unprocessed.
	ClassSkip
	// ClassRetry means the attempt may be repeated.
	ClassRetry
	// ClassFatal means the error aborts the whole run before dispatch.
	ClassFatal
	// ClassUnclassified means the error carries no known marker.
	ClassUnclassified
)

// Classify maps an error to the retry policy's state-machine input.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, ErrSkip):
		return ClassSkip
	case errors.Is(err, ErrRetry):
		return ClassRetry
	case errors.Is(err, ErrConfig), errors.Is(err, ErrNoInput), errors.Is(err, ErrStorageCorrupted):
		return ClassFatal
	default:
		return ClassUnclassified
	}
}

// Skipf builds a skip error with the given reason.
func Skipf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSkip, fmt.Sprintf(format, args...))
}

// Retryf builds a retryable error with the given reason.
func Retryf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRetry, fmt.Sprintf(format, args...))
}

// Configf builds a construction-time configuration error.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// Wrap tags err with marker while preserving both chains for errors.Is. The
// marker should be one of the exported sentinels above.
func Wrap(marker error, message string, err error) error {
	detail := strings.TrimSpace(message)
	if marker == nil {
		marker = ErrRetry
	}
	if err == nil {
		if detail == "" {
			return marker
		}
		return fmt.Errorf("%w: %s", marker, detail)
	}
	if detail == "" {
		return fmt.Errorf("%w: %w", marker, err)
	}
	return fmt.Errorf("%w: %s: %w", marker, detail, err)
}
