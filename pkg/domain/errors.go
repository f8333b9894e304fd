package domain

import "errors"

// ErrUnknownMode is returned when a mode name is not part of the active mode table.
var ErrUnknownMode = errors.New("unknown mode")

// ErrComponentNotFound is returned when no component matches a name or role.
var ErrComponentNotFound = errors.New("component not found")

// ErrNoModeInferred is returned when no mode applies to an acquisition request.
var ErrNoModeInferred = errors.New("no mode inferred")

// ErrConflictingTarget is returned when both a request and an explicit mode/detector are given.
var ErrConflictingTarget = errors.New("request and explicit mode or detector are mutually exclusive")

// ErrSuperseded resolves a queued path request that was replaced by a newer one before it started.
var ErrSuperseded = errors.New("superseded by a newer path request")

// ErrCancelled resolves a future whose work was cancelled before it started.
var ErrCancelled = errors.New("cancelled")

// ErrHardwareIO marks a recoverable hardware communication failure.
// Moves failing with it are logged and do not abort the rest of the path change.
var ErrHardwareIO = errors.New("hardware i/o error")

// ErrUnsupportedFamily is returned when no mode table exists for a microscope role.
var ErrUnsupportedFamily = errors.New("unsupported microscope family")

// ErrStateNotFound is returned when no path state is stored for an instrument.
var ErrStateNotFound = errors.New("path state not found")

// ErrClosed is returned when work is submitted to a stopped manager.
var ErrClosed = errors.New("path manager closed")

// IsRecoverable reports whether a move error should be logged and skipped
// instead of aborting the path change.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrHardwareIO) {
		return true
	}
	var r interface{ Recoverable() bool }
	if errors.As(err, &r) {
		return r.Recoverable()
	}
	return false
}
