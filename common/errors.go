// Package common provides shared constants, types, and utilities
// used across the IP Country Tray application.
package common

import "errors"

// Sentinel errors.
// These can be checked with errors.Is() for proper error handling.
var (
	// Lookup errors. Every one of them reduces to "absent" inside a poll cycle.
	ErrLookupTimeout       = errors.New("lookup timed out")
	ErrLookupFailed        = errors.New("lookup failed")
	ErrInvalidAddress      = errors.New("invalid public address")
	ErrInvalidCountry      = errors.New("invalid country code")
	ErrProviderUnavailable = errors.New("provider unavailable")

	// Monitor errors.
	ErrAlreadyRunning = errors.New("monitor already running")

	// Configuration errors.
	ErrConfigLoad    = errors.New("failed to load configuration")
	ErrConfigSave    = errors.New("failed to save configuration")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Secret storage errors.
	ErrSecretNotFound = errors.New("secret not found")
	ErrSecretStorage  = errors.New("failed to store secret")
	ErrEncryption     = errors.New("encryption error")
	ErrDecryption     = errors.New("decryption error")

	// Presentation errors.
	ErrNotifierUnavailable = errors.New("no notification service available")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
