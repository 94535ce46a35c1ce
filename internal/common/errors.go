// Package common defines shared constants and sentinel errors used across
// TaskVault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrNoStorageAvailable = errors.New("no storage tier available")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrValueTooLarge      = errors.New("value exceeds tier capacity")

	// Load/validation errors. Loads recover from these locally; they are
	// never surfaced to the UI layer.
	ErrMalformedState = errors.New("malformed state")

	// User-facing credential errors. Messages are stable and carry no
	// internal detail.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidInput       = errors.New("invalid input")

	// ErrUnknownHashVersion indicates a credential record with a hash
	// scheme this build does not know. It is propagated, never swallowed.
	ErrUnknownHashVersion = errors.New("unknown hash version")
)
