package domain

import "errors"

var (
	// ErrAuthentication means the credential was invalid or expired at connect
	// time. Terminal for that connection attempt.
	ErrAuthentication = errors.New("authentication failed")
	// ErrAuthorization means the caller is not a participant of the
	// conversation it tried to act on. The connection stays open.
	ErrAuthorization = errors.New("not a conversation participant")
	// ErrValidation means malformed input (empty or oversized content).
	// Rejected with no side effects.
	ErrValidation = errors.New("invalid input")
	// ErrNotFound means a referenced conversation or user does not exist.
	ErrNotFound = errors.New("not found")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotALawyer         = errors.New("user is not a lawyer")
)
