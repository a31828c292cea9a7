package auth

import "errors"

var (
	// ErrInvalidCredentials covers bad username/password at login as well as
	// malformed, forged or expired tokens. Deliberately coarse so callers
	// cannot probe which factor failed.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrInsufficientScope means the token is valid but does not grant every
	// scope the operation requires.
	ErrInsufficientScope = errors.New("auth: insufficient scope")

	// ErrAccountDisabled means the credentials resolved to an account that an
	// administrator has disabled.
	ErrAccountDisabled = errors.New("auth: account disabled")

	// ErrAccountExists is returned on a signup username collision.
	ErrAccountExists = errors.New("auth: account already exists")

	// ErrUnknownRole is returned when a role has no entry in the policy table.
	ErrUnknownRole = errors.New("auth: unknown role")

	ErrNotFound     = errors.New("auth: not found")
	ErrInvalidInput = errors.New("auth: invalid input")
)
