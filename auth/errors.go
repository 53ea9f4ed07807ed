package auth

import "errors"

// Stable error taxonomy for the authorization and session subsystem. Every
// failure is terminal for the current request; nothing here retries.
var (
	// ErrAuthenticationFailed covers unknown usernames and bad passwords
	// alike, so login responses never reveal which of the two it was.
	ErrAuthenticationFailed = errors.New("auth: authentication failed")
	ErrAccountDisabled      = errors.New("auth: account disabled")
	ErrAccountLocked        = errors.New("auth: account locked")

	ErrTokenExpired  = errors.New("auth: token expired")
	ErrTokenRevoked  = errors.New("auth: token revoked")
	ErrTokenNotFound = errors.New("auth: token not found")

	ErrAccessDenied = errors.New("auth: access denied")
	// ErrResourceNotFound masks ErrAccessDenied on read-by-id paths so the
	// existence of out-of-scope resources is not leaked.
	ErrResourceNotFound = errors.New("auth: resource not found")
)
