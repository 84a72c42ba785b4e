package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown accounts and wrong passwords;
	// callers must not distinguish the two in client-visible output.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionInvalid indicates the presented refresh token does not match the
	// persisted session, or the session was revoked.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrTokenExpired indicates a token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed indicates a token whose payload could not be decoded.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenInvalid indicates a signature mismatch or wrong token kind.
	ErrTokenInvalid = errors.New("token invalid")
)
