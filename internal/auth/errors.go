// Package auth implements the credential and token primitives of the
// backend: Argon2id password hashing, opaque token generation and
// digesting, and the signed access-token codec. It also defines the
// sentinel error kinds shared by the service layer. The package performs
// no I/O and encodes no transport concerns; handlers map these kinds to
// HTTP status codes.
package auth

import "errors"

var (
	// ErrInvalidCredentials covers "no such user", "wrong password" and
	// "provider-only account" on login. The cases are deliberately
	// indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotVerified is returned when a user authenticates correctly
	// but has never consumed a verification token.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrAccountDisabled is returned for deactivated accounts.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrTokenExpired marks a structurally valid token past its expiry.
	// It is a normal, retryable condition: clients holding an expired
	// access token should refresh, not re-authenticate.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed marks a token that could not be parsed.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenSignature marks a token whose signature did not verify.
	ErrTokenSignature = errors.New("token signature invalid")
	// ErrTokenInvalid is the merged user-facing kind for unknown, malformed
	// or wrong-signature tokens. The merge avoids giving token-guessing
	// callers an oracle.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenRevoked marks a refresh token that was explicitly revoked.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrForbidden is returned on role or ownership mismatches.
	ErrForbidden = errors.New("forbidden")
)
