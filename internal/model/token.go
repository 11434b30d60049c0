package model

import "time"

// TokenPurpose distinguishes the single-use token namespaces in the
// `ephemeral_tokens` table. A user holds at most one live token per purpose.
type TokenPurpose string

const (
	PurposeVerifyEmail   TokenPurpose = "VERIFY_EMAIL"
	PurposeResetPassword TokenPurpose = "RESET_PASSWORD"
)

// RefreshToken represents one active session grant as stored in the
// `refresh_tokens` table. Only the SHA-256 digest of the raw token is ever
// persisted; the raw value exists solely in the client's cookie. A row is
// hard-deleted the moment it is presented for rotation and soft-revoked on
// logout so that logouts stay visible for audit.
//
// Fields:
//  ID         – primary key of the refresh_tokens row.
//  TokenHash  – hex SHA-256 digest of the raw token, unique.
//  UserID     – owning user.
//  ExpiresAt  – UTC expiry; 1 or 30 days from issue depending on remember-me.
//  Revoked    – set on logout and on mass revocation after password changes.
//  Device     – user-agent string captured at issue time, optional.
//  IPAddress  – remote address captured at issue time, optional.
//  CreatedAt  – timestamp of creation.
type RefreshToken struct {
	ID        uint64    // refresh_tokens.id
	TokenHash string    // refresh_tokens.token_hash
	UserID    uint64    // refresh_tokens.user_id
	ExpiresAt time.Time // refresh_tokens.expires_at
	Revoked   bool      // refresh_tokens.revoked
	Device    string    // refresh_tokens.device
	IPAddress string    // refresh_tokens.ip_address
	CreatedAt time.Time // refresh_tokens.created_at
}

// EphemeralToken is a single-use, short-lived token digest scoped to one
// user and one purpose (email verification or password reset). Rows are
// deleted on consumption and on expiry detection.
type EphemeralToken struct {
	ID        uint64       // ephemeral_tokens.id
	TokenHash string       // ephemeral_tokens.token_hash
	UserID    uint64       // ephemeral_tokens.user_id
	Purpose   TokenPurpose // ephemeral_tokens.purpose
	ExpiresAt time.Time    // ephemeral_tokens.expires_at
	CreatedAt time.Time    // ephemeral_tokens.created_at
}
