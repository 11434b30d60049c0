// Package service orchestrates the credential and token lifecycle: login,
// logout, refresh rotation, password change/reset, registration and email
// verification. It composes the auth primitives with the storage
// interfaces below and carries no transport concerns; handlers map the
// sentinel error kinds to HTTP statuses.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/volunteerhub/volunteer-hub/internal/auth"
	"github.com/volunteerhub/volunteer-hub/internal/model"
)

// UserStore is the slice of user persistence the auth flows need.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash, fullName, role string) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	SetEmailVerified(ctx context.Context, id uint64) error
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
	// ResetPassword must atomically update the digest, delete the user's
	// remaining reset tokens and revoke all refresh tokens.
	ResetPassword(ctx context.Context, id uint64, passwordHash string) error
	UpsertFederated(ctx context.Context, email, fullName, googleID string) (model.User, error)
}

// RefreshTokenStore persists session grants keyed by token digest.
// ConsumeByHash must be atomic: of two callers racing on the same digest,
// exactly one receives the row and the other sql.ErrNoRows.
type RefreshTokenStore interface {
	Store(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time, device, ip string) error
	GetByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	ConsumeByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	RevokeByID(ctx context.Context, id uint64) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// EphemeralTokenStore persists the single-use verification and reset
// tokens. ConsumeByHash deletes on find, whether or not the row turns out
// to be expired.
type EphemeralTokenStore interface {
	Replace(ctx context.Context, userID uint64, purpose model.TokenPurpose, tokenHash string, expiresAt time.Time) error
	ConsumeByHash(ctx context.Context, purpose model.TokenPurpose, tokenHash string) (model.EphemeralToken, error)
}

// Mailer delivers tokens out of band. Implementations must be safe to call
// from short-lived goroutines; the auth flows never wait on delivery.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, rawToken string) error
	SendPasswordResetEmail(ctx context.Context, to, rawToken string) error
}

// ephemeralTTL is the lifetime of verification and reset tokens.
const ephemeralTTL = time.Hour

// AuthService wires the token subsystem together. All fields are set at
// construction and never mutated.
type AuthService struct {
	Users     UserStore
	Sessions  RefreshTokenStore
	Ephemeral EphemeralTokenStore
	Mail      Mailer
	Hasher    *auth.Hasher
	Codec     *auth.Codec

	// RememberDays is the remember-me session window; sessions without
	// remember-me always get one day.
	RememberDays int
}

func NewAuthService(users UserStore, sessions RefreshTokenStore, ephemeral EphemeralTokenStore, mail Mailer, hasher *auth.Hasher, codec *auth.Codec, rememberDays int) *AuthService {
	return &AuthService{
		Users: users, Sessions: sessions, Ephemeral: ephemeral, Mail: mail,
		Hasher: hasher, Codec: codec, RememberDays: rememberDays,
	}
}

// Session is the outcome of login, federated login and refresh: the
// resolved user, a signed access token and a freshly issued raw refresh
// token with its cookie window in days.
type Session struct {
	User          model.User
	AccessToken   string
	AccessExpires time.Time
	RefreshToken  string
	ExpiryDays    int
}

// dummyDigest is a well-formed Argon2id digest of no password. Login
// verifies against it when the account is missing or has no password so
// both paths cost one full hash and stay indistinguishable by timing.
const dummyDigest = "$argon2id$v=19$m=65536,t=3,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Login authenticates email+password and issues a new session. The
// invalid-credentials cases (unknown email, provider-only account, wrong
// password) are indistinguishable by error and by timing.
func (s *AuthService) Login(ctx context.Context, email, password string, rememberMe bool, device, ip string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_, _ = s.Hasher.Verify(dummyDigest, password)
			return Session{}, auth.ErrInvalidCredentials
		}
		return Session{}, err
	}
	if u.PasswordHash == "" {
		// Provider-only account. Burn a hash anyway.
		_, _ = s.Hasher.Verify(dummyDigest, password)
		return Session{}, auth.ErrInvalidCredentials
	}
	ok, err := s.Hasher.Verify(u.PasswordHash, password)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, auth.ErrInvalidCredentials
	}
	if !u.IsEmailVerified {
		return Session{}, auth.ErrEmailNotVerified
	}
	if !u.IsActive {
		return Session{}, auth.ErrAccountDisabled
	}
	return s.issueSession(ctx, u, rememberMe, device, ip)
}

// LoginWithIdentity issues a session for an already-verified identity
// provider profile, creating or linking the account on first login. The
// OAuth dance itself happens upstream; this is only the callback contract.
func (s *AuthService) LoginWithIdentity(ctx context.Context, email, fullName, googleID, device, ip string) (Session, error) {
	u, err := s.Users.UpsertFederated(ctx, email, fullName, googleID)
	if err != nil {
		return Session{}, err
	}
	if !u.IsActive {
		return Session{}, auth.ErrAccountDisabled
	}
	return s.issueSession(ctx, u, true, device, ip)
}

// issueSession mints the refresh+access token pair for an authenticated
// user. The raw refresh token is returned here and nowhere else.
func (s *AuthService) issueSession(ctx context.Context, u model.User, rememberMe bool, device, ip string) (Session, error) {
	raw, days, err := s.issueRefresh(ctx, u.ID, rememberMe, device, ip)
	if err != nil {
		return Session{}, err
	}
	access, exp, err := s.Codec.Sign(u.ID, u.Role)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, AccessToken: access, AccessExpires: exp, RefreshToken: raw, ExpiryDays: days}, nil
}

func (s *AuthService) issueRefresh(ctx context.Context, userID uint64, rememberMe bool, device, ip string) (string, int, error) {
	raw, err := auth.GenerateToken(auth.TokenBytes)
	if err != nil {
		return "", 0, err
	}
	days := 1
	if rememberMe {
		days = s.RememberDays
	}
	expiresAt := time.Now().UTC().Add(time.Duration(days) * 24 * time.Hour)
	if err := s.Sessions.Store(ctx, userID, auth.DigestToken(raw), expiresAt, device, ip); err != nil {
		return "", 0, err
	}
	return raw, days, nil
}

// Refresh rotates a refresh token: the presented token's row is deleted
// atomically before any further validation, so a replayed or raced token
// observes "not found" and can never mint a second session. Validation
// then runs against the snapshot of the deleted row.
func (s *AuthService) Refresh(ctx context.Context, rawToken, device, ip string) (Session, error) {
	t, err := s.Sessions.ConsumeByHash(ctx, auth.DigestToken(rawToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, auth.ErrTokenInvalid
		}
		return Session{}, err
	}
	if t.Revoked {
		return Session{}, auth.ErrTokenRevoked
	}
	now := time.Now().UTC()
	if now.After(t.ExpiresAt) {
		return Session{}, auth.ErrTokenExpired
	}
	u, err := s.Users.GetByID(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, auth.ErrTokenInvalid
		}
		return Session{}, err
	}
	if !u.IsActive {
		return Session{}, auth.ErrAccountDisabled
	}
	// Preserve the session class: more than a day of validity left means
	// this was a remember-me session, so the replacement gets the full
	// window again.
	rememberMe := t.ExpiresAt.Sub(now) > 24*time.Hour
	return s.issueSession(ctx, u, rememberMe, device, ip)
}

// Logout revokes the presented refresh token for the requesting user.
// Revocation is a soft flag so the logout stays visible for audit. An
// unknown or already-revoked token returns ErrTokenInvalid; a token owned
// by someone else returns ErrForbidden and is left untouched.
func (s *AuthService) Logout(ctx context.Context, rawToken string, requestingUserID uint64) error {
	t, err := s.Sessions.GetByHash(ctx, auth.DigestToken(rawToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.ErrTokenInvalid
		}
		return err
	}
	if t.Revoked {
		return auth.ErrTokenInvalid
	}
	if t.UserID != requestingUserID {
		return auth.ErrForbidden
	}
	return s.Sessions.RevokeByID(ctx, t.ID)
}

// ChangePassword re-verifies the old password, stores the new digest and
// revokes every refresh token the user holds. Unlike login, a wrong old
// password is reported as such immediately: the caller is already
// authenticated, so there is nothing to enumerate.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.PasswordHash == "" {
		return auth.ErrInvalidCredentials
	}
	ok, err := s.Hasher.Verify(u.PasswordHash, oldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return auth.ErrInvalidCredentials
	}
	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.Users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	// Changing your password ends every other session.
	return s.Sessions.RevokeAllForUser(ctx, userID)
}

// RequestPasswordReset issues a reset token and queues the email when the
// address belongs to an account. It reports success either way and keeps
// the miss path doing comparable work, so callers cannot probe which
// addresses exist.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if raw, genErr := auth.GenerateToken(auth.TokenBytes); genErr == nil {
				auth.DigestToken(raw)
			}
			return nil
		}
		return err
	}
	raw, err := auth.GenerateToken(auth.TokenBytes)
	if err != nil {
		return err
	}
	exp := time.Now().UTC().Add(ephemeralTTL)
	if err := s.Ephemeral.Replace(ctx, u.ID, model.PurposeResetPassword, auth.DigestToken(raw), exp); err != nil {
		return err
	}
	s.dispatchMail(u.Email, raw, model.PurposeResetPassword)
	return nil
}

// PerformPasswordReset consumes the reset token (single use, deleted even
// when expired) and commits the password update together with mass session
// revocation. A consumed token whose reset write fails is burned: the flow
// fails closed and the user requests a new link.
func (s *AuthService) PerformPasswordReset(ctx context.Context, rawToken, newPassword string) error {
	t, err := s.Ephemeral.ConsumeByHash(ctx, model.PurposeResetPassword, auth.DigestToken(rawToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.ErrTokenInvalid
		}
		return err
	}
	if time.Now().UTC().After(t.ExpiresAt) {
		return auth.ErrTokenExpired
	}
	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.Users.ResetPassword(ctx, t.UserID, hash)
}

// Register creates an unverified account and queues the verification
// email. Only volunteer and manager roles are self-assignable.
func (s *AuthService) Register(ctx context.Context, email, password, fullName, role string) (model.User, error) {
	role = strings.ToUpper(strings.TrimSpace(role))
	if role != model.RoleManager {
		role = model.RoleVolunteer
	}
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return model.User{}, err
	}
	uid, err := s.Users.Create(ctx, email, hash, fullName, role)
	if err != nil {
		return model.User{}, err
	}
	u, err := s.Users.GetByID(ctx, uid)
	if err != nil {
		return model.User{}, err
	}
	raw, err := auth.GenerateToken(auth.TokenBytes)
	if err != nil {
		return model.User{}, err
	}
	exp := time.Now().UTC().Add(ephemeralTTL)
	if err := s.Ephemeral.Replace(ctx, uid, model.PurposeVerifyEmail, auth.DigestToken(raw), exp); err != nil {
		return model.User{}, err
	}
	s.dispatchMail(u.Email, raw, model.PurposeVerifyEmail)
	return u, nil
}

// VerifyEmail consumes a verification token and flags the account
// verified.
func (s *AuthService) VerifyEmail(ctx context.Context, rawToken string) error {
	t, err := s.Ephemeral.ConsumeByHash(ctx, model.PurposeVerifyEmail, auth.DigestToken(rawToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.ErrTokenInvalid
		}
		return err
	}
	if time.Now().UTC().After(t.ExpiresAt) {
		return auth.ErrTokenExpired
	}
	return s.Users.SetEmailVerified(ctx, t.UserID)
}

// dispatchMail hands the raw token to the mailer on a detached goroutine.
// Delivery failures are logged and never fail or delay the request that
// issued the token; the user can always request a fresh one.
func (s *AuthService) dispatchMail(to, rawToken string, purpose model.TokenPurpose) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		var err error
		if purpose == model.PurposeVerifyEmail {
			err = s.Mail.SendVerificationEmail(ctx, to, rawToken)
		} else {
			err = s.Mail.SendPasswordResetEmail(ctx, to, rawToken)
		}
		if err != nil {
			log.Printf("auth: %s mail dispatch failed for %s: %v", purpose, to, err)
		}
	}()
}
