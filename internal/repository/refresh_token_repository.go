package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/volunteerhub/volunteer-hub/internal/model"
)

// RefreshTokenRepo persists refresh-token digests. The raw token never
// reaches this layer except as its SHA-256 hash.
type RefreshTokenRepo struct{ DB *sql.DB }

func NewRefreshTokenRepo(db *sql.DB) *RefreshTokenRepo { return &RefreshTokenRepo{DB: db} }

// Store inserts a new active refresh-token row.
func (r *RefreshTokenRepo) Store(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time, device, ip string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at, device, ip_address) VALUES (?,?,?,?,?)",
		userID, tokenHash, expiresAt.UTC(), device, ip)
	return err
}

// GetByHash fetches a token row by digest without altering it. Used by
// logout, where revocation is a soft flag and ownership must be checked
// first.
func (r *RefreshTokenRepo) GetByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,token_hash,user_id,expires_at,revoked,device,ip_address,created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.ID, &t.TokenHash, &t.UserID, &t.ExpiresAt, &t.Revoked, &t.Device, &t.IPAddress, &t.CreatedAt)
	return t, err
}

// ConsumeByHash deletes the row for tokenHash and returns its final state,
// as a single atomic operation. Two callers racing on the same digest see
// exactly one winner; the loser gets sql.ErrNoRows. Rotation relies on
// this: the row must be gone before any further validation happens, so a
// replayed token can never mint a second session.
func (r *RefreshTokenRepo) ConsumeByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.RefreshToken{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var t model.RefreshToken
	err = tx.QueryRowContext(ctx,
		"SELECT id,token_hash,user_id,expires_at,revoked,device,ip_address,created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1 FOR UPDATE",
		tokenHash).Scan(&t.ID, &t.TokenHash, &t.UserID, &t.ExpiresAt, &t.Revoked, &t.Device, &t.IPAddress, &t.CreatedAt)
	if err != nil {
		return model.RefreshToken{}, err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE id=?", t.ID)
	if err != nil {
		return model.RefreshToken{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return model.RefreshToken{}, err
	} else if n == 0 {
		return model.RefreshToken{}, sql.ErrNoRows
	}
	if err = tx.Commit(); err != nil {
		return model.RefreshToken{}, err
	}
	return t, nil
}

// RevokeByID marks a single token as revoked. Unlike rotation's hard
// delete, logout leaves the row in place for audit.
func (r *RefreshTokenRepo) RevokeByID(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1 WHERE id=? AND revoked=0", id)
	return err
}

// RevokeAllForUser revokes every active token the user holds. Invoked on
// password change and password reset to end all other sessions.
func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1 WHERE user_id=? AND revoked=0", userID)
	return err
}
