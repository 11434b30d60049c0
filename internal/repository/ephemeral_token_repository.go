package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/volunteerhub/volunteer-hub/internal/model"
)

// EphemeralTokenRepo persists the single-use verification and reset token
// digests. The two purposes share one table, namespaced by the purpose
// column.
type EphemeralTokenRepo struct{ DB *sql.DB }

func NewEphemeralTokenRepo(db *sql.DB) *EphemeralTokenRepo { return &EphemeralTokenRepo{DB: db} }

// Replace deletes any live token of the same purpose for the user and
// inserts the new digest, in one transaction. At most one live token per
// (user, purpose) exists at any time.
func (r *EphemeralTokenRepo) Replace(ctx context.Context, userID uint64, purpose model.TokenPurpose, tokenHash string, expiresAt time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx,
		"DELETE FROM ephemeral_tokens WHERE user_id=? AND purpose=?", userID, purpose); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"INSERT INTO ephemeral_tokens (user_id, purpose, token_hash, expires_at) VALUES (?,?,?,?)",
		userID, purpose, tokenHash, expiresAt.UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

// ConsumeByHash deletes the row matching the digest and purpose and
// returns its final state. The delete happens whether or not the token
// turns out to be expired; the service decides what the deletion meant.
// Absent rows surface as sql.ErrNoRows.
func (r *EphemeralTokenRepo) ConsumeByHash(ctx context.Context, purpose model.TokenPurpose, tokenHash string) (model.EphemeralToken, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.EphemeralToken{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var t model.EphemeralToken
	err = tx.QueryRowContext(ctx,
		"SELECT id,token_hash,user_id,purpose,expires_at,created_at FROM ephemeral_tokens WHERE token_hash=? AND purpose=? LIMIT 1 FOR UPDATE",
		tokenHash, purpose).Scan(&t.ID, &t.TokenHash, &t.UserID, &t.Purpose, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return model.EphemeralToken{}, err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM ephemeral_tokens WHERE id=?", t.ID)
	if err != nil {
		return model.EphemeralToken{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return model.EphemeralToken{}, err
	} else if n == 0 {
		return model.EphemeralToken{}, sql.ErrNoRows
	}
	if err = tx.Commit(); err != nil {
		return model.EphemeralToken{}, err
	}
	return t, nil
}
