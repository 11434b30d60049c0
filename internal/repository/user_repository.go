package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/volunteerhub/volunteer-hub/internal/model"
)

const userColumns = "id,email,COALESCE(password_hash,''),full_name,role,is_active,is_email_verified,COALESCE(google_id,''),location,phone_number,bio,created_at,updated_at"

// UserRepo provides data access to the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive,
		&u.IsEmailVerified, &u.GoogleID, &u.Location, &u.PhoneNumber, &u.Bio,
		&u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a user with an already-hashed password and returns its ID.
// New accounts start unverified and active; login is gated on verification
// by the service layer.
func (r *UserRepo) Create(ctx context.Context, email, passwordHash, fullName, role string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, full_name, role) VALUES (?,?,?,?)",
		email, passwordHash, fullName, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// SetEmailVerified flags the user as verified after a verification token
// was consumed.
func (r *UserRepo) SetEmailVerified(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_email_verified=1 WHERE id=?", id)
	return err
}

// UpdatePassword replaces the stored password digest.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", passwordHash, id)
	return err
}

// UpdateProfile persists the mutable profile fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, fullName, location, phone, bio string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET full_name=?, location=?, phone_number=?, bio=? WHERE id=?",
		fullName, location, phone, bio, id)
	return err
}

// ResetPassword performs the password-reset write as one transaction:
// update the digest, delete the consumed user's remaining reset tokens and
// revoke every active refresh token. A crash between the password update
// and the session revocation would leave stale sessions valid against the
// new password, so the three statements commit together or not at all.
func (r *UserRepo) ResetPassword(ctx context.Context, id uint64, passwordHash string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", passwordHash, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"DELETE FROM ephemeral_tokens WHERE user_id=? AND purpose=?",
		id, model.PurposeResetPassword); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1 WHERE user_id=? AND revoked=0", id); err != nil {
		return err
	}
	return tx.Commit()
}

// UpsertFederated links a federated identity to an account on first
// provider login. An existing account gains the provider subject id; a new
// account is created active and verified with no password digest.
func (r *UserRepo) UpsertFederated(ctx context.Context, email, fullName, googleID string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := r.GetByEmail(ctx, email)
	if err == nil {
		if u.GoogleID == "" {
			if _, err = r.DB.ExecContext(ctx,
				"UPDATE users SET google_id=? WHERE id=?", googleID, u.ID); err != nil {
				return model.User{}, err
			}
			u.GoogleID = googleID
		}
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.User{}, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, full_name, role, google_id, is_active, is_email_verified) VALUES (?,?,?,?,1,1)",
		email, fullName, model.RoleVolunteer, googleID)
	if err != nil {
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, uint64(id))
}
