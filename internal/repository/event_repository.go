package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/volunteerhub/volunteer-hub/internal/model"
)

const eventColumns = "id,title,description,location,starts_at,ends_at,capacity,created_by,created_at,updated_at"

// EventRepo provides data access to the `events` and `registrations`
// tables.
type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

// List returns events ordered by start time, newest windows first.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events ORDER BY starts_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt,
			&e.EndsAt, &e.Capacity, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetByID fetches a single event.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	var e model.Event
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id=? LIMIT 1", id).
		Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt,
			&e.EndsAt, &e.Capacity, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// Create inserts an event and returns its ID.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO events (title, description, location, starts_at, ends_at, capacity, created_by) VALUES (?,?,?,?,?,?,?)",
		e.Title, e.Description, e.Location, e.StartsAt.UTC(), e.EndsAt.UTC(), e.Capacity, e.CreatedBy)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update replaces the mutable fields of an event.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE events SET title=?, description=?, location=?, starts_at=?, ends_at=?, capacity=? WHERE id=?",
		e.Title, e.Description, e.Location, e.StartsAt.UTC(), e.EndsAt.UTC(), e.Capacity, e.ID)
	return err
}

// Delete removes an event and its registrations.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err = tx.ExecContext(ctx, "DELETE FROM registrations WHERE event_id=?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM events WHERE id=?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// Register inserts a registration for the user, enforcing the capacity
// limit inside one transaction. Duplicate registrations and full events
// both surface as ErrConflict.
func (r *EventRepo) Register(ctx context.Context, eventID, userID uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var capacity uint32
	if err = tx.QueryRowContext(ctx,
		"SELECT capacity FROM events WHERE id=? LIMIT 1 FOR UPDATE", eventID).Scan(&capacity); err != nil {
		return err
	}
	if capacity > 0 {
		var count uint32
		if err = tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM registrations WHERE event_id=?", eventID).Scan(&count); err != nil {
			return err
		}
		if count >= capacity {
			return ErrConflict
		}
	}
	if _, err = tx.ExecContext(ctx,
		"INSERT INTO registrations (event_id, user_id) VALUES (?,?)", eventID, userID); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	return tx.Commit()
}

// Unregister removes the user's registration. Removing a registration that
// does not exist reports sql.ErrNoRows so handlers can 404.
func (r *EventRepo) Unregister(ctx context.Context, eventID, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM registrations WHERE event_id=? AND user_id=?", eventID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountRegistrations returns the current registration count for an event.
func (r *EventRepo) CountRegistrations(ctx context.Context, eventID uint64) (uint32, error) {
	var n uint32
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM registrations WHERE event_id=?", eventID).Scan(&n)
	return n, err
}
