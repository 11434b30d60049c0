package repository

import (
	"context"
	"database/sql"

	"github.com/volunteerhub/volunteer-hub/internal/model"
)

const postColumns = "p.id,p.event_id,p.user_id,u.full_name,p.content,p.created_at"

// PostRepo provides data access to the `posts` table. Reads join the
// author's display name.
type PostRepo struct{ DB *sql.DB }

func NewPostRepo(db *sql.DB) *PostRepo { return &PostRepo{DB: db} }

func scanPost(rows interface{ Scan(...any) error }) (model.Post, error) {
	var p model.Post
	err := rows.Scan(&p.ID, &p.EventID, &p.AuthorID, &p.AuthorName, &p.Content, &p.CreatedAt)
	return p, err
}

// ListByEvent returns one page of an event's posts, newest first, together
// with the total count for pagination.
func (r *PostRepo) ListByEvent(ctx context.Context, eventID uint64, limit, offset int) ([]model.Post, int, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+postColumns+" FROM posts p JOIN users u ON u.id=p.user_id WHERE p.event_id=? ORDER BY p.created_at DESC LIMIT ? OFFSET ?",
		eventID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM posts WHERE event_id=?", eventID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByID fetches a single post.
func (r *PostRepo) GetByID(ctx context.Context, id uint64) (model.Post, error) {
	return scanPost(r.DB.QueryRowContext(ctx,
		"SELECT "+postColumns+" FROM posts p JOIN users u ON u.id=p.user_id WHERE p.id=? LIMIT 1", id))
}

// Create inserts a post and returns its ID.
func (r *PostRepo) Create(ctx context.Context, p *model.Post) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO posts (event_id, user_id, content) VALUES (?,?,?)",
		p.EventID, p.AuthorID, p.Content)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Delete removes a post and its comments.
func (r *PostRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err = tx.ExecContext(ctx, "DELETE FROM comments WHERE post_id=?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM posts WHERE id=?", id); err != nil {
		return err
	}
	return tx.Commit()
}
