package repository

import (
	"context"
	"database/sql"

	"github.com/volunteerhub/volunteer-hub/internal/model"
)

const commentColumns = "c.id,c.post_id,c.user_id,u.full_name,c.content,c.created_at"

// CommentRepo provides data access to the `comments` table.
type CommentRepo struct{ DB *sql.DB }

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{DB: db} }

func scanComment(row interface{ Scan(...any) error }) (model.Comment, error) {
	var c model.Comment
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName, &c.Content, &c.CreatedAt)
	return c, err
}

// ListByPost returns one page of a post's comments, oldest first, together
// with the total count for pagination.
func (r *CommentRepo) ListByPost(ctx context.Context, postID uint64, limit, offset int) ([]model.Comment, int, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+commentColumns+" FROM comments c JOIN users u ON u.id=c.user_id WHERE c.post_id=? ORDER BY c.created_at ASC LIMIT ? OFFSET ?",
		postID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM comments WHERE post_id=?", postID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByID fetches a single comment.
func (r *CommentRepo) GetByID(ctx context.Context, id uint64) (model.Comment, error) {
	return scanComment(r.DB.QueryRowContext(ctx,
		"SELECT "+commentColumns+" FROM comments c JOIN users u ON u.id=c.user_id WHERE c.id=? LIMIT 1", id))
}

// Create inserts a comment and returns its ID.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO comments (post_id, user_id, content) VALUES (?,?,?)",
		c.PostID, c.AuthorID, c.Content)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Delete removes a comment. A missing row reports sql.ErrNoRows.
func (r *CommentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM comments WHERE id=?", id)
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
