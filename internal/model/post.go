package model

import "time"

// Post is a discussion entry on an event's board, from the `posts` table.
// AuthorName is joined from users at read time and never stored.
type Post struct {
	ID         uint64    // posts.id
	EventID    uint64    // posts.event_id
	AuthorID   uint64    // posts.user_id
	AuthorName string    // users.full_name of the author
	Content    string    // posts.content
	CreatedAt  time.Time // posts.created_at
}

// Comment is a reply to a post, from the `comments` table.
type Comment struct {
	ID         uint64    // comments.id
	PostID     uint64    // comments.post_id
	AuthorID   uint64    // comments.user_id
	AuthorName string    // users.full_name of the author
	Content    string    // comments.content
	CreatedAt  time.Time // comments.created_at
}
