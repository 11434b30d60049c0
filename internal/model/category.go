package model

import "time"

// Category is an event category from the `categories` table. Categories
// are browsed publicly and managed by admins only.
type Category struct {
	ID          uint64    // categories.id
	Name        string    // categories.name, unique
	Description string    // categories.description
	CreatedAt   time.Time // categories.created_at
}
