package model

import "time"

// Notification target kinds, stored in `notifications.target_type`.
// Clients use the pair (TargetType, TargetID) to build the link a
// notification points at.
const (
	TargetEvent        = "EVENT"
	TargetPost         = "POST"
	TargetRegistration = "REGISTRATION"
)

// Notification is one in-app notification row. Rows are written by
// fire-and-forget side effects of community actions and only ever read
// back by their owning user. Delivery channels beyond this list (push,
// websockets) are external collaborators.
type Notification struct {
	ID         uint64    // notifications.id
	UserID     uint64    // notifications.user_id, the recipient
	Content    string    // notifications.content
	TargetType string    // notifications.target_type
	TargetID   uint64    // notifications.target_id
	IsRead     bool      // notifications.is_read
	CreatedAt  time.Time // notifications.created_at
}
