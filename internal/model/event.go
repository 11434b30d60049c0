package model

import "time"

// Event is a volunteer event row from the `events` table. Events are
// created by managers and browsed publicly; volunteers register against
// them up to Capacity.
type Event struct {
	ID          uint64    // events.id
	Title       string    // events.title
	Description string    // events.description
	Location    string    // events.location
	StartsAt    time.Time // events.starts_at
	EndsAt      time.Time // events.ends_at
	Capacity    uint32    // events.capacity, 0 means unlimited
	CreatedBy   uint64    // events.created_by (users.id of the manager)
	CreatedAt   time.Time // events.created_at
	UpdatedAt   time.Time // events.updated_at
}

// Registration links a volunteer to an event. One row per (event, user).
type Registration struct {
	ID        uint64    // registrations.id
	EventID   uint64    // registrations.event_id
	UserID    uint64    // registrations.user_id
	CreatedAt time.Time // registrations.created_at
}
