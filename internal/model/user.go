package model

import "time"

// Roles assignable to a user. Stored as strings in the `users.role` column.
const (
	RoleVolunteer = "VOLUNTEER"
	RoleManager   = "MANAGER"
	RoleAdmin     = "ADMIN"
)

// ValidRole reports whether s is one of the known role names.
func ValidRole(s string) bool {
	return s == RoleVolunteer || s == RoleManager || s == RoleAdmin
}

// User represents an application user record as stored in the `users`
// table. PasswordHash is empty for accounts created through a federated
// identity provider; such accounts cannot log in with a password until one
// is set through the reset flow.
//
// Fields:
//  ID              – primary key identifier of the user.
//  Email           – unique, lower-cased email address.
//  PasswordHash    – Argon2id digest in PHC format, or "" for provider-only accounts.
//  FullName        – display name.
//  Role            – one of VOLUNTEER, MANAGER, ADMIN.
//  IsActive        – whether the account may authenticate.
//  IsEmailVerified – set once the verification token was consumed.
//  GoogleID        – federated identity subject, "" when unlinked.
//  Location        – free-form location, optional.
//  PhoneNumber     – optional contact number.
//  Bio             – optional profile text.
//  CreatedAt       – timestamp of creation.
//  UpdatedAt       – timestamp of last update.
type User struct {
	ID              uint64    // users.id
	Email           string    // users.email
	PasswordHash    string    // users.password_hash (nullable in schema)
	FullName        string    // users.full_name
	Role            string    // users.role
	IsActive        bool      // users.is_active
	IsEmailVerified bool      // users.is_email_verified
	GoogleID        string    // users.google_id (nullable in schema)
	Location        string    // users.location
	PhoneNumber     string    // users.phone_number
	Bio             string    // users.bio
	CreatedAt       time.Time // users.created_at
	UpdatedAt       time.Time // users.updated_at
}
