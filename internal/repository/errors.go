// Package repository implements MySQL data access for users, tokens,
// events and registrations. Sentinel errors defined here let the service
// and handler layers distinguish failure scenarios without inspecting
// driver errors; row absence is reported as sql.ErrNoRows throughout.
package repository

import "errors"

// ErrEmailExists is returned when an insert collides with the unique email
// index. Handlers translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as registering twice for the same event or
// registering for a full one. Handlers translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")
