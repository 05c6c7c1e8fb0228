// Package repository implements MySQL persistence for marketplace records.
// Sentinel errors defined here let handlers map storage outcomes onto HTTP
// statuses without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registration collides with an existing
// account email.
var ErrEmailExists = errors.New("email already exists")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of the
// record's current state, such as an invalid lifecycle transition.
// Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")
