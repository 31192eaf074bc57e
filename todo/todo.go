// Package todo defines the domain model for the live todo collection:
// the Todo row itself, the change events the backing store emits for it,
// the result envelope mutations return, and the pure view filter.
//
// The package has no I/O. Persistence lives in the store package, the
// mutation API in the gateway package, and client-side reconciliation in
// the livecollection package.
package todo

import "time"

// Todo represents a single task owned by a principal.
type Todo struct {
	// ID is a unique identifier assigned by the backing store at creation.
	// It is never generated client-side.
	ID int64 `json:"id"`

	// OwnerID is the UUID of the principal who owns this todo. Every
	// operation is scoped by this field.
	OwnerID string `json:"owner_id"`

	// Title is the short summary of the todo (max 255 chars).
	Title string `json:"title"`

	// Description provides additional context about the todo.
	Description string `json:"description,omitempty"`

	// Completed reports whether the todo is done.
	Completed bool `json:"completed"`

	// Priority is the importance level (low, medium, high).
	Priority Priority `json:"priority"`

	// DueDate is an optional deadline.
	DueDate *time.Time `json:"due_date,omitempty"`

	// CreatedAt is when the todo was created. Set server-side.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the todo was last modified. Set server-side on
	// every mutation and never decreases for a given todo.
	UpdatedAt time.Time `json:"updated_at"`
}

// Principal is the authenticated identity on whose behalf an operation
// executes. It is derived from a verified session token, never from
// request payloads.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// IsZero reports whether the principal is unauthenticated.
func (p Principal) IsZero() bool {
	return p.ID == ""
}

// Profile is the stored record for a principal, mirroring the
// user_profiles table.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
