package todo

import "time"

// Priority represents the importance level of a todo.
type Priority string

const (
	// PriorityLow is for todos that can wait.
	PriorityLow Priority = "low"

	// PriorityMedium is the default importance level.
	PriorityMedium Priority = "medium"

	// PriorityHigh is for todos that should be done first.
	PriorityHigh Priority = "high"
)

// ValidPriorities returns all valid priority values.
func ValidPriorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// IsValid returns true if the priority is a known valid value.
func (p Priority) IsValid() bool {
	for _, valid := range ValidPriorities() {
		if p == valid {
			return true
		}
	}
	return false
}

// PriorityRank returns the sort rank for a priority (high first).
func PriorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// PriorityPtr returns a pointer to the provided priority.
func PriorityPtr(priority Priority) *Priority {
	return &priority
}

// MaxTitleLength is the maximum allowed length for a todo title.
const MaxTitleLength = 255

// CreateOptions configures a new todo.
type CreateOptions struct {
	// Description provides additional context.
	Description string

	// Priority is the importance level. Defaults to PriorityMedium when empty.
	Priority Priority

	// DueDate is an optional deadline.
	DueDate *time.Time
}

// UpdateOptions configures fields to update on a todo.
// Nil pointers mean "don't update this field".
type UpdateOptions struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *Priority
	DueDate     *time.Time
}

// IsZero reports whether no fields would be updated.
func (o UpdateOptions) IsZero() bool {
	return o.Title == nil && o.Description == nil && o.Completed == nil &&
		o.Priority == nil && o.DueDate == nil
}

// Apply copies the set fields onto the todo. Timestamps are not touched;
// the backing store owns UpdatedAt.
func (o UpdateOptions) Apply(t *Todo) {
	if o.Title != nil {
		t.Title = *o.Title
	}
	if o.Description != nil {
		t.Description = *o.Description
	}
	if o.Completed != nil {
		t.Completed = *o.Completed
	}
	if o.Priority != nil {
		t.Priority = *o.Priority
	}
	if o.DueDate != nil {
		t.DueDate = o.DueDate
	}
}
