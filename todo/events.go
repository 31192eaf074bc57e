package todo

// Op identifies the kind of change a ChangeEvent describes.
type Op string

const (
	// OpInserted indicates a new todo row was created.
	OpInserted Op = "inserted"

	// OpUpdated indicates an existing todo row was modified.
	OpUpdated Op = "updated"

	// OpDeleted indicates a todo row was removed.
	OpDeleted Op = "deleted"
)

// ChangeEvent is a normalized row-level change notification from the
// backing store. Inserted and Updated events carry the full row; Deleted
// events carry only the id. Every event carries the owner scope it was
// emitted for, and subscribers only ever receive events for their own
// owner scope.
type ChangeEvent struct {
	Op      Op     `json:"op"`
	OwnerID string `json:"owner_id"`
	ID      int64  `json:"id"`
	Todo    *Todo  `json:"todo,omitempty"`
}

// Inserted builds a ChangeEvent for a newly created todo.
func Inserted(t Todo) ChangeEvent {
	return ChangeEvent{Op: OpInserted, OwnerID: t.OwnerID, ID: t.ID, Todo: &t}
}

// Updated builds a ChangeEvent for a modified todo.
func Updated(t Todo) ChangeEvent {
	return ChangeEvent{Op: OpUpdated, OwnerID: t.OwnerID, ID: t.ID, Todo: &t}
}

// Deleted builds a ChangeEvent for a removed todo.
func Deleted(ownerID string, id int64) ChangeEvent {
	return ChangeEvent{Op: OpDeleted, OwnerID: ownerID, ID: id}
}
