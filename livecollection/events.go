package livecollection

import "github.com/shipfast/livesync/todo"

// ApplyEvent merges an authoritative change-feed event into the view.
//
// Inserted and Updated upsert by id; Deleted removes by id. All three are
// idempotent, and events targeting disjoint ids commute, so the final
// state does not depend on whether an event arrives before or after the
// corresponding mutation response.
//
// An event that targets the same todo as an unresolved optimistic
// mutation settles that mutation: the authoritative row has caught up to
// the speculative edit, so the pending entry is cleared rather than the
// event being applied on top of it (which would double-flip toggles or
// duplicate creates).
func (c *Collection) ApplyEvent(event todo.ChangeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch event.Op {
	case todo.OpInserted:
		if event.Todo == nil {
			return
		}
		c.settleCreateLocked(*event.Todo)
		c.settlePendingLocked(event.ID)
		c.upsertLocked(*event.Todo)

	case todo.OpUpdated:
		if event.Todo == nil {
			return
		}
		c.settlePendingLocked(event.ID)
		c.upsertLocked(*event.Todo)

	case todo.OpDeleted:
		c.settlePendingLocked(event.ID)
		c.removeLocked(event.ID)
	}

	todo.SortNewestFirst(c.items)
}

// settlePendingLocked clears any unresolved mutation targeting id.
func (c *Collection) settlePendingLocked(id int64) {
	for opID, entry := range c.pending {
		if entry.mutation.TargetID == id {
			delete(c.pending, opID)
		}
	}
}

// settleCreateLocked matches an authoritative insert against a pending
// optimistic create. Server ids are unknown while a create is in flight,
// so the match is by title within the owner-scoped feed; on a match the
// placeholder row is removed and the pending entry cleared.
func (c *Collection) settleCreateLocked(inserted todo.Todo) {
	for opID, entry := range c.pending {
		if entry.mutation.Kind != KindCreate || entry.placeholder == nil {
			continue
		}
		if entry.placeholder.Title != inserted.Title {
			continue
		}
		c.removeLocked(entry.mutation.TargetID)
		delete(c.pending, opID)
		return
	}
}
