package livecollection

import "github.com/shipfast/livesync/todo"

// OptimisticCreate inserts a speculative row for an in-flight create.
// The placeholder receives a temporary negative id so it can never
// collide with a server-assigned one. Resolve replaces it with the
// canonical row on success or removes it on failure.
func (c *Collection) OptimisticCreate(opID string, item todo.Todo) todo.Todo {
	c.mu.Lock()
	defer c.mu.Unlock()

	item.ID = c.nextTempID
	c.nextTempID--
	if item.CreatedAt.IsZero() {
		item.CreatedAt = c.now()
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}
	if item.Priority == "" {
		item.Priority = todo.PriorityMedium
	}

	placeholder := item
	c.pending[opID] = &pendingEntry{
		mutation:    PendingMutation{OpID: opID, Kind: KindCreate, TargetID: item.ID},
		placeholder: &placeholder,
	}
	c.items = append(c.items, item)
	todo.SortNewestFirst(c.items)
	return item
}

// OptimisticUpdate applies a speculative field edit to the visible row
// and records the pre-edit value for rollback. Returns false if the id
// is not visible, in which case nothing is recorded.
func (c *Collection) OptimisticUpdate(opID string, id int64, opts todo.UpdateOptions) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return false
	}

	previous := c.items[idx]
	opts.Apply(&c.items[idx])
	c.pending[opID] = &pendingEntry{
		mutation: PendingMutation{OpID: opID, Kind: KindUpdate, TargetID: id},
		previous: &previous,
	}
	todo.SortNewestFirst(c.items)
	return true
}

// OptimisticToggle flips the completed flag of the visible row and
// records the pre-flip value for rollback.
func (c *Collection) OptimisticToggle(opID string, id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return false
	}

	previous := c.items[idx]
	c.items[idx].Completed = !c.items[idx].Completed
	c.pending[opID] = &pendingEntry{
		mutation: PendingMutation{OpID: opID, Kind: KindToggle, TargetID: id},
		previous: &previous,
	}
	return true
}

// OptimisticDelete removes the visible row and records it for rollback.
func (c *Collection) OptimisticDelete(opID string, id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return false
	}

	previous := c.items[idx]
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	c.pending[opID] = &pendingEntry{
		mutation: PendingMutation{OpID: opID, Kind: KindDelete, TargetID: id},
		previous: &previous,
	}
	return true
}

// Resolve settles an optimistic mutation with the gateway's result.
//
// On success the pending entry is cleared and the canonical row, when
// present, replaces the speculative one. On failure the pre-optimistic
// value is restored exactly: placeholders disappear, edits revert, and
// deleted rows come back.
//
// Resolving an op the collection no longer tracks is a no-op; the
// change-feed event for the same operation may have settled it already.
func (c *Collection) Resolve(opID string, result todo.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.pending[opID]
	if !ok {
		return
	}
	delete(c.pending, opID)

	if result.OK {
		if entry.mutation.Kind == KindCreate {
			c.removeLocked(entry.mutation.TargetID)
		}
		if result.Todo != nil {
			c.upsertLocked(*result.Todo)
		}
		todo.SortNewestFirst(c.items)
		return
	}

	switch entry.mutation.Kind {
	case KindCreate:
		c.removeLocked(entry.mutation.TargetID)
	case KindUpdate, KindToggle, KindDelete:
		if entry.previous != nil {
			c.upsertLocked(*entry.previous)
		}
	}
	todo.SortNewestFirst(c.items)
}

func (c *Collection) indexOf(id int64) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

// upsertLocked replaces the row with the same id or appends a new one.
// Callers hold c.mu and re-sort afterwards.
func (c *Collection) upsertLocked(item todo.Todo) {
	if idx := c.indexOf(item.ID); idx >= 0 {
		c.items[idx] = item
		return
	}
	c.items = append(c.items, item)
}

func (c *Collection) removeLocked(id int64) bool {
	idx := c.indexOf(id)
	if idx < 0 {
		return false
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	return true
}
