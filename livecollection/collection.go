// Package livecollection implements the client-held reconciling store for
// a principal's todo list.
//
// A Collection merges three update sources into one consistent, ordered
// view: a server snapshot, optimistic local edits, and change-feed events.
// Optimistic edits are tracked in a pending ledger alongside the value they
// replaced, so a failed mutation rolls back exactly and an authoritative
// event for the same todo supersedes the speculative edit instead of
// producing a duplicate.
//
// Merge rules are idempotent and commutative for disjoint ids: applying
// the same event twice, or interleaving events that target different
// todos in any order, always produces the same final state. That matters
// because a mutation's direct response and its change-feed event race,
// and either may arrive first.
//
// The visible ordering is always newest first by CreatedAt with ties
// broken by id ascending (todo.SortNewestFirst).
package livecollection

import (
	"sync"
	"time"

	"github.com/shipfast/livesync/todo"
)

// Kind identifies the operation a pending mutation speculates about.
type Kind string

const (
	// KindCreate is an optimistic row insertion awaiting a server id.
	KindCreate Kind = "create"

	// KindUpdate is an optimistic field edit.
	KindUpdate Kind = "update"

	// KindDelete is an optimistic row removal.
	KindDelete Kind = "delete"

	// KindToggle is an optimistic completed flip.
	KindToggle Kind = "toggle"
)

// PendingMutation records one unresolved optimistic edit.
type PendingMutation struct {
	// OpID is the client-generated operation id (a ULID).
	OpID string

	// Kind is the operation being speculated.
	Kind Kind

	// TargetID is the todo the mutation targets. For creates it is the
	// temporary placeholder id (always negative, never server-assigned).
	TargetID int64
}

type pendingEntry struct {
	mutation PendingMutation

	// previous is the row value before the optimistic edit, retained for
	// rollback. Nil for creates, which roll back by removing the
	// placeholder.
	previous *todo.Todo

	// placeholder is the speculative row for a pending create. Its id is
	// temporary (negative) because server ids are unknown until the
	// mutation resolves; the title identifies the create when the
	// authoritative Inserted event arrives before the mutation response.
	placeholder *todo.Todo
}

// Collection is the reconciling store. It owns the client-visible view of
// one principal's todos for the lifetime of the consuming view: construct
// it when the view mounts, discard it when the view unmounts. It is a
// cache, never authoritative; the backing store always wins.
//
// Collection is safe for concurrent use.
type Collection struct {
	mu         sync.Mutex
	items      []todo.Todo
	pending    map[string]*pendingEntry
	nextTempID int64
	now        func() time.Time
}

// New returns an empty collection.
func New() *Collection {
	return &Collection{
		pending:    make(map[string]*pendingEntry),
		nextTempID: -1,
		now:        time.Now,
	}
}

// Items returns a sorted copy of the visible collection.
func (c *Collection) Items() []todo.Todo {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := append([]todo.Todo(nil), c.items...)
	return items
}

// Filtered returns the visible collection projected through the view filter.
func (c *Collection) Filtered(mode todo.FilterMode) []todo.Todo {
	return todo.Filter(c.Items(), mode)
}

// Get returns the visible todo with the given id.
func (c *Collection) Get(id int64) (todo.Todo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if item.ID == id {
			return item, true
		}
	}
	return todo.Todo{}, false
}

// Len returns the number of visible todos.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// PendingCount returns the number of unresolved optimistic mutations.
func (c *Collection) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// ApplySnapshot replaces the collection with a fresh server snapshot.
//
// The snapshot wins over stale optimistic state: pending updates, toggles,
// and deletes are dropped, since the snapshot already reflects whatever
// the server committed. Pending creates are the exception: their rows do
// not exist server-side yet, so their placeholders remain visible until
// the mutation resolves.
func (c *Collection) ApplySnapshot(items []todo.Todo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = append([]todo.Todo(nil), items...)

	for opID, entry := range c.pending {
		if entry.mutation.Kind == KindCreate {
			continue
		}
		delete(c.pending, opID)
	}
	for _, entry := range c.pending {
		if entry.placeholder != nil {
			c.items = append(c.items, *entry.placeholder)
		}
	}

	todo.SortNewestFirst(c.items)
}
