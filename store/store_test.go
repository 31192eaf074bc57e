package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shipfast/livesync/todo"
)

const (
	ownerAlice = "11111111-1111-1111-1111-111111111111"
	ownerBob   = "22222222-2222-2222-2222-222222222222"
)

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	events []todo.ChangeEvent
}

func (p *recordingPublisher) Publish(event todo.ChangeEvent) {
	p.events = append(p.events, event)
}

func openTestStore(t *testing.T) (*Store, *recordingPublisher) {
	t.Helper()

	publisher := &recordingPublisher{}
	store, err := Open(filepath.Join(t.TempDir(), "livesync.db"), Options{Publisher: publisher})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	for _, p := range []todo.Principal{
		{ID: ownerAlice, Email: "alice@example.com"},
		{ID: ownerBob, Email: "bob@example.com"},
	} {
		if err := store.EnsureProfile(ctx, p, ""); err != nil {
			t.Fatalf("ensure profile: %v", err)
		}
	}
	publisher.events = nil
	return store, publisher
}

func insertTestTodo(t *testing.T, store *Store, ownerID, title string) todo.Todo {
	t.Helper()
	item := todo.Todo{OwnerID: ownerID, Title: title, Priority: todo.PriorityMedium}
	if err := store.InsertTodo(context.Background(), &item); err != nil {
		t.Fatalf("insert todo: %v", err)
	}
	return item
}

func TestInsertAssignsIDAndTimestampsAndPublishes(t *testing.T) {
	store, publisher := openTestStore(t)

	item := insertTestTodo(t, store, ownerAlice, "Buy milk")

	if item.ID <= 0 {
		t.Errorf("id = %d, want positive", item.ID)
	}
	if item.CreatedAt.IsZero() || !item.UpdatedAt.Equal(item.CreatedAt) {
		t.Errorf("timestamps not set: created=%v updated=%v", item.CreatedAt, item.UpdatedAt)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("events = %d, want 1", len(publisher.events))
	}
	event := publisher.events[0]
	if event.Op != todo.OpInserted || event.OwnerID != ownerAlice || event.ID != item.ID {
		t.Errorf("unexpected event %+v", event)
	}
}

func TestListIsOwnerScopedAndOrdered(t *testing.T) {
	store, _ := openTestStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	first := insertTestTodo(t, store, ownerAlice, "first")
	second := insertTestTodo(t, store, ownerAlice, "second")
	store.now = func() time.Time { return base.Add(time.Minute) }
	third := insertTestTodo(t, store, ownerAlice, "third")
	insertTestTodo(t, store, ownerBob, "not mine")

	items, err := store.ListTodos(context.Background(), ownerAlice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len = %d, want 3", len(items))
	}
	// Newest first; same-instant rows fall back to id ascending.
	want := []int64{third.ID, first.ID, second.ID}
	for i, id := range want {
		if items[i].ID != id {
			t.Fatalf("order = [%d %d %d], want %v", items[0].ID, items[1].ID, items[2].ID, want)
		}
	}
}

func TestListOrderSurvivesShortFractions(t *testing.T) {
	store, _ := openTestStore(t)

	// .120000 encodes with the same digit count as .123456; a trimmed
	// ".12Z" would sort after ".123456Z" and invert the order.
	base := time.Date(2025, 3, 1, 10, 0, 0, 120_000_000, time.UTC)
	store.now = func() time.Time { return base }
	older := insertTestTodo(t, store, ownerAlice, "older")
	store.now = func() time.Time { return base.Add(3456 * time.Microsecond) }
	newer := insertTestTodo(t, store, ownerAlice, "newer")

	items, err := store.ListTodos(context.Background(), ownerAlice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].ID != newer.ID || items[1].ID != older.ID {
		t.Errorf("order = [%d %d], want [%d %d]", items[0].ID, items[1].ID, newer.ID, older.ID)
	}
}

func TestEncodeTimeIsFixedWidth(t *testing.T) {
	short := time.Date(2025, 3, 1, 10, 0, 0, 120_000_000, time.UTC)
	long := time.Date(2025, 3, 1, 10, 0, 0, 123_456_000, time.UTC)

	a, b := encodeTime(short), encodeTime(long)
	if len(a) != len(b) {
		t.Fatalf("encodings differ in width: %q vs %q", a, b)
	}
	if a >= b {
		t.Errorf("lexicographic order broken: %q >= %q", a, b)
	}
}

func TestUpdateScopedByOwner(t *testing.T) {
	store, publisher := openTestStore(t)
	item := insertTestTodo(t, store, ownerAlice, "mine")
	publisher.events = nil

	title := "stolen"
	updated, err := store.UpdateTodo(context.Background(), ownerBob, item.ID, todo.UpdateOptions{Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated != nil {
		t.Fatal("bob must not be able to update alice's todo")
	}
	if len(publisher.events) != 0 {
		t.Errorf("no event should fire for a zero-row update, got %d", len(publisher.events))
	}

	got, err := store.GetTodo(context.Background(), ownerAlice, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "mine" {
		t.Errorf("title = %q, want %q", got.Title, "mine")
	}
}

func TestUpdateBumpsUpdatedAtAndPublishes(t *testing.T) {
	store, publisher := openTestStore(t)
	item := insertTestTodo(t, store, ownerAlice, "before")
	publisher.events = nil

	store.now = func() time.Time { return item.CreatedAt.Add(time.Minute) }

	completed := true
	updated, err := store.UpdateTodo(context.Background(), ownerAlice, item.ID, todo.UpdateOptions{Completed: &completed})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated == nil {
		t.Fatal("expected a matched row")
	}
	if !updated.Completed {
		t.Error("completed not applied")
	}
	if !updated.UpdatedAt.After(item.UpdatedAt) {
		t.Errorf("updated_at %v not after %v", updated.UpdatedAt, item.UpdatedAt)
	}

	if len(publisher.events) != 1 || publisher.events[0].Op != todo.OpUpdated {
		t.Fatalf("events = %+v, want one Updated", publisher.events)
	}
	if publisher.events[0].Todo == nil || !publisher.events[0].Todo.Completed {
		t.Error("event must carry the canonical updated row")
	}
}

func TestDeleteScopedAndReportsAffected(t *testing.T) {
	store, publisher := openTestStore(t)
	item := insertTestTodo(t, store, ownerAlice, "doomed")
	publisher.events = nil

	// Wrong owner: no-op, no event.
	deleted, err := store.DeleteTodo(context.Background(), ownerBob, item.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted {
		t.Error("bob must not delete alice's todo")
	}

	deleted, err = store.DeleteTodo(context.Background(), ownerAlice, item.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Error("expected deletion")
	}

	// Deleting an already-deleted id reports no rows and emits nothing.
	deleted, err = store.DeleteTodo(context.Background(), ownerAlice, item.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted {
		t.Error("second delete must be a no-op")
	}

	if len(publisher.events) != 1 {
		t.Fatalf("events = %d, want exactly 1 Deleted", len(publisher.events))
	}
	if publisher.events[0].Op != todo.OpDeleted || publisher.events[0].ID != item.ID {
		t.Errorf("unexpected event %+v", publisher.events[0])
	}
}

func TestDueDateRoundTrip(t *testing.T) {
	store, _ := openTestStore(t)

	due := time.Date(2025, 12, 24, 18, 0, 0, 0, time.UTC)
	item := todo.Todo{OwnerID: ownerAlice, Title: "with deadline", Priority: todo.PriorityHigh, DueDate: &due}
	if err := store.InsertTodo(context.Background(), &item); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := store.GetTodo(context.Background(), ownerAlice, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("due date = %v, want %v", got.DueDate, due)
	}
}

func TestSeedAndReset(t *testing.T) {
	store, publisher := openTestStore(t)

	seeded, err := store.Seed(context.Background(), todo.Principal{ID: ownerAlice, Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(seeded) == 0 {
		t.Fatal("seed inserted nothing")
	}
	if len(publisher.events) != len(seeded) {
		t.Errorf("events = %d, want %d", len(publisher.events), len(seeded))
	}

	if err := store.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	items, err := store.ListTodos(context.Background(), ownerAlice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len = %d after reset, want 0", len(items))
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "livesync.db")

	first, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	first.Close()

	second, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	second.Close()
}
