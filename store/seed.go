package store

import (
	"context"
	"fmt"

	"github.com/shipfast/livesync/todo"
)

// seedTodos are the demo rows inserted for a fresh development account.
var seedTodos = []todo.Todo{
	{Title: "Welcome to your todo list", Description: "Toggle, edit, and delete todos; changes sync live across sessions.", Priority: todo.PriorityHigh},
	{Title: "Try creating a todo", Priority: todo.PriorityMedium},
	{Title: "Mark something as done", Priority: todo.PriorityMedium, Completed: true},
	{Title: "Read the docs later", Priority: todo.PriorityLow},
}

// Seed ensures the principal has a profile and inserts the demo todos.
// Each insert goes through InsertTodo, so change events fire just as
// they would for user-initiated writes.
func (s *Store) Seed(ctx context.Context, principal todo.Principal) ([]todo.Todo, error) {
	if principal.IsZero() {
		return nil, fmt.Errorf("seed: missing principal")
	}
	if err := s.EnsureProfile(ctx, principal, ""); err != nil {
		return nil, err
	}

	inserted := make([]todo.Todo, 0, len(seedTodos))
	for _, item := range seedTodos {
		item.OwnerID = principal.ID
		if err := s.InsertTodo(ctx, &item); err != nil {
			return nil, fmt.Errorf("seed todo %q: %w", item.Title, err)
		}
		inserted = append(inserted, item)
	}
	return inserted, nil
}
