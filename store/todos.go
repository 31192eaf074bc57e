package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shipfast/livesync/todo"
)

const todoColumns = "id, owner_id, title, description, completed, priority, due_date, created_at, updated_at"

// ListTodos returns every todo owned by ownerID in the canonical display
// order: newest first, ties broken by id ascending.
func (s *Store) ListTodos(ctx context.Context, ownerID string) ([]todo.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE owner_id = ? ORDER BY created_at DESC, id ASC",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var items []todo.Todo
	for rows.Next() {
		item, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return items, nil
}

// GetTodo returns the todo with the given id if ownerID owns it.
// Absent and not-owned are indistinguishable: both return (nil, nil).
func (s *Store) GetTodo(ctx context.Context, ownerID string, id int64) (*todo.Todo, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE id = ? AND owner_id = ?",
		id, ownerID,
	)
	item, err := scanTodo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// InsertTodo persists a new todo, assigning its id and timestamps, and
// emits an Inserted event. The caller is responsible for validation and
// for forcing OwnerID from the authenticated principal.
func (s *Store) InsertTodo(ctx context.Context, item *todo.Todo) error {
	now := s.timestamp()
	item.CreatedAt = now
	item.UpdatedAt = now

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (owner_id, title, description, completed, priority, due_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.OwnerID, item.Title, item.Description, item.Completed, string(item.Priority),
		encodeTimePtr(item.DueDate), encodeTime(item.CreatedAt), encodeTime(item.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert todo: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert todo id: %w", err)
	}
	item.ID = id

	s.publisher.Publish(todo.Inserted(*item))
	return nil
}

// UpdateTodo applies the set fields to the todo with the given id,
// filtered by both id and owner so a caller can never reach another
// principal's row even with a valid id. Returns (nil, nil) when zero
// rows match. On success the canonical row is returned and an Updated
// event emitted.
func (s *Store) UpdateTodo(ctx context.Context, ownerID string, id int64, opts todo.UpdateOptions) (*todo.Todo, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE id = ? AND owner_id = ?",
		id, ownerID,
	)
	item, err := scanTodo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	opts.Apply(&item)
	item.UpdatedAt = s.timestamp()
	if item.UpdatedAt.Before(item.CreatedAt) {
		item.UpdatedAt = item.CreatedAt
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE todos SET title = ?, description = ?, completed = ?, priority = ?, due_date = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		item.Title, item.Description, item.Completed, string(item.Priority),
		encodeTimePtr(item.DueDate), encodeTime(item.UpdatedAt), id, ownerID,
	); err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}

	s.publisher.Publish(todo.Updated(item))
	return &item, nil
}

// DeleteTodo removes the todo with the given id if ownerID owns it and
// reports whether a row was actually removed. A Deleted event is emitted
// only when one was.
func (s *Store) DeleteTodo(ctx context.Context, ownerID string, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM todos WHERE id = ? AND owner_id = ?",
		id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("delete todo: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete todo count: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	s.publisher.Publish(todo.Deleted(ownerID, id))
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (todo.Todo, error) {
	var (
		item      todo.Todo
		priority  string
		dueDate   sql.NullString
		createdAt string
		updatedAt string
	)
	err := row.Scan(&item.ID, &item.OwnerID, &item.Title, &item.Description,
		&item.Completed, &priority, &dueDate, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return todo.Todo{}, err
	}
	if err != nil {
		return todo.Todo{}, fmt.Errorf("scan todo: %w", err)
	}

	item.Priority = todo.Priority(priority)
	if dueDate.Valid {
		due, err := decodeTime(dueDate.String)
		if err != nil {
			return todo.Todo{}, err
		}
		item.DueDate = &due
	}
	if item.CreatedAt, err = decodeTime(createdAt); err != nil {
		return todo.Todo{}, err
	}
	if item.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return todo.Todo{}, err
	}
	return item, nil
}
