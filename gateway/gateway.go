// Package gateway implements the validated, ownership-checked mutation
// API over the backing store.
//
// Every operation takes the authenticated principal explicitly, never
// from the payload, and returns a uniform todo.Result envelope. Expected
// failures (validation, missing principal, unmatched rows) come back as
// tagged results; raw store errors are logged and mapped to a transient
// kind rather than propagated.
//
// Successful writes trigger two independent invalidation paths: the
// store emits the change-feed event, and the gateway calls the attached
// Revalidator so that any non-live rendering of the same list is marked
// stale. Both fire for every committed write.
package gateway

import (
	"context"

	"go.uber.org/zap"

	"github.com/shipfast/livesync/store"
	"github.com/shipfast/livesync/todo"
)

// Revalidator marks externally cached renderings of an owner's list
// stale after a successful write.
type Revalidator interface {
	Revalidate(ownerID string)
}

type nopRevalidator struct{}

func (nopRevalidator) Revalidate(string) {}

// Gateway executes mutations on behalf of authenticated principals.
type Gateway struct {
	store       *store.Store
	revalidator Revalidator
	logger      *zap.Logger
}

// Options configures a Gateway.
type Options struct {
	// Revalidator is called after every successful write. If nil,
	// revalidation is skipped.
	Revalidator Revalidator

	// Logger receives store failures. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// New returns a gateway over the given store.
func New(st *store.Store, opts Options) *Gateway {
	gw := &Gateway{store: st, revalidator: opts.Revalidator, logger: opts.Logger}
	if gw.revalidator == nil {
		gw.revalidator = nopRevalidator{}
	}
	if gw.logger == nil {
		gw.logger = zap.NewNop()
	}
	return gw
}

// List returns the principal's todos in canonical display order.
func (g *Gateway) List(ctx context.Context, principal todo.Principal) ([]todo.Todo, todo.Result) {
	if principal.IsZero() {
		return nil, todo.Failure(todo.ErrorUnauthorized, "no authenticated principal")
	}
	items, err := g.store.ListTodos(ctx, principal.ID)
	if err != nil {
		g.logger.Warn("list todos failed", zap.String("owner", principal.ID), zap.Error(err))
		return nil, todo.Failure(todo.ErrorTransient, "backing store unavailable")
	}
	return items, todo.Success(nil)
}

// Create validates the payload and persists a new todo owned by the
// principal. OwnerID is always forced from the principal, regardless of
// anything the payload claims.
func (g *Gateway) Create(ctx context.Context, principal todo.Principal, title string, opts todo.CreateOptions) todo.Result {
	if principal.IsZero() {
		return todo.Failure(todo.ErrorUnauthorized, "no authenticated principal")
	}
	if err := todo.ValidateTitle(title); err != nil {
		return todo.FailureFromError(err)
	}
	priority, err := todo.NormalizePriorityInput(opts.Priority)
	if err != nil {
		return todo.FailureFromError(err)
	}

	if err := g.store.EnsureProfile(ctx, principal, ""); err != nil {
		g.logger.Warn("ensure profile failed", zap.String("owner", principal.ID), zap.Error(err))
		return todo.Failure(todo.ErrorTransient, "backing store unavailable")
	}

	item := todo.Todo{
		OwnerID:     principal.ID,
		Title:       title,
		Description: opts.Description,
		Priority:    priority,
		DueDate:     opts.DueDate,
	}
	if err := g.store.InsertTodo(ctx, &item); err != nil {
		g.logger.Warn("insert todo failed", zap.String("owner", principal.ID), zap.Error(err))
		return todo.Failure(todo.ErrorTransient, "backing store unavailable")
	}

	g.revalidator.Revalidate(principal.ID)
	return todo.Success(&item)
}

// Update applies a partial edit to the principal's todo. A zero-row
// match reports NotFound whether the id is absent or owned by someone
// else; the two are deliberately indistinguishable.
func (g *Gateway) Update(ctx context.Context, principal todo.Principal, id int64, opts todo.UpdateOptions) todo.Result {
	if principal.IsZero() {
		return todo.Failure(todo.ErrorUnauthorized, "no authenticated principal")
	}
	if opts.Title != nil {
		if err := todo.ValidateTitle(*opts.Title); err != nil {
			return todo.FailureFromError(err)
		}
	}
	if opts.Priority != nil {
		priority, err := todo.NormalizePriorityInput(*opts.Priority)
		if err != nil {
			return todo.FailureFromError(err)
		}
		opts.Priority = &priority
	}

	updated, err := g.store.UpdateTodo(ctx, principal.ID, id, opts)
	if err != nil {
		g.logger.Warn("update todo failed", zap.Int64("id", id), zap.Error(err))
		return todo.Failure(todo.ErrorTransient, "backing store unavailable")
	}
	if updated == nil {
		return todo.Failure(todo.ErrorNotFound, "todo not found")
	}

	g.revalidator.Revalidate(principal.ID)
	return todo.Success(updated)
}

// Toggle flips the completed flag. It is a read-modify-write; two
// concurrent toggles on the same todo resolve last-write-wins, which is
// the accepted consistency policy.
func (g *Gateway) Toggle(ctx context.Context, principal todo.Principal, id int64) todo.Result {
	if principal.IsZero() {
		return todo.Failure(todo.ErrorUnauthorized, "no authenticated principal")
	}

	current, err := g.store.GetTodo(ctx, principal.ID, id)
	if err != nil {
		g.logger.Warn("toggle read failed", zap.Int64("id", id), zap.Error(err))
		return todo.Failure(todo.ErrorTransient, "backing store unavailable")
	}
	if current == nil {
		return todo.Failure(todo.ErrorNotFound, "todo not found")
	}

	completed := !current.Completed
	updated, err := g.store.UpdateTodo(ctx, principal.ID, id, todo.UpdateOptions{Completed: &completed})
	if err != nil {
		g.logger.Warn("toggle write failed", zap.Int64("id", id), zap.Error(err))
		return todo.Failure(todo.ErrorTransient, "backing store unavailable")
	}
	if updated == nil {
		// Deleted between the read and the write.
		return todo.Failure(todo.ErrorNotFound, "todo not found")
	}

	g.revalidator.Revalidate(principal.ID)
	return todo.Success(updated)
}

// Delete removes the principal's todo. Deletion is idempotent: deleting
// an id that does not exist (or is not owned) succeeds with no-op
// semantics rather than reporting NotFound.
func (g *Gateway) Delete(ctx context.Context, principal todo.Principal, id int64) todo.Result {
	if principal.IsZero() {
		return todo.Failure(todo.ErrorUnauthorized, "no authenticated principal")
	}

	deleted, err := g.store.DeleteTodo(ctx, principal.ID, id)
	if err != nil {
		g.logger.Warn("delete todo failed", zap.Int64("id", id), zap.Error(err))
		return todo.Failure(todo.ErrorTransient, "backing store unavailable")
	}
	if deleted {
		g.revalidator.Revalidate(principal.ID)
	}
	return todo.Success(nil)
}
