package client

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/shipfast/livesync/livecollection"
	"github.com/shipfast/livesync/todo"
)

const (
	reconnectMinDelay = time.Second
	reconnectMaxDelay = 30 * time.Second
)

// LiveCollection keeps a local, optimistically-updated view of the
// owner's todos synchronized with the server. Mutations apply locally
// before the server responds; the change feed folds in edits made from
// other clients.
type LiveCollection struct {
	client *Client
	col    *livecollection.Collection
	logger *zap.Logger

	closeOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
	changed   chan struct{}
}

// Live loads the initial snapshot and starts following the change feed.
// Close must be called to release the feed connection.
func Live(ctx context.Context, c *Client, logger *zap.Logger) (*LiveCollection, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	col := livecollection.New()
	snapshot, err := c.List(ctx, todo.FilterAll)
	if err != nil {
		return nil, err
	}
	col.ApplySnapshot(snapshot)

	runCtx, cancel := context.WithCancel(context.Background())
	lc := &LiveCollection{
		client:  c,
		col:     col,
		logger:  logger,
		cancel:  cancel,
		done:    make(chan struct{}),
		changed: make(chan struct{}, 1),
	}
	go lc.run(runCtx)
	return lc, nil
}

// Items returns the merged view, newest first.
func (lc *LiveCollection) Items() []todo.Todo {
	return lc.col.Items()
}

// Filtered returns the merged view projected through a filter mode.
func (lc *LiveCollection) Filtered(mode todo.FilterMode) []todo.Todo {
	return lc.col.Filtered(mode)
}

// Get returns the visible todo with the given id.
func (lc *LiveCollection) Get(id int64) (todo.Todo, bool) {
	return lc.col.Get(id)
}

// PendingCount reports how many optimistic mutations are unsettled.
func (lc *LiveCollection) PendingCount() int {
	return lc.col.PendingCount()
}

// Changed signals after the view may have new content. Notifications
// coalesce; one receive can cover several changes.
func (lc *LiveCollection) Changed() <-chan struct{} {
	return lc.changed
}

// Close stops the feed follower and waits for it to exit.
func (lc *LiveCollection) Close() {
	lc.closeOnce.Do(func() {
		lc.cancel()
		<-lc.done
	})
}

// Create adds a todo, showing it immediately with a temporary id until
// the server assigns a canonical one.
func (lc *LiveCollection) Create(ctx context.Context, title string, opts todo.CreateOptions) todo.Result {
	opID := ulid.Make().String()
	lc.col.OptimisticCreate(opID, todo.Todo{
		Title:       title,
		Description: opts.Description,
		Priority:    opts.Priority,
		DueDate:     opts.DueDate,
	})
	lc.notify()
	return lc.settle(ctx, opID, func() (todo.Result, error) {
		return lc.client.Create(ctx, title, opts)
	})
}

// Update edits a todo, applying the change locally first.
func (lc *LiveCollection) Update(ctx context.Context, id int64, opts todo.UpdateOptions) todo.Result {
	opID := ulid.Make().String()
	if !lc.col.OptimisticUpdate(opID, id, opts) {
		return todo.Failure(todo.ErrorNotFound, "todo not found")
	}
	lc.notify()
	return lc.settle(ctx, opID, func() (todo.Result, error) {
		return lc.client.Update(ctx, id, opts)
	})
}

// Toggle flips completion state, applying the change locally first.
func (lc *LiveCollection) Toggle(ctx context.Context, id int64) todo.Result {
	opID := ulid.Make().String()
	if !lc.col.OptimisticToggle(opID, id) {
		return todo.Failure(todo.ErrorNotFound, "todo not found")
	}
	lc.notify()
	return lc.settle(ctx, opID, func() (todo.Result, error) {
		return lc.client.Toggle(ctx, id)
	})
}

// Delete removes a todo, hiding it locally first.
func (lc *LiveCollection) Delete(ctx context.Context, id int64) todo.Result {
	opID := ulid.Make().String()
	if !lc.col.OptimisticDelete(opID, id) {
		// Deletes are idempotent; an invisible id is already gone.
		return todo.Success(nil)
	}
	lc.notify()
	return lc.settle(ctx, opID, func() (todo.Result, error) {
		return lc.client.Delete(ctx, id)
	})
}

// settle sends the mutation and reconciles the local view with the
// outcome. Transport failures roll back the optimistic edit.
func (lc *LiveCollection) settle(ctx context.Context, opID string, send func() (todo.Result, error)) todo.Result {
	result, err := send()
	if err != nil {
		lc.logger.Warn("mutation failed", zap.Error(err))
		result = todo.Failure(todo.ErrorTransient, "server unreachable")
	}
	lc.col.Resolve(opID, result)
	lc.notify()
	return result
}

func (lc *LiveCollection) notify() {
	select {
	case lc.changed <- struct{}{}:
	default:
	}
}

// run follows the change feed, reconnecting with capped exponential
// backoff. After each successful dial the snapshot is refetched so
// events missed while disconnected are not lost.
func (lc *LiveCollection) run(ctx context.Context) {
	defer close(lc.done)

	delay := reconnectMinDelay
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, lc.client.feedURL(), nil)
		if err != nil {
			lc.logger.Debug("feed dial failed", zap.Error(err))
			if !sleepCtx(ctx, delay) {
				return
			}
			delay = nextDelay(delay)
			continue
		}
		delay = reconnectMinDelay

		if snapshot, err := lc.client.List(ctx, todo.FilterAll); err == nil {
			lc.col.ApplySnapshot(snapshot)
			lc.notify()
		}

		lc.follow(ctx, conn)
		conn.Close()
	}
}

// follow pumps events from one connection until it fails or ctx ends.
// Each delivered event also requests a snapshot revalidation: the feed
// drops events for slow consumers, so the event alone is a hint, not
// the full truth.
func (lc *LiveCollection) follow(ctx context.Context, conn *websocket.Conn) {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	revalidate := make(chan struct{}, 1)
	go lc.revalidateLoop(ctx, stop, revalidate)

	for {
		var event todo.ChangeEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() == nil {
				lc.logger.Debug("feed read failed", zap.Error(err))
			}
			return
		}
		lc.col.ApplyEvent(event)
		lc.notify()
		select {
		case revalidate <- struct{}{}:
		default:
		}
	}
}

// revalidateLoop refetches the snapshot when events request it.
// Requests coalesce, so a burst of events costs one refetch.
func (lc *LiveCollection) revalidateLoop(ctx context.Context, stop <-chan struct{}, requests <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-requests:
			snapshot, err := lc.client.List(ctx, todo.FilterAll)
			if err != nil {
				lc.logger.Debug("revalidation failed", zap.Error(err))
				continue
			}
			lc.col.ApplySnapshot(snapshot)
			lc.notify()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func nextDelay(current time.Duration) time.Duration {
	next := current * 2
	if next > reconnectMaxDelay {
		return reconnectMaxDelay
	}
	return next
}
