package client

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// API is the call surface the cache needs. *Client satisfies it; tests
// substitute a fake.
type API interface {
	List(ctx context.Context) ([]Task, error)
	Create(ctx context.Context, title string) (*Task, error)
	Update(ctx context.Context, id string, patch UpdatePatch) (*Task, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) ([]StatusCount, error)
}

// TaskCache maintains a local, eventually-consistent mirror of the task list
// and stats. Every mutation follows the same shape: apply a predicted change
// synchronously, send the real request, then reconcile with the server's
// answer (adopt it) or roll the prediction back. Either way, a background
// refresh settles the cache against authoritative state afterwards.
//
// Mutation methods block until the server resolves; callers that want
// fire-and-forget semantics run them in their own goroutine. Concurrent
// Snapshot readers observe the optimistic state while a request is in flight.
// The mutation's error return is how failures surface to the caller.
type TaskCache struct {
	api API

	mu       sync.Mutex
	tasks    []Task
	stats    []StatusCount
	seq      map[string]uint64 // latest mutation sequence per task id
	inflight int

	sfGroup singleflight.Group
}

// NewTaskCache creates an empty cache over the given API binding. Call
// Refresh to populate it.
func NewTaskCache(api API) *TaskCache {
	return &TaskCache{
		api: api,
		seq: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the current task list. The returned slice is
// owned by the caller; the cache's internal state is never exposed.
func (c *TaskCache) Snapshot() []Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// StatsSnapshot returns a copy of the last known stats aggregate.
func (c *TaskCache) StatsSnapshot() []StatusCount {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]StatusCount, len(c.stats))
	copy(out, c.stats)
	return out
}

// Refresh replaces the cached list and stats with authoritative server
// state. Concurrent calls are coalesced. The result is discarded if any
// mutation is in flight when it lands: that mutation's own settle step will
// refresh again, and the optimistic state must not be clobbered meanwhile.
func (c *TaskCache) Refresh(ctx context.Context) error {
	type payload struct {
		tasks []Task
		stats []StatusCount
	}

	val, err, _ := c.sfGroup.Do("refresh", func() (any, error) {
		tasks, err := c.api.List(ctx)
		if err != nil {
			return nil, err
		}
		stats, err := c.api.Stats(ctx)
		if err != nil {
			return nil, err
		}
		return payload{tasks: tasks, stats: stats}, nil
	})
	if err != nil {
		return err
	}
	p := val.(payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight > 0 {
		return nil
	}
	c.tasks = p.tasks
	c.stats = p.stats
	return nil
}

// CreateTask optimistically prepends a provisional task with a temporary id,
// then issues the create. On success the provisional entry is replaced by
// the server's task; on failure it is removed, restoring the pre-mutation
// list exactly.
func (c *TaskCache) CreateTask(ctx context.Context, title string) (*Task, error) {
	trimmed := strings.TrimSpace(title)
	tempID := "tmp-" + uuid.New().String()
	now := time.Now()
	provisional := Task{
		ID:        tempID,
		Title:     trimmed,
		Status:    "open",
		CreatedAt: now,
		UpdatedAt: now,
	}

	c.mu.Lock()
	seq := c.bumpLocked(tempID)
	c.tasks = append([]Task{provisional}, c.tasks...)
	c.inflight++
	c.mu.Unlock()

	created, err := c.api.Create(ctx, title)

	c.mu.Lock()
	c.inflight--
	if c.seq[tempID] == seq {
		delete(c.seq, tempID)
		if err != nil {
			c.removeLocked(tempID)
		} else if idx := c.indexLocked(tempID); idx >= 0 {
			c.tasks[idx] = *created
		}
	}
	c.mu.Unlock()

	c.settle()
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateTask optimistically patches the matching entry, then issues the
// update. On success the server's fields are adopted; on failure the entry's
// original fields are restored. A stale resolution (superseded by a newer
// mutation for the same id) is ignored for cache-write purposes.
func (c *TaskCache) UpdateTask(ctx context.Context, id string, patch UpdatePatch) (*Task, error) {
	c.mu.Lock()
	seq := c.bumpLocked(id)
	var prev Task
	hadEntry := false
	if idx := c.indexLocked(id); idx >= 0 {
		prev = c.tasks[idx]
		hadEntry = true
		predicted := prev
		if patch.Title != nil {
			predicted.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Status != nil {
			predicted.Status = *patch.Status
		}
		predicted.UpdatedAt = time.Now()
		c.tasks[idx] = predicted
	}
	c.inflight++
	c.mu.Unlock()

	updated, err := c.api.Update(ctx, id, patch)

	c.mu.Lock()
	c.inflight--
	if c.seq[id] == seq {
		if idx := c.indexLocked(id); idx >= 0 {
			if err != nil {
				if hadEntry {
					c.tasks[idx] = prev
				}
			} else {
				c.tasks[idx] = *updated
			}
		}
	}
	c.mu.Unlock()

	c.settle()
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTask optimistically removes the matching entry, then issues the
// delete. On success the removal stands confirmed; on failure the task
// reappears in its original position with its original fields.
func (c *TaskCache) DeleteTask(ctx context.Context, id string) error {
	c.mu.Lock()
	seq := c.bumpLocked(id)
	var prev Task
	prevIdx := -1
	if idx := c.indexLocked(id); idx >= 0 {
		prev = c.tasks[idx]
		prevIdx = idx
		c.tasks = append(c.tasks[:idx], c.tasks[idx+1:]...)
	}
	c.inflight++
	c.mu.Unlock()

	err := c.api.Delete(ctx, id)

	c.mu.Lock()
	c.inflight--
	if c.seq[id] == seq {
		if err == nil {
			delete(c.seq, id) // terminal: the id is never reused
		} else if prevIdx >= 0 && c.indexLocked(id) < 0 {
			at := prevIdx
			if at > len(c.tasks) {
				at = len(c.tasks)
			}
			c.tasks = append(c.tasks[:at], append([]Task{prev}, c.tasks[at:]...)...)
		}
	}
	c.mu.Unlock()

	c.settle()
	return err
}

// settle triggers the background refresh that corrects any divergence the
// optimistic step could not predict (ordering, stats). Runs regardless of
// the mutation's outcome.
func (c *TaskCache) settle() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Refresh(ctx); err != nil {
			log.Printf("[client] background refresh failed: %v", err)
		}
	}()
}

func (c *TaskCache) bumpLocked(id string) uint64 {
	c.seq[id]++
	return c.seq[id]
}

func (c *TaskCache) indexLocked(id string) int {
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *TaskCache) removeLocked(id string) {
	if idx := c.indexLocked(id); idx >= 0 {
		c.tasks = append(c.tasks[:idx], c.tasks[idx+1:]...)
	}
}
