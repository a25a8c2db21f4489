package task

import (
	"context"
	"log"

	"github.com/example/taskboard/modules/cache"
	"golang.org/x/sync/singleflight"
)

// Cache keys for the two read aggregates.
const (
	cacheKeyList  = "list"
	cacheKeyStats = "stats"
)

// Service enforces the business rules the store does not know about and
// normalizes errors into the stable domain vocabulary. List and stats reads
// go through the cache-aside layer; every mutation invalidates it.
type Service struct {
	repo    *Repository
	cache   cache.Service
	sfGroup singleflight.Group // prevents cache stampede on concurrent misses
}

// NewService creates a new task service.
func NewService(repo *Repository, c cache.Service) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{repo: repo, cache: c}
}

// List retrieves all tasks, newest first.
func (s *Service) List(ctx context.Context) ([]*Task, error) {
	var cached []*Task
	found, err := s.cache.Get(ctx, cacheKeyList, &cached)
	if err != nil {
		log.Printf("[task] Cache error for list: %v", err)
		// fall through to the database on cache error
	}
	if found {
		return cached, nil
	}

	val, err, _ := s.sfGroup.Do(cacheKeyList, func() (any, error) {
		return s.repo.FindAll()
	})
	if err != nil {
		return nil, err
	}
	tasks := val.([]*Task)

	if err := s.cache.Set(ctx, cacheKeyList, tasks); err != nil {
		log.Printf("[task] Warning: failed to cache list: %v", err)
	}
	return tasks, nil
}

// Create trims and validates the title, then persists a new open task.
func (s *Service) Create(ctx context.Context, in CreateTaskInput) (*Task, error) {
	if _, err := normalizeTitle(in.Title); err != nil {
		return nil, err
	}

	task, err := s.repo.Create(in.Title)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return task, nil
}

// Get retrieves a single task by id.
func (s *Service) Get(_ context.Context, id string) (*Task, error) {
	return s.repo.FindByID(id)
}

// Update applies a partial update. Every provided field is validated before
// anything is written: either all fields apply together or none do.
func (s *Service) Update(ctx context.Context, id string, in UpdateTaskInput) (*Task, error) {
	patch := UpdatePatch{Title: in.Title}
	if in.Status != nil {
		status := Status(*in.Status)
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
		patch.Status = &status
	}

	task, err := s.repo.UpdateByID(id, patch)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return task, nil
}

// Delete removes a task permanently. Deletion is terminal: every subsequent
// operation on the same id reports not found.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.DeleteByID(id); err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

// Stats returns the status→count aggregate, computed from current collection
// state. Both statuses are always present.
func (s *Service) Stats(ctx context.Context) ([]StatusCount, error) {
	var cached []StatusCount
	found, err := s.cache.Get(ctx, cacheKeyStats, &cached)
	if err != nil {
		log.Printf("[task] Cache error for stats: %v", err)
	}
	if found {
		return cached, nil
	}

	val, err, _ := s.sfGroup.Do(cacheKeyStats, func() (any, error) {
		return s.repo.CountByStatus()
	})
	if err != nil {
		return nil, err
	}
	counts := val.(map[Status]int64)

	stats := []StatusCount{
		{Status: string(StatusOpen), Count: counts[StatusOpen]},
		{Status: string(StatusDone), Count: counts[StatusDone]},
	}

	if err := s.cache.Set(ctx, cacheKeyStats, stats); err != nil {
		log.Printf("[task] Warning: failed to cache stats: %v", err)
	}
	return stats, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Printf("[task] Warning: failed to invalidate cache: %v", err)
	}
}
