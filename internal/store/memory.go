package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/answerhunter/pkg/models"
)

// MemoryStore keeps jobs in process memory. Records are replaced, never mutated in
// place, so snapshots handed out earlier stay valid.
//
// Capacity is bounded: when full, Create evicts the oldest job that has reached a
// terminal state. If every stored job is still in flight, Create fails with ErrStoreFull.
type MemoryStore struct {
	mu      sync.RWMutex
	jobs    map[uuid.UUID]*models.Job
	order   []uuid.UUID
	maxJobs int
	now     func() time.Time
}

// NewMemoryStore creates a store holding at most maxJobs jobs. A non-positive
// maxJobs means unbounded.
func NewMemoryStore(maxJobs int) *MemoryStore {
	return &MemoryStore{
		jobs:    make(map[uuid.UUID]*models.Job),
		maxJobs: maxJobs,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

func (s *MemoryStore) Create(_ context.Context, job *models.Job) error {
	if job == nil || job.ID == uuid.Nil {
		return fmt.Errorf("create job: id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("create job %s: %w", job.ID, ErrDuplicateKey)
	}
	if s.maxJobs > 0 && len(s.jobs) >= s.maxJobs {
		if !s.evictOldestTerminalLocked() {
			return fmt.Errorf("create job %s: %w (%d in flight)", job.ID, ErrStoreFull, len(s.jobs))
		}
	}

	s.jobs[job.ID] = job.Clone()
	s.order = append(s.order, job.ID)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, id uuid.UUID, fn func(*models.Job) error) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}

	next := prev.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := validateUpdate(prev, next); err != nil {
		return nil, err
	}

	next.UpdatedAt = s.now()
	s.jobs[id] = next
	return next.Clone(), nil
}

func (s *MemoryStore) CountByStatus(_ context.Context) (map[models.JobStatus]int, error) {
	counts := make(map[models.JobStatus]int, len(models.AllJobStatuses))
	for _, st := range models.AllJobStatuses {
		counts[st] = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, job := range s.jobs {
		counts[job.Status]++
	}
	return counts, nil
}

func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs), nil
}

// evictOldestTerminalLocked drops the oldest terminal job. Caller holds s.mu.
func (s *MemoryStore) evictOldestTerminalLocked() bool {
	for i, id := range s.order {
		if s.jobs[id].Status.IsTerminal() {
			delete(s.jobs, id)
			s.order = append(s.order[:i], s.order[i+1:]...)
			return true
		}
	}
	return false
}

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
