package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/answerhunter/pkg/models"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicateKey      = errors.New("duplicate key violation")
	ErrInvalidTransition = errors.New("invalid job update")
	ErrStoreFull         = errors.New("job store full")
)

// Store is the data access interface for jobs. Implementations must be safe for
// concurrent use and must never hand out pointers to their internal records.
type Store interface {
	Ping(ctx context.Context) error

	// Create inserts a new job. The store keeps its own copy.
	Create(ctx context.Context, job *models.Job) error
	// Get returns a snapshot of the job.
	Get(ctx context.Context, id uuid.UUID) (*models.Job, error)
	// Update applies fn to a copy of the job and commits the copy in one step if fn
	// succeeds and the result is a legal successor of the stored job. The committed
	// snapshot is returned.
	Update(ctx context.Context, id uuid.UUID, fn func(*models.Job) error) (*models.Job, error)

	// CountByStatus returns a point-in-time count for every status, including zeros.
	CountByStatus(ctx context.Context) (map[models.JobStatus]int, error)
	Len(ctx context.Context) (int, error)
}

var validTransitions = map[models.JobStatus][]models.JobStatus{
	models.JobStatusInitiated: {models.JobStatusSearching, models.JobStatusFailed},
	models.JobStatusSearching: {models.JobStatusCompleted, models.JobStatusFailed},
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to models.JobStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// validateUpdate checks that next is a legal successor of prev.
func validateUpdate(prev, next *models.Job) error {
	if prev.Status.IsTerminal() {
		return fmt.Errorf("%w: job %s is already %s", ErrInvalidTransition, prev.ID, prev.Status)
	}
	if next.ID != prev.ID || next.Query != prev.Query ||
		next.NumResults != prev.NumResults || !next.CreatedAt.Equal(prev.CreatedAt) {
		return fmt.Errorf("%w: immutable field changed on job %s", ErrInvalidTransition, prev.ID)
	}
	if next.Status != prev.Status && !CanTransition(prev.Status, next.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prev.Status, next.Status)
	}

	completed := next.Status == models.JobStatusCompleted
	if !completed && (next.Answer != nil || next.Sources != nil || next.ProcessingTime != nil) {
		return fmt.Errorf("%w: result set on %s job", ErrInvalidTransition, next.Status)
	}
	if completed && next.Answer == nil {
		return fmt.Errorf("%w: completed job without answer", ErrInvalidTransition)
	}
	if next.Status != models.JobStatusFailed && next.Error != nil {
		return fmt.Errorf("%w: error set on %s job", ErrInvalidTransition, next.Status)
	}
	if next.Status == models.JobStatusFailed && next.Error == nil {
		return fmt.Errorf("%w: failed job without error", ErrInvalidTransition)
	}
	return nil
}
