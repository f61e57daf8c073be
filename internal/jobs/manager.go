// Package jobs owns the lifecycle of submitted queries: it records each job,
// runs its pipeline on a bounded worker pool and writes exactly one terminal result.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/answerhunter/internal/cache"
	"github.com/kiranshivaraju/answerhunter/internal/evidence"
	"github.com/kiranshivaraju/answerhunter/internal/store"
	"github.com/kiranshivaraju/answerhunter/pkg/models"
)

const (
	// NoResultsAnswer completes a job whose search returned nothing.
	NoResultsAnswer = "I couldn't find any relevant search results for your query."

	// NoReliableSourcesAnswer completes a job whose search hits all failed verification.
	NoReliableSourcesAnswer = "I found search results for your query, but none of them came from sources " +
		"reliable enough to answer with confidence. Try rephrasing the question."

	// ServerBusyMessage is recorded on jobs refused because the queue was full.
	ServerBusyMessage = "server busy: too many queries in progress, please retry later"
)

var ErrInvalidQuery = errors.New("query must not be empty")

// ErrEvicted marks a job the store no longer holds but the status mirror still
// remembers. It wraps store.ErrNotFound.
var ErrEvicted = fmt.Errorf("job evicted: %w", store.ErrNotFound)

// Collector gathers verified evidence for a query.
type Collector interface {
	Collect(ctx context.Context, query string, targetCount int) (evidence.Result, error)
}

// Synthesizer turns evidence into a cited answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, items []models.EvidenceItem) (string, error)
}

// Options sizes the manager.
type Options struct {
	Workers           int
	QueueSize         int
	DefaultNumResults int
	MaxNumResults     int
	// StatusTTL is how long the cache status mirror keeps each entry.
	StatusTTL time.Duration
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Workers:           8,
		QueueSize:         256,
		DefaultNumResults: 3,
		MaxNumResults:     10,
		StatusTTL:         30 * time.Minute,
	}
}

// Manager creates jobs, schedules their pipelines and answers status queries.
// The manager is the only writer of job records.
type Manager struct {
	store     store.Store
	cache     cache.Cache
	collector Collector
	synth     Synthesizer
	pool      *Pool
	opts      Options
	now       func() time.Time

	mu     sync.Mutex
	active map[uuid.UUID]time.Time
}

// NewManager wires a Manager. Call Start before submitting work.
func NewManager(st store.Store, ca cache.Cache, collector Collector, synth Synthesizer, opts Options) *Manager {
	if ca == nil {
		ca = cache.NopCache{}
	}
	return &Manager{
		store:     st,
		cache:     ca,
		collector: collector,
		synth:     synth,
		pool:      NewPool(opts.Workers, opts.QueueSize),
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
		active:    make(map[uuid.UUID]time.Time),
	}
}

// Start launches the worker pool.
func (m *Manager) Start(ctx context.Context) {
	m.pool.Start(ctx)
}

// Shutdown stops accepting jobs and waits for queued and running ones. Past the
// deadline in ctx, running pipelines are cancelled and their jobs end up failed.
func (m *Manager) Shutdown(ctx context.Context) error {
	return m.pool.Shutdown(ctx)
}

// NormalizeNumResults applies the default to an unset count and clamps the rest
// into [1, MaxNumResults].
func (m *Manager) NormalizeNumResults(n int) int {
	switch {
	case n == 0:
		return m.opts.DefaultNumResults
	case n < 1:
		return 1
	case n > m.opts.MaxNumResults:
		return m.opts.MaxNumResults
	default:
		return n
	}
}

// Submit records a new job in state initiated and queues its pipeline. It returns
// as soon as the job is queued. When the queue is full the job is recorded as
// failed and ErrQueueFull is returned. Queued jobs only run after Start; a
// Shutdown on a manager that was never started fails them.
func (m *Manager) Submit(ctx context.Context, query string, numResults int) (*models.Job, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidQuery
	}

	now := m.now()
	job := &models.Job{
		ID:         uuid.New(),
		Status:     models.JobStatusInitiated,
		Query:      query,
		NumResults: m.NormalizeNumResults(numResults),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := m.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}
	m.mirrorStatus(ctx, job.ID, job.Status)

	id, q, n := job.ID, job.Query, job.NumResults
	if err := m.pool.Submit(func(ctx context.Context) { m.run(ctx, id, q, n) }); err != nil {
		slog.Warn("job refused", "job_id", id, "error", err)
		m.fail(ctx, id, ServerBusyMessage)
		return nil, fmt.Errorf("queueing job %s: %w", id, err)
	}

	slog.Info("job queued", "job_id", id, "query", q, "num_results", n)
	return job.Clone(), nil
}

// Get returns a snapshot of the job. A job dropped from the store to make room for
// newer ones is reported as ErrEvicted while its cache status entry lives.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job, err := m.store.Get(ctx, id)
	if !errors.Is(err, store.ErrNotFound) {
		return job, err
	}
	status, found, cerr := m.cache.GetJobStatus(ctx, id)
	if cerr != nil {
		slog.Debug("status mirror lookup failed", "job_id", id, "error", cerr)
		return nil, err
	}
	if !found {
		return nil, err
	}
	return nil, fmt.Errorf("%w: job %s last seen %s", ErrEvicted, id, status)
}

// Summary returns point-in-time counters for the whole manager.
func (m *Manager) Summary(ctx context.Context) (models.StatusSummary, error) {
	counts, err := m.store.CountByStatus(ctx)
	if err != nil {
		return models.StatusSummary{}, fmt.Errorf("counting jobs: %w", err)
	}
	total, err := m.store.Len(ctx)
	if err != nil {
		return models.StatusSummary{}, fmt.Errorf("counting jobs: %w", err)
	}

	m.mu.Lock()
	active := len(m.active)
	m.mu.Unlock()

	return models.StatusSummary{
		ActiveWorkerCount: active,
		QueuedJobCount:    m.pool.Queued(),
		TotalJobCount:     total,
		CountsByStatus:    counts,
	}, nil
}

// run executes one job's pipeline. It recovers from panics and always leaves the
// job completed or failed.
func (m *Manager) run(ctx context.Context, id uuid.UUID, query string, numResults int) {
	start := m.now()
	m.trackActive(id, start)
	defer m.untrackActive(id)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in job worker", "error", r, "job_id", id)
			m.fail(ctx, id, fmt.Sprintf("internal error: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		m.fail(ctx, id, fmt.Sprintf("job cancelled before start: %v", err))
		return
	}

	if err := m.transition(ctx, id, func(j *models.Job) error {
		j.Status = models.JobStatusSearching
		return nil
	}); err != nil {
		slog.Error("job could not start", "job_id", id, "error", err)
		m.fail(ctx, id, fmt.Sprintf("starting job: %v", err))
		return
	}

	result, err := m.collector.Collect(ctx, query, numResults)
	if err != nil {
		m.fail(ctx, id, fmt.Sprintf("collecting evidence: %v", err))
		return
	}

	if result.Empty() {
		answer := NoReliableSourcesAnswer
		if result.RawHits == 0 {
			answer = NoResultsAnswer
		}
		m.complete(ctx, id, answer, []models.Source{}, start)
		return
	}

	answer, err := m.synth.Synthesize(ctx, query, result.Evidence)
	if err != nil {
		m.fail(ctx, id, fmt.Sprintf("synthesizing answer: %v", err))
		return
	}

	m.complete(ctx, id, answer, result.Sources, start)
}

func (m *Manager) complete(ctx context.Context, id uuid.UUID, answer string, sources []models.Source, start time.Time) {
	elapsed := m.now().Sub(start).Seconds()
	err := m.transition(ctx, id, func(j *models.Job) error {
		j.Status = models.JobStatusCompleted
		j.Answer = &answer
		j.Sources = sources
		j.ProcessingTime = &elapsed
		return nil
	})
	if err != nil {
		slog.Error("recording job result failed", "job_id", id, "error", err)
		return
	}
	slog.Info("job completed", "job_id", id, "sources", len(sources), "processing_time_seconds", elapsed)
}

func (m *Manager) fail(ctx context.Context, id uuid.UUID, msg string) {
	err := m.transition(ctx, id, func(j *models.Job) error {
		j.Status = models.JobStatusFailed
		j.Error = &msg
		return nil
	})
	if err != nil {
		slog.Error("recording job failure failed", "job_id", id, "error", err, "failure", msg)
		return
	}
	slog.Warn("job failed", "job_id", id, "error", msg)
}

// transition commits one atomic update and mirrors the new status to the cache.
// Writes go through even when ctx is already cancelled so every job reaches a
// terminal state.
func (m *Manager) transition(ctx context.Context, id uuid.UUID, fn func(*models.Job) error) error {
	ctx = context.WithoutCancel(ctx)
	job, err := m.store.Update(ctx, id, fn)
	if err != nil {
		return err
	}
	m.mirrorStatus(ctx, id, job.Status)
	return nil
}

func (m *Manager) mirrorStatus(ctx context.Context, id uuid.UUID, status models.JobStatus) {
	if err := m.cache.SetJobStatus(ctx, id, string(status), m.opts.StatusTTL); err != nil {
		slog.Debug("job status mirror write failed", "job_id", id, "error", err)
	}
}

func (m *Manager) trackActive(id uuid.UUID, start time.Time) {
	m.mu.Lock()
	m.active[id] = start
	m.mu.Unlock()
}

func (m *Manager) untrackActive(id uuid.UUID) {
	m.mu.Lock()
	delete(m.active, id)
	m.mu.Unlock()
}
