package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a query job.
type JobStatus string

const (
	JobStatusInitiated JobStatus = "initiated"
	JobStatusSearching JobStatus = "searching"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// AllJobStatuses lists every status in lifecycle order.
var AllJobStatuses = []JobStatus{
	JobStatusInitiated,
	JobStatusSearching,
	JobStatusCompleted,
	JobStatusFailed,
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job tracks one submitted query. The API returns it on POST /query;
// the client polls GET /query/{queryID} until status is completed or failed.
type Job struct {
	ID             uuid.UUID `json:"id"`
	Status         JobStatus `json:"status"`
	Query          string    `json:"query"`
	NumResults     int       `json:"num_results"`
	Answer         *string   `json:"answer,omitempty"`
	Sources        []Source  `json:"sources"`
	Error          *string   `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ProcessingTime *float64  `json:"processing_time_seconds,omitempty"`
}

// Clone returns a deep copy so callers never share mutable state with the store.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	c := *j
	if j.Answer != nil {
		a := *j.Answer
		c.Answer = &a
	}
	if j.Error != nil {
		e := *j.Error
		c.Error = &e
	}
	if j.ProcessingTime != nil {
		p := *j.ProcessingTime
		c.ProcessingTime = &p
	}
	if j.Sources != nil {
		c.Sources = make([]Source, len(j.Sources))
		copy(c.Sources, j.Sources)
	}
	return &c
}

// Source is the caller-facing citation shown next to an answer.
type Source struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// EvidenceItem is fetched page content for one accepted search hit.
// It lives only for the duration of a single pipeline run.
type EvidenceItem struct {
	URL     string
	Title   string
	Content string
}
