package models

import "time"

// StatusSummary is a point-in-time view of the job manager, served on GET /status.
type StatusSummary struct {
	ActiveWorkerCount int               `json:"active_worker_count"`
	QueuedJobCount    int               `json:"queued_job_count"`
	TotalJobCount     int               `json:"total_job_count"`
	CountsByStatus    map[JobStatus]int `json:"counts_by_status"`
}

// HealthReport is served on GET /health.
type HealthReport struct {
	Status                string            `json:"status"`
	Timestamp             time.Time         `json:"timestamp"`
	CredentialsConfigured bool              `json:"credentials_configured"`
	Services              map[string]string `json:"services"`
}
