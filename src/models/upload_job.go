package models

import "time"

type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusError      JobStatus = "error"
)

// IsTerminal reports whether no further transitions are allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusError
}

// UploadJob is the pollable state of one asynchronous ingestion run.
type UploadJob struct {
	ProcessID  string     `json:"process_id"`
	Filename   string     `json:"filename"`
	Status     JobStatus  `json:"status"`
	Current    int        `json:"current"`
	Total      int        `json:"total"`
	Message    string     `json:"message"`
	Inserted   int        `json:"inserted"`
	Skipped    int        `json:"skipped"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
