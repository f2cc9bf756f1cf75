package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rafaavmsilva/Menu/src/models"
)

const (
	MsgJobStarting = "Iniciando processamento..."
	MsgJobQueued   = "Aguardando na fila..."
)

// JobTracker holds upload job progress. Jobs never expire while processing;
// once terminal they stay visible for the retention period and then vanish.
type JobTracker struct {
	mu        sync.Mutex
	jobs      *cache.Cache
	retention time.Duration
	now       func() time.Time
}

func NewJobTracker(retention, cleanupInterval time.Duration) *JobTracker {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	return &JobTracker{
		jobs:      cache.New(cache.NoExpiration, cleanupInterval),
		retention: retention,
		now:       time.Now,
	}
}

// Create registers a new processing job and returns its id.
func (t *JobTracker) Create(filename string) string {
	id := uuid.NewString()
	job := &models.UploadJob{
		ProcessID: id,
		Filename:  filename,
		Status:    models.JobStatusProcessing,
		Message:   MsgJobStarting,
		StartedAt: t.now().UTC(),
	}

	t.mu.Lock()
	t.jobs.Set(id, job, cache.NoExpiration)
	t.mu.Unlock()
	return id
}

// Update mutates a processing job. Terminal jobs are left untouched.
func (t *JobTracker) Update(id string, fn func(job *models.UploadJob)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.jobs.Get(id)
	if !ok {
		return false
	}
	job := v.(*models.UploadJob)
	if job.Status.IsTerminal() {
		return false
	}
	fn(job)
	return true
}

// Progress records the current row and message.
func (t *JobTracker) Progress(id string, current, total int, message string) {
	t.Update(id, func(job *models.UploadJob) {
		job.Current = current
		job.Total = total
		job.Message = message
	})
}

// Finish moves a job into a terminal status exactly once and starts its
// retention clock.
func (t *JobTracker) Finish(id string, status models.JobStatus, message string, fn func(job *models.UploadJob)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.jobs.Get(id)
	if !ok {
		return false
	}
	job := v.(*models.UploadJob)
	if job.Status.IsTerminal() {
		return false
	}
	if fn != nil {
		fn(job)
	}
	finished := t.now().UTC()
	job.Status = status
	job.Message = message
	job.FinishedAt = &finished
	t.jobs.Set(id, job, t.retention)
	return true
}

// Get returns a snapshot of the job.
func (t *JobTracker) Get(id string) (models.UploadJob, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.jobs.Get(id)
	if !ok {
		return models.UploadJob{}, false
	}
	job := *v.(*models.UploadJob)
	if job.FinishedAt != nil {
		finished := *job.FinishedAt
		job.FinishedAt = &finished
	}
	return job, true
}

// Len counts tracked jobs, including expired ones not yet swept.
func (t *JobTracker) Len() int {
	return t.jobs.ItemCount()
}
