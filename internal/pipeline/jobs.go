package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// JobStatus represents the state of a push job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusCompiling JobStatus = "compiling"
	StatusPushing   JobStatus = "pushing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusUnchanged JobStatus = "unchanged"
)

// Job tracks the state of a single Markdown push to a document.
type Job struct {
	mu sync.Mutex

	ID         string `json:"job_id"`
	DocumentID string `json:"document_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	// Force pushes even when the content matches the last push.
	Force bool `json:"force"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	markdown []byte
	errors   []string
}

// Progress tracks what the push produced.
type Progress struct {
	Requests int      `json:"requests"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

// NewJob creates a queued job pushing markdown to a document.
func NewJob(documentID string, markdown []byte, force bool) *Job {
	now := time.Now()
	return &Job{
		ID:          newJobID(),
		DocumentID:  documentID,
		Status:      StatusQueued,
		Phase:       "queued",
		Force:       force,
		ContentHash: ContentHashHex(markdown),
		CreatedAt:   now,
		UpdatedAt:   now,
		markdown:    markdown,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len is the number of jobs held.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetCompiled records the size of the compiled batch and its warnings.
func (j *Job) SetCompiled(requests int, warnings []string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Requests = requests
	j.Progress.Warnings = append([]string(nil), warnings...)
	j.UpdatedAt = time.Now()
}

// Markdown returns the source being pushed.
func (j *Job) Markdown() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.markdown
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	DocumentID  string    `json:"document_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	ContentHash string    `json:"content_hash"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:          j.ID,
		DocumentID:  j.DocumentID,
		Status:      j.Status,
		Phase:       j.Phase,
		ContentHash: j.ContentHash,
		Progress: Progress{
			Requests: j.Progress.Requests,
			Warnings: nonNil(j.Progress.Warnings),
			Errors:   nonNil(j.Progress.Errors),
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string(nil), s...)
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
