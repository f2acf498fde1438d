package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/dgallion1/guideparse/internal/doctree"
	"github.com/dgallion1/guideparse/internal/sections"
	"github.com/google/uuid"
)

// JobStatus represents the state of a reconstruction job.
type JobStatus string

const (
	StatusQueued         JobStatus = "queued"
	StatusParsing        JobStatus = "parsing"
	StatusReconstructing JobStatus = "reconstructing"
	StatusChunking       JobStatus = "chunking"
	StatusCompleted      JobStatus = "completed"
	StatusFailed         JobStatus = "failed"
	StatusDupSkipped     JobStatus = "duplicate_skipped"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusDupSkipped
}

// Source names where a job's fragments came from.
const (
	SourceGrobid = "grobid"
	SourceLocal  = "local"
	SourceJSON   = "json"
)

// Job tracks the state of a single document.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"doc_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Force    bool      `json:"force"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	DuplicateOf string    `json:"duplicate_of,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	result   *Result
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	Fragments  int      `json:"fragments"`
	Duplicates int      `json:"duplicates"`
	Noise      int      `json:"noise"`
	Sections   int      `json:"sections"`
	Chunks     int      `json:"chunks"`
	Errors     []string `json:"errors"`
}

// Result is the output of a finished job.
type Result struct {
	Title    string            `json:"title"`
	Source   string            `json:"source"`
	Sections []doctree.Section `json:"sections"`
	Stats    sections.Stats    `json:"stats"`
	Chunks   []doctree.Chunk   `json:"chunks"`
}

// NewJob creates a queued job for an uploaded file.
func NewJob(filename, title string, data []byte, force bool) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.NewString(),
		DocID:       uuid.NewString(),
		Status:      StatusQueued,
		Phase:       "queued",
		Filename:    filename,
		Title:       title,
		Force:       force,
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
		fileData:    data,
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

// FindCompleted returns a completed job, other than excludeID, whose upload
// had the given content hash.
func (s *JobStore) FindCompleted(hash, excludeID string) *Job {
	s.mu.Lock()
	jobs := make([]*Job, 0, len(s.jobs))
	for id, j := range s.jobs {
		if id != excludeID {
			jobs = append(jobs, j)
		}
	}
	s.mu.Unlock()

	for _, j := range jobs {
		j.mu.Lock()
		match := j.ContentHash == hash && j.Status == StatusCompleted && j.result != nil
		j.mu.Unlock()
		if match {
			return j
		}
	}
	return nil
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
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

// SetFragments records how many fragments the extractor produced.
func (j *Job) SetFragments(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Fragments = n
	j.UpdatedAt = time.Now()
}

// SetResult stores the job output and the progress counters derived from it.
// The uploaded bytes are released.
func (j *Job) SetResult(r *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = r
	j.fileData = nil
	j.Progress.Fragments = r.Stats.Input
	j.Progress.Duplicates = r.Stats.Duplicates
	j.Progress.Noise = r.Stats.Noise
	j.Progress.Sections = len(r.Sections)
	j.Progress.Chunks = len(r.Chunks)
	j.UpdatedAt = time.Now()
}

// Result returns the job output, or nil while the job is unfinished.
func (j *Job) Result() *Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	DocID       string    `json:"doc_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	Source      string    `json:"source,omitempty"`
	DuplicateOf string    `json:"duplicate_of,omitempty"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	p := j.Progress
	p.Errors = append([]string{}, j.Progress.Errors...)
	snap := JobSnapshot{
		ID:          j.ID,
		DocID:       j.DocID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Title:       j.Title,
		DuplicateOf: j.DuplicateOf,
		Progress:    p,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
	if j.result != nil {
		snap.Source = j.result.Source
		if j.result.Title != "" {
			snap.Title = j.result.Title
		}
	}
	return snap
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
