package lowerd

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/seqcsp/internal/engine"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/utils"
)

// JobStatus is the lifecycle state of a lowering job
type JobStatus string

const (
	JobPending   JobStatus = "PENDING"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
	JobCancelled JobStatus = "CANCELLED"
)

// Terminal reports whether no further transition can happen.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// ParseJobStatus parses a status filter, case-insensitively. The empty string
// and unknown values yield "".
func ParseJobStatus(s string) JobStatus {
	switch st := JobStatus(strings.ToUpper(s)); st {
	case JobPending, JobRunning, JobCompleted, JobFailed, JobCancelled:
		return st
	}
	return ""
}

var (
	ErrJobNotFound  = errors.New("job not found")
	ErrJobTerminal  = errors.New("job is terminal")
	ErrJobIDMissing = errors.New("job_id is required")
	ErrJobRunning   = errors.New("job has not finished")
)

// JobOptions override the daemon configuration for one job. Unset fields
// keep the configured value.
type JobOptions struct {
	Prelude      *bool  `json:"prelude,omitempty"`
	DeclareCore  *bool  `json:"declare_core,omitempty"`
	Annotate     *bool  `json:"annotate,omitempty"`
	DefaultModel string `json:"default_model,omitempty"`
}

// JobInput is what a client submits: a model document and options.
type JobInput struct {
	ModelYAML string     `json:"model_yaml"`
	Options   JobOptions `json:"options"`
}

// DiagnosticJSON is the wire form of an engine diagnostic.
type DiagnosticJSON struct {
	Group       string `json:"group"`
	Interaction string `json:"interaction,omitempty"`
	Property    string `json:"property,omitempty"`
	Error       string `json:"error"`
	Recoverable bool   `json:"recoverable"`
}

func convertDiagnostics(diags []engine.Diagnostic) []DiagnosticJSON {
	out := make([]DiagnosticJSON, 0, len(diags))
	for _, d := range diags {
		out = append(out, DiagnosticJSON{
			Group:       d.Group,
			Interaction: d.Interaction,
			Property:    d.Property,
			Error:       d.Err.Error(),
			Recoverable: d.Recoverable,
		})
	}
	return out
}

// Job is a snapshot of a lowering job. Output is withheld from listings.
type Job struct {
	ID              string                    `json:"id"`
	Status          JobStatus                 `json:"status"`
	CreatedAtUnixMs int64                     `json:"created_at_unix_ms"`
	StartedAtUnixMs int64                     `json:"started_at_unix_ms,omitempty"`
	EndedAtUnixMs   int64                     `json:"ended_at_unix_ms,omitempty"`
	Error           string                    `json:"error,omitempty"`
	Diagnostics     []DiagnosticJSON          `json:"diagnostics,omitempty"`
	Metrics         *models.GenerationMetrics `json:"metrics,omitempty"`
}

// JobRecord is the stored state of a job.
type JobRecord struct {
	Job    Job
	Input  *JobInput
	Output string
}

// JobStore keeps jobs in memory
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*JobRecord
}

func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]*JobRecord),
	}
}

func nowUnixMs() int64 {
	return time.Now().UTC().UnixMilli()
}

// Create stores a new pending job with a generated ID.
func (s *JobStore) Create(input *JobInput) (Job, error) {
	if input == nil || input.ModelYAML == "" {
		return Job{}, fmt.Errorf("model_yaml is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := utils.GenerateJobID()
	if _, exists := s.jobs[id]; exists {
		return Job{}, fmt.Errorf("job already exists: %s", id)
	}
	rec := &JobRecord{
		Job: Job{
			ID:              id,
			Status:          JobPending,
			CreatedAtUnixMs: nowUnixMs(),
		},
		Input: input,
	}
	s.jobs[id] = rec
	return rec.Job, nil
}

// Get returns a snapshot of a job.
func (s *JobStore) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return rec.Job, true
}

// Input returns the submitted input of a job.
func (s *JobStore) Input(id string) (*JobInput, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	return rec.Input, true
}

// Output returns the generated script of a completed job.
func (s *JobStore) Output(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if rec.Job.Status != JobCompleted {
		return "", fmt.Errorf("%w: %s is %s", ErrJobRunning, id, rec.Job.Status)
	}
	return rec.Output, nil
}

// List returns up to limit jobs after offset, oldest first, optionally
// filtered by status.
func (s *JobStore) List(limit, offset int, status JobStatus) []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	all := make([]Job, 0, len(s.jobs))
	for _, rec := range s.jobs {
		if status != "" && rec.Job.Status != status {
			continue
		}
		all = append(all, rec.Job)
	}
	// Job IDs are time-ordered.
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if offset >= len(all) {
		return []Job{}
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

// SetStatus moves a job to status. Terminal jobs keep their status.
func (s *JobStore) SetStatus(id string, status JobStatus, errMsg string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if rec.Job.Status.Terminal() {
		return rec.Job, fmt.Errorf("%w: %s", ErrJobTerminal, id)
	}

	rec.Job.Status = status
	if errMsg != "" {
		rec.Job.Error = errMsg
	}

	switch {
	case status == JobRunning:
		if rec.Job.StartedAtUnixMs == 0 {
			rec.Job.StartedAtUnixMs = nowUnixMs()
		}
	case status.Terminal():
		rec.Job.EndedAtUnixMs = nowUnixMs()
	}
	return rec.Job, nil
}

// Complete stores the result of a finished generation and marks the job completed.
func (s *JobStore) Complete(id string, res *engine.Result) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if rec.Job.Status.Terminal() {
		return rec.Job, fmt.Errorf("%w: %s", ErrJobTerminal, id)
	}
	rec.Output = res.Output
	rec.Job.Diagnostics = convertDiagnostics(res.Diagnostics)
	rec.Job.Metrics = res.Metrics
	rec.Job.Status = JobCompleted
	rec.Job.EndedAtUnixMs = nowUnixMs()
	return rec.Job, nil
}
