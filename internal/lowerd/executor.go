package lowerd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GoSim-25-26J-441/seqcsp/internal/engine"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/config"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/logger"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

// ErrInvalidModel wraps parse, validation and build failures of a submitted model.
var ErrInvalidModel = errors.New("invalid model")

// Executor runs lowering jobs asynchronously and supports per-job cancellation.
type Executor struct {
	store *JobStore
	cfg   *config.Config

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	done    map[string]chan struct{}
}

// NewExecutor creates an executor. A nil cfg uses config.DefaultConfig.
func NewExecutor(store *JobStore, cfg *config.Config) *Executor {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Executor{
		store:   store,
		cfg:     cfg,
		cancels: make(map[string]context.CancelFunc),
		done:    make(map[string]chan struct{}),
	}
}

// Store returns the executor's job store.
func (e *Executor) Store() *JobStore {
	return e.store
}

// Submit creates a job for input and starts it.
func (e *Executor) Submit(input *JobInput) (Job, error) {
	job, err := e.store.Create(input)
	if err != nil {
		return Job{}, err
	}
	return e.Start(job.ID)
}

// Start begins executing a pending job.
// Returns the updated job state (RUNNING) or an error.
func (e *Executor) Start(jobID string) (Job, error) {
	if jobID == "" {
		return Job{}, ErrJobIDMissing
	}

	job, ok := e.store.Get(jobID)
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	switch {
	case job.Status == JobRunning:
		return job, nil
	case job.Status.Terminal():
		return Job{}, fmt.Errorf("%w: %s", ErrJobTerminal, jobID)
	}

	updated, err := e.store.SetStatus(jobID, JobRunning, "")
	if err != nil {
		return Job{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.mu.Lock()
	if old, exists := e.cancels[jobID]; exists {
		old()
	}
	e.cancels[jobID] = cancel
	e.done[jobID] = done
	e.mu.Unlock()

	go e.runJob(ctx, jobID, done)
	return updated, nil
}

// Cancel requests cancellation of a job and marks it cancelled.
func (e *Executor) Cancel(jobID string) (Job, error) {
	if jobID == "" {
		return Job{}, ErrJobIDMissing
	}

	e.mu.Lock()
	cancel, ok := e.cancels[jobID]
	e.mu.Unlock()

	if ok {
		cancel()
	}
	return e.store.SetStatus(jobID, JobCancelled, "")
}

// Wait blocks until the job's goroutine has finished or ctx is done, and
// returns the job's state.
func (e *Executor) Wait(ctx context.Context, jobID string) (Job, error) {
	e.mu.Lock()
	done, ok := e.done[jobID]
	e.mu.Unlock()

	if ok {
		select {
		case <-done:
		case <-ctx.Done():
			return Job{}, ctx.Err()
		}
	}
	job, found := e.store.Get(jobID)
	if !found {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return job, nil
}

// cleanup forgets a finished job. Waiters holding done are released when it
// is closed; later waiters read the stored terminal state directly.
func (e *Executor) cleanup(jobID string, done chan struct{}) {
	e.mu.Lock()
	if cancel, ok := e.cancels[jobID]; ok {
		cancel()
		delete(e.cancels, jobID)
	}
	if e.done[jobID] == done {
		delete(e.done, jobID)
	}
	e.mu.Unlock()
}

func (e *Executor) runJob(ctx context.Context, jobID string, done chan struct{}) {
	defer close(done)
	defer e.cleanup(jobID, done)

	input, ok := e.store.Input(jobID)
	if !ok {
		logger.Error("job not found", "job_id", jobID)
		return
	}

	res, err := e.Lower(ctx, input)
	if err != nil {
		status := JobFailed
		if errors.Is(err, context.Canceled) {
			status = JobCancelled
		}
		logger.Info("job did not complete", "job_id", jobID, "status", status, "error", err)
		if _, setErr := e.store.SetStatus(jobID, status, err.Error()); setErr != nil && !errors.Is(setErr, ErrJobTerminal) {
			logger.Error("failed to set job status", "job_id", jobID, "error", setErr)
		}
		return
	}

	if _, err := e.store.Complete(jobID, res); err != nil {
		// A job cancelled while finishing keeps its cancelled status.
		if !errors.Is(err, ErrJobTerminal) {
			logger.Error("failed to store job result", "job_id", jobID, "error", err)
		}
		return
	}
	logger.Info("job completed",
		"job_id", jobID,
		"diagnostics", len(res.Diagnostics),
		"interactions_lowered", res.Metrics.InteractionsLowered)
}

// Lower parses, builds and lowers input synchronously.
func (e *Executor) Lower(ctx context.Context, input *JobInput) (*engine.Result, error) {
	if input == nil || input.ModelYAML == "" {
		return nil, fmt.Errorf("%w: model_yaml is required", ErrInvalidModel)
	}
	doc, err := config.ParseDocumentYAMLString(input.ModelYAML, e.cfg.FormatConstraint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	spec, err := config.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	return engine.NewGenerator(e.options(input.Options)).Generate(ctx, spec)
}

func (e *Executor) options(o JobOptions) engine.Options {
	opts := engine.Options{
		Workers:      e.cfg.Workers,
		Prelude:      e.cfg.Output.Prelude,
		DeclareCore:  e.cfg.Output.DeclareCore,
		Annotate:     e.cfg.Output.Annotate,
		DefaultModel: models.SemanticModel(e.cfg.DefaultModel),
	}
	if o.Prelude != nil {
		opts.Prelude = *o.Prelude
	}
	if o.DeclareCore != nil {
		opts.DeclareCore = *o.DeclareCore
	}
	if o.Annotate != nil {
		opts.Annotate = *o.Annotate
	}
	if o.DefaultModel != "" {
		opts.DefaultModel = models.SemanticModel(o.DefaultModel)
	}
	return opts
}
