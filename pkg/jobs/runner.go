package jobs

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
)

// Executor performs the work for one job and returns its result payload.
// Errors and panics are converted to a failed job; they never escape the
// runner.
type Executor func(ctx context.Context, job *Job) (any, error)

type submission struct {
	job         *Job
	requiresLLM bool
	exec        Executor
}

// Runner dispatches created jobs to worker goroutines. Data jobs (preprocessing,
// training) and LLM jobs (analysis) are gated separately so CPU-bound fitting
// cannot starve provider calls and vice versa.
type Runner struct {
	mu      sync.Mutex
	store   Store
	pending []*submission

	maxData int
	maxLLM  int
	dataRun int
	llmRun  int
	closed  bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
}

// NewRunner creates a runner executing at most maxData data jobs and maxLLM
// LLM jobs concurrently. Limits below 1 are clamped to 1.
func NewRunner(store Store, maxData, maxLLM int, logger *zap.Logger) *Runner {
	if maxData < 1 {
		maxData = 1
	}
	if maxLLM < 1 {
		maxLLM = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		store:   store,
		maxData: maxData,
		maxLLM:  maxLLM,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.Named("jobs"),
	}
}

// Submit queues a job for execution. The call returns immediately; Status
// polling through the store observes progress.
func (r *Runner) Submit(job *Job, requiresLLM bool, exec Executor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return apperrors.Storage(nil, "runner is shut down")
	}

	r.pending = append(r.pending, &submission{job: job, requiresLLM: requiresLLM, exec: exec})
	r.logger.Info("job submitted",
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(job.Kind)),
		zap.Bool("requires_llm", requiresLLM))

	r.tryStartLocked()
	return nil
}

// tryStartLocked starts every pending submission that fits under the gates.
// Must be called with the lock held.
func (r *Runner) tryStartLocked() {
	if r.closed {
		return
	}

	remaining := r.pending[:0]
	for _, sub := range r.pending {
		canStart := (sub.requiresLLM && r.llmRun < r.maxLLM) ||
			(!sub.requiresLLM && r.dataRun < r.maxData)
		if !canStart {
			remaining = append(remaining, sub)
			continue
		}

		if err := r.store.MarkRunning(r.ctx, sub.job.ID); err != nil {
			// Another worker claimed it, or the job vanished. Drop it.
			r.logger.Warn("job not claimable",
				zap.String("job_id", sub.job.ID.String()),
				zap.Error(err))
			continue
		}

		if sub.requiresLLM {
			r.llmRun++
		} else {
			r.dataRun++
		}

		r.logger.Info("job started",
			zap.String("job_id", sub.job.ID.String()),
			zap.String("kind", string(sub.job.Kind)))

		r.wg.Add(1)
		go r.run(sub)
	}
	r.pending = remaining
}

func (r *Runner) run(sub *submission) {
	defer r.wg.Done()

	result, err := r.execute(sub)

	if err != nil {
		if failErr := r.store.Fail(context.Background(), sub.job.ID, err.Error()); failErr != nil {
			r.logger.Error("record job failure",
				zap.String("job_id", sub.job.ID.String()),
				zap.Error(failErr))
		}
		r.logger.Warn("job failed",
			zap.String("job_id", sub.job.ID.String()),
			zap.String("kind", string(sub.job.Kind)),
			zap.Error(err))
	} else {
		if compErr := r.store.Complete(context.Background(), sub.job.ID, result); compErr != nil {
			r.logger.Error("record job completion",
				zap.String("job_id", sub.job.ID.String()),
				zap.Error(compErr))
		}
		r.logger.Info("job completed",
			zap.String("job_id", sub.job.ID.String()),
			zap.String("kind", string(sub.job.Kind)))
	}

	r.mu.Lock()
	if sub.requiresLLM {
		r.llmRun--
	} else {
		r.dataRun--
	}
	r.tryStartLocked()
	r.mu.Unlock()
}

// execute invokes the executor with panic recovery.
func (r *Runner) execute(sub *submission) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("job panicked",
				zap.String("job_id", sub.job.ID.String()),
				zap.Any("panic", p))
			result = nil
			err = fmt.Errorf("job panicked: %v", p)
		}
	}()
	return sub.exec(r.ctx, sub.job)
}

// Shutdown cancels running jobs and waits for them to record their terminal
// state, or until ctx expires.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	dropped := r.pending
	r.pending = nil
	r.mu.Unlock()

	r.cancel()

	// Pending jobs never started; push them through running so they land in a
	// terminal state instead of dangling as pending forever.
	for _, sub := range dropped {
		if err := r.store.MarkRunning(context.Background(), sub.job.ID); err != nil {
			continue
		}
		_ = r.store.Fail(context.Background(), sub.job.ID, "engine shut down before the job started")
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
