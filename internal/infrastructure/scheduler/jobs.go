package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RegistrySyncer runs one unattended registry sync
type RegistrySyncer interface {
	RunScheduled(ctx context.Context) error
}

// CodeReaper deletes verification codes that expired before a cutoff
type CodeReaper interface {
	ReapExpired(ctx context.Context, before time.Time) (int64, error)
}

// TaskFunc is the body of a job kind
type TaskFunc func(ctx context.Context) error

// TaskExecutor dispatches jobs to the task registered for their kind
type TaskExecutor struct {
	tasks  map[JobKind]TaskFunc
	logger *zap.Logger
}

// NewTaskExecutor creates an executor with no tasks
func NewTaskExecutor(logger *zap.Logger) *TaskExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskExecutor{tasks: make(map[JobKind]TaskFunc), logger: logger}
}

// Register binds kind to fn
func (e *TaskExecutor) Register(kind JobKind, fn TaskFunc) *TaskExecutor {
	e.tasks[kind] = fn
	return e
}

// Execute runs the task for job.Kind
func (e *TaskExecutor) Execute(ctx context.Context, job *Job) error {
	fn, ok := e.tasks[job.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJobKind, job.Kind)
	}
	return fn(ctx)
}

// RegistrySyncTask runs a scheduled sync
func RegistrySyncTask(syncer RegistrySyncer) TaskFunc {
	return func(ctx context.Context) error {
		return syncer.RunScheduled(ctx)
	}
}

// VerificationReapTask deletes codes that expired more than reapAfter ago
func VerificationReapTask(reaper CodeReaper, reapAfter time.Duration, logger *zap.Logger) TaskFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context) error {
		cutoff := time.Now().Add(-reapAfter)
		n, err := reaper.ReapExpired(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("reap verification codes: %w", err)
		}
		logger.Info("Reaped expired verification codes",
			zap.Int64("deleted", n),
			zap.Time("cutoff", cutoff),
		)
		return nil
	}
}

var _ JobExecutor = (*TaskExecutor)(nil)
