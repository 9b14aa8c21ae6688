package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrJobAlreadyQueued is returned while a run of the same kind is still active
	ErrJobAlreadyQueued = errors.New("job of this kind is already queued or running")

	// ErrUnknownJobKind is returned for a job kind with no registered task
	ErrUnknownJobKind = errors.New("unknown job kind")
)

// JobPanicError wraps a panic raised by a job
type JobPanicError struct {
	Kind  JobKind
	Value any
}

func (e *JobPanicError) Error() string {
	return fmt.Sprintf("job %s panicked: %v", e.Kind, e.Value)
}
