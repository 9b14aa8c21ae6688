// Package scheduler runs background jobs: the periodic registry sync and the
// verification code reaper.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/datadik/portal/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobKind names the work a job performs
type JobKind string

const (
	JobKindRegistrySync     JobKind = "REGISTRY_SYNC"
	JobKindVerificationReap JobKind = "VERIFICATION_REAP"
)

// Job is one scheduled run of a kind, including its retries
type Job struct {
	ID         uuid.UUID
	Kind       JobKind
	Attempt    int
	MaxRetries int

	retry *backoff.ExponentialBackOff
}

// JobExecutor executes jobs
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Workers       int
	JobTimeout    time.Duration
	RetryAttempts int
	// RetryDelay is the first retry delay; later retries back off
	// exponentially up to RetryMaxDelay
	RetryDelay    time.Duration
	RetryMaxDelay time.Duration
	QueueSize     int
}

// DefaultSchedulerConfig runs one job at a time. A registry sync walks
// every school sequentially, so a second worker would only compete with it.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Workers:       1,
		JobTimeout:    30 * time.Minute,
		RetryAttempts: 0,
		RetryDelay:    time.Minute,
		RetryMaxDelay: 15 * time.Minute,
		QueueSize:     16,
	}
}

// Scheduler runs jobs on a small worker pool. At most one job per kind is
// queued or running; scheduling a kind that is still active is refused
// with ErrJobAlreadyQueued.
type Scheduler struct {
	config   SchedulerConfig
	executor JobExecutor
	logger   *zap.Logger

	jobs    chan *Job
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	active  map[JobKind]*Job
	retries map[uuid.UUID]*time.Timer
}

// NewScheduler creates a stopped scheduler
func NewScheduler(config SchedulerConfig, executor JobExecutor, logger *zap.Logger) *Scheduler {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 16
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 30 * time.Minute
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Minute
	}
	if config.RetryMaxDelay < config.RetryDelay {
		config.RetryMaxDelay = config.RetryDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:   config,
		executor: executor,
		logger:   logger,
		jobs:     make(chan *Job, config.QueueSize),
		active:   make(map[JobKind]*Job),
		retries:  make(map[uuid.UUID]*time.Timer),
	}
}

// Start starts the workers
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)
	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Job scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs, drops pending retries and waits for the
// workers until ctx expires
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	for id, timer := range s.retries {
		timer.Stop()
		delete(s.retries, id)
	}
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Job scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
		return ctx.Err()
	}
}

// Schedule queues a run of kind
func (s *Scheduler) Schedule(kind JobKind) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil, ErrSchedulerNotRunning
	}
	if _, busy := s.active[kind]; busy {
		return nil, ErrJobAlreadyQueued
	}

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = s.config.RetryDelay
	retry.MaxInterval = s.config.RetryMaxDelay
	job := &Job{ID: uuid.New(), Kind: kind, MaxRetries: s.config.RetryAttempts, retry: retry}

	select {
	case s.jobs <- job:
	default:
		return nil, ErrJobQueueFull
	}
	s.active[kind] = job
	s.logger.Debug("Job queued", zap.String("job_id", job.ID.String()), zap.String("kind", string(kind)))
	return job, nil
}

// Active reports whether a run of kind is queued, running or waiting to retry
func (s *Scheduler) Active(kind JobKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[kind]
	return ok
}

func (s *Scheduler) worker(ctx context.Context, id int) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.run(ctx, job, id)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, job *Job, worker int) {
	log := s.logger.With(
		zap.Int("worker_id", worker),
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(job.Kind)),
		zap.Int("attempt", job.Attempt),
	)
	log.Info("Job started")
	start := time.Now()

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	err := s.execute(jobCtx, job)
	cancel()

	if err == nil {
		log.Info("Job finished", zap.Duration("elapsed", time.Since(start)))
		s.release(job)
		return
	}
	log.Error("Job failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))

	if job.Attempt >= job.MaxRetries || ctx.Err() != nil {
		s.release(job)
		return
	}
	job.Attempt++
	delay := job.retry.NextBackOff()
	log.Info("Job retry scheduled", zap.Duration("delay", delay))
	s.retryAfter(job, delay)
}

func (s *Scheduler) retryAfter(job *Job, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		delete(s.active, job.Kind)
		return
	}
	s.retries[job.ID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, pending := s.retries[job.ID]; !pending {
			return
		}
		delete(s.retries, job.ID)
		select {
		case s.jobs <- job:
		default:
			s.logger.Warn("Job queue full, retry dropped", zap.String("job_id", job.ID.String()))
			delete(s.active, job.Kind)
		}
	})
}

func (s *Scheduler) release(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[job.Kind] == job {
		delete(s.active, job.Kind)
	}
}

func (s *Scheduler) execute(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &JobPanicError{Kind: job.Kind, Value: r}
		}
	}()
	telemetry.WithProfilingLabels(ctx, map[string]string{"job": string(job.Kind)}, func(ctx context.Context) {
		err = s.executor.Execute(ctx, job)
	})
	return err
}
