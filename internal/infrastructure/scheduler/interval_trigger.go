package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// IntervalTrigger submits each registered job kind on its own interval
type IntervalTrigger struct {
	scheduler *Scheduler
	logger    *zap.Logger
	intervals map[JobKind]time.Duration

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewIntervalTrigger creates a trigger feeding s
func NewIntervalTrigger(s *Scheduler, logger *zap.Logger) *IntervalTrigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntervalTrigger{
		scheduler: s,
		logger:    logger,
		intervals: make(map[JobKind]time.Duration),
	}
}

// Every registers kind to run every interval. A non-positive interval
// leaves the kind unscheduled.
func (t *IntervalTrigger) Every(kind JobKind, interval time.Duration) *IntervalTrigger {
	if interval <= 0 {
		t.logger.Info("Job kind not scheduled", zap.String("kind", string(kind)))
		return t
	}
	t.mu.Lock()
	t.intervals[kind] = interval
	t.mu.Unlock()
	return t
}

// Kinds returns the number of scheduled kinds
func (t *IntervalTrigger) Kinds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.intervals)
}

// Start starts one ticker per registered kind
func (t *IntervalTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning {
		return nil
	}
	t.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	for kind, interval := range t.intervals {
		t.wg.Add(1)
		go t.runLoop(ctx, kind, interval)
		t.logger.Info("Interval trigger started",
			zap.String("kind", string(kind)),
			zap.Duration("interval", interval),
		)
	}
	return nil
}

// Stop stops all tickers
func (t *IntervalTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Interval trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *IntervalTrigger) runLoop(ctx context.Context, kind JobKind, interval time.Duration) {
	defer t.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := t.scheduler.Schedule(kind)
			switch {
			case errors.Is(err, ErrJobAlreadyQueued):
				t.logger.Debug("Previous run still active, tick skipped", zap.String("kind", string(kind)))
			case err != nil:
				t.logger.Warn("Failed to schedule job",
					zap.String("kind", string(kind)),
					zap.Error(err),
				)
			}
		}
	}
}
