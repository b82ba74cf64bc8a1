package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eventup/api/internal/cache"
)

// Task is the work done by one run
type Task func(ctx context.Context, now time.Time) error

// Recorder counts job runs
type Recorder interface {
	JobRun(job string, err error)
}

// Runner runs a Task on a fixed interval
type Runner struct {
	name     string
	interval time.Duration
	delay    time.Duration
	timeout  time.Duration
	task     Task
	locks    cache.Store
	metrics  Recorder
	logger   *zap.Logger
	now      func() time.Time

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// RunnerConfig holds the shared settings of a runner
type RunnerConfig struct {
	Locks   cache.Store
	Metrics Recorder
	Logger  *zap.Logger
	// StartDelay is waited before the first run
	StartDelay time.Duration
	Now        func() time.Time
}

// NewRunner creates a runner for task
func NewRunner(name string, interval time.Duration, task Task, cfg RunnerConfig) *Runner {
	if interval <= 0 {
		interval = time.Hour
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	timeout := 5 * time.Minute
	if interval < timeout {
		timeout = interval
	}
	return &Runner{
		name:     name,
		interval: interval,
		delay:    cfg.StartDelay,
		timeout:  timeout,
		task:     task,
		locks:    cfg.Locks,
		metrics:  cfg.Metrics,
		logger:   logger.With(zap.String("job", name)),
		now:      now,
		stopCh:   make(chan struct{}),
	}
}

// Name returns the job name
func (r *Runner) Name() string { return r.name }

// Interval returns the time between runs
func (r *Runner) Interval() time.Duration { return r.interval }

// Start begins the loop
func (r *Runner) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run()
	r.logger.Info("job started", zap.Duration("interval", r.interval))
}

// Stop ends the loop and waits for an in-flight run
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopCh)
	r.wg.Wait()
	r.logger.Info("job stopped")
}

// IsRunning returns whether the loop is active
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) run() {
	defer r.wg.Done()

	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-r.stopCh:
			return
		}
	}
	r.tick()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.tick()
		case <-r.stopCh:
			return
		}
	}
}

func (r *Runner) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.RunOnce(ctx); err != nil && !errors.Is(err, cache.ErrLocked) {
		r.logger.Error("job run failed", zap.Error(err))
	}
}

// RunOnce runs the task immediately. It returns cache.ErrLocked when another
// instance holds the job lock.
func (r *Runner) RunOnce(ctx context.Context) error {
	if r.locks != nil {
		release, err := r.locks.Acquire(ctx, "job:"+r.name, r.timeout)
		if err != nil {
			if errors.Is(err, cache.ErrLocked) {
				r.logger.Debug("job skipped, lock held elsewhere")
			}
			return err
		}
		defer release()
	}

	start := r.now()
	err := r.task(ctx, start)
	if r.metrics != nil {
		r.metrics.JobRun(r.name, err)
	}
	r.logger.Debug("job run finished", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
	return err
}
