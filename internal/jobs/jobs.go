package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job names
const (
	AutoCompleteJob         = "auto-complete"
	CompletionRemindersJob  = "completion-reminders"
	EventRemindersJob       = "event-reminders"
	EventStatusJob          = "event-status"
	MonthlyResetJob         = "monthly-reset"
	ExpiredSubscriptionsJob = "expired-subscriptions"
	TokenCleanupJob         = "token-cleanup"
)

// Windows
const (
	autoCompleteAfter    = 72 * time.Hour
	completionRemindFrom = 25 * time.Hour
	completionRemindTo   = 24 * time.Hour
	upcomingLead         = 24 * time.Hour
)

// Completer completes the applications of ended events
type Completer interface {
	AutoCompleteEnded(ctx context.Context, cutoff time.Time) (int, error)
}

// Reminder sends time based reminders and advances event statuses
type Reminder interface {
	RemindCompletion(ctx context.Context, from, to time.Time) (int, error)
	RemindUpcoming(ctx context.Context, from, to time.Time) (int, error)
	UpdateStatuses(ctx context.Context, now time.Time) (started, ended int, err error)
}

// Subscriptions resets usage counters and expires plans
type Subscriptions interface {
	ResetMonthlyUsage(ctx context.Context) (int, error)
	DowngradeExpired(ctx context.Context) (int, error)
}

// Tokens removes expired refresh tokens
type Tokens interface {
	PurgeExpired(ctx context.Context) error
}

// NewAutoComplete completes approved applications of events that ended more
// than three days before the run
func NewAutoComplete(svc Completer, interval time.Duration, cfg RunnerConfig) *Runner {
	logger := jobLogger(cfg)
	return NewRunner(AutoCompleteJob, orDefault(interval, 24*time.Hour), func(ctx context.Context, now time.Time) error {
		n, err := svc.AutoCompleteEnded(ctx, now.Add(-autoCompleteAfter))
		if err != nil {
			return fmt.Errorf("auto-completing applications: %w", err)
		}
		if n > 0 {
			logger.Info("applications auto-completed", zap.Int("count", n))
		}
		return nil
	}, cfg)
}

// NewCompletionReminders asks organizers to wrap up events that ended
// between 25 and 24 hours before the run
func NewCompletionReminders(svc Reminder, interval time.Duration, cfg RunnerConfig) *Runner {
	logger := jobLogger(cfg)
	return NewRunner(CompletionRemindersJob, orDefault(interval, time.Hour), func(ctx context.Context, now time.Time) error {
		n, err := svc.RemindCompletion(ctx, now.Add(-completionRemindFrom), now.Add(-completionRemindTo))
		if err != nil {
			return fmt.Errorf("sending completion reminders: %w", err)
		}
		if n > 0 {
			logger.Info("completion reminders sent", zap.Int("events", n))
		}
		return nil
	}, cfg)
}

// NewEventReminders reminds participants of events starting one day after
// the run. The window is one interval wide so each event is picked up once.
func NewEventReminders(svc Reminder, interval time.Duration, cfg RunnerConfig) *Runner {
	interval = orDefault(interval, 10*time.Minute)
	logger := jobLogger(cfg)
	return NewRunner(EventRemindersJob, interval, func(ctx context.Context, now time.Time) error {
		from := now.Add(upcomingLead)
		n, err := svc.RemindUpcoming(ctx, from, from.Add(interval))
		if err != nil {
			return fmt.Errorf("sending event reminders: %w", err)
		}
		if n > 0 {
			logger.Info("event reminders sent", zap.Int("events", n))
		}
		return nil
	}, cfg)
}

// NewEventStatus moves events whose start or end passed
func NewEventStatus(svc Reminder, interval time.Duration, cfg RunnerConfig) *Runner {
	logger := jobLogger(cfg)
	return NewRunner(EventStatusJob, orDefault(interval, time.Hour), func(ctx context.Context, now time.Time) error {
		started, ended, err := svc.UpdateStatuses(ctx, now)
		if err != nil {
			return fmt.Errorf("updating event statuses: %w", err)
		}
		if started+ended > 0 {
			logger.Info("event statuses updated", zap.Int("started", started), zap.Int("ended", ended))
		}
		return nil
	}, cfg)
}

// NewMonthlyReset clears usage counters on the first run after a month turns.
// The month the runner was created in counts as already reset. With a shared
// store only the first instance to see the new month resets.
func NewMonthlyReset(svc Subscriptions, interval time.Duration, cfg RunnerConfig) *Runner {
	logger := jobLogger(cfg)
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	var (
		mu   sync.Mutex
		last = monthOf(now())
	)
	return NewRunner(MonthlyResetJob, orDefault(interval, time.Hour), func(ctx context.Context, at time.Time) error {
		mu.Lock()
		defer mu.Unlock()

		month := monthOf(at)
		if month == last {
			return nil
		}
		if cfg.Locks != nil {
			first, err := cfg.Locks.Throttle(ctx, "monthly-reset:"+month, 31*24*time.Hour)
			if err != nil {
				return fmt.Errorf("checking monthly reset marker: %w", err)
			}
			if !first {
				last = month
				logger.Debug("monthly usage already reset elsewhere", zap.String("month", month))
				return nil
			}
		}
		n, err := svc.ResetMonthlyUsage(ctx)
		if err != nil {
			return fmt.Errorf("resetting monthly usage: %w", err)
		}
		last = month
		logger.Info("monthly usage reset", zap.String("month", month), zap.Int("users", n))
		return nil
	}, cfg)
}

// NewExpiredSubscriptions downgrades premium plans past their expiry
func NewExpiredSubscriptions(svc Subscriptions, interval time.Duration, cfg RunnerConfig) *Runner {
	logger := jobLogger(cfg)
	return NewRunner(ExpiredSubscriptionsJob, orDefault(interval, 24*time.Hour), func(ctx context.Context, _ time.Time) error {
		n, err := svc.DowngradeExpired(ctx)
		if err != nil {
			return fmt.Errorf("downgrading expired subscriptions: %w", err)
		}
		if n > 0 {
			logger.Info("expired subscriptions downgraded", zap.Int("users", n))
		}
		return nil
	}, cfg)
}

// NewTokenCleanup deletes refresh tokens past their expiry
func NewTokenCleanup(svc Tokens, interval time.Duration, cfg RunnerConfig) *Runner {
	return NewRunner(TokenCleanupJob, orDefault(interval, 24*time.Hour), func(ctx context.Context, _ time.Time) error {
		if err := svc.PurgeExpired(ctx); err != nil {
			return fmt.Errorf("purging expired tokens: %w", err)
		}
		return nil
	}, cfg)
}

// Scheduler starts and stops a set of runners together
type Scheduler struct {
	runners []*Runner
}

// SchedulerConfig wires the services the jobs act on
type SchedulerConfig struct {
	Applications  Completer
	Reminders     Reminder
	Subscriptions Subscriptions
	// Tokens is optional
	Tokens Tokens
	// Intervals overrides the default interval per job name
	Intervals map[string]time.Duration
	Runner    RunnerConfig
}

// NewScheduler builds every job
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	every := func(name string) time.Duration { return cfg.Intervals[name] }
	rc := cfg.Runner
	s := &Scheduler{runners: []*Runner{
		NewAutoComplete(cfg.Applications, every(AutoCompleteJob), rc),
		NewCompletionReminders(cfg.Reminders, every(CompletionRemindersJob), rc),
		NewEventReminders(cfg.Reminders, every(EventRemindersJob), rc),
		NewEventStatus(cfg.Reminders, every(EventStatusJob), rc),
		NewMonthlyReset(cfg.Subscriptions, every(MonthlyResetJob), rc),
		NewExpiredSubscriptions(cfg.Subscriptions, every(ExpiredSubscriptionsJob), rc),
	}}
	if cfg.Tokens != nil {
		s.runners = append(s.runners, NewTokenCleanup(cfg.Tokens, every(TokenCleanupJob), rc))
	}
	return s
}

// Runners returns the scheduled runners
func (s *Scheduler) Runners() []*Runner { return s.runners }

// Runner returns the runner with the given name, or nil
func (s *Scheduler) Runner(name string) *Runner {
	for _, r := range s.runners {
		if r.name == name {
			return r
		}
	}
	return nil
}

// Start starts every runner
func (s *Scheduler) Start() {
	for _, r := range s.runners {
		r.Start()
	}
}

// Stop stops every runner
func (s *Scheduler) Stop() {
	var wg sync.WaitGroup
	for _, r := range s.runners {
		wg.Add(1)
		go func(r *Runner) {
			defer wg.Done()
			r.Stop()
		}(r)
	}
	wg.Wait()
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func monthOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}

func jobLogger(cfg RunnerConfig) *zap.Logger {
	if cfg.Logger == nil {
		return zap.NewNop()
	}
	return cfg.Logger
}
