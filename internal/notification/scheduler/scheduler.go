package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"runup-backend/internal/notification/usecase"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSpec fires at the start of every minute
const DefaultSpec = "* * * * *"

// Runner is the batch work executed on each tick
type Runner interface {
	RunDailyReminders(ctx context.Context, now time.Time) usecase.BatchSummary
	RunWeeklyProgress(ctx context.Context, now time.Time) usecase.BatchSummary
}

// Status reports which triggers are installed
type Status struct {
	DailyReminder  bool `json:"dailyReminder"`
	WeeklyProgress bool `json:"weeklyProgress"`
}

type trigger struct {
	name string
	run  func(ctx context.Context, now time.Time) usecase.BatchSummary
	cron *cron.Cron

	mu         sync.Mutex
	lastMinute time.Time
}

// claim marks minute as processed and reports whether it was new
func (t *trigger) claim(minute time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if minute.Equal(t.lastMinute) {
		return false
	}
	t.lastMinute = minute
	return true
}

// Scheduler drives the daily reminder and weekly progress batches
type Scheduler struct {
	mu     sync.Mutex
	loc    *time.Location
	spec   string
	now    func() time.Time
	log    *zap.Logger
	daily  *trigger
	weekly *trigger
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithSpec overrides the cron spec used by both triggers
func WithSpec(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.spec = spec
		}
	}
}

// WithClock overrides the time source passed to the runner
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func New(runner Runner, loc *time.Location, log *zap.Logger, opts ...Option) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		loc:    loc,
		spec:   DefaultSpec,
		now:    time.Now,
		log:    log,
		daily:  &trigger{name: "daily_reminder", run: runner.RunDailyReminders},
		weekly: &trigger{name: "weekly_progress", run: runner.RunWeeklyProgress},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start installs both triggers. Calling Start on a running scheduler does nothing.
// Batch runs keep ctx's values but not its cancellation: an in-flight run
// finishes after ctx is done. Use Stop to end the schedule.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.daily.cron != nil || s.weekly.cron != nil {
		s.log.Info("scheduler already running")
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	daily, err := s.newCron(ctx, s.daily)
	if err != nil {
		return err
	}
	weekly, err := s.newCron(ctx, s.weekly)
	if err != nil {
		return err
	}

	s.daily.cron = daily
	s.weekly.cron = weekly
	daily.Start()
	weekly.Start()

	s.log.Info("notification scheduler started",
		zap.String("spec", s.spec),
		zap.String("timezone", s.loc.String()))
	return nil
}

// Stop removes both triggers. The returned channel is closed once in-flight
// runs finish. Stopping a stopped scheduler returns an already closed channel.
func (s *Scheduler) Stop() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	done := make(chan struct{})
	var pending []context.Context
	for _, t := range []*trigger{s.daily, s.weekly} {
		if t.cron != nil {
			pending = append(pending, t.cron.Stop())
			t.cron = nil
		}
	}
	if len(pending) == 0 {
		close(done)
		return done
	}

	s.log.Info("notification scheduler stopped")
	go func() {
		for _, c := range pending {
			<-c.Done()
		}
		close(done)
	}()
	return done
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		DailyReminder:  s.daily.cron != nil,
		WeeklyProgress: s.weekly.cron != nil,
	}
}

func (s *Scheduler) newCron(ctx context.Context, t *trigger) (*cron.Cron, error) {
	logger := cronLogger{log: s.log.Named("cron").With(zap.String("trigger", t.name)).Sugar()}
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(logger),
		// Recover must sit inside SkipIfStillRunning so a panic still releases the run slot
		cron.WithChain(cron.SkipIfStillRunning(logger), cron.Recover(logger)),
	)
	if _, err := c.AddFunc(s.spec, func() { s.tick(ctx, t) }); err != nil {
		return nil, fmt.Errorf("invalid scheduler spec %q: %w", s.spec, err)
	}
	return c, nil
}

func (s *Scheduler) tick(ctx context.Context, t *trigger) {
	now := s.now().In(s.loc)
	if !t.claim(now.Truncate(time.Minute)) {
		s.log.Debug("minute already processed", zap.String("trigger", t.name), zap.Time("now", now))
		return
	}

	start := time.Now()
	summary := t.run(ctx, now)
	s.log.Debug("tick finished",
		zap.String("trigger", t.name),
		zap.Int("sent", summary.Sent),
		zap.Int("failed", summary.Failed),
		zap.Duration("took", time.Since(start)))
}

// cronLogger routes cron's own logging to zap. Wake-ups are debug noise.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
