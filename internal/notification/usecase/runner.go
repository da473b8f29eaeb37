package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"runup-backend/internal/notification/domain"
	"runup-backend/internal/notification/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// category describes one scheduled notification kind
type category struct {
	kind    string
	title   string
	filters func(clock string, weekday int) []domain.Filter
	matches func(s domain.Settings, clock string, weekday int) bool
	body    func(s domain.Settings) string
}

var (
	dailyReminder = category{
		kind:    domain.TypeDailyReminder,
		title:   "🏃‍♂️ Daily Workout Reminder",
		filters: domain.DailyFilters,
		matches: func(s domain.Settings, clock string, weekday int) bool {
			return domain.MatchesDaily(s.DailyReminder, clock, weekday)
		},
		body: domain.Settings.DailyBody,
	}
	weeklyProgress = category{
		kind:    domain.TypeWeeklyProgress,
		title:   "📊 Weekly Progress Report",
		filters: domain.WeeklyFilters,
		matches: func(s domain.Settings, clock string, weekday int) bool {
			return domain.MatchesWeekly(s.WeeklyProgress, clock, weekday)
		},
		body: domain.Settings.WeeklyBody,
	}
)

// BatchSummary counts what one batch run did
type BatchSummary struct {
	Kind      string
	Clock     string
	Weekday   int
	Matched   int
	Skipped   int // no registered token
	Attempted int
	Sent      int
	Failed    int // resolution or send errors
}

// Resolver resolves a user's push token; domain.ErrNotFound means "skip"
type Resolver interface {
	Resolve(ctx context.Context, userID string) (string, error)
}

// Sender is the single-device dispatch used by the runner
type Sender interface {
	Dispatch(ctx context.Context, token, title, body string, metadata map[string]string) (*DispatchResult, error)
}

// BatchRunner finds users due right now and pushes their notification
type BatchRunner struct {
	settings repository.SettingsRepository
	targets  Resolver
	sender   Sender
	workers  int
	log      *zap.Logger
}

// NewBatchRunner creates a runner. workers <= 1 processes users sequentially.
func NewBatchRunner(settings repository.SettingsRepository, targets Resolver, sender Sender, workers int, log *zap.Logger) *BatchRunner {
	if workers < 1 {
		workers = 1
	}
	return &BatchRunner{
		settings: settings,
		targets:  targets,
		sender:   sender,
		workers:  workers,
		log:      log,
	}
}

// RunDailyReminders sends the daily workout reminder to every user due at now
func (r *BatchRunner) RunDailyReminders(ctx context.Context, now time.Time) BatchSummary {
	return r.run(ctx, dailyReminder, now)
}

// RunWeeklyProgress sends the weekly progress report to every user due at now
func (r *BatchRunner) RunWeeklyProgress(ctx context.Context, now time.Time) BatchSummary {
	return r.run(ctx, weeklyProgress, now)
}

func (r *BatchRunner) run(ctx context.Context, cat category, now time.Time) BatchSummary {
	clock := domain.Clock(now)
	weekday := domain.Weekday(now)
	summary := BatchSummary{Kind: cat.kind, Clock: clock, Weekday: weekday}
	log := r.log.With(zap.String("kind", cat.kind), zap.String("clock", clock), zap.Int("weekday", weekday))

	matched, err := r.settings.Query(ctx, cat.filters(clock, weekday)...)
	if err != nil {
		log.Error("error querying scheduled notifications", zap.Error(err))
		return summary
	}
	if len(matched) == 0 {
		return summary
	}
	log.Debug("found users with scheduled notifications", zap.Int("count", len(matched)))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, us := range matched {
		// The query snapshot is used as-is; this only drops rows a store returned
		// that do not satisfy the predicate.
		if !cat.matches(us.Settings, clock, weekday) {
			log.Debug("skipping non-matching row", zap.String("user_id", us.UserID))
			continue
		}

		us := us
		g.Go(func() error {
			outcome := r.deliver(gctx, cat, us, log)
			mu.Lock()
			summary.Matched++
			switch outcome {
			case outcomeSkipped:
				summary.Skipped++
			case outcomeSent:
				summary.Attempted++
				summary.Sent++
			case outcomeSendFailed:
				summary.Attempted++
				summary.Failed++
			case outcomeResolveFailed:
				summary.Failed++
			}
			mu.Unlock()
			// Never fail the group: one user's error must not cancel the others.
			return nil
		})
	}
	_ = g.Wait()

	log.Info(fmt.Sprintf("sent %d %s notifications", summary.Attempted, cat.kind),
		zap.Int("matched", summary.Matched),
		zap.Int("skipped", summary.Skipped),
		zap.Int("sent", summary.Sent),
		zap.Int("failed", summary.Failed))
	return summary
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSent
	outcomeSendFailed
	outcomeResolveFailed
)

// deliver processes one user. Errors and panics stay inside this call.
func (r *BatchRunner) deliver(ctx context.Context, cat category, us domain.UserSettings, log *zap.Logger) (result outcome) {
	log = log.With(zap.String("user_id", us.UserID))
	defer func() {
		if p := recover(); p != nil {
			log.Error("panic while delivering notification", zap.Any("panic", p), zap.Stack("stack"))
			result = outcomeSendFailed
		}
	}()

	token, err := r.targets.Resolve(ctx, us.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Info("no FCM token found for user")
		return outcomeSkipped
	}
	if err != nil {
		log.Error("error resolving FCM token", zap.Error(err))
		return outcomeResolveFailed
	}

	metadata := map[string]string{
		"type":   cat.kind,
		"userId": us.UserID,
	}
	if _, err := r.sender.Dispatch(ctx, token, cat.title, cat.body(us.Settings), metadata); err != nil {
		log.Error("failed to send "+cat.kind, zap.Error(err))
		return outcomeSendFailed
	}
	return outcomeSent
}
