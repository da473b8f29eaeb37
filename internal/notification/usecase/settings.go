package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"runup-backend/internal/notification/domain"
	"runup-backend/internal/notification/dto"
	"runup-backend/internal/notification/repository"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// SettingsUsecase serves the user-facing settings, token and history operations
type SettingsUsecase struct {
	settings repository.SettingsRepository
	tokens   repository.TokenRepository
	history  repository.HistoryRepository
	validate *validator.Validate
	now      func() time.Time
	log      *zap.Logger
}

func NewSettingsUsecase(settings repository.SettingsRepository, tokens repository.TokenRepository, history repository.HistoryRepository, log *zap.Logger) *SettingsUsecase {
	return &SettingsUsecase{
		settings: settings,
		tokens:   tokens,
		history:  history,
		validate: newValidator(),
		now:      time.Now,
		log:      log,
	}
}

// GetSettings returns the user's settings. A user without a document gets the
// defaults, which are persisted before returning.
func (u *SettingsUsecase) GetSettings(ctx context.Context, userID string) (*domain.Settings, error) {
	settings, err := u.settings.Get(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	defaults := domain.DefaultSettings(u.now())
	if err := u.settings.Put(ctx, userID, &defaults); err != nil {
		return nil, err
	}
	u.log.Info("created default notification settings", zap.String("user_id", userID))
	return &defaults, nil
}

// UpdateSettings validates req, normalizes times and days and merges the
// result into the user's document. createdAt is only set on first write.
func (u *SettingsUsecase) UpdateSettings(ctx context.Context, userID string, req *dto.UpdateSettingsRequest) (*domain.Settings, error) {
	if req == nil {
		return nil, &domain.ValidationError{Details: []string{"request body is required"}}
	}
	if err := validateStruct(u.validate, req); err != nil {
		return nil, err
	}

	dailyTime, err := domain.NormalizeClock(req.DailyReminder.Time)
	if err != nil {
		return nil, &domain.ValidationError{Details: []string{err.Error()}}
	}
	weeklyTime, err := domain.NormalizeClock(req.WeeklyProgress.Time)
	if err != nil {
		return nil, &domain.ValidationError{Details: []string{err.Error()}}
	}

	now := u.now()
	settings := &domain.Settings{
		DailyReminder: domain.ReminderSchedule{
			Enabled: *req.DailyReminder.Enabled,
			Time:    dailyTime,
			Days:    domain.NormalizeDays(req.DailyReminder.Days),
			Message: strings.TrimSpace(req.DailyReminder.Message),
		},
		WeeklyProgress: domain.ProgressSchedule{
			Enabled: *req.WeeklyProgress.Enabled,
			Day:     *req.WeeklyProgress.Day,
			Time:    weeklyTime,
			Message: strings.TrimSpace(req.WeeklyProgress.Message),
		},
		AchievementNotifications: *req.AchievementNotifications,
		MotivationalMessages:     *req.MotivationalMessages,
		UpdatedAt:                now,
	}

	existing, err := u.settings.Get(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		settings.CreatedAt = now
	case err != nil:
		return nil, err
	default:
		settings.CreatedAt = existing.CreatedAt
		// an omitted message keeps the stored one
		if settings.DailyReminder.Message == "" {
			settings.DailyReminder.Message = existing.DailyReminder.Message
		}
		if settings.WeeklyProgress.Message == "" {
			settings.WeeklyProgress.Message = existing.WeeklyProgress.Message
		}
	}

	if err := u.settings.Put(ctx, userID, settings); err != nil {
		return nil, err
	}

	if token := strings.TrimSpace(req.FCMToken); token != "" {
		if err := u.tokens.Save(ctx, userID, token); err != nil {
			return nil, err
		}
		u.log.Info("FCM token saved with settings", zap.String("user_id", userID))
	}

	u.log.Info("notification settings updated", zap.String("user_id", userID))
	return settings, nil
}

// History returns one page of the user's notification history, newest first.
// limit falls back to DefaultHistoryLimit and is capped at MaxHistoryLimit.
func (u *SettingsUsecase) History(ctx context.Context, userID string, limit, offset int) ([]domain.HistoryRecord, dto.Pagination, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	records, err := u.history.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, dto.Pagination{}, err
	}
	if records == nil {
		records = []domain.HistoryRecord{}
	}
	return records, dto.Pagination{Limit: limit, Offset: offset, Total: len(records)}, nil
}

// SaveToken registers or replaces the user's push token
func (u *SettingsUsecase) SaveToken(ctx context.Context, userID, fcmToken string) error {
	userID = strings.TrimSpace(userID)
	fcmToken = strings.TrimSpace(fcmToken)
	if userID == "" || fcmToken == "" {
		return &domain.ValidationError{Details: []string{"userId and fcmToken are required"}}
	}

	if err := u.tokens.Save(ctx, userID, fcmToken); err != nil {
		return err
	}
	u.log.Info("FCM token saved", zap.String("user_id", userID))
	return nil
}

// DeleteToken removes the user's push token. Removing a missing token succeeds.
func (u *SettingsUsecase) DeleteToken(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return &domain.ValidationError{Details: []string{"userId is required"}}
	}
	if err := u.tokens.Delete(ctx, userID); err != nil {
		return err
	}
	u.log.Info("FCM token removed", zap.String("user_id", userID))
	return nil
}
