package repository

import (
	"context"

	"runup-backend/internal/notification/domain"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	settingsCollection = "notification_settings"
	tokensCollection   = "user_tokens"
	historyCollection  = "notification_history"
)

// firestoreSettingsRepository implements SettingsRepository on Firestore documents keyed by user ID
type firestoreSettingsRepository struct {
	client *firestore.Client
}

// NewFirestoreSettingsRepository creates a new instance of firestoreSettingsRepository
func NewFirestoreSettingsRepository(client *firestore.Client) SettingsRepository {
	return &firestoreSettingsRepository{client: client}
}

func (r *firestoreSettingsRepository) Get(ctx context.Context, userID string) (*domain.Settings, error) {
	doc, err := r.client.Collection(settingsCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Persistence("settings.get", err)
	}

	var settings domain.Settings
	if err := doc.DataTo(&settings); err != nil {
		return nil, domain.Persistence("settings.decode", err)
	}
	return &settings, nil
}

func (r *firestoreSettingsRepository) Put(ctx context.Context, userID string, settings *domain.Settings) error {
	_, err := r.client.Collection(settingsCollection).Doc(userID).Set(ctx, settingsDocument(settings), firestore.MergeAll)
	return domain.Persistence("settings.put", err)
}

func (r *firestoreSettingsRepository) Query(ctx context.Context, filters ...domain.Filter) ([]domain.UserSettings, error) {
	q := r.client.Collection(settingsCollection).Query
	for _, f := range filters {
		q = q.Where(f.Path, string(f.Op), f.Value)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var result []domain.UserSettings
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, domain.Persistence("settings.query", err)
		}

		var settings domain.Settings
		if err := doc.DataTo(&settings); err != nil {
			return nil, domain.Persistence("settings.decode", err)
		}
		result = append(result, domain.UserSettings{UserID: doc.Ref.ID, Settings: settings})
	}
	return result, nil
}

// settingsDocument builds the merge payload. MergeAll only accepts maps, and absent
// optional fields (message, createdAt) must not overwrite what is already stored.
func settingsDocument(s *domain.Settings) map[string]interface{} {
	daily := map[string]interface{}{
		"enabled": s.DailyReminder.Enabled,
		"time":    s.DailyReminder.Time,
		"days":    s.DailyReminder.Days,
	}
	if s.DailyReminder.Message != "" {
		daily["message"] = s.DailyReminder.Message
	}

	weekly := map[string]interface{}{
		"enabled": s.WeeklyProgress.Enabled,
		"day":     s.WeeklyProgress.Day,
		"time":    s.WeeklyProgress.Time,
	}
	if s.WeeklyProgress.Message != "" {
		weekly["message"] = s.WeeklyProgress.Message
	}

	doc := map[string]interface{}{
		"dailyReminder":            daily,
		"weeklyProgress":           weekly,
		"achievementNotifications": s.AchievementNotifications,
		"motivationalMessages":     s.MotivationalMessages,
		"updatedAt":                s.UpdatedAt,
	}
	if !s.CreatedAt.IsZero() {
		doc["createdAt"] = s.CreatedAt
	}
	return doc
}
