package repository

import (
	"context"

	"runup-backend/internal/notification/domain"
)

// SettingsRepository defines the interface for notification settings storage
type SettingsRepository interface {
	// Get returns the stored settings or domain.ErrNotFound
	Get(ctx context.Context, userID string) (*domain.Settings, error)

	// Put merges settings into the user's document, creating it if needed
	Put(ctx context.Context, userID string, settings *domain.Settings) error

	// Query returns every user whose settings satisfy all filters.
	// Filters are evaluated by the store, never by a full scan in the caller.
	Query(ctx context.Context, filters ...domain.Filter) ([]domain.UserSettings, error)
}

// TokenRepository defines the interface for the per-user push token
type TokenRepository interface {
	// Get returns the user's token or domain.ErrNotFound
	Get(ctx context.Context, userID string) (*domain.DeviceToken, error)

	// Save upserts the user's token; the latest write wins
	Save(ctx context.Context, userID, fcmToken string) error

	// Delete removes the user's token; deleting a missing token is not an error
	Delete(ctx context.Context, userID string) error
}

// HistoryRepository defines the interface for the append-only notification history
type HistoryRepository interface {
	// Append stores a record and returns its ID
	Append(ctx context.Context, record *domain.HistoryRecord) (string, error)

	// ListByUser returns a user's records, newest first
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.HistoryRecord, error)
}
