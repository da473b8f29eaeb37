package repository

import (
	"context"
	"errors"
	"time"

	"runup-backend/internal/notification/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormTokenRepository implements TokenRepository interface
type gormTokenRepository struct {
	db *gorm.DB
}

// NewGormTokenRepository creates a new GORM-based TokenRepository
func NewGormTokenRepository(db *gorm.DB) TokenRepository {
	return &gormTokenRepository{db: db}
}

func (r *gormTokenRepository) Get(ctx context.Context, userID string) (*domain.DeviceToken, error) {
	var row tokenRow
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Persistence("token.get", err)
	}
	return &domain.DeviceToken{
		UserID:    row.UserID,
		FCMToken:  row.FCMToken,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// Save saves or replaces the user's token (atomic upsert)
func (r *gormTokenRepository) Save(ctx context.Context, userID, fcmToken string) error {
	now := time.Now()
	row := &tokenRow{
		UserID:    userID,
		FCMToken:  fcmToken,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// INSERT ... ON CONFLICT (user_id) DO UPDATE
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"fcm_token", "updated_at"}),
	}).Create(row).Error
	return domain.Persistence("token.save", err)
}

func (r *gormTokenRepository) Delete(ctx context.Context, userID string) error {
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&tokenRow{}).Error
	return domain.Persistence("token.delete", err)
}
