package repository

import (
	"context"

	"runup-backend/internal/notification/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormHistoryRepository implements HistoryRepository interface
type gormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a new GORM-based HistoryRepository
func NewGormHistoryRepository(db *gorm.DB) HistoryRepository {
	return &gormHistoryRepository{db: db}
}

func (r *gormHistoryRepository) Append(ctx context.Context, record *domain.HistoryRecord) (string, error) {
	id := uuid.New().String()
	if err := r.db.WithContext(ctx).Create(newHistoryRow(id, record)).Error; err != nil {
		return "", domain.Persistence("history.append", err)
	}
	return id, nil
}

func (r *gormHistoryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.HistoryRecord, error) {
	var rows []historyRow
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sent_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, domain.Persistence("history.list", err)
	}

	records := make([]domain.HistoryRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toDomain())
	}
	return records, nil
}
