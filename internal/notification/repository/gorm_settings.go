package repository

import (
	"context"
	"errors"
	"fmt"

	"runup-backend/internal/notification/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormSettingsRepository implements SettingsRepository on a relational table
type gormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GORM-based SettingsRepository
func NewGormSettingsRepository(db *gorm.DB) SettingsRepository {
	return &gormSettingsRepository{db: db}
}

func (r *gormSettingsRepository) Get(ctx context.Context, userID string) (*domain.Settings, error) {
	var row settingsRow
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Persistence("settings.get", err)
	}
	settings := row.toDomain()
	return &settings, nil
}

// Put is an atomic upsert. Like a document merge, empty messages and a zero
// createdAt leave the stored values untouched.
func (r *gormSettingsRepository) Put(ctx context.Context, userID string, settings *domain.Settings) error {
	row := newSettingsRow(userID, settings)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = row.UpdatedAt
	}

	columns := []string{
		"daily_enabled", "daily_time", "daily_days", "daily_days_mask",
		"weekly_enabled", "weekly_day", "weekly_time",
		"achievement_notifications", "motivational_messages", "updated_at",
	}
	if row.DailyMessage != "" {
		columns = append(columns, "daily_message")
	}
	if row.WeeklyMessage != "" {
		columns = append(columns, "weekly_message")
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(row).Error
	return domain.Persistence("settings.put", err)
}

func (r *gormSettingsRepository) Query(ctx context.Context, filters ...domain.Filter) ([]domain.UserSettings, error) {
	query := r.db.WithContext(ctx).Model(&settingsRow{})
	for _, f := range filters {
		cond, arg, err := gormCondition(f)
		if err != nil {
			return nil, domain.Persistence("settings.query", err)
		}
		query = query.Where(cond, arg)
	}

	var rows []settingsRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, domain.Persistence("settings.query", err)
	}

	result := make([]domain.UserSettings, 0, len(rows))
	for i := range rows {
		result = append(result, domain.UserSettings{UserID: rows[i].UserID, Settings: rows[i].toDomain()})
	}
	return result, nil
}

var gormColumns = map[string]string{
	domain.PathDailyEnabled:  "daily_enabled",
	domain.PathDailyTime:     "daily_time",
	domain.PathWeeklyEnabled: "weekly_enabled",
	domain.PathWeeklyTime:    "weekly_time",
	domain.PathWeeklyDay:     "weekly_day",
}

// gormCondition translates a document-style filter into a SQL condition
func gormCondition(f domain.Filter) (string, interface{}, error) {
	switch f.Op {
	case domain.OpEqual:
		column, ok := gormColumns[f.Path]
		if !ok {
			return "", nil, fmt.Errorf("unsupported filter path %q", f.Path)
		}
		return column + " = ?", f.Value, nil
	case domain.OpArrayContains:
		if f.Path != domain.PathDailyDays {
			return "", nil, fmt.Errorf("unsupported array filter path %q", f.Path)
		}
		day, ok := f.Value.(int)
		if !ok || day < 0 || day > 6 {
			return "", nil, fmt.Errorf("invalid weekday %v", f.Value)
		}
		return "daily_days_mask & ? <> 0", 1 << day, nil
	}
	return "", nil, fmt.Errorf("unsupported filter operator %q", f.Op)
}
