package repository

import (
	"time"

	"runup-backend/internal/notification/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// settingsRow is the relational shape of domain.Settings. Days are kept twice:
// as JSON for reads and as a bitmask (bit d = weekday d) so "days contains X"
// can be pushed down as an indexed expression.
type settingsRow struct {
	UserID                   string                   `gorm:"primaryKey"`
	DailyEnabled             bool                     `gorm:"index:idx_settings_daily_due,priority:1"`
	DailyTime                string                   `gorm:"size:5;index:idx_settings_daily_due,priority:2"`
	DailyDays                datatypes.JSONSlice[int] `gorm:"not null"`
	DailyDaysMask            int                      `gorm:"not null;default:0"`
	DailyMessage             string                   `gorm:"size:800"`
	WeeklyEnabled            bool                     `gorm:"index:idx_settings_weekly_due,priority:1"`
	WeeklyDay                int                      `gorm:"index:idx_settings_weekly_due,priority:3"`
	WeeklyTime               string                   `gorm:"size:5;index:idx_settings_weekly_due,priority:2"`
	WeeklyMessage            string                   `gorm:"size:800"`
	AchievementNotifications bool
	MotivationalMessages     bool
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

func (settingsRow) TableName() string { return "notification_settings" }

type tokenRow struct {
	UserID    string `gorm:"primaryKey"`
	FCMToken  string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (tokenRow) TableName() string { return "user_tokens" }

type historyRow struct {
	ID       string `gorm:"primaryKey"`
	UserID   string `gorm:"index:idx_history_user_sent,priority:1"`
	FCMToken string
	Title    string
	Body     string
	Data     datatypes.JSONMap
	Status   string `gorm:"size:16;index"`
	Response string
	Error    string
	SentAt   time.Time `gorm:"index:idx_history_user_sent,priority:2,sort:desc"`
}

func (historyRow) TableName() string { return "notification_history" }

// AutoMigrate creates or updates the notification tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&settingsRow{}, &tokenRow{}, &historyRow{})
}

func daysMask(days []int) int {
	mask := 0
	for _, d := range days {
		if d >= 0 && d <= 6 {
			mask |= 1 << d
		}
	}
	return mask
}

func newSettingsRow(userID string, s *domain.Settings) *settingsRow {
	return &settingsRow{
		UserID:                   userID,
		DailyEnabled:             s.DailyReminder.Enabled,
		DailyTime:                s.DailyReminder.Time,
		DailyDays:                datatypes.NewJSONSlice(s.DailyReminder.Days),
		DailyDaysMask:            daysMask(s.DailyReminder.Days),
		DailyMessage:             s.DailyReminder.Message,
		WeeklyEnabled:            s.WeeklyProgress.Enabled,
		WeeklyDay:                s.WeeklyProgress.Day,
		WeeklyTime:               s.WeeklyProgress.Time,
		WeeklyMessage:            s.WeeklyProgress.Message,
		AchievementNotifications: s.AchievementNotifications,
		MotivationalMessages:     s.MotivationalMessages,
		CreatedAt:                s.CreatedAt,
		UpdatedAt:                s.UpdatedAt,
	}
}

func (r *settingsRow) toDomain() domain.Settings {
	return domain.Settings{
		DailyReminder: domain.ReminderSchedule{
			Enabled: r.DailyEnabled,
			Time:    r.DailyTime,
			Days:    []int(r.DailyDays),
			Message: r.DailyMessage,
		},
		WeeklyProgress: domain.ProgressSchedule{
			Enabled: r.WeeklyEnabled,
			Day:     r.WeeklyDay,
			Time:    r.WeeklyTime,
			Message: r.WeeklyMessage,
		},
		AchievementNotifications: r.AchievementNotifications,
		MotivationalMessages:     r.MotivationalMessages,
		CreatedAt:                r.CreatedAt,
		UpdatedAt:                r.UpdatedAt,
	}
}

func newHistoryRow(id string, rec *domain.HistoryRecord) *historyRow {
	data := datatypes.JSONMap{}
	for k, v := range rec.Data {
		data[k] = v
	}
	return &historyRow{
		ID:       id,
		UserID:   rec.UserID,
		FCMToken: rec.FCMToken,
		Title:    rec.Title,
		Body:     rec.Body,
		Data:     data,
		Status:   string(rec.Status),
		Response: rec.Response,
		Error:    rec.Error,
		SentAt:   rec.SentAt,
	}
}

func (r *historyRow) toDomain() domain.HistoryRecord {
	data := make(map[string]string, len(r.Data))
	for k, v := range r.Data {
		if s, ok := v.(string); ok {
			data[k] = s
		}
	}
	return domain.HistoryRecord{
		ID:       r.ID,
		UserID:   r.UserID,
		FCMToken: r.FCMToken,
		Title:    r.Title,
		Body:     r.Body,
		Data:     data,
		Status:   domain.HistoryStatus(r.Status),
		Response: r.Response,
		Error:    r.Error,
		SentAt:   r.SentAt,
	}
}
