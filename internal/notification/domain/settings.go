package domain

import (
	"sort"
	"time"
)

const (
	DefaultDailyMessage  = "Good morning! Time for your daily workout! 💪"
	DefaultWeeklyMessage = "Check out your weekly progress! 📊"
)

// ReminderSchedule is the daily workout reminder preference
type ReminderSchedule struct {
	Enabled bool   `json:"enabled" firestore:"enabled"`
	Time    string `json:"time" firestore:"time"` // HH:MM, 24h
	Days    []int  `json:"days" firestore:"days"` // 0 = Sunday ... 6 = Saturday
	Message string `json:"message,omitempty" firestore:"message,omitempty"`
}

// ProgressSchedule is the weekly progress report preference
type ProgressSchedule struct {
	Enabled bool   `json:"enabled" firestore:"enabled"`
	Day     int    `json:"day" firestore:"day"`
	Time    string `json:"time" firestore:"time"`
	Message string `json:"message,omitempty" firestore:"message,omitempty"`
}

// Settings holds all notification preferences of one user
type Settings struct {
	DailyReminder            ReminderSchedule `json:"dailyReminder" firestore:"dailyReminder"`
	WeeklyProgress           ProgressSchedule `json:"weeklyProgress" firestore:"weeklyProgress"`
	AchievementNotifications bool             `json:"achievementNotifications" firestore:"achievementNotifications"`
	MotivationalMessages     bool             `json:"motivationalMessages" firestore:"motivationalMessages"`
	CreatedAt                time.Time        `json:"createdAt" firestore:"createdAt"`
	UpdatedAt                time.Time        `json:"updatedAt" firestore:"updatedAt"`
}

// UserSettings pairs stored settings with the owning user ID, as returned by queries
type UserSettings struct {
	UserID   string
	Settings Settings
}

// DefaultSettings returns the settings materialized for users who never saved any:
// weekday mornings at 07:00 and a Sunday evening progress report.
func DefaultSettings(now time.Time) Settings {
	return Settings{
		DailyReminder: ReminderSchedule{
			Enabled: true,
			Time:    "07:00",
			Message: DefaultDailyMessage,
			Days:    []int{1, 2, 3, 4, 5},
		},
		WeeklyProgress: ProgressSchedule{
			Enabled: true,
			Day:     int(time.Sunday),
			Time:    "19:00",
			Message: DefaultWeeklyMessage,
		},
		AchievementNotifications: true,
		MotivationalMessages:     true,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
}

// DailyBody returns the custom daily message or the default one
func (s Settings) DailyBody() string {
	if s.DailyReminder.Message != "" {
		return s.DailyReminder.Message
	}
	return DefaultDailyMessage
}

// WeeklyBody returns the custom weekly message or the default one
func (s Settings) WeeklyBody() string {
	if s.WeeklyProgress.Message != "" {
		return s.WeeklyProgress.Message
	}
	return DefaultWeeklyMessage
}

// NormalizeDays returns days de-duplicated and sorted ascending
func NormalizeDays(days []int) []int {
	seen := make(map[int]struct{}, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}
