package domain

import "time"

// HistoryStatus is the outcome of a single delivery attempt
type HistoryStatus string

const (
	StatusSent   HistoryStatus = "sent"
	StatusFailed HistoryStatus = "failed"
)

// Notification categories, also sent as the "type" data key
const (
	TypeDailyReminder  = "daily_reminder"
	TypeWeeklyProgress = "weekly_progress"
)

// HistoryRecord is an append-only fact about one push attempt
type HistoryRecord struct {
	ID       string            `json:"id" firestore:"-"`
	UserID   string            `json:"userId,omitempty" firestore:"userId,omitempty"`
	FCMToken string            `json:"fcmToken" firestore:"fcmToken"`
	Title    string            `json:"title" firestore:"title"`
	Body     string            `json:"body" firestore:"body"`
	Data     map[string]string `json:"data" firestore:"data"`
	Status   HistoryStatus     `json:"status" firestore:"status"`
	Response string            `json:"response,omitempty" firestore:"response,omitempty"` // provider response, JSON encoded
	Error    string            `json:"error,omitempty" firestore:"error,omitempty"`
	SentAt   time.Time         `json:"sentAt" firestore:"sentAt"`
}

// DeviceToken is the single push target registered for a user (last write wins)
type DeviceToken struct {
	UserID    string    `json:"userId" firestore:"userId"`
	FCMToken  string    `json:"-" firestore:"fcmToken"` // not exposed in JSON
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}
