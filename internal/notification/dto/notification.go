package dto

// DailyReminderRequest is the dailyReminder part of a settings update
type DailyReminderRequest struct {
	Enabled *bool  `json:"enabled" validate:"required"`
	Time    string `json:"time" validate:"required,clock"`
	Message string `json:"message,omitempty" validate:"max=200"`
	Days    []int  `json:"days" validate:"required,min=1,max=7,unique,dive,min=0,max=6"`
}

// WeeklyProgressRequest is the weeklyProgress part of a settings update
type WeeklyProgressRequest struct {
	Enabled *bool  `json:"enabled" validate:"required"`
	Day     *int   `json:"day" validate:"required,min=0,max=6"`
	Time    string `json:"time" validate:"required,clock"`
	Message string `json:"message,omitempty" validate:"max=200"`
}

// UpdateSettingsRequest is the body of PUT /notifications/settings/:userId
type UpdateSettingsRequest struct {
	DailyReminder            *DailyReminderRequest  `json:"dailyReminder" validate:"required"`
	WeeklyProgress           *WeeklyProgressRequest `json:"weeklyProgress" validate:"required"`
	AchievementNotifications *bool                  `json:"achievementNotifications" validate:"required"`
	MotivationalMessages     *bool                  `json:"motivationalMessages" validate:"required"`
	FCMToken                 string                 `json:"fcmToken,omitempty"`
}

// RegisterTokenRequest is the body of POST /users/fcm-token
type RegisterTokenRequest struct {
	UserID   string `json:"userId"`
	FCMToken string `json:"fcmToken"`
}

// UpdateTokenRequest is the body of PUT /users/:userId/fcm-token
type UpdateTokenRequest struct {
	FCMToken string `json:"fcmToken"`
}

// Pagination describes a history page
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}
