package usecase

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"runup-backend/internal/notification/domain"
	"runup-backend/internal/notification/dto"
	"runup-backend/internal/notification/repository"

	"go.uber.org/zap"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func validRequest() *dto.UpdateSettingsRequest {
	return &dto.UpdateSettingsRequest{
		DailyReminder: &dto.DailyReminderRequest{
			Enabled: boolPtr(true),
			Time:    "7:05",
			Message: "Go!",
			Days:    []int{5, 1, 3},
		},
		WeeklyProgress: &dto.WeeklyProgressRequest{
			Enabled: boolPtr(true),
			Day:     intPtr(0),
			Time:    "19:00",
		},
		AchievementNotifications: boolPtr(true),
		MotivationalMessages:     boolPtr(false),
	}
}

func newTestSettingsUsecase() (*SettingsUsecase, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	u := NewSettingsUsecase(store.Settings(), store.Tokens(), store.History(), zap.NewNop())
	u.now = func() time.Time { return fixedNow }
	return u, store
}

func TestGetSettingsMaterializesDefaults(t *testing.T) {
	u, store := newTestSettingsUsecase()

	got, err := u.GetSettings(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	want := domain.DefaultSettings(fixedNow)
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("GetSettings() = %+v, want defaults", got)
	}

	stored, err := store.Settings().Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("defaults were not persisted: %v", err)
	}
	if stored.DailyReminder.Time != "07:00" || stored.WeeklyProgress.Day != 0 {
		t.Errorf("stored = %+v", stored)
	}
}

func TestUpdateSettingsNormalizes(t *testing.T) {
	u, store := newTestSettingsUsecase()
	req := validRequest()
	req.FCMToken = "T1"

	got, err := u.UpdateSettings(context.Background(), "u1", req)
	if err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	if got.DailyReminder.Time != "07:05" {
		t.Errorf("daily time = %q, want 07:05", got.DailyReminder.Time)
	}
	if !reflect.DeepEqual(got.DailyReminder.Days, []int{1, 3, 5}) {
		t.Errorf("days = %v, want [1 3 5]", got.DailyReminder.Days)
	}
	if got.MotivationalMessages || !got.AchievementNotifications {
		t.Errorf("flags = %+v", got)
	}
	if !got.CreatedAt.Equal(fixedNow) || !got.UpdatedAt.Equal(fixedNow) {
		t.Errorf("timestamps = %v / %v", got.CreatedAt, got.UpdatedAt)
	}

	token, err := store.Tokens().Get(context.Background(), "u1")
	if err != nil || token.FCMToken != "T1" {
		t.Errorf("token = %+v, err = %v", token, err)
	}
}

func TestUpdateSettingsKeepsCreatedAtAndMessage(t *testing.T) {
	u, store := newTestSettingsUsecase()
	if _, err := u.UpdateSettings(context.Background(), "u1", validRequest()); err != nil {
		t.Fatalf("first UpdateSettings() error = %v", err)
	}

	later := fixedNow.Add(time.Hour)
	u.now = func() time.Time { return later }
	req := validRequest()
	req.DailyReminder.Message = ""
	if _, err := u.UpdateSettings(context.Background(), "u1", req); err != nil {
		t.Fatalf("second UpdateSettings() error = %v", err)
	}

	stored, _ := store.Settings().Get(context.Background(), "u1")
	if !stored.CreatedAt.Equal(fixedNow) {
		t.Errorf("CreatedAt = %v, want %v", stored.CreatedAt, fixedNow)
	}
	if !stored.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", stored.UpdatedAt, later)
	}
	if stored.DailyReminder.Message != "Go!" {
		t.Errorf("message = %q, want Go!", stored.DailyReminder.Message)
	}
}

func TestUpdateSettingsValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *dto.UpdateSettingsRequest)
		want   []string
	}{
		{
			name:   "bad time",
			mutate: func(r *dto.UpdateSettingsRequest) { r.DailyReminder.Time = "25:00" },
			want:   []string{`"dailyReminder.time" must be a time in HH:MM format`},
		},
		{
			name:   "missing weekly",
			mutate: func(r *dto.UpdateSettingsRequest) { r.WeeklyProgress = nil },
			want:   []string{`"weeklyProgress" is required`},
		},
		{
			name:   "no days",
			mutate: func(r *dto.UpdateSettingsRequest) { r.DailyReminder.Days = []int{} },
			want:   []string{`"dailyReminder.days" must contain at least 1 items`},
		},
		{
			name:   "day out of range",
			mutate: func(r *dto.UpdateSettingsRequest) { r.DailyReminder.Days = []int{1, 7} },
			want:   []string{`"dailyReminder.days[1]" must be less than or equal to 6`},
		},
		{
			name:   "duplicate days",
			mutate: func(r *dto.UpdateSettingsRequest) { r.DailyReminder.Days = []int{1, 1} },
			want:   []string{`"dailyReminder.days" must not contain duplicate values`},
		},
		{
			name:   "long message",
			mutate: func(r *dto.UpdateSettingsRequest) { r.WeeklyProgress.Message = strings.Repeat("x", 201) },
			want:   []string{`"weeklyProgress.message" length must be less than or equal to 200 characters long`},
		},
		{
			name: "several fields",
			mutate: func(r *dto.UpdateSettingsRequest) {
				r.DailyReminder.Enabled = nil
				r.WeeklyProgress.Day = intPtr(9)
				r.MotivationalMessages = nil
			},
			want: []string{
				`"dailyReminder.enabled" is required`,
				`"weeklyProgress.day" must be less than or equal to 6`,
				`"motivationalMessages" is required`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, store := newTestSettingsUsecase()
			req := validRequest()
			tt.mutate(req)

			_, err := u.UpdateSettings(context.Background(), "u1", req)
			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("UpdateSettings() error = %v, want *domain.ValidationError", err)
			}
			if !reflect.DeepEqual(vErr.Details, tt.want) {
				t.Errorf("Details = %q, want %q", vErr.Details, tt.want)
			}
			if _, err := store.Settings().Get(context.Background(), "u1"); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("invalid request was persisted")
			}
		})
	}
}

func TestHistoryPagination(t *testing.T) {
	u, store := newTestSettingsUsecase()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _ = store.History().Append(ctx, &domain.HistoryRecord{
			UserID: "u1",
			Title:  "t",
			Status: domain.StatusSent,
			SentAt: fixedNow.Add(time.Duration(i) * time.Minute),
		})
	}

	records, page, err := u.History(ctx, "u1", 0, 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if page != (dto.Pagination{Limit: DefaultHistoryLimit, Offset: 0, Total: 3}) {
		t.Errorf("pagination = %+v", page)
	}
	if !records[0].SentAt.After(records[2].SentAt) {
		t.Error("records are not newest first")
	}

	records, page, _ = u.History(ctx, "u1", 2, 2)
	if len(records) != 1 || page.Total != 1 || page.Limit != 2 {
		t.Errorf("second page = %d records, %+v", len(records), page)
	}

	records, _, _ = u.History(ctx, "nobody", 10, 0)
	if records == nil || len(records) != 0 {
		t.Errorf("History(nobody) = %#v, want empty slice", records)
	}
}

func TestTokenLifecycle(t *testing.T) {
	u, store := newTestSettingsUsecase()
	ctx := context.Background()

	var vErr *domain.ValidationError
	if err := u.SaveToken(ctx, "u1", " "); !errors.As(err, &vErr) {
		t.Errorf("SaveToken(empty) error = %v, want validation error", err)
	}

	if err := u.SaveToken(ctx, "u1", "A"); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}
	if err := u.SaveToken(ctx, "u1", "B"); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}
	token, _ := store.Tokens().Get(ctx, "u1")
	if token.FCMToken != "B" {
		t.Errorf("token = %q, want B (last write wins)", token.FCMToken)
	}

	if err := u.DeleteToken(ctx, "u1"); err != nil {
		t.Fatalf("DeleteToken() error = %v", err)
	}
	if err := u.DeleteToken(ctx, "u1"); err != nil {
		t.Errorf("DeleteToken(missing) error = %v", err)
	}
	if _, err := NewTargetResolver(store.Tokens()).Resolve(ctx, "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Resolve() after delete error = %v, want ErrNotFound", err)
	}
}
