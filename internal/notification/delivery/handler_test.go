package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authDelivery "runup-backend/internal/auth/delivery"
	authUsecase "runup-backend/internal/auth/usecase"
	"runup-backend/internal/notification/domain"
	"runup-backend/internal/notification/dto"
	"runup-backend/internal/notification/repository"
	"runup-backend/internal/notification/scheduler"
	"runup-backend/internal/notification/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type fixedStatus scheduler.Status

func (s fixedStatus) Status() scheduler.Status { return scheduler.Status(s) }

type testServer struct {
	router *gin.Engine
	store  *repository.MemoryStore
	auth   authUsecase.AuthUsecase
}

func newTestServer(t *testing.T, service SettingsService) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	if service == nil {
		service = usecase.NewSettingsUsecase(store.Settings(), store.Tokens(), store.History(), zap.NewNop())
	}
	auth := authUsecase.NewAuthUsecase("secret", time.Hour)

	r := gin.New()
	h := NewNotificationHandler(service, fixedStatus{DailyReminder: true, WeeklyProgress: true}, zap.NewNop())
	h.RegisterRoutes(r.Group("/api"), authDelivery.AuthMiddleware(auth))
	return &testServer{router: r, store: store, auth: auth}
}

type response struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
	Details    []string        `json:"details"`
	Data       json.RawMessage `json:"data"`
	Pagination *dto.Pagination `json:"pagination"`
}

func (s *testServer) do(t *testing.T, method, path, asUser, body string) (int, response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if asUser != "" {
		token, err := s.auth.GenerateAccessToken(asUser)
		if err != nil {
			t.Fatalf("GenerateAccessToken() error = %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return w.Code, resp
}

const validSettingsBody = `{
	"dailyReminder": {"enabled": true, "time": "6:30", "days": [1, 3, 5], "message": "Go!"},
	"weeklyProgress": {"enabled": false, "day": 0, "time": "19:00"},
	"achievementNotifications": true,
	"motivationalMessages": false,
	"fcmToken": "T1"
}`

func TestGetSettingsReturnsDefaults(t *testing.T) {
	s := newTestServer(t, nil)

	code, resp := s.do(t, http.MethodGet, "/api/notifications/settings/u1", "u1", "")
	if code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d, resp = %+v", code, resp)
	}

	var settings domain.Settings
	if err := json.Unmarshal(resp.Data, &settings); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if settings.DailyReminder.Time != "07:00" || len(settings.DailyReminder.Days) != 5 {
		t.Errorf("settings = %+v, want defaults", settings)
	}
	if _, err := s.store.Settings().Get(context.Background(), "u1"); err != nil {
		t.Errorf("defaults not persisted: %v", err)
	}
}

func TestUpdateSettings(t *testing.T) {
	s := newTestServer(t, nil)

	code, resp := s.do(t, http.MethodPut, "/api/notifications/settings/u1", "u1", validSettingsBody)
	if code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d, resp = %+v", code, resp)
	}
	if resp.Message != "Notification settings updated successfully" {
		t.Errorf("message = %q", resp.Message)
	}

	stored, err := s.store.Settings().Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("settings not stored: %v", err)
	}
	if stored.DailyReminder.Time != "06:30" || stored.WeeklyProgress.Enabled {
		t.Errorf("stored = %+v", stored)
	}
	token, err := s.store.Tokens().Get(context.Background(), "u1")
	if err != nil || token.FCMToken != "T1" {
		t.Errorf("token = %+v, err = %v", token, err)
	}
}

func TestUpdateSettingsValidationErrors(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", "", "request body is required"},
		{"bad json", "{", "request body must be valid JSON"},
		{"unknown field", `{"surprise": true}`, `"surprise" is not allowed`},
		{"wrong type", `{"achievementNotifications": "yes"}`, `"achievementNotifications" must be of type bool`},
		{"bad time", strings.Replace(validSettingsBody, `"6:30"`, `"6:300"`, 1), `"dailyReminder.time" must be a time in HH:MM format`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := s.do(t, http.MethodPut, "/api/notifications/settings/u1", "u1", tt.body)
			if code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", code)
			}
			if resp.Success || resp.Error != "Validation error" {
				t.Errorf("resp = %+v", resp)
			}
			if len(resp.Details) != 1 || resp.Details[0] != tt.want {
				t.Errorf("details = %q, want [%q]", resp.Details, tt.want)
			}
		})
	}
}

func TestOwnerRule(t *testing.T) {
	s := newTestServer(t, nil)

	routes := []struct{ method, path, body string }{
		{http.MethodGet, "/api/notifications/settings/u2", ""},
		{http.MethodPut, "/api/notifications/settings/u2", validSettingsBody},
		{http.MethodGet, "/api/notifications/history/u2", ""},
		{http.MethodPut, "/api/users/u2/fcm-token", `{"fcmToken": "T"}`},
		{http.MethodDelete, "/api/users/fcm-token/u2", ""},
		{http.MethodPost, "/api/users/fcm-token", `{"userId": "u2", "fcmToken": "T"}`},
	}
	for _, rt := range routes {
		if code, _ := s.do(t, rt.method, rt.path, "u1", rt.body); code != http.StatusForbidden {
			t.Errorf("%s %s as another user: status = %d, want 403", rt.method, rt.path, code)
		}
		if code, _ := s.do(t, rt.method, rt.path, "", rt.body); code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status = %d, want 401", rt.method, rt.path, code)
		}
	}
}

func TestTokenRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	code, resp := s.do(t, http.MethodPost, "/api/users/fcm-token", "u1", `{"userId": "u1"}`)
	if code != http.StatusBadRequest || resp.Error != "userId and fcmToken are required" {
		t.Errorf("missing token: status = %d, resp = %+v", code, resp)
	}

	code, resp = s.do(t, http.MethodPost, "/api/users/fcm-token", "u1", `{"userId": "u1", "fcmToken": "A"}`)
	if code != http.StatusOK || resp.Message != "FCM token saved successfully" {
		t.Fatalf("register: status = %d, resp = %+v", code, resp)
	}

	code, resp = s.do(t, http.MethodPut, "/api/users/u1/fcm-token", "u1", `{}`)
	if code != http.StatusBadRequest || resp.Error != "fcmToken is required" {
		t.Errorf("update without token: status = %d, resp = %+v", code, resp)
	}

	code, _ = s.do(t, http.MethodPut, "/api/users/u1/fcm-token", "u1", `{"fcmToken": "B"}`)
	if code != http.StatusOK {
		t.Fatalf("update: status = %d", code)
	}
	if token, _ := s.store.Tokens().Get(ctx, "u1"); token == nil || token.FCMToken != "B" {
		t.Errorf("token = %+v, want B", token)
	}

	code, resp = s.do(t, http.MethodDelete, "/api/users/fcm-token/u1", "u1", "")
	if code != http.StatusOK || resp.Message != "FCM token removed successfully" {
		t.Fatalf("delete: status = %d, resp = %+v", code, resp)
	}
	if _, err := s.store.Tokens().Get(ctx, "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("token still present after delete: %v", err)
	}
}

func TestGetHistory(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	base := time.Date(2024, time.January, 1, 7, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, _ = s.store.History().Append(ctx, &domain.HistoryRecord{
			UserID: "u1",
			Title:  "t",
			Status: domain.StatusSent,
			SentAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	code, resp := s.do(t, http.MethodGet, "/api/notifications/history/u1?limit=2&offset=0", "u1", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var records []domain.HistoryRecord
	if err := json.Unmarshal(resp.Data, &records); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(records) != 2 || !records[0].SentAt.After(records[1].SentAt) {
		t.Errorf("records = %+v, want 2 newest first", records)
	}
	if records[0].ID == "" {
		t.Error("record id missing")
	}
	if resp.Pagination == nil || *resp.Pagination != (dto.Pagination{Limit: 2, Offset: 0, Total: 2}) {
		t.Errorf("pagination = %+v", resp.Pagination)
	}

	_, resp = s.do(t, http.MethodGet, "/api/notifications/history/u1", "u1", "")
	if !bytes.HasPrefix(resp.Data, []byte("[")) || resp.Pagination.Limit != 50 {
		t.Errorf("default page: data = %s, pagination = %+v", resp.Data, resp.Pagination)
	}
}

func TestSchedulerStatus(t *testing.T) {
	s := newTestServer(t, nil)

	code, resp := s.do(t, http.MethodGet, "/api/notifications/scheduler/status", "u1", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if string(resp.Data) != `{"dailyReminder":true,"weeklyProgress":true}` {
		t.Errorf("data = %s", resp.Data)
	}
}

// brokenService fails every call with an unexpected error
type brokenService struct{ SettingsService }

func (brokenService) GetSettings(context.Context, string) (*domain.Settings, error) {
	return nil, domain.Persistence("get settings", errors.New("connection reset by peer"))
}

func TestUnexpectedErrorsAreHidden(t *testing.T) {
	s := newTestServer(t, brokenService{})

	code, resp := s.do(t, http.MethodGet, "/api/notifications/settings/u1", "u1", "")
	if code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", code)
	}
	if resp.Error != "Failed to fetch notification settings" {
		t.Errorf("error = %q", resp.Error)
	}
}
