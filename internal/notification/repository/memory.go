package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"runup-backend/internal/notification/domain"

	"github.com/google/uuid"
)

// MemoryStore keeps settings, tokens and history in process memory.
// It backs STORE_DRIVER=memory for local runs and the HTTP tests.
type MemoryStore struct {
	mu       sync.RWMutex
	settings map[string]domain.Settings
	tokens   map[string]domain.DeviceToken
	history  []domain.HistoryRecord
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		settings: make(map[string]domain.Settings),
		tokens:   make(map[string]domain.DeviceToken),
		now:      time.Now,
	}
}

// Settings exposes the store as a SettingsRepository
func (m *MemoryStore) Settings() SettingsRepository { return memorySettings{m} }

// Tokens exposes the store as a TokenRepository
func (m *MemoryStore) Tokens() TokenRepository { return memoryTokens{m} }

// History exposes the store as a HistoryRepository
func (m *MemoryStore) History() HistoryRepository { return memoryHistory{m} }

type memorySettings struct{ m *MemoryStore }

func (s memorySettings) Get(_ context.Context, userID string) (*domain.Settings, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	stored, ok := s.m.settings[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneSettings(stored)
	return &out, nil
}

func (s memorySettings) Put(_ context.Context, userID string, settings *domain.Settings) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	next := cloneSettings(*settings)
	if prev, ok := s.m.settings[userID]; ok {
		if next.DailyReminder.Message == "" {
			next.DailyReminder.Message = prev.DailyReminder.Message
		}
		if next.WeeklyProgress.Message == "" {
			next.WeeklyProgress.Message = prev.WeeklyProgress.Message
		}
		if next.CreatedAt.IsZero() {
			next.CreatedAt = prev.CreatedAt
		}
	}
	s.m.settings[userID] = next
	return nil
}

func (s memorySettings) Query(_ context.Context, filters ...domain.Filter) ([]domain.UserSettings, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var result []domain.UserSettings
	for userID, settings := range s.m.settings {
		matched := true
		for _, f := range filters {
			if !settings.Satisfies(f) {
				matched = false
				break
			}
		}
		if matched {
			result = append(result, domain.UserSettings{UserID: userID, Settings: cloneSettings(settings)})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

type memoryTokens struct{ m *MemoryStore }

func (t memoryTokens) Get(_ context.Context, userID string) (*domain.DeviceToken, error) {
	t.m.mu.RLock()
	defer t.m.mu.RUnlock()
	token, ok := t.m.tokens[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &token, nil
}

func (t memoryTokens) Save(_ context.Context, userID, fcmToken string) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	now := t.m.now()
	token, ok := t.m.tokens[userID]
	if !ok {
		token = domain.DeviceToken{UserID: userID, CreatedAt: now}
	}
	token.FCMToken = fcmToken
	token.UpdatedAt = now
	t.m.tokens[userID] = token
	return nil
}

func (t memoryTokens) Delete(_ context.Context, userID string) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	delete(t.m.tokens, userID)
	return nil
}

type memoryHistory struct{ m *MemoryStore }

func (h memoryHistory) Append(_ context.Context, record *domain.HistoryRecord) (string, error) {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	rec := *record
	rec.ID = uuid.New().String()
	h.m.history = append(h.m.history, rec)
	return rec.ID, nil
}

func (h memoryHistory) ListByUser(_ context.Context, userID string, limit, offset int) ([]domain.HistoryRecord, error) {
	h.m.mu.RLock()
	defer h.m.mu.RUnlock()

	var mine []domain.HistoryRecord
	for i := len(h.m.history) - 1; i >= 0; i-- {
		if h.m.history[i].UserID == userID {
			mine = append(mine, h.m.history[i])
		}
	}
	sort.SliceStable(mine, func(i, j int) bool { return mine[i].SentAt.After(mine[j].SentAt) })

	records := []domain.HistoryRecord{}
	if offset >= len(mine) {
		return records, nil
	}
	mine = mine[offset:]
	if limit > 0 && limit < len(mine) {
		mine = mine[:limit]
	}
	return append(records, mine...), nil
}

func cloneSettings(s domain.Settings) domain.Settings {
	s.DailyReminder.Days = append([]int(nil), s.DailyReminder.Days...)
	return s
}
