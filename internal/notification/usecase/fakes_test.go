package usecase

import (
	"context"
	"errors"
	"sync"

	"runup-backend/internal/notification/domain"
)

type sentMessage struct {
	token string
	env   domain.Envelope
}

// fakeTransport records sends and fails for tokens listed in failFor
type fakeTransport struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[string]error
	panicOn string
}

func (f *fakeTransport) Send(_ context.Context, token string, env domain.Envelope) (string, error) {
	if token == f.panicOn && token != "" {
		panic("transport exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{token: token, env: env})
	if err, ok := f.failFor[token]; ok {
		return "", err
	}
	return "projects/runup/messages/" + token, nil
}

func (f *fakeTransport) SendMulti(_ context.Context, tokens []string, env domain.Envelope) (*domain.MultiResult, error) {
	result := &domain.MultiResult{}
	for _, token := range tokens {
		f.mu.Lock()
		f.sent = append(f.sent, sentMessage{token: token, env: env})
		err := f.failFor[token]
		f.mu.Unlock()
		r := domain.TokenResult{Token: token}
		if err != nil {
			r.Error = err.Error()
			result.FailureCount++
		} else {
			r.MessageID = "projects/runup/messages/" + token
			result.SuccessCount++
		}
		result.Results = append(result.Results, r)
	}
	return result, nil
}

func (f *fakeTransport) calls() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

// brokenHistory fails every write
type brokenHistory struct{}

func (brokenHistory) Append(context.Context, *domain.HistoryRecord) (string, error) {
	return "", domain.Persistence("append history", errors.New("store unavailable"))
}

func (brokenHistory) ListByUser(context.Context, string, int, int) ([]domain.HistoryRecord, error) {
	return nil, domain.Persistence("list history", errors.New("store unavailable"))
}
