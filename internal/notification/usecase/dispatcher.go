package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"runup-backend/internal/notification/domain"
	"runup-backend/internal/notification/repository"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Transport delivers envelopes to devices. *fcm.Client implements it.
type Transport interface {
	Send(ctx context.Context, token string, env domain.Envelope) (string, error)
	SendMulti(ctx context.Context, tokens []string, env domain.Envelope) (*domain.MultiResult, error)
}

// DispatchResult describes a successful single-device send
type DispatchResult struct {
	MessageID string
	HistoryID string // empty when the history write failed
}

// Dispatcher sends pushes and records every attempt in the history store
type Dispatcher struct {
	transport Transport
	history   repository.HistoryRepository
	hints     domain.DeliveryHints
	limiter   *rate.Limiter
	now       func() time.Time
	log       *zap.Logger
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithSendRate throttles sends to perSecond (burst 1). Zero or less disables throttling.
func WithSendRate(perSecond float64) DispatcherOption {
	return func(d *Dispatcher) {
		if perSecond > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithDispatchClock overrides the clock used for timestamps
func WithDispatchClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

func NewDispatcher(transport Transport, history repository.HistoryRepository, hints domain.DeliveryHints, log *zap.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		transport: transport,
		history:   history,
		hints:     hints,
		now:       time.Now,
		log:       log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends one push to token. Exactly one history record is written per
// call, sent or failed. A send failure is returned as *domain.TransportError;
// a history write failure is only logged.
func (d *Dispatcher) Dispatch(ctx context.Context, token, title, body string, metadata map[string]string) (*DispatchResult, error) {
	sentAt := d.now()
	env := d.envelope(title, body, metadata, sentAt)

	messageID, err := d.send(ctx, token, env)
	if err != nil {
		d.log.Error("error sending notification",
			zap.String("user_id", metadata["userId"]),
			zap.Error(err))
		d.record(ctx, token, title, body, metadata, domain.StatusFailed, "", err.Error(), sentAt)
		return nil, &domain.TransportError{Err: err}
	}

	response, _ := json.Marshal(messageID)
	historyID := d.record(ctx, token, title, body, metadata, domain.StatusSent, string(response), "", sentAt)
	return &DispatchResult{MessageID: messageID, HistoryID: historyID}, nil
}

// DispatchMulti sends one push to many tokens with a single provider call.
// It writes no history records.
func (d *Dispatcher) DispatchMulti(ctx context.Context, tokens []string, title, body string, metadata map[string]string) (*domain.MultiResult, error) {
	env := d.envelope(title, body, metadata, d.now())

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, &domain.TransportError{Err: err}
		}
	}
	result, err := d.transport.SendMulti(ctx, tokens, env)
	if err != nil {
		d.log.Error("error sending multiple notifications", zap.Int("tokens", len(tokens)), zap.Error(err))
		return nil, &domain.TransportError{Err: err}
	}

	d.log.Info("multicast notifications sent",
		zap.Int("success", result.SuccessCount),
		zap.Int("failure", result.FailureCount))
	return result, nil
}

// send calls the transport. A transport panic is returned as an error so the
// attempt is still recorded.
func (d *Dispatcher) send(ctx context.Context, token string, env domain.Envelope) (messageID string, err error) {
	defer func() {
		if p := recover(); p != nil {
			d.log.Error("panic in push transport", zap.Any("panic", p), zap.Stack("stack"))
			err = fmt.Errorf("transport panic: %v", p)
		}
	}()

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	return d.transport.Send(ctx, token, env)
}

func (d *Dispatcher) envelope(title, body string, metadata map[string]string, sentAt time.Time) domain.Envelope {
	data := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		data[k] = v
	}
	data["timestamp"] = sentAt.UTC().Format(time.RFC3339)

	return domain.Envelope{
		Title: title,
		Body:  body,
		Data:  data,
		Hints: d.hints,
	}
}

// record appends the attempt to history and returns its ID, or "" when the
// write failed. Audit failures never reach the caller.
func (d *Dispatcher) record(ctx context.Context, token, title, body string, metadata map[string]string, status domain.HistoryStatus, response, errDetail string, sentAt time.Time) string {
	data := make(map[string]string, len(metadata))
	for k, v := range metadata {
		data[k] = v
	}

	rec := &domain.HistoryRecord{
		UserID:   metadata["userId"],
		FCMToken: token,
		Title:    title,
		Body:     body,
		Data:     data,
		Status:   status,
		Response: response,
		Error:    errDetail,
		SentAt:   sentAt,
	}

	id, err := d.history.Append(ctx, rec)
	if err != nil {
		d.log.Error("error logging notification history",
			zap.String("user_id", rec.UserID),
			zap.String("status", string(status)),
			zap.Error(err))
		return ""
	}
	return id
}
