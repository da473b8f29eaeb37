package fcm

import (
	"context"
	"fmt"

	"runup-backend/internal/notification/domain"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// Sender is the subset of *messaging.Client used here
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Client wraps Firebase Cloud Messaging functionality
type Client struct {
	sender Sender
	log    *zap.Logger
}

// NewClient creates a new FCM client from an initialized Firebase app
func NewClient(ctx context.Context, app *firebase.App, log *zap.Logger) (*Client, error) {
	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	log.Info("FCM client initialized")
	return NewClientWithSender(messagingClient, log), nil
}

// NewClientWithSender wraps an existing sender
func NewClientWithSender(sender Sender, log *zap.Logger) *Client {
	return &Client{sender: sender, log: log}
}

// Send delivers env to a single device token and returns the provider message ID
func (c *Client) Send(ctx context.Context, token string, env domain.Envelope) (string, error) {
	message := BuildMessage(token, env)

	response, err := c.sender.Send(ctx, message)
	if err != nil {
		return "", fmt.Errorf("failed to send FCM message: %w", err)
	}

	c.log.Debug("message sent", zap.String("message_id", response))
	return response, nil
}

// SendMulti delivers env to many tokens in one provider call
func (c *Client) SendMulti(ctx context.Context, tokens []string, env domain.Envelope) (*domain.MultiResult, error) {
	if len(tokens) == 0 {
		return &domain.MultiResult{}, nil
	}

	message := BuildMulticastMessage(tokens, env)
	response, err := c.sender.SendEachForMulticast(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("failed to send FCM multicast message: %w", err)
	}

	c.log.Info("multicast sent",
		zap.Int("success", response.SuccessCount),
		zap.Int("failure", response.FailureCount))

	result := &domain.MultiResult{
		SuccessCount: response.SuccessCount,
		FailureCount: response.FailureCount,
		Results:      make([]domain.TokenResult, 0, len(response.Responses)),
	}
	for i, resp := range response.Responses {
		tr := domain.TokenResult{Token: tokens[i]}
		if resp.Success {
			tr.MessageID = resp.MessageID
		} else {
			tr.Error = fmt.Sprint(resp.Error)
			c.log.Warn("multicast send failed for token",
				zap.String("token", redact(tokens[i])),
				zap.Error(resp.Error))
		}
		result.Results = append(result.Results, tr)
	}
	return result, nil
}

// BuildMessage converts an envelope into an FCM message for one device
func BuildMessage(token string, env domain.Envelope) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: env.Title,
			Body:  env.Body,
		},
		Data:    env.Data,
		Android: androidConfig(env.Hints),
		APNS:    apnsConfig(env),
	}
}

// BuildMulticastMessage converts an envelope into an FCM multicast message
func BuildMulticastMessage(tokens []string, env domain.Envelope) *messaging.MulticastMessage {
	return &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: env.Title,
			Body:  env.Body,
		},
		Data:    env.Data,
		Android: androidConfig(env.Hints),
		APNS:    apnsConfig(env),
	}
}

func androidConfig(h domain.DeliveryHints) *messaging.AndroidConfig {
	cfg := &messaging.AndroidConfig{
		Priority: "normal",
		Notification: &messaging.AndroidNotification{
			Icon:                  h.AndroidIcon,
			Color:                 h.AndroidColor,
			ChannelID:             h.AndroidChannelID,
			DefaultSound:          h.DefaultSound,
			DefaultVibrateTimings: h.DefaultVibrateTimings,
		},
	}
	if h.HighPriority {
		cfg.Priority = "high"
		cfg.Notification.Priority = messaging.PriorityHigh
	}
	return cfg
}

func apnsConfig(env domain.Envelope) *messaging.APNSConfig {
	aps := &messaging.Aps{
		Alert: &messaging.ApsAlert{
			Title: env.Title,
			Body:  env.Body,
		},
		Sound: env.Hints.APNSSound,
	}
	if env.Hints.APNSBadge > 0 {
		badge := env.Hints.APNSBadge
		aps.Badge = &badge
	}
	return &messaging.APNSConfig{
		Payload: &messaging.APNSPayload{Aps: aps},
	}
}

// redact keeps tokens out of logs beyond a short prefix
func redact(token string) string {
	if len(token) <= 20 {
		return token
	}
	return token[:20] + "..."
}
