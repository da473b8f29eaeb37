package fcm

import (
	"context"
	"errors"
	"testing"

	"runup-backend/internal/notification/domain"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent      []*messaging.Message
	multicast []*messaging.MulticastMessage
	sendErr   error
	batch     *messaging.BatchResponse
}

func (f *fakeSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	f.sent = append(f.sent, m)
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return "projects/runup/messages/1", nil
}

func (f *fakeSender) SendEachForMulticast(_ context.Context, m *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	f.multicast = append(f.multicast, m)
	return f.batch, nil
}

func testEnvelope() domain.Envelope {
	return domain.Envelope{
		Title: "Daily",
		Body:  "Go!",
		Data:  map[string]string{"type": "daily_reminder"},
		Hints: domain.DefaultDeliveryHints("runup_notifications"),
	}
}

func TestBuildMessageCarriesHints(t *testing.T) {
	msg := BuildMessage("T1", testEnvelope())

	if msg.Token != "T1" || msg.Notification.Title != "Daily" || msg.Notification.Body != "Go!" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Data["type"] != "daily_reminder" {
		t.Fatalf("data = %v", msg.Data)
	}
	if msg.Android.Priority != "high" {
		t.Fatalf("android priority = %q", msg.Android.Priority)
	}
	n := msg.Android.Notification
	if n.ChannelID != "runup_notifications" || n.Icon != "ic_notification" || n.Color != "#00E676" {
		t.Fatalf("android notification = %+v", n)
	}
	if !n.DefaultSound || !n.DefaultVibrateTimings || n.Priority != messaging.PriorityHigh {
		t.Fatalf("android notification flags = %+v", n)
	}
	aps := msg.APNS.Payload.Aps
	if aps.Alert.Title != "Daily" || aps.Sound != "default" || aps.Badge == nil || *aps.Badge != 1 {
		t.Fatalf("aps = %+v", aps)
	}
}

func TestBuildMessageNormalPriority(t *testing.T) {
	env := testEnvelope()
	env.Hints.HighPriority = false
	env.Hints.APNSBadge = 0

	msg := BuildMessage("T1", env)
	if msg.Android.Priority != "normal" {
		t.Fatalf("android priority = %q", msg.Android.Priority)
	}
	if msg.APNS.Payload.Aps.Badge != nil {
		t.Fatal("badge should be omitted")
	}
}

func TestClientSend(t *testing.T) {
	sender := &fakeSender{}
	client := NewClientWithSender(sender, zap.NewNop())

	id, err := client.Send(context.Background(), "T1", testEnvelope())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if id != "projects/runup/messages/1" || len(sender.sent) != 1 {
		t.Fatalf("id = %q, sent = %d", id, len(sender.sent))
	}

	sender.sendErr = errors.New("registration-token-not-registered")
	if _, err := client.Send(context.Background(), "T1", testEnvelope()); !errors.Is(err, sender.sendErr) {
		t.Fatalf("Send error = %v, want wrapped provider error", err)
	}
}

func TestClientSendMulti(t *testing.T) {
	sender := &fakeSender{
		batch: &messaging.BatchResponse{
			SuccessCount: 1,
			FailureCount: 1,
			Responses: []*messaging.SendResponse{
				{Success: true, MessageID: "m1"},
				{Success: false, Error: errors.New("invalid token")},
			},
		},
	}
	client := NewClientWithSender(sender, zap.NewNop())

	res, err := client.SendMulti(context.Background(), []string{"T1", "T2-a-rather-long-registration-token"}, testEnvelope())
	if err != nil {
		t.Fatalf("SendMulti: %v", err)
	}
	if res.SuccessCount != 1 || res.FailureCount != 1 || len(res.Results) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.Results[0].MessageID != "m1" || res.Results[1].Error != "invalid token" {
		t.Fatalf("per-token results = %+v", res.Results)
	}
	if len(sender.multicast) != 1 || len(sender.multicast[0].Tokens) != 2 {
		t.Fatal("expected one multicast call with two tokens")
	}

	empty, err := client.SendMulti(context.Background(), nil, testEnvelope())
	if err != nil || empty.SuccessCount != 0 || len(sender.multicast) != 1 {
		t.Fatalf("empty SendMulti = %+v, %v", empty, err)
	}
}
