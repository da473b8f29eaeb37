package domain

// DeliveryHints are platform delivery options passed through to the transport unchanged
type DeliveryHints struct {
	HighPriority          bool
	AndroidChannelID      string
	AndroidIcon           string
	AndroidColor          string
	DefaultSound          bool
	DefaultVibrateTimings bool
	APNSBadge             int
	APNSSound             string
}

// DefaultDeliveryHints mirrors what the mobile app registers for its notification channel
func DefaultDeliveryHints(channelID string) DeliveryHints {
	if channelID == "" {
		channelID = "runup_notifications"
	}
	return DeliveryHints{
		HighPriority:          true,
		AndroidChannelID:      channelID,
		AndroidIcon:           "ic_notification",
		AndroidColor:          "#00E676",
		DefaultSound:          true,
		DefaultVibrateTimings: true,
		APNSBadge:             1,
		APNSSound:             "default",
	}
}

// Envelope is a provider-agnostic push message
type Envelope struct {
	Title string
	Body  string
	Data  map[string]string
	Hints DeliveryHints
}

// TokenResult is the per-token outcome of a multicast send
type TokenResult struct {
	Token     string
	MessageID string
	Error     string
}

// MultiResult summarizes a multicast send
type MultiResult struct {
	SuccessCount int
	FailureCount int
	Results      []TokenResult
}
