// Package line implements the messaging-app platform. Webhook payloads
// can batch several events; only the first one is handled, the rest are
// dropped.
package line

import (
	"encoding/json"
	"log/slog"

	"github.com/chatrouter/chatrouter/internal/message"
	"github.com/chatrouter/chatrouter/internal/platform"
	"github.com/chatrouter/chatrouter/internal/signature"
	"github.com/chatrouter/chatrouter/internal/timeutil"
)

const headerSignature = "X-Line-Signature"

type webhookEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Source    struct {
		Type    string `json:"type"`
		UserID  string `json:"userId"`
		GroupID string `json:"groupId"`
		RoomID  string `json:"roomId"`
	} `json:"source"`
	Message struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

type webhookBody struct {
	Events []webhookEvent `json:"events"`
}

// Platform handles messaging-app webhooks.
type Platform struct {
	channelSecret string
	logger        *slog.Logger
}

func New(log *slog.Logger, channelSecret string) *Platform {
	if log == nil {
		log = slog.Default()
	}
	logger := log.With(slog.String("platform", "line"))
	if channelSecret == "" {
		logger.Warn("channel secret not configured, webhook signature verification is DISABLED")
	}
	return &Platform{channelSecret: channelSecret, logger: logger}
}

func (p *Platform) Name() message.Platform {
	return message.PlatformLine
}

// VerifySignature checks the base64 HMAC-SHA256 of the raw body against
// the X-Line-Signature header.
func (p *Platform) VerifySignature(req platform.Request) bool {
	if p.channelSecret == "" {
		return true
	}
	provided := req.HeaderValue(headerSignature)
	if provided == "" {
		return false
	}
	expected := signature.HMACSHA256Base64(p.channelSecret, req.RawBody)
	return signature.Equal(expected, provided)
}

// Normalize handles the first event only. Event timestamps are already
// in milliseconds; a zero timestamp falls back to now. Text is kept
// only for text messages, media messages carry their subtype as the
// content type.
func (p *Platform) Normalize(body []byte) (message.Message, bool) {
	var payload webhookBody
	if err := json.Unmarshal(body, &payload); err != nil {
		return message.Message{}, false
	}
	if len(payload.Events) == 0 {
		p.logger.Info("no events in payload")
		return message.Message{}, false
	}
	if len(payload.Events) > 1 {
		p.logger.Warn("dropping extra events", slog.Int("dropped", len(payload.Events)-1))
	}

	event := payload.Events[0]
	if event.Type != "message" {
		p.logger.Info("ignoring non-message event", slog.String("event_type", event.Type))
		return message.Message{}, false
	}

	sourceID := event.Source.UserID
	if sourceID == "" {
		sourceID = event.Source.GroupID
	}
	if sourceID == "" {
		sourceID = event.Source.RoomID
	}

	senderID := event.Source.UserID
	if senderID == "" {
		senderID = "unknown"
	}

	ts := event.Timestamp
	if ts == 0 {
		ts = timeutil.NowMillis()
	}

	var text string
	contentType := message.ContentType(event.Message.Type)
	if contentType == "" {
		contentType = message.ContentText
	}
	if contentType == message.ContentText {
		text = event.Message.Text
	}

	return message.Message{
		Platform:    message.PlatformLine,
		RoomKey:     message.RoomKeyFor(message.PlatformLine, event.Source.Type, sourceID),
		SenderID:    senderID,
		TimestampMs: ts,
		Role:        message.RoleUser,
		Text:        text,
		ContentType: contentType,
	}, true
}
