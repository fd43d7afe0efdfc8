// Package teams implements the enterprise-chat platform using Bot
// Framework activity payloads.
package teams

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/chatrouter/chatrouter/internal/message"
	"github.com/chatrouter/chatrouter/internal/platform"
	"github.com/chatrouter/chatrouter/internal/timeutil"
)

type activity struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
	From      struct {
		ID string `json:"id"`
	} `json:"from"`
	Conversation struct {
		ID string `json:"id"`
	} `json:"conversation"`
	ChannelData struct {
		Tenant struct {
			ID string `json:"id"`
		} `json:"tenant"`
	} `json:"channelData"`
	Attachments []struct {
		ContentType string `json:"contentType"`
	} `json:"attachments"`
}

// Platform handles enterprise-chat webhooks.
type Platform struct {
	secret string
	logger *slog.Logger
}

func New(log *slog.Logger, secret string) *Platform {
	if log == nil {
		log = slog.Default()
	}
	logger := log.With(slog.String("platform", "teams"))
	if secret == "" {
		logger.Warn("secret not configured, webhook authorization check is DISABLED")
	}
	return &Platform{secret: secret, logger: logger}
}

func (p *Platform) Name() message.Platform {
	return message.PlatformTeams
}

// VerifySignature only checks that an Authorization header with a
// Bearer prefix is present. The token itself is not validated against
// the Bot Framework, so this gate keeps out casual traffic only.
func (p *Platform) VerifySignature(req platform.Request) bool {
	if p.secret == "" {
		return true
	}
	auth := req.HeaderValue("Authorization")
	return strings.HasPrefix(auth, "Bearer ")
}

// Normalize accepts only activities of type "message". Timestamps are
// ISO 8601 strings and fall back to now when unparseable.
func (p *Platform) Normalize(body []byte) (message.Message, bool) {
	var act activity
	if err := json.Unmarshal(body, &act); err != nil {
		return message.Message{}, false
	}
	if act.Type != "message" {
		p.logger.Info("ignoring non-message activity", slog.String("activity_type", act.Type))
		return message.Message{}, false
	}

	contentType := message.ContentText
	if len(act.Attachments) > 0 {
		contentType = message.BucketDeclaredType(act.Attachments[0].ContentType)
	}

	return message.Message{
		Platform:    message.PlatformTeams,
		RoomKey:     message.RoomKeyFor(message.PlatformTeams, act.ChannelData.Tenant.ID, act.Conversation.ID),
		SenderID:    act.From.ID,
		TimestampMs: timeutil.ParseToMillis(act.Timestamp),
		Role:        message.RoleUser,
		Text:        act.Text,
		ContentType: contentType,
	}, true
}
