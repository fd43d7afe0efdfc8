// Package slack implements the workspace-chat platform: Events API
// payloads, v0 request signing, and the URL-verification handshake.
package slack

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/chatrouter/chatrouter/internal/message"
	"github.com/chatrouter/chatrouter/internal/platform"
	"github.com/chatrouter/chatrouter/internal/signature"
	"github.com/chatrouter/chatrouter/internal/timeutil"
)

const (
	headerTimestamp = "X-Slack-Request-Timestamp"
	headerSignature = "X-Slack-Signature"
)

type eventEnvelope struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	TeamID    string `json:"team_id"`
	Event     struct {
		Type    string `json:"type"`
		Channel string `json:"channel"`
		User    string `json:"user"`
		Text    string `json:"text"`
		TS      string `json:"ts"`
		Files   []struct {
			Mimetype string `json:"mimetype"`
		} `json:"files"`
	} `json:"event"`
}

// Platform handles workspace-chat webhooks.
type Platform struct {
	signingSecret string
	logger        *slog.Logger
}

// New creates the slack platform. An empty signingSecret disables
// verification; the bypass is logged once here so operators notice.
func New(log *slog.Logger, signingSecret string) *Platform {
	if log == nil {
		log = slog.Default()
	}
	logger := log.With(slog.String("platform", "slack"))
	if signingSecret == "" {
		logger.Warn("signing secret not configured, webhook signature verification is DISABLED")
	}
	return &Platform{signingSecret: signingSecret, logger: logger}
}

func (p *Platform) Name() message.Platform {
	return message.PlatformSlack
}

// VerifySignature checks the v0 signature over the exact raw body:
// HMAC-SHA256("v0:" + timestamp + ":" + body), hex, prefixed "v0=".
func (p *Platform) VerifySignature(req platform.Request) bool {
	if p.signingSecret == "" {
		return true
	}

	timestamp := req.HeaderValue(headerTimestamp)
	provided := req.HeaderValue(headerSignature)
	if timestamp == "" || provided == "" {
		return false
	}

	base := "v0:" + timestamp + ":" + string(req.RawBody)
	expected := "v0=" + signature.HMACSHA256Hex(p.signingSecret, []byte(base))
	return signature.Equal(expected, provided)
}

// PreProcess answers URL-verification challenges before normalization
// ever sees them.
func (p *Platform) PreProcess(_ context.Context, body []byte) (*platform.ShortCircuit, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, nil
	}
	if envelope.Type == "url_verification" {
		p.logger.Info("answering url_verification challenge")
		return &platform.ShortCircuit{
			StatusCode: 200,
			Body:       map[string]string{"challenge": envelope.Challenge},
		}, nil
	}
	return nil, nil
}

// Normalize accepts only "message" events. The provider timestamp is
// "seconds.microseconds"; a malformed value falls back to now.
func (p *Platform) Normalize(body []byte) (message.Message, bool) {
	var envelope eventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return message.Message{}, false
	}
	if envelope.Type == "url_verification" {
		return message.Message{}, false
	}
	if envelope.Event.Type != "message" {
		p.logger.Info("ignoring non-message event", slog.String("event_type", envelope.Event.Type))
		return message.Message{}, false
	}

	contentType := message.ContentText
	if len(envelope.Event.Files) > 0 {
		contentType = message.BucketMIME(envelope.Event.Files[0].Mimetype)
	}

	return message.Message{
		Platform:    message.PlatformSlack,
		RoomKey:     message.RoomKeyFor(message.PlatformSlack, envelope.TeamID, envelope.Event.Channel),
		SenderID:    envelope.Event.User,
		TimestampMs: parseEventTS(envelope.Event.TS),
		Role:        message.RoleUser,
		Text:        envelope.Event.Text,
		ContentType: contentType,
	}, true
}

// parseEventTS splits "seconds.microseconds" and keeps the first three
// fractional digits as the millisecond remainder.
func parseEventTS(ts string) int64 {
	secPart, fracPart, _ := strings.Cut(ts, ".")
	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil {
		return timeutil.NowMillis()
	}
	ms := sec * 1000
	if len(fracPart) > 0 {
		if len(fracPart) > 3 {
			fracPart = fracPart[:3]
		}
		frac, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return timeutil.NowMillis()
		}
		ms += frac
	}
	return ms
}
