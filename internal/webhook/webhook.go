// Package webhook runs incoming platform callbacks through a fixed
// pipeline: verify signature, platform pre-check, normalize, resolve
// attachments, persist, platform post-process. Each stage can stop the
// pipeline, later stages never undo an earlier success.
package webhook

import (
	"context"
	"log/slog"
	"time"

	"github.com/chatrouter/chatrouter/internal/message"
	"github.com/chatrouter/chatrouter/internal/platform"
)

// MessageStore persists canonical messages.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg message.Message) error
}

// BlobSaver stores inline binary payloads and returns a blob URI, empty
// when storage is disabled or the payload is unusable.
type BlobSaver interface {
	SaveBase64(ctx context.Context, msg message.Message, data, extension string) string
}

// Result is the response the pipeline produced.
type Result struct {
	StatusCode int
	Body       any
}

// Processor drives the webhook pipeline for every registered platform.
type Processor struct {
	registry *platform.Registry
	store    MessageStore
	blobs    BlobSaver
	logger   *slog.Logger
}

func NewProcessor(log *slog.Logger, registry *platform.Registry, store MessageStore, blobs BlobSaver) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		registry: registry,
		store:    store,
		blobs:    blobs,
		logger:   log.With(slog.String("service", "webhook")),
	}
}

// Process runs one request through the pipeline and returns the
// response to send. Providers retry aggressively on non-2xx, so
// non-message traffic is answered 200 "ignored" rather than an error.
func (p *Processor) Process(ctx context.Context, rawName string, req platform.Request) Result {
	name := message.Platform(rawName)
	plat, ok := p.registry.Get(name)
	if !ok {
		return errorResult(404, "Not Found", "Webhook endpoint not found: "+rawName)
	}
	log := p.logger.With(slog.String("platform", rawName))

	if !plat.VerifySignature(req) {
		log.Warn("signature verification failed")
		return errorResult(401, "Unauthorized", "Invalid signature")
	}

	if pre, ok := p.registry.GetPreProcessor(name); ok {
		sc, err := pre.PreProcess(ctx, req.RawBody)
		if err != nil {
			log.Error("pre-process failed", slog.Any("error", err))
			return errorResult(500, "Internal Server Error", "Failed to pre-process request")
		}
		if sc != nil {
			return Result{StatusCode: sc.StatusCode, Body: sc.Body}
		}
	}

	msg, ok := plat.Normalize(req.RawBody)
	if !ok {
		return ignoredResult(rawName)
	}

	if carrier, ok := p.registry.GetBinaryCarrier(name); ok && p.blobs != nil {
		if data, extension, ok := carrier.InlineBinary(req.RawBody); ok {
			// Upload failures degrade to a message without a blob ref.
			msg.BlobRef = p.blobs.SaveBase64(ctx, msg, data, extension)
		}
	}

	if err := p.store.SaveMessage(ctx, msg); err != nil {
		log.Error("failed to persist message",
			slog.String("room_key", msg.RoomKey), slog.Any("error", err))
		return errorResult(500, "Internal Server Error", "Failed to save message")
	}

	if post, ok := p.registry.GetPostProcessor(name); ok {
		// The message is already durable, post-process failures are
		// logged and swallowed.
		if err := post.PostProcess(ctx, msg, req.RawBody); err != nil {
			log.Error("post-process failed",
				slog.String("room_key", msg.RoomKey), slog.Any("error", err))
		}
	}

	log.Info("webhook processed",
		slog.String("room_key", msg.RoomKey),
		slog.Int64("ts_ms", msg.TimestampMs),
		slog.String("content_type", string(msg.ContentType)))
	return successResult(rawName, msg)
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func successResult(name string, msg message.Message) Result {
	return Result{
		StatusCode: 200,
		Body: map[string]any{
			"status":    "success",
			"platform":  name,
			"message":   name + " webhook processed successfully",
			"timestamp": nowISO(),
			"roomKey":   msg.RoomKey,
			"messageTs": msg.TimestampMs,
		},
	}
}

func ignoredResult(name string) Result {
	return Result{
		StatusCode: 200,
		Body: map[string]any{
			"status":    "ignored",
			"platform":  name,
			"message":   "Non-message " + name + " event ignored",
			"timestamp": nowISO(),
		},
	}
}

func errorResult(status int, kind, detail string) Result {
	return Result{
		StatusCode: status,
		Body: map[string]any{
			"error":     kind,
			"message":   detail,
			"timestamp": nowISO(),
		},
	}
}
