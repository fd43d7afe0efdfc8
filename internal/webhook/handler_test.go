package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatrouter/chatrouter/internal/dispatch"
	"github.com/chatrouter/chatrouter/internal/message"
	"github.com/chatrouter/chatrouter/internal/platform"
	"github.com/chatrouter/chatrouter/internal/platform/custom"
	"github.com/chatrouter/chatrouter/internal/signature"
	"github.com/chatrouter/chatrouter/internal/store"
)

type memoryRooms struct{}

func (memoryRooms) GetChatRoom(_ context.Context, chatID string) (store.ChatRoom, error) {
	if chatID != "chat-1" {
		return store.ChatRoom{}, store.ErrNotFound
	}
	return store.ChatRoom{ChatID: "chat-1", BotID: "bot-1", IsActive: true}, nil
}

func (memoryRooms) GetBotSettings(_ context.Context, botID string) (store.BotSettings, error) {
	if botID != "bot-1" {
		return store.BotSettings{}, store.ErrNotFound
	}
	return store.BotSettings{
		BotID:    "bot-1",
		IsActive: true,
		AIConfig: &store.AIConfig{DefaultModel: "claude-3-haiku"},
	}, nil
}

type recordingQueue struct {
	jobs []dispatch.Job
}

func (q *recordingQueue) Publish(_ context.Context, job dispatch.Job) (string, error) {
	q.jobs = append(q.jobs, job)
	return "1-0", nil
}

// Full path for a first-party UI message: signed request in, message
// persisted, AI job on the queue, success envelope out.
func TestReceiveCustomUIFlow(t *testing.T) {
	const secret = "ui-secret"

	queue := &recordingQueue{}
	st := &fakeStore{}

	registry := platform.NewRegistry()
	registry.MustRegister(custom.New(nil, secret, memoryRooms{}, queue))

	e := echo.New()
	NewHandler(NewProcessor(nil, registry, st, nil)).Register(e)

	body := []byte(`{"chatId":"chat-1","userId":"u-1","text":"hello bot","timestamp":1617235678000}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/custom", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Custom-Signature", signature.HMACSHA256Hex(secret, body))
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "custom:chat-1", resp["roomKey"])

	require.Len(t, st.saved, 1)
	saved := st.saved[0]
	assert.Equal(t, message.PlatformCustom, saved.Platform)
	assert.Equal(t, "u-1", saved.SenderID)
	assert.Equal(t, int64(1617235678000), saved.TimestampMs)

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "chat-1", queue.jobs[0].ChatID)
	assert.Equal(t, "bot-1", queue.jobs[0].BotID)
	assert.Equal(t, "hello bot", queue.jobs[0].UserMessage)
	assert.Equal(t, "custom-ui", queue.jobs[0].Source)
}

func TestReceiveRejectsTamperedBody(t *testing.T) {
	const secret = "ui-secret"

	registry := platform.NewRegistry()
	registry.MustRegister(custom.New(nil, secret, memoryRooms{}, &recordingQueue{}))

	e := echo.New()
	NewHandler(NewProcessor(nil, registry, &fakeStore{}, nil)).Register(e)

	body := []byte(`{"chatId":"chat-1","userId":"u-1","text":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/custom", bytes.NewReader(body))
	req.Header.Set("X-Custom-Signature", signature.HMACSHA256Hex(secret, []byte(`different body`)))
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReceiveUnknownRoomRejected(t *testing.T) {
	registry := platform.NewRegistry()
	registry.MustRegister(custom.New(nil, "", memoryRooms{}, &recordingQueue{}))

	e := echo.New()
	NewHandler(NewProcessor(nil, registry, &fakeStore{}, nil)).Register(e)

	body := []byte(`{"chatId":"missing","userId":"u-1","text":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/custom", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
