package webhook

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chatrouter/chatrouter/internal/platform"
)

// Handler exposes the pipeline over HTTP. Signature verification needs
// the raw body, so the handler never binds the payload into a struct.
type Handler struct {
	processor *Processor
}

func NewHandler(processor *Processor) *Handler {
	return &Handler{processor: processor}
}

func (h *Handler) Register(e *echo.Echo) {
	e.POST("/webhook/:platform", h.Receive)
}

func (h *Handler) Receive(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}

	req := platform.Request{
		RawBody: body,
		Header:  c.Request().Header,
	}
	result := h.processor.Process(c.Request().Context(), c.Param("platform"), req)
	return c.JSON(result.StatusCode, result.Body)
}
