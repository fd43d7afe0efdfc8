// Package platform defines the capability interface implemented by each
// supported chat surface, plus a registry for path-based dispatch.
//
// Every platform implements signature verification and normalization.
// Preprocessing, inline-binary extraction, and postprocessing are
// optional capabilities discovered through interface assertions, so a
// platform only carries the hooks it actually needs.
package platform

import (
	"context"
	"net/http"

	"github.com/chatrouter/chatrouter/internal/message"
)

// Request carries one inbound webhook request. RawBody is the exact
// byte stream the sender signed; verifiers must operate on it directly,
// never on a re-serialized copy.
type Request struct {
	RawBody []byte
	Header  http.Header
}

// HeaderValue returns a header value, or empty string if absent.
func (r Request) HeaderValue(name string) string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get(name)
}

// ShortCircuit is an early response issued before normalization, such
// as a verification-challenge answer or a failed existence check.
type ShortCircuit struct {
	StatusCode int
	Body       any
}

// Platform is the capability set every chat surface must provide.
//
// VerifySignature reports whether the request is authentic; platforms
// with no configured secret return true (verification bypass).
// Normalize converts the raw payload into a canonical message; ok=false
// means "not a message" and is a success outcome, not an error, because
// providers retry aggressively on non-2xx responses.
type Platform interface {
	Name() message.Platform
	VerifySignature(req Request) bool
	Normalize(body []byte) (message.Message, bool)
}

// PreProcessor runs before normalization and may answer the request
// outright. Returning a nil ShortCircuit continues the pipeline; an
// error aborts it.
type PreProcessor interface {
	PreProcess(ctx context.Context, body []byte) (*ShortCircuit, error)
}

// BinaryCarrier extracts an inline binary payload from the raw body.
// data is base64-encoded; extension may be empty.
type BinaryCarrier interface {
	InlineBinary(body []byte) (data string, extension string, ok bool)
}

// PostProcessor runs after the message is durably persisted. Failures
// are logged and swallowed by the orchestrator; they never flip an
// already-successful response.
type PostProcessor interface {
	PostProcess(ctx context.Context, msg message.Message, body []byte) error
}
