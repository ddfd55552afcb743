package gateway

import (
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// APIError is a non-2xx response. Message comes from the body's detail or
// message field, else "HTTP <status>".
type APIError struct {
	Status    int
	Message   string
	RequestID string
	Body      Payload
}

func (e *APIError) Error() string {
	return e.Message
}

// Unauthorized reports a 401 from the backend.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func errorMessage(status int, payload Payload) string {
	if body, ok := payload.JSON(); ok {
		doc := string(body)
		if msg := messageField(gjson.Get(doc, "detail")); msg != "" {
			return msg
		}
		if msg := messageField(gjson.Get(doc, "message")); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}

// messageField renders a detail/message value. Falsy values yield "" so the
// caller falls through to the next source. Validation error arrays use the
// first entry's msg.
func messageField(field gjson.Result) string {
	if !field.Exists() {
		return ""
	}
	switch field.Type {
	case gjson.String:
		return field.String()
	case gjson.Null, gjson.False:
		return ""
	case gjson.Number:
		if field.Num == 0 {
			return ""
		}
		return field.Raw
	}
	if field.IsArray() {
		if msg := field.Get("0.msg"); msg.Type == gjson.String && msg.String() != "" {
			return msg.String()
		}
	}
	return field.Raw
}
