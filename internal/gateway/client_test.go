package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidahmann/agent-platform/internal/tokenstore"
)

type capturedRequest struct {
	method  string
	path    string
	headers http.Header
	body    string
}

func newCaptureServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.headers = r.Header.Clone()
		captured.body = string(raw)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func TestDoAttachesBearerWhenAuthRequested(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusOK, `{"ok":true}`)
	client := NewClient(server.URL, tokenstore.NewMemoryStore("t1"), 0)

	payload, err := client.Get(context.Background(), "/api/auth/me", true)
	require.NoError(t, err)

	assert.Equal(t, "Bearer t1", captured.headers.Get("Authorization"))
	assert.Equal(t, "application/json", captured.headers.Get("Accept"))
	assert.NotEmpty(t, captured.headers.Get(HeaderRequestID))
	assert.Empty(t, captured.headers.Get("Content-Type"), "no body means no content type")

	raw, ok := payload.JSON()
	require.True(t, ok)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
}

func TestDoSkipsBearerWithoutAuthFlag(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusOK, `{}`)
	client := NewClient(server.URL, tokenstore.NewMemoryStore("t1"), 0)

	_, err := client.Get(context.Background(), "/public", false)
	require.NoError(t, err)
	assert.Empty(t, captured.headers.Get("Authorization"))
}

func TestDoSkipsBearerWhenNoCredential(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusOK, `{}`)
	client := NewClient(server.URL, tokenstore.NewMemoryStore(""), 0)

	_, err := client.Get(context.Background(), "/api/auth/me", true)
	require.NoError(t, err)
	assert.Empty(t, captured.headers.Get("Authorization"))
}

func TestPostJSONDefaultsContentType(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusOK, `{}`)
	client := NewClient(server.URL, nil, 0)

	_, err := client.PostJSON(context.Background(), "/x", map[string]string{"q": "<a&b>"}, false)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "application/json", captured.headers.Get("Content-Type"))
	assert.Equal(t, `{"q":"<a&b>"}`, captured.body)
}

func TestPostFormKeepsFormBodyAndContentType(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusOK, `{"access_token":"t1"}`)
	client := NewClient(server.URL, tokenstore.NewMemoryStore("stale"), 0)

	_, err := client.PostForm(context.Background(), "/api/auth/login", "username=a%40b.c&password=x")
	require.NoError(t, err)

	assert.Equal(t, "application/x-www-form-urlencoded", captured.headers.Get("Content-Type"))
	assert.Equal(t, "username=a%40b.c&password=x", captured.body)
	assert.Empty(t, captured.headers.Get("Authorization"), "form login is never authenticated")
}

func TestDoExplicitHeadersOverrideDefaultContentType(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusOK, `{}`)
	client := NewClient(server.URL, nil, 0)

	_, err := client.Do(context.Background(), Request{
		Method:  http.MethodPost,
		Path:    "/x",
		Body:    []byte("plain"),
		Headers: map[string]string{"Content-Type": "text/plain", "Accept": "text/html"},
	})
	require.NoError(t, err)
	assert.Equal(t, "text/plain", captured.headers.Get("Content-Type"))
	assert.Equal(t, "application/json", captured.headers.Get("Accept"))
}

func TestDoFallsBackToRawText(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusOK, "plain text, not json")
	client := NewClient(server.URL, nil, 0)

	payload, err := client.Get(context.Background(), "/x", false)
	require.NoError(t, err)

	assert.True(t, payload.IsRaw())
	assert.Equal(t, "plain text, not json", payload.Text())

	var v map[string]any
	assert.ErrorIs(t, payload.Decode(&v), ErrRawPayload)
}

func TestDoEmptyBodyDecodesToNull(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusNoContent, "")
	client := NewClient(server.URL, nil, 0)

	payload, err := client.Get(context.Background(), "/x", false)
	require.NoError(t, err)
	assert.True(t, payload.IsNull())
}

func TestDoErrorMessages(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail", http.StatusUnauthorized, `{"detail":"Invalid credentials"}`, "Invalid credentials"},
		{"message", http.StatusBadRequest, `{"message":"bad input"}`, "bad input"},
		{"detail wins", http.StatusConflict, `{"detail":"Email already registered","message":"other"}`, "Email already registered"},
		{"empty detail falls through", http.StatusBadRequest, `{"detail":"","message":"fallback"}`, "fallback"},
		{"validation array", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","question"],"msg":"field required"}]}`, "field required"},
		{"no fields", http.StatusInternalServerError, `{"error":"boom"}`, "HTTP 500"},
		{"raw body", http.StatusBadGateway, "<html>bad gateway</html>", "HTTP 502"},
		{"empty body", http.StatusForbidden, "", "HTTP 403"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server, _ := newCaptureServer(t, tc.status, tc.body)
			client := NewClient(server.URL, nil, 0)

			_, err := client.Get(context.Background(), "/x", false)
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.want, apiErr.Error())
			assert.NotEmpty(t, apiErr.RequestID)
		})
	}
}

func TestDoTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, nil, 0)
	_, err := client.Get(context.Background(), "/api/auth/me", false)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr), "expected TransportError, got %v", err)
	assert.Equal(t, "/api/auth/me", transportErr.Path)
}

type failingReader struct{}

func (failingReader) Get() (string, bool, error) {
	return "", false, tokenstore.ErrStorage
}

func TestDoSurfacesStorageFailure(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusOK, `{}`)
	client := NewClient(server.URL, failingReader{}, 0)

	_, err := client.Get(context.Background(), "/api/auth/me", true)
	assert.ErrorIs(t, err, tokenstore.ErrStorage)
}

func TestDoUsesCustomRequestID(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusOK, `{}`)
	client := NewClient(server.URL+"/", nil, 0)
	client.NewRequestID = func() string { return "req-1" }

	_, err := client.Get(context.Background(), "/x", false)
	require.NoError(t, err)
	assert.Equal(t, "req-1", captured.headers.Get(HeaderRequestID))
	assert.Equal(t, "/x", captured.path, "trailing slash on base URL is trimmed")
}
