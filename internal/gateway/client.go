package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davidahmann/agent-platform/internal/tokenstore"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"

	HeaderRequestID = "X-Request-ID"
)

// Request describes one outbound call. Auth asks for the bearer credential
// to be attached when one is stored.
type Request struct {
	Method  string
	Path    string
	Body    []byte
	Headers map[string]string
	Auth    bool
}

// Client is the single choke point for calls to the decision service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     tokenstore.Reader
	Logger     *slog.Logger

	// NewRequestID overrides X-Request-ID generation.
	NewRequestID func() string
}

// NewClient returns a client for baseURL. A zero timeout means no
// client-side timeout.
func NewClient(baseURL string, tokens tokenstore.Reader, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Tokens:     tokens,
	}
}

// Do executes req and normalizes the response. Callers get either the
// payload or an error (*APIError, *TransportError, or a storage error);
// the body is always fully consumed and closed.
func (c *Client) Do(ctx context.Context, req Request) (Payload, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.BaseURL+req.Path, body)
	if err != nil {
		return Payload{}, fmt.Errorf("build request %s %s: %w", method, req.Path, err)
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("Accept", ContentTypeJSON)
	if req.Auth {
		if err := c.applyAuth(httpReq); err != nil {
			return Payload{}, err
		}
	}
	if len(req.Body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", ContentTypeJSON)
	}
	requestID := c.requestID()
	httpReq.Header.Set(HeaderRequestID, requestID)

	start := time.Now()
	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		c.logger().Warn("request failed", "request_id", requestID, "method", method, "path", req.Path, "error", err)
		return Payload{}, &TransportError{Method: method, Path: req.Path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Payload{}, &TransportError{Method: method, Path: req.Path, Err: err}
	}
	payload := Normalize(raw)

	c.logger().Debug("request complete",
		"request_id", requestID,
		"method", method,
		"path", req.Path,
		"status", resp.StatusCode,
		"raw", payload.IsRaw(),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Payload{}, &APIError{
			Status:    resp.StatusCode,
			Message:   errorMessage(resp.StatusCode, payload),
			RequestID: requestID,
			Body:      payload,
		}
	}
	return payload, nil
}

func (c *Client) Get(ctx context.Context, path string, auth bool) (Payload, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Auth: auth})
}

// PostJSON encodes v as the JSON body.
func (c *Client) PostJSON(ctx context.Context, path string, v any, auth bool) (Payload, error) {
	body, err := EncodeJSON(v)
	if err != nil {
		return Payload{}, fmt.Errorf("encode %s body: %w", path, err)
	}
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body, Auth: auth})
}

// PostForm sends an already form-encoded body; no JSON coercion applies.
func (c *Client) PostForm(ctx context.Context, path string, form string) (Payload, error) {
	return c.Do(ctx, Request{
		Method:  http.MethodPost,
		Path:    path,
		Body:    []byte(form),
		Headers: map[string]string{"Content-Type": ContentTypeForm},
	})
}

// EncodeJSON marshals v without HTML escaping and without a trailing newline.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (c *Client) applyAuth(req *http.Request) error {
	if c.Tokens == nil {
		return nil
	}
	token, ok, err := c.Tokens.Get()
	if err != nil {
		return fmt.Errorf("read credential: %w", err)
	}
	if ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

func (c *Client) requestID() string {
	if c.NewRequestID != nil {
		return c.NewRequestID()
	}
	return uuid.NewString()
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}
