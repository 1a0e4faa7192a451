package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/brewdesk/pkg/models"
)

// Resolver returns the base URL of the REST collaborator.
type Resolver interface {
	BaseURL(ctx context.Context) string
}

// StaticURL is a Resolver that always returns itself.
type StaticURL string

func (u StaticURL) BaseURL(context.Context) string { return string(u) }

// Client talks to the REST collaborator. Staff calls take the bearer token
// explicitly so one Client serves every tab.
type Client struct {
	resolver Resolver
	http     *http.Client
	logger   *zap.Logger
}

func NewClient(resolver Resolver, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		resolver: resolver,
		http:     &http.Client{Timeout: timeout},
		logger:   logger.Named("api"),
	}
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) url(ctx context.Context, path string) string {
	return strings.TrimRight(c.resolver.BaseURL(ctx), "/") + path
}

func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader, contentType string, out any) error {
	op := method + " " + path

	req, err := http.NewRequestWithContext(ctx, method, c.url(ctx, path), body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Request failed", zap.String("op", op), zap.Error(err))
		return &models.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &models.NetworkError{Op: op, Err: err}
	}

	c.logger.Debug("Request completed",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &models.APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := decode(raw, out); err != nil {
		return &models.APIError{StatusCode: http.StatusBadGateway, Message: fmt.Sprintf("%s: malformed response: %v", op, err)}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, token, body, contentType, out)
}

func errorMessage(status int, raw []byte) string {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && !strings.HasPrefix(text, "{") && len(text) < 256 {
		return text
	}
	return http.StatusText(status)
}

// decode accepts both a bare payload and one wrapped in {"data": ...}.
func decode(raw []byte, out any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Data) > 0 && !bytes.Equal(envelope.Data, []byte("null")) {
			return json.Unmarshal(envelope.Data, out)
		}
	}
	return json.Unmarshal(trimmed, out)
}

// Ping reports whether the collaborator answers at all. Any HTTP response
// counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, "/tables", "", nil, "", nil)
	var netErr *models.NetworkError
	if errors.As(err, &netErr) {
		return err
	}
	return nil
}
