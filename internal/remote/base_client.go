package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/moonlit-client/internal/logging"
)

const RequestIDHeader = "X-Request-ID"

type BaseClient struct {
	baseURL string
	client  *http.Client
	headers map[string]string
	log     *zap.Logger
}

func NewBaseClient(baseURL string, log *zap.Logger) *BaseClient {
	log = logging.OrNop(log)
	return &BaseClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		headers: make(map[string]string),
		log:     log,
	}
}

func (c *BaseClient) SetHeader(key, value string) {
	c.headers[key] = value
}

func (c *BaseClient) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

// SetHTTPClient swaps the transport, e.g. for an httptest server.
func (c *BaseClient) SetHTTPClient(hc *http.Client) {
	c.client = hc
}

// MakeRequest sends one request and returns the raw body of a 2xx response.
// Any other status becomes an *Error.
func (c *BaseClient) MakeRequest(ctx context.Context, method, endpoint, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.log.Debug("request",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseError(resp.StatusCode, responseBody)
	}
	return responseBody, nil
}

func (c *BaseClient) Get(ctx context.Context, endpoint string) ([]byte, error) {
	return c.MakeRequest(ctx, http.MethodGet, endpoint, "", nil)
}

// PostJSON encodes payload as the request body. A nil payload sends no body.
func (c *BaseClient) PostJSON(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	return c.sendJSON(ctx, http.MethodPost, endpoint, payload)
}

func (c *BaseClient) DeleteJSON(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	return c.sendJSON(ctx, http.MethodDelete, endpoint, payload)
}

func (c *BaseClient) sendJSON(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	if payload == nil {
		return c.MakeRequest(ctx, method, endpoint, "", nil)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.MakeRequest(ctx, method, endpoint, "application/json", bytes.NewReader(b))
}

func decode[T any](body []byte) (T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return out, nil
}
