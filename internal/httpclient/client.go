// Package httpclient is the single request pipeline to the backend: JSON
// codec, bearer-credential injection and the 401 refresh-and-retry path.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"taskclient/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenSource supplies the current normalized bearer credential.
type TokenSource interface {
	Get() (string, bool)
}

// Refresher exchanges the current credential for a new one. The session
// manager implements it; concurrent calls are expected to collapse into a
// single backend request on its side.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	debug   bool

	mu        sync.RWMutex
	refresher Refresher
}

func New(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

// SetDebug enables request/response logging.
func (c *Client) SetDebug(on bool) {
	c.debug = on
}

// SetRefresher wires the session manager in after construction; the two
// depend on each other, so the client is built first.
func (c *Client) SetRefresher(r Refresher) {
	c.mu.Lock()
	c.refresher = r
	c.mu.Unlock()
}

func (c *Client) getRefresher() Refresher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refresher
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// The auth endpoints are never retried through the refresh path: a failing
// login surfaces as-is and a failing refresh must not recurse.
func skipsRetry(path string) bool {
	switch path {
	case "/api/auth/login", "/api/auth/register", "/api/auth/refresh":
		return true
	}
	return false
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	requestID := uuid.New().String()
	token, _ := c.tokens.Get()

	resp, err := c.send(ctx, method, path, query, payload, token, requestID)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && !skipsRetry(path) {
		drain(resp)
		refresher := c.getRefresher()
		if refresher == nil {
			return fmt.Errorf("%w: no refresher configured", ErrAuthentication)
		}

		newToken, err := refresher.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("%w: refresh: %v", ErrAuthentication, err)
		}

		if c.debug {
			logger.Debug("httpclient: replaying after refresh",
				zap.String("request_id", requestID),
				zap.String("method", method),
				zap.String("path", path))
		}

		resp, err = c.send(ctx, method, path, query, payload, newToken, requestID)
		if err != nil {
			return err
		}
		// A second 401 after a successful refresh is terminal.
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			return fmt.Errorf("%w: retry rejected", ErrAuthentication)
		}
	}

	return decode(resp, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, token, requestID string) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", schemePrefix+token)
	}

	if c.debug {
		logger.Debug("httpclient: request",
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("url", u),
			zap.Bool("has_token", token != ""))
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if c.debug {
		logger.Debug("httpclient: response",
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", time.Since(start)))
	}
	return resp, nil
}

const schemePrefix = "Bearer "

func decode(resp *http.Response, out any) error {
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(data) > 0 && json.Unmarshal(data, &body) == nil {
		apiErr.Code = body.Error
		if body.Message != "" {
			apiErr.Message = body.Message
		}
	}
	return apiErr
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
