// ABOUTME: HTTP client for the PhantomBuster REST API
// ABOUTME: Reads the caller's key from the request context on every call

package phantombuster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/2389/phantom-gateway/internal/auth"
)

const (
	// keyHeader is the header PhantomBuster expects the API key in.
	keyHeader = "X-Phantombuster-Key-1"

	// requestTimeout bounds every outbound call.
	requestTimeout = 60 * time.Second
)

// Client talks to the PhantomBuster REST API. It is safe for concurrent use;
// the per-caller API key comes from the request context, never from the
// client itself.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the API at baseURL. An empty baseURL uses
// the public endpoint; trailing slashes are stripped.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.phantombuster.com/api/v2"
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

// Get issues an authenticated GET to path with the given query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (any, error) {
	return c.do(ctx, http.MethodGet, path, nil, query)
}

// Post issues an authenticated POST to path with body serialized as JSON.
func (c *Client) Post(ctx context.Context, path string, body map[string]any) (any, error) {
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// do performs one authenticated call and returns the decoded response body
// verbatim. The payload shape is opaque here; handlers interpret it.
func (c *Client) do(ctx context.Context, method, path string, body map[string]any, query url.Values) (any, error) {
	key := auth.FromContext(ctx)
	if key == "" {
		c.logger.Warn("outbound call without bound API key",
			"method", method,
			"path", path,
		)
		return nil, ErrNoCredential
	}

	callURL := c.baseURL + path
	if len(query) > 0 {
		callURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	// Outbound calls are not tied to the inbound request's cancellation;
	// they run to completion or hit the client timeout and the result is
	// discarded. Context values (the key) still flow through.
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), method, callURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set(keyHeader, key)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("PhantomBuster API call",
		"method", method,
		"path", path,
		"key_prefix", keyPrefix(key),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("PhantomBuster API transport error",
			"method", method,
			"path", path,
			"key_prefix", keyPrefix(key),
			"error", err,
		)
		return nil, &APIError{Message: transportMessage(err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Status: resp.StatusCode, Message: transportMessage(err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			Status:  resp.StatusCode,
			Message: upstreamMessage(respBody, resp.StatusCode),
		}
		c.logger.Warn("PhantomBuster API error",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"key_prefix", keyPrefix(key),
			"message", apiErr.Message,
		)
		return nil, apiErr
	}

	return decodeBody(respBody)
}

// FetchURL retrieves an arbitrary result resource (an upstream-provided
// locator) without authentication. JSON payloads are decoded; anything else
// (CSV exports, plain text) is returned as a string.
func (c *Client) FetchURL(ctx context.Context, rawURL string) (any, error) {
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Message: transportMessage(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Status: resp.StatusCode, Message: transportMessage(err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Status:  resp.StatusCode,
			Message: upstreamMessage(body, resp.StatusCode),
		}
	}

	var decoded any
	if json.Unmarshal(body, &decoded) == nil {
		return decoded, nil
	}
	return string(body), nil
}

// decodeBody decodes a successful response body. An empty body is valid and
// decodes to nil.
func decodeBody(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &APIError{Message: fmt.Sprintf("decoding response: %v", err)}
	}
	return decoded, nil
}

// upstreamMessage extracts the best human-readable message from an error
// response body: the upstream "error" field, then "message", then a status
// line, then the fixed fallback.
func upstreamMessage(body []byte, status int) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	if status > 0 {
		return fmt.Sprintf("PhantomBuster API returned status %d", status)
	}
	return fallbackErrorMessage
}

// transportMessage extracts a message from a transport-level error.
func transportMessage(err error) string {
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallbackErrorMessage
}

// keyPrefix returns a short identifying prefix of the key for diagnostics
// without logging the whole secret.
func keyPrefix(key string) string {
	if len(key) <= 6 {
		return key
	}
	return key[:6] + "…"
}
