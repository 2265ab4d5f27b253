// ABOUTME: End-to-end tests for the MCP endpoint
// ABOUTME: Covers the 401 contract, credential isolation, and failure envelopes

package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/phantom-gateway/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, upstreamURL string) *httptest.Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.PhantomBuster.APIKey = "startup-check-key"
	cfg.PhantomBuster.BaseURL = upstreamURL
	cfg.Server.HTTPAddr = ":0"

	s, err := New(cfg, discardLogger())
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// headerTransport injects an Authorization header on every request.
type headerTransport struct {
	token string
}

func (h *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	cloned.Header.Set("Authorization", "Bearer "+h.token)
	return http.DefaultTransport.RoundTrip(cloned)
}

func connectClient(t *testing.T, ctx context.Context, endpoint, token string) *mcp.ClientSession {
	t.Helper()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint:   endpoint + "/mcp",
		HTTPClient: &http.Client{Transport: &headerTransport{token: token}},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content should be text")
	return text.Text
}

func TestMissingAuthorization(t *testing.T) {
	var upstreamCalls atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls.Add(1)
	}))
	defer upstream.Close()

	ts := newTestServer(t, upstream.URL)

	resp, err := http.Post(ts.URL+"/mcp", "application/json",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t,
		`{"jsonrpc":"2.0","error":{"code":401,"message":"Missing Authorization API key"},"id":null}`,
		string(body))

	assert.Equal(t, int64(0), upstreamCalls.Load(), "no upstream call may happen for rejected requests")
}

func TestListTools(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer upstream.Close()

	ts := newTestServer(t, upstream.URL)
	ctx := context.Background()

	session := connectClient(t, ctx, ts.URL, "pb-key")

	listed, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range listed.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t,
		[]string{"phantom_launch", "phantom_status", "phantom_results", "phantom_list"},
		names)
}

func TestCallTool_UsesCallerKey(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id":"agent-1","receivedKey":%q}`, r.Header.Get("X-Phantombuster-Key-1"))
	}))
	defer upstream.Close()

	ts := newTestServer(t, upstream.URL)
	ctx := context.Background()

	session := connectClient(t, ctx, ts.URL, "caller-key-1")

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "phantom_status",
		Arguments: map[string]any{"agentId": "agent-1"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError, "call failed: %s", callText(t, res))

	// The upstream must have seen the caller's key, not the startup key.
	assert.Contains(t, callText(t, res), "caller-key-1")
	assert.NotContains(t, callText(t, res), "startup-check-key")
}

// TestConcurrentCredentialIsolation drives many concurrent MCP sessions with
// distinct bearer tokens against an upstream that echoes the key header it
// received. Each caller's response must contain exactly its own token.
func TestConcurrentCredentialIsolation(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"receivedKey":%q}`, r.Header.Get("X-Phantombuster-Key-1"))
	}))
	defer upstream.Close()

	ts := newTestServer(t, upstream.URL)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := fmt.Sprintf("caller-key-%d", i)

			client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
			session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
				Endpoint:   ts.URL + "/mcp",
				HTTPClient: &http.Client{Transport: &headerTransport{token: token}},
			}, nil)
			if err != nil {
				t.Errorf("session %d: connect: %v", i, err)
				return
			}
			defer session.Close()

			res, err := session.CallTool(ctx, &mcp.CallToolParams{
				Name:      "phantom_status",
				Arguments: map[string]any{"agentId": fmt.Sprintf("agent-%d", i)},
			})
			if err != nil {
				t.Errorf("session %d: call: %v", i, err)
				return
			}
			if res.IsError {
				t.Errorf("session %d: tool error", i)
				return
			}
			text, ok := res.Content[0].(*mcp.TextContent)
			if !ok {
				t.Errorf("session %d: unexpected content %T", i, res.Content[0])
				return
			}
			if !strings.Contains(text.Text, fmt.Sprintf("%q", token)) {
				t.Errorf("session %d: response does not carry own key: %s", i, text.Text)
			}
			for j := 0; j < n; j++ {
				other := fmt.Sprintf("caller-key-%d", j)
				if other != token && strings.Contains(text.Text, fmt.Sprintf("%q", other)) {
					t.Errorf("session %d: response leaked key %s", i, other)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestUpstreamFailureBecomesToolError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"error":"phantom execution backlog full"}`)
	}))
	defer upstream.Close()

	ts := newTestServer(t, upstream.URL)
	ctx := context.Background()

	session := connectClient(t, ctx, ts.URL, "pb-key")

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "phantom_list",
		Arguments: map[string]any{},
	})
	require.NoError(t, err, "upstream failures surface inside the envelope, not as protocol errors")
	assert.True(t, res.IsError)
	assert.Equal(t, "phantom execution backlog full", callText(t, res))
}

func TestHealth(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer upstream.Close()

	ts := newTestServer(t, upstream.URL)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRecoverMiddleware_PanicBeforeWrite(t *testing.T) {
	s := &Server{logger: discardLogger()}

	handler := s.recoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t,
		`{"jsonrpc":"2.0","error":{"code":-32603,"message":"Internal server error"},"id":null}`,
		rec.Body.String())
}

func TestRecoverMiddleware_PanicAfterWrite(t *testing.T) {
	s := &Server{logger: discardLogger()}

	handler := s.recoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "partial")
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// Nothing further may be written once a response has started.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partial", rec.Body.String())
}
