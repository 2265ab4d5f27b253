// ABOUTME: MCP tool handlers for launching and inspecting PhantomBuster agents
// ABOUTME: Maps upstream results and failures into MCP tool result envelopes

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389/phantom-gateway/internal/phantombuster"
)

// resultLocatorFields are the agent record fields checked, in order, for a
// result location by phantom_results.
var resultLocatorFields = []string{"resultUrl", "jsonUrl", "csvUrl", "s3Folder"}

// LaunchInput is the input for phantom_launch.
type LaunchInput struct {
	AgentID  string         `json:"agentId" jsonschema:"ID of the PhantomBuster agent to launch"`
	Argument map[string]any `json:"argument,omitempty" jsonschema:"Launch argument passed to the agent"`
	Manual   bool           `json:"manual,omitempty" jsonschema:"Launch in manual mode (default false)"`
}

// StatusInput is the input for phantom_status.
type StatusInput struct {
	AgentID string `json:"agentId" jsonschema:"ID of the PhantomBuster agent to inspect"`
}

// ResultsInput is the input for phantom_results.
type ResultsInput struct {
	AgentID string `json:"agentId" jsonschema:"ID of the PhantomBuster agent to fetch results for"`
	Raw     bool   `json:"raw,omitempty" jsonschema:"Return only the result location without fetching it (default false)"`
}

// ListInput is the input for phantom_list. It has no fields.
type ListInput struct{}

// toolset holds the shared collaborators for all handlers.
type toolset struct {
	client *phantombuster.Client
	logger *slog.Logger
}

// NewServer creates the MCP server with all four PhantomBuster tools
// registered. The returned server holds no per-request state and is shared
// read-only across all inbound requests.
func NewServer(client *phantombuster.Client, logger *slog.Logger) *mcp.Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "phantombuster",
		Version: "1.0.0",
	}, nil)

	Register(srv, client, logger)
	return srv
}

// Register adds the PhantomBuster tools to srv.
func Register(srv *mcp.Server, client *phantombuster.Client, logger *slog.Logger) {
	t := &toolset{client: client, logger: logger}

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "phantom_launch",
		Description: "Launch a PhantomBuster agent by ID, optionally with a launch argument",
	}, t.launch)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "phantom_status",
		Description: "Fetch the current record of a PhantomBuster agent, including its run status",
	}, t.status)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "phantom_results",
		Description: "Resolve and fetch the most recent results of a PhantomBuster agent",
	}, t.results)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "phantom_list",
		Description: "List all PhantomBuster agents in the caller's organization",
	}, t.list)
}

func (t *toolset) launch(ctx context.Context, _ *mcp.CallToolRequest, in LaunchInput) (*mcp.CallToolResult, any, error) {
	requestID := uuid.New().String()

	if strings.TrimSpace(in.AgentID) == "" {
		return errorResult("agentId is required"), nil, nil
	}

	body := map[string]any{
		"id":     in.AgentID,
		"manual": in.Manual,
	}
	if in.Argument != nil {
		body["argument"] = in.Argument
	}

	resp, err := t.client.Post(ctx, "/agents/launch", body)
	if err != nil {
		t.logger.Warn("phantom_launch failed", "request_id", requestID, "agent_id", in.AgentID, "error", err)
		return errorResult(err.Error()), nil, nil
	}

	t.logger.Info("phantom_launch", "request_id", requestID, "agent_id", in.AgentID)
	return textResult(fmt.Sprintf("Launched agent %s\n%s", in.AgentID, prettyJSON(resp))), nil, nil
}

func (t *toolset) status(ctx context.Context, _ *mcp.CallToolRequest, in StatusInput) (*mcp.CallToolResult, any, error) {
	requestID := uuid.New().String()

	if strings.TrimSpace(in.AgentID) == "" {
		return errorResult("agentId is required"), nil, nil
	}

	record, err := t.client.Get(ctx, "/agents/fetch", url.Values{"id": {in.AgentID}})
	if err != nil {
		t.logger.Warn("phantom_status failed", "request_id", requestID, "agent_id", in.AgentID, "error", err)
		return errorResult(err.Error()), nil, nil
	}

	t.logger.Info("phantom_status", "request_id", requestID, "agent_id", in.AgentID)
	return textResult(fmt.Sprintf("Agent %s\n%s", in.AgentID, prettyJSON(record))), nil, nil
}

func (t *toolset) results(ctx context.Context, _ *mcp.CallToolRequest, in ResultsInput) (*mcp.CallToolResult, any, error) {
	requestID := uuid.New().String()

	if strings.TrimSpace(in.AgentID) == "" {
		return errorResult("agentId is required"), nil, nil
	}

	record, err := t.client.Get(ctx, "/agents/fetch", url.Values{"id": {in.AgentID}})
	if err != nil {
		t.logger.Warn("phantom_results failed", "request_id", requestID, "agent_id", in.AgentID, "error", err)
		return errorResult(err.Error()), nil, nil
	}

	locator := resolveResultLocator(record)
	if locator == "" {
		return errorResult(fmt.Sprintf("no result location found for agent %s", in.AgentID)), nil, nil
	}

	if in.Raw {
		t.logger.Info("phantom_results", "request_id", requestID, "agent_id", in.AgentID, "raw", true)
		return textResult(fmt.Sprintf("Agent %s results at %s", in.AgentID, locator)), nil, nil
	}

	// Fetching the result payload is best-effort: a failure here is logged
	// and the results section is left empty rather than failing the call.
	var resultsText string
	payload, err := t.client.FetchURL(ctx, locator)
	if err != nil {
		t.logger.Warn("fetching result payload failed",
			"request_id", requestID,
			"agent_id", in.AgentID,
			"locator", locator,
			"error", err,
		)
	} else {
		resultsText = prettyJSON(payload)
	}

	t.logger.Info("phantom_results", "request_id", requestID, "agent_id", in.AgentID)
	return textResult(fmt.Sprintf("Agent %s results at %s\n%s", in.AgentID, locator, resultsText)), nil, nil
}

func (t *toolset) list(ctx context.Context, _ *mcp.CallToolRequest, _ ListInput) (*mcp.CallToolResult, any, error) {
	requestID := uuid.New().String()

	resp, err := t.client.Get(ctx, "/agents/fetch-all", nil)
	if err != nil {
		t.logger.Warn("phantom_list failed", "request_id", requestID, "error", err)
		return errorResult(err.Error()), nil, nil
	}

	count := "unknown"
	if agents, ok := resp.([]any); ok {
		count = strconv.Itoa(len(agents))
	}

	t.logger.Info("phantom_list", "request_id", requestID, "count", count)
	return textResult(fmt.Sprintf("Found %s agents\n%s", count, prettyJSON(resp))), nil, nil
}

// resolveResultLocator finds the first non-empty result location field on an
// agent record. Returns "" when the record carries none (or is not a record).
func resolveResultLocator(record any) string {
	fields, ok := record.(map[string]any)
	if !ok {
		return ""
	}
	for _, name := range resultLocatorFields {
		if value, ok := fields[name].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

// textResult wraps a text block in a successful tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult wraps a message in an error-shaped tool result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
		IsError: true,
	}
}

// prettyJSON renders a decoded payload for human consumption.
func prettyJSON(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(encoded)
}
