// Package search provides ports.SearchGateway implementations: a client for
// a web-search tool exposed over MCP, and a caching decorator.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aretw0/wayfarer/pkg/domain"
)

// DefaultTool is the tool name published by the Tavily MCP server.
const DefaultTool = "tavily-search"

// Transports understood by Dial.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// ToolCaller is the part of an MCP client the gateway needs.
type ToolCaller interface {
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// MCP searches by calling a tool on an MCP server.
type MCP struct {
	caller ToolCaller
	tool   string
}

// NewMCP creates a gateway calling tool through caller. An empty tool name
// uses DefaultTool.
func NewMCP(caller ToolCaller, tool string) *MCP {
	if tool == "" {
		tool = DefaultTool
	}
	return &MCP{caller: caller, tool: tool}
}

// Search calls the tool and parses the hits from its text content.
func (m *MCP) Search(ctx context.Context, query string, cfg domain.SearchConfig) ([]domain.SearchResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = m.tool
	args := map[string]any{"query": query}
	if cfg.MaxResults > 0 {
		args["max_results"] = cfg.MaxResults
	}
	if cfg.SearchDepth != "" {
		args["search_depth"] = cfg.SearchDepth
	}
	if cfg.IncludeAnswer {
		args["include_answer"] = true
	}
	req.Params.Arguments = args

	resp, err := m.caller.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", m.tool, err)
	}
	text := contentText(resp.Content)
	if resp.IsError {
		return nil, fmt.Errorf("%s failed: %s", m.tool, strings.TrimSpace(text))
	}
	results := ParseResults(text)
	if cfg.MaxResults > 0 && len(results) > cfg.MaxResults {
		results = results[:cfg.MaxResults]
	}
	return results, nil
}

func contentText(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

type jsonResults struct {
	Results []domain.SearchResult `json:"results"`
}

var fieldRe = regexp.MustCompile(`(?im)^\s*(title|url|content|score):\s*(.*)$`)

// ParseResults accepts a JSON object with a results array, a bare JSON
// array, or the plain-text block format ("Title: / URL: / Content:") used
// by the Tavily MCP server.
func ParseResults(text string) []domain.SearchResult {
	text = strings.TrimSpace(text)
	var obj jsonResults
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj.Results != nil {
		return compact(obj.Results)
	}
	var arr []domain.SearchResult
	if err := json.Unmarshal([]byte(text), &arr); err == nil {
		return compact(arr)
	}

	var (
		out []domain.SearchResult
		cur *domain.SearchResult
	)
	for _, m := range fieldRe.FindAllStringSubmatch(text, -1) {
		key, value := strings.ToLower(m[1]), strings.TrimSpace(m[2])
		if key == "title" {
			out = append(out, domain.SearchResult{})
			cur = &out[len(out)-1]
		}
		if cur == nil {
			continue
		}
		switch key {
		case "title":
			cur.Title = value
		case "url":
			cur.URL = value
		case "content":
			cur.Content = value
		case "score":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				cur.Score = f
			}
		}
	}
	return compact(out)
}

func compact(rs []domain.SearchResult) []domain.SearchResult {
	out := make([]domain.SearchResult, 0, len(rs))
	for _, r := range rs {
		if r.Title == "" && r.Content == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// DialConfig describes how to reach the MCP search server.
type DialConfig struct {
	Transport string
	Command   string
	Args      []string
	Env       map[string]string
	URL       string
	Headers   map[string]string
	Tool      string
	Timeout   time.Duration
}

// Dial connects and initializes an MCP client. The returned client must be
// closed by the caller.
func Dial(ctx context.Context, cfg DialConfig) (*MCP, *client.Client, error) {
	var (
		c   *client.Client
		err error
	)
	switch cfg.Transport {
	case TransportSSE:
		var opts []transport.ClientOption
		if len(cfg.Headers) > 0 {
			opts = append(opts, transport.WithHeaders(cfg.Headers))
		}
		c, err = client.NewSSEMCPClient(cfg.URL, opts...)
		if err == nil {
			err = c.Start(ctx)
		}
	case TransportStdio, "":
		if cfg.Command == "" {
			return nil, nil, errors.New("search command is required for the stdio transport")
		}
		env := make([]string, 0, len(cfg.Env))
		for k, v := range cfg.Env {
			env = append(env, k+"="+v)
		}
		c, err = client.NewStdioMCPClient(cfg.Command, env, cfg.Args...)
	default:
		return nil, nil, fmt.Errorf("unknown search transport %q", cfg.Transport)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create MCP client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	initCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "wayfarer", Version: "1.0.0"}
	initReq.Params.Capabilities = mcp.ClientCapabilities{}
	if _, err := c.Initialize(initCtx, initReq); err != nil {
		_ = c.Close()
		return nil, nil, fmt.Errorf("failed to initialize MCP client: %w", err)
	}
	return NewMCP(c, cfg.Tool), c, nil
}
