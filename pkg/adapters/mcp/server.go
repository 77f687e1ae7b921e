package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/wayfarer"
	"github.com/aretw0/wayfarer/internal/logging"
	"github.com/aretw0/wayfarer/internal/presentation/graph"
	"github.com/aretw0/wayfarer/pkg/domain"
)

// Resource URIs.
const (
	GraphURI        = "wayfarer://graph"
	GraphMermaidURI = "wayfarer://graph.mmd"
)

// Planner is the part of wayfarer.Planner exposed as MCP tools.
type Planner interface {
	ProcessInput(ctx context.Context, sessionID, text string) (domain.Reply, error)
	Reset(ctx context.Context, sessionID string) (domain.Reply, error)
	Calendar(ctx context.Context, sessionID string) (string, error)
	Graph() domain.GraphExport
}

// PlanTripResponse is the structured result of plan_trip and reset_trip.
type PlanTripResponse struct {
	SessionID string `json:"session_id" jsonschema_description:"Session to pass back on the next call"`
	Reply     string `json:"reply" jsonschema_description:"Text to show the traveler"`
	Searching bool   `json:"is_searching" jsonschema_description:"Send 'continue' next to see the search outcome"`
	Complete  bool   `json:"complete" jsonschema_description:"The plan has been delivered"`
	Node      string `json:"node" jsonschema_description:"Active conversation node"`
}

type planTripArgs struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

// Server exposes the planner as an MCP server.
type Server struct {
	planner   Planner
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(p Planner, opts ...Option) *Server {
	s := &Server{
		planner:   p,
		mcpServer: server.NewMCPServer("wayfarer-mcp", strings.TrimSpace(wayfarer.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	// TOOL: plan_trip
	s.mcpServer.AddTool(mcp.NewTool("plan_trip",
		mcp.WithDescription("Send the traveler's message to the trip planner and get its reply. "+
			"Omit session_id to start a new conversation; reuse the returned one afterwards."),
		mcp.WithString("session_id", mcp.Description("Conversation to continue (optional)")),
		mcp.WithString("message", mcp.Required(), mcp.Description("What the traveler said")),
		mcp.WithOutputSchema[PlanTripResponse](),
	), mcp.NewStructuredToolHandler(s.handlePlanTrip))

	// TOOL: reset_trip
	s.mcpServer.AddTool(mcp.NewTool("reset_trip",
		mcp.WithDescription("Start the conversation of a session over."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation to reset")),
		mcp.WithOutputSchema[PlanTripResponse](),
	), mcp.NewStructuredToolHandler(s.handleReset))

	// TOOL: trip_calendar
	s.mcpServer.AddTool(mcp.NewTool("trip_calendar",
		mcp.WithDescription("Get the finished itinerary as an iCalendar document."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation with a finished plan")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args sessionArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		ics, err := s.planner.Calendar(ctx, args.SessionID)
		if err != nil {
			if errors.Is(err, domain.ErrNoItinerary) {
				return mcp.NewToolResultError("the trip has no itinerary yet"), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("calendar failed: %v", err)), nil
		}
		return mcp.NewToolResultText(ics), nil
	})

	// TOOL: trip_graph
	s.mcpServer.AddTool(mcp.NewTool("trip_graph",
		mcp.WithDescription("Get the planning graph for introspection."),
		mcp.WithString("format", mcp.Description("json (default) or mermaid"), mcp.Enum("json", "mermaid")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if request.GetString("format", "json") == "mermaid" {
			return mcp.NewToolResultText(graph.GenerateMermaid(s.planner.Graph(), nil)), nil
		}
		jsonBytes, err := json.Marshal(s.planner.Graph())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handlePlanTrip(ctx context.Context, _ mcp.CallToolRequest, args planTripArgs) (PlanTripResponse, error) {
	id := args.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	reply, err := s.planner.ProcessInput(ctx, id, args.Message)
	if err != nil {
		s.logger.Warn("MCP plan_trip failed", "session_id", id, "err", err)
		return PlanTripResponse{}, fmt.Errorf("plan_trip failed: %w", err)
	}
	return toResponse(id, reply), nil
}

func (s *Server) handleReset(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (PlanTripResponse, error) {
	reply, err := s.planner.Reset(ctx, args.SessionID)
	if err != nil {
		return PlanTripResponse{}, fmt.Errorf("reset_trip failed: %w", err)
	}
	return toResponse(args.SessionID, reply), nil
}

func toResponse(id string, r domain.Reply) PlanTripResponse {
	return PlanTripResponse{
		SessionID: id,
		Reply:     r.Text,
		Searching: r.Searching,
		Complete:  r.Complete,
		Node:      r.Node,
	}
}

func (s *Server) registerResources() {
	// EXPOSE: wayfarer://graph
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Planning Graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.planner.Graph())
		if err != nil {
			return nil, fmt.Errorf("failed to encode graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	// EXPOSE: wayfarer://graph.mmd
	s.mcpServer.AddResource(mcp.NewResource(GraphMermaidURI, "Planning Graph (Mermaid)",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphMermaidURI,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(s.planner.Graph(), nil),
			},
		}, nil
	})
}
