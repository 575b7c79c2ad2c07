// Package mcp exposes the engine to MCP clients: assistants can validate
// trigger configurations and fire triggers over stdio or SSE.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/listflow/listflow/internal/compiler"
	"github.com/listflow/listflow/internal/logging"
	"github.com/listflow/listflow/internal/runtime"
	"github.com/listflow/listflow/pkg/domain"
)

// TriggerResponse is the structured result of a run_trigger call.
type TriggerResponse struct {
	Success bool   `json:"success" jsonschema_description:"Whether the trigger sequence completed"`
	Value   any    `json:"value,omitempty" jsonschema_description:"Optional return value of the sequence"`
	Error   string `json:"error,omitempty" jsonschema_description:"Failure description when success is false"`
}

// ValidateResponse is the structured result of a validate_config call.
type ValidateResponse struct {
	Valid    bool     `json:"valid" jsonschema_description:"Whether the configuration parsed"`
	Triggers []string `json:"triggers,omitempty" jsonschema_description:"Trigger kinds the configuration declares"`
	Error    string   `json:"error,omitempty" jsonschema_description:"Parse failure when valid is false"`
}

// Engine is the trigger-execution surface the MCP server exposes.
type Engine interface {
	ExecuteTrigger(ctx context.Context, cfg *domain.Config, kind domain.TriggerKind, inv *runtime.Invocation) domain.Result
}

// Server wraps the engine as an MCP server.
type Server struct {
	engine    Engine
	parser    *compiler.Parser
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates an MCP server around the given engine.
func NewServer(engine Engine, version string, opts ...ServerOption) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("listflow-mcp", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.parser = compiler.NewParser(compiler.WithLogger(s.logger))
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and blocks until
// the context is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))
	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
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
	runTool := mcp.NewTool("run_trigger",
		mcp.WithDescription("Parse a trigger configuration outline and execute one of its triggers."),
		mcp.WithString("config", mcp.Required(), mcp.Description("Bullet-list trigger configuration text")),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Trigger kind to fire (onTrigger, onDone, ...)")),
		mcp.WithString("source_tag", mcp.Description("Tag the configuration belongs to")),
		mcp.WithString("doc_path", mcp.Description("Path of the originating document")),
		mcp.WithString("line", mcp.Description("Originating line text")),
		mcp.WithString("vars", mcp.Description("JSON object of seed variables")),
		mcp.WithOutputSchema[TriggerResponse](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunTrigger))

	validateTool := mcp.NewTool("validate_config",
		mcp.WithDescription("Parse a trigger configuration outline and report its declared triggers."),
		mcp.WithString("config", mcp.Required(), mcp.Description("Bullet-list trigger configuration text")),
		mcp.WithString("source_tag", mcp.Description("Tag the configuration belongs to")),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidateConfig))
}

func (s *Server) handleRunTrigger(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TriggerResponse, error) {
	configText, _ := args["config"].(string)
	kind, _ := args["kind"].(string)
	if !domain.KnownTriggerKind(kind) {
		return TriggerResponse{}, fmt.Errorf("unknown trigger kind %q", kind)
	}

	sourceTag, _ := args["source_tag"].(string)
	cfg, err := s.parser.ParseConfigText(configText, sourceTag)
	if err != nil {
		return TriggerResponse{}, fmt.Errorf("config rejected: %w", err)
	}

	inv := &runtime.Invocation{}
	inv.DocPath, _ = args["doc_path"].(string)
	inv.Line, _ = args["line"].(string)
	if varsStr, ok := args["vars"].(string); ok && varsStr != "" {
		if err := json.Unmarshal([]byte(varsStr), &inv.Vars); err != nil {
			return TriggerResponse{}, fmt.Errorf("vars is not a JSON object: %w", err)
		}
	}

	res := s.engine.ExecuteTrigger(ctx, cfg, domain.TriggerKind(kind), inv)
	resp := TriggerResponse{Success: res.Success, Value: res.Value}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	return resp, nil
}

func (s *Server) handleValidateConfig(_ context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidateResponse, error) {
	configText, _ := args["config"].(string)
	sourceTag, _ := args["source_tag"].(string)

	cfg, err := s.parser.ParseConfigText(configText, sourceTag)
	if err != nil {
		return ValidateResponse{Valid: false, Error: err.Error()}, nil
	}

	kinds := make([]string, 0, len(cfg.Triggers))
	for _, trig := range cfg.Triggers {
		kinds = append(kinds, string(trig.Kind))
	}
	return ValidateResponse{Valid: true, Triggers: kinds}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("listflow://actions", "Supported Action Kinds",
		mcp.WithMIMEType("application/json"),
	), func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(domain.Kinds)
		if err != nil {
			return nil, fmt.Errorf("encoding action kinds: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "listflow://actions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
