// Package mcp exposes the render pipeline as a Model Context Protocol server.
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

	"github.com/aretw0/brief"
	"github.com/aretw0/brief/internal/logging"
	"github.com/aretw0/brief/pkg/domain"
	"github.com/aretw0/brief/pkg/ports"
	"github.com/aretw0/brief/pkg/properties"
	"github.com/aretw0/brief/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	propertiesURI = "brief://properties"
	templateURI   = "brief://template"
)

// RenderResponse is the structured result of the render_feedback tool.
type RenderResponse struct {
	SessionID string   `json:"session_id" jsonschema_description:"Session the render belongs to; pass it back to diff against this render"`
	Markdown  string   `json:"markdown,omitempty" jsonschema_description:"Rendered feedback markdown"`
	Appeared  []string `json:"appeared,omitempty" jsonschema_description:"Text of the content that is new since the session's previous render"`
	Error     string   `json:"error,omitempty" jsonschema_description:"Error text displayed instead of the feedback"`
}

// Server wraps a session manager and exposes it as an MCP Server.
type Server struct {
	sessions  *session.Manager
	model     *properties.Model
	store     ports.TemplateStore
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithStore backs the template resource and renders that omit the source.
func WithStore(store ports.TemplateStore) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithProperties sets the model listed by the properties resource.
func WithProperties(model *properties.Model) Option {
	return func(s *Server) {
		s.model = model
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		model:     properties.Default(),
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("brief-mcp", strings.TrimSpace(brief.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. to mount it on another transport.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP protocol over Server-Sent Events on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Handle("/sse", sseServer.SSEHandler())
	r.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{Addr: addr, Handler: r}

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

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	renderTool := mcp.NewTool("render_feedback",
		mcp.WithDescription("Render the feedback template for a set of property values and report which content is new since the session's previous render."),
		mcp.WithString("session_id", mcp.Description("Session to diff against (optional; a new session is created when omitted)")),
		mcp.WithString("source", mcp.Description("Template source (optional; the stored template is used when omitted)")),
		mcp.WithString("values", mcp.Description("JSON object of property values overriding the defaults (optional)")),
		mcp.WithOutputSchema[RenderResponse](),
	)
	s.mcpServer.AddTool(renderTool, mcp.NewStructuredToolHandler(s.handleRender))

	s.mcpServer.AddTool(mcp.NewTool("save_template",
		mcp.WithDescription("Persist a new template source."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Template source")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if s.store == nil {
			return mcp.NewToolResultError("no template store configured"), nil
		}
		source, err := request.RequireString("source")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := s.store.Save(ctx, source); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", err)), nil
		}
		return mcp.NewToolResultText("saved"), nil
	})
}

func (s *Server) handleRender(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RenderResponse, error) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var values map[string]any
	if raw, ok := args["values"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &values); err != nil {
			return RenderResponse{}, fmt.Errorf("values must be a JSON object: %w", err)
		}
	}

	source, err := s.source(ctx, args)
	if err != nil {
		return RenderResponse{}, err
	}

	res, err := s.sessions.Render(ctx, sessionID, source, values)
	if err != nil {
		return RenderResponse{}, fmt.Errorf("render failed: %w", err)
	}

	resp := RenderResponse{SessionID: sessionID}
	if res.Err != nil {
		s.logger.Debug("MCP Render: template failed", "session_id", sessionID, "err", res.Err)
		resp.Error = res.ErrorText
		return resp, nil
	}
	resp.Markdown = res.Markup
	for _, leaf := range res.Appeared {
		resp.Appeared = append(resp.Appeared, leaf.PlainText())
	}
	return resp, nil
}

func (s *Server) source(ctx context.Context, args map[string]interface{}) (string, error) {
	if src, ok := args["source"].(string); ok {
		return src, nil
	}
	if s.store == nil {
		return "", nil
	}
	src, err := s.store.Load(ctx)
	if errors.Is(err, domain.ErrTemplateNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load template: %w", err)
	}
	return src, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(propertiesURI, "Feedback Properties",
		mcp.WithResourceDescription("Properties the template can branch on, in display order"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.model.List())
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      propertiesURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(templateURI, "Feedback Template",
		mcp.WithMIMEType("text/markdown"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		src, err := s.source(ctx, nil)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      templateURI,
				MIMEType: "text/markdown",
				Text:     src,
			},
		}, nil
	})
}
