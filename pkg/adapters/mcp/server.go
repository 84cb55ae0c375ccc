// Package mcp exposes the site and headless navigation sessions as Model Context
// Protocol tools, so that agents can browse the site the way a user would.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/pageflow"
	"github.com/aretw0/pageflow/internal/logging"
	"github.com/aretw0/pageflow/pkg/adapters/html"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// PagesURI is the resource listing the registered pages.
const PagesURI = "pageflow://pages"

// PageInfo describes one registered page.
type PageInfo struct {
	ID       domain.PageID `json:"id" jsonschema_description:"Page identifier"`
	Location string        `json:"location" jsonschema_description:"Resource location of the page document"`
	Title    string        `json:"title" jsonschema_description:"Document title shown while the page is active"`
	Cached   bool          `json:"cached" jsonschema_description:"Whether the page fragment is already cached"`
}

// PagesResponse is the result of list_pages.
type PagesResponse struct {
	Pages []PageInfo `json:"pages"`
}

// FragmentResponse is the result of get_fragment.
type FragmentResponse struct {
	Page    domain.PageID `json:"page"`
	Format  string        `json:"format" jsonschema_description:"html or markdown"`
	Content string        `json:"content"`
}

// SessionResponse aligns with the HTTP API view of a session.
type SessionResponse struct {
	SessionID string        `json:"session_id" jsonschema_description:"Session to pass to navigate, back and forward"`
	Page      domain.PageID `json:"page" jsonschema_description:"Page currently displayed"`
	Title     string        `json:"title"`
	Location  string        `json:"location" jsonschema_description:"URL of the active history entry"`
	Outcome   string        `json:"outcome,omitempty" jsonschema_description:"completed, ignored, fallback, external or restored"`
	Error     string        `json:"error,omitempty"`
	Content   string        `json:"content" jsonschema_description:"Visible content as Markdown"`
}

// Server wraps a session manager and exposes it as an MCP Server.
type Server struct {
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		sessions:  sessions,
		mcpServer: server.NewMCPServer("pageflow-mcp", strings.TrimSpace(pageflow.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

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
	s.mcpServer.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List the pages of the site in navigation order."),
		mcp.WithOutputSchema[PagesResponse](),
	), mcp.NewStructuredToolHandler(s.handleListPages))

	s.mcpServer.AddTool(mcp.NewTool("get_fragment",
		mcp.WithDescription("Get the content of a page without navigating."),
		mcp.WithString("page", mcp.Required(), mcp.Description("Page id, e.g. home or blog")),
		mcp.WithString("format", mcp.Description("html or markdown (default markdown)")),
		mcp.WithOutputSchema[FragmentResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetFragment))

	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Open a browsing session on a page of the site."),
		mcp.WithString("location", mcp.Description("Location to open (default: the landing page)")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleStartSession))

	s.mcpServer.AddTool(mcp.NewTool("navigate",
		mcp.WithDescription("Follow a link or go to a page in a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by start_session")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Page id or link href")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleNavigate))

	s.mcpServer.AddTool(mcp.NewTool("back",
		mcp.WithDescription("Go back one entry in the session history."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by start_session")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleBack))

	s.mcpServer.AddTool(mcp.NewTool("forward",
		mcp.WithDescription("Go forward one entry in the session history."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by start_session")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleForward))
}

// Handler methods for structured tools

func (s *Server) handleListPages(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PagesResponse, error) {
	return PagesResponse{Pages: s.pages()}, nil
}

func (s *Server) handleGetFragment(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FragmentResponse, error) {
	id, _ := args["page"].(string)
	format, _ := args["format"].(string)
	if format == "" {
		format = "markdown"
	}
	if format != "html" && format != "markdown" {
		return FragmentResponse{}, fmt.Errorf("unsupported format %q", format)
	}

	page := domain.PageID(id)
	if _, err := s.sessions.Registry().Resolve(page); err != nil {
		return FragmentResponse{}, err
	}
	fragment, err := s.sessions.Cache().Load(ctx, page)
	if err != nil {
		return FragmentResponse{}, err
	}

	if format == "markdown" {
		if fragment, err = html.ToMarkdown(fragment); err != nil {
			return FragmentResponse{}, err
		}
	}
	return FragmentResponse{Page: page, Format: format, Content: fragment}, nil
}

func (s *Server) handleStartSession(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	location, _ := args["location"].(string)
	view, err := s.sessions.Start(ctx, location)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return s.respond(view), nil
}

func (s *Server) handleNavigate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	id, _ := args["session_id"].(string)
	target, _ := args["target"].(string)
	if strings.TrimSpace(target) == "" {
		return SessionResponse{}, fmt.Errorf("target is required")
	}

	view, err := s.sessions.Navigate(ctx, id, strings.TrimSpace(target))
	if err != nil {
		return SessionResponse{}, fmt.Errorf("navigate failed: %w", err)
	}
	return s.respond(view), nil
}

func (s *Server) handleBack(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	id, _ := args["session_id"].(string)
	view, err := s.sessions.Back(ctx, id)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("back failed: %w", err)
	}
	return s.respond(view), nil
}

func (s *Server) handleForward(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	id, _ := args["session_id"].(string)
	view, err := s.sessions.Forward(ctx, id)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("forward failed: %w", err)
	}
	return s.respond(view), nil
}

func (s *Server) respond(view session.View) SessionResponse {
	resp := SessionResponse{
		SessionID: view.Session.SessionID,
		Page:      view.Session.CurrentPage,
		Title:     view.Session.Title,
		Location:  view.Session.Location(),
	}
	if view.Result != nil {
		resp.Outcome = string(view.Result.Outcome)
		if view.Result.Err != nil {
			resp.Error = view.Result.Err.Error()
		}
	}
	if view.Content != "" {
		md, err := html.ToMarkdown(view.Content)
		if err != nil {
			s.logger.Warn("MCP: markdown conversion failed, returning html", "page", resp.Page, "err", err)
			md = view.Content
		}
		resp.Content = md
	}
	return resp
}

func (s *Server) pages() []PageInfo {
	pages := s.sessions.Registry().Pages()
	out := make([]PageInfo, 0, len(pages))
	for _, p := range pages {
		_, cached := s.sessions.Cache().Get(p.ID)
		out = append(out, PageInfo{ID: p.ID, Location: p.Location, Title: p.Title, Cached: cached})
	}
	return out
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(PagesURI, "Site pages",
		mcp.WithResourceDescription("Registered pages in navigation order"),
		mcp.WithMIMEType("application/json"),
	), s.readPages)
}

func (s *Server) readPages(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(s.pages())
	if err != nil {
		return nil, fmt.Errorf("failed to encode pages: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      PagesURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
