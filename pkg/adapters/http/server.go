package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/pageflow"
	"github.com/aretw0/pageflow/internal/logging"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/navigation"
	"github.com/aretw0/pageflow/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes headless navigation sessions over HTTP.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	static  fs.FS
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStatic serves the site files at the root path.
func WithStatic(fsys fs.FS) Option {
	return func(s *Server) {
		s.static = fsys
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithStreams shares a StreamManager, typically the one registered as the
// manager's event sink.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server over the session manager.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		Sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}
	return s
}

// NewHandler is a shortcut for NewServer(...).Handler().
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(sessions, opts...).Handler()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/pages", s.ListPages)
		r.Get("/pages/{id}/fragment", s.GetFragment)

		r.Get("/sessions", s.ListSessions)
		r.Post("/sessions", s.StartSession)
		r.Route("/sessions/{sessionId}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/navigate", s.Navigate)
			r.Post("/back", s.Back)
			r.Post("/forward", s.Forward)
			r.Get("/events", s.SubscribeEvents)
		})
	})

	if s.static != nil {
		r.Handle("/*", http.FileServer(http.FS(s.static)))
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := LoadSpec(r.Context()); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	} else if err != nil {
		s.logger.Error("failed to load OpenAPI spec", "err", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "pageflow-http",
		"version":     strings.TrimSpace(pageflow.Version),
		"api_version": apiVersion,
	})
}

type pageResponse struct {
	ID       domain.PageID `json:"id"`
	Location string        `json:"location"`
	Title    string        `json:"title"`
	Cached   bool          `json:"cached"`
}

// ListPages handles the GET /api/pages request.
func (s *Server) ListPages(w http.ResponseWriter, r *http.Request) {
	pages := s.Sessions.Registry().Pages()
	resp := make([]pageResponse, 0, len(pages))
	for _, p := range pages {
		_, cached := s.Sessions.Cache().Get(p.ID)
		resp = append(resp, pageResponse{ID: p.ID, Location: p.Location, Title: p.Title, Cached: cached})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetFragment handles the GET /api/pages/{id}/fragment request.
func (s *Server) GetFragment(w http.ResponseWriter, r *http.Request) {
	id := domain.PageID(chi.URLParam(r, "id"))
	if _, err := s.Sessions.Registry().Resolve(id); err != nil {
		s.writeError(w, err)
		return
	}

	fragment, err := s.Sessions.Cache().Load(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, fragment)
}

// ListSessions handles the GET /api/sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// StartSession handles the POST /api/sessions request.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Location string `json:"location"`
	}
	if err := decodeOptional(r, &body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("StartSession: invalid request body", "err", err)
		return
	}

	view, err := s.Sessions.Start(r.Context(), body.Location)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newViewResponse(view))
}

// GetSession handles the GET /api/sessions/{sessionId} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.Sessions.Get(r.Context(), chi.URLParam(r, "sessionId"))
	s.respond(w, view, err)
}

// DeleteSession handles the DELETE /api/sessions/{sessionId} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.Streams.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

// Navigate handles the POST /api/sessions/{sessionId}/navigate request.
func (s *Server) Navigate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Target string `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Target) == "" {
		http.Error(w, "Invalid request body: target is required", http.StatusBadRequest)
		s.logger.Warn("Navigate: invalid request body", "err", err)
		return
	}

	view, err := s.Sessions.Navigate(r.Context(), chi.URLParam(r, "sessionId"), strings.TrimSpace(body.Target))
	s.respond(w, view, err)
}

// Back handles the POST /api/sessions/{sessionId}/back request.
func (s *Server) Back(w http.ResponseWriter, r *http.Request) {
	view, err := s.Sessions.Back(r.Context(), chi.URLParam(r, "sessionId"))
	s.respond(w, view, err)
}

// Forward handles the POST /api/sessions/{sessionId}/forward request.
func (s *Server) Forward(w http.ResponseWriter, r *http.Request) {
	view, err := s.Sessions.Forward(r.Context(), chi.URLParam(r, "sessionId"))
	s.respond(w, view, err)
}

// SubscribeEvents handles the GET /api/sessions/{sessionId}/events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if _, err := s.Sessions.Get(r.Context(), sessionID); err != nil {
		s.writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()
	s.logger.Debug("SSE: client subscribed", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE: client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}

// -- Helpers --

type resultResponse struct {
	navigation.Result
	Error string `json:"error,omitempty"`
}

type viewResponse struct {
	Session *domain.Snapshot `json:"session"`
	Content string           `json:"content"`
	Result  *resultResponse  `json:"result,omitempty"`
}

func newViewResponse(v session.View) viewResponse {
	resp := viewResponse{Session: v.Session, Content: v.Content}
	if v.Result != nil {
		resp.Result = &resultResponse{Result: *v.Result}
		if v.Result.Err != nil {
			resp.Result.Error = v.Result.Err.Error()
		}
	}
	return resp
}

func (s *Server) respond(w http.ResponseWriter, view session.View, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newViewResponse(view))
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	var (
		unknown *domain.UnknownPageError
		load    *domain.FragmentLoadError
	)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.As(err, &unknown):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled):
		return 499
	case errors.As(err, &load):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeOptional decodes a JSON body, accepting an empty one.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
