// Package http exposes the render pipeline over HTTP with chi.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/brief"
	"github.com/aretw0/brief/internal/highlight"
	"github.com/aretw0/brief/internal/logging"
	"github.com/aretw0/brief/internal/presentation/html"
	"github.com/aretw0/brief/pkg/domain"
	"github.com/aretw0/brief/pkg/observability"
	"github.com/aretw0/brief/pkg/ports"
	"github.com/aretw0/brief/pkg/properties"
	"github.com/aretw0/brief/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

//go:generate go tool oapi-codegen -package http -generate types,chi-server -o api.gen.go openapi.yaml

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	Sessions *session.Manager
	Model    *properties.Model
	// Store backs /template and renders without an inline source. Optional.
	Store ports.TemplateStore
	// Metrics enables /metrics. Optional.
	Metrics *observability.Metrics
	Logger  *slog.Logger

	streams *StreamManager
}

// Ensure Server implements ServerInterface
var _ ServerInterface = (*Server)(nil)

// NewHandler creates the HTTP handler, validating requests against the embedded OpenAPI document.
func NewHandler(s *Server) (http.Handler, error) {
	if s.Sessions == nil {
		return nil, errors.New("http: session manager is required")
	}
	if s.Model == nil {
		s.Model = properties.Default()
	}
	if s.Logger == nil {
		s.Logger = logging.NewNop()
	}
	s.streams = NewStreamManager(s.Logger)

	doc, err := LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}
	validate, err := validateRequests(doc)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(enableCORS)
	if s.Metrics != nil {
		r.Use(s.instrument)
	}
	r.Use(validate)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(RawSpec())
	})
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics.Handler())
	}

	return HandlerWithOptions(s, ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			s.Logger.Warn("request parameter rejected", "path", r.URL.Path, "err", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
		},
	}), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// instrument counts requests by matched route pattern and status code.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.Metrics.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := LoadSpec(r.Context()); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "brief-http",
		"version":     strings.TrimSpace(brief.Version),
		"api_version": apiVersion,
	})
}

// Render handles the POST /render request.
// Template and value errors are part of a successful response; the session keeps its previous render.
func (s *Server) Render(w http.ResponseWriter, r *http.Request) {
	var body RenderJSONRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("Render: Invalid request body", "err", err)
		return
	}
	sessionID := uuid.NewString()
	if body.SessionId != nil && *body.SessionId != "" {
		sessionID = *body.SessionId
	}
	var values map[string]any
	if body.Values != nil {
		values = *body.Values
	}

	source, err := s.source(r.Context(), body.Source)
	if err != nil {
		http.Error(w, fmt.Sprintf("Template error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("Render: failed to load template", "err", err)
		return
	}

	res, err := s.Sessions.Render(r.Context(), sessionID, source, values)
	if err != nil {
		http.Error(w, fmt.Sprintf("Session error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("Render: session failed", "session_id", sessionID, "err", err)
		return
	}

	resp := RenderResponse{SessionId: sessionID}
	if res.Err != nil {
		resp.Error = &res.ErrorText
	} else {
		markup := res.Markup
		rendered := html.Render(res.Tree, domain.NewFingerprintSet(res.AppearedFingerprints()...))
		resp.Markdown = &markup
		resp.Html = &rendered
		if len(res.Appeared) > 0 {
			leaves := make([]Leaf, 0, len(res.Appeared))
			for _, leaf := range res.Appeared {
				l := Leaf{Fingerprint: highlight.Fingerprint(leaf).String(), Tag: leaf.Tag}
				if text := leaf.PlainText(); text != "" {
					l.Text = &text
				}
				leaves = append(leaves, l)
			}
			resp.Appeared = &leaves
		}
	}

	if payload, err := json.Marshal(resp); err == nil {
		s.streams.Broadcast(sessionID, string(payload))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) source(ctx context.Context, inline *string) (string, error) {
	if inline != nil {
		return *inline, nil
	}
	if s.Store == nil {
		return "", nil
	}
	src, err := s.Store.Load(ctx)
	if errors.Is(err, domain.ErrTemplateNotFound) {
		return "", nil
	}
	return src, err
}

// ListProperties handles the GET /properties request.
func (s *Server) ListProperties(w http.ResponseWriter, r *http.Request) {
	defs := s.Model.List()
	out := make([]Property, 0, len(defs))
	for _, def := range defs {
		p := Property{Id: def.ID, Name: def.DisplayName, Kind: PropertyKind(def.Kind)}
		if len(def.Values) > 0 {
			p.Values = &def.Values
		}
		if len(def.Dependencies) > 0 {
			p.Dependencies = &def.Dependencies
		}
		out = append(out, p)
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GetTemplate handles the GET /template request.
func (s *Server) GetTemplate(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "No template store configured", http.StatusNotFound)
		return
	}
	src, err := s.Store.Load(r.Context())
	if errors.Is(err, domain.ErrTemplateNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("GetTemplate failed", "err", err)
		return
	}
	s.writeJSON(w, http.StatusOK, Template{Source: src})
}

// PutTemplate handles the PUT /template request.
func (s *Server) PutTemplate(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "No template store configured", http.StatusNotImplemented)
		return
	}
	var body PutTemplateJSONRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.Store.Save(r.Context(), body.Source); err != nil {
		http.Error(w, fmt.Sprintf("Save error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("PutTemplate failed", "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteSession handles the DELETE /sessions/{sessionId} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request, sessionId string) {
	err := s.Sessions.Delete(r.Context(), sessionId)
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubscribeEvents handles the GET /events request (SSE).
// With session_id it streams that session's render responses; without it, template changes.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, params SubscribeEventsParams) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var events <-chan string
	if params.SessionId != nil && *params.SessionId != "" {
		ch, cancel := s.streams.Subscribe(*params.SessionId)
		defer cancel()
		events = ch
	} else {
		watchable, ok := s.Store.(ports.Watchable)
		if !ok {
			http.Error(w, "Template store does not support watching", http.StatusNotImplemented)
			return
		}
		changes, err := watchable.Watch(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusInternalServerError)
			return
		}
		events = relay(r.Context(), changes)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func relay(ctx context.Context, changes <-chan struct{}) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				select {
				case out <- domain.TemplateKey:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
