// Package web exposes the query engine over HTTP: the catalog listing, the
// two search operations, and the raw PDF/thumbnail byte streams consumed by
// the viewer.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/bunko-dev/bunko/internal/engine"
	"github.com/bunko-dev/bunko/internal/logging"
)

// Config defines runtime options for the web server.
type Config struct {
	ListenAddr string
	Token      string // bearer token; empty disables auth (local use)
	CorpusDir  string // served under /pdf/
	ThumbsDir  string // served under /thumbnails/
	Engine     QueryEngine
}

// QueryEngine is the engine surface the handlers need.
type QueryEngine interface {
	Search(ctx context.Context, query string, page, perPage int) (engine.SearchResult, error)
	SearchInDocument(ctx context.Context, query, docID string, page, perPage int) (engine.DocumentSearchResult, error)
	ListDocuments(ctx context.Context) ([]engine.CatalogEntry, error)
}

// DocumentResolver maps a document id back to its corpus file. Implemented
// by the engine's store; split out so handler tests can fake it.
type DocumentResolver interface {
	ResolvePDF(id string) (string, bool, error)
}

// Server wraps the HTTP server for bunko.
type Server struct {
	cfg        Config
	httpServer *http.Server
	engine     QueryEngine
	resolver   DocumentResolver
	baseCtx    context.Context
	cancelBase context.CancelFunc
}

// NewServer creates a web server with all routes and middleware wired.
func NewServer(cfg Config, resolver DocumentResolver) *Server {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:8430"
	}

	s := &Server{
		cfg:      cfg,
		engine:   cfg.Engine,
		resolver: resolver,
	}
	s.baseCtx, s.cancelBase = context.WithCancel(context.Background())

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/documents", s.handleListDocuments)
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/search/document", s.handleSearchInDocument)
	mux.HandleFunc("/pdf/", s.handlePDF)
	mux.HandleFunc("/thumbnails/", s.handleThumbnail)

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           withRecover(mux),
		BaseContext:       func(_ net.Listener) context.Context { return s.baseCtx },
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the configured HTTP handler (used by tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server and blocks until shutdown or error.
// Returns nil on graceful shutdown.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancelBase != nil {
		s.cancelBase()
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.ForComponent(logging.CompWeb).Error("panic",
					slog.String("recover", fmt.Sprintf("%v", rec)),
					slog.String("path", r.URL.Path))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiErrorResponse{
		Error: apiError{
			Code:    code,
			Message: message,
		},
	})
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiErrorResponse struct {
	Error apiError `json:"error"`
}
