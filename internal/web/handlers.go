package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bunko-dev/bunko/internal/engine"
	"github.com/bunko-dev/bunko/internal/logging"
)

var webLog = logging.ForComponent(logging.CompWeb)

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if !s.authorizeRequest(r) {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	entries, err := s.engine.ListDocuments(r.Context())
	if err != nil {
		webLog.Error("list_documents", slog.String("error", err.Error()))
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list documents")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if !s.authorizeRequest(r) {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	q := r.URL.Query().Get("q")
	page := intParam(r, "page", 1)
	perPage := intParam(r, "per_page", engine.DefaultPerPage)

	res, err := s.engine.Search(r.Context(), q, page, perPage)
	if err != nil {
		webLog.Error("search", slog.String("error", err.Error()))
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "search failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSearchInDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if !s.authorizeRequest(r) {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	docID := r.URL.Query().Get("id")
	if docID == "" {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "document id is required")
		return
	}
	q := r.URL.Query().Get("q")
	page := intParam(r, "page", 1)
	perPage := intParam(r, "per_page", engine.DefaultPerPage)

	res, err := s.engine.SearchInDocument(r.Context(), q, docID, page, perPage)
	if err != nil {
		webLog.Error("search_in_document",
			slog.String("id", docID),
			slog.String("error", err.Error()))
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "search failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// intParam parses a numeric query parameter. Non-numeric values fall back to
// the default; the engine clamps out-of-range values. Pagination input is
// never a request error.
func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
