package web

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
)

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if !s.authorizeRequest(r) {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/pdf/")
	if id == "" || strings.Contains(id, "/") {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "document not found")
		return
	}

	relPath, ok, err := s.resolver.ResolvePDF(id)
	if err != nil {
		webLog.Error("resolve_pdf", slog.String("id", id), slog.String("error", err.Error()))
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to resolve document")
		return
	}
	if !ok {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "document not found")
		return
	}

	path, ok := safeJoin(s.cfg.CorpusDir, relPath, ".pdf")
	if !ok {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "document not found")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, path)
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if !s.authorizeRequest(r) {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/thumbnails/")
	if name == "" || strings.Contains(name, "/") {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "thumbnail not found")
		return
	}

	path, ok := safeJoin(s.cfg.ThumbsDir, name, ".png")
	if !ok {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "thumbnail not found")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}

// safeJoin resolves name under baseDir, rejecting traversal outside it and
// names without the expected extension.
func safeJoin(baseDir, name, ext string) (string, bool) {
	if !strings.EqualFold(filepath.Ext(name), ext) {
		return "", false
	}

	base, err := filepath.Abs(baseDir)
	if err != nil {
		return "", false
	}
	path, err := filepath.Abs(filepath.Join(base, name))
	if err != nil {
		return "", false
	}
	if path == base || !strings.HasPrefix(path, base+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}
