// Package engine executes grouped and per-document full-text queries against
// the index store, with lazy corpus syncing and permissive pagination.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bunko-dev/bunko/internal/index"
	"github.com/bunko-dev/bunko/internal/logging"
	"github.com/bunko-dev/bunko/internal/scanner"
	"github.com/bunko-dev/bunko/internal/snippet"
	"github.com/bunko-dev/bunko/internal/token"
)

var engLog = logging.ForComponent(logging.CompEngine)

// Pagination bounds, matching the HTTP surface's historical limits.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Engine answers catalog and search requests. Each request is a stateless
// read against the store's snapshot at call time; the only cross-request
// state is the sync gate.
type Engine struct {
	store  *index.Store
	gate   *scanner.Gate
	window int
}

// New returns an engine reading from store, syncing through gate.
// window is the snippet context size in runes.
func New(store *index.Store, gate *scanner.Gate, window int) *Engine {
	if window <= 0 {
		window = snippet.DefaultWindow
	}
	return &Engine{store: store, gate: gate, window: window}
}

// Refresh gives the corpus a chance to re-sync (subject to the gate's
// minimum interval). Called on startup prewarm and before serving requests.
func (e *Engine) Refresh(ctx context.Context) bool {
	if e.gate == nil {
		return false
	}
	return e.gate.TrySync(ctx)
}

// Search runs the corpus-wide grouped query: one result row per matching
// document, ordered by matching-page count. An empty or whitespace-only
// query returns an empty result set without touching the store. Pages
// beyond the last are empty results, not errors.
func (e *Engine) Search(ctx context.Context, query string, page, perPage int) (SearchResult, error) {
	page, perPage = clampPage(page), clampPerPage(perPage)
	res := SearchResult{
		Query:   query,
		Page:    page,
		PerPage: perPage,
		Results: []DocumentResult{},
	}

	folded := token.FoldAll(token.Tokenize(query))
	if len(folded) == 0 {
		return res, nil
	}

	e.Refresh(ctx)

	total, err := e.store.CountMatchingDocuments(folded)
	if err != nil {
		return SearchResult{}, fmt.Errorf("engine: search %q: %w", query, err)
	}
	res.Total = total
	res.TotalPages = totalPages(total, perPage)

	rows, err := e.store.ListMatchingDocuments(folded, (page-1)*perPage, perPage)
	if err != nil {
		return SearchResult{}, fmt.Errorf("engine: search %q: %w", query, err)
	}
	for _, r := range rows {
		res.Results = append(res.Results, DocumentResult{
			ID:       r.ID,
			Title:    r.Title,
			HitCount: r.HitCount,
		})
	}
	res.Count = len(res.Results)
	engLog.Debug("search",
		slog.String("query", query),
		slog.Int("total", res.Total))
	return res, nil
}

// SearchInDocument runs the detail query scoped to one document: one result
// row per matching page, in page order, each with a highlighted snippet.
// An unknown document id yields an empty result, not an error: the document
// may have been removed between the listing and this call.
func (e *Engine) SearchInDocument(ctx context.Context, query, docID string, page, perPage int) (DocumentSearchResult, error) {
	page, perPage = clampPage(page), clampPerPage(perPage)
	res := DocumentSearchResult{
		Query:   query,
		ID:      docID,
		Title:   docID,
		Page:    page,
		PerPage: perPage,
		Results: []PageResult{},
	}

	folded := token.FoldAll(token.Tokenize(query))
	if len(folded) == 0 {
		return res, nil
	}

	e.Refresh(ctx)

	doc, ok, err := e.store.GetDocument(docID)
	if err != nil {
		return DocumentSearchResult{}, fmt.Errorf("engine: search in %s: %w", docID, err)
	}
	if !ok {
		return res, nil
	}
	res.Title = doc.Title

	total, err := e.store.CountMatchingPages(docID, folded)
	if err != nil {
		return DocumentSearchResult{}, fmt.Errorf("engine: search in %s: %w", docID, err)
	}
	res.Total = total
	res.TotalPages = totalPages(total, perPage)

	rows, err := e.store.ListMatchingPages(docID, folded, (page-1)*perPage, perPage)
	if err != nil {
		return DocumentSearchResult{}, fmt.Errorf("engine: search in %s: %w", docID, err)
	}
	for _, r := range rows {
		res.Results = append(res.Results, PageResult{
			Page:     r.Page,
			HitCount: r.HitCount,
			Snippet:  snippet.Build(r.Text, folded, e.window),
		})
	}
	res.Count = len(res.Results)
	engLog.Debug("search_in_document",
		slog.String("query", query),
		slog.String("id", docID),
		slog.Int("total", res.Total))
	return res, nil
}

// ListDocuments returns the catalog: every indexed document with its
// page count and thumbnail reference. Thumbnails are generated outside
// bunko; only the reference is produced here.
func (e *Engine) ListDocuments(ctx context.Context) ([]CatalogEntry, error) {
	e.Refresh(ctx)

	docs, err := e.store.ListDocuments()
	if err != nil {
		return nil, fmt.Errorf("engine: list documents: %w", err)
	}

	entries := make([]CatalogEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, CatalogEntry{
			ID:           d.ID,
			Title:        d.Title,
			PageCount:    d.PageCount,
			Broken:       d.Broken,
			ThumbnailURL: fmt.Sprintf("/thumbnails/%s.png", d.ID),
		})
	}
	return entries, nil
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func clampPerPage(perPage int) int {
	switch {
	case perPage < 1:
		return DefaultPerPage
	case perPage > MaxPerPage:
		return MaxPerPage
	}
	return perPage
}

func totalPages(total, perPage int) int {
	if total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
