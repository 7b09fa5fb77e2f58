package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bunko-dev/bunko/internal/engine"
)

type fakeEngine struct {
	search      func(query string, page, perPage int) (engine.SearchResult, error)
	searchInDoc func(query, docID string, page, perPage int) (engine.DocumentSearchResult, error)
	listEntries []engine.CatalogEntry
	listErr     error
	lastPage    int
	lastPerPage int
	lastQuery   string
	lastDocID   string
}

func (f *fakeEngine) Search(_ context.Context, query string, page, perPage int) (engine.SearchResult, error) {
	f.lastQuery, f.lastPage, f.lastPerPage = query, page, perPage
	if f.search != nil {
		return f.search(query, page, perPage)
	}
	return engine.SearchResult{Query: query, Page: page, PerPage: perPage, Results: []engine.DocumentResult{}}, nil
}

func (f *fakeEngine) SearchInDocument(_ context.Context, query, docID string, page, perPage int) (engine.DocumentSearchResult, error) {
	f.lastQuery, f.lastDocID, f.lastPage, f.lastPerPage = query, docID, page, perPage
	if f.searchInDoc != nil {
		return f.searchInDoc(query, docID, page, perPage)
	}
	return engine.DocumentSearchResult{Query: query, ID: docID, Title: docID, Page: page, PerPage: perPage, Results: []engine.PageResult{}}, nil
}

func (f *fakeEngine) ListDocuments(_ context.Context) ([]engine.CatalogEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listEntries, nil
}

type fakeResolver struct {
	paths map[string]string
}

func (f *fakeResolver) ResolvePDF(id string) (string, bool, error) {
	p, ok := f.paths[id]
	return p, ok, nil
}

func newTestServer(t *testing.T, cfg Config, eng *fakeEngine, res *fakeResolver) *Server {
	t.Helper()
	if eng == nil {
		eng = &fakeEngine{}
	}
	if res == nil {
		res = &fakeResolver{}
	}
	cfg.Engine = eng
	return NewServer(cfg, res)
}

func get(t *testing.T, srv *Server, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, Config{Token: "secret"}, nil, nil)
	rr := get(t, srv, "/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"ok":true`) {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestSearchPassesParams(t *testing.T) {
	eng := &fakeEngine{}
	srv := newTestServer(t, Config{}, eng, nil)

	rr := get(t, srv, "/api/search?q=brown+fox&page=3&per_page=7")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if eng.lastQuery != "brown fox" || eng.lastPage != 3 || eng.lastPerPage != 7 {
		t.Errorf("params not passed: q=%q page=%d per_page=%d", eng.lastQuery, eng.lastPage, eng.lastPerPage)
	}
}

func TestSearchNonNumericPaginationFallsBack(t *testing.T) {
	eng := &fakeEngine{}
	srv := newTestServer(t, Config{}, eng, nil)

	rr := get(t, srv, "/api/search?q=x&page=abc&per_page=much")
	if rr.Code != http.StatusOK {
		t.Fatalf("pagination garbage must not be an error, got %d", rr.Code)
	}
	if eng.lastPage != 1 || eng.lastPerPage != engine.DefaultPerPage {
		t.Errorf("defaults not applied: page=%d per_page=%d", eng.lastPage, eng.lastPerPage)
	}
}

func TestSearchStoreFailureIs500(t *testing.T) {
	eng := &fakeEngine{
		search: func(string, int, int) (engine.SearchResult, error) {
			return engine.SearchResult{}, errors.New("database is locked")
		},
	}
	srv := newTestServer(t, Config{}, eng, nil)

	rr := get(t, srv, "/api/search?q=x")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp apiErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if resp.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q", resp.Error.Code)
	}
}

func TestSearchInDocumentRequiresID(t *testing.T) {
	srv := newTestServer(t, Config{}, nil, nil)
	rr := get(t, srv, "/api/search/document?q=x")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestSearchInDocumentPassesID(t *testing.T) {
	eng := &fakeEngine{}
	srv := newTestServer(t, Config{}, eng, nil)

	rr := get(t, srv, "/api/search/document?q=x&id=doc-42")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if eng.lastDocID != "doc-42" {
		t.Errorf("docID = %q", eng.lastDocID)
	}
}

func TestListDocuments(t *testing.T) {
	eng := &fakeEngine{listEntries: []engine.CatalogEntry{
		{ID: "a", Title: "Alpha", PageCount: 3, ThumbnailURL: "/thumbnails/a.png"},
	}}
	srv := newTestServer(t, Config{}, eng, nil)

	rr := get(t, srv, "/api/documents")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `"thumbnail_url":"/thumbnails/a.png"`) {
		t.Errorf("body = %q", body)
	}
}

func TestAuthRequiredWhenTokenSet(t *testing.T) {
	srv := newTestServer(t, Config{Token: "secret"}, nil, nil)

	for _, url := range []string{"/api/documents", "/api/search?q=x", "/api/search/document?q=x&id=a", "/pdf/a", "/thumbnails/a.png"} {
		rr := get(t, srv, url)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", url, rr.Code)
		}
	}
}

func TestAuthAcceptsBearerAndQueryToken(t *testing.T) {
	srv := newTestServer(t, Config{Token: "secret"}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("bearer token: status = %d", rr.Code)
	}

	rr = get(t, srv, "/api/documents?token=secret")
	if rr.Code != http.StatusOK {
		t.Errorf("query token: status = %d", rr.Code)
	}

	rr = get(t, srv, "/api/documents?token=wrong")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d", rr.Code)
	}
}

func TestServePDF(t *testing.T) {
	corpus := t.TempDir()
	if err := os.WriteFile(filepath.Join(corpus, "report.pdf"), []byte("%PDF-1.4 payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := &fakeResolver{paths: map[string]string{"doc-1": "report.pdf"}}
	srv := newTestServer(t, Config{CorpusDir: corpus}, nil, res)

	rr := get(t, srv, "/pdf/doc-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "payload") {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestServePDFUnknownID(t *testing.T) {
	srv := newTestServer(t, Config{CorpusDir: t.TempDir()}, nil, &fakeResolver{})
	rr := get(t, srv, "/pdf/ghost")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestServePDFRejectsTraversal(t *testing.T) {
	corpus := t.TempDir()
	res := &fakeResolver{paths: map[string]string{"evil": "../../etc/passwd.pdf"}}
	srv := newTestServer(t, Config{CorpusDir: corpus}, nil, res)

	rr := get(t, srv, "/pdf/evil")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("traversal must 404, got %d", rr.Code)
	}
}

func TestServeThumbnailRejectsBadName(t *testing.T) {
	srv := newTestServer(t, Config{ThumbsDir: t.TempDir()}, nil, nil)

	rr := get(t, srv, "/thumbnails/a.jpg")
	if rr.Code != http.StatusNotFound {
		t.Errorf("wrong extension: status = %d, want 404", rr.Code)
	}

	// Path traversal never reaches the filesystem.
	rr = get(t, srv, "/thumbnails/..%2F..%2Fsecret.png")
	if rr.Code == http.StatusOK {
		t.Errorf("traversal served: status = %d", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, Config{}, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/search", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	eng := &fakeEngine{
		search: func(string, int, int) (engine.SearchResult, error) {
			panic("handler bug")
		},
	}
	srv := newTestServer(t, Config{}, eng, nil)

	rr := get(t, srv, "/api/search?q=x")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("panic should become 500, got %d", rr.Code)
	}
}
