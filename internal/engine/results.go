package engine

// Result records are explicit structs rather than ad hoc maps so a missing
// field is a compile error, not a silently absent JSON key.

// DocumentResult is one grouped-query row.
type DocumentResult struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	HitCount int    `json:"hit_count"`
}

// SearchResult is the grouped-query response.
type SearchResult struct {
	Query      string           `json:"query"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	Total      int              `json:"total"`
	TotalPages int              `json:"total_pages"`
	Count      int              `json:"count"`
	Results    []DocumentResult `json:"results"`
}

// PageResult is one detail-query row. The snippet wraps the matched span in
// the snippet package's sentinel markers.
type PageResult struct {
	Page     int    `json:"page"`
	HitCount int    `json:"hit_count"`
	Snippet  string `json:"snippet"`
}

// DocumentSearchResult is the detail-query response.
type DocumentSearchResult struct {
	Query      string       `json:"query"`
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Page       int          `json:"page"`
	PerPage    int          `json:"per_page"`
	Total      int          `json:"total"`
	TotalPages int          `json:"total_pages"`
	Count      int          `json:"count"`
	Results    []PageResult `json:"results"`
}

// CatalogEntry is one catalog listing row.
type CatalogEntry struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	PageCount    int    `json:"page_count"`
	Broken       bool   `json:"broken"`
	ThumbnailURL string `json:"thumbnail_url"`
}
