package index

import (
	"fmt"
	"time"

	"github.com/bunko-dev/bunko/internal/token"
)

// ReplaceDocument atomically replaces a document and all of its pages.
// Readers observe either the previous state of the document or the new one,
// never a mix. Pages with empty text are not indexed.
func (s *Store) ReplaceDocument(doc Document, pages []Page) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("index: begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Pages are deleted explicitly: the foreign_keys pragma is
	// per-connection and the sql pool hands out several, so CASCADE
	// cannot be relied on.
	if _, err := tx.Exec("DELETE FROM pages WHERE document_id = ?", doc.ID); err != nil {
		return fmt.Errorf("index: clear pages %s: %w", doc.ID, err)
	}
	if _, err := tx.Exec("DELETE FROM documents WHERE id = ?", doc.ID); err != nil {
		return fmt.Errorf("index: clear document %s: %w", doc.ID, err)
	}

	broken := 0
	if doc.Broken {
		broken = 1
	}
	indexedAt := doc.IndexedAt
	if indexedAt.IsZero() {
		indexedAt = time.Now()
	}
	if _, err := tx.Exec(`
		INSERT INTO documents (id, title, file_path, mtime, size, page_count, broken, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Title, doc.FilePath, doc.MTime, doc.Size, doc.PageCount, broken, indexedAt.Unix()); err != nil {
		return fmt.Errorf("index: insert document %s: %w", doc.ID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO pages (document_id, page, content, folded)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare pages: %w", err)
	}
	defer stmt.Close()

	for _, p := range pages {
		if p.Text == "" {
			continue
		}
		if _, err := stmt.Exec(doc.ID, p.Number, p.Text, token.Fold(p.Text)); err != nil {
			return fmt.Errorf("index: insert page %s/%d: %w", doc.ID, p.Number, err)
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document and all of its pages atomically.
func (s *Store) DeleteDocument(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("index: begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM pages WHERE document_id = ?", id); err != nil {
		return fmt.Errorf("index: delete pages %s: %w", id, err)
	}
	if _, err := tx.Exec("DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("index: delete document %s: %w", id, err)
	}
	return tx.Commit()
}

// Fingerprints returns the change detection key of every indexed document,
// keyed by id. The scanner compares these against the filesystem.
func (s *Store) Fingerprints() (map[string]Fingerprint, error) {
	rows, err := s.db.Query("SELECT id, mtime, size FROM documents")
	if err != nil {
		return nil, fmt.Errorf("index: fingerprints: %w", err)
	}
	defer rows.Close()

	result := make(map[string]Fingerprint)
	for rows.Next() {
		var id string
		var fp Fingerprint
		if err := rows.Scan(&id, &fp.MTime, &fp.Size); err != nil {
			return nil, err
		}
		result[id] = fp
	}
	return result, rows.Err()
}

// ListDocuments returns every document ordered by title, id.
func (s *Store) ListDocuments() ([]Document, error) {
	rows, err := s.db.Query(`
		SELECT id, title, file_path, mtime, size, page_count, broken, indexed_at
		FROM documents ORDER BY title, id
	`)
	if err != nil {
		return nil, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var result []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	return result, rows.Err()
}

// GetDocument returns the document with the given id, and whether it exists.
func (s *Store) GetDocument(id string) (Document, bool, error) {
	rows, err := s.db.Query(`
		SELECT id, title, file_path, mtime, size, page_count, broken, indexed_at
		FROM documents WHERE id = ?
	`, id)
	if err != nil {
		return Document{}, false, fmt.Errorf("index: get document %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return Document{}, false, rows.Err()
	}
	doc, err := scanDocument(rows)
	if err != nil {
		return Document{}, false, err
	}
	return doc, true, nil
}

// ResolvePDF maps a document id to its corpus-relative file path.
func (s *Store) ResolvePDF(id string) (string, bool, error) {
	doc, ok, err := s.GetDocument(id)
	if err != nil || !ok {
		return "", false, err
	}
	return doc.FilePath, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(r rowScanner) (Document, error) {
	var doc Document
	var broken int
	var indexedUnix int64
	if err := r.Scan(&doc.ID, &doc.Title, &doc.FilePath, &doc.MTime, &doc.Size,
		&doc.PageCount, &broken, &indexedUnix); err != nil {
		return Document{}, err
	}
	doc.Broken = broken != 0
	doc.IndexedAt = time.Unix(indexedUnix, 0)
	return doc, nil
}
