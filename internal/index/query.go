package index

import (
	"fmt"
	"strings"
)

// Matching is conjunctive substring search: a page matches when its folded
// text contains every folded query token. instr() on the folded column gives
// exact substring semantics for both word and phrase tokens; callers fold
// tokens with token.FoldAll before querying.

// matchClause builds "instr(folded, ?) > 0 AND ..." for n tokens and the
// matching args slice.
func matchClause(folded []string) (string, []any) {
	conds := make([]string, len(folded))
	args := make([]any, len(folded))
	for i, t := range folded {
		conds[i] = "instr(folded, ?) > 0"
		args[i] = t
	}
	return strings.Join(conds, " AND "), args
}

// CountMatchingDocuments returns the number of documents with at least one
// page matching all tokens.
func (s *Store) CountMatchingDocuments(folded []string) (int, error) {
	if len(folded) == 0 {
		return 0, nil
	}
	where, args := matchClause(folded)
	var count int
	err := s.db.QueryRow(fmt.Sprintf(`
		SELECT COUNT(*) FROM (
			SELECT document_id FROM pages WHERE %s GROUP BY document_id
		)
	`, where), args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("index: count matching documents: %w", err)
	}
	return count, nil
}

// ListMatchingDocuments returns one row per matching document, ordered by
// matching-page count descending, id ascending for determinism.
func (s *Store) ListMatchingDocuments(folded []string, offset, limit int) ([]DocumentHits, error) {
	if len(folded) == 0 {
		return nil, nil
	}
	where, args := matchClause(folded)
	args = append(args, limit, offset)

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT p.document_id, d.title, COUNT(*) AS hit_count
		FROM pages p
		JOIN documents d ON d.id = p.document_id
		WHERE %s
		GROUP BY p.document_id, d.title
		ORDER BY hit_count DESC, p.document_id ASC
		LIMIT ? OFFSET ?
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("index: list matching documents: %w", err)
	}
	defer rows.Close()

	var result []DocumentHits
	for rows.Next() {
		var h DocumentHits
		if err := rows.Scan(&h.ID, &h.Title, &h.HitCount); err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

// CountMatchingPages returns the number of pages of one document matching
// all tokens.
func (s *Store) CountMatchingPages(docID string, folded []string) (int, error) {
	if len(folded) == 0 {
		return 0, nil
	}
	where, args := matchClause(folded)
	args = append([]any{docID}, args...)

	var count int
	err := s.db.QueryRow(fmt.Sprintf(`
		SELECT COUNT(*) FROM pages WHERE document_id = ? AND %s
	`, where), args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("index: count matching pages: %w", err)
	}
	return count, nil
}

// ListMatchingPages returns matching pages of one document in page order.
// HitCount is the total number of token occurrences on the page; Text
// carries the page content for snippet building.
func (s *Store) ListMatchingPages(docID string, folded []string, offset, limit int) ([]PageHit, error) {
	if len(folded) == 0 {
		return nil, nil
	}
	where, args := matchClause(folded)
	args = append([]any{docID}, args...)
	args = append(args, limit, offset)

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT page, content, folded FROM pages
		WHERE document_id = ? AND %s
		ORDER BY page ASC
		LIMIT ? OFFSET ?
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("index: list matching pages: %w", err)
	}
	defer rows.Close()

	var result []PageHit
	for rows.Next() {
		var h PageHit
		var foldedText string
		if err := rows.Scan(&h.Page, &h.Text, &foldedText); err != nil {
			return nil, err
		}
		for _, t := range folded {
			h.HitCount += strings.Count(foldedText, t)
		}
		result = append(result, h)
	}
	return result, rows.Err()
}
