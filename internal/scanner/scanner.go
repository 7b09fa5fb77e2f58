// Package scanner reconciles the index store with the PDF corpus on disk.
package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bunko-dev/bunko/internal/index"
	"github.com/bunko-dev/bunko/internal/logging"
	"github.com/bunko-dev/bunko/internal/pdftext"
)

var scanLog = logging.ForComponent(logging.CompScan)

// extractParallelism bounds concurrent PDF extraction during a sync pass.
// Index writes stay serialized by SQLite's single-writer WAL.
const extractParallelism = 4

// Report summarizes one sync pass.
type Report struct {
	Added   int
	Updated int
	Removed int
	Failed  int
}

func (r Report) String() string {
	return fmt.Sprintf("added=%d updated=%d removed=%d failed=%d",
		r.Added, r.Updated, r.Removed, r.Failed)
}

// Scanner walks the corpus directory and keeps the index store in step with
// it. The index is only ever a snapshot of the corpus; the filesystem is the
// source of truth and all reconciliation runs through here.
type Scanner struct {
	store     *index.Store
	extractor pdftext.Extractor
	root      string
}

// New returns a scanner over the corpus rooted at root.
func New(store *index.Store, extractor pdftext.Extractor, root string) *Scanner {
	return &Scanner{store: store, extractor: extractor, root: root}
}

// DocID derives the stable document id from a corpus-relative path.
func DocID(relPath string) string {
	sum := sha256.Sum256([]byte(relPath))
	return hex.EncodeToString(sum[:8])
}

// Title derives the catalog title from a corpus-relative path.
func Title(relPath string) string {
	base := filepath.Base(relPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type corpusFile struct {
	relPath string
	id      string
	fp      index.Fingerprint
}

// Sync reconciles the store with the corpus. Unchanged files (same mtime and
// size) are skipped; new or changed files are re-extracted and replaced
// transactionally; files gone from disk are deleted from the store. A PDF
// that fails extraction is recorded as a broken document with zero pages so
// the catalog stays consistent with the filesystem; it never aborts the
// pass. Only a walk or store failure aborts.
func (s *Scanner) Sync(ctx context.Context) (Report, error) {
	start := time.Now()

	files, err := s.listCorpus()
	if err != nil {
		return Report{}, err
	}

	known, err := s.store.Fingerprints()
	if err != nil {
		return Report{}, err
	}

	var (
		mu     sync.Mutex
		report Report
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(extractParallelism)

	seen := make(map[string]bool, len(files))
	for _, f := range files {
		seen[f.id] = true
		prior, indexed := known[f.id]
		if indexed && prior == f.fp {
			continue
		}

		f, indexed := f, indexed
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			failed, err := s.indexFile(f)
			if err != nil {
				return err
			}
			mu.Lock()
			switch {
			case failed:
				report.Failed++
			case indexed:
				report.Updated++
			default:
				report.Added++
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	for id := range known {
		if seen[id] {
			continue
		}
		if err := s.store.DeleteDocument(id); err != nil {
			return Report{}, err
		}
		report.Removed++
	}

	scanLog.Info("sync_done",
		slog.String("report", report.String()),
		slog.Duration("took", time.Since(start)))
	return report, nil
}

// listCorpus walks the corpus root and returns every PDF with its change
// fingerprint.
func (s *Scanner) listCorpus() ([]corpusFile, error) {
	var files []corpusFile
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".pdf") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		files = append(files, corpusFile{
			relPath: rel,
			id:      DocID(rel),
			fp: index.Fingerprint{
				MTime: info.ModTime().UnixNano(),
				Size:  info.Size(),
			},
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanner: walk %s: %w", s.root, err)
	}
	return files, nil
}

// indexFile extracts one PDF and replaces its document in the store.
// The returned bool reports whether extraction failed (broken document).
func (s *Scanner) indexFile(f corpusFile) (bool, error) {
	doc := index.Document{
		ID:       f.id,
		Title:    Title(f.relPath),
		FilePath: f.relPath,
		MTime:    f.fp.MTime,
		Size:     f.fp.Size,
	}

	pageTexts, err := s.extractor.Extract(filepath.Join(s.root, f.relPath))
	if err != nil {
		scanLog.Warn("extract_failed",
			slog.String("path", f.relPath),
			slog.String("error", err.Error()))
		doc.Broken = true
		if serr := s.store.ReplaceDocument(doc, nil); serr != nil {
			return false, serr
		}
		return true, nil
	}

	doc.PageCount = len(pageTexts)
	pages := make([]index.Page, 0, len(pageTexts))
	for i, text := range pageTexts {
		pages = append(pages, index.Page{Number: i + 1, Text: pdftext.Clean(text)})
	}
	if err := s.store.ReplaceDocument(doc, pages); err != nil {
		return false, err
	}
	return false, nil
}
