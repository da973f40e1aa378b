// Package fs provides file-based corpus walking and output writing for the
// extraction pipeline.
package fs

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fwojciec/docsift"
)

// Mirror subdirectories holding the two capture variants.
const (
	rawDir      = "raw"
	renderedDir = "rendered"
)

// Ensure Walker implements docsift.CorpusWalker at compile time.
var _ docsift.CorpusWalker = (*Walker)(nil)

// Walker walks a mirror directory of captured HTML files. For each logical
// URL it picks one physical document, preferring the rendered variant over
// the raw one. Pages are yielded in sorted relative-path order so runs over
// an unchanged corpus are deterministic.
type Walker struct {
	mirrorDir string
	logger    *slog.Logger
}

// NewWalker creates a Walker over mirrorDir. logger may be nil.
func NewWalker(mirrorDir string, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{mirrorDir: mirrorDir, logger: logger}
}

type corpusFile struct {
	path     string
	rendered bool
}

// Walk yields every corpus page to fn.
func (w *Walker) Walk(ctx context.Context, fn func(page *docsift.CorpusPage, err error) error) error {
	files := make(map[string]corpusFile)

	// Raw first so rendered overrides on the same relative path.
	for rel, p := range collectHTML(filepath.Join(w.mirrorDir, rawDir)) {
		files[rel] = corpusFile{path: p}
	}
	for rel, p := range collectHTML(filepath.Join(w.mirrorDir, renderedDir)) {
		files[rel] = corpusFile{path: p, rendered: true}
	}

	rels := make([]string, 0, len(files))
	rendered := 0
	for rel, f := range files {
		rels = append(rels, rel)
		if f.rendered {
			rendered++
		}
	}
	sort.Strings(rels)

	w.logger.Info("corpus scan complete",
		"files", len(rels),
		"rendered", rendered,
		"raw", len(rels)-rendered,
	)

	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			return err
		}

		f := files[rel]
		page := &docsift.CorpusPage{
			URL:      reconstructURL(rel),
			Path:     f.path,
			Rendered: f.rendered,
		}

		data, err := os.ReadFile(f.path)
		if err != nil {
			if cbErr := fn(page, err); cbErr != nil {
				return cbErr
			}
			continue
		}
		page.HTML = string(data)

		if err := fn(page, nil); err != nil {
			return err
		}
	}

	return nil
}

// collectHTML maps relative slash paths to absolute paths for every .html
// file under root. A missing root yields an empty map.
func collectHTML(root string) map[string]string {
	out := make(map[string]string)
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		out[filepath.ToSlash(rel)] = p
		return nil
	})
	return out
}

// reconstructURL rebuilds a page's logical URL from its mirror path: the
// directory holding the capture is the URL path. The extractor prefers the
// document's canonical link when one exists.
func reconstructURL(rel string) string {
	dir := path.Dir(rel)
	if dir == "." {
		dir = strings.TrimSuffix(rel, path.Ext(rel))
	}
	return "https://" + dir
}
