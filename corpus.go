package docsift

import "context"

// CorpusPage is one addressable document of the mirrored corpus.
type CorpusPage struct {
	// URL is the logical URL reconstructed from the mirror path. The
	// extractor prefers the document's canonical link when present.
	URL string

	// Path is the physical source file, kept as provenance.
	Path string

	// HTML is the raw document content.
	HTML string

	// Rendered reports whether the page came from the rendered variant of
	// the mirror rather than the raw capture.
	Rendered bool
}

// CorpusWalker yields corpus pages one at a time. For a logical URL with
// both raw and rendered captures, only the rendered one is yielded. When a
// file cannot be read, fn receives the page (Path only) together with a
// non-nil error so the caller can count it. Returning an error from fn
// stops the walk.
type CorpusWalker interface {
	Walk(ctx context.Context, fn func(page *CorpusPage, err error) error) error
}

// EntityWriter persists extracted entities to per-type output partitions.
type EntityWriter interface {
	WriteEntity(ctx context.Context, entityType string, entity Entity) error
	Close() error
}
