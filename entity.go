package docsift

// Entity is one extracted record: field name to resolved value. Entities are
// immutable once written to their output partition.
type Entity map[string]Value

// Well-known field names stamped by the extractor.
const (
	FieldSlug         = "slug"
	FieldTitle        = "title"
	FieldCanonicalURL = "canonical_url"
	FieldExtractedAt  = "extracted_at"
	FieldSourceFile   = "source_file"
	FieldContentHash  = "content_hash"

	FieldReviewID           = "review_id"
	FieldReviewedEntityType = "reviewed_entity_type"
	FieldReviewedEntityID   = "reviewed_entity_id"
)

// Page types with special extraction behavior.
const (
	PageTypeBlogPost     = "blog_post"
	PageTypePractitioner = "practitioner"
	PageTypeClinic       = "clinic"
	PageTypeReview       = "review"
)

// PageResult is the outcome of extracting one classified document.
type PageResult struct {
	PageType string
	URL      string
	Entity   Entity
	Reviews  []Entity
}

// PageExtractor classifies a corpus page and extracts its entity and nested
// reviews. Returns ENOTFOUND when no page type matches; such pages are
// skipped, not failed.
type PageExtractor interface {
	ExtractPage(page *CorpusPage) (*PageResult, error)
}
