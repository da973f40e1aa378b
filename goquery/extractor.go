// Package goquery implements page classification and schema-driven field
// extraction over parsed HTML documents.
package goquery

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/docsift"
)

// Ensure Extractor implements docsift.PageExtractor at compile time.
var _ docsift.PageExtractor = (*Extractor)(nil)

// Extractor classifies a corpus page and extracts its entity fields and
// nested reviews according to the selector schema.
type Extractor struct {
	schemas    *docsift.SchemaSet
	classifier *Classifier
	resolver   *Resolver
	logger     *slog.Logger
}

// NewExtractor creates an Extractor. Successful selector resolutions are
// counted in telemetry; per-field failures are logged and fall back.
func NewExtractor(schemas *docsift.SchemaSet, telemetry *docsift.SelectorTelemetry, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		schemas:    schemas,
		classifier: NewClassifier(schemas),
		resolver:   NewResolver(telemetry),
		logger:     logger,
	}
}

// ExtractPage parses, classifies and extracts one corpus page. It returns
// ENOTFOUND when no page type matches; callers count such pages as skipped.
func (e *Extractor) ExtractPage(page *docsift.CorpusPage) (*docsift.PageResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, docsift.Errorf(docsift.EINVALID, "cannot parse %s: %v", page.Path, err)
	}

	// The canonical link is the authoritative URL; the walker's
	// path-reconstructed URL is the fallback.
	url := page.URL
	if canonical := CanonicalURL(doc.Selection); canonical.Found() {
		url = canonical.Str()
	}

	pageType := e.classifier.Classify(url, doc)
	if pageType == "" {
		return nil, docsift.Errorf(docsift.ENOTFOUND, "no page type matched %s", url)
	}

	entity := e.extractEntity(pageType, doc.Selection, url, page.Path)

	if pageType == docsift.PageTypeBlogPost {
		canonical := url
		if v := entity[docsift.FieldCanonicalURL]; v.Found() && v.Kind() == docsift.KindString {
			canonical = v.Str()
		}
		entity[docsift.FieldSlug] = docsift.String(docsift.DeriveSlug(canonical, entity[docsift.FieldTitle].Str()))
	}

	entity[docsift.FieldExtractedAt] = docsift.String(time.Now().UTC().Format(time.RFC3339))
	entity[docsift.FieldSourceFile] = docsift.String(page.Path)
	entity[docsift.FieldContentHash] = docsift.String(hashContent(page.HTML))

	result := &docsift.PageResult{
		PageType: pageType,
		URL:      url,
		Entity:   entity,
	}

	if pageType == docsift.PageTypePractitioner || pageType == docsift.PageTypeClinic {
		if id, ok := e.primaryID(pageType, entity); ok {
			result.Reviews = e.extractReviews(doc.Selection, id, pageType)
		}
	}

	return result, nil
}

// extractEntity resolves every field declared for the page type. Reserved
// keys are excluded from FieldOrder at schema load.
func (e *Extractor) extractEntity(pageType string, scope *goquery.Selection, url, path string) docsift.Entity {
	page, ok := e.schemas.Page(pageType)
	if !ok {
		return docsift.Entity{}
	}

	entity := make(docsift.Entity, len(page.Fields)+4)
	for _, name := range page.FieldOrder {
		entity[name] = e.resolveField(scope, page.Fields[name], url, name, path)
	}
	return entity
}

// resolveField evaluates one field, catching selector evaluation panics so
// one bad field never aborts the entity. Failed fields get their fallback.
func (e *Extractor) resolveField(scope *goquery.Selection, cfg docsift.FieldConfig, url, name, path string) (v docsift.Value) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("field extraction failed",
				"field", name,
				"source", path,
				"error", fmt.Sprint(r),
			)
			v = cfg.Fallback
		}
	}()
	return e.resolver.Resolve(scope, cfg, url)
}

// primaryID returns the entity's primary identifier when present and
// non-empty. Reviews are only extracted for identified entities.
func (e *Extractor) primaryID(pageType string, entity docsift.Entity) (docsift.Value, bool) {
	schema, ok := e.schemas.Entity(pageType)
	if !ok || schema.PrimaryKey == "" {
		return docsift.Null(), false
	}
	id := entity[schema.PrimaryKey]
	return id, id.Found()
}

// extractReviews resolves the review schema once per container match,
// re-rooting field resolution to each container's subtree.
func (e *Extractor) extractReviews(root *goquery.Selection, entityID docsift.Value, entityType string) []docsift.Entity {
	review, ok := e.schemas.Page(docsift.PageTypeReview)
	if !ok {
		return nil
	}
	container := review.Container
	if container == "" {
		container = "div.review"
	}

	now := time.Now().UTC().Format(time.RFC3339)
	var reviews []docsift.Entity

	root.Find(container).Each(func(i int, sel *goquery.Selection) {
		r := make(docsift.Entity, len(review.Fields)+4)
		r[docsift.FieldReviewedEntityType] = docsift.String(entityType)
		r[docsift.FieldReviewedEntityID] = entityID
		r[docsift.FieldExtractedAt] = docsift.String(now)

		for _, name := range review.FieldOrder {
			// Review fields have no URL context: from_url resolves to null.
			r[name] = e.resolveField(sel, review.Fields[name], "", name, "")
		}

		if !r[docsift.FieldReviewID].Found() {
			r[docsift.FieldReviewID] = docsift.String(fmt.Sprintf("%s_review_%d", valueText(entityID), i))
		}

		reviews = append(reviews, r)
	})

	return reviews
}

// valueText renders a scalar value for use in synthesized identifiers.
func valueText(v docsift.Value) string {
	switch v.Kind() {
	case docsift.KindString:
		return v.Str()
	case docsift.KindInt:
		return strconv.FormatInt(v.Int64(), 10)
	case docsift.KindFloat:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case docsift.KindBool:
		if v.Found() {
			return "true"
		}
		return "false"
	}
	return ""
}

// hashContent computes the xxHash of content as a hex string.
func hashContent(content string) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], xxhash.Sum64String(content))
	return hex.EncodeToString(b[:])
}
