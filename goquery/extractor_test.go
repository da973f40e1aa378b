package goquery_test

import (
	"regexp"
	"testing"

	"github.com/fwojciec/docsift"
	dsgoquery "github.com/fwojciec/docsift/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractorSchemas() *docsift.SchemaSet {
	return &docsift.SchemaSet{
		Entities: map[string]docsift.EntitySchema{
			docsift.PageTypeBlogPost: {
				Fields: map[string]docsift.FieldSchema{
					"slug":  {Type: docsift.TypeString, Required: true},
					"title": {Type: docsift.TypeString, Required: true},
				},
				FieldOrder: []string{"slug", "title"},
				PrimaryKey: "slug",
			},
			docsift.PageTypePractitioner: {
				Fields: map[string]docsift.FieldSchema{
					"practitioner_id": {Type: docsift.TypeString, Required: true},
					"name":            {Type: docsift.TypeString},
				},
				FieldOrder: []string{"practitioner_id", "name"},
				PrimaryKey: "practitioner_id",
			},
			docsift.PageTypeReview: {
				Fields: map[string]docsift.FieldSchema{
					"review_id": {Type: docsift.TypeString, Required: true},
					"author":    {Type: docsift.TypeString},
					"rating":    {Type: docsift.TypeFloat},
				},
				FieldOrder: []string{"review_id", "author", "rating"},
				PrimaryKey: "review_id",
			},
		},
		EntityTypes: []string{
			docsift.PageTypeBlogPost,
			docsift.PageTypePractitioner,
			docsift.PageTypeReview,
		},
		Pages: map[string]docsift.PageSchema{
			docsift.PageTypeBlogPost: {
				Fields: map[string]docsift.FieldConfig{
					"title": {
						Method:    docsift.MethodText,
						Type:      docsift.TypeString,
						Selectors: []docsift.SelectorSpec{{Selector: "h1"}},
					},
					"canonical_url": {
						Method: docsift.MethodCanonicalURL,
						Type:   docsift.TypeURL,
					},
				},
				FieldOrder: []string{"title", "canonical_url"},
			},
			docsift.PageTypePractitioner: {
				Fields: map[string]docsift.FieldConfig{
					"practitioner_id": {
						Method:  docsift.MethodFromURL,
						Pattern: regexp.MustCompile(`/practitioner/([^/]+)/`),
						Group:   1,
					},
					"name": {
						Method:    docsift.MethodText,
						Type:      docsift.TypeString,
						Selectors: []docsift.SelectorSpec{{Selector: "h1.name"}},
					},
				},
				FieldOrder: []string{"practitioner_id", "name"},
			},
			docsift.PageTypeReview: {
				Container: "div.review-card",
				Fields: map[string]docsift.FieldConfig{
					"author": {
						Method:    docsift.MethodText,
						Type:      docsift.TypeString,
						Selectors: []docsift.SelectorSpec{{Selector: ".author"}},
					},
					"rating": {
						Method:    docsift.MethodText,
						Type:      docsift.TypeFloat,
						Selectors: []docsift.SelectorSpec{{Selector: ".rating"}},
					},
				},
				FieldOrder: []string{"author", "rating"},
			},
		},
		Detection: []docsift.DetectionRule{
			{
				PageType:   docsift.PageTypeBlogPost,
				URLPattern: regexp.MustCompile(`^(?:https?://[^/]+/blog/)`),
			},
			{
				PageType:   docsift.PageTypePractitioner,
				URLPattern: regexp.MustCompile(`^(?:https?://[^/]+/practitioner/)`),
			},
		},
	}
}

func TestExtractor_ExtractPage_BlogPost(t *testing.T) {
	t.Parallel()

	e := dsgoquery.NewExtractor(extractorSchemas(), docsift.NewSelectorTelemetry(), nil)

	result, err := e.ExtractPage(&docsift.CorpusPage{
		URL:  "https://x.com/blog/fallback-url/",
		Path: "mirror/x.com/blog/my-post/index.html",
		HTML: `<html><head><link rel="canonical" href="https://x.com/blog/my-post/"></head>
			<body><h1>My Post</h1></body></html>`,
	})
	require.NoError(t, err)

	assert.Equal(t, docsift.PageTypeBlogPost, result.PageType)
	// The canonical link overrides the walker's URL.
	assert.Equal(t, "https://x.com/blog/my-post/", result.URL)
	assert.Equal(t, "My Post", result.Entity["title"].Str())
	assert.Equal(t, "my-post", result.Entity[docsift.FieldSlug].Str())
	assert.Equal(t, "mirror/x.com/blog/my-post/index.html", result.Entity[docsift.FieldSourceFile].Str())
	assert.NotEmpty(t, result.Entity[docsift.FieldExtractedAt].Str())
	assert.Regexp(t, `^[0-9a-f]{16}$`, result.Entity[docsift.FieldContentHash].Str())
	assert.Empty(t, result.Reviews)
}

func TestExtractor_ExtractPage_Unclassified(t *testing.T) {
	t.Parallel()

	e := dsgoquery.NewExtractor(extractorSchemas(), nil, nil)

	_, err := e.ExtractPage(&docsift.CorpusPage{
		URL:  "https://x.com/about/",
		HTML: `<html><body><h1>About</h1></body></html>`,
	})

	require.Error(t, err)
	assert.Equal(t, docsift.ENOTFOUND, docsift.ErrorCode(err))
}

func TestExtractor_ExtractPage_PractitionerReviews(t *testing.T) {
	t.Parallel()

	e := dsgoquery.NewExtractor(extractorSchemas(), nil, nil)

	result, err := e.ExtractPage(&docsift.CorpusPage{
		URL:  "https://x.com/practitioner/jane-doe/",
		Path: "mirror/x.com/practitioner/jane-doe/index.html",
		HTML: `<html><body>
			<h1 class="name">Dr. Jane Doe</h1>
			<div class="review-card"><span class="author">Alice</span><span class="rating">4.5</span></div>
			<div class="review-card"><span class="author">Bob</span></div>
		</body></html>`,
	})
	require.NoError(t, err)

	assert.Equal(t, docsift.PageTypePractitioner, result.PageType)
	assert.Equal(t, "jane-doe", result.Entity["practitioner_id"].Str())
	assert.Equal(t, "Dr. Jane Doe", result.Entity["name"].Str())

	require.Len(t, result.Reviews, 2)

	first := result.Reviews[0]
	assert.Equal(t, "Alice", first["author"].Str())
	assert.InDelta(t, 4.5, first["rating"].Float64(), 0.0001)
	assert.Equal(t, docsift.PageTypePractitioner, first[docsift.FieldReviewedEntityType].Str())
	assert.Equal(t, "jane-doe", first[docsift.FieldReviewedEntityID].Str())
	assert.Equal(t, "jane-doe_review_0", first[docsift.FieldReviewID].Str())

	second := result.Reviews[1]
	assert.Equal(t, "Bob", second["author"].Str())
	assert.Equal(t, "jane-doe_review_1", second[docsift.FieldReviewID].Str())
}

func TestExtractor_ExtractPage_NoReviewsWithoutPrimaryID(t *testing.T) {
	t.Parallel()

	e := dsgoquery.NewExtractor(extractorSchemas(), nil, nil)

	// URL pattern detection still matches, but the from_url id pattern does
	// not, so the entity has no primary id and reviews are skipped.
	result, err := e.ExtractPage(&docsift.CorpusPage{
		URL:  "https://x.com/practitioner/",
		HTML: `<html><body>
			<div class="review-card"><span class="author">Alice</span></div>
		</body></html>`,
	})
	require.NoError(t, err)

	assert.Empty(t, result.Reviews)
}

func TestExtractor_ExtractPage_BadSelectorFallsBack(t *testing.T) {
	t.Parallel()

	schemas := extractorSchemas()
	page := schemas.Pages[docsift.PageTypeBlogPost]
	page.Fields["title"] = docsift.FieldConfig{
		Method:    docsift.MethodText,
		Type:      docsift.TypeString,
		Selectors: []docsift.SelectorSpec{{Selector: "h1:invalid-pseudo("}},
		Fallback:  docsift.String("untitled"),
	}
	schemas.Pages[docsift.PageTypeBlogPost] = page

	e := dsgoquery.NewExtractor(schemas, nil, nil)

	result, err := e.ExtractPage(&docsift.CorpusPage{
		URL:  "https://x.com/blog/a/",
		HTML: `<html><body><h1>Ignored</h1></body></html>`,
	})
	require.NoError(t, err)

	assert.Equal(t, "untitled", result.Entity["title"].Str())
}
