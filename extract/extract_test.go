package extract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/docsift"
	"github.com/fwojciec/docsift/extract"
	"github.com/fwojciec/docsift/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runnerSchemas() *docsift.SchemaSet {
	return &docsift.SchemaSet{
		Entities: map[string]docsift.EntitySchema{
			docsift.PageTypeBlogPost: {PrimaryKey: "slug"},
			docsift.PageTypeReview:   {PrimaryKey: "review_id"},
		},
		EntityTypes: []string{docsift.PageTypeBlogPost, docsift.PageTypeReview},
	}
}

// walkerOf yields the given pages in order, with no read errors.
func walkerOf(pages ...*docsift.CorpusPage) *mock.CorpusWalker {
	return &mock.CorpusWalker{
		WalkFn: func(ctx context.Context, fn func(page *docsift.CorpusPage, err error) error) error {
			for _, p := range pages {
				if err := fn(p, nil); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// captureWriter records every written entity by type.
func captureWriter() (*mock.EntityWriter, map[string][]docsift.Entity) {
	written := make(map[string][]docsift.Entity)
	w := &mock.EntityWriter{
		WriteEntityFn: func(ctx context.Context, entityType string, entity docsift.Entity) error {
			written[entityType] = append(written[entityType], entity)
			return nil
		},
		CloseFn: func() error { return nil },
	}
	return w, written
}

func blogResult(slug, url string) *docsift.PageResult {
	return &docsift.PageResult{
		PageType: docsift.PageTypeBlogPost,
		URL:      url,
		Entity: docsift.Entity{
			docsift.FieldSlug:         docsift.String(slug),
			docsift.FieldCanonicalURL: docsift.String(url),
		},
	}
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	t.Run("writes entities and counts by type", func(t *testing.T) {
		t.Parallel()

		w, written := captureWriter()
		r := &extract.Runner{
			Schemas: runnerSchemas(),
			Corpus:  walkerOf(&docsift.CorpusPage{Path: "a"}, &docsift.CorpusPage{Path: "b"}),
			Extractor: &mock.PageExtractor{
				ExtractPageFn: func(page *docsift.CorpusPage) (*docsift.PageResult, error) {
					return blogResult("post-"+page.Path, "https://x.com/blog/"+page.Path+"/"), nil
				},
			},
			Writer: w,
		}

		stats, err := r.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 2, stats.Total)
		assert.Equal(t, 2, stats.Processed)
		assert.Zero(t, stats.Skipped)
		assert.Zero(t, stats.Errors)
		assert.Equal(t, 2, stats.ByType[docsift.PageTypeBlogPost])
		assert.Len(t, written[docsift.PageTypeBlogPost], 2)
		assert.NotEmpty(t, stats.RunID)
	})

	t.Run("unreadable pages are skipped", func(t *testing.T) {
		t.Parallel()

		w, _ := captureWriter()
		r := &extract.Runner{
			Schemas: runnerSchemas(),
			Corpus: &mock.CorpusWalker{
				WalkFn: func(ctx context.Context, fn func(page *docsift.CorpusPage, err error) error) error {
					return fn(&docsift.CorpusPage{Path: "broken"}, errors.New("permission denied"))
				},
			},
			Extractor: &mock.PageExtractor{
				ExtractPageFn: func(page *docsift.CorpusPage) (*docsift.PageResult, error) {
					t.Fatal("extractor should not run for unreadable pages")
					return nil, nil
				},
			},
			Writer: w,
		}

		stats, err := r.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, stats.Total)
		assert.Equal(t, 1, stats.Skipped)
		assert.Zero(t, stats.Processed)
	})

	t.Run("unclassified pages are skipped, failures counted", func(t *testing.T) {
		t.Parallel()

		w, _ := captureWriter()
		r := &extract.Runner{
			Schemas: runnerSchemas(),
			Corpus:  walkerOf(&docsift.CorpusPage{Path: "a"}, &docsift.CorpusPage{Path: "b"}),
			Extractor: &mock.PageExtractor{
				ExtractPageFn: func(page *docsift.CorpusPage) (*docsift.PageResult, error) {
					if page.Path == "a" {
						return nil, docsift.Errorf(docsift.ENOTFOUND, "no page type matched")
					}
					return nil, docsift.Errorf(docsift.EINVALID, "broken html")
				},
			},
			Writer: w,
		}

		stats, err := r.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, stats.Skipped)
		assert.Equal(t, 1, stats.Errors)
		assert.Zero(t, stats.Processed)
	})

	t.Run("slug collisions get unique slugs", func(t *testing.T) {
		t.Parallel()

		w, written := captureWriter()
		r := &extract.Runner{
			Schemas: runnerSchemas(),
			Corpus:  walkerOf(&docsift.CorpusPage{Path: "a"}, &docsift.CorpusPage{Path: "b"}),
			Extractor: &mock.PageExtractor{
				ExtractPageFn: func(page *docsift.CorpusPage) (*docsift.PageResult, error) {
					return blogResult("same-slug", "https://x.com/"+page.Path+"/same-slug/"), nil
				},
			},
			Writer: w,
		}

		stats, err := r.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, stats.SlugCollisions)

		posts := written[docsift.PageTypeBlogPost]
		require.Len(t, posts, 2)
		first := posts[0][docsift.FieldSlug].Str()
		second := posts[1][docsift.FieldSlug].Str()
		assert.Equal(t, "same-slug", first)
		assert.NotEqual(t, first, second)
		assert.Regexp(t, `^same-slug-[0-9a-f]{8}$`, second)
	})

	t.Run("reviews are written to their own partition", func(t *testing.T) {
		t.Parallel()

		w, written := captureWriter()
		r := &extract.Runner{
			Schemas: runnerSchemas(),
			Corpus:  walkerOf(&docsift.CorpusPage{Path: "a"}),
			Extractor: &mock.PageExtractor{
				ExtractPageFn: func(page *docsift.CorpusPage) (*docsift.PageResult, error) {
					return &docsift.PageResult{
						PageType: docsift.PageTypePractitioner,
						URL:      "https://x.com/practitioner/jane/",
						Entity: docsift.Entity{
							"practitioner_id": docsift.String("jane"),
						},
						Reviews: []docsift.Entity{
							{docsift.FieldReviewID: docsift.String("jane_review_0")},
							{docsift.FieldReviewID: docsift.String("jane_review_1")},
						},
					}, nil
				},
			},
			Writer: w,
		}

		stats, err := r.Run(context.Background())
		require.NoError(t, err)

		// Practitioner has no entity schema here, so only reviews are written.
		assert.Empty(t, written[docsift.PageTypePractitioner])
		assert.Len(t, written[docsift.PageTypeReview], 2)
		assert.Equal(t, 2, stats.ByType[docsift.PageTypeReview])
		assert.Equal(t, 1, stats.Processed)
	})

	t.Run("write failures are counted as errors", func(t *testing.T) {
		t.Parallel()

		r := &extract.Runner{
			Schemas: runnerSchemas(),
			Corpus:  walkerOf(&docsift.CorpusPage{Path: "a"}),
			Extractor: &mock.PageExtractor{
				ExtractPageFn: func(page *docsift.CorpusPage) (*docsift.PageResult, error) {
					return blogResult("post", "https://x.com/blog/post/"), nil
				},
			},
			Writer: &mock.EntityWriter{
				WriteEntityFn: func(ctx context.Context, entityType string, entity docsift.Entity) error {
					return docsift.Errorf(docsift.EINTERNAL, "disk full")
				},
				CloseFn: func() error { return nil },
			},
		}

		stats, err := r.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, stats.Errors)
		assert.Zero(t, stats.Processed)
	})

	t.Run("walk errors surface with partial stats", func(t *testing.T) {
		t.Parallel()

		w, _ := captureWriter()
		r := &extract.Runner{
			Schemas: runnerSchemas(),
			Corpus: &mock.CorpusWalker{
				WalkFn: func(ctx context.Context, fn func(page *docsift.CorpusPage, err error) error) error {
					return errors.New("mirror unavailable")
				},
			},
			Extractor: &mock.PageExtractor{},
			Writer:    w,
		}

		stats, err := r.Run(context.Background())

		require.Error(t, err)
		require.NotNil(t, stats)
		assert.Zero(t, stats.Total)
	})
}
