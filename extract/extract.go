// Package extract provides the extraction-phase orchestrator. It walks the
// corpus, classifies and extracts each document, allocates unique slugs for
// blog posts, and writes entities to their output partitions.
package extract

import (
	"context"
	"log/slog"

	"github.com/fwojciec/docsift"
	"github.com/google/uuid"
)

// Runner orchestrates one extraction run. The SlugAllocator is the run
// context for slug uniqueness; it must not be shared across runs.
type Runner struct {
	Schemas   *docsift.SchemaSet
	Corpus    docsift.CorpusWalker
	Extractor docsift.PageExtractor
	Writer    docsift.EntityWriter
	Slugs     *docsift.SlugAllocator
	Logger    *slog.Logger
}

// Run processes the whole corpus. Per-document failures are logged and
// counted, never fatal; only a broken walk (or cancellation) returns an
// error. The returned stats are complete even on error.
func (r *Runner) Run(ctx context.Context) (*docsift.RunStats, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if r.Slugs == nil {
		r.Slugs = docsift.NewSlugAllocator()
	}

	stats := &docsift.RunStats{
		RunID:  uuid.New().String(),
		ByType: make(map[string]int),
	}
	logger = logger.With("run_id", stats.RunID)

	walkErr := r.Corpus.Walk(ctx, func(page *docsift.CorpusPage, readErr error) error {
		stats.Total++

		if readErr != nil {
			logger.Warn("unreadable document", "path", page.Path, "error", readErr)
			stats.Skipped++
			return nil
		}

		result, err := r.Extractor.ExtractPage(page)
		if err != nil {
			if docsift.ErrorCode(err) == docsift.ENOTFOUND {
				logger.Debug("no page type detected", "path", page.Path)
				stats.Skipped++
			} else {
				logger.Error("document processing failed", "path", page.Path, "error", err)
				stats.Errors++
			}
			return nil
		}

		if result.PageType == docsift.PageTypeBlogPost {
			r.allocateSlug(result, logger)
		}

		if r.Schemas.HasEntityType(result.PageType) {
			if err := r.Writer.WriteEntity(ctx, result.PageType, result.Entity); err != nil {
				logger.Error("write failed", "type", result.PageType, "url", result.URL, "error", err)
				stats.Errors++
				return nil
			}
			stats.ByType[result.PageType]++
		}

		for _, review := range result.Reviews {
			if err := r.Writer.WriteEntity(ctx, docsift.PageTypeReview, review); err != nil {
				logger.Error("review write failed", "url", result.URL, "error", err)
				stats.Errors++
				continue
			}
			stats.ByType[docsift.PageTypeReview]++
		}

		stats.Processed++
		if stats.Processed%10 == 0 {
			logger.Info("progress", "processed", stats.Processed, "total", stats.Total)
		}
		return nil
	})

	stats.SlugCollisions = r.Slugs.Collisions()

	if walkErr != nil {
		return stats, walkErr
	}
	return stats, nil
}

// allocateSlug replaces the extractor's slug candidate with a run-unique
// slug. The disambiguator is the canonical URL, falling back to the source
// file path.
func (r *Runner) allocateSlug(result *docsift.PageResult, logger *slog.Logger) {
	candidate := result.Entity[docsift.FieldSlug].Str()
	if candidate == "" {
		return
	}

	disambiguator := result.Entity[docsift.FieldCanonicalURL].Str()
	if disambiguator == "" {
		disambiguator = result.Entity[docsift.FieldSourceFile].Str()
	}

	slug, collided := r.Slugs.Allocate(candidate, disambiguator)
	if collided {
		logger.Debug("slug collision resolved", "candidate", candidate, "slug", slug)
	}
	result.Entity[docsift.FieldSlug] = docsift.String(slug)
}
