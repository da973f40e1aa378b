// Package slog provides logging decorators for docsift interfaces.
package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/docsift"
)

// Ensure LoggingExtractor implements docsift.PageExtractor.
var _ docsift.PageExtractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps a PageExtractor with per-document logging.
type LoggingExtractor struct {
	next   docsift.PageExtractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next docsift.PageExtractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, logger: logger}
}

// ExtractPage delegates to the wrapped extractor and logs the outcome.
func (e *LoggingExtractor) ExtractPage(page *docsift.CorpusPage) (*docsift.PageResult, error) {
	begin := time.Now()
	result, err := e.next.ExtractPage(page)
	if err != nil {
		if docsift.ErrorCode(err) == docsift.ENOTFOUND {
			e.logger.Debug("page extraction skipped",
				"path", page.Path,
				"reason", docsift.ErrorMessage(err),
			)
		} else {
			e.logger.Debug("page extraction failed",
				"path", page.Path,
				"err", docsift.ErrorMessage(err),
			)
		}
		return nil, err
	}
	e.logger.Info("page extracted",
		"type", result.PageType,
		"url", result.URL,
		"reviews", len(result.Reviews),
		"duration", time.Since(begin),
	)
	return result, nil
}
