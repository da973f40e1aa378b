package mock

import "github.com/fwojciec/docsift"

var _ docsift.PageExtractor = (*PageExtractor)(nil)

// PageExtractor is a mock implementation of docsift.PageExtractor.
type PageExtractor struct {
	ExtractPageFn func(page *docsift.CorpusPage) (*docsift.PageResult, error)
}

func (e *PageExtractor) ExtractPage(page *docsift.CorpusPage) (*docsift.PageResult, error) {
	return e.ExtractPageFn(page)
}
