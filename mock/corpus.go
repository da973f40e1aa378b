// Package mock provides mock implementations of docsift interfaces for
// testing.
package mock

import (
	"context"

	"github.com/fwojciec/docsift"
)

var _ docsift.CorpusWalker = (*CorpusWalker)(nil)

// CorpusWalker is a mock implementation of docsift.CorpusWalker.
type CorpusWalker struct {
	WalkFn func(ctx context.Context, fn func(page *docsift.CorpusPage, err error) error) error
}

func (w *CorpusWalker) Walk(ctx context.Context, fn func(page *docsift.CorpusPage, err error) error) error {
	return w.WalkFn(ctx, fn)
}
