package mock

import (
	"context"

	"github.com/fwojciec/docsift"
)

var _ docsift.EntityWriter = (*EntityWriter)(nil)

// EntityWriter is a mock implementation of docsift.EntityWriter.
type EntityWriter struct {
	WriteEntityFn func(ctx context.Context, entityType string, entity docsift.Entity) error
	CloseFn       func() error
}

func (w *EntityWriter) WriteEntity(ctx context.Context, entityType string, entity docsift.Entity) error {
	return w.WriteEntityFn(ctx, entityType, entity)
}

func (w *EntityWriter) Close() error {
	return w.CloseFn()
}
