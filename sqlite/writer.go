package sqlite

import (
	"context"
	"encoding/json"

	"github.com/fwojciec/docsift"
)

// Ensure EntityWriter implements docsift.EntityWriter at compile time.
var _ docsift.EntityWriter = (*EntityWriter)(nil)

// EntityWriter writes extracted entities as JSON records into the entities
// table. It owns the DB handle and closes it with Close.
type EntityWriter struct {
	db *DB
}

// NewEntityWriter creates a new EntityWriter over an open DB.
func NewEntityWriter(db *DB) *EntityWriter {
	return &EntityWriter{db: db}
}

// WriteEntity inserts one entity row.
func (w *EntityWriter) WriteEntity(ctx context.Context, entityType string, entity docsift.Entity) error {
	record, err := json.Marshal(entity)
	if err != nil {
		return docsift.Errorf(docsift.EINTERNAL, "cannot encode %s entity: %v", entityType, err)
	}

	_, err = w.db.ExecContext(ctx, `
		INSERT INTO entities (entity_type, record, extracted_at, source_file)
		VALUES (?, ?, ?, ?)
	`, entityType, string(record),
		entity[docsift.FieldExtractedAt].Str(),
		entity[docsift.FieldSourceFile].Str())

	return err
}

// Close closes the underlying database.
func (w *EntityWriter) Close() error {
	return w.db.Close()
}
