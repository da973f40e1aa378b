package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fwojciec/docsift"
)

// Ensure PartitionWriter implements docsift.EntityWriter at compile time.
var _ docsift.EntityWriter = (*PartitionWriter)(nil)

// PartitionWriter writes entities as newline-delimited JSON, one file per
// entity type. All declared partitions are created (and truncated) up
// front, so a type with no extracted entities still gets an empty file.
type PartitionWriter struct {
	files    map[string]*os.File
	encoders map[string]*json.Encoder
}

// NewPartitionWriter creates a writer with one partition per entity type
// under dir.
func NewPartitionWriter(dir string, entityTypes []string) (*PartitionWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	w := &PartitionWriter{
		files:    make(map[string]*os.File, len(entityTypes)),
		encoders: make(map[string]*json.Encoder, len(entityTypes)),
	}
	for _, entityType := range entityTypes {
		f, err := os.Create(filepath.Join(dir, entityType+".jsonl"))
		if err != nil {
			_ = w.Close()
			return nil, err
		}
		w.files[entityType] = f
		w.encoders[entityType] = json.NewEncoder(f)
	}
	return w, nil
}

// WriteEntity appends one entity to its type's partition.
func (w *PartitionWriter) WriteEntity(ctx context.Context, entityType string, entity docsift.Entity) error {
	enc, ok := w.encoders[entityType]
	if !ok {
		return docsift.Errorf(docsift.EINVALID, "no output partition for entity type %q", entityType)
	}
	return enc.Encode(entity)
}

// Close closes all partitions.
func (w *PartitionWriter) Close() error {
	var firstErr error
	for _, f := range w.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WriteJSON writes v as indented JSON to path, creating parent directories
// as needed. Used for the selector, validation and sample reports.
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
