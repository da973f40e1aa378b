// Package validate provides the validation-phase scanner. It re-reads the
// JSONL partitions produced by an extraction run, validates every record
// against the entity schema, detects primary-key duplicates and reports
// per-field coverage.
package validate

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fwojciec/docsift"
	"github.com/fwojciec/docsift/fs"
)

// maxRecordSize bounds a single JSONL line. Rendered pages can embed large
// HTML fragments in string fields.
const maxRecordSize = 10 << 20

// Scanner validates extracted entity partitions against their schemas.
type Scanner struct {
	Schemas *docsift.SchemaSet
	Logger  *slog.Logger
}

// ScanFile validates one entity type's partition. A missing file is not an
// error: it returns empty stats so the caller can report zero coverage.
func (s *Scanner) ScanFile(path, entityType string) (*docsift.ValidationStats, error) {
	logger := s.logger()

	stats := &docsift.ValidationStats{
		FieldCoverage: make(map[string]int),
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("partition not found", "type", entityType, "path", path)
			return stats, nil
		}
		return nil, err
	}
	defer f.Close()

	validator := docsift.NewValidator(s.Schemas)
	schema, _ := s.Schemas.Entity(entityType)

	// Tracks first-seen primary keys; only repeats are flagged.
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxRecordSize)

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		stats.Total++

		record, err := decodeRecord(raw)
		if err != nil {
			stats.Invalid++
			if len(stats.Errors) < docsift.ErrorSampleLimit {
				stats.Errors = append(stats.Errors, docsift.RecordErrors{
					Line:   line,
					Errors: []string{fmt.Sprintf("Invalid JSON: %v", err)},
				})
			}
			continue
		}

		for name := range record {
			stats.FieldCoverage[name]++
		}

		if schema.PrimaryKey != "" {
			if key := record[schema.PrimaryKey]; docsift.Truthy(key) {
				ks := keyString(key)
				if _, dup := seen[ks]; dup {
					stats.PrimaryKeyDuplicates = append(stats.PrimaryKeyDuplicates, docsift.DuplicateKey{
						Line: line,
						Key:  key,
					})
				} else {
					seen[ks] = struct{}{}
				}
			}
		}

		valid, errs := validator.ValidateEntity(record, entityType)
		if valid {
			stats.Valid++
			continue
		}
		stats.Invalid++
		if len(stats.Errors) < docsift.ErrorSampleLimit {
			sample := docsift.RecordErrors{Line: line, Errors: errs}
			if schema.PrimaryKey != "" {
				sample.EntityID = record[schema.PrimaryKey]
			}
			stats.Errors = append(stats.Errors, sample)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, docsift.Errorf(docsift.EINTERNAL, "cannot scan %s: %v", path, err)
	}

	return stats, nil
}

// ScanDir validates every declared entity type's partition under dataDir,
// one goroutine per type. It writes per-type sample files and the combined
// validation report alongside the partitions and returns the per-type
// stats.
func (s *Scanner) ScanDir(ctx context.Context, dataDir string) (map[string]*docsift.ValidationStats, error) {
	logger := s.logger()

	var mu sync.Mutex
	results := make(map[string]*docsift.ValidationStats, len(s.Schemas.EntityTypes))

	g, ctx := errgroup.WithContext(ctx)
	for _, entityType := range s.Schemas.EntityTypes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			path := filepath.Join(dataDir, entityType+".jsonl")
			stats, err := s.ScanFile(path, entityType)
			if err != nil {
				return err
			}
			logger.Info("partition validated",
				"type", entityType,
				"total", stats.Total,
				"valid", stats.Valid,
				"invalid", stats.Invalid)

			if err := writeSamples(path, entityType, dataDir); err != nil {
				return err
			}

			mu.Lock()
			results[entityType] = stats
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reportPath := filepath.Join(dataDir, "validation_report.json")
	if err := fs.WriteJSON(reportPath, results); err != nil {
		return nil, err
	}
	logger.Info("validation report written", "path", reportPath)

	return results, nil
}

func (s *Scanner) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// writeSamples copies the first few records of a partition into a sample
// file for manual inspection. A missing or empty partition writes nothing.
func writeSamples(path, entityType, dataDir string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	var samples []map[string]any

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxRecordSize)
	for scanner.Scan() && len(samples) < docsift.SampleRecordCount {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		record, err := decodeRecord(raw)
		if err != nil {
			continue
		}
		samples = append(samples, record)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if len(samples) == 0 {
		return nil
	}

	return fs.WriteJSON(filepath.Join(dataDir, "samples", entityType+"_sample.json"), samples)
}

// decodeRecord parses one JSONL line with UseNumber so the validator can
// tell integers from floats.
func decodeRecord(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return nil, err
	}
	return record, nil
}

// keyString normalizes a primary-key value for duplicate detection so that
// the number 42 and the string "42" stay distinct.
func keyString(key any) string {
	switch t := key.(type) {
	case string:
		return "s:" + t
	case json.Number:
		return "n:" + t.String()
	}
	return fmt.Sprintf("%T:%v", key, key)
}

// SortedTypes returns the scanned entity types in deterministic order for
// report printing.
func SortedTypes(results map[string]*docsift.ValidationStats) []string {
	types := make([]string, 0, len(results))
	for entityType := range results {
		types = append(types, entityType)
	}
	sort.Strings(types)
	return types
}
