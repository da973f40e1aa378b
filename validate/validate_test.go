package validate_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/docsift"
	"github.com/fwojciec/docsift/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scannerSchemas() *docsift.SchemaSet {
	return &docsift.SchemaSet{
		Entities: map[string]docsift.EntitySchema{
			"blog_post": {
				Fields: map[string]docsift.FieldSchema{
					"slug":  {Type: docsift.TypeString, Required: true},
					"title": {Type: docsift.TypeString, Required: true},
					"views": {Type: docsift.TypeInteger},
				},
				FieldOrder: []string{"slug", "title", "views"},
				PrimaryKey: "slug",
			},
		},
		EntityTypes: []string{"blog_post"},
	}
}

func writePartition(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestScanner_ScanFile(t *testing.T) {
	t.Parallel()

	t.Run("counts valid and invalid records", func(t *testing.T) {
		t.Parallel()

		path := writePartition(t, t.TempDir(), "blog_post.jsonl",
			`{"slug":"a","title":"A"}`,
			`{"slug":"b"}`,
		)
		s := &validate.Scanner{Schemas: scannerSchemas()}

		stats, err := s.ScanFile(path, "blog_post")
		require.NoError(t, err)

		assert.Equal(t, 2, stats.Total)
		assert.Equal(t, 1, stats.Valid)
		assert.Equal(t, 1, stats.Invalid)
		require.Len(t, stats.Errors, 1)
		assert.Equal(t, 2, stats.Errors[0].Line)
		assert.Equal(t, "b", stats.Errors[0].EntityID)
		assert.Contains(t, stats.Errors[0].Errors, "Required field 'title' is missing or empty")
	})

	t.Run("malformed JSON lines are invalid", func(t *testing.T) {
		t.Parallel()

		path := writePartition(t, t.TempDir(), "blog_post.jsonl",
			`{"slug":"a","title":"A"}`,
			`{not json`,
		)
		s := &validate.Scanner{Schemas: scannerSchemas()}

		stats, err := s.ScanFile(path, "blog_post")
		require.NoError(t, err)

		assert.Equal(t, 2, stats.Total)
		assert.Equal(t, 1, stats.Invalid)
		require.Len(t, stats.Errors, 1)
		assert.Contains(t, stats.Errors[0].Errors[0], "Invalid JSON")
	})

	t.Run("blank lines are ignored", func(t *testing.T) {
		t.Parallel()

		path := writePartition(t, t.TempDir(), "blog_post.jsonl",
			`{"slug":"a","title":"A"}`,
			``,
			`{"slug":"b","title":"B"}`,
		)
		s := &validate.Scanner{Schemas: scannerSchemas()}

		stats, err := s.ScanFile(path, "blog_post")
		require.NoError(t, err)

		assert.Equal(t, 2, stats.Total)
		assert.Equal(t, 2, stats.Valid)
	})

	t.Run("duplicate primary keys flag repeats only", func(t *testing.T) {
		t.Parallel()

		path := writePartition(t, t.TempDir(), "blog_post.jsonl",
			`{"slug":"doc-42","title":"First"}`,
			`{"slug":"other","title":"Other"}`,
			`{"slug":"doc-42","title":"Second"}`,
		)
		s := &validate.Scanner{Schemas: scannerSchemas()}

		stats, err := s.ScanFile(path, "blog_post")
		require.NoError(t, err)

		require.Len(t, stats.PrimaryKeyDuplicates, 1)
		assert.Equal(t, 3, stats.PrimaryKeyDuplicates[0].Line)
		assert.Equal(t, "doc-42", stats.PrimaryKeyDuplicates[0].Key)
	})

	t.Run("empty primary keys are not duplicate candidates", func(t *testing.T) {
		t.Parallel()

		path := writePartition(t, t.TempDir(), "blog_post.jsonl",
			`{"slug":"","title":"A"}`,
			`{"slug":"","title":"B"}`,
		)
		s := &validate.Scanner{Schemas: scannerSchemas()}

		stats, err := s.ScanFile(path, "blog_post")
		require.NoError(t, err)

		assert.Empty(t, stats.PrimaryKeyDuplicates)
		assert.Equal(t, 2, stats.Invalid)
	})

	t.Run("field coverage counts present keys", func(t *testing.T) {
		t.Parallel()

		path := writePartition(t, t.TempDir(), "blog_post.jsonl",
			`{"slug":"a","title":"A","views":3}`,
			`{"slug":"b","title":"B"}`,
		)
		s := &validate.Scanner{Schemas: scannerSchemas()}

		stats, err := s.ScanFile(path, "blog_post")
		require.NoError(t, err)

		assert.Equal(t, 2, stats.FieldCoverage["slug"])
		assert.Equal(t, 1, stats.FieldCoverage["views"])
	})

	t.Run("missing partition yields empty stats", func(t *testing.T) {
		t.Parallel()

		s := &validate.Scanner{Schemas: scannerSchemas()}

		stats, err := s.ScanFile(filepath.Join(t.TempDir(), "blog_post.jsonl"), "blog_post")
		require.NoError(t, err)

		assert.Zero(t, stats.Total)
	})

	t.Run("error samples are bounded", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "blog_post.jsonl")
		f, err := os.Create(path)
		require.NoError(t, err)
		for range docsift.ErrorSampleLimit + 20 {
			_, err := f.WriteString(`{"title":"no slug"}` + "\n")
			require.NoError(t, err)
		}
		require.NoError(t, f.Close())

		s := &validate.Scanner{Schemas: scannerSchemas()}
		stats, err := s.ScanFile(path, "blog_post")
		require.NoError(t, err)

		assert.Equal(t, docsift.ErrorSampleLimit+20, stats.Invalid)
		assert.Len(t, stats.Errors, docsift.ErrorSampleLimit)
	})
}

func TestScanner_ScanDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePartition(t, dir, "blog_post.jsonl",
		`{"slug":"a","title":"A"}`,
		`{"slug":"b","title":"B"}`,
		`{"slug":"c"}`,
	)
	s := &validate.Scanner{Schemas: scannerSchemas()}

	results, err := s.ScanDir(context.Background(), dir)
	require.NoError(t, err)

	require.Contains(t, results, "blog_post")
	assert.Equal(t, 3, results["blog_post"].Total)
	assert.Equal(t, 2, results["blog_post"].Valid)

	t.Run("writes the validation report", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(dir, "validation_report.json"))
		require.NoError(t, err)

		var report map[string]docsift.ValidationStats
		require.NoError(t, json.Unmarshal(data, &report))
		assert.Equal(t, 3, report["blog_post"].Total)
	})

	t.Run("writes sample records", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(dir, "samples", "blog_post_sample.json"))
		require.NoError(t, err)

		var samples []map[string]any
		require.NoError(t, json.Unmarshal(data, &samples))
		assert.Len(t, samples, 3)
		assert.Equal(t, "a", samples[0]["slug"])
	})
}

func TestSortedTypes(t *testing.T) {
	t.Parallel()

	results := map[string]*docsift.ValidationStats{
		"review":    {},
		"blog_post": {},
		"clinic":    {},
	}

	assert.Equal(t, []string{"blog_post", "clinic", "review"}, validate.SortedTypes(results))
}
