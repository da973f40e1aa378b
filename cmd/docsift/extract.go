package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/fwojciec/docsift"
	"github.com/fwojciec/docsift/extract"
	"github.com/fwojciec/docsift/fs"
	"github.com/fwojciec/docsift/goquery"
	dsslog "github.com/fwojciec/docsift/slog"
	"github.com/fwojciec/docsift/sqlite"
	"github.com/fwojciec/docsift/yaml"
)

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	schemas, err := yaml.LoadSchemas(c.SchemaDir)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsift.ErrorMessage(err))
		return err
	}

	writer, err := c.newWriter(schemas)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", err)
		return err
	}
	defer writer.Close()

	telemetry := docsift.NewSelectorTelemetry()
	extractor := dsslog.NewLoggingExtractor(
		goquery.NewExtractor(schemas, telemetry, deps.Logger),
		deps.Logger,
	)

	runner := &extract.Runner{
		Schemas:   schemas,
		Corpus:    fs.NewWalker(c.MirrorDir, deps.Logger),
		Extractor: extractor,
		Writer:    writer,
		Slugs:     docsift.NewSlugAllocator(),
		Logger:    deps.Logger,
	}

	stats, err := runner.Run(deps.Ctx)
	if err != nil {
		return err
	}

	reportPath := filepath.Join(c.OutputDir, "selector_report.json")
	report := struct {
		RunID     string         `json:"run_id"`
		Selectors map[string]int `json:"selectors"`
	}{RunID: stats.RunID, Selectors: telemetry.Snapshot()}
	if err := fs.WriteJSON(reportPath, report); err != nil {
		return err
	}

	printRunStats(deps, stats)
	return nil
}

// newWriter builds the output sink selected by --format.
func (c *ExtractCmd) newWriter(schemas *docsift.SchemaSet) (docsift.EntityWriter, error) {
	if c.Format == "sqlite" {
		db := sqlite.NewDB(filepath.Join(c.OutputDir, "entities.db"))
		if err := db.Open(); err != nil {
			return nil, err
		}
		return sqlite.NewEntityWriter(db), nil
	}
	return fs.NewPartitionWriter(c.OutputDir, schemas.EntityTypes)
}

func printRunStats(deps *Dependencies, stats *docsift.RunStats) {
	fmt.Fprintf(deps.Stdout, "Extraction complete (run %s)\n", stats.RunID)
	fmt.Fprintf(deps.Stdout, "  Documents:       %d\n", stats.Total)
	fmt.Fprintf(deps.Stdout, "  Processed:       %d\n", stats.Processed)
	fmt.Fprintf(deps.Stdout, "  Skipped:         %d\n", stats.Skipped)
	fmt.Fprintf(deps.Stdout, "  Errors:          %d\n", stats.Errors)
	fmt.Fprintf(deps.Stdout, "  Slug collisions: %d\n", stats.SlugCollisions)

	types := make([]string, 0, len(stats.ByType))
	for entityType := range stats.ByType {
		types = append(types, entityType)
	}
	sort.Strings(types)
	for _, entityType := range types {
		fmt.Fprintf(deps.Stdout, "  %-16s %d\n", entityType+":", stats.ByType[entityType])
	}
}
