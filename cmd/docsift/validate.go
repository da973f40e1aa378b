package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fwojciec/docsift"
	"github.com/fwojciec/docsift/validate"
	"github.com/fwojciec/docsift/yaml"
)

// Run executes the validate command.
func (c *ValidateCmd) Run(deps *Dependencies) error {
	schemas, err := yaml.LoadSchemas(c.SchemaDir)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsift.ErrorMessage(err))
		return err
	}

	scanner := &validate.Scanner{Schemas: schemas, Logger: deps.Logger}

	if c.EntityType != "" {
		if !schemas.HasEntityType(c.EntityType) {
			return docsift.Errorf(docsift.EINVALID, "unknown entity type %q", c.EntityType)
		}
		path := filepath.Join(c.DataDir, c.EntityType+".jsonl")
		stats, err := scanner.ScanFile(path, c.EntityType)
		if err != nil {
			return err
		}
		printReport(deps, map[string]*docsift.ValidationStats{c.EntityType: stats})
		return nil
	}

	results, err := scanner.ScanDir(deps.Ctx, c.DataDir)
	if err != nil {
		return err
	}
	printReport(deps, results)
	return nil
}

// printReport renders the validation summary for human review.
func printReport(deps *Dependencies, results map[string]*docsift.ValidationStats) {
	out := deps.Stdout
	rule := strings.Repeat("=", 70)

	var totalRecords, totalValid, totalInvalid int

	for _, entityType := range validate.SortedTypes(results) {
		stats := results[entityType]
		totalRecords += stats.Total
		totalValid += stats.Valid
		totalInvalid += stats.Invalid

		fmt.Fprintln(out, rule)
		fmt.Fprintf(out, "%s\n", strings.ToUpper(entityType))
		fmt.Fprintln(out, rule)
		fmt.Fprintf(out, "Total records: %d\n", stats.Total)
		fmt.Fprintf(out, "Valid:         %d (%s)\n", stats.Valid, percent(stats.Valid, stats.Total))
		fmt.Fprintf(out, "Invalid:       %d (%s)\n", stats.Invalid, percent(stats.Invalid, stats.Total))

		if n := len(stats.PrimaryKeyDuplicates); n > 0 {
			fmt.Fprintf(out, "\nDuplicate primary keys: %d\n", n)
			for i, dup := range stats.PrimaryKeyDuplicates {
				if i == 5 {
					fmt.Fprintf(out, "  ... and %d more\n", n-5)
					break
				}
				fmt.Fprintf(out, "  line %d: %v\n", dup.Line, dup.Key)
			}
		}

		if len(stats.FieldCoverage) > 0 {
			fmt.Fprintln(out, "\nField coverage:")
			for _, fc := range topCoverage(stats.FieldCoverage, 10) {
				fmt.Fprintf(out, "  %-24s %d (%s)\n", fc.name, fc.count, percent(fc.count, stats.Total))
			}
		}

		if len(stats.Errors) > 0 {
			fmt.Fprintln(out, "\nSample errors:")
			for i, sample := range stats.Errors {
				if i == 5 {
					break
				}
				if sample.EntityID != nil {
					fmt.Fprintf(out, "  line %d (id %v):\n", sample.Line, sample.EntityID)
				} else {
					fmt.Fprintf(out, "  line %d:\n", sample.Line)
				}
				for j, msg := range sample.Errors {
					if j == 3 {
						fmt.Fprintf(out, "    ... and %d more\n", len(sample.Errors)-3)
						break
					}
					fmt.Fprintf(out, "    - %s\n", msg)
				}
			}
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "OVERALL SUMMARY")
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Total records: %d\n", totalRecords)
	fmt.Fprintf(out, "Valid:         %d (%s)\n", totalValid, percent(totalValid, totalRecords))
	fmt.Fprintf(out, "Invalid:       %d (%s)\n", totalInvalid, percent(totalInvalid, totalRecords))
}

func percent(part, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(total)*100)
}

type fieldCount struct {
	name  string
	count int
}

// topCoverage returns the most frequently populated fields, count-descending
// with name as tiebreak.
func topCoverage(coverage map[string]int, limit int) []fieldCount {
	counts := make([]fieldCount, 0, len(coverage))
	for name, count := range coverage {
		counts = append(counts, fieldCount{name, count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].name < counts[j].name
	})
	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}
