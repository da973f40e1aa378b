package docsift

// ErrorSampleLimit bounds the number of per-record error samples kept in a
// validation report.
const ErrorSampleLimit = 100

// SampleRecordCount is the number of records copied into each per-type
// sample file.
const SampleRecordCount = 5

// RunStats summarizes one extraction run.
type RunStats struct {
	RunID          string         `json:"run_id"`
	Total          int            `json:"total"`
	Processed      int            `json:"processed"`
	Skipped        int            `json:"skipped"`
	Errors         int            `json:"errors"`
	ByType         map[string]int `json:"by_type"`
	SlugCollisions int            `json:"slug_collisions"`
}

// RecordErrors is a bounded sample of validation failures for one record.
type RecordErrors struct {
	Line     int      `json:"line"`
	EntityID any      `json:"entity_id,omitempty"`
	Errors   []string `json:"errors"`
}

// DuplicateKey records a repeated primary key. The first occurrence of a
// key is never flagged.
type DuplicateKey struct {
	Line int `json:"line"`
	Key  any `json:"key"`
}

// ValidationStats summarizes the validation scan of one entity type's
// partition.
type ValidationStats struct {
	Total                int            `json:"total"`
	Valid                int            `json:"valid"`
	Invalid              int            `json:"invalid"`
	Errors               []RecordErrors `json:"errors"`
	PrimaryKeyDuplicates []DuplicateKey `json:"primary_key_duplicates"`
	FieldCoverage        map[string]int `json:"field_coverage"`
}
