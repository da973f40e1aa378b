package docsift

import "sync"

// SelectorTelemetry counts which selector satisfied which field across one
// extraction run, for schema-quality feedback. It is safe for concurrent
// use; all updates serialize on one mutex.
type SelectorTelemetry struct {
	mu   sync.Mutex
	hits map[string]int
}

// NewSelectorTelemetry returns an empty telemetry counter.
func NewSelectorTelemetry() *SelectorTelemetry {
	return &SelectorTelemetry{hits: make(map[string]int)}
}

// Record increments the hit count for the winning selector.
func (t *SelectorTelemetry) Record(selector string) {
	t.mu.Lock()
	t.hits[selector]++
	t.mu.Unlock()
}

// Snapshot returns a copy of the current hit counts.
func (t *SelectorTelemetry) Snapshot() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.hits))
	for k, v := range t.hits {
		out[k] = v
	}
	return out
}
