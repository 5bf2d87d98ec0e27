// Package results holds the aggregated outcome of every benchmark
// combination, one table per browser or capability pass.
package results

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/wesleyorama2/relbench/internal/measure"
)

// Entry is the aggregated outcome of one (benchmark, version) combination.
// A non-empty Error marks the entry failed; Measurements then only holds
// the statistics of the samples that did succeed, if any.
type Entry struct {
	Size         int                                   `json:"size"`
	Error        string                                `json:"error,omitempty"`
	Measurements map[measure.MetricKind]measure.Stats `json:"measurements,omitempty"`
}

// Failed reports whether the entry carries an error.
func (e *Entry) Failed() bool {
	return e.Error != ""
}

// Finalize aggregates the collected samples. Distinct error messages are
// quoted and joined. Error samples never count towards the statistics, and
// an entry without a single successful sample has none.
func (e *Entry) Finalize(records []measure.Record) {
	errs, samples := measure.Partition(records)
	e.Error = joinErrors(errs)
	e.Measurements = nil
	if len(samples) > 0 {
		e.Measurements = measure.SummarizeAll(samples)
	}
}

// Abort marks an entry whose combination was cut short by err before any
// aggregation happened.
func (e *Entry) Abort(err error) {
	e.Error = fmt.Sprintf("%q", err.Error())
	e.Measurements = nil
}

func joinErrors(errs []measure.Record) string {
	seen := make(map[string]bool, len(errs))
	quoted := make([]string, 0, len(errs))
	for _, r := range errs {
		if seen[r.Error] {
			continue
		}
		seen[r.Error] = true
		quoted = append(quoted, fmt.Sprintf("%q", r.Error))
	}
	return strings.Join(quoted, ", ")
}

// Table maps benchmark -> version -> entry for one pass. Insertion order of
// benchmarks and versions is kept for reporting.
type Table struct {
	Label string

	benchmarks []string
	versions   map[string][]string
	entries    map[string]map[string]*Entry
}

// NewTable creates an empty table.
func NewTable(label string) *Table {
	return &Table{
		Label:    label,
		versions: make(map[string][]string),
		entries:  make(map[string]map[string]*Entry),
	}
}

// Begin creates (or resets) the entry for a combination and records the
// artifact size.
func (t *Table) Begin(benchmark, version string, size int) *Entry {
	byVersion, ok := t.entries[benchmark]
	if !ok {
		byVersion = make(map[string]*Entry)
		t.entries[benchmark] = byVersion
		t.benchmarks = append(t.benchmarks, benchmark)
	}
	if _, exists := byVersion[version]; !exists {
		t.versions[benchmark] = append(t.versions[benchmark], version)
	}

	entry := &Entry{Size: size}
	byVersion[version] = entry
	return entry
}

// Entry returns the entry for a combination.
func (t *Table) Entry(benchmark, version string) (*Entry, bool) {
	e, ok := t.entries[benchmark][version]
	return e, ok
}

// Benchmarks returns benchmark names in the order they were first written.
func (t *Table) Benchmarks() []string {
	return append([]string(nil), t.benchmarks...)
}

// Versions returns the version labels of a benchmark in write order.
func (t *Table) Versions(benchmark string) []string {
	return append([]string(nil), t.versions[benchmark]...)
}

// Len returns the number of entries under a benchmark.
func (t *Table) Len(benchmark string) int {
	return len(t.entries[benchmark])
}

// MarshalJSON renders the table as {"label": ..., "results": {bench: {version: entry}}}.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Label   string                       `json:"label"`
		Results map[string]map[string]*Entry `json:"results"`
	}{
		Label:   t.Label,
		Results: t.entries,
	})
}

// Store owns the tables of every pass in a run.
type Store struct {
	mu     sync.Mutex
	passes []*Table
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// NewPass adds and returns a fresh table for one browser or capability.
func (s *Store) NewPass(label string) *Table {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := NewTable(label)
	s.passes = append(s.passes, t)
	return t
}

// Passes returns the tables in the order the passes ran.
func (s *Store) Passes() []*Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Table(nil), s.passes...)
}

// WriteJSON writes every pass as an indented JSON document.
func (s *Store) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Passes []*Table `json:"passes"`
	}{Passes: s.Passes()})
}
