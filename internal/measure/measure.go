// Package measure defines the timing records produced by the in-page lifecycle
// timer and reduces them to per-metric statistics.
package measure

import (
	"sort"
)

// MetricKind identifies one timed lifecycle phase.
type MetricKind string

const (
	CreateCold  MetricKind = "create:cold"
	RunCold     MetricKind = "run:cold"
	DestroyCold MetricKind = "destroy:cold"
	CreateWarm  MetricKind = "create:warm"
	RunWarm     MetricKind = "run:warm"
	DestroyWarm MetricKind = "destroy:warm"
)

// Kinds lists every metric in report column order.
var Kinds = []MetricKind{
	CreateCold,
	RunCold,
	DestroyCold,
	CreateWarm,
	RunWarm,
	DestroyWarm,
}

// Valid reports whether k is one of the known metric kinds.
func (k MetricKind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Record is a single measurement in milliseconds, or an error sample when
// Error is non-empty.
type Record struct {
	Kind  MetricKind `json:"type,omitempty"`
	Value float64    `json:"value"`
	Error string     `json:"error,omitempty"`
}

// IsError reports whether the record carries an error instead of a timing.
func (r Record) IsError() bool {
	return r.Error != ""
}

// ErrorRecord builds an error sample.
func ErrorRecord(message string) Record {
	return Record{Error: message}
}

// Stats holds the summary of one metric across all samples of a combination.
type Stats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// Partition splits records into error samples and timing samples, keeping
// their relative order.
func Partition(records []Record) (errs, samples []Record) {
	for _, r := range records {
		if r.IsError() {
			errs = append(errs, r)
		} else {
			samples = append(samples, r)
		}
	}
	return errs, samples
}

// Summarize computes min, max and median of the samples matching kind.
// Error records are ignored. An empty selection yields zero stats.
func Summarize(records []Record, kind MetricKind) Stats {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		if r.IsError() || r.Kind != kind {
			continue
		}
		values = append(values, r.Value)
	}

	if len(values) == 0 {
		return Stats{}
	}

	sort.Float64s(values)

	mid := len(values) / 2
	median := values[mid]
	if len(values)%2 == 0 {
		median = (values[mid] + values[mid-1]) / 2
	}

	return Stats{
		Min:    values[0],
		Max:    values[len(values)-1],
		Median: median,
	}
}

// SummarizeAll computes stats for every known metric kind.
func SummarizeAll(records []Record) map[MetricKind]Stats {
	out := make(map[MetricKind]Stats, len(Kinds))
	for _, kind := range Kinds {
		out[kind] = Summarize(records, kind)
	}
	return out
}
