// Package timer holds the in-page lifecycle timing protocol and decodes its
// replies.
//
// The protocol runs inside the browser as an asynchronous script: it times
// one cold create/run/destroy cycle, runs an unmeasured warm-up, then times a
// number of warm cycles and reports their mean. It yields to the page's
// scheduler between phases so rendering work does not leak into the next
// measurement.
package timer

import (
	_ "embed"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/relbench/internal/artifact"
	"github.com/wesleyorama2/relbench/internal/measure"
)

//go:embed timer.js
var script string

const (
	DefaultWarmupCycles = 50
	DefaultIterations   = 5
)

// Options are passed to the script as its first argument.
type Options struct {
	WarmupCycles int             `json:"warmup"`
	Iterations   int             `json:"iterations"`
	Shape        *artifact.Shape `json:"shape"`
}

// DefaultOptions returns the standard protocol settings.
func DefaultOptions() Options {
	return Options{
		WarmupCycles: DefaultWarmupCycles,
		Iterations:   DefaultIterations,
	}
}

// WithShape returns a copy of o bound to a component shape.
func (o Options) WithShape(shape *artifact.Shape) Options {
	o.Shape = shape
	return o
}

// Script returns the asynchronous script body. The caller appends the
// completion callback after Options, the way WebDriver's execute-async does.
func Script() string {
	return script
}

// Decode turns the script's JSON reply into records. The reply is either an
// array of measurements or a single {"error": ...} object.
func Decode(reply string) ([]measure.Record, error) {
	if !gjson.Valid(reply) {
		return nil, fmt.Errorf("timer reply is not valid JSON: %q", truncate(reply, 80))
	}

	parsed := gjson.Parse(reply)

	if parsed.IsObject() {
		msg := parsed.Get("error")
		if !msg.Exists() {
			return nil, fmt.Errorf("timer reply object has no error field")
		}
		return []measure.Record{measure.ErrorRecord(msg.String())}, nil
	}

	if !parsed.IsArray() {
		return nil, fmt.Errorf("unexpected timer reply type: %s", parsed.Type)
	}

	var records []measure.Record
	var decodeErr error
	parsed.ForEach(func(_, item gjson.Result) bool {
		if msg := item.Get("error"); msg.Exists() {
			records = append(records, measure.ErrorRecord(msg.String()))
			return true
		}

		kind := measure.MetricKind(item.Get("type").String())
		if !kind.Valid() {
			decodeErr = fmt.Errorf("unknown metric kind %q", kind)
			return false
		}
		value := item.Get("value")
		if value.Type != gjson.Number {
			decodeErr = fmt.Errorf("metric %s has non-numeric value %q", kind, value.Raw)
			return false
		}
		records = append(records, measure.Record{Kind: kind, Value: value.Float()})
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}

	return records, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
