// Package report prints fixed-width comparison tables of benchmark results,
// one per benchmark and browser, marking the best median in every column.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wesleyorama2/relbench/internal/measure"
	"github.com/wesleyorama2/relbench/internal/results"
)

const (
	DefaultFirstColumnWidth = 15
	DefaultDataColumnWidth  = 15

	ellipsis = " .."
	indent   = "  "
)

// Options configure a Reporter.
type Options struct {
	// Writer receives the console table; defaults to os.Stdout.
	Writer io.Writer

	// File, when set, gets an uncolored copy of every table appended.
	File string

	NoColor    bool
	ForceColor bool

	FirstColumnWidth int
	DataColumnWidth  int
}

// Reporter renders result tables.
type Reporter struct {
	out         io.Writer
	file        string
	colors      *ColorScheme
	plain       *ColorScheme
	firstWidth  int
	columnWidth int
}

// New creates a reporter.
func New(opts Options) *Reporter {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.FirstColumnWidth <= 0 {
		opts.FirstColumnWidth = DefaultFirstColumnWidth
	}
	if opts.DataColumnWidth <= 0 {
		opts.DataColumnWidth = DefaultDataColumnWidth
	}

	colors := NoColorScheme()
	if opts.ForceColor || (!opts.NoColor && supportsColor(opts.Writer)) {
		colors = DefaultColorScheme()
	}

	return &Reporter{
		out:         opts.Writer,
		file:        opts.File,
		colors:      colors,
		plain:       NoColorScheme(),
		firstWidth:  opts.FirstColumnWidth,
		columnWidth: opts.DataColumnWidth,
	}
}

// Report prints one table per benchmark in the pass and appends the plain
// text copies to the report file.
func (r *Reporter) Report(table *results.Table) error {
	var persisted strings.Builder

	for _, benchmark := range table.Benchmarks() {
		fmt.Fprintln(r.out)
		for _, line := range r.Render(table, benchmark, r.colors) {
			fmt.Fprintln(r.out, line)
		}

		for _, line := range r.Render(table, benchmark, r.plain) {
			persisted.WriteString(line)
			persisted.WriteString("\n")
		}
	}

	if r.file == "" || persisted.Len() == 0 {
		return nil
	}

	f, err := os.OpenFile(r.file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open report file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(persisted.String()); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	return nil
}

// Render returns the lines of one benchmark's table: a title, the column
// header, one row per version and a trailing blank line.
func (r *Reporter) Render(table *results.Table, benchmark string, scheme *ColorScheme) []string {
	lines := []string{
		scheme.Title.Sprintf("%s (%s)", benchmark, table.Label),
	}

	header := indent + column("version", r.firstWidth)
	for _, kind := range measure.Kinds {
		header += column(string(kind), r.columnWidth)
	}
	lines = append(lines, scheme.Header.Sprint(header))

	for _, version := range table.Versions(benchmark) {
		entry, _ := table.Entry(benchmark, version)
		if entry.Failed() {
			lines = append(lines, indent+" "+column(version, r.firstWidth)+" "+scheme.Error.Sprint(entry.Error))
			continue
		}

		row := indent + column(version, r.firstWidth)
		for _, kind := range measure.Kinds {
			median := entry.Measurements[kind].Median
			cell := column(fmt.Sprintf("%.3f", median), r.columnWidth)
			if isBest(table, benchmark, kind, median) {
				cell = highlight(cell, scheme.Best)
			}
			row += cell
		}
		lines = append(lines, row)
	}

	return append(lines, "")
}

// isBest reports whether no other successful entry of the benchmark has a
// strictly lower median for kind. Equal best medians are all marked.
func isBest(table *results.Table, benchmark string, kind measure.MetricKind, median float64) bool {
	for _, version := range table.Versions(benchmark) {
		other, _ := table.Entry(benchmark, version)
		if other.Failed() {
			continue
		}
		if other.Measurements[kind].Median < median {
			return false
		}
	}
	return true
}

// highlight styles the visible text of a padded cell, leaving the padding
// alone so the columns stay aligned.
func highlight(cell string, style interface{ Sprint(...interface{}) string }) string {
	text := strings.TrimLeft(cell, " ")
	pad := cell[:len(cell)-len(text)]
	return pad + style.Sprint(text)
}

// column right-aligns text in width characters with one leading space.
// Longer text keeps its tail behind an ellipsis so the width never changes.
func column(text string, width int) string {
	runes := []rune(" " + text)
	if len(runes) > width {
		keep := width - len([]rune(ellipsis))
		if keep < 0 {
			keep = 0
		}
		return ellipsis + string(runes[len(runes)-keep:])
	}
	return strings.Repeat(" ", width-len(runes)) + string(runes)
}
