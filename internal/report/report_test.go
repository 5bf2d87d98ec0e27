package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/relbench/internal/measure"
	"github.com/wesleyorama2/relbench/internal/results"
)

const bestMarker = "\x1b[42m"

func entryWith(table *results.Table, version string, createCold float64) {
	records := []measure.Record{{Kind: measure.CreateCold, Value: createCold}}
	table.Begin("todo", version, 100).Finalize(records)
}

func sampleTable() *results.Table {
	table := results.NewTable("chrome")
	entryWith(table, "1.0.0", 10)
	entryWith(table, "1.1.0", 8)
	entryWith(table, "1.1.1", 8)
	table.Begin("todo", "custom", 100).Finalize([]measure.Record{measure.ErrorRecord("Timed out")})
	return table
}

func TestColumn(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"version", 15, "        version"},
		{"12.000", 10, "    12.000"},
		{"0123456789abcdefgh", 15, " ..6789abcdefgh"},
		{"abcdefghijklmn", 15, " abcdefghijklmn"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := column(tt.text, tt.width)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, tt.width)
		})
	}
}

func TestRender_Plain(t *testing.T) {
	r := New(Options{Writer: &bytes.Buffer{}, NoColor: true})
	lines := r.Render(sampleTable(), "todo", NoColorScheme())

	require.Len(t, lines, 7)
	assert.Equal(t, "todo (chrome)", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "          version    create:cold"))
	assert.Equal(t, "  "+column("1.0.0", 15)+column("10.000", 15)+strings.Repeat(column("0.000", 15), 5), lines[2])
	assert.Equal(t, `   `+column("custom", 15)+` "Timed out"`, lines[5])
	assert.Equal(t, "", lines[6])

	width := len(lines[1])
	for _, line := range lines[2:5] {
		assert.Len(t, line, width, "row %q is not aligned with the header", line)
	}
}

func TestRender_HighlightsLowestMedians(t *testing.T) {
	r := New(Options{Writer: &bytes.Buffer{}})
	lines := r.Render(sampleTable(), "todo", DefaultColorScheme())

	// 1.0.0 loses create:cold but ties every zero-valued column
	assert.Equal(t, 5, strings.Count(lines[2], bestMarker))
	assert.NotContains(t, lines[2], bestMarker+"10.000")
	// both 8ms entries are best
	assert.Equal(t, 6, strings.Count(lines[3], bestMarker))
	assert.Equal(t, 6, strings.Count(lines[4], bestMarker))
	// errored rows are never highlighted
	assert.NotContains(t, lines[5], bestMarker)
}

func TestIsBest_IgnoresErroredEntries(t *testing.T) {
	table := results.NewTable("firefox")
	entryWith(table, "1.0.0", 5)
	failed := table.Begin("todo", "1.1.0", 1)
	failed.Error = `"boom"`

	assert.True(t, isBest(table, "todo", measure.CreateCold, 5))
	assert.False(t, isBest(table, "todo", measure.CreateCold, 6))
}

func TestReport_PersistsPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	var console bytes.Buffer

	r := New(Options{Writer: &console, File: path, ForceColor: true})
	require.NoError(t, r.Report(sampleTable()))
	require.NoError(t, r.Report(sampleTable()))

	assert.Contains(t, console.String(), bestMarker)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.NotContains(t, text, "\x1b[")
	assert.Equal(t, 2, strings.Count(text, "todo (chrome)\n"), "file should be appended to")
	assert.True(t, strings.HasSuffix(text, "\n\n"))
}

func TestReport_NoFile(t *testing.T) {
	var console bytes.Buffer
	r := New(Options{Writer: &console, NoColor: true})
	require.NoError(t, r.Report(sampleTable()))
	assert.NotContains(t, console.String(), "\x1b[")
	assert.Contains(t, console.String(), "todo (chrome)")
}
