package version

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseAll(t *testing.T, ids ...string) []Version {
	t.Helper()
	vs, err := ParseAll(ids)
	require.NoError(t, err)
	return vs
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Version
		wantErr bool
	}{
		{input: "1.2.3", want: Version{1, 2, 3}},
		{input: "v0.10.0", want: Version{0, 10, 0}},
		{input: " 2.0.11 ", want: Version{2, 0, 11}},
		{input: "1.2", wantErr: true},
		{input: "custom", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelect_SmallSetKeepsEverything(t *testing.T) {
	all := mustParseAll(t, "1.0.0", "1.1.0", "1.1.1")
	assert.Equal(t, []string{"1.0.0", "1.1.0", "1.1.1"}, Strings(Select(all)))
}

func TestSelect_LatestPatchPerMinor(t *testing.T) {
	all := mustParseAll(t,
		"1.0.0", "1.0.1", "1.0.2", "1.0.3", "1.0.4", // earliest five
		"1.0.5", "1.1.0", "1.1.1", "1.2.0", "1.2.1", "1.2.2",
	)

	got := Strings(Select(all))
	assert.Equal(t, []string{
		"1.0.0", "1.0.1", "1.0.2", "1.0.3", "1.0.4",
		"1.0.5", "1.1.1", "1.2.2",
	}, got)
}

func TestSelect_AtMostOnePerMinorOutsideEarliest(t *testing.T) {
	all := mustParseAll(t,
		"0.1.0", "0.2.0", "0.3.0", "0.4.0", "0.5.0",
		"0.6.0", "0.6.1", "0.6.2", "0.7.0", "0.7.3", "0.7.1",
	)

	got := Select(all)
	seen := map[string]int{}
	for _, v := range got[EarliestCount:] {
		seen[fmt.Sprintf("%d.%d", v.Major, v.Minor)]++
	}
	for minor, n := range seen {
		assert.Equalf(t, 1, n, "minor %s selected %d times", minor, n)
	}
	assert.Contains(t, Strings(got), "0.7.3")
	assert.NotContains(t, Strings(got), "0.7.1")
}

func TestSelect_RepeatedReleasesCountOnce(t *testing.T) {
	all := mustParseAll(t,
		"0.1.0", "0.1.0", "0.2.0", "0.3.0", "0.4.0", "0.5.0",
		"0.6.0", "0.6.2", "0.7.0", "0.6.2", "0.3.0",
	)

	assert.Equal(t, []string{"0.1.0", "0.2.0", "0.3.0", "0.4.0", "0.5.0", "0.6.2", "0.7.0"}, Strings(Select(all)))
}

func TestSelect_LatestPatchLimitKeepsNewest(t *testing.T) {
	ids := []string{"0.0.1", "0.0.2", "0.0.3", "0.0.4", "0.0.5"}
	for minor := 1; minor <= 12; minor++ {
		ids = append(ids, fmt.Sprintf("1.%d.0", minor))
	}
	got := Select(mustParseAll(t, ids...))

	require.Len(t, got, EarliestCount+LatestPatchLimit)
	names := Strings(got)
	assert.NotContains(t, names, "1.1.0")
	assert.NotContains(t, names, "1.2.0")
	assert.Contains(t, names, "1.3.0")
	assert.Equal(t, "1.12.0", names[len(names)-1])
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "versions.json")
	require.NoError(t, os.WriteFile(path, []byte(`["1.0.0", "1.1.0"]`), 0644))

	vs, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0", "1.1.0"}, Strings(vs))

	require.NoError(t, os.WriteFile(path, []byte(`["1.0"]`), 0644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Compare(Version{1, 2, 3}, Version{1, 10, 0}))
	assert.Equal(t, 0, Compare(Version{1, 2, 3}, Version{1, 2, 3}))
	assert.Equal(t, 1, Compare(Version{2, 0, 0}, Version{1, 99, 99}))
}
