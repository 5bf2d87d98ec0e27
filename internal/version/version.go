// Package version parses release identifiers and picks which releases get
// benchmarked.
package version

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

const (
	// EarliestCount is how many releases are always kept, in file order.
	EarliestCount = 5

	// LatestPatchLimit caps the number of latest-patch-per-minor releases
	// added on top of the earliest ones.
	LatestPatchLimit = 10
)

// Version is a major.minor.patch release identifier.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Parse parses "1.2.3" (a leading "v" is accepted).
func Parse(s string) (Version, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "v")
	if !semver.IsValid("v" + raw) {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}

	parts := strings.SplitN(raw, ".", 3)
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor.patch", s)
	}

	var v Version
	var err error
	if v.Major, err = strconv.Atoi(parts[0]); err != nil {
		return Version{}, fmt.Errorf("invalid major in %q: %w", s, err)
	}
	if v.Minor, err = strconv.Atoi(parts[1]); err != nil {
		return Version{}, fmt.Errorf("invalid minor in %q: %w", s, err)
	}
	if v.Patch, err = strconv.Atoi(parts[2]); err != nil {
		return Version{}, fmt.Errorf("invalid patch in %q: %w", s, err)
	}
	return v, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare orders two versions by semver precedence.
func Compare(a, b Version) int {
	return semver.Compare("v"+a.String(), "v"+b.String())
}

func (v Version) sameMinor(o Version) bool {
	return v.Major == o.Major && v.Minor == o.Minor
}

// ParseAll parses every identifier, keeping input order.
func ParseAll(ids []string) ([]Version, error) {
	out := make([]Version, 0, len(ids))
	for _, id := range ids {
		v, err := Parse(id)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// LoadFile reads a JSON array of version strings, e.g. versions.json.
func LoadFile(path string) ([]Version, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read versions file: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parse versions file %s: %w", path, err)
	}

	return ParseAll(ids)
}

// Select picks the releases to benchmark: the first EarliestCount distinct
// entries in input order, plus every release that is the highest patch of
// its major.minor line. At most LatestPatchLimit latest-patch releases are
// added; when more qualify the newest ones are kept. Repeated entries only
// count once and input order is preserved.
func Select(all []Version) []Version {
	keep := make([]bool, len(all))
	first := make(map[Version]bool, len(all))
	distinct := 0
	for i, v := range all {
		if first[v] {
			continue
		}
		first[v] = true
		if distinct < EarliestCount {
			keep[i] = true
			distinct++
		}
	}

	var latest []int
	seen := make(map[Version]bool, len(all))
	for i, v := range all {
		if seen[v] {
			continue
		}
		seen[v] = true
		if !keep[i] && isLatestPatch(all, i) {
			latest = append(latest, i)
		}
	}
	if len(latest) > LatestPatchLimit {
		sort.SliceStable(latest, func(a, b int) bool {
			return Compare(all[latest[a]], all[latest[b]]) > 0
		})
		latest = latest[:LatestPatchLimit]
	}
	for _, i := range latest {
		keep[i] = true
	}

	out := make([]Version, 0, len(all))
	for i, v := range all {
		if keep[i] {
			out = append(out, v)
		}
	}
	return out
}

func isLatestPatch(all []Version, i int) bool {
	v := all[i]
	for j, other := range all {
		if j != i && other.sameMinor(v) && other.Patch > v.Patch {
			return false
		}
	}
	return true
}

// Strings renders versions as their identifiers.
func Strings(vs []Version) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}
