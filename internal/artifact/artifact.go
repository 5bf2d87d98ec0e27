// Package artifact reads the prebuilt per-version component bundles that the
// sessions load into the browser.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrNotFound is returned when no prebuilt artifact exists for a combination.
var ErrNotFound = errors.New("artifact not found")

// TeardownKind names the single teardown entry point a component exposes.
type TeardownKind string

const (
	TeardownDestroy TeardownKind = "destroy"
	TeardownLegacy  TeardownKind = "teardown"
)

// Shape describes which lifecycle entry points a component exposes. It is
// fixed when the artifact is built.
type Shape struct {
	Run      bool         `json:"run"`
	Teardown TeardownKind `json:"teardown"`
}

// Artifact is one built component: a self-contained script plus its
// minified, gzipped size in bytes.
type Artifact struct {
	Code  string `json:"code"`
	Size  int    `json:"size"`
	Shape *Shape `json:"shape,omitempty"`
}

const componentSchema = `{
  "type": "object",
  "required": ["code", "size"],
  "properties": {
    "code": {"type": "string"},
    "size": {"type": "integer", "minimum": 0},
    "shape": {
      "type": "object",
      "required": ["run", "teardown"],
      "properties": {
        "run": {"type": "boolean"},
        "teardown": {"enum": ["destroy", "teardown"]}
      }
    }
  }
}`

var schema = jsonschema.MustCompileString("component.schema.json", componentSchema)

// Decode parses and validates a component.json document.
func Decode(data []byte) (*Artifact, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("invalid artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("invalid artifact: %w", err)
	}
	return &a, nil
}

// Store reads artifacts laid out as <root>/<benchmark>/<version>/component.json.
type Store struct {
	Root string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Root: dir}
}

// Path returns the component.json location for a combination.
func (s *Store) Path(benchmark, version string) string {
	return filepath.Join(s.Root, benchmark, version, "component.json")
}

// Load reads the artifact for one benchmark at one version.
func (s *Store) Load(benchmark, version string) (*Artifact, error) {
	path := s.Path(benchmark, version)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s/%s (%s)", ErrNotFound, benchmark, version, path)
		}
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}

	a, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// DiscoverBenchmarks lists the benchmark scenarios: every subdirectory of dir
// whose name does not start with a dot, sorted by name.
func DiscoverBenchmarks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read benchmarks dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
