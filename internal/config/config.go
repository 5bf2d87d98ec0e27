// Package config holds the run configuration: defaults, the optional YAML
// file and the checks applied before any browser is started.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultIterations     = 5
	DefaultWarmupCycles   = 50
	DefaultWarmIterations = 5
	DefaultScriptTimeout  = 5 * time.Second

	DefaultVersionsFile  = "versions.json"
	DefaultBenchmarksDir = "benchmarks"
	DefaultArtifactsDir  = "public/benchmarks"
)

// DefaultBuildCommand is run with the arguments "custom <path>" to build
// an ad hoc checkout.
var DefaultBuildCommand = []string{"node", "scripts/build.js"}

// Config is the complete configuration of one relbench run.
type Config struct {
	// Browsers are local or remote browser names, e.g. chrome, firefox.
	Browsers []string `json:"browsers,omitempty" yaml:"browsers,omitempty" validate:"dive,required"`

	// Capabilities are raw remote session descriptors. They require Server.
	Capabilities []map[string]interface{} `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`

	// Server is the remote WebDriver endpoint.
	Server string `json:"server,omitempty" yaml:"server,omitempty" validate:"omitempty,url"`

	Iterations     int      `json:"iterations" yaml:"iterations" validate:"gte=1"`
	WarmupCycles   int      `json:"warmup" yaml:"warmup" validate:"gte=0"`
	WarmIterations int      `json:"warmIterations" yaml:"warmIterations" validate:"gte=1"`
	ScriptTimeout  Duration `json:"scriptTimeout" yaml:"scriptTimeout"`

	// Custom is a build location benchmarked under the label "custom".
	Custom string `json:"custom,omitempty" yaml:"custom,omitempty"`

	// Output receives a plain text copy of every table.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
	// JSONOutput receives the results store as JSON.
	JSONOutput string `json:"json,omitempty" yaml:"json,omitempty"`

	VersionsFile  string   `json:"versionsFile" yaml:"versionsFile" validate:"required"`
	BenchmarksDir string   `json:"benchmarksDir" yaml:"benchmarksDir" validate:"required"`
	ArtifactsDir  string   `json:"artifactsDir" yaml:"artifactsDir" validate:"required"`
	BuildCommand  []string `json:"buildCommand,omitempty" yaml:"buildCommand,omitempty"`

	// Headless and ChromeBin only affect locally launched Chromium.
	Headless  bool   `json:"headless" yaml:"headless"`
	ChromeBin string `json:"chromeBin,omitempty" yaml:"chromeBin,omitempty"`
}

// Default returns the configuration used when no file or flag says otherwise.
func Default() *Config {
	return &Config{
		Iterations:     DefaultIterations,
		WarmupCycles:   DefaultWarmupCycles,
		WarmIterations: DefaultWarmIterations,
		ScriptTimeout:  Duration(DefaultScriptTimeout),
		VersionsFile:   DefaultVersionsFile,
		BenchmarksDir:  DefaultBenchmarksDir,
		ArtifactsDir:   DefaultArtifactsDir,
		BuildCommand:   append([]string(nil), DefaultBuildCommand...),
		Headless:       true,
	}
}

// Load reads a YAML file on top of the defaults. Keys missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// ParseBrowsers splits a comma-separated browser list, dropping blanks.
func ParseBrowsers(raw string) []string {
	var out []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Duration is a time.Duration written as a string such as "5s" or "1m30s".
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Bare integers are milliseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.ShortTag() == "!!int" {
		var ms int64
		if err := value.Decode(&ms); err != nil {
			return err
		}
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	if s == "" {
		*d = 0
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}
