package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/relbench/internal/artifact"
	"github.com/wesleyorama2/relbench/internal/browser"
	"github.com/wesleyorama2/relbench/internal/report"
	"github.com/wesleyorama2/relbench/internal/results"
	"github.com/wesleyorama2/relbench/internal/timer"
	"github.com/wesleyorama2/relbench/internal/version"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const okReply = `[{"type":"create:cold","value":3},{"type":"run:cold","value":0},{"type":"destroy:cold","value":1},` +
	`{"type":"create:warm","value":2},{"type":"run:warm","value":0},{"type":"destroy:warm","value":1}]`

type memorySource struct {
	loads   []string
	missing map[string]bool
}

func (m *memorySource) Load(benchmark, v string) (*artifact.Artifact, error) {
	key := benchmark + "/" + v
	m.loads = append(m.loads, key)
	if m.missing[key] {
		return nil, fmt.Errorf("%s: %w", key, artifact.ErrNotFound)
	}
	return &artifact.Artifact{Code: "window.Component = function () {};", Size: len(key)}, nil
}

type fakeSession struct {
	reply  string
	err    error
	failAt int
	calls  int
	quits  int
}

func (s *fakeSession) Navigate(context.Context, string) error { return nil }

func (s *fakeSession) ExecuteAsync(context.Context, string, ...interface{}) (string, error) {
	s.calls++
	if s.err != nil && (s.failAt == 0 || s.calls == s.failAt) {
		return "", s.err
	}
	return s.reply, nil
}

func (s *fakeSession) Quit(context.Context) error {
	s.quits++
	return nil
}

type fakeLauncher struct {
	opened   []string
	sessions []*fakeSession
	openErr  error
	sessErr  error
	failAt   int
}

func (l *fakeLauncher) Open(_ context.Context, target browser.Target, _ browser.SessionOptions) (browser.Session, error) {
	l.opened = append(l.opened, target.Label())
	if l.openErr != nil {
		return nil, l.openErr
	}
	s := &fakeSession{reply: okReply, err: l.sessErr, failAt: l.failAt}
	l.sessions = append(l.sessions, s)
	return s, nil
}

type recordingReporter struct {
	tables []*results.Table
}

func (r *recordingReporter) Report(table *results.Table) error {
	r.tables = append(r.tables, table)
	return nil
}

type recordingBuilder struct {
	built []string
	err   error
}

func (b *recordingBuilder) Build(_ context.Context, label, dir string) error {
	b.built = append(b.built, label+" "+dir)
	return b.err
}

func mustVersions(t *testing.T, ids ...string) []version.Version {
	t.Helper()
	vs, err := version.ParseAll(ids)
	require.NoError(t, err)
	return vs
}

func TestRun_EndToEnd(t *testing.T) {
	source := &memorySource{}
	launcher := &fakeLauncher{}
	reporter := &recordingReporter{}

	o := New(Options{
		Versions:   mustVersions(t, "1.0.0", "1.1.0", "1.1.1"),
		Benchmarks: []string{"todo"},
		Targets:    []browser.Target{browser.BrowserTarget("chrome")},
		Iterations: 1,
		Timer:      timer.DefaultOptions(),
	}, source, nil, launcher, reporter, testLogger)

	store, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"todo/1.0.0", "todo/1.1.0", "todo/1.1.1"}, source.loads)
	assert.Equal(t, []string{"chrome"}, launcher.opened)
	require.Len(t, launcher.sessions, 1)
	assert.Equal(t, 3, launcher.sessions[0].calls)
	assert.Equal(t, 1, launcher.sessions[0].quits)

	passes := store.Passes()
	require.Len(t, passes, 1)
	table := passes[0]
	assert.Equal(t, 3, table.Len("todo"))
	assert.Equal(t, []string{"1.0.0", "1.1.0", "1.1.1"}, table.Versions("todo"))

	entry, ok := table.Entry("todo", "1.1.0")
	require.True(t, ok)
	assert.False(t, entry.Failed())

	require.Len(t, reporter.tables, 1)
	assert.Same(t, table, reporter.tables[0])
}

func TestRun_NoTargetsWarns(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	source := &memorySource{}
	launcher := &fakeLauncher{}
	builder := &recordingBuilder{}

	o := New(Options{
		Versions:   mustVersions(t, "1.0.0"),
		Benchmarks: []string{"todo"},
		Custom:     "../checkout",
	}, source, builder, launcher, nil, logger)

	store, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, store.Passes())
	assert.Empty(t, source.loads)
	assert.Empty(t, builder.built)
	assert.Empty(t, launcher.opened)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), ErrNoTargets.Error())
}

func TestRun_MissingArtifactIsFatal(t *testing.T) {
	source := &memorySource{missing: map[string]bool{"todo/1.1.0": true}}
	launcher := &fakeLauncher{}

	o := New(Options{
		Versions:   mustVersions(t, "1.0.0", "1.1.0"),
		Benchmarks: []string{"todo"},
		Targets:    []browser.Target{browser.BrowserTarget("chrome")},
	}, source, nil, launcher, nil, testLogger)

	_, err := o.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, artifact.ErrNotFound)
	assert.Empty(t, launcher.opened, "no session may start after a startup error")
}

func TestRun_CustomBuildFirst(t *testing.T) {
	source := &memorySource{}
	builder := &recordingBuilder{}
	launcher := &fakeLauncher{}

	o := New(Options{
		Versions:   mustVersions(t, "1.0.0"),
		Benchmarks: []string{"todo"},
		Custom:     "../checkout",
		Targets:    []browser.Target{browser.BrowserTarget("chrome")},
		Iterations: 1,
	}, source, builder, launcher, nil, testLogger)

	store, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"custom ../checkout"}, builder.built)
	assert.Equal(t, []string{"todo/custom", "todo/1.0.0"}, source.loads)
	assert.Equal(t, []string{"custom", "1.0.0"}, store.Passes()[0].Versions("todo"))
}

func TestRun_CustomBuildFailureStopsRun(t *testing.T) {
	builder := &recordingBuilder{err: errors.New("compile error")}
	launcher := &fakeLauncher{}

	o := New(Options{
		Versions:   mustVersions(t, "1.0.0"),
		Benchmarks: []string{"todo"},
		Custom:     "../checkout",
		Targets:    []browser.Target{browser.BrowserTarget("chrome")},
	}, &memorySource{}, builder, launcher, nil, testLogger)

	_, err := o.Run(context.Background())
	assert.EqualError(t, err, "compile error")
	assert.Empty(t, launcher.opened)
}

func TestRun_SequentialPasses(t *testing.T) {
	launcher := &fakeLauncher{}
	reporter := &recordingReporter{}

	o := New(Options{
		Versions:   mustVersions(t, "1.0.0", "2.0.0"),
		Benchmarks: []string{"list", "todo"},
		Targets: []browser.Target{
			browser.BrowserTarget("chrome"),
			browser.CapabilityTarget(map[string]interface{}{"browserName": "firefox", "browserVersion": "121"}),
		},
		Iterations: 2,
	}, &memorySource{}, nil, launcher, reporter, testLogger)

	store, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"chrome", "firefox 121"}, launcher.opened)
	require.Len(t, store.Passes(), 2)
	require.Len(t, reporter.tables, 2)
	for i, s := range launcher.sessions {
		assert.Equal(t, 8, s.calls, "session %d", i)
		assert.Equal(t, 1, s.quits, "session %d", i)
	}
	assert.Equal(t, []string{"list", "todo"}, store.Passes()[1].Benchmarks())
}

func TestRun_FatalSessionErrorStops(t *testing.T) {
	launcher := &fakeLauncher{sessErr: errors.New("session deleted")}
	reporter := &recordingReporter{}

	o := New(Options{
		Versions:   mustVersions(t, "1.0.0"),
		Benchmarks: []string{"todo"},
		Targets:    []browser.Target{browser.BrowserTarget("chrome"), browser.BrowserTarget("firefox")},
	}, &memorySource{}, nil, launcher, reporter, testLogger)

	_, err := o.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session deleted")
	assert.Equal(t, []string{"chrome"}, launcher.opened)
	assert.Equal(t, 1, launcher.sessions[0].quits)
	assert.Len(t, reporter.tables, 1)
}

func TestRun_OpenErrorIsFatal(t *testing.T) {
	launcher := &fakeLauncher{openErr: errors.New("no such browser")}

	o := New(Options{
		Versions:   mustVersions(t, "1.0.0"),
		Benchmarks: []string{"todo"},
		Targets:    []browser.Target{browser.BrowserTarget("opera")},
	}, &memorySource{}, nil, launcher, nil, testLogger)

	_, err := o.Run(context.Background())
	assert.EqualError(t, err, "open session opera: no such browser")
}

func TestLabels(t *testing.T) {
	ids := []string{"0.1.0", "0.1.1", "0.2.0", "0.3.0", "0.4.0", "0.5.0", "0.5.1", "0.6.0"}

	o := New(Options{Versions: mustVersions(t, ids...)}, nil, nil, nil, nil, testLogger)
	assert.Equal(t, []string{"0.1.0", "0.1.1", "0.2.0", "0.3.0", "0.4.0", "0.5.1", "0.6.0"}, o.Labels())

	o = New(Options{Versions: mustVersions(t, ids...), Custom: "."}, nil, nil, nil, nil, testLogger)
	assert.Equal(t, "custom", o.Labels()[0])
}

func TestRun_AbortedCombinationReportedAsError(t *testing.T) {
	launcher := &fakeLauncher{sessErr: errors.New("no such window"), failAt: 2}
	var console bytes.Buffer
	reporter := report.New(report.Options{Writer: &console, ForceColor: true})

	o := New(Options{
		Versions:   mustVersions(t, "1.0.0", "1.1.0"),
		Benchmarks: []string{"todo"},
		Targets:    []browser.Target{browser.BrowserTarget("chrome")},
		Iterations: 1,
	}, &memorySource{}, nil, launcher, reporter, testLogger)

	store, err := o.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "todo 1.1.0: no such window")

	aborted, ok := store.Passes()[0].Entry("todo", "1.1.0")
	require.True(t, ok)
	assert.True(t, aborted.Failed())

	const best = "\x1b[42m"
	var finished, failed string
	for _, line := range strings.Split(console.String(), "\n") {
		switch {
		case strings.Contains(line, " 1.0.0 "):
			finished = line
		case strings.Contains(line, " 1.1.0 "):
			failed = line
		}
	}
	require.NotEmpty(t, finished)
	require.NotEmpty(t, failed)
	assert.Equal(t, 6, strings.Count(finished, best), "the only finished entry is best everywhere")
	assert.NotContains(t, failed, best)
	assert.Contains(t, failed, `"no such window"`)
}
