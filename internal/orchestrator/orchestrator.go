// Package orchestrator plans and sequences a benchmark run: it resolves the
// release set, loads every artifact up front, then drives one browser
// session after another and reports each pass as soon as its session ends.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wesleyorama2/relbench/internal/artifact"
	"github.com/wesleyorama2/relbench/internal/browser"
	"github.com/wesleyorama2/relbench/internal/results"
	"github.com/wesleyorama2/relbench/internal/session"
	"github.com/wesleyorama2/relbench/internal/timer"
	"github.com/wesleyorama2/relbench/internal/version"
)

// CustomLabel names the ad hoc build in every table.
const CustomLabel = "custom"

// ErrNoTargets is logged, not returned, when nothing is configured to run.
var ErrNoTargets = errors.New("no browsers or capabilities configured")

// ArtifactSource loads prebuilt components.
type ArtifactSource interface {
	Load(benchmark, version string) (*artifact.Artifact, error)
}

// Reporter presents one finished pass.
type Reporter interface {
	Report(table *results.Table) error
}

// Options describe what to run.
type Options struct {
	// Versions is every known release in file order.
	Versions   []version.Version
	Benchmarks []string
	// Custom is a build location benchmarked ahead of the releases.
	Custom  string
	Targets []browser.Target

	Iterations    int
	Timer         timer.Options
	ScriptTimeout time.Duration
}

// Orchestrator runs the configured passes.
type Orchestrator struct {
	opts     Options
	source   ArtifactSource
	builder  artifact.Builder
	launcher browser.Launcher
	reporter Reporter
	logger   *slog.Logger
}

// New creates an orchestrator. builder may be nil when opts.Custom is empty.
func New(opts Options, source ArtifactSource, builder artifact.Builder, launcher browser.Launcher, reporter Reporter, logger *slog.Logger) *Orchestrator {
	if opts.ScriptTimeout <= 0 {
		opts.ScriptTimeout = session.DefaultScriptTimeout
	}
	return &Orchestrator{
		opts:     opts,
		source:   source,
		builder:  builder,
		launcher: launcher,
		reporter: reporter,
		logger:   logger,
	}
}

// Labels returns the version labels that will be benchmarked, with the
// custom build first when one is configured.
func (o *Orchestrator) Labels() []string {
	labels := version.Strings(version.Select(o.opts.Versions))
	if o.opts.Custom != "" {
		labels = append([]string{CustomLabel}, labels...)
	}
	return labels
}

// Combinations loads the artifact of every benchmark and version. A missing
// or malformed artifact fails the whole run before any browser starts.
func (o *Orchestrator) Combinations(labels []string) ([]session.Combination, error) {
	combos := make([]session.Combination, 0, len(o.opts.Benchmarks)*len(labels))
	for _, benchmark := range o.opts.Benchmarks {
		for _, label := range labels {
			a, err := o.source.Load(benchmark, label)
			if err != nil {
				return nil, err
			}
			combos = append(combos, session.Combination{
				Benchmark: benchmark,
				Version:   label,
				Artifact:  a,
			})
		}
	}
	return combos, nil
}

// Run executes every pass and returns the collected results. Passes run
// strictly one after another; a fatal session error stops the run after the
// partial table of that pass has been reported.
func (o *Orchestrator) Run(ctx context.Context) (*results.Store, error) {
	start := time.Now()
	logger := o.logger.With(slog.String("run_id", uuid.NewString()))
	store := results.NewStore()

	if len(o.opts.Targets) == 0 {
		logger.Warn(ErrNoTargets.Error())
		return store, nil
	}

	labels := o.Labels()
	logger.Info("running versions", slog.Any("versions", labels))

	if o.opts.Custom != "" {
		if o.builder == nil {
			return store, fmt.Errorf("custom build %s: no builder configured", o.opts.Custom)
		}
		if err := o.builder.Build(ctx, CustomLabel, o.opts.Custom); err != nil {
			return store, err
		}
	}

	combos, err := o.Combinations(labels)
	if err != nil {
		return store, err
	}

	runner := session.NewRunner(o.opts.Iterations, o.opts.Timer, logger)
	for _, target := range o.opts.Targets {
		if err := o.pass(ctx, runner, target, combos, store); err != nil {
			return store, err
		}
	}

	logger.Info("took", slog.Duration("elapsed", time.Since(start)))
	return store, nil
}

func (o *Orchestrator) pass(ctx context.Context, runner *session.Runner, target browser.Target, combos []session.Combination, store *results.Store) error {
	label := target.Label()

	sess, err := o.launcher.Open(ctx, target, browser.SessionOptions{ScriptTimeout: o.opts.ScriptTimeout})
	if err != nil {
		return fmt.Errorf("open session %s: %w", label, err)
	}

	table := store.NewPass(label)
	runErr := runner.Run(ctx, sess, label, combos, table)

	if o.reporter != nil {
		if err := o.reporter.Report(table); err != nil {
			return errors.Join(runErr, fmt.Errorf("report %s: %w", label, err))
		}
	}
	return runErr
}
