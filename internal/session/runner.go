// Package session drives one browser session through every benchmark
// combination and aggregates what the in-page timer reports.
package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/wesleyorama2/relbench/internal/artifact"
	"github.com/wesleyorama2/relbench/internal/browser"
	"github.com/wesleyorama2/relbench/internal/measure"
	"github.com/wesleyorama2/relbench/internal/results"
	"github.com/wesleyorama2/relbench/internal/timer"
)

const (
	DefaultIterations    = 5
	DefaultScriptTimeout = 5 * time.Second
)

// Combination is one (version, benchmark) unit of work bound to its artifact.
type Combination struct {
	Benchmark string
	Version   string
	Artifact  *artifact.Artifact
}

// PageURL wraps the artifact's code in a minimal page and encodes it as a
// data URL, so each load needs no file or network access.
func (c Combination) PageURL() string {
	page := "<body>\n<script>\n" + c.Artifact.Code + "\n</script>\n</body>"
	return "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(page))
}

// Runner runs combinations in one session. Sessions are run one after
// another, so a Runner never shares a table with another in-flight session.
type Runner struct {
	Iterations int
	Timer      timer.Options
	Logger     *slog.Logger
}

// NewRunner creates a runner taking iterations samples per combination.
func NewRunner(iterations int, opts timer.Options, logger *slog.Logger) *Runner {
	if iterations < 1 {
		iterations = DefaultIterations
	}
	return &Runner{
		Iterations: iterations,
		Timer:      opts,
		Logger:     logger,
	}
}

// Run drives sess through combos in order, writing one entry per combination
// into table. Any remote failure other than a script timeout aborts the
// remaining combinations. The session is quit on every path.
func (r *Runner) Run(ctx context.Context, sess browser.Session, label string, combos []Combination, table *results.Table) (err error) {
	logger := r.Logger.With(slog.String("target", label))
	trips := newRoundTrips()

	defer func() {
		trips.log(logger)
		if qerr := sess.Quit(context.WithoutCancel(ctx)); qerr != nil {
			if err == nil {
				err = fmt.Errorf("%s: %w", label, qerr)
				return
			}
			logger.Warn("failed to quit session", slog.String("error", qerr.Error()))
		}
	}()

	for _, c := range combos {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.runCombination(ctx, sess, logger, c, table, trips); err != nil {
			return fmt.Errorf("%s: %s %s: %w", label, c.Benchmark, c.Version, err)
		}
	}
	return nil
}

func (r *Runner) runCombination(ctx context.Context, sess browser.Session, logger *slog.Logger, c Combination, table *results.Table, trips *roundTrips) error {
	logger.Info("testing",
		slog.String("version", c.Version),
		slog.String("benchmark", c.Benchmark),
	)

	entry := table.Begin(c.Benchmark, c.Version, c.Artifact.Size)
	url := c.PageURL()
	opts := r.Timer.WithShape(c.Artifact.Shape)

	records := make([]measure.Record, 0, r.Iterations*len(measure.Kinds))
	for i := 0; i < r.Iterations; i++ {
		sample, err := r.sample(ctx, sess, url, opts, trips)
		if err != nil {
			entry.Abort(err)
			return err
		}
		records = append(records, sample...)
	}

	entry.Finalize(records)
	if entry.Failed() {
		logger.Warn("combination failed",
			slog.String("version", c.Version),
			slog.String("benchmark", c.Benchmark),
			slog.String("error", entry.Error),
		)
	}
	return nil
}

// sample loads the page once and runs the timer in it. Script timeouts and
// malformed replies become error records; anything else is returned.
func (r *Runner) sample(ctx context.Context, sess browser.Session, url string, opts timer.Options, trips *roundTrips) ([]measure.Record, error) {
	if err := sess.Navigate(ctx, url); err != nil {
		return nil, err
	}

	start := time.Now()
	reply, err := sess.ExecuteAsync(ctx, timer.Script(), opts)
	trips.record(time.Since(start))
	if err != nil {
		if browser.IsTimeout(err) {
			trips.timeout()
			return []measure.Record{measure.ErrorRecord(browser.TimeoutSignature)}, nil
		}
		return nil, err
	}

	records, err := timer.Decode(reply)
	if err != nil {
		return []measure.Record{measure.ErrorRecord(err.Error())}, nil
	}
	return records, nil
}
