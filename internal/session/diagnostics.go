package session

import (
	"log/slog"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// roundTrips tracks how long each remote timer invocation took, as seen from
// this side of the wire. Range: 1 microsecond to 10 minutes, 3 significant
// figures.
type roundTrips struct {
	hist     *hdrhistogram.Histogram
	timeouts int
}

func newRoundTrips() *roundTrips {
	return &roundTrips{
		hist: hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3),
	}
}

func (r *roundTrips) record(d time.Duration) {
	micros := d.Microseconds()
	if micros < 1 {
		micros = 1
	}
	// values past the range are clamped rather than dropped
	if limit := r.hist.HighestTrackableValue(); micros > limit {
		micros = limit
	}
	_ = r.hist.RecordValue(micros)
}

func (r *roundTrips) timeout() {
	r.timeouts++
}

func (r *roundTrips) count() int64 {
	return r.hist.TotalCount()
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}

func (r *roundTrips) log(logger *slog.Logger) {
	if r.count() == 0 {
		return
	}
	logger.Info("session round trips",
		slog.Int64("calls", r.count()),
		slog.Int("timeouts", r.timeouts),
		slog.Duration("min", micros(r.hist.Min())),
		slog.Duration("p50", micros(r.hist.ValueAtQuantile(50))),
		slog.Duration("p99", micros(r.hist.ValueAtQuantile(99))),
		slog.Duration("max", micros(r.hist.Max())),
	)
}
