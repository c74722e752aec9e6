package storage

import (
	"time"

	"github.com/lorett/groundlink/internal/pass"
)

// RunData describes one analysis run: when it started, which report date it
// processed and the pipeline configuration it ran with (JSON).
type RunData struct {
	ID         int64
	StartedAt  time.Time
	ReportDate time.Time
	Config     *string
}

// StoredPass is the persisted form of a classified pass. Individual samples
// are not persisted; only the pass boundaries and the derived metrics are,
// which is all the reports and charts ever read back.
type StoredPass struct {
	ID          int64
	RunID       int64
	Station     string
	Satellite   string
	Band        pass.Band
	Date        time.Time // UTC calendar date of the pass
	Start       time.Time
	End         time.Time
	SampleCount int
	PeakSNR     float64
	MeanSNR     float64
	Empty       bool
}

// Pass converts the stored row back into a core pass (without samples) so
// report consumers can feed it straight into the aggregator.
func (s *StoredPass) Pass() pass.Pass {
	return pass.Pass{
		Station:   s.Station,
		Satellite: s.Satellite,
		Band:      s.Band,
		Start:     s.Start,
		End:       s.End,
		PeakSNR:   s.PeakSNR,
		MeanSNR:   s.MeanSNR,
		Empty:     s.Empty,
	}
}

// DayAggregate is the per-day pass tally used for trend charts.
type DayAggregate struct {
	Day         time.Time
	TotalPasses int
	EmptyPasses int
}

// EmptyPercent is the day's empty share in percent, 0 for a day with no
// passes.
func (d DayAggregate) EmptyPercent() float64 {
	if d.TotalPasses == 0 {
		return 0
	}
	return float64(d.EmptyPasses) / float64(d.TotalPasses) * 100
}
