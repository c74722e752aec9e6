package pass

import (
	"fmt"
	"strings"
	"time"
)

// Band is the receiver frequency class of a ground station link.
// L and X band links have materially different noise floors, so thresholds
// and statistics are always kept per band.
type Band string

const (
	BandL Band = "L"
	BandX Band = "X"
)

// ParseBand converts a raw band code into a Band. Matching is
// case-insensitive and restricted to the closed set {L, X}; anything else
// is an error, never a silent default.
func ParseBand(code string) (Band, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "L":
		return BandL, nil
	case "X":
		return BandX, nil
	default:
		return "", fmt.Errorf("unrecognized band code %q", code)
	}
}

// Sample is a single SNR measurement from a station reception log.
// Timestamps are always in UTC. SNR is guaranteed finite by the parser.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Satellite string    `json:"satellite"`
	Band      Band      `json:"band"`
	SNR       float64   `json:"snr"`
}

// Pass is a contiguous interval of samples judged to be one physical
// overflight of a ground station. Start/End/Samples are set by the
// segmenter; PeakSNR/MeanSNR/Empty by the classifier.
type Pass struct {
	Station   string    `json:"station"`
	Satellite string    `json:"satellite"`
	Band      Band      `json:"band"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Samples   []Sample  `json:"samples,omitempty"`

	PeakSNR float64 `json:"peakSNR"`
	MeanSNR float64 `json:"meanSNR"`
	Empty   bool    `json:"empty"`
}

// Duration returns the wall time covered by the pass. A single-sample
// pass has duration zero.
func (p *Pass) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// StationDay is the unit of daily reporting: every classified pass one
// station produced on one calendar date. It is built fresh per invocation
// and never mutated afterwards.
type StationDay struct {
	Station string    `json:"station"`
	Date    time.Time `json:"date"` // UTC midnight of the calendar date
	Passes  []Pass    `json:"passes"`
}

// SatelliteStat is a per-satellite aggregate over a date window. It is a
// read-only projection recomputed from Pass records on every request; it
// carries no reference back to the passes it was derived from.
type SatelliteStat struct {
	Satellite   string  `json:"satellite"`
	TotalPasses int     `json:"totalPasses"`
	EmptyPasses int     `json:"emptyPasses"`
	EmptyRatio  float64 `json:"emptyRatio"`
}

// Rollup is the station-level aggregate over a date window.
type Rollup struct {
	TotalPasses int     `json:"totalPasses"`
	EmptyPasses int     `json:"emptyPasses"`
	EmptyRatio  float64 `json:"emptyRatio"`
}
