package pass

import (
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"
)

// ErrMissingThreshold is returned when classification hits a band without a
// configured SNR threshold. Guessing a threshold would silently corrupt
// classification, so the run must stop instead.
var ErrMissingThreshold = errors.New("no SNR threshold configured for band")

// Thresholds is the per-band SNR threshold table. A pass whose peak SNR
// never reaches its band threshold is an empty pass.
type Thresholds map[Band]float64

// DefaultThresholds mirrors the monitor's historical failure thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{BandL: 0.0, BandX: 7.0}
}

// For looks up the threshold for a band. The lookup is total over {L, X}
// only when both are configured; any other band is a configuration error.
func (t Thresholds) For(b Band) (float64, error) {
	v, ok := t[b]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMissingThreshold, b)
	}
	return v, nil
}

// Classifier labels segmented passes as signal-bearing or empty. The
// threshold table is fixed at construction; classification reads no ambient
// state, so re-classifying the same pass is idempotent.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier creates a Classifier over the given threshold table.
func NewClassifier(thresholds Thresholds) (*Classifier, error) {
	if len(thresholds) == 0 {
		return nil, errors.New("threshold table is empty")
	}
	return &Classifier{thresholds: thresholds}, nil
}

// Classify computes PeakSNR and MeanSNR for a segmented pass and marks it
// empty when the peak stays below the band threshold. The threshold is
// inclusive on the valid side: peak equal to the threshold is a valid pass.
// The input is not mutated; the enriched copy is returned.
func (c *Classifier) Classify(p Pass) (Pass, error) {
	if len(p.Samples) == 0 {
		return Pass{}, fmt.Errorf("pass %s/%s has no samples", p.Satellite, p.Band)
	}

	threshold, err := c.thresholds.For(p.Band)
	if err != nil {
		return Pass{}, err
	}

	values := make([]float64, len(p.Samples))
	for i, s := range p.Samples {
		values[i] = s.SNR
	}

	peak, err := stats.Max(values)
	if err != nil {
		return Pass{}, fmt.Errorf("computing peak SNR: %w", err)
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return Pass{}, fmt.Errorf("computing mean SNR: %w", err)
	}

	p.PeakSNR = peak
	p.MeanSNR = mean
	p.Empty = peak < threshold
	return p, nil
}
