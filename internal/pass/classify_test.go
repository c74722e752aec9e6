package pass

import (
	"errors"
	"math"
	"testing"
	"time"
)

func testPass(band Band, snrs ...float64) Pass {
	base := time.Date(2026, 1, 7, 3, 0, 0, 0, time.UTC)
	p := Pass{
		Station:   "Anadyr",
		Satellite: "METEOR-M2_3",
		Band:      band,
		Start:     base,
		End:       base.Add(time.Duration(len(snrs)-1) * 5 * time.Second),
	}
	for i, snr := range snrs {
		p.Samples = append(p.Samples, Sample{
			Timestamp: base.Add(time.Duration(i) * 5 * time.Second),
			Satellite: p.Satellite,
			Band:      band,
			SNR:       snr,
		})
	}
	return p
}

func TestClassifier_ThresholdInclusiveOnValidSide(t *testing.T) {
	classifier, err := NewClassifier(Thresholds{BandL: 8.0, BandX: 7.0})
	if err != nil {
		t.Fatalf("creating classifier: %v", err)
	}

	testCases := []struct {
		name      string
		p         Pass
		wantPeak  float64
		wantMean  float64
		wantEmpty bool
	}{
		{"peak just below threshold", testPass(BandL, 3.0, 7.9, 5.0), 7.9, 5.3, true},
		{"peak equal to threshold", testPass(BandL, 3.0, 8.0, 5.0), 8.0, 16.0 / 3.0, false},
		{"peak above threshold", testPass(BandL, 9.5), 9.5, 9.5, false},
		{"x band has its own floor", testPass(BandX, 7.5, 6.0), 7.5, 6.75, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := classifier.Classify(tc.p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.PeakSNR != tc.wantPeak {
				t.Errorf("peak: expected %v, got %v", tc.wantPeak, got.PeakSNR)
			}
			if math.Abs(got.MeanSNR-tc.wantMean) > 1e-9 {
				t.Errorf("mean: expected %v, got %v", tc.wantMean, got.MeanSNR)
			}
			if got.Empty != tc.wantEmpty {
				t.Errorf("empty: expected %v, got %v", tc.wantEmpty, got.Empty)
			}
		})
	}
}

func TestClassifier_Idempotent(t *testing.T) {
	classifier, err := NewClassifier(DefaultThresholds())
	if err != nil {
		t.Fatalf("creating classifier: %v", err)
	}

	p := testPass(BandX, 2.0, 9.1, 4.4)
	first, err := classifier.Classify(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := classifier.Classify(first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.PeakSNR != second.PeakSNR || first.MeanSNR != second.MeanSNR || first.Empty != second.Empty {
		t.Errorf("classification is not idempotent: %+v vs %+v", first, second)
	}
	// The original pass must not be mutated.
	if p.PeakSNR != 0 || p.MeanSNR != 0 {
		t.Error("Classify mutated its input")
	}
}

func TestClassifier_UnknownBand(t *testing.T) {
	classifier, err := NewClassifier(Thresholds{BandX: 7.0})
	if err != nil {
		t.Fatalf("creating classifier: %v", err)
	}

	_, err = classifier.Classify(testPass(BandL, 5.0))
	if !errors.Is(err, ErrMissingThreshold) {
		t.Fatalf("expected ErrMissingThreshold, got %v", err)
	}
}

func TestClassifier_NoSamples(t *testing.T) {
	classifier, err := NewClassifier(DefaultThresholds())
	if err != nil {
		t.Fatalf("creating classifier: %v", err)
	}

	if _, err = classifier.Classify(Pass{Band: BandL}); err == nil {
		t.Fatal("expected error for pass without samples")
	}
}

func TestNewClassifier_EmptyTable(t *testing.T) {
	if _, err := NewClassifier(nil); err == nil {
		t.Fatal("expected error for empty threshold table")
	}
}
