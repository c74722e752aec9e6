package pass

import (
	"math"
	"testing"
	"time"
)

func TestParseLine(t *testing.T) {
	testCases := []struct {
		name   string
		line   string
		want   Sample
		reason SkipReason // empty means the line must parse
	}{
		{
			name: "plain record",
			line: "2026-01-07 03:11:21 METEOR-M2_3 L 7.35",
			want: Sample{
				Timestamp: time.Date(2026, 1, 7, 3, 11, 21, 0, time.UTC),
				Satellite: "METEOR-M2_3",
				Band:      BandL,
				SNR:       7.35,
			},
		},
		{
			name: "fractional seconds and tabs",
			line: "2026-01-07\t03:11:21.421\tNOAA_20\tX\t12.5",
			want: Sample{
				Timestamp: time.Date(2026, 1, 7, 3, 11, 21, 421000000, time.UTC),
				Satellite: "NOAA_20",
				Band:      BandX,
				SNR:       12.5,
			},
		},
		{
			name: "lowercase band code",
			line: "2026-01-07 03:11:22 NOAA_20 x 11.0",
			want: Sample{
				Timestamp: time.Date(2026, 1, 7, 3, 11, 22, 0, time.UTC),
				Satellite: "NOAA_20",
				Band:      BandX,
				SNR:       11.0,
			},
		},
		{name: "garbage", line: "garbage", reason: SkipShortLine},
		{name: "blank", line: "   ", reason: SkipComment},
		{name: "header", line: "#Time Satellite Band SNR", reason: SkipComment},
		{name: "bad timestamp", line: "2026-13-40 99:99:99 NOAA_20 X 11.0", reason: SkipBadTimestamp},
		{name: "unknown band", line: "2026-01-07 03:11:21 NOAA_20 S 11.0", reason: SkipBadBand},
		{name: "missing snr", line: "2026-01-07 03:11:21 NOAA_20 X", reason: SkipShortLine},
		{name: "non numeric snr", line: "2026-01-07 03:11:21 NOAA_20 X n/a", reason: SkipBadSNR},
		{name: "nan snr", line: "2026-01-07 03:11:21 NOAA_20 X NaN", reason: SkipNonFinite},
		{name: "inf snr", line: "2026-01-07 03:11:21 NOAA_20 X -Inf", reason: SkipNonFinite},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sample, skip := ParseLine(tc.line)

			if tc.reason != "" {
				if skip == nil {
					t.Fatalf("expected skip %q, got sample %+v", tc.reason, sample)
				}
				if skip.Reason != tc.reason {
					t.Errorf("expected skip reason %q, got %q", tc.reason, skip.Reason)
				}
				return
			}

			if skip != nil {
				t.Fatalf("unexpected skip: %s", skip)
			}
			if !sample.Timestamp.Equal(tc.want.Timestamp) {
				t.Errorf("timestamp: expected %s, got %s", tc.want.Timestamp, sample.Timestamp)
			}
			if sample.Satellite != tc.want.Satellite {
				t.Errorf("satellite: expected %q, got %q", tc.want.Satellite, sample.Satellite)
			}
			if sample.Band != tc.want.Band {
				t.Errorf("band: expected %q, got %q", tc.want.Band, sample.Band)
			}
			if sample.SNR != tc.want.SNR {
				t.Errorf("snr: expected %v, got %v", tc.want.SNR, sample.SNR)
			}
		})
	}
}

func TestParseLines_PartialResults(t *testing.T) {
	// A corrupted line must not poison the rest of the log.
	lines := []string{
		"#Station: R4.6S_Anadyr",
		"2026-01-07 03:11:21 METEOR-M2_3 L 7.35",
		"garbage",
		"2026-01-07 03:11:26 METEOR-M2_3 L 8.10",
	}

	samples, skips := ParseLines(lines)
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if len(skips) != 2 {
		t.Fatalf("expected 2 skips, got %d", len(skips))
	}
	if skips[0].Reason != SkipComment || skips[1].Reason != SkipShortLine {
		t.Errorf("unexpected skip reasons: %v, %v", skips[0].Reason, skips[1].Reason)
	}
	if !samples[1].Timestamp.After(samples[0].Timestamp) {
		t.Error("samples should keep input order")
	}
}

func TestParseLine_NeverNonFinite(t *testing.T) {
	for _, raw := range []string{"NaN", "+Inf", "-Inf", "Infinity"} {
		sample, skip := ParseLine("2026-01-07 03:11:21 NOAA_20 X " + raw)
		if skip == nil && (math.IsNaN(sample.SNR) || math.IsInf(sample.SNR, 0)) {
			t.Errorf("%s: non-finite SNR leaked through the parser", raw)
		}
	}
}
