package pass

import (
	"strings"
	"testing"
	"time"
)

func testPipeline(t *testing.T, commercial ...string) *Pipeline {
	t.Helper()
	p, err := NewPipeline(Config{
		MaxGap:     2 * time.Minute,
		Thresholds: Thresholds{BandL: 8.0, BandX: 7.0},
		Commercial: commercial,
	})
	if err != nil {
		t.Fatalf("creating pipeline: %v", err)
	}
	return p
}

func TestPipeline_BuildStationDay(t *testing.T) {
	p := testPipeline(t)
	date := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)

	lines := []string{
		"#Station: Anadyr",
		// Two passes of METEOR (gap of 90 minutes between them), one of NOAA.
		"2026-01-07 03:11:21 METEOR-M2_3 L 7.35",
		"2026-01-07 03:11:26 METEOR-M2_3 L 9.10",
		"2026-01-07 04:41:00 METEOR-M2_3 L 2.00",
		"2026-01-07 03:30:00 NOAA_20 X 11.40",
		"not a record at all",
	}

	day, skips, err := p.BuildStationDay("Anadyr", lines, date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(day.Passes) != 3 {
		t.Fatalf("expected 3 passes, got %d", len(day.Passes))
	}
	if len(skips) != 2 {
		t.Fatalf("expected 2 skips, got %d", len(skips))
	}

	// Passes come back sorted by start time across satellites.
	for i := 1; i < len(day.Passes); i++ {
		if day.Passes[i].Start.Before(day.Passes[i-1].Start) {
			t.Fatal("passes are not sorted by start time")
		}
	}

	meteor := day.Passes[0]
	if meteor.Satellite != "METEOR-M2_3" || meteor.PeakSNR != 9.10 || meteor.Empty {
		t.Errorf("unexpected first pass: %+v", meteor)
	}
	lone := day.Passes[2]
	if lone.PeakSNR != 2.00 || !lone.Empty {
		t.Errorf("expected an empty single-sample pass, got %+v", lone)
	}
}

func TestPipeline_StationFailureIsIsolated(t *testing.T) {
	p := testPipeline(t)
	date := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)

	logs := map[string][]string{
		"Anadyr": {
			"2026-01-07 03:11:21 METEOR-M2_3 L 9.35",
		},
		"Moscow": {
			// Out of order: upstream contract violation, fatal for Moscow only.
			"2026-01-07 05:00:00 NOAA_20 X 11.40",
			"2026-01-07 04:00:00 NOAA_20 X 10.00",
		},
	}

	report := p.BuildReport(date, logs)
	if len(report.Stations) != 2 {
		t.Fatalf("expected 2 station results, got %d", len(report.Stations))
	}

	anadyr, moscow := report.Stations[0], report.Stations[1]
	if anadyr.Station != "Anadyr" || moscow.Station != "Moscow" {
		t.Fatalf("stations not sorted: %s, %s", anadyr.Station, moscow.Station)
	}
	if !anadyr.OK() {
		t.Errorf("healthy station reported error: %s", anadyr.Err)
	}
	if moscow.OK() {
		t.Error("unordered station should carry an error status")
	}
	if !strings.Contains(moscow.Err, "chronological") {
		t.Errorf("unexpected error text: %s", moscow.Err)
	}
	if report.Overall.TotalPasses != 1 {
		t.Errorf("failed station must not contribute passes, got %+v", report.Overall)
	}
}

func TestPipeline_CommercialFilter(t *testing.T) {
	p := testPipeline(t, "NOAA_20")
	date := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)

	logs := map[string][]string{
		"Anadyr": {
			"2026-01-07 03:11:21 METEOR-M2_3 L 9.35",
			"2026-01-07 05:00:00 NOAA_20 X 1.40",
		},
	}

	report := p.BuildReport(date, logs)
	station := report.Stations[0]

	if station.Rollup.TotalPasses != 2 {
		t.Errorf("expected 2 passes overall, got %+v", station.Rollup)
	}
	if len(station.Commercial) != 1 || station.Commercial[0].Satellite != "NOAA_20" {
		t.Fatalf("commercial stats wrong: %v", station.Commercial)
	}
	if station.CommercialRollup.TotalPasses != 1 || station.CommercialRollup.EmptyPasses != 1 {
		t.Errorf("unexpected commercial rollup: %+v", station.CommercialRollup)
	}
	if report.CommercialOverall.EmptyRatio != 1.0 {
		t.Errorf("unexpected overall commercial ratio: %v", report.CommercialOverall.EmptyRatio)
	}
}

func TestPipeline_ReprocessingIsReproducible(t *testing.T) {
	p := testPipeline(t)
	date := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	logs := map[string][]string{
		"Anadyr": {
			"2026-01-07 03:11:21 METEOR-M2_3 L 7.35",
			"2026-01-07 03:11:26 METEOR-M2_3 L 9.10",
			"2026-01-07 05:00:00 NOAA_20 X 1.40",
		},
	}

	first := p.BuildReport(date, logs)
	second := p.BuildReport(date, logs)

	if first.Overall != second.Overall {
		t.Errorf("reprocessing changed the rollup: %+v vs %+v", first.Overall, second.Overall)
	}
	if len(first.Stations) != len(second.Stations) {
		t.Fatal("reprocessing changed the station count")
	}
	for i := range first.Stations {
		if first.Stations[i].Rollup != second.Stations[i].Rollup {
			t.Errorf("station %s rollup differs between runs", first.Stations[i].Station)
		}
	}
}

func TestNewPipeline_Validation(t *testing.T) {
	if _, err := NewPipeline(Config{MaxGap: 0, Thresholds: DefaultThresholds()}); err == nil {
		t.Error("expected error for non-positive max gap")
	}
	if _, err := NewPipeline(Config{MaxGap: time.Minute}); err == nil {
		t.Error("expected error for missing thresholds")
	}
}
