package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/lorett/groundlink/internal/pass"
)

func testReport() *pass.Report {
	date := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	return &pass.Report{
		Date: date,
		Stations: []pass.StationResult{
			{
				Station: "Anadyr",
				Day: pass.StationDay{
					Station: "Anadyr",
					Date:    date,
					Passes: []pass.Pass{
						{Satellite: "METEOR-M2_3", Band: pass.BandL, Empty: false},
						{Satellite: "METEOR-M2_3", Band: pass.BandL, Empty: true},
						{Satellite: "NOAA_20", Band: pass.BandX, Empty: false},
					},
				},
				Rollup:  pass.Rollup{TotalPasses: 3, EmptyPasses: 1, EmptyRatio: 1.0 / 3},
				Skipped: map[pass.SkipReason]int{pass.SkipComment: 5, pass.SkipBadSNR: 2},
			},
			{Station: "Norilsk", Err: "portal timeout"},
		},
	}
}

func TestObserveReport(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	collector.ObserveReport(testReport())

	if got := testutil.ToFloat64(collector.PassesTotal.WithLabelValues("Anadyr", "L", "valid")); got != 1 {
		t.Errorf("valid L passes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.PassesTotal.WithLabelValues("Anadyr", "L", "empty")); got != 1 {
		t.Errorf("empty L passes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.PassesTotal.WithLabelValues("Anadyr", "X", "valid")); got != 1 {
		t.Errorf("valid X passes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.ParseSkips.WithLabelValues("comment")); got != 5 {
		t.Errorf("comment skips = %v, want 5", got)
	}
	if got := testutil.ToFloat64(collector.EmptyRatio.WithLabelValues("Anadyr")); got < 0.33 || got > 0.34 {
		t.Errorf("empty ratio = %v, want ~0.333", got)
	}

	// The failed station must not contribute pass metrics.
	if got := testutil.ToFloat64(collector.PassesTotal.WithLabelValues("Norilsk", "L", "valid")); got != 0 {
		t.Errorf("failed station recorded %v passes", got)
	}
}

func TestObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	collector.ObserveRun("success", 42*time.Second)
	collector.ObserveRun("error", time.Second)
	collector.ObserveRun("success", 10*time.Second)

	if got := testutil.ToFloat64(collector.RunsTotal.WithLabelValues("success")); got != 2 {
		t.Errorf("success runs = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.RunsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("error runs = %v, want 1", got)
	}
}

func TestObserveDownload(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	collector.ObserveDownload("success", 2048)
	collector.ObserveDownload("success", 1024)
	collector.ObserveDownload("error", 0)

	if got := testutil.ToFloat64(collector.DownloadsTotal.WithLabelValues("success")); got != 2 {
		t.Errorf("successful downloads = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.DownloadsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("failed downloads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.DownloadBytes); got != 3072 {
		t.Errorf("downloaded bytes = %v, want 3072", got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	collector.ObserveRun("success", time.Second)

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scraping: %v", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("reading scrape: %v", err)
	}
	if !strings.Contains(string(body), "groundlink_runs_total") {
		t.Error("scrape output missing run counter")
	}
}

func TestNewCollector_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewCollector(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewCollector(reg); err != nil {
		t.Fatalf("second registration should reuse collectors: %v", err)
	}
}
