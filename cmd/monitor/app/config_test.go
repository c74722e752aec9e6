package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lorett/groundlink/internal/pass"
)

const sampleConfig = `
settings:
  logLevel: debug
  schedule: "30 5 * * *"
stations:
  - Anadyr
  - Moscow
portal:
  pages:
    - http://eus.lorett.org/eus/logs_list.html
    - http://eus.lorett.org/eus/logs.html
  maxRetries: 5
  concurrency: 4
analysis:
  maxGap: 3m
  thresholds:
    X: 6.5
  commercial:
    - NOAA_20
storage:
  databasePath: data/groundlink.sqlite
email:
  host: smtp.example.org
  port: 465
  from: monitor@example.org
  to:
    - ops@example.org
server:
  addr: ":9090"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	if len(config.Stations) != 2 {
		t.Errorf("expected 2 stations, got %d", len(config.Stations))
	}
	if config.Settings.Schedule != "30 5 * * *" {
		t.Errorf("unexpected schedule: %s", config.Settings.Schedule)
	}
	if config.Settings.Level() != slog.LevelDebug {
		t.Errorf("unexpected log level: %v", config.Settings.Level())
	}
	if config.Analysis.GapDuration() != 3*time.Minute {
		t.Errorf("unexpected max gap: %s", config.Analysis.MaxGap)
	}
	if config.Email.Host != "smtp.example.org" || config.Email.Port != 465 {
		t.Errorf("unexpected email config: %+v", config.Email)
	}
	if config.Server.Addr != ":9090" {
		t.Errorf("unexpected server addr: %s", config.Server.Addr)
	}

	thresholds, err := config.Analysis.BandThresholds()
	if err != nil {
		t.Fatalf("building thresholds: %v", err)
	}
	if got := thresholds[pass.BandX]; got != 6.5 {
		t.Errorf("X threshold = %v, want 6.5", got)
	}
	// The L band keeps its default when the config does not name it.
	if got := thresholds[pass.BandL]; got != 0.0 {
		t.Errorf("L threshold = %v, want 0.0", got)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, `
stations: [Anadyr]
portal:
  pages: [http://eus.lorett.org/eus/logs_list.html]
storage:
  databasePath: data/groundlink.sqlite
`))
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if config.Settings.Schedule != defaultSchedule {
		t.Errorf("unexpected default schedule: %s", config.Settings.Schedule)
	}
	if config.Analysis.GapDuration() != 2*time.Minute {
		t.Errorf("unexpected default max gap: %s", config.Analysis.MaxGap)
	}
	if config.Settings.Level() != slog.LevelInfo {
		t.Errorf("unexpected default log level: %v", config.Settings.Level())
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"no stations", "portal:\n  pages: [http://x]\nstorage:\n  databasePath: d.sqlite\n"},
		{"no portal pages", "stations: [Anadyr]\nstorage:\n  databasePath: d.sqlite\n"},
		{"no database path", "stations: [Anadyr]\nportal:\n  pages: [http://x]\n"},
		{"bad threshold band", "stations: [Anadyr]\nportal:\n  pages: [http://x]\nstorage:\n  databasePath: d.sqlite\nanalysis:\n  thresholds:\n    K: 1.0\n"},
		{"bad max gap", "stations: [Anadyr]\nportal:\n  pages: [http://x]\nstorage:\n  databasePath: d.sqlite\nanalysis:\n  maxGap: fast\n"},
		{"malformed yaml", "stations: [\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tc.content)); err == nil {
				t.Error("expected configuration error")
			}
		})
	}
}

func TestReportDate(t *testing.T) {
	date, err := reportDate("2026-01-07")
	if err != nil {
		t.Fatalf("parsing date: %v", err)
	}
	want := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	if !date.Equal(want) {
		t.Errorf("got %s, want %s", date, want)
	}

	yesterday, err := reportDate("")
	if err != nil {
		t.Fatalf("default date: %v", err)
	}
	if want := pass.DateOf(time.Now().UTC()).AddDate(0, 0, -1); !yesterday.Equal(want) {
		t.Errorf("got %s, want previous UTC day %s", yesterday, want)
	}

	if _, err := reportDate("07.01.2026"); err == nil {
		t.Error("expected error for malformed date")
	}
}
