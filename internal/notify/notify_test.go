package notify

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/lorett/groundlink/internal/pass"
)

func testLoggerDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testReport() *pass.Report {
	return &pass.Report{
		Date: time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC),
		Stations: []pass.StationResult{
			{
				Station: "Anadyr",
				Rollup:  pass.Rollup{TotalPasses: 20, EmptyPasses: 1, EmptyRatio: 0.05},
				CommercialRollup: pass.Rollup{
					TotalPasses: 4, EmptyPasses: 0, EmptyRatio: 0,
				},
			},
			{
				Station: "Moscow",
				Rollup:  pass.Rollup{TotalPasses: 10, EmptyPasses: 2, EmptyRatio: 0.2},
			},
			{
				Station: "Murmansk",
				Rollup:  pass.Rollup{},
			},
			{
				Station: "Norilsk",
				Err:     "portal timeout",
			},
		},
		Overall: pass.Rollup{TotalPasses: 30, EmptyPasses: 3, EmptyRatio: 0.1},
	}
}

func TestRowClass(t *testing.T) {
	testCases := []struct {
		name    string
		total   int
		percent float64
		want    string
	}{
		{"no passes", 0, 0, "row-error"},
		{"clean day", 20, 0, "row-good"},
		{"at good boundary", 20, 5, "row-good"},
		{"above good boundary", 20, 5.1, "row-warning"},
		{"at warning boundary", 20, 25, "row-warning"},
		{"above warning boundary", 20, 25.1, "row-error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rowClass(tc.total, tc.percent); got != tc.want {
				t.Errorf("rowClass(%d, %v) = %s, want %s", tc.total, tc.percent, got, tc.want)
			}
		})
	}
}

func TestBuildBody(t *testing.T) {
	body, err := BuildBody(testReport(), true)
	if err != nil {
		t.Fatalf("building body: %v", err)
	}

	for _, want := range []string{
		"Reception report 2026-01-07",
		"Anadyr",
		"5.0%",
		`<tr class="row-good">`,
		`<tr class="row-warning">`,
		`<tr class="row-error">`,
		"Norilsk",
		"portal timeout",
		"Commercial satellites",
		"cid:" + ChartCID,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}

	// The station with zero passes and the failed station both flag red.
	if got := strings.Count(body, "row-error"); got < 2 {
		t.Errorf("expected at least 2 error rows, got %d", got)
	}
}

func TestBuildBody_WithoutChart(t *testing.T) {
	body, err := BuildBody(testReport(), false)
	if err != nil {
		t.Fatalf("building body: %v", err)
	}
	if strings.Contains(body, "cid:") {
		t.Error("chart reference present in chartless body")
	}
}

func TestBuildMessage_MultipartRelated(t *testing.T) {
	img := InlineImage{CID: ChartCID, Name: "chart.png", Data: []byte{0x89, 'P', 'N', 'G'}}

	msg, err := buildMessage("monitor@example.org", []string{"ops@example.org"}, []string{"lead@example.org"},
		"Reception report", "<html><body>hi</body></html>", []InlineImage{img})
	if err != nil {
		t.Fatalf("building message: %v", err)
	}

	text := string(msg)
	for _, want := range []string{
		"From: monitor@example.org",
		"To: ops@example.org",
		"Cc: lead@example.org",
		"multipart/related",
		"Content-Type: text/html; charset=utf-8",
		"Content-Id: <" + ChartCID + ">",
		"Content-Transfer-Encoding: base64",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestBuildMessage_PlainHTMLWithoutImages(t *testing.T) {
	msg, err := buildMessage("monitor@example.org", []string{"ops@example.org"}, nil,
		"Reception report", "<html><body>hi</body></html>", nil)
	if err != nil {
		t.Fatalf("building message: %v", err)
	}

	text := string(msg)
	if strings.Contains(text, "multipart") {
		t.Error("expected single part message without images")
	}
	if !strings.Contains(text, "Content-Type: text/html; charset=utf-8") {
		t.Error("missing HTML content type")
	}
}

func TestSend_NotConfigured(t *testing.T) {
	s := NewSender(Config{Host: "smtp.example.org", Port: 587}, testLoggerDiscard())
	if err := s.Send("subject", "<html></html>", nil); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
