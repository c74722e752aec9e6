package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"time"

	"github.com/lorett/groundlink/internal/chart"
	"github.com/lorett/groundlink/internal/notify"
	"github.com/lorett/groundlink/internal/pass"
)

const chartWindowDays = 7

// runReport executes one full report cycle for a UTC date: fetch the
// day's logs, run the pass pipeline, persist the results, and send the
// report email.
func (m *monitor) runReport(ctx context.Context, date time.Time) error {
	started := time.Now()
	m.logger.Info("report run starting", "date", date.Format(time.DateOnly))

	err := m.report(ctx, date)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.collector.ObserveRun(outcome, time.Since(started))

	if err != nil {
		return err
	}
	m.logger.Info("report run finished",
		"date", date.Format(time.DateOnly),
		"elapsed", time.Since(started).Round(time.Second))
	return nil
}

func (m *monitor) report(ctx context.Context, date time.Time) error {
	logs, err := m.client.FetchLogs(ctx, date, m.config.Stations)
	if err != nil {
		return fmt.Errorf("fetching logs: %w", err)
	}

	// Stations with no logs at all still appear in the report so an
	// outage is visible, not silently absent.
	for _, station := range m.config.Stations {
		if _, ok := logs[station]; !ok {
			logs[station] = nil
		}
	}

	report := m.pipeline.BuildReport(date, logs)
	m.collector.ObserveReport(report)

	if err := m.persist(ctx, report); err != nil {
		return fmt.Errorf("persisting report: %w", err)
	}

	if err := m.email(ctx, report); err != nil {
		if errors.Is(err, notify.ErrNotConfigured) {
			m.logger.Info("email not configured, report delivery skipped")
			return nil
		}
		return fmt.Errorf("sending report: %w", err)
	}
	return nil
}

func (m *monitor) persist(ctx context.Context, report *pass.Report) error {
	runID, err := m.store.CreateRun(ctx, report.Date, m.config.Analysis)
	if err != nil {
		return fmt.Errorf("creating run: %w", err)
	}

	for _, st := range report.Stations {
		if !st.OK() {
			m.logger.Warn("station failed, skipping persistence",
				"station", st.Station,
				"error", st.Err)
			continue
		}
		if err := m.store.StoreStationDay(ctx, runID, st.Day); err != nil {
			return fmt.Errorf("storing station %s: %w", st.Station, err)
		}
		if err := m.store.StoreStationStats(ctx, runID, st.Station, report.Date, st.Rollup); err != nil {
			return fmt.Errorf("storing stats for %s: %w", st.Station, err)
		}
	}
	return nil
}

func (m *monitor) email(ctx context.Context, report *pass.Report) error {
	images, withChart := m.renderChart(ctx, report.Date)

	body, err := notify.BuildBody(report, withChart)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Reception report %s", report.Date.Format(time.DateOnly))
	return m.sender.Send(subject, body, images)
}

// renderChart draws the rolling empty-ratio chart ending on the report
// date. Chart failures degrade the email to tables only.
func (m *monitor) renderChart(ctx context.Context, date time.Time) ([]notify.InlineImage, bool) {
	window := pass.Rolling(date, chartWindowDays)

	days, err := m.store.EmptyRatioByDay(ctx, window, "")
	if err != nil {
		m.logger.Warn("chart data query failed", "error", err)
		return nil, false
	}

	renderer := chart.NewEmptyRatioRenderer(chart.RenderConfig{
		Width:    m.config.Chart.Width,
		Height:   m.config.Chart.Height,
		FontPath: m.config.Chart.FontPath,
	})
	img, err := renderer.Render("Empty passes, last 7 days", window, days)
	if err != nil {
		m.logger.Warn("chart rendering failed", "error", err)
		return nil, false
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		m.logger.Warn("chart encoding failed", "error", err)
		return nil, false
	}

	return []notify.InlineImage{{
		CID:  notify.ChartCID,
		Name: fmt.Sprintf("empty_ratio_%s.png", date.Format("20060102")),
		Data: buf.Bytes(),
	}}, true
}
