package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lorett/groundlink/internal/notify"
	"github.com/lorett/groundlink/internal/observability"
	"github.com/lorett/groundlink/internal/pass"
	"github.com/lorett/groundlink/internal/retrieve"
	"github.com/lorett/groundlink/internal/storage"
	"github.com/lorett/groundlink/internal/web"
)

// RunOptions selects between scheduled operation and a single
// on-demand report run.
type RunOptions struct {
	// Once runs one report and exits instead of starting the
	// scheduler and HTTP server.
	Once bool

	// Date is the UTC report date for a -once run, formatted
	// YYYY-MM-DD. Empty means the previous UTC day.
	Date string
}

type monitor struct {
	config    *Config
	logger    *slog.Logger
	store     storage.Store
	pipeline  *pass.Pipeline
	client    *retrieve.Client
	sender    *notify.Sender
	collector *observability.Collector
}

func Run(ctx context.Context, config *Config, opts RunOptions, logger *slog.Logger) error {
	thresholds, err := config.Analysis.BandThresholds()
	if err != nil {
		return fmt.Errorf("building thresholds: %w", err)
	}
	pipeline, err := pass.NewPipeline(pass.Config{
		MaxGap:     config.Analysis.GapDuration(),
		Thresholds: thresholds,
		Commercial: config.Analysis.Commercial,
	})
	if err != nil {
		return fmt.Errorf("creating pipeline: %w", err)
	}

	collector, err := observability.NewCollector(nil)
	if err != nil {
		return fmt.Errorf("creating metrics collector: %w", err)
	}

	store := storage.NewSqliteStore(config.Storage.DatabasePath)
	defer store.Close()

	m := &monitor{
		config:   config,
		logger:   logger,
		store:    store,
		pipeline: pipeline,
		client: retrieve.NewClient(logger, config.Portal.Pages,
			retrieve.WithMaxRetries(config.Portal.MaxRetries),
			retrieve.WithConcurrency(config.Portal.Concurrency),
			retrieve.WithDownloadObserver(collector.ObserveDownload)),
		sender:    notify.NewSender(config.Email, logger),
		collector: collector,
	}

	if opts.Once {
		date, err := reportDate(opts.Date)
		if err != nil {
			return err
		}
		return m.runReport(ctx, date)
	}

	return m.serve(ctx)
}

// serve runs the scheduler and the HTTP API until the context is
// canceled.
func (m *monitor) serve(ctx context.Context) error {
	scheduler := cron.New(cron.WithLocation(time.UTC))
	_, err := scheduler.AddFunc(m.config.Settings.Schedule, func() {
		date := pass.DateOf(time.Now().UTC()).AddDate(0, 0, -1)
		if err := m.runReport(ctx, date); err != nil {
			m.logger.Error("scheduled report failed",
				"date", date.Format(time.DateOnly),
				"error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", m.config.Settings.Schedule, err)
	}

	scheduler.Start()
	defer func() {
		stopCtx := scheduler.Stop()
		<-stopCtx.Done()
	}()

	m.logger.Info("scheduler started", "schedule", m.config.Settings.Schedule)

	server := web.NewServer(m.config.Server, m.store, m.config.Analysis.Commercial, m.collector.Handler(), m.logger)
	return server.Start(ctx)
}

// reportDate resolves a -once run's report date. Empty means the
// previous UTC day.
func reportDate(value string) (time.Time, error) {
	if value == "" {
		return pass.DateOf(time.Now().UTC()).AddDate(0, 0, -1), nil
	}
	date, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid report date %q, want YYYY-MM-DD: %w", value, err)
	}
	return date, nil
}
