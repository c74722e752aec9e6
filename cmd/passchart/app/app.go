package app

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/lorett/groundlink/internal/chart"
	"github.com/lorett/groundlink/internal/pass"
	"github.com/lorett/groundlink/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	var img *image.RGBA
	var err error
	switch config.Chart {
	case ChartEmptyRatio:
		img, err = renderEmptyRatio(ctx, store, config, logger)
	case ChartProfile:
		img, err = renderProfile(ctx, store, config, logger)
	default:
		err = fmt.Errorf("unknown chart type: %s", config.Chart)
	}
	if err != nil {
		return err
	}

	logger.Info("writing chart",
		slog.String("destination", config.OutputFile),
		slog.String("format", string(config.Format)))

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)
	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: 98})
	}
	return err
}

func renderEmptyRatio(ctx context.Context, store storage.Store, config *Config, logger *slog.Logger) (*image.RGBA, error) {
	window := pass.Rolling(config.Date, config.Days)

	days, err := store.EmptyRatioByDay(ctx, window, config.Station)
	if err != nil {
		return nil, fmt.Errorf("querying daily ratios: %w", err)
	}

	logger.Info("rendering empty-ratio chart",
		slog.String("window", window.String()),
		slog.Int("daysWithData", len(days)))

	title := fmt.Sprintf("Empty passes, last %d days", config.Days)
	if config.Station != "" {
		title = fmt.Sprintf("%s: %s", config.Station, title)
	}

	renderer := chart.NewEmptyRatioRenderer(chart.RenderConfig{FontPath: config.FontPath})
	return renderer.Render(title, window, days)
}

func renderProfile(ctx context.Context, store storage.Store, config *Config, logger *slog.Logger) (*image.RGBA, error) {
	window := pass.Day(config.Date)

	iter, err := store.Passes(ctx,
		storage.WithStation(config.Station),
		storage.WithDateWindow(window))
	if err != nil {
		return nil, fmt.Errorf("querying passes: %w", err)
	}
	defer iter.Close()

	day := pass.StationDay{Station: config.Station, Date: pass.DateOf(config.Date)}
	for iter.Next() {
		current := iter.Current()
		day.Passes = append(day.Passes, current.Pass())
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("reading passes: %w", err)
	}

	logger.Info("rendering profile chart",
		slog.String("station", config.Station),
		slog.String("date", config.Date.Format(time.DateOnly)),
		slog.Int("passes", len(day.Passes)))

	renderer := chart.NewSNRProfileRenderer(chart.RenderConfig{FontPath: config.FontPath})
	return renderer.Render(day)
}
