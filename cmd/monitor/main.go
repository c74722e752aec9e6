package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/lorett/groundlink/cmd/monitor/app"
)

const smtpPasswordEnv = "GROUNDLINK_SMTP_PASSWORD"

func main() {
	var logLevel slog.LevelVar
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: &logLevel}))

	var configPath string
	var opts app.RunOptions
	flag.StringVar(&configPath, "c", "", "Path to the configuration file")
	flag.BoolVar(&opts.Once, "once", false, "Run a single report and exit")
	flag.StringVar(&opts.Date, "date", "", "Report date for -once (YYYY-MM-DD, default: previous UTC day)")
	flag.Parse()

	if configPath == "" {
		logger.Error("no configuration file provided")
		os.Exit(1)
	}

	// Secrets come from the environment; a local .env file is optional.
	_ = godotenv.Load()

	config, err := app.LoadConfig(configPath)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to load configuration file: %s", err.Error()), slog.String("path", configPath))
		os.Exit(1)
	}
	config.Email.Password = os.Getenv(smtpPasswordEnv)

	logLevel.Set(config.Settings.Level())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err = app.Run(ctx, config, opts, logger); err != nil {
		logger.Error(err.Error())

		cancel()
		os.Exit(1)
	}
}
