package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/JakeFAU/articles-service/internal/config"
	"github.com/JakeFAU/articles-service/internal/logging"
	"github.com/JakeFAU/articles-service/internal/server"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	scrapeOnce := flag.Bool("scrape-once", false, "Run the scrape pipeline once and exit")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := server.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("application setup failed", zap.Error(err))
	}
	defer app.Close()

	if *scrapeOnce {
		res, err := app.ScrapeOnce(ctx)
		if err != nil {
			logger.Error("scrape failed", zap.Error(err))
			app.Close()
			os.Exit(1) //nolint:gocritic // app closed explicitly above
		}
		logger.Info("scrape finished", zap.Int("inserted", res.Inserted))
		return
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		app.Close()
		os.Exit(1) //nolint:gocritic // app closed explicitly above
	}
}
