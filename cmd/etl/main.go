package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/adapter/http"
	kafkaadapter "github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/adapter/kafka"
	"github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/config"
	"github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/observability"
	"github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/pipeline"
	"github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	opts := cfg.ViewOptions()

	logger.Info("dashboard settings",
		"top_n", opts.TopN,
		"precision", opts.Precision,
		"table_initial", cfg.TableInitialWindow,
		"table_step", cfg.TableStepSize,
		"table_reset", cfg.TableResetWindow,
	)

	series := store.New(metrics)
	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(opts, logger, metrics)

	// Snapshots land in the store before the sink topic.
	loader := pipeline.Tee(series, writer)
	p := pipeline.New(reader, transformer, loader, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, series, opts, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
