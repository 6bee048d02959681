package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"billed/internal/cli"
	"billed/internal/config"
	"billed/internal/events"
	"billed/internal/export/sheets"
	"billed/internal/log"
	"billed/internal/metrics"
	"billed/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadConfig((*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting billed-worker")

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	sheet, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	m := metrics.New()
	exporter := worker.NewExportWorker(repo, sheet, cfg.ExportBatchSize, m.ExportOutcomes())
	sweeper := worker.NewSweeper(exporter.ProcessPending, worker.SweeperConfig{Interval: cfg.ExportInterval})

	g, gctx := errgroup.WithContext(ctx)

	// The sweep also covers bills whose message never arrived, so it runs
	// with or without AMQP.
	g.Go(func() error {
		if err := sweeper.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		stopCtx, stopCancel := cli.ShutdownContext(30 * time.Second)
		defer stopCancel()
		return sweeper.Stop(stopCtx)
	})

	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()

		g.Go(func() error {
			err := client.ConsumeBillCreated(gctx, exporter.HandleBillCreated)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			log.NewStructuredLogger(logger).LogError(gctx, "Message consumption failed", err,
				log.ComponentAMQP, log.OpExport, nil)
			return err
		})
	} else {
		logger.Info("AMQP disabled, relying on the periodic sweep", "interval", cfg.ExportInterval)
	}

	if cfg.WorkerMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", m.Handler())
		srv := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := cli.ShutdownContext(5 * time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
