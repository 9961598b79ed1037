package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"rateio/internal/amqp"
	"rateio/internal/cli"
	"rateio/internal/config"
	"rateio/internal/log"
	gsheet "rateio/internal/sheets/google"
	"rateio/internal/worker"
)

func main() {
	resync := flag.Bool("resync", false, "write every stored expense to the spreadsheet before consuming")
	flag.Parse()

	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(func(c *config.Config) error {
		if err := c.Validate(); err != nil {
			return err
		}
		return c.ValidateWorker()
	})
	logger = logger.WithComponent(log.ComponentWorker)
	logger.Info("Starting rateio-worker")

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	// The worker consumes on its own client; the store needs no publisher.
	storeCfg := *cfg
	storeCfg.AMQPURL = ""
	be := cli.OpenBackend(startCtx, logger, &storeCfg)

	mirror, err := gsheet.New(startCtx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		_ = be.Cleanup()
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		_ = be.Cleanup()
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(be.Store, mirror)

	ctx, done := cli.GracefulShutdown(context.Background(), logger, 30*time.Second, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	if *resync {
		n, err := syncWorker.Resync(ctx)
		if err != nil {
			// Not fatal: queued messages still get mirrored.
			logger.Error("Startup resync failed", log.FieldError, err, "written", n)
		} else {
			logger.Info("Startup resync finished", "written", n)
		}
	}

	go func() {
		err := amqpClient.Consume(ctx, syncWorker)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
