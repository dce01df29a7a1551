package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"walletExport/internal/chain"
	"walletExport/internal/config"
	"walletExport/internal/exporter"
	"walletExport/internal/fees"
	"walletExport/internal/storage"
	"walletExport/internal/storage/postgres"
)

func runExport(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadExport(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}
	address, err := chain.ParseAddress(args[0])
	if err != nil {
		return err
	}
	rpcURL, err := cfg.Endpoint.URL()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, rpcURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	policy := cfg.Retry.Policy()
	policy.Classify = chain.Classify

	resolver, err := fees.NewResolver(chainClient, fees.Config{
		Concurrency: cfg.FeeConcurrency,
		Policy:      policy,
	}, logger)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	outPath := cfg.OutputPath(address)

	csvSink, err := storage.NewCSVSink(outPath, cfg.FeeStatusColumn)
	if err != nil {
		return err
	}
	sinks := []storage.Sink{csvSink}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN, address, runID)
		if err != nil {
			csvSink.Close()
			return fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			csvSink.Close()
			return err
		}
		sinks = append(sinks, store)
	}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := storage.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, runID, address, nil)
		if err != nil {
			storage.NewMultiSink(sinks...).Close()
			return err
		}
		sinks = append(sinks, kafkaSink)
	}
	sink := storage.NewMultiSink(sinks...)

	exp, err := exporter.New(exporter.Config{
		Address:       address,
		FromBlock:     cfg.FromBlock,
		ToBlock:       cfg.ToBlock,
		PageSize:      chain.MaxPageSize,
		DedupCapacity: cfg.DedupCapacity,
		PageInterval:  cfg.PageInterval,
		Policy:        policy,
		RunID:         runID,
	}, chainClient, resolver, sink, logger)
	if err != nil {
		sink.Close()
		return err
	}

	logger.Info("exporter start",
		zap.String("run_id", runID),
		zap.String("address", address),
		zap.String("rpc", config.RedactURL(rpcURL)),
		zap.String("out", outPath),
		zap.Int("fee_concurrency", cfg.FeeConcurrency),
		zap.Int("dedup_capacity", cfg.DedupCapacity),
		zap.Duration("page_interval", cfg.PageInterval),
		zap.String("pg_dsn", config.RedactDSN(cfg.PGDSN)),
		zap.Strings("kafka_brokers", cfg.KafkaBrokers),
	)

	summary, runErr := exp.Run(ctx)
	if err := sink.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("close sinks: %w", err)
	}
	if runErr != nil {
		logger.Error("export failed",
			zap.Error(runErr),
			zap.String("out", outPath),
			zap.Int("rows_written", summary.Rows()),
		)
		return runErr
	}

	if cfg.S3Bucket != "" {
		publisher, err := storage.NewS3Publisher(cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region)
		if err != nil {
			return err
		}
		location, err := publisher.Publish(ctx, outPath)
		if err != nil {
			return err
		}
		logger.Info("export uploaded", zap.String("location", location))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", summary.Rows(), outPath)
	return nil
}
