package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"walletExport/internal/chain"
	"walletExport/internal/config"
	"walletExport/internal/fees"
)

func runFee(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFee(cfgFile, cmd.Flags())
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

	logger.Debug("resolve fees", zap.String("rpc", config.RedactURL(rpcURL)), zap.Int("hashes", len(args)))

	resolved, err := resolver.Resolve(ctx, args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, hash := range args {
		fee := resolved[hash]
		fmt.Fprintf(out, "%s\t%s\t%s\n", hash, fee.Amount, fee.Status)
	}
	return nil
}
