package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"walletExport/internal/config"
	"walletExport/internal/exporter"
	"walletExport/internal/fees"
	"walletExport/internal/retry"
)

func main() {
	root := &cobra.Command{
		Use:          "exporter",
		Short:        "Wallet transfer history CSV exporter",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			_, err := config.LoadDotEnv(envFile)
			return err
		},
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("env-file", ".env", "dotenv file with credentials")

	exportCmd := &cobra.Command{
		Use:   "export <address>",
		Short: "Export the transfer history of an address to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}

	addEndpointFlags(exportCmd)
	exportCmd.Flags().String("from-block", "0x0", "first block (number, 0x quantity or tag)")
	exportCmd.Flags().String("to-block", "latest", "last block (number, 0x quantity or tag)")
	exportCmd.Flags().String("out", "", "output CSV path (default <out-dir>/<address>.csv)")
	exportCmd.Flags().String("out-dir", ".", "output directory")
	exportCmd.Flags().Int("dedup-capacity", exporter.DefaultDedupCapacity, "rolling dedup set capacity")
	exportCmd.Flags().Duration("page-interval", exporter.DefaultPageInterval, "minimum interval between page fetches")
	exportCmd.Flags().Bool("fee-status-column", false, "append a Fee Status column to the CSV")
	exportCmd.Flags().String("pg-dsn", "", "optional Postgres DSN to mirror rows into")
	exportCmd.Flags().StringSlice("kafka-brokers", nil, "optional Kafka brokers to mirror rows to (comma-separated)")
	exportCmd.Flags().String("kafka-topic", config.DefaultKafkaTopic, "Kafka topic for mirrored rows")
	exportCmd.Flags().String("s3-bucket", "", "optional S3 bucket to upload the finished CSV to")
	exportCmd.Flags().String("s3-prefix", "", "S3 key prefix")
	exportCmd.Flags().String("s3-region", "", "S3 region")

	root.AddCommand(exportCmd)

	feeCmd := &cobra.Command{
		Use:   "fee <hash>...",
		Short: "Resolve transaction fees from receipts",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runFee,
	}

	addEndpointFlags(feeCmd)
	root.AddCommand(feeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addEndpointFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "JSON-RPC URL (overrides api-key and network)")
	cmd.Flags().String("api-key", "", "Alchemy API key")
	policy := retry.Default()
	cmd.Flags().String("network", config.DefaultNetwork, "Alchemy network")
	cmd.Flags().Int("fee-concurrency", fees.DefaultConcurrency, fmt.Sprintf("in-flight receipt lookups (1-%d)", fees.MaxConcurrency))
	cmd.Flags().Int("max-attempts", policy.MaxAttempts, "attempts per remote call")
	cmd.Flags().Duration("retry-base-delay", policy.BaseDelay, "first retry delay")
	cmd.Flags().Duration("retry-max-delay", policy.MaxDelay, "retry delay cap")
	cmd.Flags().Duration("retry-jitter", policy.Jitter, "random jitter added to each retry delay")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
