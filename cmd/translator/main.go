package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "translator",
		Short:        "Translate execution manager receipts into OVM receipts",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	translateCmd := &cobra.Command{
		Use:   "translate",
		Short: "Fetch and translate a single receipt",
		RunE:  runTranslate,
	}

	translateCmd.Flags().String("rpc", "", "L2 RPC URL")
	translateCmd.Flags().String("tx-hash", "", "internal transaction hash")
	translateCmd.Flags().String("ovm-tx-hash", "", "OVM transaction hash to report (optional)")
	translateCmd.Flags().String("out", "", "output file (default stdout)")
	translateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(translateCmd)

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Translate raw receipts from a JSONL file",
		RunE:  runBatch,
	}

	batchCmd.Flags().String("in", "", "input raw receipts JSONL")
	batchCmd.Flags().String("out", "./data/ovm_receipts.jsonl", "output translated receipts JSONL")
	batchCmd.Flags().String("errors", "./data/translate_errors.jsonl", "translate errors JSONL")
	batchCmd.Flags().String("tx-hash-map", "", "internal->ovm tx hash mappings (comma-separated key=value)")
	batchCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(batchCmd)

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Translate every receipt in a block range",
		RunE:  runIndex,
	}

	indexCmd.Flags().String("rpc", "", "L2 RPC URL")
	indexCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	indexCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	indexCmd.Flags().Uint64("batch-size", 100, "blocks per batch")
	indexCmd.Flags().String("out", "./data/receipts.jsonl", "output JSONL path when no Postgres DSN is set")
	indexCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	indexCmd.Flags().String("state-name", "ovm_receipts", "checkpoint name in indexer_state")
	indexCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	indexCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	indexCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	indexCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	indexCmd.Flags().String("tx-hash-map", "", "internal->ovm tx hash mappings (comma-separated key=value)")
	indexCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(indexCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
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
