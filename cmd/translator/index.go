package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ovmTranslator/internal/chain"
	"ovmTranslator/internal/config"
	"ovmTranslator/internal/indexer"
	"ovmTranslator/internal/ovm"
	"ovmTranslator/internal/storage"
	"ovmTranslator/internal/storage/postgres"
)

func runIndex(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadIndex(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	hashMap, err := indexer.ParseHashMap(cfg.TxHashMap)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	translator, err := ovm.NewTranslator(logger)
	if err != nil {
		return err
	}

	runCfg := indexer.RunConfig{
		FromBlock:    cfg.FromBlock,
		ToBlock:      cfg.ToBlock,
		BatchSize:    cfg.BatchSize,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}

	var storageSink storage.Storage
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		for internalTxHash, ovmTxHash := range hashMap {
			if err := store.SaveOvmTxHash(ctx, internalTxHash, ovmTxHash); err != nil {
				return fmt.Errorf("save tx hash mapping: %w", err)
			}
		}

		storageSink = store
		runCfg.Hashes = store
		if cfg.CheckpointEnabled {
			runCfg.Checkpoint = &indexer.DBCheckpointStore{Store: store, Name: cfg.StateName}
		}
	} else {
		storageSink = storage.NewJsonlStorage(cfg.Out)
		if len(hashMap) > 0 {
			runCfg.Hashes = indexer.StaticHashes(hashMap)
		}
		if cfg.CheckpointEnabled {
			runCfg.Checkpoint = &indexer.FileCheckpointStore{Path: cfg.Checkpoint}
		}
	}

	chainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}

	logger.Info("index start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("chain_id", chainID.String()),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Bool("postgres", cfg.PGDSN != ""),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	runner := indexer.NewRunner(runCfg, chainClient, translator, storageSink, logger)
	return runner.Run(ctx)
}
