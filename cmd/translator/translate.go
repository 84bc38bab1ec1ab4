package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ovmTranslator/internal/chain"
	"ovmTranslator/internal/config"
	"ovmTranslator/internal/indexer"
	"ovmTranslator/internal/ovm"
)

func runTranslate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadTranslate(cfgFile, cmd.Flags())
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
	txHash, err := indexer.ParseHash(cfg.TxHash)
	if err != nil {
		return fmt.Errorf("tx hash: %w", err)
	}
	ovmTxHash, err := indexer.ParseOptionalHash(cfg.OvmTxHash)
	if err != nil {
		return fmt.Errorf("ovm tx hash: %w", err)
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

	receipt, err := chainClient.TransactionReceipt(ctx, txHash)
	if err != nil {
		return fmt.Errorf("fetch receipt: %w", err)
	}
	if receipt == nil {
		return fmt.Errorf("receipt %s not found", txHash.Hex())
	}

	translated := translator.Translate(receipt, ovmTxHash)

	out, err := json.MarshalIndent(translated, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}
	out = append(out, '\n')

	if cfg.Out == "" {
		_, err = os.Stdout.Write(out)
		return err
	}

	dir := filepath.Dir(cfg.Out)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	if err := os.WriteFile(cfg.Out, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	logger.Info("receipt translated",
		zap.String("tx_hash", txHash.Hex()),
		zap.String("ovm_tx_hash", translated.TransactionHash.Hex()),
		zap.Uint64("status", uint64(translated.Status)),
		zap.String("out", cfg.Out),
	)
	return nil
}
