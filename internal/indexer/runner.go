package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ovmTranslator/internal/model"
	"ovmTranslator/internal/ovm"
	"ovmTranslator/internal/storage"
)

// ChainReader is the subset of the chain client used by the Runner.
type ChainReader interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTransactionHashes(ctx context.Context, number uint64) ([]common.Hash, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*model.Receipt, error)
}

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	FromBlock    uint64
	ToBlock      uint64
	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
	Checkpoint   CheckpointStore
	Hashes       HashResolver
}

// Runner fetches receipts block by block, translates them and writes them to storage.
type Runner struct {
	cfg        RunConfig
	chain      ChainReader
	translator *ovm.Translator
	storage    storage.Storage
	retry      retryPolicy
	logger     *zap.Logger
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, chainReader ChainReader, translator *ovm.Translator, storageSink storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		chain:      chainReader,
		translator: translator,
		storage:    storageSink,
		retry:      newRetryPolicy(cfg.MaxRetries, cfg.RetryBackoff, logger),
		logger:     logger,
	}
}

// Run executes the indexing loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if r.translator == nil {
		return fmt.Errorf("translator is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}

	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		err := r.retry.do(ctx, "latest block fetch", func(ctx context.Context) error {
			latest, err := r.chain.LatestBlockNumber(ctx)
			if err != nil {
				return err
			}
			to = latest
			return nil
		})
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
	}

	if r.cfg.Checkpoint != nil {
		last, ok, err := r.cfg.Checkpoint.Load(ctx)
		if err != nil {
			return fmt.Errorf("load checkpoint: %w", err)
		}
		if ok && last >= from {
			from = last + 1
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", last), zap.Uint64("from", from))
		}
	}

	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.logger.Info("fetch receipts", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To), zap.Uint64("blocks", blockRange.Len()))

		receipts, err := r.processRange(ctx, blockRange)
		if err != nil {
			return err
		}

		if err := r.storage.PutReceiptBatch(ctx, receipts); err != nil {
			return fmt.Errorf("store receipts: %w", err)
		}

		if r.cfg.Checkpoint != nil {
			if err := r.cfg.Checkpoint.Save(ctx, blockRange.To); err != nil {
				return fmt.Errorf("save checkpoint: %w", err)
			}
		}

		r.logger.Info("batch complete", zap.Int("receipts", len(receipts)), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
	}

	return nil
}

func (r *Runner) processRange(ctx context.Context, blockRange BlockRange) ([]*model.Receipt, error) {
	receipts := make([]*model.Receipt, 0)
	err := blockRange.Each(func(number uint64) error {
		var txHashes []common.Hash
		err := r.retry.do(ctx, "block fetch", func(ctx context.Context) error {
			var err error
			txHashes, err = r.chain.BlockTransactionHashes(ctx, number)
			return err
		}, zap.Uint64("block_number", number))
		if err != nil {
			return fmt.Errorf("block %d transactions: %w", number, err)
		}

		for _, txHash := range txHashes {
			var receipt *model.Receipt
			err := r.retry.do(ctx, "receipt fetch", func(ctx context.Context) error {
				var err error
				receipt, err = r.chain.TransactionReceipt(ctx, txHash)
				return err
			}, zap.String("tx_hash", txHash.Hex()))
			if err != nil {
				return fmt.Errorf("receipt %s: %w", txHash.Hex(), err)
			}
			if receipt == nil {
				r.logger.Warn("receipt not found", zap.String("tx_hash", txHash.Hex()), zap.Uint64("block_number", number))
				continue
			}

			translated, err := TranslateReceipt(ctx, r.translator, r.cfg.Hashes, receipt, r.logger)
			if err != nil {
				return err
			}
			receipts = append(receipts, translated)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipts, nil
}
