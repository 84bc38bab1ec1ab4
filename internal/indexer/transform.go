package indexer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ovmTranslator/internal/model"
	"ovmTranslator/internal/ovm"
)

// HashResolver maps internal transaction hashes to OVM transaction hashes.
type HashResolver interface {
	LookupOvmTxHash(ctx context.Context, internalTxHash common.Hash) (common.Hash, bool, error)
}

// StaticHashes is a HashResolver backed by a fixed map.
type StaticHashes map[common.Hash]common.Hash

func (s StaticHashes) LookupOvmTxHash(_ context.Context, internalTxHash common.Hash) (common.Hash, bool, error) {
	ovmTxHash, ok := s[internalTxHash]
	return ovmTxHash, ok, nil
}

// TranslateReceipt resolves the OVM hash of an internal receipt and translates
// it. A nil receipt yields nil.
func TranslateReceipt(ctx context.Context, translator *ovm.Translator, hashes HashResolver, receipt *model.Receipt, logger *zap.Logger) (*model.Receipt, error) {
	if receipt == nil {
		return nil, nil
	}

	var ovmTxHash common.Hash
	if hashes != nil {
		resolved, ok, err := hashes.LookupOvmTxHash(ctx, receipt.TransactionHash)
		if err != nil {
			return nil, fmt.Errorf("lookup ovm tx hash %s: %w", receipt.TransactionHash.Hex(), err)
		}
		if ok {
			ovmTxHash = resolved
		} else if logger != nil {
			logger.Debug("no ovm tx hash recorded", zap.String("tx_hash", receipt.TransactionHash.Hex()))
		}
	}

	return translator.Translate(receipt, ovmTxHash), nil
}
