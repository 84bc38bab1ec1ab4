package ovm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"ovmTranslator/internal/model"
)

// Translator converts receipts produced by the execution manager running on a
// regular EVM into the receipts the OVM would have produced. It holds no
// per-receipt state and can be shared between goroutines.
type Translator struct {
	decoder *EventDecoder
	logger  *zap.Logger
}

// NewTranslator builds a Translator.
func NewTranslator(logger *zap.Logger) (*Translator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	decoder, err := NewEventDecoder()
	if err != nil {
		return nil, fmt.Errorf("event decoder: %w", err)
	}
	return &Translator{decoder: decoder, logger: logger}, nil
}

// Decoder returns the instrumentation event decoder.
func (t *Translator) Decoder() *EventDecoder {
	return t.decoder
}

// Translate converts an internal receipt into an OVM receipt. The receipt is
// modified in place and returned; a nil receipt yields nil. ovmTxHash replaces
// the transaction hash when both it and the original hash are set.
func (t *Translator) Translate(receipt *model.Receipt, ovmTxHash common.Hash) *model.Receipt {
	if receipt == nil {
		return nil
	}

	events := t.decodeLogs(receipt.Logs)
	meta := t.metadataFromEvents(events)
	logs := t.classifyLogs(receipt.Logs, events)

	receipt.Logs = logs

	receipt.ContractAddress = nil
	if meta.To != nil {
		contractAddress := *meta.To
		to := *meta.To
		receipt.ContractAddress = &contractAddress
		receipt.To = &to
	}

	receipt.Status = model.ReceiptStatusFailed
	if meta.Succeeded {
		receipt.Status = model.ReceiptStatusSuccessful
	}

	if receipt.TransactionHash != (common.Hash{}) && ovmTxHash != (common.Hash{}) {
		receipt.TransactionHash = ovmTxHash
	}

	if meta.RevertMessage != nil {
		msg := *meta.RevertMessage
		receipt.RevertMessage = &msg
	}

	if len(meta.CreatedContracts) > 0 {
		created := make([]string, 0, len(meta.CreatedContracts))
		for _, addr := range meta.CreatedContracts {
			created = append(created, addr.Hex())
		}
		t.logger.Debug("contracts created",
			zap.String("tx_hash", receipt.TransactionHash.Hex()),
			zap.Strings("contracts", created),
		)
	}

	t.logger.Debug("ovm parsed logs", zap.Int("logs", len(receipt.Logs)))
	for i, log := range receipt.Logs {
		log.TransactionHash = receipt.TransactionHash
		log.LogIndex = hexutil.Uint(i)
	}
	receipt.LogsBloom = LogsBloom(receipt.Logs)

	return receipt
}

// decodeLogs decodes every log once; logs that are not instrumentation events
// come back as KindUnrecognized.
func (t *Translator) decodeLogs(logs []*model.Log) []DecodedEvent {
	events := make([]DecodedEvent, len(logs))
	for i, log := range logs {
		if log == nil {
			continue
		}
		event, err := t.decoder.Decode(log)
		if err != nil {
			t.logger.Debug("non execution manager log",
				zap.String("address", log.Address.Hex()),
				zap.String("topic0", log.Topic0().Hex()),
				zap.Error(err),
			)
			continue
		}
		events[i] = event
	}
	return events
}
