package ovm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ovmTranslator/internal/model"
)

// RevertMessagePrefix starts every revert message attached to a failed receipt.
const RevertMessagePrefix = "VM Exception while processing transaction: revert "

const selectorLength = 4

// Metadata summarizes what the execution manager reported about a transaction.
type Metadata struct {
	Succeeded              bool
	To                     *common.Address
	From                   *common.Address
	CreatedContractAddress *common.Address
	// CreatedContracts lists every contract deployed during the transaction,
	// in log order.
	CreatedContracts []common.Address
	RevertMessage    *string
}

// ExtractMetadata reads the instrumentation events of an internal receipt.
// It returns nil when the receipt is nil.
func (t *Translator) ExtractMetadata(receipt *model.Receipt) *Metadata {
	if receipt == nil {
		return nil
	}
	return t.metadataFromEvents(t.decodeLogs(receipt.Logs))
}

func (t *Translator) metadataFromEvents(events []DecodedEvent) *Metadata {
	var (
		callingWithEOA     *DecodedEvent
		eoaCreatedContract *DecodedEvent
		revertEvents       []DecodedEvent
		createdContracts   []common.Address
	)

	for i := range events {
		event := events[i]
		switch event.Kind {
		case KindCallingWithEOA:
			if callingWithEOA == nil {
				callingWithEOA = &event
			}
		case KindEOACreatedContract:
			if eoaCreatedContract == nil {
				eoaCreatedContract = &event
			}
		case KindEOACallRevert:
			revertEvents = append(revertEvents, event)
		case KindCreatedContract:
			if addr, ok := event.Address(ParamOvmContractAddress); ok {
				createdContracts = append(createdContracts, addr)
			}
		}
	}

	meta := &Metadata{
		Succeeded:        len(revertEvents) == 0,
		CreatedContracts: createdContracts,
	}

	if callingWithEOA != nil {
		if from, ok := callingWithEOA.Address(ParamOvmFromAddress); ok {
			meta.From = &from
		}
	}
	if eoaCreatedContract != nil {
		if created, ok := eoaCreatedContract.Address(ParamOvmContractAddress); ok {
			to := created
			meta.CreatedContractAddress = &created
			meta.To = &to
		}
	}

	if !meta.Succeeded {
		payload, _ := revertEvents[0].Bytes(ParamRevertMessage)
		msg, err := decodeRevertMessage(payload)
		if err != nil {
			t.logger.Error("error decoding revert event", zap.Error(err))
			return meta
		}
		meta.RevertMessage = &msg
		t.logger.Debug("decoded revert message", zap.String("revert_message", msg))
	}

	return meta
}

// decodeRevertMessage turns an EOACallRevert payload (selector followed by an
// ABI encoded reason) into a revert message.
func decodeRevertMessage(payload []byte) (string, error) {
	if len(payload) <= 2 {
		return RevertMessagePrefix, nil
	}
	if len(payload) < selectorLength {
		return "", fmt.Errorf("revert payload too short: %d bytes", len(payload))
	}

	bytesType, err := abi.NewType("bytes", "", nil)
	if err != nil {
		return "", err
	}
	values, err := abi.Arguments{{Type: bytesType}}.Unpack(payload[selectorLength:])
	if err != nil {
		return "", fmt.Errorf("unpack revert message: %w", err)
	}
	if len(values) != 1 {
		return "", fmt.Errorf("unexpected revert values: %d", len(values))
	}
	reason, ok := values[0].([]byte)
	if !ok {
		return "", fmt.Errorf("unsupported revert message type %T", values[0])
	}

	text := string(reason)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}
	return RevertMessagePrefix + text, nil
}
