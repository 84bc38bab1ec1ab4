package ovm

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ovmTranslator/internal/model"
)

var (
	executionManagerAddress = common.HexToAddress("0x00000000000000000000000000000000000e1e1e")
	transferTopic           = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")
)

func newTestTranslator(t *testing.T) *Translator {
	t.Helper()
	translator, err := NewTranslator(zap.NewNop())
	if err != nil {
		t.Fatalf("translator: %v", err)
	}
	return translator
}

func emLog(t *testing.T, kind EventKind, args ...interface{}) *model.Log {
	t.Helper()
	emABI, err := ExecutionManagerABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	event, ok := emABI.Events[kind.String()]
	if !ok {
		t.Fatalf("unknown event %s", kind)
	}
	data, err := event.Inputs.NonIndexed().Pack(args...)
	if err != nil {
		t.Fatalf("pack %s: %v", kind, err)
	}
	return &model.Log{
		Address: executionManagerAddress,
		Topics:  []common.Hash{event.ID},
		Data:    data,
	}
}

func appLog(emitter common.Address, data []byte, topics ...common.Hash) *model.Log {
	return &model.Log{
		Address: emitter,
		Topics:  topics,
		Data:    data,
	}
}

// revertPayload encodes reason the way Solidity's revert(string) does.
func revertPayload(t *testing.T, reason string) []byte {
	t.Helper()
	stringType, err := abi.NewType("string", "", nil)
	if err != nil {
		t.Fatalf("string type: %v", err)
	}
	encoded, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	if err != nil {
		t.Fatalf("pack reason: %v", err)
	}
	return append([]byte{0x08, 0xc3, 0x79, 0xa0}, encoded...)
}

func logsOf(logs ...*model.Log) []*model.Log {
	return logs
}
