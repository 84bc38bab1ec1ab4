package indexer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"ovmTranslator/internal/model"
	"ovmTranslator/internal/ovm"
)

var (
	executionManager = common.HexToAddress("0x00000000000000000000000000000000000e1e1e")
	ovmContract      = common.HexToAddress("0x1111111111111111111111111111111111111111")
	eoa              = common.HexToAddress("0x2222222222222222222222222222222222222222")
	appTopic         = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")
)

type fakeChain struct {
	latest        uint64
	blocks        map[uint64][]common.Hash
	receipts      map[common.Hash]*model.Receipt
	blockFailures int
	blockCalls    int
}

func (f *fakeChain) LatestBlockNumber(context.Context) (uint64, error) {
	return f.latest, nil
}

func (f *fakeChain) BlockTransactionHashes(_ context.Context, number uint64) ([]common.Hash, error) {
	f.blockCalls++
	if f.blockFailures > 0 {
		f.blockFailures--
		return nil, errors.New("temporary failure")
	}
	return f.blocks[number], nil
}

func (f *fakeChain) TransactionReceipt(_ context.Context, txHash common.Hash) (*model.Receipt, error) {
	receipt, ok := f.receipts[txHash]
	if !ok {
		return nil, nil
	}
	return receipt, nil
}

type memoryStorage struct {
	batches [][]*model.Receipt
}

func (m *memoryStorage) PutReceiptBatch(_ context.Context, receipts []*model.Receipt) error {
	m.batches = append(m.batches, receipts)
	return nil
}

type memoryCheckpoint struct {
	last  uint64
	ok    bool
	saves []uint64
}

func (m *memoryCheckpoint) Load(context.Context) (uint64, bool, error) {
	return m.last, m.ok, nil
}

func (m *memoryCheckpoint) Save(_ context.Context, lastProcessed uint64) error {
	m.last = lastProcessed
	m.ok = true
	m.saves = append(m.saves, lastProcessed)
	return nil
}

func instrumentationLog(t *testing.T, name string, args ...interface{}) *model.Log {
	t.Helper()
	emABI, err := ovm.ExecutionManagerABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	event, ok := emABI.Events[name]
	if !ok {
		t.Fatalf("unknown event %s", name)
	}
	data, err := event.Inputs.NonIndexed().Pack(args...)
	if err != nil {
		t.Fatalf("pack %s: %v", name, err)
	}
	return &model.Log{Address: executionManager, Topics: []common.Hash{event.ID}, Data: data}
}

func callReceipt(t *testing.T, txHash common.Hash, block uint64) *model.Receipt {
	t.Helper()
	return &model.Receipt{
		TransactionHash: txHash,
		BlockNumber:     hexutil.Uint64(block),
		To:              &executionManager,
		Status:          model.ReceiptStatusSuccessful,
		Logs: []*model.Log{
			instrumentationLog(t, "ActiveContract", ovmContract),
			instrumentationLog(t, "CallingWithEOA", eoa),
			{Address: executionManager, Topics: []common.Hash{appTopic}},
		},
	}
}

func newRunnerTranslator(t *testing.T) *ovm.Translator {
	t.Helper()
	translator, err := ovm.NewTranslator(zap.NewNop())
	if err != nil {
		t.Fatalf("translator: %v", err)
	}
	return translator
}

func TestRunnerTranslatesAndCheckpoints(t *testing.T) {
	internalHash := common.HexToHash("0x01")
	ovmHash := common.HexToHash("0xaa")
	otherHash := common.HexToHash("0x02")

	chainReader := &fakeChain{
		blocks: map[uint64][]common.Hash{
			1: {internalHash},
			3: {otherHash},
		},
		receipts: map[common.Hash]*model.Receipt{
			internalHash: callReceipt(t, internalHash, 1),
			otherHash:    callReceipt(t, otherHash, 3),
		},
	}
	sink := &memoryStorage{}
	checkpoint := &memoryCheckpoint{}

	runner := NewRunner(RunConfig{
		FromBlock:  1,
		ToBlock:    3,
		BatchSize:  2,
		Checkpoint: checkpoint,
		Hashes:     StaticHashes{internalHash: ovmHash},
	}, chainReader, newRunnerTranslator(t), sink, nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(sink.batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(sink.batches))
	}
	if len(checkpoint.saves) != 2 || checkpoint.saves[0] != 2 || checkpoint.saves[1] != 3 {
		t.Fatalf("unexpected checkpoint saves: %v", checkpoint.saves)
	}

	first := sink.batches[0]
	if len(first) != 1 {
		t.Fatalf("expected 1 receipt in first batch, got %d", len(first))
	}
	receipt := first[0]
	if receipt.TransactionHash != ovmHash {
		t.Fatalf("expected ovm hash %s, got %s", ovmHash.Hex(), receipt.TransactionHash.Hex())
	}
	if receipt.Status != model.ReceiptStatusSuccessful {
		t.Fatalf("expected success status, got %d", receipt.Status)
	}
	if len(receipt.Logs) != 1 {
		t.Fatalf("expected 1 application log, got %d", len(receipt.Logs))
	}
	if receipt.Logs[0].Address != ovmContract {
		t.Fatalf("expected log address %s, got %s", ovmContract.Hex(), receipt.Logs[0].Address.Hex())
	}
	if receipt.Logs[0].TransactionHash != ovmHash {
		t.Fatalf("log tx hash not stamped")
	}

	second := sink.batches[1]
	if len(second) != 1 || second[0].TransactionHash != otherHash {
		t.Fatalf("unmapped receipt should keep its hash: %+v", second)
	}
}

func TestRunnerResumesFromCheckpoint(t *testing.T) {
	chainReader := &fakeChain{latest: 5}
	sink := &memoryStorage{}
	checkpoint := &memoryCheckpoint{last: 3, ok: true}

	runner := NewRunner(RunConfig{
		FromBlock:  1,
		BatchSize:  10,
		Checkpoint: checkpoint,
	}, chainReader, newRunnerTranslator(t), sink, nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if chainReader.blockCalls != 2 {
		t.Fatalf("expected blocks 4 and 5 only, got %d calls", chainReader.blockCalls)
	}
	if len(checkpoint.saves) != 1 || checkpoint.saves[0] != 5 {
		t.Fatalf("unexpected checkpoint saves: %v", checkpoint.saves)
	}
}

func TestRunnerNothingToSync(t *testing.T) {
	chainReader := &fakeChain{}
	sink := &memoryStorage{}
	checkpoint := &memoryCheckpoint{last: 9, ok: true}

	runner := NewRunner(RunConfig{FromBlock: 1, ToBlock: 9, BatchSize: 5, Checkpoint: checkpoint}, chainReader, newRunnerTranslator(t), sink, nil)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if chainReader.blockCalls != 0 || len(sink.batches) != 0 {
		t.Fatalf("expected no work, got %d calls and %d batches", chainReader.blockCalls, len(sink.batches))
	}
}

func TestRunnerRetriesBlockFetch(t *testing.T) {
	chainReader := &fakeChain{blockFailures: 2}
	sink := &memoryStorage{}

	runner := NewRunner(RunConfig{
		FromBlock:    7,
		ToBlock:      7,
		BatchSize:    1,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	}, chainReader, newRunnerTranslator(t), sink, nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if chainReader.blockCalls != 3 {
		t.Fatalf("expected 3 attempts, got %d", chainReader.blockCalls)
	}
	if len(sink.batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(sink.batches))
	}
}

func TestRunnerGivesUpAfterRetries(t *testing.T) {
	chainReader := &fakeChain{blockFailures: 5}
	checkpoint := &memoryCheckpoint{}

	runner := NewRunner(RunConfig{
		FromBlock:    1,
		ToBlock:      1,
		BatchSize:    1,
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
		Checkpoint:   checkpoint,
	}, chainReader, newRunnerTranslator(t), &memoryStorage{}, nil)

	if err := runner.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if len(checkpoint.saves) != 0 {
		t.Fatalf("checkpoint must not advance on failure: %v", checkpoint.saves)
	}
}

func TestRunnerRequiresBatchSize(t *testing.T) {
	runner := NewRunner(RunConfig{FromBlock: 1, ToBlock: 2}, &fakeChain{}, newRunnerTranslator(t), &memoryStorage{}, nil)
	if err := runner.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
