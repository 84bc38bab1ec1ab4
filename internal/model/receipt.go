package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Receipt status values.
const (
	ReceiptStatusFailed     = hexutil.Uint64(0)
	ReceiptStatusSuccessful = hexutil.Uint64(1)
)

// Receipt is a JSON-RPC transaction receipt. RevertMessage is not part of the
// native receipt shape and is only set on translated receipts.
type Receipt struct {
	TransactionHash   common.Hash     `json:"transactionHash"`
	TransactionIndex  hexutil.Uint    `json:"transactionIndex"`
	BlockHash         common.Hash     `json:"blockHash"`
	BlockNumber       hexutil.Uint64  `json:"blockNumber"`
	From              common.Address  `json:"from"`
	To                *common.Address `json:"to"`
	CumulativeGasUsed hexutil.Uint64  `json:"cumulativeGasUsed"`
	GasUsed           hexutil.Uint64  `json:"gasUsed"`
	EffectiveGasPrice *hexutil.Big    `json:"effectiveGasPrice,omitempty"`
	ContractAddress   *common.Address `json:"contractAddress"`
	Logs              []*Log          `json:"logs"`
	LogsBloom         types.Bloom     `json:"logsBloom"`
	Type              *hexutil.Uint64 `json:"type,omitempty"`
	Root              hexutil.Bytes   `json:"root,omitempty"`
	Status            hexutil.Uint64  `json:"status"`
	RevertMessage     *string         `json:"revertMessage,omitempty"`
}
