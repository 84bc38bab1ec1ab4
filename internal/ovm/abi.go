package ovm

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// executionManagerABIJSON holds the events the execution manager emits for
// receipt translation. Functions are omitted since only logs are decoded here.
const executionManagerABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "_activeContract", "type": "address"}
    ],
    "name": "ActiveContract",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "_ovmFromAddress", "type": "address"}
    ],
    "name": "CallingWithEOA",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "_ovmContractAddress", "type": "address"}
    ],
    "name": "EOACreatedContract",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "bytes", "name": "_revertMessage", "type": "bytes"}
    ],
    "name": "EOACallRevert",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "_ovmContractAddress", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "_codeContractAddress", "type": "address"},
      {"indexed": false, "internalType": "bytes32", "name": "_codeContractHash", "type": "bytes32"}
    ],
    "name": "CreatedContract",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "_ovmContractAddress", "type": "address"},
      {"indexed": false, "internalType": "bytes32", "name": "_slot", "type": "bytes32"},
      {"indexed": false, "internalType": "bytes32", "name": "_value", "type": "bytes32"}
    ],
    "name": "SetStorage",
    "type": "event"
  }
]`

var (
	executionManagerABI     abi.ABI
	executionManagerABIOnce sync.Once
	executionManagerABIErr  error
)

// ExecutionManagerABI returns the parsed execution manager event ABI.
func ExecutionManagerABI() (abi.ABI, error) {
	executionManagerABIOnce.Do(func() {
		executionManagerABI, executionManagerABIErr = abi.JSON(strings.NewReader(executionManagerABIJSON))
	})
	return executionManagerABI, executionManagerABIErr
}
