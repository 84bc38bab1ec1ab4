package model

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestReceiptJSONRoundTrip(t *testing.T) {
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	msg := "VM Exception while processing transaction: revert boom"
	original := Receipt{
		TransactionHash:   common.HexToHash("0xabc1"),
		TransactionIndex:  3,
		BlockHash:         common.HexToHash("0xdef2"),
		BlockNumber:       120,
		From:              common.HexToAddress("0x1111111111111111111111111111111111111111"),
		To:                &to,
		CumulativeGasUsed: 90000,
		GasUsed:           21000,
		Logs: []*Log{{
			Address:         to,
			Topics:          []common.Hash{common.HexToHash("0xaa"), common.HexToHash("0xbb")},
			Data:            []byte{0xde, 0xad, 0xbe, 0xef},
			BlockNumber:     120,
			TransactionHash: common.HexToHash("0xabc1"),
			LogIndex:        0,
		}},
		Status:        ReceiptStatusFailed,
		RevertMessage: &msg,
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Receipt
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}

func TestReceiptJSONOmitsRevertMessage(t *testing.T) {
	b, err := json.Marshal(Receipt{Status: ReceiptStatusSuccessful})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(b, &fields); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := fields["revertMessage"]; ok {
		t.Fatalf("revertMessage should be omitted when unset")
	}
	if fields["contractAddress"] != nil {
		t.Fatalf("contractAddress should encode as null, got %v", fields["contractAddress"])
	}
	if fields["status"] != "0x1" {
		t.Fatalf("status mismatch: %v", fields["status"])
	}
}
