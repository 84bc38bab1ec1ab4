package ovm

import (
	"github.com/ethereum/go-ethereum/core/types"

	"ovmTranslator/internal/model"
)

// LogsBloom builds a bloom filter over the address and topics of every log,
// starting from an empty filter.
func LogsBloom(logs []*model.Log) types.Bloom {
	var bloom types.Bloom
	for _, log := range logs {
		bloom.Add(log.Address.Bytes())
		for _, topic := range log.Topics {
			bloom.Add(topic.Bytes())
		}
	}
	return bloom
}
