package indexer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseHash converts a 0x-prefixed 32-byte hex string into common.Hash.
func ParseHash(input string) (common.Hash, error) {
	input = strings.TrimSpace(input)
	data, err := hexutil.Decode(input)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid hash: %s", input)
	}
	if len(data) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid hash length: %s", input)
	}
	return common.BytesToHash(data), nil
}

// ParseOptionalHash is ParseHash that maps an empty input to the zero hash.
func ParseOptionalHash(input string) (common.Hash, error) {
	if strings.TrimSpace(input) == "" {
		return common.Hash{}, nil
	}
	return ParseHash(input)
}

// ParseHashMap converts internal=ovm transaction hash pairs.
func ParseHashMap(inputs map[string]string) (map[common.Hash]common.Hash, error) {
	out := make(map[common.Hash]common.Hash, len(inputs))
	for key, value := range inputs {
		internal, err := ParseHash(key)
		if err != nil {
			return nil, fmt.Errorf("tx hash map key: %w", err)
		}
		ovm, err := ParseHash(value)
		if err != nil {
			return nil, fmt.Errorf("tx hash map value: %w", err)
		}
		out[internal] = ovm
	}
	return out, nil
}
