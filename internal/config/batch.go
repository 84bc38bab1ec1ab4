package config

import (
	"github.com/spf13/pflag"
)

// BatchConfig holds configuration for the batch command.
type BatchConfig struct {
	In        string
	Out       string
	Errors    string
	TxHashMap map[string]string
	LogLevel  string
}

// LoadBatch merges config file, environment variables, and flags into BatchConfig.
func LoadBatch(cfgFile string, flags *pflag.FlagSet) (BatchConfig, error) {
	v := newViper()
	v.SetDefault("out", "./data/ovm_receipts.jsonl")
	v.SetDefault("errors", "./data/translate_errors.jsonl")
	v.SetDefault("log-level", "info")

	if err := readInto(v, cfgFile, flags); err != nil {
		return BatchConfig{}, err
	}

	txHashMap, err := getTxHashMap(v, "tx-hash-map")
	if err != nil {
		return BatchConfig{}, err
	}

	return BatchConfig{
		In:        v.GetString("in"),
		Out:       v.GetString("out"),
		Errors:    v.GetString("errors"),
		TxHashMap: txHashMap,
		LogLevel:  v.GetString("log-level"),
	}, nil
}
