package config

import (
	"github.com/spf13/pflag"
)

// TranslateConfig holds configuration for the translate command.
type TranslateConfig struct {
	RPCURL    string
	TxHash    string
	OvmTxHash string
	Out       string
	LogLevel  string
}

// LoadTranslate merges config file, environment variables, and flags into TranslateConfig.
func LoadTranslate(cfgFile string, flags *pflag.FlagSet) (TranslateConfig, error) {
	v := newViper()
	v.SetDefault("log-level", "info")

	if err := readInto(v, cfgFile, flags); err != nil {
		return TranslateConfig{}, err
	}

	return TranslateConfig{
		RPCURL:    v.GetString("rpc"),
		TxHash:    v.GetString("tx-hash"),
		OvmTxHash: v.GetString("ovm-tx-hash"),
		Out:       v.GetString("out"),
		LogLevel:  v.GetString("log-level"),
	}, nil
}
