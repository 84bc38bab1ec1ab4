package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "TRANSLATOR"

// IndexConfig holds configuration for the index command.
type IndexConfig struct {
	RPCURL            string
	FromBlock         uint64
	ToBlock           uint64
	BatchSize         uint64
	Out               string
	PGDSN             string
	StateName         string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	TxHashMap         map[string]string
	LogLevel          string
}

// LoadIndex merges config file, environment variables, and flags into IndexConfig.
func LoadIndex(cfgFile string, flags *pflag.FlagSet) (IndexConfig, error) {
	v := newViper()
	v.SetDefault("batch-size", uint64(100))
	v.SetDefault("out", "./data/receipts.jsonl")
	v.SetDefault("state-name", "ovm_receipts")
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if err := readInto(v, cfgFile, flags); err != nil {
		return IndexConfig{}, err
	}

	txHashMap, err := getTxHashMap(v, "tx-hash-map")
	if err != nil {
		return IndexConfig{}, err
	}

	cfg := IndexConfig{
		RPCURL:            v.GetString("rpc"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		BatchSize:         v.GetUint64("batch-size"),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		StateName:         v.GetString("state-name"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		TxHashMap:         txHashMap,
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func readInto(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// getTxHashMap reads internal=ovm transaction hash pairs. A config file may
// give them as a mapping; flags and env give them as a comma-separated list.
func getTxHashMap(v *viper.Viper, key string) (map[string]string, error) {
	pairs := make(map[string]string)
	if !v.IsSet(key) {
		return pairs, nil
	}

	switch typed := v.Get(key).(type) {
	case map[string]interface{}:
		for internal, ovm := range typed {
			if err := addTxHashPair(pairs, internal, fmt.Sprint(ovm)); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
		}
	case map[string]string:
		for internal, ovm := range typed {
			if err := addTxHashPair(pairs, internal, ovm); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
		}
	case string:
		if err := parseTxHashPairs(pairs, typed); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported value type %T", key, typed)
	}
	return pairs, nil
}

func parseTxHashPairs(pairs map[string]string, input string) error {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	for _, item := range strings.Split(input, ",") {
		internal, ovm, ok := strings.Cut(item, "=")
		if !ok {
			return fmt.Errorf("pair %q is not internal=ovm", strings.TrimSpace(item))
		}
		if err := addTxHashPair(pairs, internal, ovm); err != nil {
			return err
		}
	}
	return nil
}

func addTxHashPair(pairs map[string]string, internal, ovm string) error {
	internal = strings.TrimSpace(internal)
	ovm = strings.TrimSpace(ovm)
	if internal == "" || ovm == "" {
		return fmt.Errorf("pair %q=%q has an empty side", internal, ovm)
	}
	if existing, ok := pairs[internal]; ok && existing != ovm {
		return fmt.Errorf("internal hash %s mapped twice", internal)
	}
	pairs[internal] = ovm
	return nil
}
