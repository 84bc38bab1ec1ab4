package ovm

import (
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ovmTranslator/internal/model"
)

// ConvertLogs rewrites the logs of an internal receipt into the logs the OVM
// would have produced. Instrumentation events are dropped and every other log
// is attributed to the contract that was active when it was emitted. The input
// logs are left untouched.
func (t *Translator) ConvertLogs(logs []*model.Log) []*model.Log {
	return t.classifyLogs(logs, t.decodeLogs(logs))
}

// classifyLogs folds over logs in order. events[i] is the decode result for
// logs[i]. The active contract starts at the zero address.
func (t *Translator) classifyLogs(logs []*model.Log, events []DecodedEvent) []*model.Log {
	var active common.Address
	out := make([]*model.Log, 0, len(logs))

	for i, log := range logs {
		if log == nil {
			continue
		}
		event := events[i]
		switch event.Kind {
		case KindUnrecognized:
			rewritten := *log
			rewritten.Address = active
			out = append(out, &rewritten)
		case KindActiveContract:
			if addr, ok := event.Address(ParamActiveContract); ok {
				active = addr
			}
		default:
			t.logger.Debug("execution manager event",
				zap.String("event", event.Name),
				zap.Any("values", event.Values),
			)
		}
	}

	return out
}
