package ovm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"ovmTranslator/internal/model"
)

// EventKind identifies an execution manager instrumentation event.
// KindUnrecognized marks an ordinary application log.
type EventKind int

const (
	KindUnrecognized EventKind = iota
	KindActiveContract
	KindCallingWithEOA
	KindEOACreatedContract
	KindEOACallRevert
	KindCreatedContract
	KindSetStorage
)

var eventNames = [...]string{
	KindUnrecognized:       "",
	KindActiveContract:     "ActiveContract",
	KindCallingWithEOA:     "CallingWithEOA",
	KindEOACreatedContract: "EOACreatedContract",
	KindEOACallRevert:      "EOACallRevert",
	KindCreatedContract:    "CreatedContract",
	KindSetStorage:         "SetStorage",
}

// String returns the ABI event name for the kind.
func (k EventKind) String() string {
	if k <= KindUnrecognized || int(k) >= len(eventNames) {
		return "Unrecognized"
	}
	return eventNames[k]
}

// Event parameter names.
const (
	ParamActiveContract     = "_activeContract"
	ParamOvmFromAddress     = "_ovmFromAddress"
	ParamOvmContractAddress = "_ovmContractAddress"
	ParamRevertMessage      = "_revertMessage"
)

// DecodedEvent is a log matched against the execution manager ABI.
type DecodedEvent struct {
	Kind   EventKind
	Name   string
	Values map[string]interface{}
}

// Instrumentation reports whether the event belongs to the execution manager.
func (e DecodedEvent) Instrumentation() bool {
	return e.Kind != KindUnrecognized
}

// Address returns an address-typed parameter.
func (e DecodedEvent) Address(name string) (common.Address, bool) {
	value, ok := e.Values[name]
	if !ok {
		return common.Address{}, false
	}
	addr, err := asAddress(value)
	if err != nil {
		return common.Address{}, false
	}
	return addr, true
}

// Bytes returns a dynamic bytes parameter.
func (e DecodedEvent) Bytes(name string) ([]byte, bool) {
	value, ok := e.Values[name]
	if !ok {
		return nil, false
	}
	b, ok := value.([]byte)
	return b, ok
}

// EventDecoder decodes execution manager events.
type EventDecoder struct {
	topicToKind map[common.Hash]EventKind
	events      map[EventKind]abi.Event
}

// NewEventDecoder builds a decoder for every known instrumentation event.
func NewEventDecoder() (*EventDecoder, error) {
	emABI, err := ExecutionManagerABI()
	if err != nil {
		return nil, fmt.Errorf("parse execution manager abi: %w", err)
	}

	d := &EventDecoder{
		topicToKind: make(map[common.Hash]EventKind, len(eventNames)),
		events:      make(map[EventKind]abi.Event, len(eventNames)),
	}
	for kind := KindActiveContract; int(kind) < len(eventNames); kind++ {
		event, ok := emABI.Events[kind.String()]
		if !ok {
			return nil, fmt.Errorf("execution manager abi missing event %s", kind)
		}
		d.topicToKind[event.ID] = kind
		d.events[kind] = event
	}
	return d, nil
}

// EventID returns the topic0 of a known event kind.
func (d *EventDecoder) EventID(kind EventKind) (common.Hash, bool) {
	event, ok := d.events[kind]
	if !ok {
		return common.Hash{}, false
	}
	return event.ID, true
}

// CanDecode checks if the topic0 belongs to an execution manager event.
func (d *EventDecoder) CanDecode(topic0 common.Hash) bool {
	_, ok := d.topicToKind[topic0]
	return ok
}

// Decode matches a log against the execution manager ABI. An error means the
// log is not an instrumentation event.
func (d *EventDecoder) Decode(log *model.Log) (DecodedEvent, error) {
	if log == nil {
		return DecodedEvent{}, fmt.Errorf("nil log")
	}
	if len(log.Topics) == 0 {
		return DecodedEvent{}, fmt.Errorf("missing topics")
	}
	kind, ok := d.topicToKind[log.Topics[0]]
	if !ok {
		return DecodedEvent{}, fmt.Errorf("unsupported topic0: %s", log.Topics[0].Hex())
	}
	event := d.events[kind]

	// Topics past the indexed arguments are ignored.
	indexed := indexedArguments(event.Inputs)
	if len(log.Topics) < len(indexed)+1 {
		return DecodedEvent{}, fmt.Errorf("%s: expected %d topics, got %d", event.Name, len(indexed)+1, len(log.Topics))
	}

	values := make(map[string]interface{}, len(event.Inputs))
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(values, indexed, log.Topics[1:len(indexed)+1]); err != nil {
			return DecodedEvent{}, fmt.Errorf("parse %s topics: %w", event.Name, err)
		}
	}
	if err := event.Inputs.NonIndexed().UnpackIntoMap(values, log.Data); err != nil {
		return DecodedEvent{}, fmt.Errorf("unpack %s: %w", event.Name, err)
	}

	return DecodedEvent{Kind: kind, Name: event.Name, Values: values}, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}
