package abi

import (
	"fmt"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/nando-os/ghost-rpc/pkg/primitives"
)

// Event is a contract event. Indexed parameters travel in log topics, the
// rest in log data.
type Event struct {
	event gethabi.Event
}

// ParseEvent parses a signature such as
// "Transfer(address indexed from, address indexed to, uint256 value)".
func ParseEvent(signature string) (*Event, error) {
	sig, err := parseSignature(signature)
	if err != nil {
		return nil, err
	}
	if sig.hasOutputs {
		return nil, fmt.Errorf("%w: events have no outputs", ErrInvalidSignature)
	}
	inputs, err := toArguments(sig.inputs)
	if err != nil {
		return nil, err
	}
	return &Event{event: gethabi.NewEvent(sig.name, sig.name, false, inputs)}, nil
}

// NewEvent wraps an already constructed go-ethereum event.
func NewEvent(event gethabi.Event) *Event {
	return &Event{event: event}
}

func (e *Event) Name() string      { return e.event.RawName }
func (e *Event) Signature() string { return e.event.Sig }
func (e *Event) Anonymous() bool   { return e.event.Anonymous }

func (e *Event) Inputs() gethabi.Arguments { return e.event.Inputs }

// Topic is the keccak-256 hash of the canonical signature, carried as the
// first topic of every non-anonymous log of this event.
func (e *Event) Topic() primitives.Hash {
	return primitives.HashFromCommon(e.event.ID)
}

// DecodeLog decodes a log into a map keyed by parameter name. Indexed
// parameters of dynamic type (strings, bytes, arrays, tuples) are returned as
// their keccak-256 topic hash.
func (e *Event) DecodeLog(topics []primitives.Hash, data []byte) (map[string]interface{}, error) {
	if !e.event.Anonymous {
		if len(topics) == 0 {
			return nil, decodeErrorf("log has no topics")
		}
		if topics[0] != e.Topic() {
			return nil, decodeErrorf("topic %s does not match %s", topics[0], e.event.Sig)
		}
		topics = topics[1:]
	}

	var indexed gethabi.Arguments
	for _, arg := range e.event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(topics) != len(indexed) {
		return nil, decodeErrorf("expected %d indexed topics, got %d", len(indexed), len(topics))
	}

	hashes := make([]common.Hash, len(topics))
	for i, topic := range topics {
		t := &indexed[i].Type
		if !isDynamic(t) && t.T != gethabi.ArrayTy && t.T != gethabi.TupleTy {
			if err := validateStatic(t, topic[:]); err != nil {
				return nil, err
			}
		}
		hashes[i] = topic.Common()
	}

	out := make(map[string]interface{}, len(e.event.Inputs))
	if err := gethabi.ParseTopicsIntoMap(out, indexed, hashes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAbiDecode, err)
	}

	nonIndexed := e.event.Inputs.NonIndexed()
	if err := validateArguments(nonIndexed, data); err != nil {
		return nil, err
	}
	if err := nonIndexed.UnpackIntoMap(out, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAbiDecode, err)
	}
	return out, nil
}
