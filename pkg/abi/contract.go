package abi

import (
	"bytes"
	"fmt"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/nando-os/ghost-rpc/pkg/primitives"
)

// Contract is a set of functions and events loaded from a JSON ABI.
type Contract struct {
	abi gethabi.ABI
}

// ParseJSON loads a contract from its JSON ABI description.
func ParseJSON(abiJSON []byte) (*Contract, error) {
	parsed, err := gethabi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return &Contract{abi: parsed}, nil
}

// ABI exposes the underlying go-ethereum description.
func (c *Contract) ABI() gethabi.ABI { return c.abi }

func (c *Contract) Function(name string) (*Function, error) {
	method, ok := c.abi.Methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: function %q", ErrNotFound, name)
	}
	return NewFunction(method), nil
}

// FunctionBySelector finds the function called by calldata.
func (c *Contract) FunctionBySelector(calldata []byte) (*Function, error) {
	if len(calldata) < 4 {
		return nil, decodeErrorf("calldata shorter than a selector")
	}
	method, err := c.abi.MethodById(calldata[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: selector %x", ErrNotFound, calldata[:4])
	}
	return NewFunction(*method), nil
}

func (c *Contract) Event(name string) (*Event, error) {
	event, ok := c.abi.Events[name]
	if !ok {
		return nil, fmt.Errorf("%w: event %q", ErrNotFound, name)
	}
	return NewEvent(event), nil
}

// EventByTopic finds the non-anonymous event whose signature hash is topic.
func (c *Contract) EventByTopic(topic primitives.Hash) (*Event, error) {
	event, err := c.abi.EventByID(topic.Common())
	if err != nil {
		return nil, fmt.Errorf("%w: topic %s", ErrNotFound, topic)
	}
	return NewEvent(*event), nil
}

// EncodeCall encodes a call to the named function.
func (c *Contract) EncodeCall(name string, args ...interface{}) ([]byte, error) {
	f, err := c.Function(name)
	if err != nil {
		return nil, err
	}
	return f.EncodeCall(args...)
}

// DecodeOutput decodes the return data of the named function.
func (c *Contract) DecodeOutput(name string, data []byte) ([]interface{}, error) {
	f, err := c.Function(name)
	if err != nil {
		return nil, err
	}
	return f.DecodeOutput(data)
}

// DecodeLog decodes a log of the named event.
func (c *Contract) DecodeLog(name string, topics []primitives.Hash, data []byte) (map[string]interface{}, error) {
	e, err := c.Event(name)
	if err != nil {
		return nil, err
	}
	return e.DecodeLog(topics, data)
}
