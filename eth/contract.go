package eth

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/nando-os/ghost-rpc/pkg/abi"
	"github.com/nando-os/ghost-rpc/pkg/ethrpc"
	"github.com/nando-os/ghost-rpc/pkg/primitives"
)

// Contract binds a JSON ABI to a deployed address.
type Contract struct {
	address primitives.Address
	abi     *abi.Contract
	client  EthClient
}

// CallOpts tunes read-only calls. The zero value calls from the zero
// address against the latest block.
type CallOpts struct {
	From  *primitives.Address
	Block ethrpc.BlockTag
}

// Event is a decoded contract log.
type Event struct {
	Name   string
	Log    ethrpc.Log
	Fields map[string]interface{}
}

func NewContract(client EthClient, address primitives.Address, contractABI *abi.Contract) *Contract {
	return &Contract{address: address, abi: contractABI, client: client}
}

func (c *Contract) Address() primitives.Address { return c.address }

func (c *Contract) ABI() *abi.Contract { return c.abi }

// Query runs method with eth_call and decodes its return values.
func (c *Contract) Query(ctx context.Context, opts *CallOpts, method string, args ...interface{}) ([]interface{}, error) {
	if opts == nil {
		opts = &CallOpts{}
	}
	data, err := c.abi.EncodeCall(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}
	to := c.address
	out, err := c.client.Call(ctx, ethrpc.CallRequest{From: opts.From, To: &to, Data: data}, opts.Block)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	values, err := c.abi.DecodeOutput(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s output: %w", method, err)
	}
	return values, nil
}

// EstimateGas estimates the gas used by calling method from the given
// address with value wei attached.
func (c *Contract) EstimateGas(ctx context.Context, from primitives.Address, value *primitives.Quantity, method string, args ...interface{}) (uint64, error) {
	data, err := c.abi.EncodeCall(method, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s call: %w", method, err)
	}
	to := c.address
	gas, err := c.client.EstimateGas(ctx, ethrpc.CallRequest{From: &from, To: &to, Value: value, Data: data})
	if err != nil {
		return 0, fmt.Errorf("failed to estimate %s: %w", method, err)
	}
	return gas, nil
}

// Transact signs a call to method with the account of gc and submits it.
// The returned receipt is pending; use gc.WaitForTransaction to wait for
// inclusion.
func (c *Contract) Transact(gc GhostClient, value *primitives.Quantity, method string, args ...interface{}) (*TransactionReceipt, error) {
	data, err := c.abi.EncodeCall(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}
	to := c.address
	tx := &Transaction{
		From:  gc.Account().Address,
		To:    &to,
		Value: value,
		Data:  data,
	}
	signed, err := gc.SignTransaction(tx)
	if err != nil {
		return nil, err
	}
	log.Info("Submitting contract call", "contract", c.address, "method", method, "hash", signed.Hash())
	return gc.SendTransaction(signed)
}

// Events fetches and decodes logs of the named event emitted by the
// contract. Topics of q after the first position are kept as given.
func (c *Contract) Events(ctx context.Context, name string, q ethrpc.FilterQuery) ([]Event, error) {
	ev, err := c.abi.Event(name)
	if err != nil {
		return nil, err
	}
	q.Addresses = []primitives.Address{c.address}
	if !ev.Anonymous() {
		topics := [][]primitives.Hash{{ev.Topic()}}
		if len(q.Topics) > 1 {
			topics = append(topics, q.Topics[1:]...)
		}
		q.Topics = topics
	}

	logs, err := c.client.GetLogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s logs: %w", name, err)
	}
	events := make([]Event, 0, len(logs))
	for _, l := range logs {
		fields, err := ev.DecodeLog(l.Topics, l.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s log: %w", name, err)
		}
		events = append(events, Event{Name: ev.Name(), Log: l, Fields: fields})
	}
	return events, nil
}
