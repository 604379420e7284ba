// Package ethrpc provides typed wrappers for the eth_* JSON-RPC methods. Each
// wrapper builds the method's parameter array, issues one call and decodes
// the result through the primitives package.
package ethrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/log"

	"github.com/nando-os/ghost-rpc/pkg/jsonrpc"
	"github.com/nando-os/ghost-rpc/pkg/primitives"
	"github.com/nando-os/ghost-rpc/pkg/transaction"
)

// ErrBatchUnsupported is returned by BatchCall when the underlying caller
// cannot send batches.
var ErrBatchUnsupported = errors.New("caller does not support batch requests")

// Caller issues one JSON-RPC call and decodes its result. *jsonrpc.Transport
// implements it.
type Caller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// BatchCaller is implemented by callers that can send batch requests.
type BatchCaller interface {
	BatchCall(ctx context.Context, batch []jsonrpc.BatchElem) error
}

var (
	_ Caller      = (*jsonrpc.Transport)(nil)
	_ BatchCaller = (*jsonrpc.Transport)(nil)
)

// Client is the typed eth_* API over a Caller.
type Client struct {
	caller Caller
}

func NewClient(caller Caller) *Client {
	return &Client{caller: caller}
}

// Dial builds a Client over a fresh jsonrpc.Transport for url.
func Dial(url string, outcaller jsonrpc.Outcaller, opts ...jsonrpc.Option) *Client {
	return NewClient(jsonrpc.NewTransport(url, outcaller, opts...))
}

func (c *Client) ChainID(ctx context.Context) (primitives.Quantity, error) {
	var id primitives.Quantity
	if err := c.caller.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return primitives.Quantity{}, err
	}
	return id, nil
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.callUint64(ctx, "eth_blockNumber")
}

// GetBalance returns the balance in wei of addr at block. An empty block
// means latest.
func (c *Client) GetBalance(ctx context.Context, addr primitives.Address, block BlockTag) (primitives.Quantity, error) {
	var balance primitives.Quantity
	if err := c.caller.CallContext(ctx, &balance, "eth_getBalance", addr, block.orLatest()); err != nil {
		return primitives.Quantity{}, err
	}
	return balance, nil
}

// GetTransactionCount returns the nonce of addr at block. Use Pending to
// count transactions still in the pool.
func (c *Client) GetTransactionCount(ctx context.Context, addr primitives.Address, block BlockTag) (uint64, error) {
	return c.callUint64(ctx, "eth_getTransactionCount", addr, block.orLatest())
}

func (c *Client) GasPrice(ctx context.Context) (primitives.Quantity, error) {
	var price primitives.Quantity
	if err := c.caller.CallContext(ctx, &price, "eth_gasPrice"); err != nil {
		return primitives.Quantity{}, err
	}
	return price, nil
}

func (c *Client) MaxPriorityFeePerGas(ctx context.Context) (primitives.Quantity, error) {
	var tip primitives.Quantity
	if err := c.caller.CallContext(ctx, &tip, "eth_maxPriorityFeePerGas"); err != nil {
		return primitives.Quantity{}, err
	}
	return tip, nil
}

// FeeHistory returns base fees and the requested reward percentiles for
// blockCount blocks ending at newest.
func (c *Client) FeeHistory(ctx context.Context, blockCount uint64, newest BlockTag, percentiles []float64) (*FeeHistory, error) {
	if percentiles == nil {
		percentiles = []float64{}
	}
	var history FeeHistory
	if err := c.caller.CallContext(ctx, &history, "eth_feeHistory", primitives.NewQuantity(blockCount), newest.orLatest(), percentiles); err != nil {
		return nil, err
	}
	return &history, nil
}

func (c *Client) EstimateGas(ctx context.Context, req CallRequest) (uint64, error) {
	return c.callUint64(ctx, "eth_estimateGas", req)
}

// Call executes req against the state at block without creating a
// transaction and returns the return data.
func (c *Client) Call(ctx context.Context, req CallRequest, block BlockTag) (primitives.Bytes, error) {
	var out primitives.Bytes
	if err := c.caller.CallContext(ctx, &out, "eth_call", req, block.orLatest()); err != nil {
		return nil, err
	}
	return out, nil
}

// SendRawTransaction submits signed transaction bytes and returns the hash
// reported by the node.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (primitives.Hash, error) {
	var hash primitives.Hash
	if err := c.caller.CallContext(ctx, &hash, "eth_sendRawTransaction", primitives.Bytes(raw)); err != nil {
		return primitives.Hash{}, err
	}
	return hash, nil
}

// SendTransaction submits a signed transaction. A node that reports a hash
// different from the locally computed one is logged but not treated as an
// error.
func (c *Client) SendTransaction(ctx context.Context, tx *transaction.SignedTransaction) (primitives.Hash, error) {
	hash, err := c.SendRawTransaction(ctx, tx.Raw())
	if err != nil {
		return primitives.Hash{}, err
	}
	if hash != tx.Hash() {
		log.Warn("Node reported unexpected transaction hash", "local", tx.Hash(), "remote", hash)
	}
	return hash, nil
}

// GetTransactionReceipt returns ethereum.NotFound while the transaction is
// unknown or pending.
func (c *Client) GetTransactionReceipt(ctx context.Context, hash primitives.Hash) (*Receipt, error) {
	var receipt *Receipt
	if err := c.caller.CallContext(ctx, &receipt, "eth_getTransactionReceipt", hash); err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

// GetTransactionByHash returns ethereum.NotFound for unknown transactions.
func (c *Client) GetTransactionByHash(ctx context.Context, hash primitives.Hash) (*RPCTransaction, error) {
	var tx *RPCTransaction
	if err := c.caller.CallContext(ctx, &tx, "eth_getTransactionByHash", hash); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ethereum.NotFound
	}
	return tx, nil
}

func (c *Client) GetCode(ctx context.Context, addr primitives.Address, block BlockTag) (primitives.Bytes, error) {
	var code primitives.Bytes
	if err := c.caller.CallContext(ctx, &code, "eth_getCode", addr, block.orLatest()); err != nil {
		return nil, err
	}
	return code, nil
}

func (c *Client) GetStorageAt(ctx context.Context, addr primitives.Address, slot primitives.Hash, block BlockTag) (primitives.Hash, error) {
	var value primitives.Hash
	if err := c.caller.CallContext(ctx, &value, "eth_getStorageAt", addr, slot, block.orLatest()); err != nil {
		return primitives.Hash{}, err
	}
	return value, nil
}

func (c *Client) GetLogs(ctx context.Context, q FilterQuery) ([]Log, error) {
	if q.BlockHash != nil && (q.FromBlock != "" || q.ToBlock != "") {
		return nil, fmt.Errorf("filter query cannot combine blockHash with a block range")
	}
	logs := []Log{}
	if err := c.caller.CallContext(ctx, &logs, "eth_getLogs", q); err != nil {
		return nil, err
	}
	return logs, nil
}

// GetBlockHeader returns the header of block without its transactions.
// Unknown blocks return ethereum.NotFound.
func (c *Client) GetBlockHeader(ctx context.Context, block BlockTag) (*Header, error) {
	var header *Header
	if err := c.caller.CallContext(ctx, &header, "eth_getBlockByNumber", block.orLatest(), false); err != nil {
		return nil, err
	}
	if header == nil {
		return nil, ethereum.NotFound
	}
	return header, nil
}

// Raw calls an arbitrary method and returns its undecoded result.
func (c *Client) Raw(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.caller.CallContext(ctx, &result, method, params...); err != nil {
		return nil, err
	}
	return result, nil
}

// BatchCall sends several calls in one request when the caller supports it.
func (c *Client) BatchCall(ctx context.Context, batch []jsonrpc.BatchElem) error {
	bc, ok := c.caller.(BatchCaller)
	if !ok {
		return ErrBatchUnsupported
	}
	return bc.BatchCall(ctx, batch)
}

// Close is a no-op: calls hold no connection state.
func (c *Client) Close() {}

func (c *Client) callUint64(ctx context.Context, method string, args ...interface{}) (uint64, error) {
	var q primitives.Quantity
	if err := c.caller.CallContext(ctx, &q, method, args...); err != nil {
		return 0, err
	}
	n, err := q.Uint64()
	if err != nil {
		return 0, fmt.Errorf("%s result: %w", method, err)
	}
	return n, nil
}
