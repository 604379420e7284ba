package ethrpc_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nando-os/ghost-rpc/pkg/ethrpc"
	"github.com/nando-os/ghost-rpc/pkg/jsonrpc"
	"github.com/nando-os/ghost-rpc/pkg/primitives"
	"github.com/nando-os/ghost-rpc/pkg/transaction"
)

type wireRequest struct {
	ID     uint64            `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeNode answers each method with a canned result and records the last
// request per method.
type fakeNode struct {
	t       *testing.T
	results map[string]string
	seen    map[string]wireRequest
}

func newFakeNode(t *testing.T, results map[string]string) (*fakeNode, *ethrpc.Client) {
	n := &fakeNode{t: t, results: results, seen: map[string]wireRequest{}}
	return n, ethrpc.Dial("http://node.invalid", jsonrpc.OutcallFunc(n.outcall))
}

func (n *fakeNode) outcall(ctx context.Context, out jsonrpc.OutcallRequest) (*jsonrpc.OutcallResponse, error) {
	var req wireRequest
	require.NoError(n.t, json.Unmarshal(out.Body, &req))
	n.seen[req.Method] = req
	result, ok := n.results[req.Method]
	if !ok {
		body := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"error":{"code":-32601,"message":"method not found"}}`, req.ID)
		return &jsonrpc.OutcallResponse{Status: 200, Body: []byte(body)}, nil
	}
	body := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":%s}`, req.ID, result)
	return &jsonrpc.OutcallResponse{Status: 200, Body: []byte(body)}, nil
}

func (n *fakeNode) params(method string) []string {
	req, ok := n.seen[method]
	require.True(n.t, ok, "method %s was not called", method)
	out := make([]string, len(req.Params))
	for i, p := range req.Params {
		out[i] = string(p)
	}
	return out
}

var addr = primitives.MustParseAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")

func TestClient_Scalars(t *testing.T) {
	node, client := newFakeNode(t, map[string]string{
		"eth_chainId":              `"0x1"`,
		"eth_blockNumber":          `"0x10d4f"`,
		"eth_getBalance":           `"0xde0b6b3a7640000"`,
		"eth_getTransactionCount":  `"0x7"`,
		"eth_gasPrice":             `"0x3b9aca00"`,
		"eth_maxPriorityFeePerGas": `"0x77359400"`,
	})
	ctx := context.Background()

	id, err := client.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", id.String())

	n, err := client.BlockNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(68943), n)

	bal, err := client.GetBalance(ctx, addr, "")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", bal.String())
	assert.Equal(t, []string{`"0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"`, `"latest"`}, node.params("eth_getBalance"))

	nonce, err := client.GetTransactionCount(ctx, addr, ethrpc.Pending)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), nonce)
	assert.Equal(t, `"pending"`, node.params("eth_getTransactionCount")[1])

	price, err := client.GasPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1000000000", price.String())

	tip, err := client.MaxPriorityFeePerGas(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2000000000", tip.String())
}

func TestClient_CallAndEstimate(t *testing.T) {
	node, client := newFakeNode(t, map[string]string{
		"eth_call":        `"0x000000000000000000000000000000000000000000000000000000000000002a"`,
		"eth_estimateGas": `"0x5208"`,
	})
	to := primitives.MustParseAddress("0x3535353535353535353535353535353535353535")
	req := ethrpc.CallRequest{From: &addr, To: &to, Data: primitives.Bytes{0x18, 0x16, 0x0d, 0xdd}}

	out, err := client.Call(context.Background(), req, ethrpc.BlockNumber(100))
	require.NoError(t, err)
	assert.Len(t, out, 32)
	params := node.params("eth_call")
	assert.JSONEq(t, `{"from":"0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266","to":"0x3535353535353535353535353535353535353535","data":"0x18160ddd"}`, params[0])
	assert.Equal(t, `"0x64"`, params[1])

	gas, err := client.EstimateGas(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), gas)
	assert.Len(t, node.params("eth_estimateGas"), 1)
}

func TestClient_SendTransaction(t *testing.T) {
	tx := transaction.UnsignedTransaction{
		Type:     transaction.LegacyTxType,
		ChainID:  transaction.Q(1),
		Nonce:    transaction.Q(0),
		GasPrice: transaction.Q(20_000_000_000),
		GasLimit: transaction.Q(21000),
		To:       &addr,
		Value:    transaction.Q(1),
	}
	signed, err := transaction.SignWithHexKey(tx, "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)

	node, client := newFakeNode(t, map[string]string{
		"eth_sendRawTransaction": fmt.Sprintf("%q", signed.Hash().Hex()),
	})
	hash, err := client.SendTransaction(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, signed.Hash(), hash)
	assert.Equal(t, []string{fmt.Sprintf("%q", signed.RawHex())}, node.params("eth_sendRawTransaction"))
}

func TestClient_SendRawTransaction_RPCError(t *testing.T) {
	_, client := newFakeNode(t, map[string]string{})
	_, err := client.SendRawTransaction(context.Background(), []byte{0x01})
	require.Error(t, err)
	assert.True(t, errors.Is(err, jsonrpc.ErrRPC))

	var rpcErr *jsonrpc.RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32601, rpcErr.Code)
}

func TestClient_NullResultsAreNotFound(t *testing.T) {
	_, client := newFakeNode(t, map[string]string{
		"eth_getTransactionReceipt": `null`,
		"eth_getTransactionByHash":  `null`,
		"eth_getBlockByNumber":      `null`,
	})
	hash := primitives.MustParseHash("0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b")

	_, err := client.GetTransactionReceipt(context.Background(), hash)
	assert.ErrorIs(t, err, ethereum.NotFound)

	_, err = client.GetTransactionByHash(context.Background(), hash)
	assert.ErrorIs(t, err, ethereum.NotFound)

	_, err = client.GetBlockHeader(context.Background(), ethrpc.BlockNumber(1 << 40))
	assert.ErrorIs(t, err, ethereum.NotFound)
}

func TestClient_GetTransactionReceipt(t *testing.T) {
	_, client := newFakeNode(t, map[string]string{
		"eth_getTransactionReceipt": `{
			"transactionHash":"0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b",
			"transactionIndex":"0x1",
			"blockHash":"0x1d59ff54b1eb26b013ce3cb5fc9dab3705b415a67127a003c3e61eb445bb8df2",
			"blockNumber":"0x5daf3b",
			"from":"0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266",
			"to":null,
			"type":"0x2",
			"status":"0x1",
			"cumulativeGasUsed":"0x33bc",
			"gasUsed":"0x4dc",
			"effectiveGasPrice":"0x3b9aca00",
			"contractAddress":"0x5fbdb2315678afecb367f032d93f642f64180aa3",
			"logs":[{
				"address":"0x5fbdb2315678afecb367f032d93f642f64180aa3",
				"topics":["0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"],
				"data":"0x",
				"blockNumber":"0x5daf3b",
				"blockHash":"0x1d59ff54b1eb26b013ce3cb5fc9dab3705b415a67127a003c3e61eb445bb8df2",
				"transactionHash":"0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b",
				"transactionIndex":"0x1",
				"logIndex":"0x0",
				"removed":false
			}],
			"logsBloom":"0x00"
		}`,
	})
	receipt, err := client.GetTransactionReceipt(context.Background(), primitives.MustParseHash("0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b"))
	require.NoError(t, err)
	assert.True(t, receipt.Succeeded())
	assert.Nil(t, receipt.To)
	require.NotNil(t, receipt.ContractAddress)
	assert.Equal(t, "0x5fbdb2315678afecb367f032d93f642f64180aa3", receipt.ContractAddress.Hex())
	assert.Equal(t, "6139707", receipt.BlockNumber.String())
	require.Len(t, receipt.Logs, 1)
	require.NotNil(t, receipt.Logs[0].LogIndex)
	assert.True(t, receipt.Logs[0].LogIndex.IsZero())
}

func TestClient_GetLogs(t *testing.T) {
	node, client := newFakeNode(t, map[string]string{
		"eth_getLogs": `[{
			"address":"0x5fbdb2315678afecb367f032d93f642f64180aa3",
			"topics":[],
			"data":"0x01",
			"blockNumber":null,
			"blockHash":null,
			"transactionHash":null,
			"transactionIndex":null,
			"logIndex":null,
			"removed":false
		}]`,
	})
	topic := primitives.MustParseHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")
	logs, err := client.GetLogs(context.Background(), ethrpc.FilterQuery{
		FromBlock: ethrpc.Earliest,
		ToBlock:   ethrpc.Pending,
		Addresses: []primitives.Address{addr},
		Topics:    [][]primitives.Hash{{topic}, nil},
	})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].BlockNumber)
	assert.Nil(t, logs[0].LogIndex)
	assert.Equal(t, primitives.Bytes{0x01}, logs[0].Data)

	assert.JSONEq(t, `{
		"fromBlock":"earliest",
		"toBlock":"pending",
		"address":["0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"],
		"topics":[["0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"],null]
	}`, node.params("eth_getLogs")[0])
}

func TestClient_GetLogs_RejectsHashWithRange(t *testing.T) {
	_, client := newFakeNode(t, map[string]string{})
	h := primitives.MustParseHash("0x1d59ff54b1eb26b013ce3cb5fc9dab3705b415a67127a003c3e61eb445bb8df2")
	_, err := client.GetLogs(context.Background(), ethrpc.FilterQuery{BlockHash: &h, FromBlock: ethrpc.Latest})
	assert.Error(t, err)
}

func TestClient_GetBlockHeader_Pending(t *testing.T) {
	node, client := newFakeNode(t, map[string]string{
		"eth_getBlockByNumber": `{
			"number":null,
			"hash":null,
			"parentHash":"0x1d59ff54b1eb26b013ce3cb5fc9dab3705b415a67127a003c3e61eb445bb8df2",
			"stateRoot":"0x1d59ff54b1eb26b013ce3cb5fc9dab3705b415a67127a003c3e61eb445bb8df2",
			"timestamp":"0x6553f100",
			"gasLimit":"0x1c9c380",
			"gasUsed":"0x0",
			"baseFeePerGas":"0x7",
			"extraData":"0x",
			"transactions":[]
		}`,
	})
	header, err := client.GetBlockHeader(context.Background(), ethrpc.Pending)
	require.NoError(t, err)
	assert.Nil(t, header.Number)
	assert.Nil(t, header.Hash)
	gasLimit, err := header.GasLimit.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(30_000_000), gasLimit)
	require.NotNil(t, header.BaseFeePerGas)
	assert.Equal(t, "7", header.BaseFeePerGas.String())
	assert.Equal(t, []string{`"pending"`, `false`}, node.params("eth_getBlockByNumber"))
}

func TestClient_FeeHistory(t *testing.T) {
	node, client := newFakeNode(t, map[string]string{
		"eth_feeHistory": `{"oldestBlock":"0x10","baseFeePerGas":["0x7","0x8"],"gasUsedRatio":[0.5],"reward":[["0x1","0x2"]]}`,
	})
	h, err := client.FeeHistory(context.Background(), 1, ethrpc.Latest, []float64{25, 75})
	require.NoError(t, err)
	assert.Equal(t, "16", h.OldestBlock.String())
	assert.Len(t, h.BaseFeePerGas, 2)
	assert.Equal(t, []float64{0.5}, h.GasUsedRatio)
	require.Len(t, h.Reward, 1)
	assert.Equal(t, []string{`"0x1"`, `"latest"`, `[25,75]`}, node.params("eth_feeHistory"))
}

func TestClient_CodeStorageAndRaw(t *testing.T) {
	node, client := newFakeNode(t, map[string]string{
		"eth_getCode":      `"0x6080"`,
		"eth_getStorageAt": `"0x000000000000000000000000000000000000000000000000000000000000002a"`,
		"net_version":      `"1"`,
	})
	ctx := context.Background()

	code, err := client.GetCode(ctx, addr, ethrpc.Finalized)
	require.NoError(t, err)
	assert.Equal(t, primitives.Bytes{0x60, 0x80}, code)
	assert.Equal(t, `"finalized"`, node.params("eth_getCode")[1])

	value, err := client.GetStorageAt(ctx, addr, primitives.Hash{}, ethrpc.Safe)
	require.NoError(t, err)
	assert.Equal(t, byte(0x2a), value[31])

	raw, err := client.Raw(ctx, "net_version")
	require.NoError(t, err)
	assert.JSONEq(t, `"1"`, string(raw))
}

func TestClient_BatchCall(t *testing.T) {
	oc := jsonrpc.OutcallFunc(func(ctx context.Context, out jsonrpc.OutcallRequest) (*jsonrpc.OutcallResponse, error) {
		var reqs []wireRequest
		require.NoError(t, json.Unmarshal(out.Body, &reqs))
		require.Len(t, reqs, 2)
		body := fmt.Sprintf(`[{"jsonrpc":"2.0","id":%d,"result":"0x2"},{"jsonrpc":"2.0","id":%d,"result":"0x1"}]`, reqs[1].ID, reqs[0].ID)
		return &jsonrpc.OutcallResponse{Status: 200, Body: []byte(body)}, nil
	})
	client := ethrpc.Dial("http://node.invalid", oc)

	var chainID, block primitives.Quantity
	batch := []jsonrpc.BatchElem{
		{Method: "eth_chainId", Result: &chainID},
		{Method: "eth_blockNumber", Result: &block},
	}
	require.NoError(t, client.BatchCall(context.Background(), batch))
	assert.NoError(t, batch[0].Error)
	assert.Equal(t, "1", chainID.String())
	assert.Equal(t, "2", block.String())
}

type plainCaller struct{}

func (plainCaller) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	return nil
}

func TestClient_BatchCall_Unsupported(t *testing.T) {
	client := ethrpc.NewClient(plainCaller{})
	err := client.BatchCall(context.Background(), nil)
	assert.ErrorIs(t, err, ethrpc.ErrBatchUnsupported)
}

func TestParseBlockTag(t *testing.T) {
	for in, want := range map[string]ethrpc.BlockTag{
		"latest":    ethrpc.Latest,
		"pending":   ethrpc.Pending,
		"earliest":  ethrpc.Earliest,
		"safe":      ethrpc.Safe,
		"finalized": ethrpc.Finalized,
		"0x1b4":     ethrpc.BlockNumber(436),
	} {
		got, err := ethrpc.ParseBlockTag(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "newest", "0x", "12", "0x01"} {
		_, err := ethrpc.ParseBlockTag(bad)
		assert.Error(t, err, bad)
	}
}
