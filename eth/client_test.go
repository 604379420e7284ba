package eth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	internalmocks "github.com/nando-os/ghost-rpc/internal/mocks"
	"github.com/nando-os/ghost-rpc/pkg/ethrpc"
	"github.com/nando-os/ghost-rpc/pkg/jsonrpc"
	"github.com/nando-os/ghost-rpc/pkg/primitives"
	"github.com/nando-os/ghost-rpc/pkg/transaction"
)

// Well-known development key; its address is
// 0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266.
const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var recipient = primitives.MustParseAddress("0x3535353535353535353535353535353535353535")

func testAccountAndConfig(t *testing.T) (*Account, *config) {
	key, err := transaction.ParsePrivateKey(testKey)
	require.NoError(t, err)
	acc := &Account{
		Address:    primitives.AddressFromCommon(crypto.PubkeyToAddress(key.PublicKey)),
		PublicKey:  &key.PublicKey,
		ChainId:    1,
		Label:      "main",
		PrivateKey: key,
	}
	cfg := &config{chainId: 1, accounts: []*Account{acc}, rpcURL: "http://localhost:8545"}
	return acc, cfg
}

func newTestGhostClient(mockClient EthClient, acc *Account, cfg Config) *ghostClient {
	return &ghostClient{
		client:  mockClient,
		ctx:     context.Background(),
		chainId: acc.ChainId,
		account: acc,
		config:  cfg,
	}
}

func header(gasLimit uint64, baseFee *primitives.Quantity) *ethrpc.Header {
	return &ethrpc.Header{GasLimit: primitives.NewQuantity(gasLimit), BaseFeePerGas: baseFee}
}

func TestGhostClient_TestAccountAddress(t *testing.T) {
	acc, _ := testAccountAndConfig(t)
	assert.Equal(t, "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", acc.Address.Hex())
}

func TestGhostClient_GetBalance(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	wantBalance := primitives.NewQuantity(42)
	mockClient.On("GetBalance", mock.Anything, acc.Address, ethrpc.Latest).Return(wantBalance, nil)
	gc := newTestGhostClient(mockClient, acc, cfg)

	bal, err := gc.GetBalance(acc.Address)
	assert.NoError(t, err)
	assert.Equal(t, wantBalance, bal)
	mockClient.AssertExpectations(t)
}

func TestGhostClient_GetBalance_Error(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	mockClient.On("GetBalance", mock.Anything, acc.Address, ethrpc.Latest).Return(primitives.Quantity{}, errors.New("fail"))
	gc := newTestGhostClient(mockClient, acc, cfg)

	_, err := gc.GetBalance(acc.Address)
	assert.Error(t, err)
	mockClient.AssertExpectations(t)
}

func TestGhostClient_Close(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	mockClient.On("Close").Return()
	gc := newTestGhostClient(mockClient, acc, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	gc.ctx, gc.cancel = ctx, cancel

	gc.Close()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	mockClient.AssertExpectations(t)
}

func TestGhostClient_EstimateGasAndSetLimit_Simple(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	// Simulate EstimateGas returns 21000, block gas limit is 30000000
	mockClient.On("EstimateGas", mock.Anything, mock.MatchedBy(func(req ethrpc.CallRequest) bool {
		return req.From != nil && *req.From == acc.Address && req.To != nil && *req.To == recipient
	})).Return(uint64(21000), nil)
	mockClient.On("GetBlockHeader", mock.Anything, ethrpc.Latest).Return(header(30000000, nil), nil)
	gc := newTestGhostClient(mockClient, acc, cfg)

	tx := &Transaction{
		From: acc.Address,
		To:   &recipient,
	}
	err := gc.estimateGasAndSetLimit(tx)
	assert.NoError(t, err)
	// Default buffer for simple is 1.1, so expect 21000*1.1 = 23100
	assert.Equal(t, uint64(23100), tx.GasLimit)
	mockClient.AssertExpectations(t)
}

func TestGhostClient_EstimateGasAndSetLimit_Complex(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	mockClient.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(50000), nil)
	mockClient.On("GetBlockHeader", mock.Anything, ethrpc.Latest).Return(header(30000000, nil), nil)
	gc := newTestGhostClient(mockClient, acc, cfg)

	tx := &Transaction{
		From: acc.Address,
		To:   &recipient,
		Data: primitives.Bytes{1, 2, 3}, // complex
	}
	err := gc.estimateGasAndSetLimit(tx)
	assert.NoError(t, err)
	// Default buffer for complex is 1.2, so expect 50000*1.2 = 60000
	assert.Equal(t, uint64(60000), tx.GasLimit)
	mockClient.AssertExpectations(t)
}

func TestGhostClient_EstimateGasAndSetLimit_ConfiguredBuffer(t *testing.T) {
	t.Setenv("ETH_GAS_LIMIT_BUFFER_SIMPLE", "1.5")
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	mockClient.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(20000), nil)
	mockClient.On("GetBlockHeader", mock.Anything, ethrpc.Latest).Return(header(30000000, nil), nil)
	gc := newTestGhostClient(mockClient, acc, cfg)

	tx := &Transaction{From: acc.Address, To: &recipient}
	require.NoError(t, gc.estimateGasAndSetLimit(tx))
	assert.Equal(t, uint64(30000), tx.GasLimit)
}

func TestGhostClient_EstimateGasAndSetLimit_Errors(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	// Simulate EstimateGas error
	mockClient.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(0), errors.New("fail estimate"))
	gc := newTestGhostClient(mockClient, acc, cfg)

	tx := &Transaction{From: acc.Address, To: &recipient}
	err := gc.estimateGasAndSetLimit(tx)
	assert.Error(t, err)
	mockClient.AssertExpectations(t)

	// Simulate gas limit too high
	mockClient = &internalmocks.EthClient{}
	mockClient.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(10000000), nil)
	mockClient.On("GetBlockHeader", mock.Anything, ethrpc.Latest).Return(header(12000000, nil), nil)
	gc.client = mockClient
	tx = &Transaction{From: acc.Address, To: &recipient}
	err = gc.estimateGasAndSetLimit(tx)
	assert.Error(t, err)
	mockClient.AssertExpectations(t)
}

func TestGhostClient_CalculateOptimalFees_EIP1559(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	baseFee := primitives.NewQuantity(100)
	mockClient.On("GetBlockHeader", mock.Anything, ethrpc.Latest).Return(header(30000000, &baseFee), nil)
	gc := newTestGhostClient(mockClient, acc, cfg)

	tx := &Transaction{From: acc.Address, To: &recipient}
	err := gc.calculateOptimalFees(tx)
	assert.NoError(t, err)
	// Priority fee for mainnet is 2 gwei
	require.NotNil(t, tx.MaxPriorityFeePerGas)
	assert.Equal(t, cfg.PriorityFeeMainnet(), *tx.MaxPriorityFeePerGas)
	// MaxFeePerGas should be 2*baseFee + priorityFee
	require.NotNil(t, tx.MaxFeePerGas)
	assert.Equal(t, primitives.NewQuantity(2*100+2*GWEI), *tx.MaxFeePerGas)
	assert.Nil(t, tx.GasPrice)
	mockClient.AssertExpectations(t)
}

func TestGhostClient_CalculateOptimalFees_BasePriorityFee(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	acc.ChainId = 8453
	mockClient := &internalmocks.EthClient{}
	baseFee := primitives.NewQuantity(10)
	mockClient.On("GetBlockHeader", mock.Anything, ethrpc.Latest).Return(header(30000000, &baseFee), nil)
	gc := newTestGhostClient(mockClient, acc, cfg)

	tx := &Transaction{From: acc.Address, To: &recipient}
	require.NoError(t, gc.calculateOptimalFees(tx))
	assert.Equal(t, primitives.NewQuantity(DEFAULT_PRIORITY_FEE_BASE), *tx.MaxPriorityFeePerGas)
}

func TestGhostClient_CalculateOptimalFees_Legacy(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	mockClient.On("GetBlockHeader", mock.Anything, ethrpc.Latest).Return(header(30000000, nil), nil)
	mockClient.On("GasPrice", mock.Anything).Return(primitives.NewQuantity(12345), nil)
	gc := newTestGhostClient(mockClient, acc, cfg)

	tx := &Transaction{From: acc.Address, To: &recipient}
	err := gc.calculateOptimalFees(tx)
	assert.NoError(t, err)
	require.NotNil(t, tx.GasPrice)
	assert.Equal(t, primitives.NewQuantity(12345), *tx.GasPrice)
	mockClient.AssertExpectations(t)
}

func TestGhostClient_CalculateOptimalFees_KeepsPresetGasPrice(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	baseFee := primitives.NewQuantity(100)
	mockClient.On("GetBlockHeader", mock.Anything, ethrpc.Latest).Return(header(30000000, &baseFee), nil)
	gc := newTestGhostClient(mockClient, acc, cfg)

	tx := &Transaction{From: acc.Address, To: &recipient, GasPrice: transaction.Q(7)}
	require.NoError(t, gc.calculateOptimalFees(tx))
	assert.Nil(t, tx.MaxFeePerGas)
	assert.Equal(t, primitives.NewQuantity(7), *tx.GasPrice)
	mockClient.AssertNotCalled(t, "GasPrice", mock.Anything)
}

func TestGhostClient_CalculateOptimalFees_HeaderError(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	mockClient.On("GetBlockHeader", mock.Anything, ethrpc.Latest).Return(nil, errors.New("fail header"))
	gc := newTestGhostClient(mockClient, acc, cfg)

	tx := &Transaction{From: acc.Address, To: &recipient}
	err := gc.calculateOptimalFees(tx)
	assert.Error(t, err)
	mockClient.AssertExpectations(t)
}

func TestGhostClient_CalculateOptimalFees_GasPriceError(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	mockClient.On("GetBlockHeader", mock.Anything, ethrpc.Latest).Return(header(30000000, nil), nil)
	mockClient.On("GasPrice", mock.Anything).Return(primitives.Quantity{}, errors.New("fail gas price"))
	gc := newTestGhostClient(mockClient, acc, cfg)

	tx := &Transaction{From: acc.Address, To: &recipient}
	err := gc.calculateOptimalFees(tx)
	assert.Error(t, err)
	mockClient.AssertExpectations(t)
}

func TestGhostClient_CalculateOptimalFees_MaxFeeTooHigh(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	baseFee := primitives.NewQuantity(1e18) // very high base fee
	mockClient.On("GetBlockHeader", mock.Anything, ethrpc.Latest).Return(header(30000000, &baseFee), nil)
	gc := newTestGhostClient(mockClient, acc, cfg)

	tx := &Transaction{From: acc.Address, To: &recipient}
	err := gc.calculateOptimalFees(tx)
	assert.Error(t, err)
	mockClient.AssertExpectations(t)
}

func TestGhostClient_GetTransactionReceipt_Success(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	hash := primitives.MustParseHash("0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b")
	receipt := &ethrpc.Receipt{
		TransactionHash: hash,
		Status:          transaction.Q(1),
		BlockNumber:     primitives.NewQuantity(123),
		GasUsed:         primitives.NewQuantity(21000),
		From:            acc.Address,
		To:              &recipient,
		Logs:            []ethrpc.Log{},
	}
	mockClient.On("GetTransactionReceipt", mock.Anything, hash).Return(receipt, nil)
	gc := newTestGhostClient(mockClient, acc, cfg)

	r, err := gc.GetTransactionReceipt(hash)
	assert.NoError(t, err)
	assert.Equal(t, hash, r.TxHash)
	assert.Equal(t, uint64(1), r.Status)
	assert.Equal(t, uint64(123), r.BlockNumber)
	assert.Equal(t, uint64(21000), r.GasUsed)
	assert.Equal(t, acc.Address, r.From)
	assert.Equal(t, &recipient, r.To)
	mockClient.AssertExpectations(t)
}

func TestGhostClient_GetTransactionReceipt_Failed(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	hash := primitives.MustParseHash("0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b")
	mockClient.On("GetTransactionReceipt", mock.Anything, hash).Return(&ethrpc.Receipt{TransactionHash: hash, Status: transaction.Q(0)}, nil)
	gc := newTestGhostClient(mockClient, acc, cfg)

	r, err := gc.GetTransactionReceipt(hash)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), r.Status)
}

func TestGhostClient_GetTransactionReceipt_Error(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	hash := primitives.MustParseHash("0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b")
	mockClient.On("GetTransactionReceipt", mock.Anything, hash).Return(nil, ethereum.NotFound)
	gc := newTestGhostClient(mockClient, acc, cfg)

	_, err := gc.GetTransactionReceipt(hash)
	assert.ErrorIs(t, err, ethereum.NotFound)
	mockClient.AssertExpectations(t)
}

func TestGhostClient_SignTransaction_EIP1559_Success(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	// Nonce
	mockClient.On("GetTransactionCount", mock.Anything, acc.Address, ethrpc.Pending).Return(uint64(7), nil)
	// Gas estimation and fee calculation share the latest header
	mockClient.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(21000), nil)
	baseFee := primitives.NewQuantity(100)
	mockClient.On("GetBlockHeader", mock.Anything, ethrpc.Latest).Return(header(30000000, &baseFee), nil)
	gc := newTestGhostClient(mockClient, acc, cfg)

	tx := &Transaction{
		From:  acc.Address,
		To:    &recipient,
		Value: transaction.Q(1e18),
	}
	result, err := gc.SignTransaction(tx)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), tx.Nonce)
	assert.Equal(t, uint64(23100), tx.GasLimit)
	assert.NotNil(t, tx.MaxFeePerGas)
	assert.NotNil(t, tx.MaxPriorityFeePerGas)

	assert.Equal(t, transaction.DynamicFeeTxType, result.Type())
	sender, err := result.Sender()
	require.NoError(t, err)
	assert.Equal(t, acc.Address, sender)

	decoded, err := transaction.Decode(result.Raw())
	require.NoError(t, err)
	assert.Equal(t, result.Hash(), decoded.Hash())
	unsigned := decoded.Transaction()
	assert.Equal(t, "7", unsigned.Nonce.String())
	assert.Equal(t, "1", unsigned.ChainID.String())
	mockClient.AssertExpectations(t)
}

func TestGhostClient_SignTransaction_Legacy(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	mockClient.On("GetBlockHeader", mock.Anything, ethrpc.Latest).Return(header(30000000, nil), nil)
	gc := newTestGhostClient(mockClient, acc, cfg)

	tx := &Transaction{
		From:     acc.Address,
		To:       &recipient,
		Value:    transaction.Q(1),
		Nonce:    3,
		GasLimit: 21000,
		GasPrice: transaction.Q(20 * GWEI),
	}
	result, err := gc.SignTransaction(tx)
	require.NoError(t, err)
	assert.Equal(t, transaction.LegacyTxType, result.Type())
	v := result.Signature().V.String()
	assert.Contains(t, []string{"37", "38"}, v)
	mockClient.AssertNotCalled(t, "GetTransactionCount", mock.Anything, mock.Anything, mock.Anything)
	mockClient.AssertNotCalled(t, "EstimateGas", mock.Anything, mock.Anything)
}

func TestGhostClient_SignTransaction_AccessList(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	mockClient.On("GetBlockHeader", mock.Anything, ethrpc.Latest).Return(header(30000000, nil), nil)
	gc := newTestGhostClient(mockClient, acc, cfg)

	tx := &Transaction{
		From:     acc.Address,
		To:       &recipient,
		Nonce:    1,
		GasLimit: 30000,
		GasPrice: transaction.Q(GWEI),
		AccessList: transaction.AccessList{
			{Address: recipient, StorageKeys: []primitives.Hash{{}}},
		},
	}
	result, err := gc.SignTransaction(tx)
	require.NoError(t, err)
	assert.Equal(t, transaction.AccessListTxType, result.Type())
	assert.Len(t, result.Transaction().AccessList, 1)
}

func TestGhostClient_SignTransaction_Errors(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)

	// Read-only account
	readOnly := *acc
	readOnly.PrivateKey = nil
	gc := newTestGhostClient(&internalmocks.EthClient{}, &readOnly, cfg)
	_, err := gc.SignTransaction(&Transaction{From: acc.Address, To: &recipient})
	assert.Error(t, err)

	// Foreign sender
	gc = newTestGhostClient(&internalmocks.EthClient{}, acc, cfg)
	_, err = gc.SignTransaction(&Transaction{From: recipient, To: &recipient})
	assert.Error(t, err)

	// Nonce error
	mockClient := &internalmocks.EthClient{}
	mockClient.On("GetTransactionCount", mock.Anything, acc.Address, ethrpc.Pending).Return(uint64(0), errors.New("fail nonce")).Once()
	gc.client = mockClient
	_, err = gc.SignTransaction(&Transaction{From: acc.Address, To: &recipient})
	assert.Error(t, err)
	mockClient.AssertExpectations(t)

	// Gas estimation error
	mockClient = &internalmocks.EthClient{}
	mockClient.On("GetTransactionCount", mock.Anything, acc.Address, ethrpc.Pending).Return(uint64(1), nil)
	mockClient.On("EstimateGas", mock.Anything, mock.Anything).Return(uint64(0), errors.New("fail gas")).Once()
	gc.client = mockClient
	_, err = gc.SignTransaction(&Transaction{From: acc.Address, To: &recipient})
	assert.Error(t, err)
	mockClient.AssertExpectations(t)

	// Fee error (simulate header error)
	mockClient = &internalmocks.EthClient{}
	mockClient.On("GetTransactionCount", mock.Anything, acc.Address, ethrpc.Pending).Return(uint64(2), nil)
	mockClient.On("GetBlockHeader", mock.Anything, ethrpc.Latest).Return(nil, errors.New("fail header"))
	gc.client = mockClient
	_, err = gc.SignTransaction(&Transaction{From: acc.Address, To: &recipient, GasLimit: 21000})
	assert.Error(t, err)
	mockClient.AssertExpectations(t)
}

func TestGhostClient_SendTransaction(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	signed, err := transaction.Sign(transaction.UnsignedTransaction{
		Type:     transaction.LegacyTxType,
		ChainID:  transaction.Q(1),
		Nonce:    transaction.Q(0),
		GasPrice: transaction.Q(GWEI),
		GasLimit: transaction.Q(21000),
		To:       &recipient,
		Value:    transaction.Q(1),
	}, acc.PrivateKey)
	require.NoError(t, err)

	mockClient := &internalmocks.EthClient{}
	mockClient.On("SendRawTransaction", mock.Anything, signed.Raw()).Return(signed.Hash(), nil)
	gc := newTestGhostClient(mockClient, acc, cfg)

	receipt, err := gc.SendTransaction(signed)
	require.NoError(t, err)
	assert.Equal(t, signed.Hash(), receipt.TxHash)
	assert.Equal(t, uint64(0), receipt.Status)
	assert.Equal(t, acc.Address, receipt.From)
	assert.Equal(t, &recipient, receipt.To)
	mockClient.AssertExpectations(t)
}

func TestGhostClient_SendTransaction_Error(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	signed, err := transaction.Sign(transaction.UnsignedTransaction{
		Type:     transaction.LegacyTxType,
		ChainID:  transaction.Q(1),
		Nonce:    transaction.Q(0),
		GasPrice: transaction.Q(GWEI),
		GasLimit: transaction.Q(21000),
		To:       &recipient,
	}, acc.PrivateKey)
	require.NoError(t, err)

	mockClient := &internalmocks.EthClient{}
	rpcErr := &jsonrpc.RPCError{Code: -32000, Message: "nonce too low"}
	mockClient.On("SendRawTransaction", mock.Anything, mock.Anything).Return(primitives.Hash{}, rpcErr)
	gc := newTestGhostClient(mockClient, acc, cfg)

	_, err = gc.SendTransaction(signed)
	assert.ErrorIs(t, err, jsonrpc.ErrRPC)
}

func TestGhostClient_WaitForTransaction(t *testing.T) {
	t.Setenv("ETH_TRANSACTION_TICKER_SECONDS", "1")
	acc, cfg := testAccountAndConfig(t)
	hash := primitives.MustParseHash("0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b")
	mockClient := &internalmocks.EthClient{}
	mockClient.On("GetTransactionReceipt", mock.Anything, hash).Return(&ethrpc.Receipt{
		TransactionHash: hash,
		Status:          transaction.Q(1),
		BlockNumber:     primitives.NewQuantity(9),
	}, nil)
	gc := newTestGhostClient(mockClient, acc, cfg)

	receipt, err := gc.WaitForTransaction(hash)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), receipt.BlockNumber)
	mockClient.AssertExpectations(t)
}

func TestGhostClient_WaitForTransaction_Timeout(t *testing.T) {
	t.Setenv("ETH_TRANSACTION_TIMEOUT_SECONDS", "1")
	t.Setenv("ETH_TRANSACTION_TICKER_SECONDS", "30")
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	gc := newTestGhostClient(mockClient, acc, cfg)

	_, err := gc.WaitForTransaction(primitives.Hash{})
	assert.Error(t, err)
	mockClient.AssertNotCalled(t, "GetTransactionReceipt", mock.Anything, mock.Anything)
}

func TestGhostClient_WaitForTransaction_Closed(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	mockClient.On("Close").Return()
	gc := newTestGhostClient(mockClient, acc, cfg)
	gc.ctx, gc.cancel = context.WithCancel(context.Background())
	gc.Close()

	_, err := gc.WaitForTransaction(primitives.Hash{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewGhostClient_ChainMismatch(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	mockClient.On("ChainID", mock.Anything).Return(primitives.NewQuantity(5), nil)

	_, err := newGhostClient(mockClient, acc, cfg)
	assert.Error(t, err)
	mockClient.AssertExpectations(t)
}

func TestNewGhostClient_ChainIDError(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	mockClient := &internalmocks.EthClient{}
	mockClient.On("ChainID", mock.Anything).Return(primitives.Quantity{}, errors.New("unreachable"))

	_, err := newGhostClient(mockClient, acc, cfg)
	assert.Error(t, err)
}

func TestNewGhostClient_ValidatesAccount(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	oc := jsonrpc.OutcallFunc(func(ctx context.Context, req jsonrpc.OutcallRequest) (*jsonrpc.OutcallResponse, error) {
		t.Fatal("no outcall expected")
		return nil, nil
	})

	noAddress := *acc
	noAddress.Address = primitives.Address{}
	_, err := NewGhostClientWithOutcaller(&noAddress, cfg, oc)
	assert.Error(t, err)

	noChain := *acc
	noChain.ChainId = 0
	_, err = NewGhostClientWithOutcaller(&noChain, cfg, oc)
	assert.Error(t, err)

	_, err = NewGhostClientWithOutcaller(acc, &config{chainId: 1}, oc)
	assert.Error(t, err)
}

func TestNewGhostClientWithOutcaller(t *testing.T) {
	acc, cfg := testAccountAndConfig(t)
	var methods []string
	oc := jsonrpc.OutcallFunc(func(ctx context.Context, req jsonrpc.OutcallRequest) (*jsonrpc.OutcallResponse, error) {
		assert.Equal(t, "http://localhost:8545", req.URL)
		assert.Equal(t, jsonrpc.DefaultMaxResponseBytes, req.MaxResponseBytes)
		var call struct {
			ID     uint64 `json:"id"`
			Method string `json:"method"`
		}
		require.NoError(t, json.Unmarshal(req.Body, &call))
		methods = append(methods, call.Method)
		result := `"0x1"`
		if call.Method == "eth_getBalance" {
			result = `"0x2a"`
		}
		body := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":%s}`, call.ID, result)
		return &jsonrpc.OutcallResponse{Status: 200, Body: []byte(body)}, nil
	})

	gc, err := NewGhostClientWithOutcaller(acc, cfg, oc)
	require.NoError(t, err)
	defer gc.Close()

	bal, err := gc.GetBalance(acc.Address)
	require.NoError(t, err)
	assert.Equal(t, "42", bal.String())
	assert.Equal(t, []string{"eth_chainId", "eth_getBalance"}, methods)
	assert.Equal(t, acc, gc.Account())
}
