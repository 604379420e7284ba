package eth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/log"

	"github.com/nando-os/ghost-rpc/pkg/ethrpc"
	"github.com/nando-os/ghost-rpc/pkg/jsonrpc"
	"github.com/nando-os/ghost-rpc/pkg/outcall"
	"github.com/nando-os/ghost-rpc/pkg/primitives"
	"github.com/nando-os/ghost-rpc/pkg/transaction"
)

type GhostClient interface {
	// SendTransaction sends a signed transaction to the network
	SendTransaction(signedTx *transaction.SignedTransaction) (*TransactionReceipt, error)

	// SignTransaction signs a transaction with the client's private key
	SignTransaction(tx *Transaction) (*transaction.SignedTransaction, error)

	// SignMessage signs message with the EIP-191 personal message prefix
	SignMessage(message []byte) ([]byte, error)

	// GetBalance returns the ETH balance of an address
	GetBalance(address primitives.Address) (primitives.Quantity, error)

	// WaitForTransaction waits for a transaction to be mined and returns the receipt
	WaitForTransaction(hash primitives.Hash) (*TransactionReceipt, error)

	// GetTransactionReceipt returns the receipt for a transaction if it exists
	GetTransactionReceipt(hash primitives.Hash) (*TransactionReceipt, error)

	// Account returns the account the client signs for
	Account() *Account

	// Backend returns the typed RPC client used by the GhostClient
	Backend() EthClient

	// Close cancels outstanding calls and releases the backend
	Close()
}

// EthClient is the subset of *ethrpc.Client used by GhostClient and
// Contract, kept as an interface for testability.
type EthClient interface {
	ChainID(ctx context.Context) (primitives.Quantity, error)
	GetBalance(ctx context.Context, addr primitives.Address, block ethrpc.BlockTag) (primitives.Quantity, error)
	GetTransactionCount(ctx context.Context, addr primitives.Address, block ethrpc.BlockTag) (uint64, error)
	GasPrice(ctx context.Context) (primitives.Quantity, error)
	EstimateGas(ctx context.Context, req ethrpc.CallRequest) (uint64, error)
	Call(ctx context.Context, req ethrpc.CallRequest, block ethrpc.BlockTag) (primitives.Bytes, error)
	SendRawTransaction(ctx context.Context, raw []byte) (primitives.Hash, error)
	GetTransactionReceipt(ctx context.Context, hash primitives.Hash) (*ethrpc.Receipt, error)
	GetBlockHeader(ctx context.Context, block ethrpc.BlockTag) (*ethrpc.Header, error)
	GetLogs(ctx context.Context, q ethrpc.FilterQuery) ([]ethrpc.Log, error)
	Close()
}

// Ensure *ethrpc.Client implements EthClient
var _ EthClient = (*ethrpc.Client)(nil)

type ghostClient struct {
	client  EthClient
	ctx     context.Context
	cancel  context.CancelFunc
	chainId int64
	account *Account
	config  Config
}

// NewGhostClient connects to the configured RPC URL over HTTP.
func NewGhostClient(account *Account, cfg Config, opts ...jsonrpc.Option) (GhostClient, error) {
	// Log proxy usage if configured
	if os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" {
		log.Info("Using HTTP proxy for Ethereum RPC",
			"http_proxy", os.Getenv("HTTP_PROXY"),
			"https_proxy", os.Getenv("HTTPS_PROXY"))
	}
	// HTTP_PROXY and HTTPS_PROXY environment variables are honoured by the default transport
	return NewGhostClientWithOutcaller(account, cfg, outcall.NewHTTPOutcaller(nil), opts...)
}

// NewGhostClientWithOutcaller issues every RPC call through outcaller, which
// lets a host supply its own single-shot request primitive.
func NewGhostClientWithOutcaller(account *Account, cfg Config, outcaller jsonrpc.Outcaller, opts ...jsonrpc.Option) (GhostClient, error) {
	// -- validate account
	if account == nil {
		return nil, fmt.Errorf("account is nil")
	}

	if account.Address.IsZero() {
		return nil, fmt.Errorf("account address is not set")
	}

	if account.ChainId == 0 {
		return nil, fmt.Errorf("account chain ID is not set")
	}

	if account.PublicKey == nil {
		return nil, fmt.Errorf("account public key is not set")
	}

	if cfg.RPCURL() == "" {
		return nil, fmt.Errorf("%s is not set", envRpcURL)
	}

	log.Info("Connecting to Ethereum RPC", "url", cfg.RPCURL())
	opts = append([]jsonrpc.Option{jsonrpc.WithMaxResponseBytes(cfg.MaxResponseBytes())}, opts...)
	transport := jsonrpc.NewTransport(cfg.RPCURL(), outcaller, opts...)
	client := ethrpc.NewClient(ethrpc.WithRetry(transport, cfg.RetryPolicy()))

	return newGhostClient(client, account, cfg)
}

// newGhostClient verifies that the backend serves the account's chain.
func newGhostClient(client EthClient, account *Account, cfg Config) (*ghostClient, error) {
	ctx, cancel := context.WithCancel(context.Background())

	// -- Verify connection and get chain ID
	log.Info("Verifying connection and getting chain ID")
	clientChainId, err := client.ChainID(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	// -- Check if chain ID matches config
	remote, err := clientChainId.Uint64()
	if err != nil || remote > math.MaxInt64 || int64(remote) != account.ChainId {
		cancel()
		return nil, fmt.Errorf("expected chain ID %d, got %s", account.ChainId, clientChainId)
	}

	log.Info("Successfully connected to Ethereum network",
		"chain_id", remote,
		"account", account.Address.Checksum(),
		"read_only", !account.CanSign())

	return &ghostClient{
		client:  client,
		ctx:     ctx,
		cancel:  cancel,
		chainId: account.ChainId,
		account: account,
		config:  cfg,
	}, nil
}

func (es *ghostClient) Account() *Account { return es.account }

func (es *ghostClient) Backend() EthClient { return es.client }

// SendTransaction sends a signed transaction to the network
func (es *ghostClient) SendTransaction(signedTx *transaction.SignedTransaction) (*TransactionReceipt, error) {
	log.Info("Sending transaction to network", "hash", signedTx.Hash())

	hash, err := es.client.SendRawTransaction(es.ctx, signedTx.Raw())
	if err != nil {
		log.Error("Failed to send transaction", "error", err)
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}
	if hash != signedTx.Hash() {
		log.Warn("Node reported unexpected transaction hash", "local", signedTx.Hash(), "remote", hash)
	}

	log.Info("Transaction sent successfully", "hash", signedTx.Hash())

	sender, err := signedTx.Sender()
	if err != nil {
		return nil, err
	}
	// Return immediately with transaction hash
	return &TransactionReceipt{
		TxHash: signedTx.Hash(),
		Status: 0, // Pending
		From:   sender,
		To:     signedTx.Transaction().To,
	}, nil
}

// WaitForTransaction waits for a transaction to be mined and returns the receipt
func (es *ghostClient) WaitForTransaction(hash primitives.Hash) (*TransactionReceipt, error) {
	timeout := time.Duration(es.config.TransactionTimeoutSeconds()) * time.Second
	tickerInterval := time.Duration(es.config.TransactionTickerSeconds()) * time.Second

	timeoutChan := time.After(timeout)
	ticker := time.NewTicker(tickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-es.ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", hash, es.ctx.Err())
		case <-timeoutChan:
			return nil, fmt.Errorf("transaction timeout: %s", hash)
		case <-ticker.C:
			receipt, err := es.GetTransactionReceipt(hash)
			if err == nil {
				log.Info("Transaction mined", "hash", hash, "block", receipt.BlockNumber, "status", receipt.Status)
				return receipt, nil
			}
			if !errors.Is(err, ethereum.NotFound) {
				log.Debug("Receipt lookup failed", "hash", hash, "error", err)
			}
		}
	}
}

// estimateGasAndSetLimit estimates gas for the transaction and sets tx.GasLimit accordingly.
func (es *ghostClient) estimateGasAndSetLimit(tx *Transaction) error {
	from := tx.From
	msg := ethrpc.CallRequest{
		From:       &from,
		To:         tx.To,
		Value:      tx.Value,
		Data:       tx.Data,
		AccessList: tx.AccessList,
	}

	gasLimit, err := es.client.EstimateGas(es.ctx, msg)
	if err != nil {
		log.Error("Failed to estimate gas", "error", err)
		return fmt.Errorf("failed to estimate gas: %w", err)
	}

	// Add dynamic buffer based on transaction complexity
	var buffer float64
	if len(tx.Data) == 0 {
		buffer = es.config.GasLimitBufferSimple()
		log.Info("Using simple transaction buffer", "buffer", buffer)
	} else {
		buffer = es.config.GasLimitBufferComplex()
		log.Info("Using complex transaction buffer", "buffer", buffer)
	}
	tx.GasLimit = uint64(float64(gasLimit) * buffer)
	log.Info("Gas limit calculated", "estimated", gasLimit, "with_buffer", tx.GasLimit)

	// Validate against network gas limit, transaction will get blocked if goes above it
	header, err := es.client.GetBlockHeader(es.ctx, ethrpc.Latest)
	if err != nil {
		return nil
	}
	blockGasLimit, err := header.GasLimit.Uint64()
	if err == nil && blockGasLimit > 0 {
		maxGas := blockGasLimit * 2 / 3 // Use 2/3 of block gas limit
		if tx.GasLimit > maxGas {
			log.Error("Gas limit too high", "gas_limit", tx.GasLimit, "max_allowed", maxGas)
			return fmt.Errorf("gas limit %d exceeds maximum allowed %d", tx.GasLimit, maxGas)
		}
	}
	return nil
}

// SignTransaction signs a transaction with the client's private key
func (es *ghostClient) SignTransaction(tx *Transaction) (*transaction.SignedTransaction, error) {
	log.Info("Starting transaction signing process", "from", tx.From, "to", tx.To)

	if !es.account.CanSign() {
		return nil, fmt.Errorf("account %s is read-only", es.account.Address)
	}
	if tx.From != es.account.Address {
		return nil, fmt.Errorf("transaction sender %s is not the client account %s", tx.From, es.account.Address)
	}

	// Get nonce if not provided
	if tx.Nonce == 0 {
		log.Info("Getting nonce for address", "address", tx.From)
		nonce, err := es.client.GetTransactionCount(es.ctx, tx.From, ethrpc.Pending)
		if err != nil {
			log.Error("Failed to get nonce", "error", err)
			return nil, fmt.Errorf("failed to get nonce: %w", err)
		}
		tx.Nonce = nonce
		log.Info("Got nonce", "nonce", nonce)
	}

	// Estimate gas if not provided
	if tx.GasLimit == 0 {
		if err := es.estimateGasAndSetLimit(tx); err != nil {
			return nil, err
		}
	}

	// Calculate fees based on network conditions
	log.Info("Calculating optimal fees")
	if err := es.calculateOptimalFees(tx); err != nil {
		log.Error("Failed to calculate fees", "error", err)
		return nil, fmt.Errorf("failed to calculate fees: %w", err)
	}

	unsigned := transaction.UnsignedTransaction{
		ChainID:    transaction.Q(uint64(es.chainId)),
		Nonce:      transaction.Q(tx.Nonce),
		GasLimit:   transaction.Q(tx.GasLimit),
		To:         tx.To,
		Value:      tx.Value,
		Data:       tx.Data,
		AccessList: tx.AccessList,
	}

	switch {
	case tx.MaxFeePerGas != nil && tx.MaxPriorityFeePerGas != nil:
		log.Info("Creating EIP-1559 transaction",
			"max_fee_per_gas", tx.MaxFeePerGas,
			"max_priority_fee_per_gas", tx.MaxPriorityFeePerGas)
		unsigned.Type = transaction.DynamicFeeTxType
		unsigned.MaxFeePerGas = tx.MaxFeePerGas
		unsigned.MaxPriorityFeePerGas = tx.MaxPriorityFeePerGas
	case tx.GasPrice != nil && len(tx.AccessList) > 0:
		log.Info("Creating access list transaction", "gas_price", tx.GasPrice)
		unsigned.Type = transaction.AccessListTxType
		unsigned.GasPrice = tx.GasPrice
	case tx.GasPrice != nil:
		log.Info("Creating legacy transaction", "gas_price", tx.GasPrice)
		unsigned.Type = transaction.LegacyTxType
		unsigned.GasPrice = tx.GasPrice
	default:
		log.Error("Transaction must specify either EIP-1559 fields or legacy GasPrice")
		return nil, fmt.Errorf("transaction must specify either EIP-1559 fields (MaxFeePerGas, MaxPriorityFeePerGas) or legacy GasPrice")
	}

	log.Info("Signing transaction")
	signedTx, err := transaction.Sign(unsigned, es.account.PrivateKey)
	if err != nil {
		log.Error("Failed to sign transaction", "error", err)
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	log.Info("Transaction signed successfully", "hash", signedTx.Hash(), "type", signedTx.Type())
	return signedTx, nil
}

// calculateOptimalFees calculates optimal gas fees based on network conditions
func (es *ghostClient) calculateOptimalFees(tx *Transaction) error {
	// Get latest header for base fee
	header, err := es.client.GetBlockHeader(es.ctx, ethrpc.Latest)
	if err != nil {
		return fmt.Errorf("failed to get latest header: %w", err)
	}

	if header.BaseFeePerGas != nil && tx.GasPrice == nil && (tx.MaxFeePerGas == nil || tx.MaxPriorityFeePerGas == nil) {
		log.Info("Using EIP-1559 fee calculation")
		// Use fixed priority fee based on network
		tip := es.getFixedPriorityFee()

		// Calculate max fee with room for base fee increases
		maxFee, err := header.BaseFeePerGas.Mul(primitives.NewQuantity(2))
		if err != nil {
			return err
		}
		if maxFee, err = maxFee.Add(tip); err != nil {
			return err
		}
		tx.MaxPriorityFeePerGas = &tip
		tx.MaxFeePerGas = &maxFee
	} else if tx.GasPrice == nil && tx.MaxFeePerGas == nil {
		log.Info("Using legacy fee calculation")
		gasPrice, err := es.client.GasPrice(es.ctx)
		if err != nil {
			return fmt.Errorf("failed to get gas price: %w", err)
		}
		tx.GasPrice = &gasPrice
	}

	// Basic validation
	return es.validateFees(tx)
}

// getFixedPriorityFee returns a fixed priority fee based on the network
func (es *ghostClient) getFixedPriorityFee() primitives.Quantity {
	switch es.chainId {
	case 1: // Ethereum mainnet
		return es.config.PriorityFeeMainnet()
	case 8453: // Base
		return es.config.PriorityFeeBase()
	default:
		return es.config.PriorityFeeDefault()
	}
}

// validateFees does basic fee validation
func (es *ghostClient) validateFees(tx *Transaction) error {
	if tx.MaxFeePerGas == nil {
		return nil // Legacy transaction
	}

	// Check if max fee is reasonable (prevent overpayment)
	if tx.MaxFeePerGas.Cmp(es.config.MaxFeePerGas()) > 0 {
		return fmt.Errorf("max fee too high: %s wei", tx.MaxFeePerGas)
	}
	if tx.MaxPriorityFeePerGas != nil && tx.MaxPriorityFeePerGas.Cmp(*tx.MaxFeePerGas) > 0 {
		return fmt.Errorf("priority fee %s exceeds max fee %s", tx.MaxPriorityFeePerGas, tx.MaxFeePerGas)
	}

	return nil
}

// GetBalance returns the ETH balance of an address
func (es *ghostClient) GetBalance(address primitives.Address) (primitives.Quantity, error) {
	balance, err := es.client.GetBalance(es.ctx, address, ethrpc.Latest)
	if err != nil {
		return primitives.Quantity{}, fmt.Errorf("failed to get balance: %w", err)
	}

	return balance, nil
}

// GetTransactionReceipt returns the receipt for a transaction if it exists
func (es *ghostClient) GetTransactionReceipt(hash primitives.Hash) (*TransactionReceipt, error) {
	receipt, err := es.client.GetTransactionReceipt(es.ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("transaction not found or pending: %w", err)
	}

	out := &TransactionReceipt{
		TxHash:          receipt.TransactionHash,
		From:            receipt.From,
		To:              receipt.To,
		ContractAddress: receipt.ContractAddress,
		Logs:            receipt.Logs,
	}
	if receipt.Succeeded() {
		out.Status = 1
	}
	if out.BlockNumber, err = receipt.BlockNumber.Uint64(); err != nil {
		return nil, fmt.Errorf("receipt block number: %w", err)
	}
	if out.GasUsed, err = receipt.GasUsed.Uint64(); err != nil {
		return nil, fmt.Errorf("receipt gas used: %w", err)
	}
	return out, nil
}

// Close cancels calls still in flight and closes the backend
func (es *ghostClient) Close() {
	if es.cancel != nil {
		es.cancel()
	}
	if es.client != nil {
		es.client.Close()
	}
}
