package eth

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-playground/validator/v10"

	"github.com/nando-os/ghost-rpc/pkg/jsonrpc"
	"github.com/nando-os/ghost-rpc/pkg/primitives"
	"github.com/nando-os/ghost-rpc/pkg/transaction"
)

const (
	envRpcURL  = "ETH_RPC_URL"
	envChainID = "ETH_CHAIN_ID"

	// -- accounts and private keys
	envAccountsList         = "ETH_ACCOUNTS"
	envAccountPrivateKeyFmt = "ETH_ACCOUNT_%s_PRIVATE_KEY"
	envAccountPublicKeyFmt  = "ETH_ACCOUNT_%s_PUBLIC_KEY"

	// -- transport
	envMaxResponseBytes = "ETH_MAX_RESPONSE_BYTES"
	envRetryAttempts    = "ETH_RPC_RETRY_ATTEMPTS"
	envRetryDelayMs     = "ETH_RPC_RETRY_DELAY_MS"

	// -- gas configuration
	// Recommended settings:
	// Development/Testing:
	//   ETH_GAS_LIMIT_BUFFER_SIMPLE=1.2    # Higher buffers for testing
	//   ETH_GAS_LIMIT_BUFFER_COMPLEX=1.4
	// Production - Base:
	//   ETH_GAS_LIMIT_BUFFER_SIMPLE=1.05   # Lower costs, faster blocks
	//   ETH_GAS_LIMIT_BUFFER_COMPLEX=1.15
	// Production - Ethereum Mainnet:
	//   ETH_GAS_LIMIT_BUFFER_SIMPLE=1.1    # Higher costs, more conservative
	//   ETH_GAS_LIMIT_BUFFER_COMPLEX=1.25
	envGasLimitBufferSimple  = "ETH_GAS_LIMIT_BUFFER_SIMPLE"  // Buffer for simple ETH transfers
	envGasLimitBufferComplex = "ETH_GAS_LIMIT_BUFFER_COMPLEX" // Buffer for complex transactions

	// -- fee configuration
	// Max fee per gas in wei (default: 500 gwei)
	envMaxFeePerGas = "ETH_MAX_FEE_PER_GAS"
	// Priority fee per gas in wei (network-specific, defaults: 2 gwei for mainnet, 1 gwei for Base, 1.5 gwei for others)
	envPriorityFeeMainnet = "ETH_PRIORITY_FEE_MAINNET"
	envPriorityFeeBase    = "ETH_PRIORITY_FEE_BASE"
	envPriorityFeeDefault = "ETH_PRIORITY_FEE_DEFAULT"

	// -- transaction monitoring
	envTransactionTimeout = "ETH_TRANSACTION_TIMEOUT_SECONDS"
	envTransactionTicker  = "ETH_TRANSACTION_TICKER_SECONDS"

	// --- Units and defaults ---
	GWEI = 1000000000 // 1 gwei in wei

	DEFAULT_PRIORITY_FEE_MAINNET = 2 * GWEI       // 2 gwei
	DEFAULT_PRIORITY_FEE_BASE    = 1 * GWEI       // 1 gwei
	DEFAULT_PRIORITY_FEE_OTHER   = 15 * GWEI / 10 // 1.5 gwei
	DEFAULT_MAX_FEE_PER_GAS      = 500 * GWEI     // 500 gwei

	DEFAULT_GAS_LIMIT_BUFFER_SIMPLE  = 1.1
	DEFAULT_GAS_LIMIT_BUFFER_COMPLEX = 1.2

	// --- Transaction monitoring defaults ---
	DEFAULT_TRANSACTION_TIMEOUT_SECONDS = 300 // 5 minutes
	DEFAULT_TRANSACTION_TICKER_SECONDS  = 3   // 3 seconds
)

// Config is the configuration consumed by GhostClient.
type Config interface {
	ChainID() int64
	Accounts() []*Account
	RPCURL() string
	MaxResponseBytes() uint64
	RetryPolicy() jsonrpc.RetryPolicy
	GasLimitBufferSimple() float64
	GasLimitBufferComplex() float64
	MaxFeePerGas() primitives.Quantity
	PriorityFeeMainnet() primitives.Quantity
	PriorityFeeBase() primitives.Quantity
	PriorityFeeDefault() primitives.Quantity
	TransactionTimeoutSeconds() int
	TransactionTickerSeconds() int
}

type config struct {
	chainId          int64
	accounts         []*Account
	rpcURL           string
	maxResponseBytes uint64
	retry            jsonrpc.RetryPolicy
}

var _ Config = (*config)(nil)

// settings is the validated view of the environment.
type settings struct {
	ChainID            int64  `validate:"gt=0"`
	RPCURL             string `validate:"omitempty,url"`
	MaxResponseBytes   uint64 `validate:"omitempty,gte=1024"`
	RetryAttempts      uint64 `validate:"omitempty,lte=10"`
	RetryDelayMs       uint64 `validate:"omitempty,lte=60000"`
	MaxFeePerGas       string `validate:"omitempty,wei"`
	PriorityFeeMainnet string `validate:"omitempty,wei"`
	PriorityFeeBase    string `validate:"omitempty,wei"`
	PriorityFeeDefault string `validate:"omitempty,wei"`
}

func getValidator() *validator.Validate {
	validate := validator.New()

	if err := validate.RegisterValidation("wei", func(fl validator.FieldLevel) bool {
		_, err := parseWei(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(fmt.Sprintf("failed to register wei validation: %v", err))
	}
	return validate
}

func NewConfiguration() (*config, error) {

	chainIDStr := os.Getenv(envChainID)
	if chainIDStr == "" {
		return nil, fmt.Errorf("%s environment variable is not set", envChainID)
	}

	chainId, err := strconv.ParseInt(chainIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ETH_CHAIN_ID: %w", err)
	}

	s := settings{
		ChainID:            chainId,
		RPCURL:             os.Getenv(envRpcURL),
		MaxFeePerGas:       os.Getenv(envMaxFeePerGas),
		PriorityFeeMainnet: os.Getenv(envPriorityFeeMainnet),
		PriorityFeeBase:    os.Getenv(envPriorityFeeBase),
		PriorityFeeDefault: os.Getenv(envPriorityFeeDefault),
	}
	for env, dst := range map[string]*uint64{
		envMaxResponseBytes: &s.MaxResponseBytes,
		envRetryAttempts:    &s.RetryAttempts,
		envRetryDelayMs:     &s.RetryDelayMs,
	} {
		if *dst, err = uintFromEnv(env); err != nil {
			return nil, err
		}
	}
	if err := getValidator().Struct(&s); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	accounts, err := loadAccountsFromEnv(chainId)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	if len(accounts) == 0 {
		return nil, fmt.Errorf("no accounts found in %s environment variable", envAccountsList)
	}

	retry := jsonrpc.DefaultRetryPolicy()
	if s.RetryAttempts > 0 {
		retry.Attempts = uint(s.RetryAttempts)
	}
	if s.RetryDelayMs > 0 {
		retry.Delay = time.Duration(s.RetryDelayMs) * time.Millisecond
	}

	return &config{
		rpcURL:           s.RPCURL,
		chainId:          chainId,
		accounts:         accounts,
		maxResponseBytes: s.MaxResponseBytes,
		retry:            retry,
	}, nil
}

func (c *config) ChainID() int64 {
	return c.chainId
}
func (c *config) Accounts() []*Account {
	return c.accounts
}

// Account returns the account with the given label.
func (c *config) Account(label string) (*Account, error) {
	for _, acc := range c.accounts {
		if strings.EqualFold(acc.Label, label) {
			return acc, nil
		}
	}
	return nil, fmt.Errorf("account %q is not configured", label)
}

func (c *config) RPCURL() string {
	return c.rpcURL
}

// MaxResponseBytes bounds every RPC response body (default: 2 MiB)
func (c *config) MaxResponseBytes() uint64 {
	if c.maxResponseBytes == 0 {
		return jsonrpc.DefaultMaxResponseBytes
	}
	return c.maxResponseBytes
}

// RetryPolicy applies to read calls that fail at the transport level
func (c *config) RetryPolicy() jsonrpc.RetryPolicy {
	if c.retry.Attempts == 0 {
		return jsonrpc.DefaultRetryPolicy()
	}
	return c.retry
}

// GasLimitBufferSimple returns the buffer multiplier for simple ETH transfers
func (c *config) GasLimitBufferSimple() float64 {
	return bufferFromEnv(envGasLimitBufferSimple, DEFAULT_GAS_LIMIT_BUFFER_SIMPLE)
}

// GasLimitBufferComplex returns the buffer multiplier for complex transactions
func (c *config) GasLimitBufferComplex() float64 {
	return bufferFromEnv(envGasLimitBufferComplex, DEFAULT_GAS_LIMIT_BUFFER_COMPLEX)
}

func bufferFromEnv(env string, def float64) float64 {
	bufferStr := os.Getenv(env)
	if bufferStr == "" {
		return def
	}

	buffer, err := strconv.ParseFloat(bufferStr, 64)
	if err != nil {
		return def // Fallback to default on parse error
	}

	// Ensure reasonable bounds (0.5 to 3.0)
	if buffer < 0.5 || buffer > 3.0 {
		return def
	}

	return buffer
}

// MaxFeePerGas returns the max fee per gas in wei (default: 500 gwei)
func (c *config) MaxFeePerGas() primitives.Quantity {
	return weiFromEnv(envMaxFeePerGas, DEFAULT_MAX_FEE_PER_GAS)
}

// PriorityFeeMainnet returns the fixed priority fee for Ethereum mainnet (default: 2 gwei)
func (c *config) PriorityFeeMainnet() primitives.Quantity {
	return weiFromEnv(envPriorityFeeMainnet, DEFAULT_PRIORITY_FEE_MAINNET)
}

// PriorityFeeBase returns the fixed priority fee for Base (default: 1 gwei)
func (c *config) PriorityFeeBase() primitives.Quantity {
	return weiFromEnv(envPriorityFeeBase, DEFAULT_PRIORITY_FEE_BASE)
}

// PriorityFeeDefault returns the fixed priority fee for other networks (default: 1.5 gwei)
func (c *config) PriorityFeeDefault() primitives.Quantity {
	return weiFromEnv(envPriorityFeeDefault, DEFAULT_PRIORITY_FEE_OTHER)
}

// TransactionTimeoutSeconds returns the transaction timeout in seconds (default: 300)
func (c *config) TransactionTimeoutSeconds() int {
	return positiveIntFromEnv(envTransactionTimeout, DEFAULT_TRANSACTION_TIMEOUT_SECONDS)
}

// TransactionTickerSeconds returns the transaction ticker interval in seconds (default: 3)
func (c *config) TransactionTickerSeconds() int {
	return positiveIntFromEnv(envTransactionTicker, DEFAULT_TRANSACTION_TICKER_SECONDS)
}

func weiFromEnv(env string, def uint64) primitives.Quantity {
	fee, err := parseWei(os.Getenv(env))
	if err != nil {
		return primitives.NewQuantity(def)
	}
	return fee
}

// parseWei parses a decimal amount of wei.
func parseWei(s string) (primitives.Quantity, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return primitives.Quantity{}, fmt.Errorf("invalid wei amount %q", s)
	}
	return primitives.QuantityFromBig(n)
}

func positiveIntFromEnv(env string, def int) int {
	v, err := strconv.Atoi(os.Getenv(env))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func uintFromEnv(env string) (uint64, error) {
	s := os.Getenv(env)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", env, err)
	}
	return v, nil
}

func loadAccountsFromEnv(chainID int64) ([]*Account, error) {
	var accounts []*Account
	accountLabels := os.Getenv(envAccountsList)
	if accountLabels == "" {
		return nil, fmt.Errorf("ETH_ACCOUNTS env variable not set")
	}
	labels := strings.Split(accountLabels, ",")
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}

		privHex := os.Getenv(fmt.Sprintf(envAccountPrivateKeyFmt, strings.ToUpper(label)))
		pubHex := os.Getenv(fmt.Sprintf(envAccountPublicKeyFmt, strings.ToUpper(label)))

		if privHex == "" && pubHex == "" {
			return nil, fmt.Errorf("no private or public key found for account[%s] in environment variables", label)
		}

		var pubKey *ecdsa.PublicKey
		if pubHex != "" {
			// read-only accounts are known by public key only
			var err error
			pubKey, err = parsePublicKey(pubHex)
			if err != nil {
				return nil, fmt.Errorf("invalid public key for %s: %w", label, err)
			}
		}

		account := &Account{
			PublicKey: pubKey,
			ChainId:   chainID,
			Label:     label,
		}
		if privHex != "" {
			privKey, err := transaction.ParsePrivateKey(privHex)
			if err != nil {
				return nil, fmt.Errorf("invalid private key for %s: %w", label, err)
			}
			derived := privKey.Public().(*ecdsa.PublicKey)
			// if both private and public keys are provided, they must match
			if pubKey != nil && crypto.PubkeyToAddress(*pubKey) != crypto.PubkeyToAddress(*derived) {
				return nil, fmt.Errorf("public key for %s does not match its private key", label)
			}
			account.PrivateKey = privKey
			account.PublicKey = derived
		}
		account.Address = primitives.AddressFromCommon(crypto.PubkeyToAddress(*account.PublicKey))
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// parsePublicKey accepts an uncompressed (65 byte) or compressed (33 byte)
// secp256k1 public key in hex.
func parsePublicKey(s string) (*ecdsa.PublicKey, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	raw, err := hexutil.Decode(s)
	if err != nil {
		return nil, err
	}
	if len(raw) == 33 {
		return crypto.DecompressPubkey(raw)
	}
	return crypto.UnmarshalPubkey(raw)
}
