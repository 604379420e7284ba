package eth

import (
	"crypto/ecdsa"

	"github.com/nando-os/ghost-rpc/pkg/ethrpc"
	"github.com/nando-os/ghost-rpc/pkg/primitives"
	"github.com/nando-os/ghost-rpc/pkg/transaction"
)

// High-level Ethereum types and structures, for application-specific use
type Account struct {
	Address    primitives.Address // Ethereum address
	PublicKey  *ecdsa.PublicKey   // Public key (optional, can be derived)
	ChainId    int64              // Chain ID for transaction signing
	Label      string             // Optional: human-readable label
	PrivateKey *ecdsa.PrivateKey  // Private key for signing transactions, nil for read-only accounts
}

// CanSign reports whether the account holds a private key.
func (a *Account) CanSign() bool {
	return a != nil && a.PrivateKey != nil
}

// Transaction is a transaction request. Zero Nonce and GasLimit and nil fee
// fields are filled in by GhostClient.SignTransaction.
type Transaction struct {
	From                 primitives.Address     `json:"from"`
	To                   *primitives.Address    `json:"to"` // nil deploys a contract
	Value                *primitives.Quantity   `json:"value"`
	Data                 primitives.Bytes       `json:"data"`
	GasLimit             uint64                 `json:"gas_limit"`
	GasPrice             *primitives.Quantity   `json:"gas_price"`
	MaxFeePerGas         *primitives.Quantity   `json:"max_fee_per_gas"`
	MaxPriorityFeePerGas *primitives.Quantity   `json:"max_priority_fee_per_gas"`
	Nonce                uint64                 `json:"nonce"`
	AccessList           transaction.AccessList `json:"access_list,omitempty"`
}

// TransactionReceipt represents transaction execution result
type TransactionReceipt struct {
	TxHash          primitives.Hash     `json:"tx_hash"`
	Status          uint64              `json:"status"`
	BlockNumber     uint64              `json:"block_number"`
	GasUsed         uint64              `json:"gas_used"`
	From            primitives.Address  `json:"from"`
	To              *primitives.Address `json:"to"`
	ContractAddress *primitives.Address `json:"contract_address,omitempty"`
	Logs            []ethrpc.Log        `json:"logs"`
}
