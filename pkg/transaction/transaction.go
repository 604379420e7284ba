// Package transaction builds, signs and decodes Ethereum transactions of the
// legacy (with and without EIP-155 replay protection), EIP-2930 access list
// and EIP-1559 dynamic fee types.
package transaction

import (
	"fmt"
	"math"

	"github.com/nando-os/ghost-rpc/pkg/primitives"
)

// TxType is the EIP-2718 transaction type.
type TxType uint8

const (
	LegacyTxType     TxType = 0x00
	AccessListTxType TxType = 0x01
	DynamicFeeTxType TxType = 0x02
)

func (t TxType) String() string {
	switch t {
	case LegacyTxType:
		return "legacy"
	case AccessListTxType:
		return "access-list"
	case DynamicFeeTxType:
		return "dynamic-fee"
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// AccessTuple is one address and the storage slots a transaction pre-declares.
type AccessTuple struct {
	Address     primitives.Address `json:"address"`
	StorageKeys []primitives.Hash  `json:"storageKeys"`
}

type AccessList []AccessTuple

const maxLegacyChainID = (math.MaxUint64 - 36) / 2

// UnsignedTransaction holds the fields of a transaction before signing. Nil
// pointers mean "not set"; which fields are required depends on Type.
type UnsignedTransaction struct {
	Type    TxType
	ChainID *primitives.Quantity
	Nonce   *primitives.Quantity

	// Legacy and access list transactions.
	GasPrice *primitives.Quantity

	// Dynamic fee transactions.
	MaxPriorityFeePerGas *primitives.Quantity
	MaxFeePerGas         *primitives.Quantity

	GasLimit   *primitives.Quantity
	To         *primitives.Address // nil creates a contract
	Value      *primitives.Quantity
	Data       primitives.Bytes
	AccessList AccessList
}

// Validate checks that the fields required by the transaction type are set
// and consistent, and that the maximum cost fits in 256 bits.
func (tx *UnsignedTransaction) Validate() error {
	if tx.Nonce == nil {
		return fmt.Errorf("%w: nonce is not set", ErrIncompleteTransaction)
	}
	if tx.GasLimit == nil {
		return fmt.Errorf("%w: gas limit is not set", ErrIncompleteTransaction)
	}
	if tx.ChainID != nil && tx.ChainID.IsZero() {
		return fmt.Errorf("%w: chain id must not be zero", ErrInvalidTransaction)
	}
	// EIP-2681: nonces stop at 2^64-2, gas limits are 64-bit.
	if n, err := tx.Nonce.Uint64(); err != nil || n == math.MaxUint64 {
		return fmt.Errorf("%w: nonce %s exceeds 2^64-2", ErrInvalidTransaction, tx.Nonce)
	}
	if _, err := tx.GasLimit.Uint64(); err != nil {
		return fmt.Errorf("%w: gas limit %s exceeds 64 bits", ErrInvalidTransaction, tx.GasLimit)
	}

	switch tx.Type {
	case LegacyTxType:
		if tx.ChainID != nil {
			// v = chainId*2 + 35 + parity must fit in 64 bits.
			if id, err := tx.ChainID.Uint64(); err != nil || id > maxLegacyChainID {
				return fmt.Errorf("%w: chain id %s too large for an eip-155 signature", ErrInvalidTransaction, tx.ChainID)
			}
		}
		if tx.GasPrice == nil {
			return fmt.Errorf("%w: gas price is not set", ErrIncompleteTransaction)
		}
		if len(tx.AccessList) > 0 {
			return fmt.Errorf("%w: legacy transactions cannot carry an access list", ErrInvalidTransaction)
		}
		if tx.MaxFeePerGas != nil || tx.MaxPriorityFeePerGas != nil {
			return fmt.Errorf("%w: dynamic fee fields on a legacy transaction", ErrInvalidTransaction)
		}
	case AccessListTxType:
		if tx.ChainID == nil {
			return fmt.Errorf("%w: chain id is not set", ErrIncompleteTransaction)
		}
		if tx.GasPrice == nil {
			return fmt.Errorf("%w: gas price is not set", ErrIncompleteTransaction)
		}
		if tx.MaxFeePerGas != nil || tx.MaxPriorityFeePerGas != nil {
			return fmt.Errorf("%w: dynamic fee fields on an access list transaction", ErrInvalidTransaction)
		}
	case DynamicFeeTxType:
		if tx.ChainID == nil {
			return fmt.Errorf("%w: chain id is not set", ErrIncompleteTransaction)
		}
		if tx.MaxFeePerGas == nil || tx.MaxPriorityFeePerGas == nil {
			return fmt.Errorf("%w: max fee and max priority fee must both be set", ErrIncompleteTransaction)
		}
		if tx.GasPrice != nil {
			return fmt.Errorf("%w: gas price on a dynamic fee transaction", ErrInvalidTransaction)
		}
		if tx.MaxPriorityFeePerGas.Cmp(*tx.MaxFeePerGas) > 0 {
			return fmt.Errorf("%w: max priority fee %s above max fee %s",
				ErrInvalidTransaction, tx.MaxPriorityFeePerGas, tx.MaxFeePerGas)
		}
	default:
		return fmt.Errorf("%w: unsupported type %s", ErrInvalidTransaction, tx.Type)
	}

	_, err := tx.Cost()
	return err
}

// FeeCap is the highest price per gas the sender may pay.
func (tx *UnsignedTransaction) FeeCap() primitives.Quantity {
	if tx.Type == DynamicFeeTxType {
		return quantityOrZero(tx.MaxFeePerGas)
	}
	return quantityOrZero(tx.GasPrice)
}

// Cost is gasLimit * feeCap + value, the most the transaction can debit.
func (tx *UnsignedTransaction) Cost() (primitives.Quantity, error) {
	gas, err := quantityOrZero(tx.GasLimit).Mul(tx.FeeCap())
	if err != nil {
		return primitives.Quantity{}, fmt.Errorf("gas limit times fee cap: %w", err)
	}
	cost, err := gas.Add(quantityOrZero(tx.Value))
	if err != nil {
		return primitives.Quantity{}, fmt.Errorf("gas cost plus value: %w", err)
	}
	return cost, nil
}

// Copy returns a deep copy of tx.
func (tx UnsignedTransaction) Copy() UnsignedTransaction {
	cpy := tx
	cpy.ChainID = copyQuantity(tx.ChainID)
	cpy.Nonce = copyQuantity(tx.Nonce)
	cpy.GasPrice = copyQuantity(tx.GasPrice)
	cpy.MaxPriorityFeePerGas = copyQuantity(tx.MaxPriorityFeePerGas)
	cpy.MaxFeePerGas = copyQuantity(tx.MaxFeePerGas)
	cpy.GasLimit = copyQuantity(tx.GasLimit)
	cpy.Value = copyQuantity(tx.Value)
	if tx.To != nil {
		to := *tx.To
		cpy.To = &to
	}
	if tx.Data != nil {
		cpy.Data = append(primitives.Bytes{}, tx.Data...)
	}
	if tx.AccessList != nil {
		cpy.AccessList = make(AccessList, len(tx.AccessList))
		for i, tuple := range tx.AccessList {
			cpy.AccessList[i] = AccessTuple{
				Address:     tuple.Address,
				StorageKeys: append([]primitives.Hash{}, tuple.StorageKeys...),
			}
		}
	}
	return cpy
}

func quantityOrZero(q *primitives.Quantity) primitives.Quantity {
	if q == nil {
		return primitives.Quantity{}
	}
	return *q
}

func copyQuantity(q *primitives.Quantity) *primitives.Quantity {
	if q == nil {
		return nil
	}
	v := *q
	return &v
}

// Q is a convenience for filling optional fields.
func Q(n uint64) *primitives.Quantity {
	q := primitives.NewQuantity(n)
	return &q
}
