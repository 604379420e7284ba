package transaction

import (
	"bytes"
	"fmt"

	"github.com/nando-os/ghost-rpc/pkg/primitives"
	"github.com/nando-os/ghost-rpc/pkg/rlp"
)

// SigningPayload returns the bytes whose keccak-256 hash is signed:
//
//	legacy, no chain id:   rlp([nonce, gasPrice, gas, to, value, data])
//	legacy, EIP-155:       rlp([nonce, gasPrice, gas, to, value, data, chainId, 0, 0])
//	typed:                 type || rlp([fields...])
func (tx *UnsignedTransaction) SigningPayload() ([]byte, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	fields := tx.fields()
	if tx.Type == LegacyTxType {
		if tx.ChainID != nil {
			fields = append(fields, rlp.Quantity(*tx.ChainID), rlp.Uint(0), rlp.Uint(0))
		}
		return rlp.Encode(rlp.List(fields...)), nil
	}
	return typedEnvelope(tx.Type, fields), nil
}

// SigningHash is keccak-256 of SigningPayload.
func (tx *UnsignedTransaction) SigningHash() (primitives.Hash, error) {
	payload, err := tx.SigningPayload()
	if err != nil {
		return primitives.Hash{}, err
	}
	return primitives.Keccak256(payload), nil
}

// fields lists the type-specific fields shared by the signing payload and the
// signed encoding.
func (tx *UnsignedTransaction) fields() []rlp.Item {
	common := []rlp.Item{
		quantityItem(tx.GasLimit),
		toItem(tx.To),
		quantityItem(tx.Value),
		rlp.String(tx.Data),
	}
	switch tx.Type {
	case AccessListTxType:
		return append([]rlp.Item{
			quantityItem(tx.ChainID),
			quantityItem(tx.Nonce),
			quantityItem(tx.GasPrice),
		}, append(common, accessListItem(tx.AccessList))...)
	case DynamicFeeTxType:
		return append([]rlp.Item{
			quantityItem(tx.ChainID),
			quantityItem(tx.Nonce),
			quantityItem(tx.MaxPriorityFeePerGas),
			quantityItem(tx.MaxFeePerGas),
		}, append(common, accessListItem(tx.AccessList))...)
	}
	return append([]rlp.Item{
		quantityItem(tx.Nonce),
		quantityItem(tx.GasPrice),
	}, common...)
}

func encodeSigned(tx *UnsignedTransaction, sig Signature) []byte {
	fields := tx.fields()
	if tx.Type == LegacyTxType {
		fields = append(fields, rlp.Quantity(sig.V), rlp.Quantity(sig.R), rlp.Quantity(sig.S))
		return rlp.Encode(rlp.List(fields...))
	}
	fields = append(fields, rlp.Uint(uint64(sig.YParity)), rlp.Quantity(sig.R), rlp.Quantity(sig.S))
	return typedEnvelope(tx.Type, fields)
}

func typedEnvelope(t TxType, fields []rlp.Item) []byte {
	return append([]byte{byte(t)}, rlp.Encode(rlp.List(fields...))...)
}

func quantityItem(q *primitives.Quantity) rlp.Item {
	return rlp.Quantity(quantityOrZero(q))
}

func toItem(to *primitives.Address) rlp.Item {
	if to == nil {
		return rlp.String(nil)
	}
	return rlp.String(to[:])
}

func accessListItem(list AccessList) rlp.Item {
	tuples := make([]rlp.Item, len(list))
	for i, tuple := range list {
		keys := make([]rlp.Item, len(tuple.StorageKeys))
		for j, key := range tuple.StorageKeys {
			keys[j] = rlp.String(key[:])
		}
		tuples[i] = rlp.List(rlp.String(tuple.Address[:]), rlp.List(keys...))
	}
	return rlp.List(tuples...)
}

// Decode parses a raw signed transaction as produced by SignedTransaction.Raw
// or accepted by eth_sendRawTransaction. Non-canonical encodings and
// high-s signatures are rejected.
func Decode(raw []byte) (*SignedTransaction, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", rlp.ErrInvalidRlp)
	}

	var (
		tx  UnsignedTransaction
		sig Signature
		err error
	)
	if raw[0] >= 0xc0 {
		tx.Type = LegacyTxType
		sig, err = decodeLegacy(raw, &tx)
	} else {
		tx.Type = TxType(raw[0])
		sig, err = decodeTyped(raw, &tx)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Validate(); err != nil {
		return nil, err
	}
	if !bytes.Equal(encodeSigned(&tx, sig), raw) {
		return nil, fmt.Errorf("%w: transaction is not canonically encoded", rlp.ErrInvalidRlp)
	}
	if err := sig.validate(); err != nil {
		return nil, err
	}
	signed := newSigned(tx, sig, raw)
	if _, err := signed.Sender(); err != nil {
		return nil, err
	}
	return signed, nil
}

func decodeLegacy(raw []byte, tx *UnsignedTransaction) (Signature, error) {
	var sig Signature
	items, err := decodeList(raw, 9)
	if err != nil {
		return sig, err
	}
	if err := decodeLegacyFields(items[0:6], tx); err != nil {
		return sig, err
	}
	if sig.V, err = items[6].Quantity(); err != nil {
		return sig, err
	}
	if sig.R, err = items[7].Quantity(); err != nil {
		return sig, err
	}
	if sig.S, err = items[8].Quantity(); err != nil {
		return sig, err
	}

	v, err := sig.V.Uint64()
	if err != nil {
		return sig, fmt.Errorf("%w: v out of range", ErrInvalidSignature)
	}
	switch {
	case v == 27 || v == 28:
		sig.YParity = uint8(v - 27)
	case v >= 35:
		sig.YParity = uint8((v - 35) % 2)
		tx.ChainID = Q((v - 35) / 2)
	default:
		return sig, fmt.Errorf("%w: unexpected v %d", ErrInvalidSignature, v)
	}
	return sig, nil
}

func decodeTyped(raw []byte, tx *UnsignedTransaction) (Signature, error) {
	var sig Signature
	var want int
	switch tx.Type {
	case AccessListTxType:
		want = 11
	case DynamicFeeTxType:
		want = 12
	default:
		return sig, fmt.Errorf("%w: unsupported type 0x%02x", ErrInvalidTransaction, raw[0])
	}
	items, err := decodeList(raw[1:], want)
	if err != nil {
		return sig, err
	}

	chainID, err := items[0].Quantity()
	if err != nil {
		return sig, err
	}
	tx.ChainID = &chainID
	nonce, err := items[1].Quantity()
	if err != nil {
		return sig, err
	}
	tx.Nonce = &nonce

	rest := items[2:]
	if tx.Type == AccessListTxType {
		price, err := rest[0].Quantity()
		if err != nil {
			return sig, err
		}
		tx.GasPrice = &price
		rest = rest[1:]
	} else {
		tip, err := rest[0].Quantity()
		if err != nil {
			return sig, err
		}
		feeCap, err := rest[1].Quantity()
		if err != nil {
			return sig, err
		}
		tx.MaxPriorityFeePerGas, tx.MaxFeePerGas = &tip, &feeCap
		rest = rest[2:]
	}

	// gas, to, value, data, accessList, yParity, r, s
	if err := decodeTail(rest[0:4], tx); err != nil {
		return sig, err
	}
	if tx.AccessList, err = decodeAccessList(rest[4]); err != nil {
		return sig, err
	}
	parity, err := rest[5].Uint64()
	if err != nil {
		return sig, err
	}
	if parity > 1 {
		return sig, fmt.Errorf("%w: y parity %d", ErrInvalidSignature, parity)
	}
	sig.YParity = uint8(parity)
	sig.V = primitives.NewQuantity(parity)
	if sig.R, err = rest[6].Quantity(); err != nil {
		return sig, err
	}
	if sig.S, err = rest[7].Quantity(); err != nil {
		return sig, err
	}
	return sig, nil
}

// decodeLegacyFields decodes [nonce, gasPrice, gas, to, value, data].
func decodeLegacyFields(items []rlp.Item, tx *UnsignedTransaction) error {
	nonce, err := items[0].Quantity()
	if err != nil {
		return err
	}
	tx.Nonce = &nonce
	price, err := items[1].Quantity()
	if err != nil {
		return err
	}
	tx.GasPrice = &price
	return decodeTail(items[2:6], tx)
}

// decodeTail decodes [gas, to, value, data].
func decodeTail(items []rlp.Item, tx *UnsignedTransaction) error {
	gas, err := items[0].Quantity()
	if err != nil {
		return err
	}
	tx.GasLimit = &gas

	to, err := items[1].Bytes()
	if err != nil {
		return err
	}
	switch len(to) {
	case 0:
	case 20:
		addr := primitives.Address(to)
		tx.To = &addr
	default:
		return fmt.Errorf("%w: recipient of %d bytes", rlp.ErrInvalidRlp, len(to))
	}

	value, err := items[2].Quantity()
	if err != nil {
		return err
	}
	tx.Value = &value

	data, err := items[3].Bytes()
	if err != nil {
		return err
	}
	tx.Data = data
	return nil
}

func decodeAccessList(it rlp.Item) (AccessList, error) {
	tuples, err := it.Items()
	if err != nil {
		return nil, err
	}
	list := make(AccessList, 0, len(tuples))
	for _, tupleItem := range tuples {
		parts, err := tupleItem.Items()
		if err != nil {
			return nil, err
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: access tuple has %d elements", rlp.ErrInvalidRlp, len(parts))
		}
		addr, err := parts[0].Bytes()
		if err != nil {
			return nil, err
		}
		if len(addr) != 20 {
			return nil, fmt.Errorf("%w: access list address of %d bytes", rlp.ErrInvalidRlp, len(addr))
		}
		keyItems, err := parts[1].Items()
		if err != nil {
			return nil, err
		}
		tuple := AccessTuple{Address: primitives.Address(addr), StorageKeys: make([]primitives.Hash, 0, len(keyItems))}
		for _, keyItem := range keyItems {
			key, err := keyItem.Bytes()
			if err != nil {
				return nil, err
			}
			if len(key) != 32 {
				return nil, fmt.Errorf("%w: storage key of %d bytes", rlp.ErrInvalidRlp, len(key))
			}
			tuple.StorageKeys = append(tuple.StorageKeys, primitives.Hash(key))
		}
		list = append(list, tuple)
	}
	return list, nil
}

func decodeList(b []byte, want int) ([]rlp.Item, error) {
	it, err := rlp.Decode(b)
	if err != nil {
		return nil, err
	}
	items, err := it.Items()
	if err != nil {
		return nil, err
	}
	if len(items) != want {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", rlp.ErrInvalidRlp, want, len(items))
	}
	return items, nil
}
