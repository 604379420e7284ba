package transaction

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/nando-os/ghost-rpc/pkg/primitives"
)

// Signature is a secp256k1 signature in transaction form. V is 27/28 for
// unprotected legacy transactions, chainId*2+35+yParity under EIP-155, and
// equal to YParity for typed transactions.
type Signature struct {
	V       primitives.Quantity
	R       primitives.Quantity
	S       primitives.Quantity
	YParity uint8
}

// validate checks that r and s are in range, s is in the lower half of the
// curve order and the parity bit is 0 or 1.
func (sig Signature) validate() error {
	if sig.R.IsZero() || sig.S.IsZero() {
		return fmt.Errorf("%w: zero r or s", ErrInvalidSignature)
	}
	if !crypto.ValidateSignatureValues(sig.YParity, sig.R.Big(), sig.S.Big(), true) {
		return fmt.Errorf("%w: r, s out of range or s not in lower half", ErrInvalidSignature)
	}
	return nil
}

// bytes returns the 65-byte [R || S || yParity] form used by recovery.
func (sig Signature) bytes() []byte {
	r, s := sig.R.Bytes32(), sig.S.Bytes32()
	out := make([]byte, 0, crypto.SignatureLength)
	out = append(out, r[:]...)
	out = append(out, s[:]...)
	return append(out, sig.YParity)
}

// Sign validates tx, signs its signing hash with key using deterministic
// (RFC 6979) ECDSA and returns the immutable signed transaction. The key is
// only used for the duration of the call.
func Sign(tx UnsignedTransaction, key *ecdsa.PrivateKey) (*SignedTransaction, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	tx = tx.Copy()
	hash, err := tx.SigningHash()
	if err != nil {
		return nil, fmt.Errorf("failed to compute signing hash: %w", err)
	}

	raw, err := crypto.Sign(hash[:], key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	var sig Signature
	if sig.R, err = primitives.QuantityFromBytes(raw[:32]); err != nil {
		return nil, err
	}
	if sig.S, err = primitives.QuantityFromBytes(raw[32:64]); err != nil {
		return nil, err
	}
	sig.YParity = raw[64]
	if err := sig.validate(); err != nil {
		return nil, err
	}

	signer, err := recoverAddress(hash, sig)
	if err != nil {
		return nil, err
	}
	if signer != primitives.AddressFromCommon(crypto.PubkeyToAddress(key.PublicKey)) {
		return nil, fmt.Errorf("%w: signature recovers to %s", ErrInvalidSignature, signer)
	}

	if sig.V, err = computeV(&tx, sig.YParity); err != nil {
		return nil, err
	}
	return newSigned(tx, sig, encodeSigned(&tx, sig)), nil
}

// SignWithHexKey is Sign with the key given as a hex scalar, with or without
// a 0x prefix.
func SignWithHexKey(tx UnsignedTransaction, hexKey string) (*SignedTransaction, error) {
	key, err := ParsePrivateKey(hexKey)
	if err != nil {
		return nil, err
	}
	return Sign(tx, key)
}

// ParsePrivateKey parses a hex secp256k1 scalar.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return key, nil
}

func checkKey(key *ecdsa.PrivateKey) error {
	if key == nil || key.D == nil {
		return fmt.Errorf("%w: no key", ErrInvalidPrivateKey)
	}
	if key.D.Sign() <= 0 || key.D.Cmp(crypto.S256().Params().N) >= 0 {
		return fmt.Errorf("%w: scalar out of range", ErrInvalidPrivateKey)
	}
	return nil
}

func computeV(tx *UnsignedTransaction, parity uint8) (primitives.Quantity, error) {
	if tx.Type != LegacyTxType {
		return primitives.NewQuantity(uint64(parity)), nil
	}
	if tx.ChainID == nil {
		return primitives.NewQuantity(27 + uint64(parity)), nil
	}
	v, err := tx.ChainID.Mul(primitives.NewQuantity(2))
	if err != nil {
		return primitives.Quantity{}, fmt.Errorf("eip-155 v: %w", err)
	}
	v, err = v.Add(primitives.NewQuantity(35 + uint64(parity)))
	if err != nil {
		return primitives.Quantity{}, fmt.Errorf("eip-155 v: %w", err)
	}
	return v, nil
}

func recoverAddress(hash primitives.Hash, sig Signature) (primitives.Address, error) {
	pub, err := crypto.SigToPub(hash[:], sig.bytes())
	if err != nil {
		return primitives.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return primitives.AddressFromCommon(crypto.PubkeyToAddress(*pub)), nil
}
