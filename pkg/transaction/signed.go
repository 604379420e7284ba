package transaction

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/nando-os/ghost-rpc/pkg/primitives"
)

// SignedTransaction is a signed transaction ready for broadcast. It cannot be
// modified; changing any field means building and signing a new transaction.
type SignedTransaction struct {
	tx   UnsignedTransaction
	sig  Signature
	raw  []byte
	hash primitives.Hash
}

func newSigned(tx UnsignedTransaction, sig Signature, raw []byte) *SignedTransaction {
	return &SignedTransaction{
		tx:   tx.Copy(),
		sig:  sig,
		raw:  append([]byte{}, raw...),
		hash: primitives.Keccak256(raw),
	}
}

func (s *SignedTransaction) Type() TxType { return s.tx.Type }

// Transaction returns a copy of the signed fields.
func (s *SignedTransaction) Transaction() UnsignedTransaction { return s.tx.Copy() }

func (s *SignedTransaction) Signature() Signature { return s.sig }

// Hash is keccak-256 of the raw encoding, the hash the network reports.
func (s *SignedTransaction) Hash() primitives.Hash { return s.hash }

// Raw is the encoding accepted by eth_sendRawTransaction.
func (s *SignedTransaction) Raw() []byte { return append([]byte{}, s.raw...) }

func (s *SignedTransaction) RawHex() string { return hexutil.Encode(s.raw) }

// MarshalBinary is Raw in encoding.BinaryMarshaler form.
func (s *SignedTransaction) MarshalBinary() ([]byte, error) { return s.Raw(), nil }

// Sender recovers the address that signed the transaction.
func (s *SignedTransaction) Sender() (primitives.Address, error) {
	hash, err := s.tx.SigningHash()
	if err != nil {
		return primitives.Address{}, err
	}
	return recoverAddress(hash, s.sig)
}
