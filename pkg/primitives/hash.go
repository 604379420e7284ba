package primitives

import (
	"bytes"
	"encoding/hex"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// HashLength is the byte width of a keccak-256 digest.
const HashLength = 32

// Hash is a 32-byte value such as a transaction or block hash.
type Hash [HashLength]byte

// ParseHash parses a 0x-prefixed, 64-digit hex hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := decodeFixed("hash", s, HashLength)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

// MustParseHash is ParseHash for constants and tests.
func MustParseHash(s string) Hash {
	h, err := ParseHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

// Keccak256 hashes the concatenation of data.
func Keccak256(data ...[]byte) Hash {
	return Hash(crypto.Keccak256Hash(data...))
}

// HashFromCommon converts a go-ethereum hash.
func HashFromCommon(h common.Hash) Hash { return Hash(h) }

// Common returns the go-ethereum representation of h.
func (h Hash) Common() common.Hash { return common.Hash(h) }

// Bytes returns a copy of the hash bytes.
func (h Hash) Bytes() []byte { return append([]byte(nil), h[:]...) }

func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) Cmp(other Hash) int { return bytes.Compare(h[:], other[:]) }

func (h Hash) MarshalText() ([]byte, error) { return []byte(h.Hex()), nil }

func (h *Hash) UnmarshalText(input []byte) error {
	parsed, err := ParseHash(string(input))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func (h *Hash) UnmarshalJSON(input []byte) error {
	s, err := unquote("hash", input)
	if err != nil {
		return err
	}
	return h.UnmarshalText([]byte(s))
}
