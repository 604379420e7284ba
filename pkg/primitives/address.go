package primitives

import (
	"bytes"
	"encoding/hex"

	"github.com/ethereum/go-ethereum/common"
)

// AddressLength is the byte width of an account address.
const AddressLength = 20

// Address is a 20-byte account address. Its canonical wire form is
// lowercase 0x-prefixed hex; checksum casing is a display concern.
type Address [AddressLength]byte

// ParseAddress parses a 0x-prefixed, 40-digit hex address.
func ParseAddress(s string) (Address, error) {
	var a Address
	b, err := decodeFixed("address", s, AddressLength)
	if err != nil {
		return a, err
	}
	copy(a[:], b)
	return a, nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromCommon converts a go-ethereum address.
func AddressFromCommon(a common.Address) Address { return Address(a) }

// Common returns the go-ethereum representation of a.
func (a Address) Common() common.Address { return common.Address(a) }

// Bytes returns a copy of the address bytes.
func (a Address) Bytes() []byte { return append([]byte(nil), a[:]...) }

// Hex returns the canonical lowercase wire form.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// Checksum returns the EIP-55 mixed-case form for display.
func (a Address) Checksum() string { return common.Address(a).Hex() }

func (a Address) String() string { return a.Hex() }

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool { return a == Address{} }

// Cmp compares two addresses byte-wise.
func (a Address) Cmp(other Address) int { return bytes.Compare(a[:], other[:]) }

func (a Address) MarshalText() ([]byte, error) { return []byte(a.Hex()), nil }

func (a *Address) UnmarshalText(input []byte) error {
	parsed, err := ParseAddress(string(input))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a *Address) UnmarshalJSON(input []byte) error {
	s, err := unquote("address", input)
	if err != nil {
		return err
	}
	return a.UnmarshalText([]byte(s))
}
