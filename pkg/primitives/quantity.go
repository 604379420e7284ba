package primitives

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// Quantity is an unsigned integer of at most 256 bits. On the wire it is
// 0x-prefixed hex without leading zero digits ("0x0" for zero).
//
// Arithmetic is checked: results that do not fit in 256 bits, or would go
// below zero, fail with ErrNumericOverflow instead of wrapping.
type Quantity struct {
	v uint256.Int
}

// NewQuantity returns the quantity for n.
func NewQuantity(n uint64) Quantity {
	var q Quantity
	q.v.SetUint64(n)
	return q
}

// QuantityFromBig converts n, rejecting negative values and values wider
// than 256 bits.
func QuantityFromBig(n *big.Int) (Quantity, error) {
	var q Quantity
	if n == nil {
		return q, nil
	}
	if n.Sign() < 0 {
		return q, fmt.Errorf("%w: negative value %s", ErrNumericOverflow, n)
	}
	if q.v.SetFromBig(n) {
		return Quantity{}, fmt.Errorf("%w: %s exceeds 256 bits", ErrNumericOverflow, n)
	}
	return q, nil
}

// QuantityFromBytes interprets b as a big-endian unsigned integer.
func QuantityFromBytes(b []byte) (Quantity, error) {
	var q Quantity
	if len(b) > 32 {
		return q, fmt.Errorf("%w: %d bytes exceeds 256 bits", ErrNumericOverflow, len(b))
	}
	q.v.SetBytes(b)
	return q, nil
}

// ParseQuantity parses 0x-prefixed hex. Redundant leading zeros are
// accepted on input; the canonical form is always emitted on output.
func ParseQuantity(s string) (Quantity, error) {
	var q Quantity
	if !hasHexPrefix(s) {
		return q, fmt.Errorf("%w: quantity %q: missing 0x prefix", ErrMalformedHex, s)
	}
	digits := s[2:]
	if digits == "" {
		return q, fmt.Errorf("%w: quantity %q: no digits", ErrMalformedHex, s)
	}
	for i := 0; i < len(digits); i++ {
		if !isHexDigit(digits[i]) {
			return q, fmt.Errorf("%w: quantity %q: invalid digit %q", ErrMalformedHex, s, digits[i])
		}
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return q, nil
	}
	if len(digits) > 64 {
		return q, fmt.Errorf("%w: quantity %q exceeds 256 bits", ErrMalformedHex, s)
	}
	if err := q.v.SetFromHex("0x" + digits); err != nil {
		return Quantity{}, fmt.Errorf("%w: quantity %q: %v", ErrMalformedHex, s, err)
	}
	return q, nil
}

// MustParseQuantity is ParseQuantity for constants and tests.
func MustParseQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

// Hex returns the minimal 0x-prefixed form.
func (q Quantity) Hex() string { return q.v.Hex() }

// String returns the decimal form.
func (q Quantity) String() string { return q.v.Dec() }

// Big returns a new big.Int holding q.
func (q Quantity) Big() *big.Int { return q.v.ToBig() }

// Uint256 returns a copy of the underlying value.
func (q Quantity) Uint256() *uint256.Int { return new(uint256.Int).Set(&q.v) }

// Uint64 returns q as a uint64 or ErrNumericOverflow if it does not fit.
func (q Quantity) Uint64() (uint64, error) {
	if !q.v.IsUint64() {
		return 0, fmt.Errorf("%w: %s does not fit in 64 bits", ErrNumericOverflow, q.v.Dec())
	}
	return q.v.Uint64(), nil
}

// Bytes returns the minimal big-endian encoding; zero is the empty slice.
func (q Quantity) Bytes() []byte {
	if q.v.IsZero() {
		return []byte{}
	}
	return q.v.Bytes()
}

// Bytes32 returns the 32-byte big-endian encoding.
func (q Quantity) Bytes32() [32]byte { return q.v.Bytes32() }

func (q Quantity) IsZero() bool { return q.v.IsZero() }

func (q Quantity) Cmp(other Quantity) int { return q.v.Cmp(&other.v) }

// Add returns q+other or ErrNumericOverflow.
func (q Quantity) Add(other Quantity) (Quantity, error) {
	var r Quantity
	if _, overflow := r.v.AddOverflow(&q.v, &other.v); overflow {
		return Quantity{}, fmt.Errorf("%w: %s + %s", ErrNumericOverflow, q, other)
	}
	return r, nil
}

// Sub returns q-other or ErrNumericOverflow when other > q.
func (q Quantity) Sub(other Quantity) (Quantity, error) {
	var r Quantity
	if _, underflow := r.v.SubOverflow(&q.v, &other.v); underflow {
		return Quantity{}, fmt.Errorf("%w: %s - %s", ErrNumericOverflow, q, other)
	}
	return r, nil
}

// Mul returns q*other or ErrNumericOverflow.
func (q Quantity) Mul(other Quantity) (Quantity, error) {
	var r Quantity
	if _, overflow := r.v.MulOverflow(&q.v, &other.v); overflow {
		return Quantity{}, fmt.Errorf("%w: %s * %s", ErrNumericOverflow, q, other)
	}
	return r, nil
}

func (q Quantity) MarshalText() ([]byte, error) { return []byte(q.Hex()), nil }

func (q *Quantity) UnmarshalText(input []byte) error {
	parsed, err := ParseQuantity(string(input))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

func (q *Quantity) UnmarshalJSON(input []byte) error {
	s, err := unquote("quantity", input)
	if err != nil {
		return err
	}
	return q.UnmarshalText([]byte(s))
}
