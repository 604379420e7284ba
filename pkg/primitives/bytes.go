package primitives

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Bytes is a variable-length byte string encoded as even-length 0x hex.
type Bytes []byte

// ParseBytes decodes 0x-prefixed even-length hex. "0x" decodes to an empty slice.
func ParseBytes(s string) (Bytes, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: bytes %q: %v", ErrMalformedHex, s, err)
	}
	return Bytes(b), nil
}

func (b Bytes) Hex() string { return hexutil.Encode(b) }

func (b Bytes) String() string { return b.Hex() }

func (b Bytes) MarshalText() ([]byte, error) { return []byte(b.Hex()), nil }

func (b *Bytes) UnmarshalText(input []byte) error {
	parsed, err := ParseBytes(string(input))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

func (b *Bytes) UnmarshalJSON(input []byte) error {
	s, err := unquote("bytes", input)
	if err != nil {
		return err
	}
	return b.UnmarshalText([]byte(s))
}
