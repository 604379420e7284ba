package primitives

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// decodeFixed decodes a 0x-prefixed hex string of exactly size bytes.
func decodeFixed(kind, s string, size int) ([]byte, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %v", ErrMalformedHex, kind, s, err)
	}
	if len(b) != size {
		return nil, fmt.Errorf("%w: %s %q: want %d bytes, got %d", ErrMalformedHex, kind, s, size, len(b))
	}
	return b, nil
}

func hasHexPrefix(s string) bool {
	return strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// unquote strips the JSON string quotes around a hex value.
func unquote(kind string, input []byte) (string, error) {
	if len(input) < 2 || input[0] != '"' || input[len(input)-1] != '"' {
		return "", fmt.Errorf("%w: %s: non-string JSON value %s", ErrMalformedHex, kind, input)
	}
	return string(input[1 : len(input)-1]), nil
}
