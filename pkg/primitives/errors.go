package primitives

import "errors"

var (
	// ErrMalformedHex is returned when a hex string is missing its 0x prefix,
	// contains non-hex characters or does not fit the target type.
	ErrMalformedHex = errors.New("malformed hex")

	// ErrNumericOverflow is returned when a quantity does not fit in 256 bits
	// or an arithmetic operation would wrap.
	ErrNumericOverflow = errors.New("numeric overflow")
)
