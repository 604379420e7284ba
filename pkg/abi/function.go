// Package abi encodes and decodes contract calls, return values and event
// logs. Type handling and packing are delegated to go-ethereum's accounts/abi;
// every decode path first checks that the input is canonically encoded.
package abi

import (
	"bytes"
	"fmt"
	"math"
	"math/big"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/nando-os/ghost-rpc/pkg/primitives"
)

// Function is a contract method with its input and output types.
type Function struct {
	method gethabi.Method
}

// ParseFunction parses a human-readable signature such as
// "transfer(address to, uint256 amount) returns (bool)".
func ParseFunction(signature string) (*Function, error) {
	sig, err := parseSignature(signature)
	if err != nil {
		return nil, err
	}
	for _, in := range sig.inputs {
		if in.indexed {
			return nil, fmt.Errorf("%w: function parameters cannot be indexed", ErrInvalidSignature)
		}
	}
	inputs, err := toArguments(sig.inputs)
	if err != nil {
		return nil, err
	}
	outputs, err := toArguments(sig.outputs)
	if err != nil {
		return nil, err
	}
	method := gethabi.NewMethod(sig.name, sig.name, gethabi.Function, "", false, false, inputs, outputs)
	return &Function{method: method}, nil
}

// MustParseFunction is like ParseFunction but panics on error. Intended for
// package-level signatures.
func MustParseFunction(signature string) *Function {
	f, err := ParseFunction(signature)
	if err != nil {
		panic(err)
	}
	return f
}

// NewFunction wraps an already constructed go-ethereum method.
func NewFunction(method gethabi.Method) *Function {
	return &Function{method: method}
}

// Selector returns the first four bytes of the keccak-256 hash of the
// canonical form of signature.
func Selector(signature string) ([4]byte, error) {
	f, err := ParseFunction(signature)
	if err != nil {
		return [4]byte{}, err
	}
	return f.Selector(), nil
}

func (f *Function) Name() string { return f.method.RawName }

// Signature is the canonical signature, e.g. "transfer(address,uint256)".
func (f *Function) Signature() string { return f.method.Sig }

func (f *Function) Selector() [4]byte {
	var sel [4]byte
	copy(sel[:], f.method.ID)
	return sel
}

func (f *Function) Inputs() gethabi.Arguments  { return f.method.Inputs }
func (f *Function) Outputs() gethabi.Arguments { return f.method.Outputs }

// EncodeCall returns selector ++ encoded arguments.
func (f *Function) EncodeCall(args ...interface{}) ([]byte, error) {
	packed, err := EncodeArguments(f.method.Inputs, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode call to %s: %w", f.method.Sig, err)
	}
	return append(common.CopyBytes(f.method.ID), packed...), nil
}

// DecodeInput decodes calldata produced by EncodeCall.
func (f *Function) DecodeInput(calldata []byte) ([]interface{}, error) {
	if len(calldata) < 4 {
		return nil, decodeErrorf("calldata shorter than a selector")
	}
	if !bytes.Equal(calldata[:4], f.method.ID) {
		return nil, decodeErrorf("selector %x does not match %s", calldata[:4], f.method.Sig)
	}
	return DecodeArguments(f.method.Inputs, calldata[4:])
}

// DecodeOutput decodes the return data of an eth_call to this function.
func (f *Function) DecodeOutput(data []byte) ([]interface{}, error) {
	return DecodeArguments(f.method.Outputs, data)
}

// EncodeArguments packs args against types. Besides the go-ethereum value
// conventions it accepts primitives.Address, primitives.Hash,
// primitives.Quantity, primitives.Bytes and plain Go integers for integer
// types of any width.
func EncodeArguments(types gethabi.Arguments, args ...interface{}) ([]byte, error) {
	if len(args) != len(types) {
		return nil, fmt.Errorf("%w: expected %d arguments, got %d", ErrAbiEncode, len(types), len(args))
	}
	values := make([]interface{}, len(args))
	for i, arg := range args {
		v, err := coerce(&types[i].Type, arg)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d: %v", ErrAbiEncode, i, err)
		}
		values[i] = v
	}
	packed, err := types.Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAbiEncode, err)
	}
	return packed, nil
}

// DecodeArguments validates and unpacks data against the non-indexed
// arguments in types.
func DecodeArguments(types gethabi.Arguments, data []byte) ([]interface{}, error) {
	if err := validateArguments(types, data); err != nil {
		return nil, err
	}
	values, err := types.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAbiDecode, err)
	}
	return values, nil
}

func coerce(t *gethabi.Type, v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case primitives.Address:
		return x.Common(), nil
	case primitives.Hash:
		return [32]byte(x), nil
	case primitives.Bytes:
		return []byte(x), nil
	case primitives.Quantity:
		return coerceInteger(t, x.Big())
	case int:
		return coerceInteger(t, big.NewInt(int64(x)))
	case int64:
		return coerceInteger(t, big.NewInt(x))
	case uint64:
		return coerceInteger(t, new(big.Int).SetUint64(x))
	}
	return v, nil
}

// coerceInteger converts n to the Go type go-ethereum expects for t.
func coerceInteger(t *gethabi.Type, n *big.Int) (interface{}, error) {
	if t.T != gethabi.UintTy && t.T != gethabi.IntTy {
		return nil, fmt.Errorf("integer given for %s", t)
	}
	if t.Size > 64 {
		return n, nil
	}
	if t.T == gethabi.UintTy {
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return nil, fmt.Errorf("%s does not fit in %s", n, t)
		}
		u := n.Uint64()
		switch t.Size {
		case 8:
			return uint8(u), nil
		case 16:
			return uint16(u), nil
		case 32:
			return uint32(u), nil
		case 64:
			return u, nil
		}
		return n, nil
	}
	if !n.IsInt64() {
		return nil, fmt.Errorf("%s does not fit in %s", n, t)
	}
	i := n.Int64()
	switch t.Size {
	case 8:
		if i < math.MinInt8 || i > math.MaxInt8 {
			return nil, fmt.Errorf("%d does not fit in %s", i, t)
		}
		return int8(i), nil
	case 16:
		if i < math.MinInt16 || i > math.MaxInt16 {
			return nil, fmt.Errorf("%d does not fit in %s", i, t)
		}
		return int16(i), nil
	case 32:
		if i < math.MinInt32 || i > math.MaxInt32 {
			return nil, fmt.Errorf("%d does not fit in %s", i, t)
		}
		return int32(i), nil
	case 64:
		return i, nil
	}
	return n, nil
}
