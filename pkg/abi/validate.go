package abi

import (
	"encoding/binary"
	"fmt"
	"math"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	wordSize = 32
	maxDepth = 32
)

func decodeErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrAbiDecode, fmt.Sprintf(format, args...))
}

// validateArguments checks that data holds the canonical head/tail encoding of
// the non-indexed arguments. It is run before the values are unpacked, so the
// unpacker never sees overlapping tails, dirty padding or out-of-range offsets.
func validateArguments(args gethabi.Arguments, data []byte) error {
	if len(data)%wordSize != 0 {
		return decodeErrorf("data length %d is not a multiple of %d", len(data), wordSize)
	}
	types := make([]*gethabi.Type, 0, len(args))
	for i := range args {
		if args[i].Indexed {
			continue
		}
		types = append(types, &args[i].Type)
	}
	_, err := validateSequence(types, data, 0)
	return err
}

// validateSequence walks one head/tail block and returns the number of bytes
// it occupies.
func validateSequence(types []*gethabi.Type, buf []byte, depth int) (int, error) {
	if depth > maxDepth {
		return 0, decodeErrorf("nesting deeper than %d", maxDepth)
	}
	head := 0
	for _, t := range types {
		head += headSize(t)
	}
	if len(buf) < head {
		return 0, decodeErrorf("buffer of %d bytes is shorter than head of %d bytes", len(buf), head)
	}

	pos, next := 0, head
	for _, t := range types {
		if !isDynamic(t) {
			size := headSize(t)
			if err := validateStatic(t, buf[pos:pos+size]); err != nil {
				return 0, err
			}
			pos += size
			continue
		}

		offset, err := readInt(buf[pos : pos+wordSize])
		if err != nil {
			return 0, err
		}
		switch {
		case offset%wordSize != 0:
			return 0, decodeErrorf("offset %d is not %d-byte aligned", offset, wordSize)
		case offset < next:
			return 0, decodeErrorf("offset %d points backward (expected %d)", offset, next)
		case offset > next:
			return 0, decodeErrorf("offset %d leaves a gap after %d", offset, next)
		case offset >= len(buf):
			return 0, decodeErrorf("offset %d is out of bounds (%d bytes)", offset, len(buf))
		}
		used, err := validateDynamic(t, buf[offset:], depth+1)
		if err != nil {
			return 0, err
		}
		next = offset + used
		pos += wordSize
	}
	return next, nil
}

func validateDynamic(t *gethabi.Type, buf []byte, depth int) (int, error) {
	switch t.T {
	case gethabi.StringTy, gethabi.BytesTy:
		if len(buf) < wordSize {
			return 0, decodeErrorf("missing length word for %s", t)
		}
		n, err := readInt(buf[:wordSize])
		if err != nil {
			return 0, err
		}
		padded := (n + wordSize - 1) / wordSize * wordSize
		if padded > len(buf)-wordSize {
			return 0, decodeErrorf("%s of length %d exceeds buffer", t, n)
		}
		for _, b := range buf[wordSize+n : wordSize+padded] {
			if b != 0 {
				return 0, decodeErrorf("non-zero padding after %s payload", t)
			}
		}
		return wordSize + padded, nil

	case gethabi.SliceTy:
		if len(buf) < wordSize {
			return 0, decodeErrorf("missing length word for %s", t)
		}
		n, err := readInt(buf[:wordSize])
		if err != nil {
			return 0, err
		}
		size := headSize(t.Elem)
		if size == 0 {
			// Zero-width elements carry no bytes, so nothing bounds n.
			if n > 0 {
				return 0, decodeErrorf("%s of length %d has zero-width elements", t, n)
			}
			return wordSize, nil
		}
		if n > (len(buf)-wordSize)/size {
			return 0, decodeErrorf("%s of length %d exceeds buffer", t, n)
		}
		used, err := validateSequence(repeat(t.Elem, n), buf[wordSize:], depth)
		if err != nil {
			return 0, err
		}
		return wordSize + used, nil

	case gethabi.ArrayTy:
		return validateSequence(repeat(t.Elem, t.Size), buf, depth)

	case gethabi.TupleTy:
		return validateSequence(t.TupleElems, buf, depth)
	}
	return 0, decodeErrorf("unexpected dynamic type %s", t)
}

func validateStatic(t *gethabi.Type, word []byte) error {
	switch t.T {
	case gethabi.ArrayTy:
		size := headSize(t.Elem)
		for i := 0; i < t.Size; i++ {
			if err := validateStatic(t.Elem, word[i*size:(i+1)*size]); err != nil {
				return err
			}
		}
	case gethabi.TupleTy:
		pos := 0
		for _, elem := range t.TupleElems {
			size := headSize(elem)
			if err := validateStatic(elem, word[pos:pos+size]); err != nil {
				return err
			}
			pos += size
		}
	case gethabi.UintTy:
		if !allBytes(word[:wordSize-t.Size/8], 0) {
			return decodeErrorf("dirty high bytes in %s", t)
		}
	case gethabi.IntTy:
		pad := byte(0)
		if word[wordSize-t.Size/8]&0x80 != 0 {
			pad = 0xff
		}
		if !allBytes(word[:wordSize-t.Size/8], pad) {
			return decodeErrorf("%s is not sign-extended", t)
		}
	case gethabi.BoolTy:
		if !allBytes(word[:wordSize-1], 0) || word[wordSize-1] > 1 {
			return decodeErrorf("invalid bool encoding")
		}
	case gethabi.AddressTy:
		if !allBytes(word[:12], 0) {
			return decodeErrorf("dirty high bytes in address")
		}
	case gethabi.FixedBytesTy:
		if !allBytes(word[t.Size:], 0) {
			return decodeErrorf("dirty low bytes in %s", t)
		}
	case gethabi.FunctionTy:
		if !allBytes(word[24:], 0) {
			return decodeErrorf("dirty low bytes in function")
		}
	}
	return nil
}

func isDynamic(t *gethabi.Type) bool {
	switch t.T {
	case gethabi.StringTy, gethabi.BytesTy, gethabi.SliceTy:
		return true
	case gethabi.ArrayTy:
		return isDynamic(t.Elem)
	case gethabi.TupleTy:
		for _, elem := range t.TupleElems {
			if isDynamic(elem) {
				return true
			}
		}
	}
	return false
}

// headSize is the number of bytes a value of type t takes in its enclosing
// head: the inline size for static types, one offset word otherwise.
func headSize(t *gethabi.Type) int {
	if isDynamic(t) {
		return wordSize
	}
	switch t.T {
	case gethabi.ArrayTy:
		return t.Size * headSize(t.Elem)
	case gethabi.TupleTy:
		total := 0
		for _, elem := range t.TupleElems {
			total += headSize(elem)
		}
		return total
	}
	return wordSize
}

func readInt(word []byte) (int, error) {
	if !allBytes(word[:24], 0) {
		return 0, decodeErrorf("offset or length does not fit in 64 bits")
	}
	v := binary.BigEndian.Uint64(word[24:])
	if v > math.MaxInt32 {
		return 0, decodeErrorf("offset or length %d out of range", v)
	}
	return int(v), nil
}

func repeat(t *gethabi.Type, n int) []*gethabi.Type {
	types := make([]*gethabi.Type, n)
	for i := range types {
		types[i] = t
	}
	return types
}

func allBytes(b []byte, v byte) bool {
	for _, c := range b {
		if c != v {
			return false
		}
	}
	return true
}
