// Package rlp models RLP values as a tree of byte strings and lists and
// converts them to and from their canonical wire encoding.
//
// Decoding is strict: every size prefix must be minimal, integers may not
// carry leading zero bytes, and the input must hold exactly one value. Two
// different byte sequences therefore never decode to the same Item, which
// keeps transaction signing hashes unique.
package rlp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"

	gethrlp "github.com/ethereum/go-ethereum/rlp"

	"github.com/nando-os/ghost-rpc/pkg/primitives"
)

// ErrInvalidRlp is returned for truncated, trailing or non-canonical input.
var ErrInvalidRlp = errors.New("invalid rlp")

// maxDepth bounds list nesting accepted by Decode.
const maxDepth = 64

// Kind tells byte strings and lists apart.
type Kind uint8

const (
	KindString Kind = iota
	KindList
)

func (k Kind) String() string {
	if k == KindList {
		return "list"
	}
	return "string"
}

// Item is a single RLP value.
type Item struct {
	kind  Kind
	str   []byte
	items []Item
}

// String returns a byte-string item.
func String(b []byte) Item {
	return Item{kind: KindString, str: append([]byte{}, b...)}
}

// List returns a list item holding items in order.
func List(items ...Item) Item {
	return Item{kind: KindList, items: append([]Item{}, items...)}
}

// Uint returns the canonical integer item for n (no leading zero bytes,
// zero is the empty string).
func Uint(n uint64) Item {
	return Quantity(primitives.NewQuantity(n))
}

// Quantity returns the canonical integer item for q.
func Quantity(q primitives.Quantity) Item {
	return Item{kind: KindString, str: q.Bytes()}
}

// Big returns the canonical integer item for n.
func Big(n *big.Int) (Item, error) {
	q, err := primitives.QuantityFromBig(n)
	if err != nil {
		return Item{}, err
	}
	return Quantity(q), nil
}

func (it Item) Kind() Kind { return it.kind }

func (it Item) IsList() bool { return it.kind == KindList }

// Bytes returns the content of a string item.
func (it Item) Bytes() ([]byte, error) {
	if it.kind != KindString {
		return nil, fmt.Errorf("%w: expected string, got list", ErrInvalidRlp)
	}
	return append([]byte{}, it.str...), nil
}

// Items returns the elements of a list item.
func (it Item) Items() ([]Item, error) {
	if it.kind != KindList {
		return nil, fmt.Errorf("%w: expected list, got string", ErrInvalidRlp)
	}
	return append([]Item{}, it.items...), nil
}

// Len is the number of elements of a list or the byte length of a string.
func (it Item) Len() int {
	if it.kind == KindList {
		return len(it.items)
	}
	return len(it.str)
}

// Quantity decodes a canonical integer string.
func (it Item) Quantity() (primitives.Quantity, error) {
	if it.kind != KindString {
		return primitives.Quantity{}, fmt.Errorf("%w: expected integer, got list", ErrInvalidRlp)
	}
	if len(it.str) > 0 && it.str[0] == 0 {
		return primitives.Quantity{}, fmt.Errorf("%w: integer has leading zero bytes", ErrInvalidRlp)
	}
	q, err := primitives.QuantityFromBytes(it.str)
	if err != nil {
		return primitives.Quantity{}, fmt.Errorf("%w: %v", ErrInvalidRlp, err)
	}
	return q, nil
}

// Uint64 decodes a canonical integer string that fits in 64 bits.
func (it Item) Uint64() (uint64, error) {
	q, err := it.Quantity()
	if err != nil {
		return 0, err
	}
	n, err := q.Uint64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRlp, err)
	}
	return n, nil
}

// Equal reports whether two items are structurally identical.
func (it Item) Equal(other Item) bool {
	if it.kind != other.kind {
		return false
	}
	if it.kind == KindString {
		return bytes.Equal(it.str, other.str)
	}
	if len(it.items) != len(other.items) {
		return false
	}
	for i := range it.items {
		if !it.items[i].Equal(other.items[i]) {
			return false
		}
	}
	return true
}

// EncodeRLP implements rlp.Encoder so items can be embedded in values
// encoded by go-ethereum's rlp package.
func (it Item) EncodeRLP(w io.Writer) error {
	buf := gethrlp.NewEncoderBuffer(w)
	it.writeTo(buf)
	return buf.Flush()
}

func (it Item) writeTo(buf gethrlp.EncoderBuffer) {
	if it.kind == KindString {
		buf.WriteBytes(it.str)
		return
	}
	idx := buf.List()
	for _, child := range it.items {
		child.writeTo(buf)
	}
	buf.ListEnd(idx)
}

// Encode returns the canonical encoding of it.
func Encode(it Item) []byte {
	buf := gethrlp.NewEncoderBuffer(nil)
	defer buf.Flush()
	it.writeTo(buf)
	return buf.ToBytes()
}

// Decode parses exactly one item from b.
func Decode(b []byte) (Item, error) {
	it, rest, err := decode(b, 0)
	if err != nil {
		return Item{}, err
	}
	if len(rest) != 0 {
		return Item{}, fmt.Errorf("%w: %d trailing bytes", ErrInvalidRlp, len(rest))
	}
	return it, nil
}

func decode(b []byte, depth int) (Item, []byte, error) {
	if depth > maxDepth {
		return Item{}, nil, fmt.Errorf("%w: nesting deeper than %d", ErrInvalidRlp, maxDepth)
	}
	if len(b) == 0 {
		return Item{}, nil, fmt.Errorf("%w: unexpected end of input", ErrInvalidRlp)
	}
	kind, content, rest, err := gethrlp.Split(b)
	if err != nil {
		return Item{}, nil, fmt.Errorf("%w: %v", ErrInvalidRlp, err)
	}
	switch kind {
	case gethrlp.Byte, gethrlp.String:
		return String(content), rest, nil
	default:
		var items []Item
		for len(content) > 0 {
			var child Item
			child, content, err = decode(content, depth+1)
			if err != nil {
				return Item{}, nil, err
			}
			items = append(items, child)
		}
		return Item{kind: KindList, items: items}, rest, nil
	}
}
