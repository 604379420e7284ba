package abi

import (
	"fmt"
	"strings"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
)

// param is one parsed parameter of a human-readable signature.
type param struct {
	arg     gethabi.ArgumentMarshaling
	indexed bool
}

type signature struct {
	name       string
	inputs     []param
	outputs    []param
	hasOutputs bool
}

// parseSignature understands the forms
//
//	name(type [indexed] [name], ...)
//	name(inputs)(outputs)
//	name(inputs) returns (outputs)
//
// where a type is an elementary type, a tuple "(...)" or "tuple(...)", with
// any number of "[]" / "[k]" suffixes.
func parseSignature(sig string) (*signature, error) {
	p := &sigParser{s: sig}
	out := &signature{}

	p.skipSpace()
	out.name = p.ident()
	if out.name == "" {
		return nil, p.errorf("missing name")
	}
	inputs, err := p.paramList()
	if err != nil {
		return nil, err
	}
	out.inputs = inputs

	p.skipSpace()
	if strings.HasPrefix(p.rest(), "returns") {
		p.pos += len("returns")
		p.skipSpace()
	}
	if !p.done() {
		outputs, err := p.paramList()
		if err != nil {
			return nil, err
		}
		out.outputs = outputs
		out.hasOutputs = true
	}
	p.skipSpace()
	if !p.done() {
		return nil, p.errorf("unexpected trailing input")
	}
	return out, nil
}

type sigParser struct {
	s   string
	pos int
}

func (p *sigParser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %q at offset %d: %s", ErrInvalidSignature, p.s, p.pos, fmt.Sprintf(format, args...))
}

func (p *sigParser) done() bool   { return p.pos >= len(p.s) }
func (p *sigParser) rest() string { return p.s[p.pos:] }

func (p *sigParser) peek() byte {
	if p.done() {
		return 0
	}
	return p.s[p.pos]
}

func (p *sigParser) skipSpace() {
	for !p.done() && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t' || p.s[p.pos] == '\n') {
		p.pos++
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || ('0' <= c && c <= '9')
}

func (p *sigParser) ident() string {
	start := p.pos
	if p.done() || !isIdentStart(p.s[p.pos]) {
		return ""
	}
	for !p.done() && isIdentChar(p.s[p.pos]) {
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *sigParser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

// paramList parses "(" [param {"," param}] ")".
func (p *sigParser) paramList() ([]param, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	var params []param
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return params, nil
	}
	for {
		prm, err := p.param()
		if err != nil {
			return nil, err
		}
		params = append(params, prm)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return params, nil
		default:
			return nil, p.errorf("expected ',' or ')'")
		}
	}
}

func (p *sigParser) param() (param, error) {
	var prm param
	p.skipSpace()

	var components []gethabi.ArgumentMarshaling
	var typ string
	if p.peek() == '(' || strings.HasPrefix(p.rest(), "tuple(") {
		if p.peek() == 't' {
			p.pos += len("tuple")
		}
		inner, err := p.paramList()
		if err != nil {
			return prm, err
		}
		for i, c := range inner {
			if c.indexed {
				return prm, p.errorf("tuple components cannot be indexed")
			}
			if c.arg.Name == "" {
				c.arg.Name = fmt.Sprintf("field%d", i)
			}
			components = append(components, c.arg)
		}
		typ = "tuple"
	} else {
		typ = p.ident()
		if typ == "" {
			return prm, p.errorf("missing type")
		}
		typ = normalizeElementary(typ)
	}

	for p.peek() == '[' {
		end := strings.IndexByte(p.rest(), ']')
		if end < 0 {
			return prm, p.errorf("unterminated array suffix")
		}
		size := p.rest()[1:end]
		for i := 0; i < len(size); i++ {
			if size[i] < '0' || size[i] > '9' {
				return prm, p.errorf("invalid array size %q", size)
			}
		}
		typ += p.rest()[:end+1]
		p.pos += end + 1
	}

	// Optional modifiers and name.
	for {
		p.skipSpace()
		word := p.peekIdent()
		switch word {
		case "":
			prm.arg.Type = typ
			prm.arg.Components = components
			if _, err := gethabi.NewType(typ, "", components); err != nil {
				return prm, p.errorf("%v", err)
			}
			return prm, nil
		case "indexed":
			prm.indexed = true
			prm.arg.Indexed = true
		case "memory", "calldata", "storage", "payable":
		default:
			if prm.arg.Name != "" {
				return prm, p.errorf("unexpected %q", word)
			}
			prm.arg.Name = word
		}
		p.pos += len(word)
	}
}

func (p *sigParser) peekIdent() string {
	save := p.pos
	word := p.ident()
	p.pos = save
	return word
}

func normalizeElementary(typ string) string {
	switch typ {
	case "uint":
		return "uint256"
	case "int":
		return "int256"
	case "byte":
		return "bytes1"
	}
	return typ
}

func toArguments(params []param) (gethabi.Arguments, error) {
	args := make(gethabi.Arguments, 0, len(params))
	for _, prm := range params {
		t, err := gethabi.NewType(prm.arg.Type, "", prm.arg.Components)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		args = append(args, gethabi.Argument{Name: prm.arg.Name, Type: t, Indexed: prm.indexed})
	}
	return args, nil
}
