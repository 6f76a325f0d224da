package move

import (
	"fmt"
	"strings"

	"github.com/Iamfittz/aptos-core/common"
)

// DefaultMaxTypeDepth bounds generics nesting so a hostile descriptor
// cannot exhaust the call stack.
const DefaultMaxTypeDepth = 32

// ParseError describes a malformed type descriptor
type ParseError struct {
	Input  string
	Pos    int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid type tag %q at position %v: %v", e.Input, e.Pos, e.Reason)
}

// ParseTypeTag parse a type descriptor with the default depth limit
func ParseTypeTag(text string) (TypeTag, error) {
	return ParseTypeTagMaxDepth(text, DefaultMaxTypeDepth)
}

// ParseTypeTagMaxDepth parse a type descriptor bounding generics nesting
func ParseTypeTagMaxDepth(text string, maxDepth int) (TypeTag, error) {
	p := &parser{input: text, maxDepth: maxDepth}
	tag, err := p.parseType(1)
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.pos != len(p.input) {
		return nil, p.errorf("trailing characters")
	}
	return tag, nil
}

type parser struct {
	input    string
	pos      int
	maxDepth int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &ParseError{Input: p.input, Pos: p.pos, Reason: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos < len(p.input) {
		return p.input[p.pos]
	}
	return 0
}

// atom reads up to the next delimiter ('<', '>', ',' or space)
func (p *parser) atom() string {
	start := p.pos
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case '<', '>', ',', ' ', '\t':
			return p.input[start:p.pos]
		}
		p.pos++
	}
	return p.input[start:]
}

func (p *parser) parseType(depth int) (TypeTag, error) {
	if depth > p.maxDepth {
		return nil, p.errorf("nesting deeper than %v", p.maxDepth)
	}
	p.skipSpaces()
	atomPos := p.pos
	atom := p.atom()
	switch atom {
	case "bool":
		return BoolTag{}, nil
	case "u8":
		return U8Tag{}, nil
	case "u64":
		return U64Tag{}, nil
	case "u128":
		return U128Tag{}, nil
	case "address":
		return AddressTag{}, nil
	case "vector":
		if p.peek() != '<' {
			return nil, p.errorf("vector requires element type")
		}
		p.pos++
		elem, err := p.parseType(depth + 1)
		if err != nil {
			return nil, err
		}
		p.skipSpaces()
		if p.peek() != '>' {
			return nil, p.errorf("unclosed vector element type")
		}
		p.pos++
		return &VectorTag{Elem: elem}, nil
	case "":
		return nil, p.errorf("missing type")
	}
	return p.parseStruct(atom, atomPos, depth)
}

func (p *parser) parseStruct(atom string, atomPos int, depth int) (TypeTag, error) {
	parts := strings.Split(atom, "::")
	if len(parts) != 3 {
		p.pos = atomPos
		return nil, p.errorf("struct tag requires address::module::name")
	}
	addr, err := common.ParseAddress(parts[0])
	if err != nil {
		p.pos = atomPos
		return nil, p.errorf("bad struct address: %v", err)
	}
	if !IsIdentifier(parts[1]) || !IsIdentifier(parts[2]) {
		p.pos = atomPos
		return nil, p.errorf("bad struct identifier")
	}
	st := &StructTag{Address: addr, Module: parts[1], Name: parts[2]}
	p.skipSpaces()
	if p.peek() != '<' {
		return st, nil
	}
	p.pos++
	for {
		generic, err := p.parseType(depth + 1)
		if err != nil {
			return nil, err
		}
		st.Generics = append(st.Generics, generic)
		p.skipSpaces()
		switch p.peek() {
		case ',':
			p.pos++
		case '>':
			p.pos++
			return st, nil
		default:
			return nil, p.errorf("unclosed generics list")
		}
	}
}

// IsIdentifier reports whether s is a valid module or struct name
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
