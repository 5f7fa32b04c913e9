// Package schema reads bit-field type declarations from text.
//
// A schema is a list of type blocks:
//
//	// comments run to the end of the line
//	type Status {
//		size 16
//		lo 0:8
//		hi 8:16
//	}
//
//	type Packet {
//		mask 0xff0f
//		flag 0      // one bit
//		kind 1:4    // bits [1, 4)
//		ctl 4:8 {   // nested fields, relative to bit 4
//			en 0
//			mode 1:3
//		}
//		rest 12:    // every bit from 12 up
//	}
//
// size and mask take any Go integer literal.
package schema

import (
	"context"
	"math/big"
	"strconv"
	"strings"

	"github.com/johnsiilver/halfpike"
	"github.com/zeebo/mon"

	"github.com/zeebo/bitfield"
)

// Parse returns the declarations in content in the order they appear.
func Parse(ctx context.Context, content string) ([]bitfield.Decl, error) {
	p := &parser{seen: make(map[string]bool)}
	err := halfpike.Parse(ctx, content, p)
	if p.err != nil {
		return nil, p.err
	}
	if err != nil {
		return nil, bitfield.ParseError.Wrap(err)
	}
	return p.decls, nil
}

// Load parses content and declares every type in reg, keyed by type name.
func Load(ctx context.Context, reg *bitfield.Registry, content string) (types map[string]*bitfield.Descriptor, err error) {
	defer mon.Start().Stop(&err)

	decls, err := Parse(ctx, content)
	if err != nil {
		return nil, err
	}

	types = make(map[string]*bitfield.Descriptor, len(decls))
	for _, decl := range decls {
		d, err := reg.Declare(decl)
		if err != nil {
			return nil, err
		}
		types[decl.Name] = d
	}
	return types, nil
}

type parser struct {
	decls []bitfield.Decl
	seen  map[string]bool
	eof   bool
	err   error
}

// Validate implements halfpike.Validator.
func (p *parser) Validate() error { return p.err }

// Start implements halfpike.Validator.
func (p *parser) Start(ctx context.Context, hp *halfpike.Parser) halfpike.ParseFn {
	return p.parseType
}

func (p *parser) fail(err error) halfpike.ParseFn {
	p.err = err
	return nil
}

// next returns the words of the next line holding any, skipping blank lines
// and comments. It reports false at the end of the input.
func (p *parser) next(hp *halfpike.Parser) (halfpike.Line, []string, bool) {
	for !p.eof {
		line := hp.Next()
		p.eof = hp.EOF(line)
		if w := words(line); len(w) > 0 {
			return line, w, true
		}
	}
	return halfpike.Line{}, nil, false
}

// words returns the values of the line's items up to any comment.
func words(line halfpike.Line) []string {
	var out []string
	for _, item := range line.Items {
		val := strings.TrimSpace(item.Val)
		if strings.HasPrefix(val, "//") {
			break
		}
		if val != "" {
			out = append(out, val)
		}
	}
	return out
}

func (p *parser) parseType(ctx context.Context, hp *halfpike.Parser) halfpike.ParseFn {
	line, w, ok := p.next(hp)
	if !ok {
		return nil
	}

	if len(w) != 3 || w[0] != "type" || w[2] != "{" {
		return p.fail(bitfield.ParseError.New("[Line %d] expected 'type NAME {', got %q",
			line.LineNum, strings.Join(w, " ")))
	}
	name := w[1]
	if !validName(name) {
		return p.fail(bitfield.ParseError.New("[Line %d] invalid type name %q", line.LineNum, name))
	}
	if p.seen[name] {
		return p.fail(bitfield.ParseError.New("[Line %d] duplicate type %q", line.LineNum, name))
	}
	p.seen[name] = true

	decl := bitfield.Decl{Name: name, Fields: bitfield.Def{}}
	if err := p.parseBlock(hp, name, &decl, decl.Fields); err != nil {
		return p.fail(err)
	}
	p.decls = append(p.decls, decl)

	return p.parseType
}

// parseBlock reads field lines into def until the closing brace. decl is nil
// inside nested blocks, where size and mask are ordinary field names.
func (p *parser) parseBlock(hp *halfpike.Parser, block string, decl *bitfield.Decl, def bitfield.Def) error {
	var sized, masked bool

	for {
		line, w, ok := p.next(hp)
		if !ok {
			return bitfield.ParseError.New("unexpected end of input before closing } of %s", block)
		}

		switch {
		case len(w) == 1 && w[0] == "}":
			return nil

		case decl != nil && w[0] == "size":
			if len(w) != 2 || sized {
				return bitfield.ParseError.New("[Line %d] expected a single 'size N' in %s", line.LineNum, block)
			}
			n, ok := new(big.Int).SetString(w[1], 0)
			if !ok || !n.IsUint64() || n.Sign() == 0 {
				return bitfield.TypeError.New("[Line %d] pre-defined size has invalid value: %q", line.LineNum, w[1])
			}
			decl.Size, sized = uint(n.Uint64()), true

		case decl != nil && w[0] == "mask":
			if len(w) != 2 || masked {
				return bitfield.ParseError.New("[Line %d] expected a single 'mask N' in %s", line.LineNum, block)
			}
			n, ok := new(big.Int).SetString(w[1], 0)
			if !ok {
				return bitfield.TypeError.New("[Line %d] pre-defined mask has invalid value: %q", line.LineNum, w[1])
			}
			decl.Mask, masked = n, true

		case len(w) == 2 || len(w) == 3 && w[2] == "{":
			name := w[0]
			if name == bitfield.IndexKey {
				return bitfield.ReservedKeyError.New("[Line %d] %s is reserved", line.LineNum, name)
			}
			if _, ok := def[name]; ok {
				return bitfield.ParseError.New("[Line %d] duplicate field %q in %s", line.LineNum, name, block)
			}
			rng, err := parsePos(w[1])
			if err != nil {
				return bitfield.ParseError.New("[Line %d] field %s: %v", line.LineNum, name, err)
			}
			if len(w) == 2 {
				def[name] = rng
				continue
			}
			nested := bitfield.Def{bitfield.IndexKey: rng}
			if err := p.parseBlock(hp, block+"."+name, nil, nested); err != nil {
				return err
			}
			def[name] = nested

		default:
			return bitfield.ParseError.New("[Line %d] do not understand this line: %q",
				line.LineNum, strings.Join(w, " "))
		}
	}
}

// parsePos parses N, A:B or A:.
func parsePos(s string) (bitfield.Range, error) {
	i := strings.IndexByte(s, ':')
	if i < 0 {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return bitfield.Range{}, err
		}
		return bitfield.Bit(uint(n)), nil
	}

	start, err := strconv.ParseUint(s[:i], 10, 32)
	if err != nil {
		return bitfield.Range{}, err
	}
	if s[i+1:] == "" {
		return bitfield.From(uint(start)), nil
	}
	stop, err := strconv.ParseUint(s[i+1:], 10, 32)
	if err != nil {
		return bitfield.Range{}, err
	}
	return bitfield.Span(uint(start), uint(stop)), nil
}

func validName(name string) bool {
	for i, r := range name {
		switch {
		case r == '_', 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case i > 0 && '0' <= r && r <= '9':
		default:
			return false
		}
	}
	return name != ""
}

// ParseRange parses a bit position written as N, A:B or A:.
func ParseRange(s string) (bitfield.Range, error) {
	r, err := parsePos(s)
	if err != nil {
		return bitfield.Range{}, bitfield.ParseError.New("invalid bit position %q: %v", s, err)
	}
	return r, nil
}
