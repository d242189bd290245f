package mapspec

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokColon
	tokComma
	tokLBracket
	tokRBracket
	tokArrow
)

type token struct {
	kind tokenKind
	text string
}

// lex tokenizes a mapspec source string. Whitespace between tokens is
// insignificant and discarded.
func lex(src string) ([]token, error) {
	tokens := make([]token, 0, strings.Count(src, ",")*2+4)

	runes := []rune(src)
	for i := 0; i < len(runes); {
		r := runes[i]

		switch {
		case unicode.IsSpace(r):
			i++
		case r == ',':
			tokens = append(tokens, token{kind: tokComma, text: ","})
			i++
		case r == '[':
			tokens = append(tokens, token{kind: tokLBracket, text: "["})
			i++
		case r == ']':
			tokens = append(tokens, token{kind: tokRBracket, text: "]"})
			i++
		case r == ':':
			tokens = append(tokens, token{kind: tokColon, text: ":"})
			i++
		case r == '-' && i+1 < len(runes) && runes[i+1] == '>':
			tokens = append(tokens, token{kind: tokArrow, text: "->"})
			i += 2
		case isIdentStart(r):
			start := i
			i++

			for i < len(runes) && isIdentCont(runes[i]) {
				i++
			}

			tokens = append(tokens, token{kind: tokIdent, text: string(runes[start:i])})
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at position %d", ErrParse, r, i)
		}
	}

	return tokens, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentCont(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// parser is a recursive-descent parser over a flat token stream.
type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	if p.pos >= len(p.tokens) {
		return token{kind: tokEOF}
	}

	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++

	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.peek()
	if t.kind != kind {
		return token{}, fmt.Errorf("%w: expected %s, found %q", ErrParse, what, t.text)
	}

	return p.next(), nil
}

// Parse parses a mapspec source string of the form
// "a[i], b[j] -> c[i, j]" into a MapSpec.
func Parse(src string) (*MapSpec, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}

	inputs, err := p.parseArrayList()
	if err != nil {
		return nil, fmt.Errorf("parsing inputs: %w", err)
	}

	_, err = p.expect(tokArrow, `"->"`)
	if err != nil {
		return nil, err
	}

	outputs, err := p.parseArrayList()
	if err != nil {
		return nil, fmt.Errorf("parsing outputs: %w", err)
	}

	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected trailing token %q", ErrParse, p.peek().text)
	}

	m := &MapSpec{Inputs: inputs, Outputs: outputs}

	err = validateMapSpec(m)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (p *parser) parseArrayList() ([]ArraySpec, error) {
	first, err := p.parseArray()
	if err != nil {
		return nil, err
	}

	specs := []ArraySpec{first}

	for p.peek().kind == tokComma {
		p.next()

		next, err := p.parseArray()
		if err != nil {
			return nil, err
		}

		specs = append(specs, next)
	}

	return specs, nil
}

func (p *parser) parseArray() (ArraySpec, error) {
	name, err := p.expect(tokIdent, "parameter name")
	if err != nil {
		return ArraySpec{}, err
	}

	_, err = p.expect(tokLBracket, `"["`)
	if err != nil {
		return ArraySpec{}, err
	}

	var axes []string

	for {
		axis, err := p.parseAxis()
		if err != nil {
			return ArraySpec{}, err
		}

		axes = append(axes, axis)

		if p.peek().kind != tokComma {
			break
		}

		p.next()
	}

	_, err = p.expect(tokRBracket, `"]"`)
	if err != nil {
		return ArraySpec{}, err
	}

	return ArraySpec{Name: name.text, Axes: axes}, nil
}

func (p *parser) parseAxis() (string, error) {
	t := p.peek()

	switch t.kind {
	case tokIdent:
		p.next()

		return t.text, nil
	case tokColon:
		p.next()

		return reduceAxis, nil
	default:
		return "", fmt.Errorf("%w: expected axis, found %q", ErrParse, t.text)
	}
}

// validateMapSpec enforces the structural invariants from the mapspec
// grammar that are not expressible by parsing alone: output axes must
// already appear among the inputs, and multi-output mapspecs must agree
// on their external axis tuple.
func validateMapSpec(m *MapSpec) error {
	for _, out := range m.Outputs {
		for _, axis := range out.Axes {
			if axis == reduceAxis {
				return fmt.Errorf("%w: output %q may not use the reduce sentinel", ErrParse, out.Name)
			}

			if !axisAppearsInInputs(m.Inputs, axis) {
				return fmt.Errorf("%w: output axis %q of %q has no corresponding input", ErrParse, axis, out.Name)
			}
		}
	}

	if len(m.Outputs) > 1 {
		first := m.Outputs[0].Axes
		for _, out := range m.Outputs[1:] {
			if !equalAxes(first, out.Axes) {
				return fmt.Errorf("%w: outputs %q and %q have different axis tuples", ErrParse, m.Outputs[0].Name, out.Name)
			}
		}
	}

	return nil
}

func axisAppearsInInputs(inputs []ArraySpec, axis string) bool {
	for _, in := range inputs {
		for _, a := range in.Axes {
			if a == axis {
				return true
			}
		}
	}

	return false
}

func equalAxes(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for idx := range a {
		if a[idx] != b[idx] {
			return false
		}
	}

	return true
}
