package sexpr

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokOpen
	tokClose
	tokName   // ":name"
	tokAtom   // bare run of characters
	tokQuoted // "..." with Go escapes
)

type token struct {
	kind   tokenKind
	text   string
	offset int
}

type lexer struct {
	input string
	pos   int
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, offset: l.pos}, nil
	}

	start := l.pos
	switch c := l.input[l.pos]; c {
	case '(':
		l.pos++
		return token{kind: tokOpen, offset: start}, nil
	case ')':
		l.pos++
		return token{kind: tokClose, offset: start}, nil
	case '"':
		return l.quoted()
	case ':':
		l.pos++
		name := l.bare()
		if name == "" {
			return token{}, syntaxError(start, "field marker without a name")
		}
		return token{kind: tokName, text: name, offset: start}, nil
	default:
		return token{kind: tokAtom, text: l.bare(), offset: start}, nil
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return
		}
	}
}

func (l *lexer) bare() string {
	start := l.pos
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if isDelimiter(r) || r == '"' {
			break
		}
		l.pos += size
	}
	return l.input[start:l.pos]
}

func (l *lexer) quoted() (token, error) {
	start := l.pos
	l.pos++ // opening quote
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case '\\':
			l.pos += 2
		case '"':
			l.pos++
			s, err := strconv.Unquote(l.input[start:l.pos])
			if err != nil {
				return token{}, syntaxError(start, "invalid quoted string")
			}
			return token{kind: tokQuoted, text: s, offset: start}, nil
		default:
			l.pos++
		}
	}
	return token{}, syntaxError(start, "unterminated quoted string")
}

type parser struct {
	lex  lexer
	peek *token
}

func (p *parser) next() (token, error) {
	if p.peek != nil {
		t := *p.peek
		p.peek = nil
		return t, nil
	}
	return p.lex.next()
}

func (p *parser) lookahead() (token, error) {
	if p.peek == nil {
		t, err := p.lex.next()
		if err != nil {
			return token{}, err
		}
		p.peek = &t
	}
	return *p.peek, nil
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t, err := p.next()
	if err != nil {
		return token{}, err
	}
	if t.kind != kind {
		return token{}, syntaxError(t.offset, "expected "+what+", found "+describe(t))
	}
	return t, nil
}

// Parse reads a complete document. Trailing non-space input is an error.
func Parse(text string) (*Document, error) {
	p := &parser{lex: lexer{input: text}}

	if _, err := p.expect(tokOpen, "'('"); err != nil {
		return nil, err
	}
	tag, err := p.expect(tokAtom, "record tag")
	if err != nil {
		return nil, err
	}

	body, err := p.fields()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(tokEOF, "end of input"); err != nil {
		return nil, err
	}

	return &Document{Tag: tag.text, Body: body}, nil
}

// fields reads ":name (value)" pairs up to and including the closing paren.
func (p *parser) fields() (*Node, error) {
	rec := Record()
	for {
		t, err := p.next()
		if err != nil {
			return nil, err
		}

		switch t.kind {
		case tokClose:
			return rec, nil
		case tokName:
			if _, err := p.expect(tokOpen, "'(' after :"+t.text); err != nil {
				return nil, err
			}
			v, err := p.value()
			if err != nil {
				return nil, err
			}
			rec.Fields = append(rec.Fields, Field{Name: t.text, Value: v})
		default:
			return nil, syntaxError(t.offset, "expected field or ')', found "+describe(t))
		}
	}
}

// value reads the inside of a "(...)" whose opening paren was consumed.
func (p *parser) value() (*Node, error) {
	t, err := p.lookahead()
	if err != nil {
		return nil, err
	}

	switch t.kind {
	case tokClose:
		_, _ = p.next()
		return Atom(""), nil
	case tokName:
		return p.fields()
	case tokAtom, tokQuoted:
		var parts []string
		for t.kind == tokAtom || t.kind == tokQuoted {
			_, _ = p.next()
			parts = append(parts, t.text)
			if t, err = p.lookahead(); err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(tokClose, "')'"); err != nil {
			return nil, err
		}
		return Atom(strings.Join(parts, " ")), nil
	default:
		return nil, syntaxError(t.offset, "unexpected "+describe(t)+" in value")
	}
}

func describe(t token) string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokOpen:
		return "'('"
	case tokClose:
		return "')'"
	case tokName:
		return "field :" + t.text
	default:
		return strconv.Quote(t.text)
	}
}
