package pkgText

import (
	"fmt"
	"strconv"
	"strings"
)

// DecodeError reports where a blob stopped making sense.
type DecodeError struct {
	Line int
	Col  int
	Msg  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("pkgText: line %d col %d: %s", e.Line, e.Col, e.Msg)
}

// Decode parses one blob.
func Decode(text string) (*Map, error) {
	p := &parser{src: text, line: 1, col: 1}
	return p.document()
}

type parser struct {
	src  string
	pos  int
	line int
	col  int
}

func (p *parser) fail(format string, args ...any) error {
	return &DecodeError{Line: p.line, Col: p.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) next() byte {
	c := p.src[p.pos]
	p.pos++
	if c == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return c
}

// skipSpace skips blanks, and newlines too when withNewlines is set.
// It reports whether a newline was crossed.
func (p *parser) skipSpace(withNewlines bool) bool {
	crossed := false
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\r':
			p.next()
		case '\n':
			if !withNewlines {
				return crossed
			}
			crossed = true
			p.next()
		default:
			return crossed
		}
	}
	return crossed
}

func (p *parser) document() (*Map, error) {
	m := NewMap()
	for {
		p.skipSpace(true)
		if p.eof() {
			return m, nil
		}
		key, err := p.key()
		if err != nil {
			return nil, err
		}
		p.skipSpace(false)
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		m.Set(key, v)
		p.skipSpace(false)
		if !p.eof() && p.peek() != '\n' {
			return nil, p.fail("unexpected %q after value of %s", p.peek(), key)
		}
	}
}

// key reads a bare name and the '=' after it.
func (p *parser) key() (string, error) {
	tok := p.bare()
	if tok == "" {
		return "", p.fail("expected field name, found %q", p.peek())
	}
	p.skipSpace(false)
	if p.eof() || p.peek() != '=' {
		return "", p.fail("expected '=' after %s", tok)
	}
	p.next()
	return tok, nil
}

func (p *parser) value() (Value, error) {
	if p.eof() {
		return String(""), nil
	}
	switch p.peek() {
	case '"':
		s, err := p.quoted()
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	case '{':
		return p.block()
	}
	return scalar(p.bare()), nil
}

// bare reads up to the next delimiter and trims surrounding blanks.
func (p *parser) bare() string {
	start := p.pos
	for !p.eof() {
		switch p.peek() {
		case ',', '}', '{', '=', '\n', '"':
			return strings.TrimSpace(p.src[start:p.pos])
		}
		p.next()
	}
	return strings.TrimSpace(p.src[start:p.pos])
}

func (p *parser) quoted() (string, error) {
	p.next()
	var sb strings.Builder
	for !p.eof() {
		c := p.next()
		switch c {
		case '"':
			return sb.String(), nil
		case '\\':
			if p.eof() {
				return "", p.fail("unterminated escape")
			}
			e := p.next()
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(e)
			}
		default:
			sb.WriteByte(c)
		}
	}
	return "", p.fail("unterminated string")
}

func (p *parser) block() (Value, error) {
	p.next()
	p.skipSpace(true)
	if !p.eof() && p.peek() == '}' {
		p.next()
		return MapValue(NewMap()), nil
	}

	if p.keyed() {
		m := NewMap()
		err := p.entries(func() error {
			key, err := p.key()
			if err != nil {
				return err
			}
			p.skipSpace(false)
			v, err := p.value()
			if err != nil {
				return err
			}
			m.Set(key, v)
			return nil
		})
		return MapValue(m), err
	}

	var items []Value
	err := p.entries(func() error {
		v, err := p.value()
		if err != nil {
			return err
		}
		items = append(items, v)
		return nil
	})
	if items == nil {
		items = []Value{}
	}
	return List(items...), err
}

// entries runs entry for each separated element until the closing brace.
func (p *parser) entries(entry func() error) error {
	for {
		p.skipSpace(true)
		if p.eof() {
			return p.fail("unterminated block")
		}
		if p.peek() == '}' {
			p.next()
			return nil
		}
		if err := entry(); err != nil {
			return err
		}
		crossed := p.skipSpace(true)
		if p.eof() {
			return p.fail("unterminated block")
		}
		switch p.peek() {
		case ',':
			p.next()
		case '}':
		default:
			if !crossed {
				return p.fail("expected ',' or '}', found %q", p.peek())
			}
		}
	}
}

// keyed looks ahead for Name= without consuming anything.
func (p *parser) keyed() bool {
	for i := p.pos; i < len(p.src); i++ {
		switch p.src[i] {
		case '=':
			return strings.TrimSpace(p.src[p.pos:i]) != ""
		case ',', '}', '{', '\n', '"':
			return false
		}
	}
	return false
}

func scalar(tok string) Value {
	switch tok {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if !looksNumeric(tok) {
		return String(tok)
	}
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return Float(f)
	}
	return String(tok)
}

// looksNumeric keeps ParseFloat from accepting words like "inf" or "NaN".
func looksNumeric(tok string) bool {
	if tok == "" {
		return false
	}
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		switch {
		case c >= '0' && c <= '9':
		case c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E':
		default:
			return false
		}
	}
	c := tok[0]
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}
