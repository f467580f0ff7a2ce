// Package keyparser compiles the key sequence macro language into actions.
//
// A sequence is a stream of tokens separated by optional whitespace:
//
//	Space Tab            keywords, each a key press-and-release
//	"hello\n"            string literal, expanded character by character
//	press(LeftShift)     hold a key
//	release(LeftShift)   let go of a key
//	delay(250)           wait in milliseconds
package keyparser

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"autoclicker/internal/keycodes"
	"autoclicker/internal/logging"
	"autoclicker/internal/protocol"
)

var logger = logging.New("KeyParser")

// Function call shapes, used in arity diagnostics.
var signatures = map[string]string{
	"press":   "press is defined as: `press(key)`",
	"release": "release is defined as: `release(key)`",
	"delay":   "delay is defined as: `delay(number)`",
}

// Parse compiles src into an ordered action list. Errors are *SyntaxError.
func Parse(src string) ([]protocol.Action, error) {
	start := time.Now()

	p := &parser{src: src}
	p.skipSpace()
	if p.eof() {
		return nil, newSyntaxError(src, 0, "empty key sequence")
	}

	actions := []protocol.Action{}
	for !p.eof() {
		it, err := p.next()
		if err != nil {
			logger.Debugf("compile failed at offset %d: %s", err.Frames[0].Offset, err.Cause())
			return nil, err
		}
		actions = append(actions, it.actions...)
		p.skipSpace()
	}

	logger.Debugf("parsing done; %d actions in %s", len(actions), time.Since(start))
	return actions, nil
}

// MustParse is Parse for sequences known to be valid. It panics on error.
func MustParse(src string) []protocol.Action {
	actions, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return actions
}

type item struct {
	kind    TokenKind
	start   int
	end     int
	actions []protocol.Action
}

type argument struct {
	offset int
	ident  string
	number int64
	isNum  bool
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) errorf(offset int, cause string) *SyntaxError {
	return newSyntaxError(p.src, offset, cause)
}

func (p *parser) skipSpace() {
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += size
	}
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

// next reads one token at p.pos, which must not be whitespace or end of input.
func (p *parser) next() (item, *SyntaxError) {
	start := p.pos
	c := p.peek()

	switch {
	case c == '"':
		text, err := p.stringLiteral()
		if err != nil {
			return item{}, err
		}
		return item{kind: TokenString, start: start, end: p.pos, actions: expandString(text)}, nil

	case isIdentStart(c):
		name := p.ident()
		if p.peek() == '(' {
			return p.call(name, start)
		}
		if sig, ok := signatures[name]; ok {
			return item{}, p.errorf(p.pos, "expected '('").within(start, sig)
		}
		key, ok := keycodes.Canonical(name)
		if !ok {
			return item{}, p.errorf(start, "unknown key")
		}
		return item{kind: TokenKeyword, start: start, end: p.pos, actions: []protocol.Action{protocol.PressAndRelease(key)}}, nil
	}

	r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
	return item{}, p.errorf(start, "unexpected character '"+string(r)+"'")
}

func isIdentStart(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || '0' <= c && c <= '9'
}

func (p *parser) ident() string {
	start := p.pos
	for !p.eof() && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// number reads an optionally negative integer with '_' separators after digits.
func (p *parser) number() (int64, *SyntaxError) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	if c := p.peek(); c < '0' || c > '9' {
		return 0, p.errorf(p.pos, "expected digit")
	}
	for !p.eof() {
		c := p.src[p.pos]
		if (c < '0' || c > '9') && c != '_' {
			break
		}
		p.pos++
	}
	digits := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, p.errorf(start, "invalid integer")
	}
	return n, nil
}

// call parses the argument list of name(...) with p.pos on the '('.
func (p *parser) call(name string, start int) (item, *SyntaxError) {
	sig, known := signatures[name]
	if !known {
		return item{}, p.errorf(start, "unknown function")
	}
	context := "in call to " + name
	p.pos++ // '('

	var args []argument
	p.skipSpace()
	if p.peek() != ')' {
		for {
			p.skipSpace()
			arg := argument{offset: p.pos}
			switch c := p.peek(); {
			case isIdentStart(c):
				arg.ident = p.ident()
			case c == '-' || '0' <= c && c <= '9':
				n, err := p.number()
				if err != nil {
					return item{}, err.within(start, context)
				}
				arg.number, arg.isNum = n, true
			default:
				return item{}, p.errorf(p.pos, "expected key or number").within(start, context)
			}
			args = append(args, arg)
			p.skipSpace()
			if p.peek() != ',' {
				break
			}
			p.pos++
		}
	}
	if p.peek() != ')' {
		cause := "expected ')'"
		if p.eof() {
			cause += ", got end of input"
		}
		return item{}, p.errorf(p.pos, cause).within(start, context)
	}
	p.pos++

	it := item{kind: TokenFunctionCall, start: start, end: p.pos}
	if len(args) != 1 {
		return item{}, p.errorf(start, sig)
	}
	arg := args[0]

	if name == "delay" {
		if !arg.isNum {
			return item{}, p.errorf(start, sig)
		}
		it.actions = []protocol.Action{protocol.Delay(arg.number)}
		return it, nil
	}

	if arg.isNum {
		return item{}, p.errorf(start, sig)
	}
	key, ok := keycodes.Canonical(arg.ident)
	if !ok {
		return item{}, p.errorf(arg.offset, "unknown key").within(start, context)
	}
	if name == "press" {
		it.actions = []protocol.Action{protocol.Press(key)}
	} else {
		it.actions = []protocol.Action{protocol.Release(key)}
	}
	return it, nil
}
