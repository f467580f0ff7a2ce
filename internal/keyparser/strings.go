package keyparser

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"autoclicker/internal/keycodes"
	"autoclicker/internal/protocol"
)

// stringLiteral decodes a quoted literal starting at p.pos.
func (p *parser) stringLiteral() (string, *SyntaxError) {
	start := p.pos
	p.pos++ // opening quote

	var b strings.Builder
	for {
		if p.eof() {
			return "", p.errorf(len(p.src), `expected '"', got end of input`).within(start, "in string literal")
		}
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		switch r {
		case '"':
			p.pos += size
			return b.String(), nil
		case '\\':
			if err := p.escape(&b); err != nil {
				return "", err.within(start, "in string literal")
			}
		default:
			b.WriteRune(r)
			p.pos += size
		}
	}
}

func (p *parser) escape(b *strings.Builder) *SyntaxError {
	at := p.pos
	p.pos++ // backslash
	if p.eof() {
		return p.errorf(at, "unterminated escape")
	}

	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	if unicode.IsSpace(r) {
		p.skipSpace()
		return nil
	}
	p.pos += size

	switch r {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case '"', '\\', '/':
		b.WriteRune(r)
	case 'u':
		cp, err := p.unicodeEscape(at)
		if err != nil {
			return err
		}
		b.WriteRune(cp)
	default:
		return p.errorf(at, "unknown escape '\\"+string(r)+"'")
	}
	return nil
}

// unicodeEscape reads the {HEX} part of \u{HEX}.
func (p *parser) unicodeEscape(at int) (rune, *SyntaxError) {
	if p.eof() || p.src[p.pos] != '{' {
		return 0, p.errorf(p.pos, "expected '{'").within(at, "in unicode escape")
	}
	p.pos++
	digits := p.pos
	for !p.eof() && isHex(p.src[p.pos]) {
		p.pos++
	}
	hex := p.src[digits:p.pos]
	if p.eof() || p.src[p.pos] != '}' {
		return 0, p.errorf(p.pos, "expected '}'").within(at, "in unicode escape")
	}
	p.pos++

	if len(hex) == 0 || len(hex) > 6 {
		return 0, p.errorf(at, "invalid unicode escape")
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, p.errorf(at, "invalid unicode escape")
	}
	return rune(v), nil
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

var unshifted = map[rune]string{
	'-':  "KEY_MINUS",
	'=':  "KEY_EQUAL",
	'\t': "KEY_TAB",
	'[':  "KEY_LEFTBRACE",
	']':  "KEY_RIGHTBRACE",
	'\n': "KEY_ENTER",
	';':  "KEY_SEMICOLON",
	'\'': "KEY_APOSTROPHE",
	'`':  "KEY_GRAVE",
	'\\': "KEY_BACKSLASH",
	',':  "KEY_COMMA",
	'.':  "KEY_DOT",
	'/':  "KEY_SLASH",
	' ':  "KEY_SPACE",
}

var shifted = map[rune]string{
	'_': "KEY_MINUS",
	'+': "KEY_EQUAL",
	'{': "KEY_LEFTBRACE",
	'}': "KEY_RIGHTBRACE",
	':': "KEY_SEMICOLON",
	'"': "KEY_APOSTROPHE",
	'~': "KEY_GRAVE",
	'|': "KEY_BACKSLASH",
	'<': "KEY_COMMA",
	'>': "KEY_DOT",
	'?': "KEY_SLASH",
	'!': "KEY_1",
	'@': "KEY_2",
	'#': "KEY_3",
	'$': "KEY_4",
	'%': "KEY_5",
	'^': "KEY_6",
	'&': "KEY_7",
	'*': "KEY_8",
	'(': "KEY_9",
	')': "KEY_0",
}

// expandString turns decoded literal text into actions. Characters with no
// key mapping are dropped.
func expandString(text string) []protocol.Action {
	var actions []protocol.Action
	for _, r := range text {
		switch {
		case r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			actions = append(actions, protocol.PressAndRelease(keycodes.Prefix+strings.ToUpper(string(r))))
		case unshifted[r] != "":
			actions = append(actions, protocol.PressAndRelease(unshifted[r]))
		case shifted[r] != "":
			key := shifted[r]
			actions = append(actions,
				protocol.Press("KEY_LEFTSHIFT"),
				protocol.Press(key),
				protocol.Release("KEY_LEFTSHIFT"),
				protocol.Release(key),
			)
		}
	}
	return actions
}
