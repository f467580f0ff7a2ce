package keyparser

import (
	"unicode"
	"unicode/utf8"
)

// TokenKind categorizes a span of source for highlighting
type TokenKind uint8

const (
	TokenUnknown TokenKind = iota
	TokenString
	TokenKeyword
	TokenFunctionCall
)

func (k TokenKind) String() string {
	switch k {
	case TokenString:
		return "string"
	case TokenKeyword:
		return "keyword"
	case TokenFunctionCall:
		return "function-call"
	default:
		return "unknown"
	}
}

// Token is a byte range [Start, End) of the source.
type Token struct {
	Kind  TokenKind
	Start int
	End   int
}

// Text returns the token's source text.
func (t Token) Text(src string) string {
	return src[t.Start:t.End]
}

// Tokenize splits src into tokens without failing. Spans that do not form a
// valid token are reported as TokenUnknown running up to the next whitespace,
// and scanning resumes after them.
func Tokenize(src string) []Token {
	var tokens []Token
	p := &parser{src: src}
	for {
		p.skipSpace()
		if p.eof() {
			return tokens
		}

		start := p.pos
		it, err := p.next()
		if err == nil {
			tokens = append(tokens, Token{Kind: it.kind, Start: it.start, End: it.end})
			continue
		}

		p.pos = start
		p.skipToSpace()
		tokens = append(tokens, Token{Kind: TokenUnknown, Start: start, End: p.pos})
	}
}

// skipToSpace advances at least one rune, then up to the next whitespace.
func (p *parser) skipToSpace() {
	_, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if unicode.IsSpace(r) {
			return
		}
		p.pos += size
	}
}
