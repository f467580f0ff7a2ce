package keyparser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"autoclicker/internal/protocol"
)

// Format renders actions in canonical source form, one token per action,
// so that Parse(Format(a)) yields a again.
func Format(actions []protocol.Action) string {
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		switch a.Kind {
		case protocol.ActionPressAndRelease:
			parts = append(parts, a.Key)
		case protocol.ActionPress:
			parts = append(parts, "press("+a.Key+")")
		case protocol.ActionRelease:
			parts = append(parts, "release("+a.Key+")")
		case protocol.ActionDelay:
			parts = append(parts, "delay("+strconv.FormatInt(a.Delay, 10)+")")
		}
	}
	return strings.Join(parts, " ")
}

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiCyan   = "\x1b[36m"
	ansiYellow = "\x1b[33m"
)

var tokenColors = map[TokenKind]string{
	TokenString:       ansiGreen,
	TokenKeyword:      ansiCyan,
	TokenFunctionCall: ansiYellow,
}

// Highlight writes src to w with ANSI colors per token kind. Unknown tokens
// and whitespace are written unchanged.
func Highlight(w io.Writer, src string) error {
	var b strings.Builder
	last := 0
	for _, tok := range Tokenize(src) {
		b.WriteString(src[last:tok.Start])
		if color, ok := tokenColors[tok.Kind]; ok {
			b.WriteString(color)
			b.WriteString(tok.Text(src))
			b.WriteString(ansiReset)
		} else {
			b.WriteString(tok.Text(src))
		}
		last = tok.End
	}
	b.WriteString(src[last:])

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("highlight: %w", err)
	}
	return nil
}
