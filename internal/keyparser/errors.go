package keyparser

import (
	"fmt"
	"strings"
	"unicode"
)

// Frame is one entry of a diagnostic: a cause anchored at a byte offset.
type Frame struct {
	Offset int
	Cause  string
}

// SyntaxError reports why a key sequence could not be compiled. Frames are
// ordered innermost first; later frames add context such as the enclosing call.
type SyntaxError struct {
	Source string
	Frames []Frame
}

func newSyntaxError(src string, offset int, cause string) *SyntaxError {
	return &SyntaxError{Source: src, Frames: []Frame{{Offset: offset, Cause: cause}}}
}

func (e *SyntaxError) within(offset int, context string) *SyntaxError {
	e.Frames = append(e.Frames, Frame{Offset: offset, Cause: context})
	return e
}

// Cause returns the innermost cause.
func (e *SyntaxError) Cause() string {
	if len(e.Frames) == 0 {
		return ""
	}
	return e.Frames[0].Cause
}

// Line returns the 1-based line of the innermost frame.
func (e *SyntaxError) Line() int {
	if len(e.Frames) == 0 {
		return 0
	}
	line, _, _ := locate(e.Source, e.Frames[0].Offset)
	return line
}

// Column returns the 1-based byte column of the innermost frame.
func (e *SyntaxError) Column() int {
	if len(e.Frames) == 0 {
		return 0
	}
	_, col, _ := locate(e.Source, e.Frames[0].Offset)
	return col
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	blank := strings.TrimSpace(e.Source) == ""
	for i, f := range e.Frames {
		if i > 0 {
			b.WriteByte('\n')
		}
		if blank {
			fmt.Fprintf(&b, "error: %s\n", f.Cause)
			continue
		}
		line, col, text := locate(e.Source, f.Offset)
		fmt.Fprintf(&b, "error: %s\nline:column %d:%d\n%s\n", f.Cause, line, col, text)
	}
	return b.String()
}

// locate converts a byte offset into a line number, column and the text of
// that line without trailing whitespace.
func locate(src string, offset int) (line, col int, text string) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(src) {
		offset = len(src)
	}
	prefix := src[:offset]
	line = strings.Count(prefix, "\n") + 1
	begin := strings.LastIndexByte(prefix, '\n') + 1
	end := strings.IndexByte(src[begin:], '\n')
	if end < 0 {
		end = len(src)
	} else {
		end += begin
	}
	text = strings.TrimRightFunc(src[begin:end], unicode.IsSpace)
	col = offset - begin + 1
	return line, col, text
}
