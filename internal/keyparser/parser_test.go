package keyparser

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"autoclicker/internal/protocol"
)

// TestParse tests compiling valid sequences
func TestParse(t *testing.T) {
	tests := []struct {
		src  string
		want []protocol.Action
	}{
		{"A B", []protocol.Action{protocol.PressAndRelease("KEY_A"), protocol.PressAndRelease("KEY_B")}},
		{"press(Space)", []protocol.Action{protocol.Press("KEY_SPACE")}},
		{"release( leftshift )", []protocol.Action{protocol.Release("KEY_LEFTSHIFT")}},
		{"\"a\\n\"", []protocol.Action{protocol.PressAndRelease("KEY_A"), protocol.PressAndRelease("KEY_ENTER")}},
		{"KEY_1 f12", []protocol.Action{protocol.PressAndRelease("KEY_1"), protocol.PressAndRelease("KEY_F12")}},
		{"delay(1_000) delay(-234)", []protocol.Action{protocol.Delay(1000), protocol.Delay(-234)}},
		{"Space\"x\"Tab", []protocol.Action{
			protocol.PressAndRelease("KEY_SPACE"),
			protocol.PressAndRelease("KEY_X"),
			protocol.PressAndRelease("KEY_TAB"),
		}},
		{"\"A!\"", []protocol.Action{
			protocol.PressAndRelease("KEY_A"),
			protocol.Press("KEY_LEFTSHIFT"),
			protocol.Press("KEY_1"),
			protocol.Release("KEY_LEFTSHIFT"),
			protocol.Release("KEY_1"),
		}},
		{"\"é€\"", []protocol.Action{}},
		{"Space Tab \"a\\n \\t \\\\ \\\"test\" delay(2)", []protocol.Action{
			protocol.PressAndRelease("KEY_SPACE"),
			protocol.PressAndRelease("KEY_TAB"),
			protocol.PressAndRelease("KEY_A"),
			protocol.PressAndRelease("KEY_ENTER"),
			protocol.PressAndRelease("KEY_SPACE"),
			protocol.PressAndRelease("KEY_TAB"),
			protocol.PressAndRelease("KEY_SPACE"),
			protocol.PressAndRelease("KEY_BACKSLASH"),
			protocol.PressAndRelease("KEY_SPACE"),
			protocol.Press("KEY_LEFTSHIFT"),
			protocol.Press("KEY_APOSTROPHE"),
			protocol.Release("KEY_LEFTSHIFT"),
			protocol.Release("KEY_APOSTROPHE"),
			protocol.PressAndRelease("KEY_T"),
			protocol.PressAndRelease("KEY_E"),
			protocol.PressAndRelease("KEY_S"),
			protocol.PressAndRelease("KEY_T"),
			protocol.Delay(2),
		}},
	}

	for _, tt := range tests {
		got, err := Parse(tt.src)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tt.src, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Parse(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}

// TestParseErrors tests diagnostics and their positions
func TestParseErrors(t *testing.T) {
	tests := []struct {
		src    string
		cause  string
		line   int
		column int
	}{
		{"Foo", "unknown key", 1, 1},
		{"A\n  Foo", "unknown key", 2, 3},
		{"", "empty key sequence", 1, 1},
		{"  \n ", "empty key sequence", 1, 1},
		{"press(Space,X)", "press is defined as: `press(key)`", 1, 1},
		{"Space press(Space, X)", "press is defined as: `press(key)`", 1, 7},
		{"release(5)", "release is defined as: `release(key)`", 1, 1},
		{"delay(1, 2)", "delay is defined as: `delay(number)`", 1, 1},
		{"delay(A)", "delay is defined as: `delay(number)`", 1, 1},
		{"delay()", "delay is defined as: `delay(number)`", 1, 1},
		{"delay(99999999999999999999)", "invalid integer", 1, 7},
		{"not_a_func(Space)", "unknown function", 1, 1},
		{"press Space", "expected '('", 1, 6},
		{"press(Foo)", "unknown key", 1, 7},
		{"press(A", "expected ')', got end of input", 1, 8},
		{"Space Tab move dely", "unknown key", 1, 16},
		{"Space Tab \"this is another test", `expected '"', got end of input`, 1, 32},
		{"\"this \\h is\"", "unknown escape '\\h'", 1, 7},
		{"\"\\u{110000}\"", "invalid unicode escape", 1, 2},
		{"\"\\u{}\"", "invalid unicode escape", 1, 2},
		{"5", "unexpected character '5'", 1, 1},
	}

	for _, tt := range tests {
		_, err := Parse(tt.src)
		if err == nil {
			t.Errorf("Parse(%q) succeeded, want error %q", tt.src, tt.cause)
			continue
		}
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("Parse(%q) error %T is not *SyntaxError", tt.src, err)
			continue
		}
		if se.Cause() != tt.cause {
			t.Errorf("Parse(%q) cause = %q, want %q", tt.src, se.Cause(), tt.cause)
		}
		if se.Line() != tt.line || se.Column() != tt.column {
			t.Errorf("Parse(%q) at %d:%d, want %d:%d", tt.src, se.Line(), se.Column(), tt.line, tt.column)
		}
	}
}

// TestSyntaxErrorRendering tests the rendered error text
func TestSyntaxErrorRendering(t *testing.T) {
	_, err := Parse("Foo")
	want := "error: unknown key\nline:column 1:1\nFoo\n"
	if err == nil || err.Error() != want {
		t.Errorf("Parse(Foo) error = %q, want %q", err, want)
	}

	_, err = Parse("A\npress(Bogus)  \nB")
	want = "error: unknown key\nline:column 2:7\npress(Bogus)\n" +
		"\nerror: in call to press\nline:column 2:1\npress(Bogus)\n"
	if err == nil || err.Error() != want {
		t.Errorf("nested error = %q, want %q", err, want)
	}

	_, err = Parse("")
	if err == nil || err.Error() != "error: empty key sequence\n" {
		t.Errorf("empty error = %q", err)
	}
}

// TestStringLiteral tests escapes inside quoted strings
func TestStringLiteral(t *testing.T) {
	src := "\"tab:\\tafter tab, newline:\\nnew line, quote: \\\", emoji: \\u{1F602}, newline:\\nescaped whitespace: \\    abc\""
	p := &parser{src: src}
	got, err := p.stringLiteral()
	if err != nil {
		t.Fatalf("stringLiteral error: %v", err)
	}
	want := "tab:\tafter tab, newline:\nnew line, quote: \", emoji: \U0001F602, newline:\nescaped whitespace: abc"
	if got != want {
		t.Errorf("stringLiteral = %q, want %q", got, want)
	}
	if p.pos != len(src) {
		t.Errorf("stringLiteral consumed %d bytes, want %d", p.pos, len(src))
	}

	for _, bad := range []string{"\"unterminated", "\"bad \\h escape\"", "\"\\u{zz}\"", "\"dangling \\"} {
		p := &parser{src: bad}
		if _, err := p.stringLiteral(); err == nil {
			t.Errorf("stringLiteral(%q) succeeded, want error", bad)
		}
	}
}

// TestFormatRoundTrip tests that Format output parses back to the same actions
func TestFormatRoundTrip(t *testing.T) {
	sources := []string{
		"A B",
		"Space \"Hi there!\" press(LeftCtrl) c release(leftctrl) delay(-5) delay(1_0)",
		"\"1+1=2\\n\"",
		"KEY_F24 press(KEY_RIGHTMETA) release(RightMeta)",
	}

	for _, src := range sources {
		actions := MustParse(src)
		formatted := Format(actions)
		again, err := Parse(formatted)
		if err != nil {
			t.Fatalf("Parse(Format(%q)) = %q: %v", src, formatted, err)
		}
		if !reflect.DeepEqual(again, actions) {
			t.Errorf("Parse(Format(%q)) = %v, want %v", src, again, actions)
		}
	}

	got := Format([]protocol.Action{
		protocol.PressAndRelease("KEY_A"),
		protocol.Press("KEY_X"),
		protocol.Release("KEY_X"),
		protocol.Delay(50),
	})
	if want := "KEY_A press(KEY_X) release(KEY_X) delay(50)"; got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
}

// TestTokenize tests tolerant tokenization with unknown tokens
func TestTokenize(t *testing.T) {
	src := `Space "ab" press(A) Foo (x) "open`
	want := []Token{
		{TokenKeyword, 0, 5},
		{TokenString, 6, 10},
		{TokenFunctionCall, 11, 19},
		{TokenUnknown, 20, 23},
		{TokenUnknown, 24, 27},
		{TokenUnknown, 28, 33},
	}
	got := Tokenize(src)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize(%q) = %v, want %v", src, got, want)
	}

	if toks := Tokenize("   "); len(toks) != 0 {
		t.Errorf("Tokenize(blank) = %v, want none", toks)
	}
}

// TestHighlight tests ANSI colouring of recognized tokens
func TestHighlight(t *testing.T) {
	var buf bytes.Buffer
	if err := Highlight(&buf, `A "b" Foo`); err != nil {
		t.Fatalf("Highlight error: %v", err)
	}
	want := ansiCyan + "A" + ansiReset + " " + ansiGreen + `"b"` + ansiReset + " Foo"
	if buf.String() != want {
		t.Errorf("Highlight = %q, want %q", buf.String(), want)
	}
}
