package protocol

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tidwall/gjson"
)

// TestRoundTrip tests that Decode(Encode(m)) == m for every variant
func TestRoundTrip(t *testing.T) {
	x := int32(-20)
	messages := []Message{
		RepeatingMouseClick{Button: ButtonLeft, ClickType: ClickSingle, Amount: 3, Interval: 100},
		RepeatingMouseClick{Button: ButtonMiddle, ClickType: ClickDouble, Position: At(640, 480), Interval: 5},
		RepeatingMouseClick{Button: ButtonRight, ClickType: ClickSingle, Position: Position{X: &x}},
		RepeatingKeyboardClick{
			Actions: []Action{
				PressAndRelease("KEY_A"),
				Press("KEY_LEFTSHIFT"),
				Delay(-5),
				Release("KEY_LEFTSHIFT"),
			},
			Amount:            10,
			Interval:          50,
			DelayBeforeRepeat: 1000,
			HoldDuration:      20,
		},
		RepeatingKeyboardClick{},
		StopClicking{},
		ConfirmResponse{},
		ErrorResponse{Msg: "mouse virtualization has been disabled in the configs"},
	}

	for _, m := range messages {
		data := Encode(m)
		if got := gjson.GetBytes(data, "type").String(); got != string(m.Type()) {
			t.Errorf("Encode(%#v) tag = %q, want %q", m, got, m.Type())
		}
		back, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode(%s) error: %v", data, err)
		}
		if !reflect.DeepEqual(back, m) {
			t.Errorf("Decode(Encode(m)) = %#v, want %#v", back, m)
		}
	}
}

// TestDecodeWireFormat tests decoding payloads as the daemon receives them
func TestDecodeWireFormat(t *testing.T) {
	data := []byte(`{"type":"RepeatingKeyboardClick","buttons":[{"PressAndRelease":"KEY_A"},{"Delay":50}],"amount":0,"interval":10,"delay_before_repeat":0,"hold_duration":20}`)
	m, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	kb, ok := m.(RepeatingKeyboardClick)
	if !ok {
		t.Fatalf("Decode returned %T, want RepeatingKeyboardClick", m)
	}
	want := []Action{PressAndRelease("KEY_A"), Delay(50)}
	if !reflect.DeepEqual(kb.Actions, want) {
		t.Errorf("Actions = %v, want %v", kb.Actions, want)
	}
	if kb.HoldDuration != 20 || kb.Interval != 10 {
		t.Errorf("durations = %d/%d, want 20/10", kb.HoldDuration, kb.Interval)
	}

	mouse := []byte(`{"type":"RepeatingMouseClick","button":"left","typ":"double","amount":1,"interval":5,"position":[null,7]}`)
	m, err = Decode(mouse)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	mc := m.(RepeatingMouseClick)
	if mc.Position.X != nil || mc.Position.Y == nil || *mc.Position.Y != 7 {
		t.Errorf("Position = %+v, want [null,7]", mc.Position)
	}
	if mc.ClickType != ClickDouble {
		t.Errorf("ClickType = %q, want double", mc.ClickType)
	}
}

// TestDecodeErrors tests the typed decode errors
func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"not json", `{"type":`, ErrMalformed},
		{"array", `[1,2]`, ErrMalformed},
		{"no tag", `{"msg":"x"}`, ErrMissingTag},
		{"numeric tag", `{"type":5}`, ErrMalformed},
		{"unknown tag", `{"type":"Reboot"}`, ErrUnknownTag},
		{"bad field type", `{"type":"RepeatingMouseClick","amount":"many"}`, ErrMalformed},
		{"bad action", `{"type":"RepeatingKeyboardClick","buttons":[{"Tap":"KEY_A"}]}`, ErrUnknownAction},
		{"two field action", `{"type":"RepeatingKeyboardClick","buttons":[{"Press":"KEY_A","Release":"KEY_A"}]}`, ErrMalformed},
		{"float delay", `{"type":"RepeatingKeyboardClick","buttons":[{"Delay":1.5}]}`, ErrMalformed},
		{"short position", `{"type":"RepeatingMouseClick","position":[1]}`, ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeString(tt.data)
			if err == nil {
				t.Fatalf("DecodeString(%q) succeeded, want error", tt.data)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("error %T is not *DecodeError", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeString(%q) = %v, want %v", tt.data, err, tt.want)
			}
		})
	}
}

// TestIsRequest tests which variants count as requests
func TestIsRequest(t *testing.T) {
	tests := []struct {
		m    Message
		want bool
	}{
		{RepeatingMouseClick{}, true},
		{RepeatingKeyboardClick{}, true},
		{StopClicking{}, true},
		{ConfirmResponse{}, false},
		{ErrorResponse{}, false},
	}
	for _, tt := range tests {
		if got := IsRequest(tt.m); got != tt.want {
			t.Errorf("IsRequest(%T) = %v, want %v", tt.m, got, tt.want)
		}
	}
}

// TestEnumsValid tests button and click type validation
func TestEnumsValid(t *testing.T) {
	if !ButtonMiddle.Valid() || MouseButton("back").Valid() {
		t.Error("MouseButton.Valid mismatch")
	}
	if !ClickDouble.Valid() || ClickType("triple").Valid() {
		t.Error("ClickType.Valid mismatch")
	}
}

// TestNullPosition tests that a null position decodes as unset
func TestNullPosition(t *testing.T) {
	m, err := DecodeString(`{"type":"RepeatingMouseClick","button":"left","typ":"single","position":null}`)
	if err != nil {
		t.Fatalf("DecodeString error: %v", err)
	}
	if !m.(RepeatingMouseClick).Position.IsZero() {
		t.Error("null position should decode to zero Position")
	}
}
