package daemon

import (
	"context"
	"testing"

	"autoclicker/internal/config"
	"autoclicker/internal/logging"
	"autoclicker/internal/protocol"
)

type fakeSink struct {
	got []protocol.Message
	err error
}

func (s *fakeSink) Submit(_ context.Context, msg protocol.Message) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, msg)
	return nil
}

func newTestHandler(settings config.DaemonConfig) (*Handler, *fakeSink) {
	sink := &fakeSink{}
	h := NewHandler(sink, func() config.DaemonConfig { return settings })
	h.log = logging.Discard()
	return h, sink
}

// TestHandle tests validation and replies for each kind of payload
func TestHandle(t *testing.T) {
	mouseOff := config.DefaultConfig().Daemon
	mouseOff.Mouse.Disabled = true
	keyboardOff := config.DefaultConfig().Daemon
	keyboardOff.Keyboard.Disabled = true

	tests := []struct {
		name      string
		settings  config.DaemonConfig
		payload   string
		wantError string
	}{
		{"mouse", config.DaemonConfig{}, `{"type":"RepeatingMouseClick","button":"left","typ":"single","amount":0,"interval":100,"position":[null,null]}`, ""},
		{"keyboard", config.DaemonConfig{}, `{"type":"RepeatingKeyboardClick","buttons":[{"PressAndRelease":"KEY_A"}],"amount":1,"interval":10,"delay_before_repeat":0,"hold_duration":0}`, ""},
		{"stop", config.DaemonConfig{}, `{"type":"StopClicking"}`, ""},
		{"stop with mouse disabled", mouseOff, `{"type":"StopClicking"}`, ""},
		{"mouse disabled", mouseOff, `{"type":"RepeatingMouseClick","button":"left","typ":"single","amount":0,"interval":100,"position":[null,null]}`, MsgMouseDisabled},
		{"keyboard disabled", keyboardOff, `{"type":"RepeatingKeyboardClick","buttons":[{"Press":"KEY_A"}],"amount":1,"interval":10,"delay_before_repeat":0,"hold_duration":0}`, MsgKeyboardDisabled},
		{"bad button", config.DaemonConfig{}, `{"type":"RepeatingMouseClick","button":"back","typ":"single","amount":0,"interval":100,"position":[null,null]}`, MsgInvalidButton},
		{"bad click type", config.DaemonConfig{}, `{"type":"RepeatingMouseClick","button":"left","typ":"triple","amount":0,"interval":100,"position":[null,null]}`, MsgInvalidClickType},
		{"empty sequence", config.DaemonConfig{}, `{"type":"RepeatingKeyboardClick","buttons":[],"amount":1,"interval":10,"delay_before_repeat":0,"hold_duration":0}`, MsgEmptySequence},
		{"response", config.DaemonConfig{}, `{"type":"ConfirmResponse"}`, MsgInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, sink := newTestHandler(tt.settings)
			reply, err := protocol.Decode(h.Handle(context.Background(), []byte(tt.payload)))
			if err != nil {
				t.Fatalf("reply does not decode: %v", err)
			}

			if tt.wantError == "" {
				if _, ok := reply.(protocol.ConfirmResponse); !ok {
					t.Fatalf("reply = %#v, want ConfirmResponse", reply)
				}
				if len(sink.got) != 1 {
					t.Errorf("submitted %d messages, want 1", len(sink.got))
				}
				return
			}

			e, ok := reply.(protocol.ErrorResponse)
			if !ok || e.Msg != tt.wantError {
				t.Errorf("reply = %#v, want Error %q", reply, tt.wantError)
			}
			if len(sink.got) != 0 {
				t.Errorf("rejected request was submitted: %v", sink.got)
			}
		})
	}
}

// TestHandleMalformed tests that undecodable payloads become Error replies
func TestHandleMalformed(t *testing.T) {
	for _, payload := range []string{"", "not json", `{"amount":1}`, `{"type":"Teleport"}`} {
		h, sink := newTestHandler(config.DaemonConfig{})
		reply := h.HandleMessage(context.Background(), []byte(payload))
		if _, ok := reply.(protocol.ErrorResponse); !ok {
			t.Errorf("HandleMessage(%q) = %#v, want ErrorResponse", payload, reply)
		}
		if len(sink.got) != 0 {
			t.Errorf("HandleMessage(%q) submitted %v", payload, sink.got)
		}
	}
}

// TestHandleSubmitError tests that a failing engine is reported to the client
func TestHandleSubmitError(t *testing.T) {
	h, sink := newTestHandler(config.DaemonConfig{})
	sink.err = context.DeadlineExceeded

	reply := h.HandleMessage(context.Background(), []byte(`{"type":"StopClicking"}`))
	e, ok := reply.(protocol.ErrorResponse)
	if !ok || e.Msg != context.DeadlineExceeded.Error() {
		t.Errorf("reply = %#v", reply)
	}
}

// TestHandleReadsSettingsPerRequest tests that settings changes apply immediately
func TestHandleReadsSettingsPerRequest(t *testing.T) {
	settings := config.DaemonConfig{}
	sink := &fakeSink{}
	h := NewHandler(sink, func() config.DaemonConfig { return settings })
	h.log = logging.Discard()

	payload := []byte(`{"type":"RepeatingMouseClick","button":"left","typ":"single","amount":0,"interval":100,"position":[null,null]}`)
	if _, ok := h.HandleMessage(context.Background(), payload).(protocol.ConfirmResponse); !ok {
		t.Fatal("Expected first request to be accepted")
	}

	settings.Mouse.Disabled = true
	reply := h.HandleMessage(context.Background(), payload)
	if e, ok := reply.(protocol.ErrorResponse); !ok || e.Msg != MsgMouseDisabled {
		t.Errorf("reply = %#v, want mouse disabled", reply)
	}
}
