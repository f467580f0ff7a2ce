package config

import (
	"fmt"

	"autoclicker/internal/keyparser"
	"autoclicker/internal/protocol"
)

// ProfileConfig remembers the last parameters used by the front-ends so
// `autoclicker mouse` and the tray can start without flags.
type ProfileConfig struct {
	Mouse    MouseProfile    `toml:"mouse"`
	Keyboard KeyboardProfile `toml:"keyboard"`
}

// MouseProfile holds the parameters of a repeating mouse click
type MouseProfile struct {
	Button    string `toml:"button"`
	ClickType string `toml:"click_type"`
	Amount    uint64 `toml:"amount"`
	Interval  uint64 `toml:"interval"`
	X         int32  `toml:"x"`
	Y         int32  `toml:"y"`
	UseX      bool   `toml:"use_x"`
	UseY      bool   `toml:"use_y"`
}

// KeyboardProfile holds the parameters of a repeating key sequence
type KeyboardProfile struct {
	// Sequence is written in the key sequence language, e.g. `"hello" KEY_ENTER`
	Sequence          string `toml:"sequence"`
	Amount            uint64 `toml:"amount"`
	Interval          uint64 `toml:"interval"`
	DelayBeforeRepeat uint64 `toml:"delay_before_repeat"`
	HoldDuration      uint64 `toml:"hold_duration"`

	// EnterAfter appends an Enter press after the sequence
	EnterAfter bool `toml:"enter_after"`
}

// DefaultProfile returns the profile written to a fresh config file
func DefaultProfile() ProfileConfig {
	return ProfileConfig{
		Mouse: MouseProfile{
			Button:    string(protocol.ButtonLeft),
			ClickType: string(protocol.ClickSingle),
			Interval:  100,
		},
		Keyboard: KeyboardProfile{
			Sequence: "KEY_SPACE",
			Interval: 100,
		},
	}
}

// Request builds the message that starts this profile.
func (p MouseProfile) Request() (protocol.RepeatingMouseClick, error) {
	req := protocol.RepeatingMouseClick{
		Button:    protocol.MouseButton(p.Button),
		ClickType: protocol.ClickType(p.ClickType),
		Amount:    p.Amount,
		Interval:  p.Interval,
	}
	if !req.Button.Valid() {
		return req, fmt.Errorf("invalid mouse button %q", p.Button)
	}
	if !req.ClickType.Valid() {
		return req, fmt.Errorf("invalid click type %q", p.ClickType)
	}
	if p.UseX {
		x := p.X
		req.Position.X = &x
	}
	if p.UseY {
		y := p.Y
		req.Position.Y = &y
	}
	return req, nil
}

// Request compiles the sequence and builds the message that starts it.
func (p KeyboardProfile) Request() (protocol.RepeatingKeyboardClick, error) {
	actions, err := keyparser.Parse(p.Sequence)
	if err != nil {
		return protocol.RepeatingKeyboardClick{}, err
	}
	if p.EnterAfter {
		actions = append(actions, protocol.Press("KEY_ENTER"), protocol.Release("KEY_ENTER"))
	}
	return protocol.RepeatingKeyboardClick{
		Actions:           actions,
		Amount:            p.Amount,
		Interval:          p.Interval,
		DelayBeforeRepeat: p.DelayBeforeRepeat,
		HoldDuration:      p.HoldDuration,
	}, nil
}
