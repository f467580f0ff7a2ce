// Package input provides the virtual keyboard and mouse the daemon drives.
package input

import (
	"errors"

	"autoclicker/internal/protocol"
)

// ErrUnsupportedPlatform is returned by device constructors outside Linux
var ErrUnsupportedPlatform = errors.New("virtual input devices are only supported on linux")

// Keyboard presses and releases keys by evdev code
type Keyboard interface {
	PressKey(code uint16) error
	ReleaseKey(code uint16) error
}

// Mouse moves the pointer and clicks buttons. A nil axis in MoveAbsolute is
// left where it is.
type Mouse interface {
	MoveAbsolute(x, y *int32) error
	ClickButton(button protocol.MouseButton) error
}

// RelativeMouse is implemented by mice that can also move by an offset
type RelativeMouse interface {
	Mouse
	MoveRelative(dx, dy *int32) error
}

// Device is a virtual device that must be destroyed on shutdown
type Device interface {
	Close() error
}

// Evdev codes used by the devices
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02

	synReport = 0

	relX = 0x00
	relY = 0x01

	btnLeft   = 0x110
	btnRight  = 0x111
	btnMiddle = 0x112
)

// ButtonCode maps a protocol button to its evdev BTN_* code.
func ButtonCode(b protocol.MouseButton) (uint16, error) {
	switch b {
	case protocol.ButtonLeft:
		return btnLeft, nil
	case protocol.ButtonRight:
		return btnRight, nil
	case protocol.ButtonMiddle:
		return btnMiddle, nil
	}
	return 0, errors.New("unknown mouse button: " + string(b))
}
