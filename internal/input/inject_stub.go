//go:build !linux

package input

import (
	"autoclicker/internal/protocol"
)

// Stub implementation for non-Linux platforms

// UinputKeyboard represents a stub keyboard
type UinputKeyboard struct{}

// NewKeyboard always fails outside Linux
func NewKeyboard() (*UinputKeyboard, error) {
	return nil, ErrUnsupportedPlatform
}

func (k *UinputKeyboard) PressKey(code uint16) error   { return ErrUnsupportedPlatform }
func (k *UinputKeyboard) ReleaseKey(code uint16) error { return ErrUnsupportedPlatform }
func (k *UinputKeyboard) Close() error                 { return nil }

// UinputMouse represents a stub mouse
type UinputMouse struct{}

// NewMouse always fails outside Linux
func NewMouse() (*UinputMouse, error) {
	return nil, ErrUnsupportedPlatform
}

func (m *UinputMouse) MoveAbsolute(x, y *int32) error                { return ErrUnsupportedPlatform }
func (m *UinputMouse) MoveRelative(dx, dy *int32) error              { return ErrUnsupportedPlatform }
func (m *UinputMouse) ClickButton(button protocol.MouseButton) error { return ErrUnsupportedPlatform }
func (m *UinputMouse) Close() error                                  { return nil }
