//go:build linux

package input

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"autoclicker/internal/keycodes"
	"autoclicker/internal/logging"
	"autoclicker/internal/osutils"
	"autoclicker/internal/protocol"
)

// ioctl requests from linux/uinput.h
const (
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565
	uiSetRelBit  = 0x40045566
	uiDevSetup   = 0x405c5503
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502

	busUSB    = 0x03
	vendorID  = 0xabcd
	productID = 0xefef

	uinputMaxNameSize = 80
)

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type uinputSetup struct {
	ID           inputID
	Name         [uinputMaxNameSize]byte
	FFEffectsMax uint32
}

type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// uinputDevice is an open /dev/uinput handle with a created device behind it.
type uinputDevice struct {
	mu   sync.Mutex
	fd   int
	name string
	log  *logging.Logger
}

func createDevice(name string, log *logging.Logger, configure func(fd int) error) (*uinputDevice, error) {
	fd, err := unix.Open(osutils.UinputPath, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", osutils.UinputPath, err)
	}

	if err := configure(fd); err != nil {
		unix.Close(fd)
		return nil, err
	}

	setup := uinputSetup{ID: inputID{Bustype: busUSB, Vendor: vendorID, Product: productID}}
	copy(setup.Name[:uinputMaxNameSize-1], name)
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uiDevSetup, uintptr(unsafe.Pointer(&setup))); errno != 0 {
		unix.Close(fd)
		return nil, fmt.Errorf("UI_DEV_SETUP: %w", errno)
	}
	if err := unix.IoctlSetInt(fd, uiDevCreate, 0); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("UI_DEV_CREATE: %w", err)
	}

	log.Infof("created %q", name)
	return &uinputDevice{fd: fd, name: name, log: log}, nil
}

func enable(fd int, req uint, codes ...uint16) error {
	for _, code := range codes {
		if err := unix.IoctlSetInt(fd, req, int(code)); err != nil {
			return fmt.Errorf("enable code %d: %w", code, err)
		}
	}
	return nil
}

// emit writes the events followed by a SYN_REPORT in a single write.
func (d *uinputDevice) emit(events ...inputEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var buf bytes.Buffer
	var tv unix.Timeval
	unix.Gettimeofday(&tv)
	for _, ev := range append(events, inputEvent{Type: evSyn, Code: synReport}) {
		ev.Time = tv
		if err := binary.Write(&buf, binary.NativeEndian, ev); err != nil {
			return err
		}
	}
	if _, err := unix.Write(d.fd, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", d.name, err)
	}
	return nil
}

// Close destroys the virtual device.
func (d *uinputDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return nil
	}
	unix.IoctlSetInt(d.fd, uiDevDestroy, 0)
	err := unix.Close(d.fd)
	d.fd = -1
	d.log.Infof("destroyed %q", d.name)
	return err
}

// UinputKeyboard is a virtual keyboard exposing every known key code.
type UinputKeyboard struct {
	*uinputDevice
}

// NewKeyboard creates "autoclicker virtual keyboard".
func NewKeyboard() (*UinputKeyboard, error) {
	log := logging.New("VKeyboard")
	dev, err := createDevice("autoclicker virtual keyboard", log, func(fd int) error {
		if err := enable(fd, uiSetEvBit, evKey, evSyn); err != nil {
			return err
		}
		return enable(fd, uiSetKeyBit, keycodes.Codes()...)
	})
	if err != nil {
		return nil, fmt.Errorf("could not create virtual keyboard: %w", err)
	}
	return &UinputKeyboard{dev}, nil
}

func (k *UinputKeyboard) PressKey(code uint16) error {
	return k.emit(inputEvent{Type: evKey, Code: code, Value: 1})
}

func (k *UinputKeyboard) ReleaseKey(code uint16) error {
	return k.emit(inputEvent{Type: evKey, Code: code, Value: 0})
}

// UinputMouse is a virtual relative pointer with three buttons.
type UinputMouse struct {
	*uinputDevice
}

// NewMouse creates "autoclicker virtual mouse".
func NewMouse() (*UinputMouse, error) {
	log := logging.New("VMouse")
	dev, err := createDevice("autoclicker virtual mouse", log, func(fd int) error {
		if err := enable(fd, uiSetEvBit, evKey, evRel, evSyn); err != nil {
			return err
		}
		if err := enable(fd, uiSetKeyBit, btnLeft, btnRight, btnMiddle); err != nil {
			return err
		}
		return enable(fd, uiSetRelBit, relX, relY)
	})
	if err != nil {
		return nil, fmt.Errorf("could not create virtual mouse: %w", err)
	}
	return &UinputMouse{dev}, nil
}

// MoveAbsolute pushes the pointer against the top-left corner on each set
// axis, then moves it out by the requested amount.
func (m *UinputMouse) MoveAbsolute(x, y *int32) error {
	if x == nil && y == nil {
		return nil
	}
	var corner []inputEvent
	if x != nil {
		corner = append(corner, inputEvent{Type: evRel, Code: relX, Value: math.MinInt32})
	}
	if y != nil {
		corner = append(corner, inputEvent{Type: evRel, Code: relY, Value: math.MinInt32})
	}
	if err := m.emit(corner...); err != nil {
		return err
	}
	return m.MoveRelative(x, y)
}

func (m *UinputMouse) MoveRelative(dx, dy *int32) error {
	var events []inputEvent
	if dx != nil {
		events = append(events, inputEvent{Type: evRel, Code: relX, Value: *dx})
	}
	if dy != nil {
		events = append(events, inputEvent{Type: evRel, Code: relY, Value: *dy})
	}
	if len(events) == 0 {
		return nil
	}
	return m.emit(events...)
}

func (m *UinputMouse) ClickButton(button protocol.MouseButton) error {
	code, err := ButtonCode(button)
	if err != nil {
		return err
	}
	if err := m.emit(inputEvent{Type: evKey, Code: code, Value: 1}); err != nil {
		return err
	}
	return m.emit(inputEvent{Type: evKey, Code: code, Value: 0})
}
