package main

import (
	"errors"
	"fmt"

	"autoclicker/internal/config"
	"autoclicker/internal/input"
	"autoclicker/internal/osutils"
)

// devices holds whatever virtual devices the settings enable. A disabled
// subsystem leaves its field nil.
type devices struct {
	keyboard input.Keyboard
	mouse    input.Mouse
	closers  []input.Device
}

func (d *devices) Close() error {
	var errs []error
	for _, c := range d.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func openDevices(settings config.DaemonConfig, dry bool) (*devices, error) {
	d := &devices{}

	if dry {
		log.Infof("dry run: no devices will be created")
		fake := input.NewDryRun(nil)
		if !settings.Keyboard.Disabled {
			d.keyboard = fake
		}
		if !settings.Mouse.Disabled {
			d.mouse = fake
		}
		return d, nil
	}

	if !osutils.CanWrite(osutils.UinputPath) {
		in, err := osutils.IsUserInGroup(osutils.InputGroup)
		switch {
		case err != nil:
			log.Warnf("cannot write %s: %v", osutils.UinputPath, err)
		case !in:
			log.Warnf("cannot write %s; add yourself to the %q group (autoclicker service --group) and log in again",
				osutils.UinputPath, osutils.InputGroup)
		}
	}

	if !settings.Keyboard.Disabled {
		kb, err := input.NewKeyboard()
		if err != nil {
			return nil, fmt.Errorf("could not create virtual keyboard: %w", err)
		}
		d.keyboard = kb
		d.closers = append(d.closers, kb)
	}

	if !settings.Mouse.Disabled {
		m, err := input.NewMouse()
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("could not create virtual mouse: %w", err)
		}
		d.closers = append(d.closers, m)

		if settings.HyprlandIPC && osutils.IsHyprland() {
			log.Debugf("correcting mouse moves through Hyprland IPC")
			d.mouse = input.NewHyprlandMouse(m, nil)
		} else {
			d.mouse = m
		}
	}
	return d, nil
}
