package input

import (
	"strconv"

	"autoclicker/internal/keycodes"
	"autoclicker/internal/logging"
	"autoclicker/internal/protocol"
)

// DryRun is a keyboard and mouse that only logs what it would have done.
type DryRun struct {
	log *logging.Logger
}

// NewDryRun creates a logging-only device.
func NewDryRun(log *logging.Logger) *DryRun {
	if log == nil {
		log = logging.New("DryRun")
	}
	return &DryRun{log: log}
}

func keyName(code uint16) string {
	if name, ok := keycodes.Name(code); ok {
		return name
	}
	return "code " + strconv.Itoa(int(code))
}

func (d *DryRun) PressKey(code uint16) error {
	d.log.Infof("press %s", keyName(code))
	return nil
}

func (d *DryRun) ReleaseKey(code uint16) error {
	d.log.Infof("release %s", keyName(code))
	return nil
}

func (d *DryRun) MoveAbsolute(x, y *int32) error {
	d.log.Infof("move to %s, %s", axis(x), axis(y))
	return nil
}

func (d *DryRun) MoveRelative(dx, dy *int32) error {
	d.log.Infof("move by %s, %s", axis(dx), axis(dy))
	return nil
}

func (d *DryRun) ClickButton(button protocol.MouseButton) error {
	if _, err := ButtonCode(button); err != nil {
		return err
	}
	d.log.Infof("click %s", button)
	return nil
}

func (d *DryRun) Close() error {
	return nil
}

func axis(v *int32) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(int(*v))
}
