package tray

import (
	"context"
	"fmt"
	"sync"
	"time"

	"autoclicker/internal/config"
	"autoclicker/internal/logging"
	"autoclicker/internal/network"
	"autoclicker/internal/protocol"
)

const requestTimeout = 5 * time.Second

// Mode is what the tray last asked the daemon to do
type Mode int

const (
	Idle Mode = iota
	ClickingMouse
	ClickingKeyboard
)

func (m Mode) String() string {
	switch m {
	case ClickingMouse:
		return "clicking mouse"
	case ClickingKeyboard:
		return "typing keys"
	default:
		return "idle"
	}
}

// Controller sends the saved profiles to the daemon. It holds no systray
// state so the menu wiring stays thin.
type Controller struct {
	sender  network.Sender
	profile func() config.ProfileConfig
	log     *logging.Logger

	mu       sync.Mutex
	mode     Mode
	onChange func(Mode)
}

// NewController creates a controller reading profiles through profile.
func NewController(sender network.Sender, profile func() config.ProfileConfig) *Controller {
	return &Controller{
		sender:  sender,
		profile: profile,
		log:     logging.New("Tray"),
	}
}

// OnChange registers fn to be called after every successful mode change.
func (c *Controller) OnChange(fn func(Mode)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Mode returns the last mode acknowledged by the daemon
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) send(msg protocol.Message, next Mode) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := c.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("%s rejected: %w", msg.Type(), err)
	}

	c.mu.Lock()
	c.mode = next
	fn := c.onChange
	c.mu.Unlock()

	c.log.Infof("now %s", next)
	if fn != nil {
		fn(next)
	}
	return nil
}

// StartMouse starts the saved mouse profile
func (c *Controller) StartMouse() error {
	req, err := c.profile().Mouse.Request()
	if err != nil {
		return fmt.Errorf("mouse profile: %w", err)
	}
	return c.send(req, ClickingMouse)
}

// StartKeyboard starts the saved keyboard profile
func (c *Controller) StartKeyboard() error {
	req, err := c.profile().Keyboard.Request()
	if err != nil {
		return fmt.Errorf("keyboard profile: %w", err)
	}
	return c.send(req, ClickingKeyboard)
}

// Stop stops clicking
func (c *Controller) Stop() error {
	return c.send(protocol.StopClicking{}, Idle)
}

// Toggle stops when something is running and starts the mouse profile otherwise.
func (c *Controller) Toggle() error {
	if c.Mode() != Idle {
		return c.Stop()
	}
	return c.StartMouse()
}

// logged adapts fn to a menu callback. Menu clicks have no caller to
// return to, so failures go to the log.
func (c *Controller) logged(fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			c.log.Errorf("%v", err)
		}
	}
}

// Build adds the controller's entries to t.
func (c *Controller) Build(t *Tray) {
	t.AddMenuItem("Toggle clicking", "Stop if running, otherwise start the mouse profile", c.logged(c.Toggle))
	mouseID := t.AddMenuItem("Start mouse", "Click with the saved mouse profile", c.logged(c.StartMouse))
	keyboardID := t.AddMenuItem("Start keyboard", "Type the saved key sequence", c.logged(c.StartKeyboard))
	t.AddMenuItem("Stop", "Stop clicking and release held keys", c.logged(c.Stop))
	t.AddSeparator()
	t.AddMenuItem("Quit", "", t.Stop)

	c.OnChange(func(m Mode) {
		t.SetItemChecked(mouseID, m == ClickingMouse)
		t.SetItemChecked(keyboardID, m == ClickingKeyboard)
		t.SetTooltip("Autoclicker: " + m.String())
	})
}
