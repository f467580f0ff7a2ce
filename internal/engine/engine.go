// Package engine executes click specifications against virtual devices.
//
// The engine holds exactly one active specification. A single goroutine
// (Run) owns all state and is the only caller of the devices; other
// goroutines interact with it through Submit and Status.
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"autoclicker/internal/input"
	"autoclicker/internal/keycodes"
	"autoclicker/internal/logging"
	"autoclicker/internal/protocol"
)

const (
	// DefaultPollInterval bounds how long the loop waits for a new message.
	DefaultPollInterval = 5 * time.Millisecond

	// DoubleClickPause separates the two clicks of a double click.
	DoubleClickPause = 50 * time.Millisecond

	inboxSize = 64
)

var (
	// ErrDevice wraps failures reported by a virtual device. Run stops on it.
	ErrDevice = errors.New("virtual device error")

	ErrNotRequest = errors.New("message is not a request")
)

// Policy holds extra delays added on top of every requested interval.
type Policy struct {
	MouseExtraDelay    time.Duration
	KeyboardExtraDelay time.Duration
}

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger replaces the default "Engine" logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithPollInterval changes how often Run advances the active specification.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.poll = d
		}
	}
}

// WithPolicy sets the initial extra delays.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy.Store(&p) }
}

// Engine is the action scheduler
type Engine struct {
	keyboard input.Keyboard
	mouse    input.Mouse
	clock    Clock
	log      *logging.Logger
	poll     time.Duration
	inbox    chan protocol.Message
	policy   atomic.Pointer[Policy]
	status   atomic.Pointer[Status]

	// Owned by the Run goroutine.
	active     protocol.Message
	since      time.Time
	cycles     uint64
	lastAction time.Time
	lastCycle  time.Time
	cursor     int
	held       []string
	holding    bool
	delaying   bool
	delay      time.Duration
}

// New creates an engine driving the given devices. Either device may be nil
// when its subsystem is disabled; specifications needing it are dropped.
func New(keyboard input.Keyboard, mouse input.Mouse, opts ...Option) *Engine {
	e := &Engine{
		keyboard: keyboard,
		mouse:    mouse,
		clock:    systemClock{},
		log:      logging.New("Engine"),
		poll:     DefaultPollInterval,
		inbox:    make(chan protocol.Message, inboxSize),
		active:   protocol.StopClicking{},
	}
	e.policy.Store(&Policy{})
	for _, opt := range opts {
		opt(e)
	}
	e.since = e.clock.Now()
	e.publish()
	return e
}

// SetPolicy swaps the extra delays; the running loop picks them up on its next tick.
func (e *Engine) SetPolicy(p Policy) {
	e.policy.Store(&p)
}

// Policy returns the current extra delays.
func (e *Engine) Policy() Policy {
	return *e.policy.Load()
}

// Submit queues a request for the engine. It blocks while the inbox is full.
func (e *Engine) Submit(ctx context.Context, msg protocol.Message) error {
	if !protocol.IsRequest(msg) {
		return fmt.Errorf("%w: %s", ErrNotRequest, msg.Type())
	}
	select {
	case e.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the engine until ctx is cancelled or a device fails. It returns
// nil on cancellation. Keys still held at that point stay held.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Infof("running (poll every %s)", e.poll)

	timer := time.NewTimer(e.poll)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if len(e.held) > 0 {
				e.log.Warnf("shutting down with keys still held: %v", e.held)
			}
			e.log.Infof("stopped")
			return nil
		case <-timer.C:
		}

		if err := e.tick(e.clock.Now()); err != nil {
			e.log.Errorf("%v", err)
			return err
		}
		timer.Reset(e.poll)
	}
}

// tick consumes at most one queued message, then advances the active
// specification by at most one step.
func (e *Engine) tick(now time.Time) error {
	select {
	case msg := <-e.inbox:
		if err := e.replace(msg, now); err != nil {
			return err
		}
	default:
	}
	return e.step(now)
}

// replace makes msg the active specification. Held keys are released first.
func (e *Engine) replace(msg protocol.Message, now time.Time) error {
	e.log.Tracef("got %s from inbox", msg.Type())

	if err := e.releaseHeld(); err != nil {
		return err
	}

	e.active = msg
	e.since = now
	e.cycles = 0
	e.cursor = 0
	e.holding = false
	e.delaying = false
	e.delay = 0
	e.lastAction = now
	e.lastCycle = time.Time{}

	switch m := msg.(type) {
	case protocol.RepeatingMouseClick:
		e.log.Debugf("mouse: %s %s click every %dms, amount %d", m.ClickType, m.Button, m.Interval, m.Amount)
	case protocol.RepeatingKeyboardClick:
		e.log.Debugf("keyboard: %d actions every %dms, amount %d", len(m.Actions), m.Interval, m.Amount)
	case protocol.StopClicking:
		e.log.Debugf("stopped clicking")
	}
	e.publish()
	return nil
}

func (e *Engine) releaseHeld() error {
	if len(e.held) == 0 {
		return nil
	}
	e.log.Tracef("released keys implicitly: %v", e.held)

	held := e.held
	e.held = nil
	defer e.publish()
	for _, name := range held {
		code, ok := keycodes.Lookup(name)
		if !ok {
			continue
		}
		if err := e.keyboard.ReleaseKey(code); err != nil {
			return fmt.Errorf("%w: release %s: %w", ErrDevice, name, err)
		}
	}
	return nil
}

func (e *Engine) step(now time.Time) error {
	switch spec := e.active.(type) {
	case protocol.RepeatingMouseClick:
		return e.stepMouse(now, spec)
	case protocol.RepeatingKeyboardClick:
		return e.stepKeyboard(now, spec)
	}
	return nil
}

func (e *Engine) stop(reason string) {
	e.log.Warnf("%s; stopping", reason)
	e.active = protocol.StopClicking{}
	e.publish()
}

func (e *Engine) stepMouse(now time.Time, spec protocol.RepeatingMouseClick) error {
	if spec.Amount != 0 && e.cycles >= spec.Amount {
		return nil
	}
	if now.Sub(e.lastAction) < millis(spec.Interval)+e.Policy().MouseExtraDelay {
		return nil
	}
	if e.mouse == nil {
		e.stop("no virtual mouse available")
		return nil
	}
	if !spec.Button.Valid() {
		e.stop("invalid mouse button " + string(spec.Button))
		return nil
	}

	e.lastAction = now
	if !spec.Position.IsZero() {
		if err := e.mouse.MoveAbsolute(spec.Position.X, spec.Position.Y); err != nil {
			return fmt.Errorf("%w: move: %w", ErrDevice, err)
		}
	}
	if err := e.mouse.ClickButton(spec.Button); err != nil {
		return fmt.Errorf("%w: click %s: %w", ErrDevice, spec.Button, err)
	}
	if spec.ClickType == protocol.ClickDouble {
		e.clock.Sleep(DoubleClickPause)
		if err := e.mouse.ClickButton(spec.Button); err != nil {
			return fmt.Errorf("%w: click %s: %w", ErrDevice, spec.Button, err)
		}
	}

	e.cycles++
	e.publish()
	return nil
}

func (e *Engine) stepKeyboard(now time.Time, spec protocol.RepeatingKeyboardClick) error {
	if spec.Amount != 0 && e.cycles >= spec.Amount {
		return nil
	}
	n := len(spec.Actions)
	if n == 0 {
		return nil
	}
	if e.keyboard == nil {
		e.stop("no virtual keyboard available")
		return nil
	}

	// Gate the start of every cycle after the first.
	if e.cursor == 0 && !e.lastCycle.IsZero() && now.Sub(e.lastCycle) < millis(spec.DelayBeforeRepeat) {
		return nil
	}

	if e.holding {
		if now.Sub(e.lastAction) < millis(spec.HoldDuration) {
			return nil
		}
		name := spec.Actions[e.cursor].Key
		if code, ok := keycodes.Lookup(name); ok {
			if err := e.keyboard.ReleaseKey(code); err != nil {
				return fmt.Errorf("%w: release %s: %w", ErrDevice, name, err)
			}
		}
		e.held = slices.DeleteFunc(e.held, func(k string) bool { return k == name })
		e.holding = false
		e.advance(now, n)
		return nil
	}

	if e.delaying {
		if now.Sub(e.lastAction) >= e.delay {
			e.delaying = false
			e.publish()
		}
		return nil
	}

	if now.Sub(e.lastAction) < millis(spec.Interval)+e.Policy().KeyboardExtraDelay {
		return nil
	}

	action := spec.Actions[e.cursor]
	if action.Kind == protocol.ActionDelay {
		e.delaying = true
		e.delay = max(time.Duration(action.Delay)*time.Millisecond, 0)
		e.advance(now, n)
		return nil
	}

	code, ok := keycodes.Lookup(action.Key)
	if !ok {
		e.log.Warnf("invalid keycode: %s", action.Key)
		e.advance(now, n)
		return nil
	}

	switch action.Kind {
	case protocol.ActionPressAndRelease:
		if err := e.keyboard.PressKey(code); err != nil {
			return fmt.Errorf("%w: press %s: %w", ErrDevice, action.Key, err)
		}
		e.hold(action.Key)
		e.holding = true
		e.lastAction = now
		e.publish()
		return nil
	case protocol.ActionPress:
		if err := e.keyboard.PressKey(code); err != nil {
			return fmt.Errorf("%w: press %s: %w", ErrDevice, action.Key, err)
		}
		e.hold(action.Key)
	case protocol.ActionRelease:
		if err := e.keyboard.ReleaseKey(code); err != nil {
			return fmt.Errorf("%w: release %s: %w", ErrDevice, action.Key, err)
		}
		e.held = slices.DeleteFunc(e.held, func(k string) bool { return k == action.Key })
	}
	e.advance(now, n)
	return nil
}

func (e *Engine) hold(name string) {
	if !slices.Contains(e.held, name) {
		e.held = append(e.held, name)
	}
}

// advance moves to the next action, completing a cycle at the end of the list.
func (e *Engine) advance(now time.Time, n int) {
	e.cursor++
	if e.cursor >= n {
		e.cursor = 0
		e.cycles++
		e.lastCycle = now
	}
	e.lastAction = now
	e.publish()
}
