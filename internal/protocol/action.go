package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// ActionKind distinguishes the four macro steps
type ActionKind uint8

const (
	ActionPressAndRelease ActionKind = iota
	ActionPress
	ActionRelease
	ActionDelay
)

var actionKindNames = [...]string{
	ActionPressAndRelease: "PressAndRelease",
	ActionPress:           "Press",
	ActionRelease:         "Release",
	ActionDelay:           "Delay",
}

func (k ActionKind) String() string {
	if int(k) < len(actionKindNames) {
		return actionKindNames[k]
	}
	return "ActionKind(" + strconv.Itoa(int(k)) + ")"
}

// ParseActionKind resolves a wire name to its kind.
func ParseActionKind(name string) (ActionKind, error) {
	for i, n := range actionKindNames {
		if n == name {
			return ActionKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

// Action is one macro step. Key holds a canonical KEY_* name for the key
// kinds; Delay holds milliseconds for ActionDelay.
//
// On the wire an action is a single-field object keyed by its kind:
//
//	{"PressAndRelease":"KEY_A"} {"Press":"KEY_X"} {"Release":"KEY_X"} {"Delay":50}
type Action struct {
	Kind  ActionKind
	Key   string
	Delay int64
}

func PressAndRelease(key string) Action { return Action{Kind: ActionPressAndRelease, Key: key} }
func Press(key string) Action           { return Action{Kind: ActionPress, Key: key} }
func Release(key string) Action         { return Action{Kind: ActionRelease, Key: key} }
func Delay(ms int64) Action             { return Action{Kind: ActionDelay, Delay: ms} }

func (a Action) String() string {
	if a.Kind == ActionDelay {
		return fmt.Sprintf("Delay(%d)", a.Delay)
	}
	return fmt.Sprintf("%s(%s)", a.Kind, a.Key)
}

// MarshalJSON implements json.Marshaler.
func (a Action) MarshalJSON() ([]byte, error) {
	if int(a.Kind) >= len(actionKindNames) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, a.Kind)
	}
	var value any = a.Key
	if a.Kind == ActionDelay {
		value = a.Delay
	}
	return json.Marshal(map[string]any{a.Kind.String(): value})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Action) UnmarshalJSON(data []byte) error {
	obj := gjson.ParseBytes(data)
	if !obj.IsObject() {
		return fmt.Errorf("%w: action must be an object", ErrMalformed)
	}

	var (
		fields int
		out    Action
		err    error
	)
	obj.ForEach(func(key, value gjson.Result) bool {
		fields++
		out.Kind, err = ParseActionKind(key.String())
		if err != nil {
			return false
		}
		if out.Kind == ActionDelay {
			if value.Type != gjson.Number {
				err = fmt.Errorf("%w: Delay expects an integer", ErrMalformed)
				return false
			}
			out.Delay, err = strconv.ParseInt(value.Raw, 10, 64)
			if err != nil {
				err = fmt.Errorf("%w: Delay expects an integer", ErrMalformed)
				return false
			}
			return true
		}
		if value.Type != gjson.String {
			err = fmt.Errorf("%w: %s expects a key name", ErrMalformed, out.Kind)
			return false
		}
		out.Key = value.String()
		return true
	})
	if err != nil {
		return err
	}
	if fields != 1 {
		return fmt.Errorf("%w: action must have exactly one field, got %d", ErrMalformed, fields)
	}

	*a = out
	return nil
}

// Position is an optional absolute pointer target; a nil axis is left unchanged.
// It travels as a two element array: [x, y] with null for unset axes.
type Position struct {
	X *int32
	Y *int32
}

// At returns a Position with both axes set.
func At(x, y int32) Position {
	return Position{X: &x, Y: &y}
}

// IsZero reports whether neither axis is set.
func (p Position) IsZero() bool {
	return p.X == nil && p.Y == nil
}

// Equal compares axis values rather than pointers.
func (p Position) Equal(o Position) bool {
	return eqAxis(p.X, o.X) && eqAxis(p.Y, o.Y)
}

func eqAxis(a, b *int32) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// MarshalJSON implements json.Marshaler.
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]*int32{p.X, p.Y})
}

// UnmarshalJSON implements json.Unmarshaler. A bare null means no position.
func (p *Position) UnmarshalJSON(data []byte) error {
	var axes []*int32
	if err := json.Unmarshal(data, &axes); err != nil {
		return fmt.Errorf("%w: position: %v", ErrMalformed, err)
	}
	if axes == nil {
		*p = Position{}
		return nil
	}
	if len(axes) != 2 {
		return fmt.Errorf("%w: position must have 2 elements, got %d", ErrMalformed, len(axes))
	}
	p.X, p.Y = axes[0], axes[1]
	return nil
}
