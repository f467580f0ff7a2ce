package protocol

// MessageType is the value of the "type" discriminant on the wire
type MessageType string

const (
	// TypeRepeatingMouseClick starts a repeating mouse click
	TypeRepeatingMouseClick MessageType = "RepeatingMouseClick"

	// TypeRepeatingKeyboardClick starts a repeating key sequence
	TypeRepeatingKeyboardClick MessageType = "RepeatingKeyboardClick"

	// TypeStopClicking stops whatever is running and releases held keys
	TypeStopClicking MessageType = "StopClicking"

	// TypeConfirmResponse acknowledges an accepted request
	TypeConfirmResponse MessageType = "ConfirmResponse"

	// TypeError reports a rejected request
	TypeError MessageType = "Error"
)

// Message is one of the five variants exchanged between client and daemon.
// The set is closed: only types in this package implement it.
type Message interface {
	Type() MessageType
	isMessage()
}

// MouseButton identifies a pointer button
type MouseButton string

const (
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "middle"
)

// Valid reports whether b is one of the known buttons.
func (b MouseButton) Valid() bool {
	switch b {
	case ButtonLeft, ButtonRight, ButtonMiddle:
		return true
	}
	return false
}

// ClickType selects single or double clicks
type ClickType string

const (
	ClickSingle ClickType = "single"
	ClickDouble ClickType = "double"
)

// Valid reports whether c is one of the known click types.
func (c ClickType) Valid() bool {
	switch c {
	case ClickSingle, ClickDouble:
		return true
	}
	return false
}

// RepeatingMouseClick clicks Button every Interval milliseconds, Amount times
// (0 means until replaced), optionally moving to Position first.
type RepeatingMouseClick struct {
	Button    MouseButton `json:"button"`
	ClickType ClickType   `json:"typ"`
	Amount    uint64      `json:"amount"`
	Position  Position    `json:"position"`
	Interval  uint64      `json:"interval"`
}

// RepeatingKeyboardClick plays Actions in order, Amount cycles (0 means until
// replaced). All durations are in milliseconds.
type RepeatingKeyboardClick struct {
	Actions           []Action `json:"buttons"`
	Amount            uint64   `json:"amount"`
	Interval          uint64   `json:"interval"`
	DelayBeforeRepeat uint64   `json:"delay_before_repeat"`
	HoldDuration      uint64   `json:"hold_duration"`
}

// StopClicking clears the active specification
type StopClicking struct{}

// ConfirmResponse acknowledges a request
type ConfirmResponse struct{}

// ErrorResponse carries a human readable rejection reason
type ErrorResponse struct {
	Msg string `json:"msg"`
}

func (RepeatingMouseClick) Type() MessageType    { return TypeRepeatingMouseClick }
func (RepeatingKeyboardClick) Type() MessageType { return TypeRepeatingKeyboardClick }
func (StopClicking) Type() MessageType           { return TypeStopClicking }
func (ConfirmResponse) Type() MessageType        { return TypeConfirmResponse }
func (ErrorResponse) Type() MessageType          { return TypeError }

func (RepeatingMouseClick) isMessage()    {}
func (RepeatingKeyboardClick) isMessage() {}
func (StopClicking) isMessage()           {}
func (ConfirmResponse) isMessage()        {}
func (ErrorResponse) isMessage()          {}

// IsRequest reports whether m is sent by a client rather than by the daemon.
func IsRequest(m Message) bool {
	switch m.(type) {
	case RepeatingMouseClick, RepeatingKeyboardClick, StopClicking:
		return true
	}
	return false
}

// NewError builds an ErrorResponse.
func NewError(msg string) ErrorResponse {
	return ErrorResponse{Msg: msg}
}
