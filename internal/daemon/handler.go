// Package daemon turns request payloads into engine submissions and
// response payloads. Transports call Handler.Handle and write back
// whatever it returns.
package daemon

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"autoclicker/internal/config"
	"autoclicker/internal/engine"
	"autoclicker/internal/logging"
	"autoclicker/internal/protocol"
)

// Rejection messages sent back to clients
const (
	MsgMouseDisabled    = "mouse virtualization has been disabled in the configs"
	MsgKeyboardDisabled = "keyboard virtualization has been disabled in the configs"
	MsgInvalidButton    = "invalid mouse button"
	MsgInvalidClickType = "invalid click type"
	MsgEmptySequence    = "empty key sequence"
	MsgInvalidRequest   = "invalid request"
)

// Submitter accepts validated requests. *engine.Engine implements it.
type Submitter interface {
	Submit(ctx context.Context, msg protocol.Message) error
}

// Handler validates requests against the daemon settings and forwards them
type Handler struct {
	sink     Submitter
	settings func() config.DaemonConfig
	log      *logging.Logger
}

// NewHandler creates a handler. settings is called for every request so
// that a reloaded configuration takes effect immediately.
func NewHandler(sink Submitter, settings func() config.DaemonConfig) *Handler {
	if settings == nil {
		settings = func() config.DaemonConfig { return config.DefaultConfig().Daemon }
	}
	return &Handler{
		sink:     sink,
		settings: settings,
		log:      logging.New("Handler"),
	}
}

// Handle decodes payload, submits it and returns the encoded reply,
// which is always a ConfirmResponse or an Error.
func (h *Handler) Handle(ctx context.Context, payload []byte) []byte {
	return protocol.Encode(h.HandleMessage(ctx, payload))
}

// HandleMessage is Handle without the final encoding step.
func (h *Handler) HandleMessage(ctx context.Context, payload []byte) protocol.Message {
	id := uuid.NewString()

	msg, err := protocol.Decode(payload)
	if err != nil {
		h.log.Debugf("[%s] rejected: %v", id, err)
		return protocol.NewError(err.Error())
	}
	h.log.Debugf("[%s] received %s", id, msg.Type())

	if reason := h.validate(msg); reason != "" {
		h.log.Infof("[%s] rejected %s: %s", id, msg.Type(), reason)
		return protocol.NewError(reason)
	}

	if err := h.sink.Submit(ctx, msg); err != nil {
		h.log.Warnf("[%s] submit failed: %v", id, err)
		if errors.Is(err, engine.ErrNotRequest) {
			return protocol.NewError(MsgInvalidRequest)
		}
		return protocol.NewError(err.Error())
	}

	h.log.Tracef("[%s] accepted", id)
	return protocol.ConfirmResponse{}
}

// validate returns the rejection reason for msg, or "" when it is acceptable.
func (h *Handler) validate(msg protocol.Message) string {
	settings := h.settings()

	switch m := msg.(type) {
	case protocol.RepeatingMouseClick:
		if settings.Mouse.Disabled {
			return MsgMouseDisabled
		}
		if !m.Button.Valid() {
			return MsgInvalidButton
		}
		if !m.ClickType.Valid() {
			return MsgInvalidClickType
		}

	case protocol.RepeatingKeyboardClick:
		if settings.Keyboard.Disabled {
			return MsgKeyboardDisabled
		}
		if len(m.Actions) == 0 {
			return MsgEmptySequence
		}

	case protocol.StopClicking:

	default:
		return MsgInvalidRequest
	}
	return ""
}
