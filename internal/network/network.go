// Package network carries protocol messages between the controller and the
// daemon over a Unix domain socket, the D-Bus session bus, or the optional
// WebSocket API.
package network

import (
	"context"
	"errors"
	"fmt"

	"autoclicker/internal/config"
	"autoclicker/internal/protocol"
)

// maxRequestSize bounds a single request read from a stream transport.
const maxRequestSize = 1 << 20

var (
	// ErrNotRunning is returned by Ready when the daemon cannot be reached.
	ErrNotRunning = errors.New("daemon is not running")

	// ErrNoSocketPath is returned when the unix socket method has no path.
	ErrNoSocketPath = errors.New("socket_path must be set when communication_method = unix_socket")
)

// RejectedError is an Error reply from the daemon
type RejectedError struct {
	Msg string
}

func (e *RejectedError) Error() string {
	return e.Msg
}

// RequestHandler turns a request payload into a reply payload.
// *daemon.Handler implements it.
type RequestHandler interface {
	Handle(ctx context.Context, payload []byte) []byte
}

// Sender delivers requests to a running daemon
type Sender interface {
	// Send delivers msg and returns a *RejectedError if the daemon refused it.
	Send(ctx context.Context, msg protocol.Message) error

	// Ready returns ErrNotRunning when nothing is listening.
	Ready(ctx context.Context) error
}

// NewSender returns the client for the configured communication method.
func NewSender(general config.GeneralConfig) (Sender, error) {
	switch general.CommunicationMethod {
	case config.MethodUnixSocket:
		path := general.ResolvedSocketPath()
		if path == "" {
			return nil, ErrNoSocketPath
		}
		return NewSocketClient(path), nil
	case config.MethodDBus, "":
		return NewDBusClient(), nil
	default:
		return nil, fmt.Errorf("unknown communication method %q", general.CommunicationMethod)
	}
}

// checkReply decodes a daemon reply and converts an Error into a Go error.
func checkReply(data []byte) error {
	reply, err := protocol.Decode(data)
	if err != nil {
		return fmt.Errorf("could not decode reply: %w", err)
	}
	switch r := reply.(type) {
	case protocol.ConfirmResponse:
		return nil
	case protocol.ErrorResponse:
		return &RejectedError{Msg: r.Msg}
	default:
		return fmt.Errorf("unexpected reply %s", reply.Type())
	}
}
