package network

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"autoclicker/internal/config"
	"autoclicker/internal/logging"
	"autoclicker/internal/protocol"
)

// echoHandler confirms StopClicking and rejects everything else.
type echoHandler struct {
	got chan []byte
}

func (h *echoHandler) Handle(_ context.Context, payload []byte) []byte {
	h.got <- payload
	msg, err := protocol.Decode(payload)
	if err != nil {
		return protocol.Encode(protocol.NewError(err.Error()))
	}
	if _, ok := msg.(protocol.StopClicking); ok {
		return protocol.Encode(protocol.ConfirmResponse{})
	}
	return protocol.Encode(protocol.NewError("nope"))
}

func startSocketServer(t *testing.T) (string, *echoHandler, func()) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run", "autoclicker.socket")
	h := &echoHandler{got: make(chan []byte, 4)}
	srv := NewSocketServer(path, h)
	srv.log = logging.Discard()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(path); err == nil {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("socket was never created")
		}
		time.Sleep(10 * time.Millisecond)
	}

	return path, h, func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve = %v", err)
		}
	}
}

// TestSocketRoundTrip tests a request and both kinds of reply over the socket
func TestSocketRoundTrip(t *testing.T) {
	path, h, stop := startSocketServer(t)
	defer stop()

	client := NewSocketClient(path)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ready(ctx); err != nil {
		t.Fatalf("Ready: %v", err)
	}
	if err := client.Send(ctx, protocol.StopClicking{}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := string(<-h.got); got != `{"type":"StopClicking"}` {
		t.Errorf("server received %q", got)
	}

	err := client.Send(ctx, protocol.RepeatingMouseClick{Button: protocol.ButtonLeft, ClickType: protocol.ClickSingle})
	var rejected *RejectedError
	if !errors.As(err, &rejected) || rejected.Msg != "nope" {
		t.Errorf("Send = %v, want RejectedError(nope)", err)
	}
}

// TestSocketRemovedOnShutdown tests that the socket file is cleaned up
func TestSocketRemovedOnShutdown(t *testing.T) {
	path, _, stop := startSocketServer(t)
	stop()

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("socket still exists after shutdown: %v", err)
	}
	if err := NewSocketClient(path).Ready(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Ready = %v, want ErrNotRunning", err)
	}
}

// TestSocketRefusesSecondServer tests that a live socket is not replaced
func TestSocketRefusesSecondServer(t *testing.T) {
	path, _, stop := startSocketServer(t)
	defer stop()

	second := NewSocketServer(path, &echoHandler{got: make(chan []byte, 1)})
	second.log = logging.Discard()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := second.Serve(ctx); err == nil {
		t.Error("Expected second server to fail")
	}
}

// TestCheckReply tests reply decoding
func TestCheckReply(t *testing.T) {
	if err := checkReply([]byte(`{"type":"ConfirmResponse"}`)); err != nil {
		t.Errorf("checkReply(confirm) = %v", err)
	}

	var rejected *RejectedError
	if err := checkReply([]byte(`{"type":"Error","msg":"invalid mouse button"}`)); !errors.As(err, &rejected) || err.Error() != "invalid mouse button" {
		t.Errorf("checkReply(error) = %v", err)
	}
	if err := checkReply([]byte(`garbage`)); err == nil || errors.As(err, &rejected) {
		t.Errorf("checkReply(garbage) = %v, want decode error", err)
	}
	if err := checkReply([]byte(`{"type":"StopClicking"}`)); err == nil {
		t.Error("checkReply(request) should fail")
	}
}

// TestNewSender tests that the configured method selects the client
func TestNewSender(t *testing.T) {
	s, err := NewSender(config.GeneralConfig{CommunicationMethod: config.MethodUnixSocket, SocketPath: "/tmp/x.sock"})
	if err != nil {
		t.Fatal(err)
	}
	if sc, ok := s.(*SocketClient); !ok || sc.path != "/tmp/x.sock" {
		t.Errorf("NewSender(unix_socket) = %#v", s)
	}

	if _, err := NewSender(config.GeneralConfig{CommunicationMethod: config.MethodUnixSocket}); !errors.Is(err, ErrNoSocketPath) {
		t.Errorf("NewSender without path = %v, want ErrNoSocketPath", err)
	}

	s, err = NewSender(config.GeneralConfig{CommunicationMethod: config.MethodDBus})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*DBusClient); !ok {
		t.Errorf("NewSender(dbus) = %#v", s)
	}
}
