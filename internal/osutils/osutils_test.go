package osutils

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// TestExpandUID tests $id substitution
func TestExpandUID(t *testing.T) {
	uid := strconv.Itoa(os.Geteuid())
	got := ExpandUID("/run/user/$id/autoclicker.socket")
	if want := "/run/user/" + uid + "/autoclicker.socket"; got != want {
		t.Errorf("ExpandUID = %q, want %q", got, want)
	}
	if got := ExpandUID("/tmp/plain.sock"); got != "/tmp/plain.sock" {
		t.Errorf("ExpandUID changed a path without $id: %q", got)
	}
}

// TestParseCursorPos tests parsing the cursorpos reply
func TestParseCursorPos(t *testing.T) {
	tests := []struct {
		in      string
		x, y    int32
		wantErr bool
	}{
		{"100, 200", 100, 200, false},
		{"-5, 7\n", -5, 7, false},
		{"100,200", 0, 0, true},
		{"a, b", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		x, y, err := parseCursorPos(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseCursorPos(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if x != tt.x || y != tt.y {
			t.Errorf("parseCursorPos(%q) = %d,%d, want %d,%d", tt.in, x, y, tt.x, tt.y)
		}
	}
}

// TestCursorPos tests the IPC request against a fake compositor socket
func TestCursorPos(t *testing.T) {
	runtime := t.TempDir()
	sig := "abc123"
	dir := filepath.Join(runtime, "hypr", sig)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	ln, err := net.Listen("unix", filepath.Join(dir, ".socket.sock"))
	if err != nil {
		t.Skipf("unix sockets unavailable: %v", err)
	}
	defer ln.Close()

	got := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		req, _ := io.ReadAll(conn)
		got <- string(req)
		io.WriteString(conn, "640, 480")
	}()

	t.Setenv("XDG_RUNTIME_DIR", runtime)
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", sig)

	x, y, err := CursorPos(context.Background())
	if err != nil {
		t.Fatalf("CursorPos: %v", err)
	}
	if x != 640 || y != 480 {
		t.Errorf("CursorPos = %d,%d, want 640,480", x, y)
	}
	if req := <-got; req != "/cursorpos" {
		t.Errorf("request = %q, want /cursorpos", req)
	}
}

func TestHyprlandSocketMissingEnv(t *testing.T) {
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")
	if _, err := HyprlandSocket(); err != ErrNotHyprland {
		t.Errorf("HyprlandSocket error = %v, want ErrNotHyprland", err)
	}
}
