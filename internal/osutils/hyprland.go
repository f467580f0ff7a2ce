package osutils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrNotHyprland is returned when the Hyprland IPC socket cannot be located
var ErrNotHyprland = errors.New("not running under Hyprland")

const hyprlandTimeout = time.Second

// IsHyprland reports whether the current desktop is Hyprland.
func IsHyprland() bool {
	return os.Getenv("XDG_CURRENT_DESKTOP") == "Hyprland"
}

// HyprlandSocket returns the path of the compositor's request socket.
func HyprlandSocket() (string, error) {
	runtime := os.Getenv("XDG_RUNTIME_DIR")
	sig := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")
	if runtime == "" || sig == "" {
		return "", ErrNotHyprland
	}
	return filepath.Join(runtime, "hypr", sig, ".socket.sock"), nil
}

// CursorPos asks Hyprland where the cursor is.
func CursorPos(ctx context.Context) (x, y int32, err error) {
	path, err := HyprlandSocket()
	if err != nil {
		return 0, 0, err
	}
	reply, err := hyprlandRequest(ctx, path, "/cursorpos")
	if err != nil {
		return 0, 0, err
	}
	return parseCursorPos(reply)
}

func hyprlandRequest(ctx context.Context, path, request string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, hyprlandTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return "", fmt.Errorf("connect to hyprland: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	if _, err := io.WriteString(conn, request); err != nil {
		return "", fmt.Errorf("write to hyprland: %w", err)
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		uc.CloseWrite()
	}
	reply, err := io.ReadAll(conn)
	if err != nil {
		return "", fmt.Errorf("read from hyprland: %w", err)
	}
	return string(reply), nil
}

// parseCursorPos parses Hyprland's "x, y" reply.
func parseCursorPos(reply string) (int32, int32, error) {
	xs, ys, ok := strings.Cut(strings.TrimSpace(reply), ", ")
	if !ok {
		return 0, 0, fmt.Errorf("invalid response from hyprland: %q", reply)
	}
	x, err := strconv.ParseInt(xs, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid response from hyprland: %q", reply)
	}
	y, err := strconv.ParseInt(ys, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid response from hyprland: %q", reply)
	}
	return int32(x), int32(y), nil
}
