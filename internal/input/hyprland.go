package input

import (
	"context"

	"autoclicker/internal/logging"
	"autoclicker/internal/osutils"
)

// CursorLocator reports the compositor's idea of the cursor position.
type CursorLocator func(ctx context.Context) (x, y int32, err error)

// HyprlandMouse corrects absolute moves using Hyprland's cursor position.
// Pointer acceleration makes the corner-then-offset move land short on
// Hyprland, so after each move the remaining distance is sent as a
// relative move.
type HyprlandMouse struct {
	RelativeMouse
	locate CursorLocator
	log    *logging.Logger
}

// NewHyprlandMouse wraps m. A nil locate uses the Hyprland IPC socket.
func NewHyprlandMouse(m RelativeMouse, locate CursorLocator) *HyprlandMouse {
	if locate == nil {
		locate = osutils.CursorPos
	}
	return &HyprlandMouse{RelativeMouse: m, locate: locate, log: logging.New("Hyprland")}
}

func (h *HyprlandMouse) MoveAbsolute(x, y *int32) error {
	if err := h.RelativeMouse.MoveAbsolute(x, y); err != nil {
		return err
	}

	cx, cy, err := h.locate(context.Background())
	if err != nil {
		h.log.Warnf("could not get current cursorpos: %v", err)
		return nil
	}
	if (x == nil || *x == cx) && (y == nil || *y == cy) {
		return nil
	}

	var dx, dy *int32
	if x != nil {
		d := *x - cx
		dx = &d
	}
	if y != nil {
		d := *y - cy
		dy = &d
	}
	h.log.Debugf("correcting cursor by %s, %s", axis(dx), axis(dy))
	return h.RelativeMouse.MoveRelative(dx, dy)
}
