// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync/atomic"

	"github.com/getlantern/systray"
)

// MenuItem represents a menu item
type MenuItem struct {
	ID       int
	Title    string
	Tooltip  string
	Callback func()
	item     *systray.MenuItem
}

// Tray manages the system tray icon and menu
type Tray struct {
	items   []*MenuItem
	tooltip string
	quitCh  chan struct{}
	ready   atomic.Bool
}

// New creates a new system tray
func New(tooltip string) *Tray {
	return &Tray{
		tooltip: tooltip,
		quitCh:  make(chan struct{}),
	}
}

// AddMenuItem adds a menu item to the tray and returns its id
func (t *Tray) AddMenuItem(title, tooltip string, callback func()) int {
	id := len(t.items)
	t.items = append(t.items, &MenuItem{
		ID:       id,
		Title:    title,
		Tooltip:  tooltip,
		Callback: callback,
	})
	return id
}

// AddSeparator adds a separator to the menu
func (t *Tray) AddSeparator() {
	t.items = append(t.items, nil) // nil indicates separator
}

// SetItemChecked sets the checked state of a menu item
func (t *Tray) SetItemChecked(id int, checked bool) {
	if id < 0 || id >= len(t.items) || t.items[id] == nil || t.items[id].item == nil {
		return
	}
	if checked {
		t.items[id].item.Check()
	} else {
		t.items[id].item.Uncheck()
	}
}

// SetTooltip updates the hover text. Before the tray is shown it only
// replaces the initial tooltip.
func (t *Tray) SetTooltip(text string) {
	if !t.ready.Load() {
		t.tooltip = text
		return
	}
	systray.SetTooltip(text)
}

// Run starts the tray event loop (blocks)
func (t *Tray) Run() {
	systray.Run(t.setupMenu, func() { close(t.quitCh) })
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	systray.SetTitle("Autoclicker")
	systray.SetTooltip(t.tooltip)
	systray.SetIcon(icon)

	for _, menuItem := range t.items {
		if menuItem == nil {
			systray.AddSeparator()
			continue
		}

		menuItem.item = systray.AddMenuItem(menuItem.Title, menuItem.Tooltip)
		if menuItem.Callback == nil {
			continue
		}
		go func(mi *MenuItem) {
			for {
				select {
				case <-mi.item.ClickedCh:
					mi.Callback()
				case <-t.quitCh:
					return
				}
			}
		}(menuItem)
	}
	t.ready.Store(true)
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

var icon = renderIcon(22)

// renderIcon draws a filled ring as a PNG
func renderIcon(size int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	fg := color.NRGBA{R: 0x3d, G: 0x8b, B: 0xfd, A: 0xff}

	c := float64(size-1) / 2
	outer := c * c
	inner := (c * 0.45) * (c * 0.45)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			if d := dx*dx + dy*dy; d <= outer && (d >= inner*2 || d <= inner/2) {
				img.Set(x, y, fg)
			}
		}
	}

	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}
