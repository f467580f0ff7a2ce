package engine

import (
	"time"

	"autoclicker/internal/protocol"
)

// Status is a point-in-time view of the engine, safe to read from any goroutine.
type Status struct {
	Active          protocol.MessageType `json:"active"`
	CyclesCompleted uint64               `json:"cycles_completed"`
	Cursor          int                  `json:"cursor"`
	HeldKeys        []string             `json:"held_keys"`
	Holding         bool                 `json:"holding"`
	PendingDelay    *int64               `json:"pending_delay_ms"`
	Since           time.Time            `json:"since"`
}

// Running reports whether a mouse or keyboard specification is active.
func (s Status) Running() bool {
	return s.Active != "" && s.Active != protocol.TypeStopClicking
}

func (e *Engine) publish() {
	held := make([]string, len(e.held))
	copy(held, e.held)

	st := &Status{
		Active:          e.active.Type(),
		CyclesCompleted: e.cycles,
		Cursor:          e.cursor,
		HeldKeys:        held,
		Holding:         e.holding,
		Since:           e.since,
	}
	if e.delaying {
		ms := e.delay.Milliseconds()
		st.PendingDelay = &ms
	}
	e.status.Store(st)
}

// Status returns the most recently published snapshot.
func (e *Engine) Status() Status {
	return *e.status.Load()
}
