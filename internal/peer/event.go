package peer

import "github.com/puckarena/backend/internal/game"

// EventKind identifies a local input event.
type EventKind int

const (
	// PointerDown places a puck when idle and launches it when charging.
	PointerDown EventKind = iota
	// PointerMove updates the placement preview.
	PointerMove
	// Cancel drops the charging puck.
	Cancel
	// Resize carries the new display size in X and Y.
	Resize
	ActivatePowerUp
	Reset
)

func (k EventKind) String() string {
	switch k {
	case PointerDown:
		return "pointerDown"
	case PointerMove:
		return "pointerMove"
	case Cancel:
		return "cancel"
	case Resize:
		return "resize"
	case ActivatePowerUp:
		return "activatePowerUp"
	case Reset:
		return "reset"
	}
	return "unknown"
}

// Event is one local input. X and Y are display coordinates.
type Event struct {
	Kind    EventKind
	X, Y    float64
	PowerUp game.PowerUp
}

// View is what a renderer needs after each frame.
type View struct {
	Snapshot     game.Snapshot
	Preview      game.Vec2
	PreviewValid bool
}
