package game

import (
	"fmt"
	"math"
	"time"
)

// Player identifies a seat in the match. The zero value is "nobody".
type Player int

const (
	NoPlayer Player = 0
	Player1  Player = 1
	Player2  Player = 2
)

// Other returns the opposing seat.
func (p Player) Other() Player {
	if p == Player1 {
		return Player2
	}
	return Player1
}

func (p Player) Valid() bool {
	return p == Player1 || p == Player2
}

func (p Player) String() string {
	return fmt.Sprintf("player%d", int(p))
}

// Puck is a launched game piece.
type Puck struct {
	ID             string    `json:"id"`
	Position       Vec2      `json:"position"`
	Velocity       Vec2      `json:"velocity"`
	Player         Player    `json:"player"`
	HasRepel       bool      `json:"has_repel"`
	HasGhost       bool      `json:"has_ghost"`
	GhostStartTime time.Time `json:"ghost_start_time,omitempty"`
}

// PuckID builds the identifier both peers assign to the n-th puck a
// player launches (1-based).
func PuckID(p Player, n int) string {
	return fmt.Sprintf("%d-%d", int(p), n)
}

func (p *Puck) Speed() float64 {
	return p.Velocity.Magnitude()
}

// IsMoving reports whether either velocity component is above StopEpsilon.
func (p *Puck) IsMoving() bool {
	return math.Abs(p.Velocity.X) >= StopEpsilon || math.Abs(p.Velocity.Y) >= StopEpsilon
}

// GhostActive reports whether the ghost power is still shielding the puck
// at now. An expired ghost is cleared.
func (p *Puck) GhostActive(now time.Time, d time.Duration) bool {
	if !p.HasGhost {
		return false
	}
	if now.Sub(p.GhostStartTime) > d {
		p.HasGhost = false
		p.GhostStartTime = time.Time{}
		return false
	}
	return true
}

// ChargingPuck is a placed puck swinging on its rope before launch.
type ChargingPuck struct {
	Player          Player    `json:"player"`
	Center          Vec2      `json:"center"`
	Radius          float64   `json:"radius"`
	Angle           float64   `json:"angle"`
	ChargeStartTime time.Time `json:"charge_start_time"`
}

// Position is the current point on the rotation circle.
func (c *ChargingPuck) Position() Vec2 {
	return Vec2{
		X: c.Center.X + c.Radius*math.Cos(c.Angle),
		Y: c.Center.Y + c.Radius*math.Sin(c.Angle),
	}
}

// Rope is the vector from the rotation center to the puck.
func (c *ChargingPuck) Rope() Vec2 {
	return c.Position().Minus(c.Center)
}
