package game

import (
	"math"
	"time"
)

// Collision event kinds.
const (
	EventPuck  = "puck"
	EventWall  = "wall"
	EventRepel = "repel"
)

// CollisionEvent records a contact resolved during one tick. For puck hits
// Puck1/Puck2 are the pair and Scorer/Points are set when the hit scored.
type CollisionEvent struct {
	Type   string  `json:"type"`
	Puck1  string  `json:"puck1"`
	Puck2  string  `json:"puck2,omitempty"`
	Speed  float64 `json:"speed"`
	Scorer Player  `json:"scorer,omitempty"`
	Points int     `json:"points,omitempty"`
}

// PhysicsEngine advances puck motion one tick at a time.
type PhysicsEngine struct {
	Settings Settings
	Events   []CollisionEvent
}

func NewPhysicsEngine(s Settings) *PhysicsEngine {
	return &PhysicsEngine{
		Settings: s,
		Events:   make([]CollisionEvent, 0),
	}
}

// Step integrates every moving puck, resolves wall contacts and friction,
// then resolves puck-puck interactions. It returns the events of this tick;
// the slice belongs to the caller and is not reused by later steps.
func (pe *PhysicsEngine) Step(pucks []*Puck, now time.Time) []CollisionEvent {
	pe.Events = nil

	for _, p := range pucks {
		if p.Velocity.IsZero() {
			continue
		}
		p.Position = p.Position.Plus(p.Velocity)
		pe.resolveWalls(p)
		pe.applyFriction(p)
	}

	for i := 0; i < len(pucks); i++ {
		for j := i + 1; j < len(pucks); j++ {
			pe.resolvePair(pucks[i], pucks[j], now)
		}
	}

	return pe.Events
}

// AllStopped returns true if no puck is moving on either axis.
func AllStopped(pucks []*Puck) bool {
	for _, p := range pucks {
		if p.IsMoving() {
			return false
		}
	}
	return true
}

func (pe *PhysicsEngine) resolveWalls(p *Puck) {
	s := pe.Settings
	r := s.PuckRadius
	speed := p.Speed()
	damping := s.wallDampingFor(speed)
	hit := false

	if p.Position.X < r {
		p.Position.X = r
		p.Velocity.X = -p.Velocity.X * damping
		hit = true
	} else if p.Position.X > s.BoardWidth-r {
		p.Position.X = s.BoardWidth - r
		p.Velocity.X = -p.Velocity.X * damping
		hit = true
	}
	if p.Position.Y < r {
		p.Position.Y = r
		p.Velocity.Y = -p.Velocity.Y * damping
		hit = true
	} else if p.Position.Y > s.BoardHeight-r {
		p.Position.Y = s.BoardHeight - r
		p.Velocity.Y = -p.Velocity.Y * damping
		hit = true
	}

	if hit {
		pe.Events = append(pe.Events, CollisionEvent{Type: EventWall, Puck1: p.ID, Speed: speed})
	}
}

func (pe *PhysicsEngine) applyFriction(p *Puck) {
	p.Velocity = p.Velocity.Times(pe.Settings.Friction)
	if math.Abs(p.Velocity.X) < StopEpsilon {
		p.Velocity.X = 0
	}
	if math.Abs(p.Velocity.Y) < StopEpsilon {
		p.Velocity.Y = 0
	}
}

func (pe *PhysicsEngine) resolvePair(a, b *Puck, now time.Time) {
	aMoving, bMoving := a.IsMoving(), b.IsMoving()
	if !aMoving && !bMoving {
		return
	}
	// Evaluate both so that expired ghosts get cleared.
	aGhost := a.GhostActive(now, pe.Settings.GhostDuration)
	bGhost := b.GhostActive(now, pe.Settings.GhostDuration)
	if aGhost || bGhost {
		return
	}

	dist := a.Position.DistanceTo(b.Position)

	repelled := false
	if a.HasRepel && aMoving && dist < pe.Settings.RepelRadius {
		pe.applyRepel(a, b, dist)
		repelled = true
	}
	if b.HasRepel && bMoving && dist < pe.Settings.RepelRadius {
		pe.applyRepel(b, a, dist)
		repelled = true
	}
	if repelled {
		return
	}

	if dist >= 2*pe.Settings.PuckRadius {
		return
	}
	pe.collide(a, b, dist)
}

// applyRepel pushes target away from source with an inverse-square force.
func (pe *PhysicsEngine) applyRepel(source, target *Puck, dist float64) {
	if dist == 0 || pe.Settings.RepelRadius <= 0 {
		return
	}
	ratio := dist / pe.Settings.RepelRadius
	if minRatio := 2 * pe.Settings.PuckRadius / pe.Settings.RepelRadius; ratio < minRatio {
		ratio = minRatio
	}
	force := pe.Settings.RepelForce / (ratio * ratio)
	dir := target.Position.Minus(source.Position).Times(1 / dist)
	target.Velocity = target.Velocity.Plus(dir.Times(force))

	pe.Events = append(pe.Events, CollisionEvent{Type: EventRepel, Puck1: source.ID, Puck2: target.ID, Speed: force})
}

// collide resolves an overlapping pair with an equal-mass impulse.
func (pe *PhysicsEngine) collide(a, b *Puck, dist float64) {
	var n Vec2
	if dist == 0 {
		n = Vec2{X: 1}
	} else {
		n = a.Position.Minus(b.Position).Times(1 / dist)
	}

	relVel := a.Velocity.Minus(b.Velocity)
	vn := relVel.Dot(n)
	if vn >= 0 {
		return
	}

	ev := CollisionEvent{Type: EventPuck, Puck1: a.ID, Puck2: b.ID, Speed: relVel.Magnitude()}
	if scorer := scoringPuck(a, b); scorer != nil && ev.Speed > ScoringSpeed {
		ev.Scorer = scorer.Player
		ev.Points = collisionPoints(ev.Speed)
	}

	j := -(1 + pe.Settings.CollisionElasticity) * vn / 2
	a.Velocity = a.Velocity.Plus(n.Times(j))
	b.Velocity = b.Velocity.Minus(n.Times(j))

	overlap := 2*pe.Settings.PuckRadius - dist
	a.Position = a.Position.Plus(n.Times(overlap / 2))
	b.Position = b.Position.Minus(n.Times(overlap / 2))
	pe.clampToBoard(a)
	pe.clampToBoard(b)

	pe.Events = append(pe.Events, ev)
}

func (pe *PhysicsEngine) clampToBoard(p *Puck) {
	r := pe.Settings.PuckRadius
	p.Position.X = clamp(p.Position.X, r, pe.Settings.BoardWidth-r)
	p.Position.Y = clamp(p.Position.Y, r, pe.Settings.BoardHeight-r)
}

// scoringPuck returns the mover of a cross-player moving-vs-stationary hit,
// or nil when the hit doesn't score.
func scoringPuck(a, b *Puck) *Puck {
	if a.Player == b.Player {
		return nil
	}
	sa, sb := a.Speed(), b.Speed()
	switch {
	case sa > MovingThreshold && sb <= MovingThreshold:
		return a
	case sb > MovingThreshold && sa <= MovingThreshold:
		return b
	}
	return nil
}

func collisionPoints(relativeSpeed float64) int {
	pts := int(math.Floor(relativeSpeed))
	if pts < 1 {
		return 1
	}
	return pts
}
