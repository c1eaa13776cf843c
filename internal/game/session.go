package game

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/puckarena/backend/internal/protocol"
)

// Reasons a remote message is dropped without touching the match.
var (
	ErrDuplicateLaunch    = errors.New("duplicate launch")
	ErrUnmatchedCollision = errors.New("collision does not match local pucks")
	ErrInvalidMessage     = errors.New("invalid message")
)

// Broadcaster delivers messages to the other peer in the room.
type Broadcaster interface {
	Broadcast(msg protocol.Message) error
}

// Session is one peer's view of a match plus the sync rules that keep it
// in agreement with the other peer. Local actions and remote messages must
// be applied from the same goroutine.
type Session struct {
	Match *Match
	Self  Player

	out    Broadcaster
	outbox []protocol.Message
}

// NewSession binds a match to the local seat. out may be nil for a match
// with no remote peer.
func NewSession(m *Match, self Player, out Broadcaster) *Session {
	return &Session{
		Match: m,
		Self:  self,
		out:   out,
	}
}

// StartCharge places the local player's next puck on its rotation arm.
func (s *Session) StartCharge(pos Vec2) error {
	return s.Match.StartCharge(s.Self, pos)
}

// CancelCharge abandons the charging puck.
func (s *Session) CancelCharge() error {
	return s.Match.CancelCharge()
}

// Launch releases the charging puck and announces it.
func (s *Session) Launch() (*Puck, error) {
	p, err := s.Match.Launch(s.Self)
	if err != nil {
		return nil, err
	}
	s.enqueue(protocol.LaunchMsg{
		Puck:     toWire(p),
		NextTurn: int(s.Match.ActivePlayer),
	})
	s.flush()
	return p, nil
}

// ActivatePowerUp arms a power-up for the local player's next launch.
func (s *Session) ActivatePowerUp(kind PowerUp) error {
	if err := s.Match.ActivatePowerUp(s.Self, kind); err != nil {
		return err
	}
	s.enqueue(protocol.PowerUpMsg{Kind: string(kind), Player: int(s.Self)})
	s.flush()
	return nil
}

// Reset restarts the match locally and asks the peer to do the same.
func (s *Session) Reset() {
	s.Match.Reset()
	s.enqueue(protocol.ResetMsg{Initiator: int(s.Self)})
	s.flush()
}

// Tick runs one simulation step. When the local seat is the active player
// it reports each resolved puck collision once, after the step completes.
func (s *Session) Tick(now time.Time) TickResult {
	res := s.Match.Tick(now)

	if s.Match.ActivePlayer == s.Self {
		seen := make(map[[2]string]bool)
		for _, ev := range res.Events {
			if ev.Type != EventPuck {
				continue
			}
			key := [2]string{ev.Puck1, ev.Puck2}
			if seen[key] {
				continue
			}
			seen[key] = true

			p1, p2 := s.Match.PuckByID(ev.Puck1), s.Match.PuckByID(ev.Puck2)
			if p1 == nil || p2 == nil {
				continue
			}
			s.enqueue(protocol.CollisionMsg{Puck1: toWire(p1), Puck2: toWire(p2)})
		}
	}

	s.flush()
	return res
}

// ApplyRemote merges a message from the other peer into the local match.
// A non-nil error means the message was dropped and nothing changed.
func (s *Session) ApplyRemote(msg protocol.Message) error {
	switch m := msg.(type) {
	case protocol.LaunchMsg:
		return s.applyLaunch(m)
	case protocol.CollisionMsg:
		return s.applyCollision(m)
	case protocol.PowerUpMsg:
		return s.applyPowerUp(m)
	case protocol.ResetMsg:
		if Player(m.Initiator) == s.Self {
			return nil
		}
		s.Match.Reset()
		log.Printf("[SYNC] Match reset by player %d", m.Initiator)
		return nil
	}
	return fmt.Errorf("%w: unexpected %T", ErrInvalidMessage, msg)
}

func (s *Session) applyLaunch(m protocol.LaunchMsg) error {
	player := Player(m.Puck.Player)
	if !player.Valid() {
		return fmt.Errorf("%w: launch for player %d", ErrInvalidMessage, m.Puck.Player)
	}

	p := fromWire(m.Puck)
	if p.ID == "" {
		p.ID = PuckID(player, s.Match.PuckCounts.Get(player)+1)
	}
	if s.Match.PuckByID(p.ID) != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateLaunch, p.ID)
	}
	if s.Match.PuckCounts.Get(player) >= s.Match.Settings.MaxPucksPerPlayer {
		return fmt.Errorf("%w: player %d has no pucks left", ErrInvalidMessage, player)
	}

	if p.HasGhost && p.GhostStartTime.IsZero() {
		p.GhostStartTime = s.Match.Now()
	}

	s.Match.addPuck(p)
	if p.HasRepel {
		s.Match.setPowerUp(player, PowerRepel, PowerConsumed)
	}
	if p.HasGhost {
		s.Match.setPowerUp(player, PowerGhost, PowerConsumed)
	}

	next := Player(m.NextTurn)
	if !next.Valid() {
		next = player.Other()
	}
	s.Match.ActivePlayer = next
	return nil
}

func (s *Session) applyCollision(m protocol.CollisionMsg) error {
	p1 := s.locate(m.Puck1)
	p2 := s.locate(m.Puck2)
	if p1 == nil || p2 == nil || p1 == p2 {
		return ErrUnmatchedCollision
	}
	p1.Velocity = Vec2{X: m.Puck1.VX, Y: m.Puck1.VY}
	p2.Velocity = Vec2{X: m.Puck2.VX, Y: m.Puck2.VY}
	return nil
}

// locate finds the local puck a wire puck refers to: by ID when known,
// otherwise by position.
func (s *Session) locate(w protocol.PuckState) *Puck {
	if p := s.Match.PuckByID(w.ID); p != nil {
		return p
	}
	return s.Match.PuckNear(Vec2{X: w.X, Y: w.Y}, PositionMatchEpsilon)
}

func (s *Session) applyPowerUp(m protocol.PowerUpMsg) error {
	player := Player(m.Player)
	kind := PowerUp(m.Kind)
	if !player.Valid() || !kind.Valid() {
		return fmt.Errorf("%w: power-up %q for player %d", ErrInvalidMessage, m.Kind, m.Player)
	}
	if s.Match.powerUpState(player, kind) != PowerUnused {
		return nil
	}
	s.Match.setPowerUp(player, kind, PowerPending)
	return nil
}

func (s *Session) enqueue(msg protocol.Message) {
	s.outbox = append(s.outbox, msg)
}

func (s *Session) flush() {
	pending := s.outbox
	s.outbox = nil
	if s.out == nil {
		return
	}
	for _, msg := range pending {
		if err := s.out.Broadcast(msg); err != nil {
			log.Printf("[SYNC] Failed to send %s: %v", msg.MessageType(), err)
		}
	}
}

func toWire(p *Puck) protocol.PuckState {
	w := protocol.PuckState{
		ID:       p.ID,
		X:        p.Position.X,
		Y:        p.Position.Y,
		VX:       p.Velocity.X,
		VY:       p.Velocity.Y,
		Player:   int(p.Player),
		HasRepel: p.HasRepel,
		HasGhost: p.HasGhost,
	}
	if p.HasGhost && !p.GhostStartTime.IsZero() {
		w.GhostStartMs = p.GhostStartTime.UnixMilli()
	}
	return w
}

func fromWire(w protocol.PuckState) *Puck {
	p := &Puck{
		ID:       w.ID,
		Position: Vec2{X: w.X, Y: w.Y},
		Velocity: Vec2{X: w.VX, Y: w.VY},
		Player:   Player(w.Player),
		HasRepel: w.HasRepel,
		HasGhost: w.HasGhost,
	}
	if w.HasGhost && w.GhostStartMs > 0 {
		p.GhostStartTime = time.UnixMilli(w.GhostStartMs)
	}
	return p
}
