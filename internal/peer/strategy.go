package peer

import (
	"math/rand"
	"time"

	"github.com/puckarena/backend/internal/game"
)

const placementAttempts = 64

// Scripted plays legal random placements and releases each charge after a
// random hold. It is not safe for concurrent use; the runner calls it from
// one goroutine.
type Scripted struct {
	Rand    *rand.Rand
	MinHold time.Duration
	MaxHold time.Duration
	// PowerUpChance is the probability of arming an unused power-up before
	// a placement.
	PowerUpChance float64

	releaseAt time.Time
}

func NewScripted(seed int64) *Scripted {
	return &Scripted{
		Rand:          rand.New(rand.NewSource(seed)),
		MinHold:       200 * time.Millisecond,
		MaxHold:       2500 * time.Millisecond,
		PowerUpChance: 0.2,
	}
}

func (b *Scripted) Decide(s *game.Session, now time.Time) []Event {
	m := s.Match
	if m.Ended() || m.ActivePlayer != s.Self {
		b.releaseAt = time.Time{}
		return nil
	}

	switch m.Status {
	case game.StatusCharging:
		if b.releaseAt.IsZero() {
			b.releaseAt = now.Add(b.hold())
		}
		if now.Before(b.releaseAt) {
			return nil
		}
		b.releaseAt = time.Time{}
		return []Event{{Kind: PointerDown}}

	case game.StatusIdle:
		// Placement rules depend on where pucks come to rest.
		if !game.AllStopped(m.Pucks) {
			return nil
		}
		pos, ok := b.pickPlacement(m, s.Self)
		if !ok {
			return nil
		}
		var events []Event
		if kind, ok := b.pickPowerUp(m, s.Self); ok {
			events = append(events, Event{Kind: ActivatePowerUp, PowerUp: kind})
		}
		return append(events,
			Event{Kind: PointerMove, X: pos.X, Y: pos.Y},
			Event{Kind: PointerDown, X: pos.X, Y: pos.Y},
		)
	}
	return nil
}

func (b *Scripted) hold() time.Duration {
	span := b.MaxHold - b.MinHold
	if span <= 0 {
		return b.MinHold
	}
	return b.MinHold + time.Duration(b.Rand.Int63n(int64(span)))
}

func (b *Scripted) pickPlacement(m *game.Match, self game.Player) (game.Vec2, bool) {
	s := m.Settings
	w := s.BoardWidth - 2*s.PuckRadius
	h := s.BoardHeight - 2*s.PuckRadius
	for i := 0; i < placementAttempts; i++ {
		pos := game.NewVec2(
			s.PuckRadius+b.Rand.Float64()*w,
			s.PuckRadius+b.Rand.Float64()*h,
		)
		if m.IsValidPlacement(self, pos) {
			return pos, true
		}
	}
	return game.Vec2{}, false
}

func (b *Scripted) pickPowerUp(m *game.Match, self game.Player) (game.PowerUp, bool) {
	if b.PowerUpChance <= 0 || b.Rand.Float64() >= b.PowerUpChance {
		return "", false
	}
	for _, kind := range []game.PowerUp{game.PowerRepel, game.PowerGhost} {
		if m.PowerUpState(self, kind) == game.PowerUnused {
			return kind, true
		}
	}
	return "", false
}
