package game

import (
	"math"
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestPuck(id string, player Player, x, y, vx, vy float64) *Puck {
	return &Puck{
		ID:       id,
		Player:   player,
		Position: NewVec2(x, y),
		Velocity: NewVec2(vx, vy),
	}
}

// frictionless keeps velocities constant between contacts.
func frictionless() Settings {
	s := DefaultSettings()
	s.Friction = 1
	return s
}

func TestFrictionStopsPuck(t *testing.T) {
	pe := NewPhysicsEngine(DefaultSettings())
	p := newTestPuck("1-1", Player1, 400, 300, 3, 0)
	pucks := []*Puck{p}

	for i := 0; i < 1000 && p.IsMoving(); i++ {
		pe.Step(pucks, epoch)
	}

	if p.IsMoving() {
		t.Fatalf("puck still moving: v=%+v", p.Velocity)
	}
	if p.Velocity.X != 0 || p.Velocity.Y != 0 {
		t.Errorf("velocity not snapped to zero: %+v", p.Velocity)
	}
	// Geometric series bound: 3 / (1 - 0.98) = 150.
	if p.Position.X <= 400 || p.Position.X > 550 {
		t.Errorf("unexpected resting x=%.2f", p.Position.X)
	}
}

func TestWallCollisionReflectsAndDamps(t *testing.T) {
	s := frictionless()
	pe := NewPhysicsEngine(s)
	p := newTestPuck("1-1", Player1, 775, 300, 10, 0)

	events := pe.Step([]*Puck{p}, epoch)

	if p.Position.X != s.BoardWidth-s.PuckRadius {
		t.Errorf("puck not clamped to wall: x=%.2f", p.Position.X)
	}
	// Speed 10 falls in the top tier.
	if math.Abs(p.Velocity.X-(-7)) > 1e-9 {
		t.Errorf("expected vx=-7 after wall bounce, got %.4f", p.Velocity.X)
	}
	if len(events) != 1 || events[0].Type != EventWall {
		t.Errorf("expected one wall event, got %+v", events)
	}
}

func TestWallDampingTiers(t *testing.T) {
	s := DefaultSettings()
	cases := []struct {
		speed float64
		want  float64
	}{
		{0.5, 0.3},
		{1.5, 0.5},
		{2, 0.7},
		{15, 0.7},
	}
	for _, c := range cases {
		if got := s.wallDampingFor(c.speed); got != c.want {
			t.Errorf("speed %.1f: damping %.2f, want %.2f", c.speed, got, c.want)
		}
	}

	s.WallDamping = nil
	if got := s.wallDampingFor(10); got != s.CollisionElasticity {
		t.Errorf("untiered damping should fall back to elasticity, got %.2f", got)
	}
}

func TestElasticCollisionPreservesNormalSpeed(t *testing.T) {
	s := frictionless()
	s.CollisionElasticity = 1
	pe := NewPhysicsEngine(s)

	a := newTestPuck("1-1", Player1, 300, 300, 6, 2)
	b := newTestPuck("2-1", Player2, 330, 310, -1, 0.5)

	dist := a.Position.DistanceTo(b.Position)
	n := a.Position.Minus(b.Position).Normalize()
	before := a.Velocity.Minus(b.Velocity).Dot(n)
	if before >= 0 {
		t.Fatalf("test setup: pucks are not approaching (vn=%.3f)", before)
	}

	pe.collide(a, b, dist)

	after := a.Velocity.Minus(b.Velocity).Dot(n)
	if math.Abs(after+before) > 1e-9 {
		t.Errorf("normal speed not preserved: before=%.6f after=%.6f", before, after)
	}
}

func TestCollisionSeparatesOverlap(t *testing.T) {
	s := frictionless()
	pe := NewPhysicsEngine(s)
	a := newTestPuck("1-1", Player1, 300, 300, 5, 0)
	b := newTestPuck("2-1", Player2, 330, 300, 0, 0)

	pe.collide(a, b, 30)

	if d := a.Position.DistanceTo(b.Position); math.Abs(d-2*s.PuckRadius) > 1e-9 {
		t.Errorf("pucks should touch after separation, distance=%.4f", d)
	}
	if a.Position.X != 295 || b.Position.X != 335 {
		t.Errorf("overlap not split evenly: a=%.2f b=%.2f", a.Position.X, b.Position.X)
	}
}

func TestSeparatingPairIsIgnored(t *testing.T) {
	pe := NewPhysicsEngine(frictionless())
	a := newTestPuck("1-1", Player1, 300, 300, -3, 0)
	b := newTestPuck("2-1", Player2, 330, 300, 0, 0)

	pe.collide(a, b, 30)

	if a.Velocity.X != -3 || b.Velocity.X != 0 {
		t.Errorf("separating pair was resolved: a=%+v b=%+v", a.Velocity, b.Velocity)
	}
	if len(pe.Events) != 0 {
		t.Errorf("expected no events, got %+v", pe.Events)
	}
}

// Player 2's puck slides into a resting player 1 puck.
func TestScenarioMoverScores(t *testing.T) {
	m := NewMatch(frictionless(), ModeCollision, &fakeClock{now: epoch})
	target := newTestPuck("1-1", Player1, 100, 300, 0, 0)
	mover := newTestPuck("2-1", Player2, 700, 300, -10, 0)
	m.Pucks = []*Puck{target, mover}

	var hit *CollisionEvent
	for i := 0; i < 100 && hit == nil; i++ {
		res := m.Tick(epoch)
		for _, ev := range res.Events {
			if ev.Type == EventPuck {
				ev := ev
				hit = &ev
				break
			}
		}
	}
	if hit == nil {
		t.Fatal("pucks never collided")
	}

	if hit.Scorer != Player2 {
		t.Errorf("expected player 2 to score, got %v", hit.Scorer)
	}
	if hit.Points != 10 {
		t.Errorf("expected 10 points for relative speed 10, got %d", hit.Points)
	}
	if m.Scores.Player2 != 10 || m.Scores.Player1 != 0 {
		t.Errorf("unexpected scores %+v", m.Scores)
	}

	n := target.Position.Minus(mover.Position).Normalize()
	if vn := target.Velocity.Minus(mover.Velocity).Dot(n); vn < 0 {
		t.Errorf("pucks still approaching after collision: vn=%.4f", vn)
	}
}

func TestSamePlayerHitDoesNotScore(t *testing.T) {
	pe := NewPhysicsEngine(frictionless())
	a := newTestPuck("1-1", Player1, 300, 300, 8, 0)
	b := newTestPuck("1-2", Player1, 330, 300, 0, 0)

	pe.collide(a, b, 30)

	if len(pe.Events) != 1 {
		t.Fatalf("expected a collision event, got %d", len(pe.Events))
	}
	if pe.Events[0].Points != 0 {
		t.Errorf("same-player hit scored %d", pe.Events[0].Points)
	}
}

func TestMovingVersusMovingDoesNotScore(t *testing.T) {
	pe := NewPhysicsEngine(frictionless())
	a := newTestPuck("1-1", Player1, 300, 300, 8, 0)
	b := newTestPuck("2-1", Player2, 330, 300, -4, 0)

	pe.collide(a, b, 30)

	if len(pe.Events) != 1 || pe.Events[0].Points != 0 {
		t.Errorf("head-on hit of two moving pucks should not score: %+v", pe.Events)
	}
}

func TestGentleCatchUpDoesNotScore(t *testing.T) {
	pe := NewPhysicsEngine(frictionless())
	a := newTestPuck("1-1", Player1, 300, 300, 1.05, 0)
	b := newTestPuck("2-1", Player2, 329, 300, 0.9, 0)

	pe.collide(a, b, 29)

	if len(pe.Events) != 1 {
		t.Fatalf("expected a collision event, got %d", len(pe.Events))
	}
	if ev := pe.Events[0]; ev.Points != 0 || ev.Scorer != NoPlayer {
		t.Errorf("relative speed %.2f should not score: %+v", ev.Speed, ev)
	}
}

func TestSlowHitScoresAtLeastOne(t *testing.T) {
	if got := collisionPoints(1.2); got != 1 {
		t.Errorf("collisionPoints(1.2) = %d, want 1", got)
	}
	if got := collisionPoints(0.3); got != 1 {
		t.Errorf("collisionPoints(0.3) = %d, want 1", got)
	}
	if got := collisionPoints(7.9); got != 7 {
		t.Errorf("collisionPoints(7.9) = %d, want 7", got)
	}
}

func TestGhostPassesThroughUntilExpired(t *testing.T) {
	s := frictionless()
	pe := NewPhysicsEngine(s)
	ghost := newTestPuck("1-1", Player1, 300, 300, 5, 0)
	ghost.HasGhost = true
	ghost.GhostStartTime = epoch
	other := newTestPuck("2-1", Player2, 330, 300, 0, 0)

	pe.resolvePair(ghost, other, epoch.Add(s.GhostDuration/2))
	if ghost.Velocity.X != 5 || other.Velocity.X != 0 {
		t.Errorf("ghost puck collided: ghost=%+v other=%+v", ghost.Velocity, other.Velocity)
	}

	pe.resolvePair(ghost, other, epoch.Add(s.GhostDuration+time.Millisecond))
	if ghost.HasGhost {
		t.Error("ghost should have expired")
	}
	if other.Velocity.X <= 0 {
		t.Errorf("expired ghost should collide normally, other v=%+v", other.Velocity)
	}
}

func TestRepelPushesAwayWithoutContact(t *testing.T) {
	s := frictionless()
	pe := NewPhysicsEngine(s)
	repel := newTestPuck("1-1", Player1, 300, 300, 2, 0)
	repel.HasRepel = true
	other := newTestPuck("2-1", Player2, 350, 300, 0, 0)

	pe.resolvePair(repel, other, epoch)

	ratio := 50 / s.RepelRadius
	want := s.RepelForce / (ratio * ratio)
	if math.Abs(other.Velocity.X-want) > 1e-9 || other.Velocity.Y != 0 {
		t.Errorf("expected push (%.4f, 0), got %+v", want, other.Velocity)
	}
	if repel.Velocity.X != 2 {
		t.Errorf("repel puck velocity changed: %+v", repel.Velocity)
	}
}

func TestRestingRepelPuckCollidesNormally(t *testing.T) {
	pe := NewPhysicsEngine(frictionless())
	repel := newTestPuck("1-1", Player1, 330, 300, 0, 0)
	repel.HasRepel = true
	mover := newTestPuck("2-1", Player2, 300, 300, 6, 0)

	pe.resolvePair(repel, mover, epoch)

	if len(pe.Events) != 1 || pe.Events[0].Type != EventPuck {
		t.Fatalf("expected a discrete collision, got %+v", pe.Events)
	}
	if repel.Velocity.X <= 0 {
		t.Errorf("resting repel puck should be knocked away, v=%+v", repel.Velocity)
	}
}

func TestStepReportsEachPairOnce(t *testing.T) {
	pe := NewPhysicsEngine(frictionless())
	pucks := []*Puck{
		newTestPuck("1-1", Player1, 300, 300, 4, 0),
		newTestPuck("2-1", Player2, 335, 300, 0, 0),
	}

	events := pe.Step(pucks, epoch)

	n := 0
	for _, ev := range events {
		if ev.Type == EventPuck {
			n++
		}
	}
	if n != 1 {
		t.Errorf("expected one puck event, got %d", n)
	}
}

func TestStepEventsSurviveNextStep(t *testing.T) {
	pe := NewPhysicsEngine(frictionless())
	first := pe.Step([]*Puck{newTestPuck("1-1", Player1, 775, 300, 10, 0)}, epoch)
	if len(first) != 1 || first[0].Type != EventWall {
		t.Fatalf("expected one wall event, got %+v", first)
	}

	pe.Step([]*Puck{
		newTestPuck("1-1", Player1, 300, 300, 4, 0),
		newTestPuck("2-1", Player2, 335, 300, 0, 0),
	}, epoch)

	if first[0].Type != EventWall {
		t.Errorf("earlier events were overwritten: %+v", first)
	}
}
