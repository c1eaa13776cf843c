package game

import (
	"math"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestPlacementOutsideInsetIsNeverValid(t *testing.T) {
	s := DefaultSettings()
	rapid.Check(t, func(t *rapid.T) {
		m := NewMatch(s, ModeCollision, &fakeClock{now: epoch})
		x := rapid.Float64Range(-200, s.BoardWidth+200).Draw(t, "x")
		y := rapid.Float64Range(-200, s.BoardHeight+200).Draw(t, "y")

		inside := x >= s.PuckRadius && x <= s.BoardWidth-s.PuckRadius &&
			y >= s.PuckRadius && y <= s.BoardHeight-s.PuckRadius
		if got := m.IsValidPlacement(Player1, NewVec2(x, y)); got != inside {
			t.Fatalf("IsValidPlacement(%.3f, %.3f) = %v, want %v", x, y, got, inside)
		}
	})
}

func TestLaunchIsPerpendicularAndBounded(t *testing.T) {
	s := DefaultSettings()
	rapid.Check(t, func(t *rapid.T) {
		clk := &fakeClock{now: epoch}
		m := NewMatch(s, ModeCollision, clk)
		center := NewVec2(
			rapid.Float64Range(s.PuckRadius, s.BoardWidth-s.PuckRadius).Draw(t, "cx"),
			rapid.Float64Range(s.PuckRadius, s.BoardHeight-s.PuckRadius).Draw(t, "cy"),
		)
		hold := time.Duration(rapid.Int64Range(0, int64(20*time.Second)).Draw(t, "hold"))

		if err := m.StartCharge(Player1, center); err != nil {
			t.Fatalf("StartCharge: %v", err)
		}
		clk.Advance(hold)
		p, err := m.Launch(Player1)
		if err != nil {
			t.Fatalf("Launch: %v", err)
		}

		rope := p.Position.Minus(center)
		dir := p.Velocity.Normalize()
		if dot := dir.Dot(rope.Normalize()); math.Abs(dot) > 1e-9 {
			t.Fatalf("launch direction not perpendicular: dot=%g", dot)
		}
		speed := p.Speed()
		if speed < s.MinLaunchSpeed-1e-9 || speed > s.MaxLaunchSpeed+1e-9 {
			t.Fatalf("speed %.6f outside [%v, %v]", speed, s.MinLaunchSpeed, s.MaxLaunchSpeed)
		}
		if power := m.ChargePower(clk.Now()); power != 0 {
			t.Fatalf("charge power after launch = %v", power)
		}
	})
}

func TestImpulseAlwaysSeparates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := frictionless()
		s.CollisionElasticity = rapid.Float64Range(0, 1).Draw(t, "e")
		pe := NewPhysicsEngine(s)

		a := newTestPuck("1-1", Player1, 400, 300,
			rapid.Float64Range(-20, 20).Draw(t, "avx"), rapid.Float64Range(-20, 20).Draw(t, "avy"))
		angle := rapid.Float64Range(0, 2*math.Pi).Draw(t, "angle")
		dist := rapid.Float64Range(1, 2*s.PuckRadius-0.01).Draw(t, "dist")
		b := newTestPuck("2-1", Player2, 400+dist*math.Cos(angle), 300+dist*math.Sin(angle),
			rapid.Float64Range(-20, 20).Draw(t, "bvx"), rapid.Float64Range(-20, 20).Draw(t, "bvy"))

		n := a.Position.Minus(b.Position).Normalize()
		before := a.Velocity.Minus(b.Velocity).Dot(n)

		pe.collide(a, b, a.Position.DistanceTo(b.Position))

		after := a.Velocity.Minus(b.Velocity).Dot(n)
		if before < 0 {
			if after < -1e-9 {
				t.Fatalf("still approaching after impulse: before=%g after=%g", before, after)
			}
			if want := -s.CollisionElasticity * before; math.Abs(after-want) > 1e-9 {
				t.Fatalf("normal speed %g, want %g", after, want)
			}
		} else if math.Abs(after-before) > 1e-9 {
			t.Fatalf("separating pair was modified: before=%g after=%g", before, after)
		}
	})
}
