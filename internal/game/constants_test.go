package game

import "testing"

func TestDefaultSettingsAreValid(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("default settings rejected: %v", err)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	cases := map[string]func(*Settings){
		"tiny board":      func(s *Settings) { s.BoardWidth = 30 },
		"inverted speeds": func(s *Settings) { s.MinLaunchSpeed = 30 },
		"friction":        func(s *Settings) { s.Friction = 1.2 },
		"elasticity":      func(s *Settings) { s.CollisionElasticity = -0.1 },
		"grid":            func(s *Settings) { s.GridSize = 0 },
		"tick rate":       func(s *Settings) { s.TickRate = 0 },
		"no pucks":        func(s *Settings) { s.MaxPucksPerPlayer = 0 },
		"rope":            func(s *Settings) { s.RotationRadius = 0 },
	}
	for name, mutate := range cases {
		s := DefaultSettings()
		mutate(&s)
		if err := s.Validate(); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestViewportScalesPointer(t *testing.T) {
	v := NewViewport(DefaultSettings(), 400, 300)
	if got := v.ToBoard(200, 150); got != NewVec2(400, 300) {
		t.Errorf("ToBoard = %+v", got)
	}
	if id := NewViewport(DefaultSettings(), 0, 0); id.ToBoard(5, 6) != NewVec2(5, 6) {
		t.Error("degenerate viewport should be identity")
	}
}
