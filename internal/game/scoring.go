package game

import "time"

// TickResult is what one simulation step produced.
type TickResult struct {
	Events []CollisionEvent
	Ended  bool
}

// Tick runs one simulation step: charge rotation, physics, score
// aggregation and the end-of-game check.
func (m *Match) Tick(now time.Time) TickResult {
	if m.Status == StatusCharging {
		m.UpdateCharge(now)
	}

	events := m.physics.Step(m.Pucks, now)
	for _, ev := range events {
		m.awardCollision(ev)
	}
	m.refreshScores()

	return TickResult{
		Events: events,
		Ended:  m.CheckGameEnd(),
	}
}

func (m *Match) awardCollision(ev CollisionEvent) {
	if ev.Type != EventPuck || ev.Points <= 0 || !ev.Scorer.Valid() {
		return
	}
	if m.Mode == ModeTerritory {
		m.CollisionScores.Add(ev.Scorer, ev.Points)
		return
	}
	m.Scores.Add(ev.Scorer, ev.Points)
}

// refreshScores recomputes territory-derived scores. Area only counts once
// both players have a puck on the board.
func (m *Match) refreshScores() {
	if m.Mode != ModeTerritory {
		return
	}
	m.Grid = ComputeGrid(m.Pucks, m.Settings)

	var area AreaScore
	if m.bothPlaced() {
		area = ComputeAreaScore(m.Grid, m.Settings.ScorePerArea)
	}
	m.Scores = Scores{
		Player1: area.Player1 + m.CollisionScores.Player1,
		Player2: area.Player2 + m.CollisionScores.Player2,
	}
}
