package game

// Snapshot is a read-only copy of the match for rendering.
type Snapshot struct {
	Mode            GameMode                      `json:"mode"`
	Status          MatchStatus                   `json:"status"`
	ActivePlayer    Player                        `json:"active_player"`
	Pucks           []Puck                        `json:"pucks"`
	Charging        *ChargingPuck                 `json:"charging,omitempty"`
	ChargePosition  *Vec2                         `json:"charge_position,omitempty"`
	Scores          Scores                        `json:"scores"`
	CollisionScores Scores                        `json:"collision_scores"`
	PuckCounts      Scores                        `json:"puck_counts"`
	Winner          Outcome                       `json:"winner,omitempty"`
	Grid            *Grid                         `json:"grid,omitempty"`
	PowerUps        map[Player]map[PowerUp]string `json:"power_ups"`
}

// Snapshot copies the current state. The grid is shared, not copied; it is
// replaced, never mutated, by later ticks.
func (m *Match) Snapshot() Snapshot {
	snap := Snapshot{
		Mode:            m.Mode,
		Status:          m.Status,
		ActivePlayer:    m.ActivePlayer,
		Pucks:           make([]Puck, len(m.Pucks)),
		Scores:          m.Scores,
		CollisionScores: m.CollisionScores,
		PuckCounts:      m.PuckCounts,
		Winner:          m.Winner,
		Grid:            m.Grid,
		PowerUps:        make(map[Player]map[PowerUp]string, 2),
	}
	for i, p := range m.Pucks {
		snap.Pucks[i] = *p
	}
	if m.Charging != nil {
		c := *m.Charging
		pos := c.Position()
		snap.Charging = &c
		snap.ChargePosition = &pos
	}
	for _, p := range []Player{Player1, Player2} {
		snap.PowerUps[p] = map[PowerUp]string{
			PowerRepel: m.powerUpState(p, PowerRepel).String(),
			PowerGhost: m.powerUpState(p, PowerGhost).String(),
		}
	}
	return snap
}
