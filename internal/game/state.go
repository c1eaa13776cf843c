package game

// MatchStatus is the state of the placement/launch state machine.
type MatchStatus string

const (
	StatusIdle     MatchStatus = "IDLE"
	StatusCharging MatchStatus = "CHARGING"
	StatusEnded    MatchStatus = "ENDED"
)

// GameMode selects how scores are aggregated.
type GameMode string

const (
	ModeCollision GameMode = "collision"
	ModeTerritory GameMode = "territory"
)

func (m GameMode) Valid() bool {
	return m == ModeCollision || m == ModeTerritory
}

// Outcome is the result of a finished match.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomePlayer1 Outcome = "1"
	OutcomePlayer2 Outcome = "2"
	OutcomeTie     Outcome = "tie"
)

// PowerUp names a one-shot ability.
type PowerUp string

const (
	PowerRepel PowerUp = "repel"
	PowerGhost PowerUp = "ghost"
)

func (p PowerUp) Valid() bool {
	return p == PowerRepel || p == PowerGhost
}

// PowerUpState tracks a single power-up for a single player.
type PowerUpState int

const (
	PowerUnused PowerUpState = iota
	PowerPending
	PowerConsumed
)

func (s PowerUpState) String() string {
	switch s {
	case PowerUnused:
		return "unused"
	case PowerPending:
		return "pending"
	case PowerConsumed:
		return "consumed"
	}
	return "unknown"
}

// Scores is a per-player integer tally.
type Scores struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

func (s Scores) Get(p Player) int {
	if p == Player2 {
		return s.Player2
	}
	return s.Player1
}

func (s *Scores) Add(p Player, n int) {
	switch p {
	case Player1:
		s.Player1 += n
	case Player2:
		s.Player2 += n
	}
}
