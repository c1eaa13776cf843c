package game

import (
	"errors"
	"log"
	"math"
	"time"
)

// Rejection reasons for player actions. A rejected action leaves the match
// untouched.
var (
	ErrGameEnded        = errors.New("game has ended")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrOutOfBounds      = errors.New("placement out of bounds")
	ErrRestrictedZone   = errors.New("too close to an opponent puck")
	ErrNotYourTerritory = errors.New("cell is not your territory")
	ErrNoPucksLeft      = errors.New("no pucks left")
	ErrAlreadyCharging  = errors.New("a puck is already charging")
	ErrNotCharging      = errors.New("no puck is charging")
	ErrPowerUpUsed      = errors.New("power-up already used")
	ErrInvalidPowerUp   = errors.New("unknown power-up")
)

// Match is the full state of one two-player game as seen by one peer.
// It is not safe for concurrent use; a single goroutine owns it.
type Match struct {
	Settings        Settings      `json:"settings"`
	Mode            GameMode      `json:"mode"`
	Pucks           []*Puck       `json:"pucks"`
	ActivePlayer    Player        `json:"active_player"`
	Scores          Scores        `json:"scores"`
	CollisionScores Scores        `json:"collision_scores"`
	PuckCounts      Scores        `json:"puck_counts"`
	Status          MatchStatus   `json:"status"`
	Winner          Outcome       `json:"winner"`
	Charging        *ChargingPuck `json:"charging,omitempty"`
	Grid            *Grid         `json:"-"`

	powerUps [2]map[PowerUp]PowerUpState
	clock    Clock
	physics  *PhysicsEngine
}

// NewMatch creates a match in its initial state with player 1 to move.
func NewMatch(s Settings, mode GameMode, clock Clock) *Match {
	if clock == nil {
		clock = SystemClock
	}
	m := &Match{
		Settings: s,
		Mode:     mode,
		clock:    clock,
		physics:  NewPhysicsEngine(s),
	}
	m.Reset()
	return m
}

// Reset returns the match to its initial values.
func (m *Match) Reset() {
	m.Pucks = make([]*Puck, 0, 2*m.Settings.MaxPucksPerPlayer)
	m.ActivePlayer = Player1
	m.Scores = Scores{}
	m.CollisionScores = Scores{}
	m.PuckCounts = Scores{}
	m.Status = StatusIdle
	m.Winner = OutcomeNone
	m.Charging = nil
	m.Grid = nil
	for i := range m.powerUps {
		m.powerUps[i] = map[PowerUp]PowerUpState{
			PowerRepel: PowerUnused,
			PowerGhost: PowerUnused,
		}
	}
}

func (m *Match) Now() time.Time {
	return m.clock.Now()
}

// bothPlaced reports whether each player has at least one puck on the board.
func (m *Match) bothPlaced() bool {
	return m.PuckCounts.Player1 > 0 && m.PuckCounts.Player2 > 0
}

// ValidatePlacement checks whether player may place a puck at pos.
func (m *Match) ValidatePlacement(player Player, pos Vec2) error {
	if m.Status == StatusEnded {
		return ErrGameEnded
	}
	if player != m.ActivePlayer {
		return ErrNotYourTurn
	}

	r := m.Settings.PuckRadius
	if pos.X < r || pos.X > m.Settings.BoardWidth-r || pos.Y < r || pos.Y > m.Settings.BoardHeight-r {
		return ErrOutOfBounds
	}

	if !m.bothPlaced() {
		return nil
	}

	zone := m.Settings.RestrictedZoneRadius
	for _, p := range m.Pucks {
		if p.Player != player && pos.DistanceSquaredTo(p.Position) < zone*zone {
			return ErrRestrictedZone
		}
	}

	if m.Mode == ModeTerritory {
		grid := ComputeGrid(m.Pucks, m.Settings)
		if grid.OwnerAt(pos.X, pos.Y) != player {
			return ErrNotYourTerritory
		}
	}
	return nil
}

// IsValidPlacement is the predicate form of ValidatePlacement.
func (m *Match) IsValidPlacement(player Player, pos Vec2) bool {
	return m.ValidatePlacement(player, pos) == nil
}

// StartCharge attaches a new puck to a rotation arm centered at pos.
func (m *Match) StartCharge(player Player, pos Vec2) error {
	switch m.Status {
	case StatusEnded:
		return ErrGameEnded
	case StatusCharging:
		return ErrAlreadyCharging
	}
	if player != m.ActivePlayer {
		return ErrNotYourTurn
	}
	if m.PuckCounts.Get(player) >= m.Settings.MaxPucksPerPlayer {
		return ErrNoPucksLeft
	}
	if err := m.ValidatePlacement(player, pos); err != nil {
		return err
	}

	m.Charging = &ChargingPuck{
		Player:          player,
		Center:          pos,
		Radius:          m.Settings.RotationRadius,
		ChargeStartTime: m.clock.Now(),
	}
	m.Status = StatusCharging
	return nil
}

// UpdateCharge advances the rotation angle of the charging puck so that
// one revolution takes RotationPeriod.
func (m *Match) UpdateCharge(now time.Time) {
	if m.Charging == nil {
		return
	}
	elapsed := now.Sub(m.Charging.ChargeStartTime)
	m.Charging.Angle = float64(elapsed) / float64(m.Settings.RotationPeriod) * 2 * math.Pi
}

// ChargePower is the launch power in [0, 1] for a charge held until now.
func (m *Match) ChargePower(now time.Time) float64 {
	if m.Charging == nil {
		return 0
	}
	held := now.Sub(m.Charging.ChargeStartTime)
	return clamp(float64(held)/float64(m.Settings.MaxChargeTime), 0, 1)
}

// LaunchVelocity computes the velocity for a charge held until now: the
// rope rotated by +90 degrees, scaled between the min and max speeds.
func (m *Match) LaunchVelocity(now time.Time) Vec2 {
	if m.Charging == nil {
		return Vec2{}
	}
	m.UpdateCharge(now)
	dir := m.Charging.Rope().LeftNormal().Normalize()
	power := m.ChargePower(now)
	speed := m.Settings.MinLaunchSpeed + (m.Settings.MaxLaunchSpeed-m.Settings.MinLaunchSpeed)*power
	return dir.Times(speed)
}

// Launch releases the charging puck. The new puck carries any pending
// power-ups of its owner, and the turn passes to the other player.
func (m *Match) Launch(player Player) (*Puck, error) {
	if m.Status == StatusEnded {
		return nil, ErrGameEnded
	}
	if m.Status != StatusCharging || m.Charging == nil {
		return nil, ErrNotCharging
	}
	if player != m.Charging.Player || player != m.ActivePlayer {
		return nil, ErrNotYourTurn
	}

	now := m.clock.Now()
	vel := m.LaunchVelocity(now)
	puck := &Puck{
		ID:       PuckID(player, m.PuckCounts.Get(player)+1),
		Position: m.Charging.Position(),
		Velocity: vel,
		Player:   player,
	}
	if m.powerUpState(player, PowerRepel) == PowerPending {
		puck.HasRepel = true
		m.setPowerUp(player, PowerRepel, PowerConsumed)
	}
	if m.powerUpState(player, PowerGhost) == PowerPending {
		puck.HasGhost = true
		puck.GhostStartTime = now
		m.setPowerUp(player, PowerGhost, PowerConsumed)
	}

	m.addPuck(puck)
	m.Charging = nil
	m.Status = StatusIdle
	m.ActivePlayer = player.Other()
	return puck, nil
}

// CancelCharge drops the charging puck and returns to Idle.
func (m *Match) CancelCharge() error {
	if m.Status != StatusCharging {
		return ErrNotCharging
	}
	m.Charging = nil
	m.Status = StatusIdle
	return nil
}

func (m *Match) addPuck(p *Puck) {
	m.Pucks = append(m.Pucks, p)
	m.PuckCounts.Add(p.Player, 1)
}

// PuckByID finds a puck by its identifier.
func (m *Match) PuckByID(id string) *Puck {
	if id == "" {
		return nil
	}
	for _, p := range m.Pucks {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PuckNear finds the first puck within eps of pos on both axes.
func (m *Match) PuckNear(pos Vec2, eps float64) *Puck {
	for _, p := range m.Pucks {
		if p.Position.ApproxEqual(pos, eps) {
			return p
		}
	}
	return nil
}

func (m *Match) powerUpState(p Player, kind PowerUp) PowerUpState {
	if !p.Valid() {
		return PowerConsumed
	}
	return m.powerUps[p-1][kind]
}

func (m *Match) setPowerUp(p Player, kind PowerUp, st PowerUpState) {
	if !p.Valid() {
		return
	}
	m.powerUps[p-1][kind] = st
}

// PowerUpState reports the state of one power-up for a player.
func (m *Match) PowerUpState(p Player, kind PowerUp) PowerUpState {
	return m.powerUpState(p, kind)
}

// ActivatePowerUp arms a power-up for the player's next launch.
func (m *Match) ActivatePowerUp(player Player, kind PowerUp) error {
	if !kind.Valid() {
		return ErrInvalidPowerUp
	}
	if m.Status == StatusEnded {
		return ErrGameEnded
	}
	if player != m.ActivePlayer {
		return ErrNotYourTurn
	}
	if m.powerUpState(player, kind) != PowerUnused {
		return ErrPowerUpUsed
	}
	m.setPowerUp(player, kind, PowerPending)
	return nil
}

// CheckGameEnd ends the match once every puck is used and the board has
// come to rest. It returns true only on the call that ends the match.
func (m *Match) CheckGameEnd() bool {
	if m.Status == StatusEnded {
		return false
	}
	limit := m.Settings.MaxPucksPerPlayer
	if m.PuckCounts.Player1 < limit || m.PuckCounts.Player2 < limit {
		return false
	}
	if !AllStopped(m.Pucks) {
		return false
	}

	switch {
	case m.Scores.Player1 > m.Scores.Player2:
		m.Winner = OutcomePlayer1
	case m.Scores.Player2 > m.Scores.Player1:
		m.Winner = OutcomePlayer2
	default:
		m.Winner = OutcomeTie
	}
	m.Charging = nil
	m.Status = StatusEnded
	log.Printf("[MATCH] Game over: p1=%d p2=%d winner=%s", m.Scores.Player1, m.Scores.Player2, m.Winner)
	return true
}

// Ended reports whether the match has reached its terminal state.
func (m *Match) Ended() bool {
	return m.Status == StatusEnded
}
