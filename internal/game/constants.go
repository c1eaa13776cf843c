package game

import (
	"errors"
	"fmt"
	"time"
)

// Board and gameplay defaults. These must stay in sync with the browser
// client's config so both kinds of peer simulate the same match.
const (
	DefaultBoardWidth           = 800.0
	DefaultBoardHeight          = 600.0
	DefaultPuckRadius           = 20.0
	DefaultRestrictedZoneRadius = 40.0
	DefaultMaxChargeTime        = 3000 * time.Millisecond
	DefaultMinLaunchSpeed       = 5.0
	DefaultMaxLaunchSpeed       = 20.0
	DefaultMaxPucksPerPlayer    = 5
	DefaultFriction             = 0.98
	DefaultCollisionElasticity  = 0.5
	DefaultGridSize             = 10.0
	DefaultScorePerArea         = 0.5
	DefaultRepelRadius          = 100.0
	DefaultRepelForce           = 0.075
	DefaultGhostDuration        = 3000 * time.Millisecond
	DefaultRotationRadius       = 40.0
	DefaultRotationPeriod       = 1500 * time.Millisecond
	DefaultTickRate             = 60

	// StopEpsilon is the per-axis speed below which a velocity component
	// snaps to zero and a puck counts as stopped.
	StopEpsilon = 0.01
	// MovingThreshold separates a "moving" puck from a "stationary" one
	// when deciding whether a hit scores.
	MovingThreshold = 1.0
	// ScoringSpeed is the relative speed a hit must exceed to score.
	ScoringSpeed = 1.0
	// PositionMatchEpsilon is the tolerance used when correlating a remote
	// collision report to local pucks by position.
	PositionMatchEpsilon = 0.1
)

// WallDampingTier scales the reflected velocity component for impacts
// slower than MaxSpeed. A tier with MaxSpeed <= 0 matches any speed.
type WallDampingTier struct {
	MaxSpeed float64 `json:"max_speed"`
	Factor   float64 `json:"factor"`
}

// DefaultWallDamping loses more energy on slow impacts so resting pucks
// don't jitter against the rails.
func DefaultWallDamping() []WallDampingTier {
	return []WallDampingTier{
		{MaxSpeed: 1, Factor: 0.3},
		{MaxSpeed: 2, Factor: 0.5},
		{MaxSpeed: 0, Factor: 0.7},
	}
}

// Settings is the full set of constants a match runs with. It is fixed for
// the lifetime of a Match.
type Settings struct {
	BoardWidth           float64           `json:"board_width"`
	BoardHeight          float64           `json:"board_height"`
	PuckRadius           float64           `json:"puck_radius"`
	RestrictedZoneRadius float64           `json:"restricted_zone_radius"`
	MaxChargeTime        time.Duration     `json:"max_charge_time"`
	MinLaunchSpeed       float64           `json:"min_launch_speed"`
	MaxLaunchSpeed       float64           `json:"max_launch_speed"`
	MaxPucksPerPlayer    int               `json:"max_pucks_per_player"`
	Friction             float64           `json:"friction"`
	CollisionElasticity  float64           `json:"collision_elasticity"`
	WallDamping          []WallDampingTier `json:"wall_damping"`
	GridSize             float64           `json:"grid_size"`
	ScorePerArea         float64           `json:"score_per_area"`
	RepelRadius          float64           `json:"repel_radius"`
	RepelForce           float64           `json:"repel_force"`
	GhostDuration        time.Duration     `json:"ghost_duration"`
	RotationRadius       float64           `json:"rotation_radius"`
	RotationPeriod       time.Duration     `json:"rotation_period"`
	TickRate             int               `json:"tick_rate"`
}

// DefaultSettings returns the stock match configuration.
func DefaultSettings() Settings {
	return Settings{
		BoardWidth:           DefaultBoardWidth,
		BoardHeight:          DefaultBoardHeight,
		PuckRadius:           DefaultPuckRadius,
		RestrictedZoneRadius: DefaultRestrictedZoneRadius,
		MaxChargeTime:        DefaultMaxChargeTime,
		MinLaunchSpeed:       DefaultMinLaunchSpeed,
		MaxLaunchSpeed:       DefaultMaxLaunchSpeed,
		MaxPucksPerPlayer:    DefaultMaxPucksPerPlayer,
		Friction:             DefaultFriction,
		CollisionElasticity:  DefaultCollisionElasticity,
		WallDamping:          DefaultWallDamping(),
		GridSize:             DefaultGridSize,
		ScorePerArea:         DefaultScorePerArea,
		RepelRadius:          DefaultRepelRadius,
		RepelForce:           DefaultRepelForce,
		GhostDuration:        DefaultGhostDuration,
		RotationRadius:       DefaultRotationRadius,
		RotationPeriod:       DefaultRotationPeriod,
		TickRate:             DefaultTickRate,
	}
}

// Validate rejects settings no match can be played with.
func (s Settings) Validate() error {
	switch {
	case s.BoardWidth <= 2*s.PuckRadius || s.BoardHeight <= 2*s.PuckRadius:
		return errors.New("board must be larger than a puck")
	case s.PuckRadius <= 0:
		return errors.New("puck radius must be positive")
	case s.MaxChargeTime <= 0:
		return errors.New("max charge time must be positive")
	case s.MinLaunchSpeed < 0 || s.MaxLaunchSpeed < s.MinLaunchSpeed:
		return fmt.Errorf("invalid launch speed range [%v, %v]", s.MinLaunchSpeed, s.MaxLaunchSpeed)
	case s.MaxPucksPerPlayer <= 0:
		return errors.New("max pucks per player must be positive")
	case s.Friction <= 0 || s.Friction > 1:
		return fmt.Errorf("friction %v out of range (0, 1]", s.Friction)
	case s.CollisionElasticity < 0 || s.CollisionElasticity > 1:
		return fmt.Errorf("collision elasticity %v out of range [0, 1]", s.CollisionElasticity)
	case s.GridSize <= 0:
		return errors.New("grid size must be positive")
	case s.RotationPeriod <= 0 || s.RotationRadius <= 0:
		return errors.New("rotation radius and period must be positive")
	case s.TickRate <= 0:
		return errors.New("tick rate must be positive")
	}
	return nil
}

// TickDuration is the fixed simulation step.
func (s Settings) TickDuration() time.Duration {
	return time.Second / time.Duration(s.TickRate)
}

// wallDampingFor picks the damping factor for an impact at speed.
func (s Settings) wallDampingFor(speed float64) float64 {
	for _, tier := range s.WallDamping {
		if tier.MaxSpeed <= 0 || speed < tier.MaxSpeed {
			return tier.Factor
		}
	}
	return s.CollisionElasticity
}
