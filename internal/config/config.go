package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/puckarena/backend/internal/game"
)

type Config struct {
	// Environment
	Environment string

	// Redis. Empty keeps rooms in memory on a single instance.
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Rooms
	RoomTTLMinutes            int
	RoomReaperIntervalSeconds int
	RelayCodec                string

	// Security
	JWTSecret        string
	TicketTTLMinutes int

	// Game is fixed for every match served by this process.
	Game game.Settings
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		Environment: getEnv("APP_ENV", "development"),

		RedisURL: getEnv("REDIS_URL", ""),

		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		RoomTTLMinutes:            getEnvInt("ROOM_TTL_MINUTES", 30),
		RoomReaperIntervalSeconds: getEnvInt("ROOM_REAPER_INTERVAL_SECONDS", 30),
		RelayCodec:                getEnv("RELAY_CODEC", "json"),

		JWTSecret:        getEnv("JWT_SECRET", "change-me-in-production"),
		TicketTTLMinutes: getEnvInt("TICKET_TTL_MINUTES", 60),

		Game: loadGameSettings(),
	}
}

func loadGameSettings() game.Settings {
	s := game.DefaultSettings()

	s.BoardWidth = getEnvFloat("BOARD_WIDTH", s.BoardWidth)
	s.BoardHeight = getEnvFloat("BOARD_HEIGHT", s.BoardHeight)
	s.PuckRadius = getEnvFloat("PUCK_RADIUS", s.PuckRadius)
	s.RestrictedZoneRadius = getEnvFloat("RESTRICTED_ZONE_RADIUS", s.RestrictedZoneRadius)
	s.MaxChargeTime = getEnvMillis("MAX_CHARGE_TIME_MS", s.MaxChargeTime)
	s.MinLaunchSpeed = getEnvFloat("MIN_LAUNCH_SPEED", s.MinLaunchSpeed)
	s.MaxLaunchSpeed = getEnvFloat("MAX_LAUNCH_SPEED", s.MaxLaunchSpeed)
	s.MaxPucksPerPlayer = getEnvInt("MAX_PUCKS_PER_PLAYER", s.MaxPucksPerPlayer)
	s.Friction = getEnvFloat("FRICTION", s.Friction)
	s.CollisionElasticity = getEnvFloat("COLLISION_ELASTICITY", s.CollisionElasticity)
	s.GridSize = getEnvFloat("GRID_SIZE", s.GridSize)
	s.ScorePerArea = getEnvFloat("SCORE_PER_AREA", s.ScorePerArea)
	s.RepelRadius = getEnvFloat("REPEL_RADIUS", s.RepelRadius)
	s.RepelForce = getEnvFloat("REPEL_FORCE", s.RepelForce)
	s.GhostDuration = getEnvMillis("GHOST_DURATION_MS", s.GhostDuration)
	s.TickRate = getEnvInt("TICK_RATE", s.TickRate)

	// A single flat factor replaces the speed tiers.
	if os.Getenv("WALL_DAMPING_FLAT") == "true" {
		s.WallDamping = nil
	}
	return s
}

// Validate reports configuration the server cannot start with.
func (c *Config) Validate() error {
	if c.Environment == "production" && c.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.RoomTTLMinutes <= 0 {
		return fmt.Errorf("ROOM_TTL_MINUTES must be positive")
	}
	if err := c.Game.Validate(); err != nil {
		return fmt.Errorf("game settings: %w", err)
	}
	return nil
}

func (c *Config) RoomTTL() time.Duration {
	return time.Duration(c.RoomTTLMinutes) * time.Minute
}

func (c *Config) TicketTTL() time.Duration {
	return time.Duration(c.TicketTTLMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("[CONFIG] %s=%q is not an integer, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("[CONFIG] %s=%q is not a number, using %v", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvMillis(key string, defaultValue time.Duration) time.Duration {
	ms := getEnvInt(key, int(defaultValue/time.Millisecond))
	return time.Duration(ms) * time.Millisecond
}
