package relay

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/puckarena/backend/internal/game"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room already exists")
	ErrRoomFull     = errors.New("room is full")
)

const roomCodeLength = 6

// Room is the relay's record of a two-seat match. The relay never sees the
// match itself, only who is seated and whose turn it last observed.
type Room struct {
	Code         string        `json:"code"`
	Mode         game.GameMode `json:"mode"`
	PasscodeHash string        `json:"passcodeHash,omitempty"`
	Seated       int           `json:"seated"`
	Connected    [2]bool       `json:"connected"`
	CurrentTurn  int           `json:"currentTurn"`
	CreatedAt    time.Time     `json:"createdAt"`
	LastActive   time.Time     `json:"lastActive"`
}

func (r *Room) Private() bool { return r.PasscodeHash != "" }

func (r *Room) BothConnected() bool { return r.Connected[0] && r.Connected[1] }

func (r *Room) clone() *Room {
	cp := *r
	return &cp
}

// NewRoomCode returns a random code over [A-Z0-9].
func NewRoomCode() string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, roomCodeLength)
	for i := range result {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		result[i] = charset[n.Int64()]
	}
	return string(result)
}

// NormalizeCode upper-cases user supplied codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validSeat(seat int) bool {
	return game.Player(seat).Valid()
}

func otherSeat(seat int) int {
	return int(game.Player(seat).Other())
}
