package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/puckarena/backend/internal/auth"
	"github.com/puckarena/backend/internal/game"
)

var (
	ErrInvalidMode = errors.New("invalid game mode")
	ErrBadPasscode = errors.New("wrong passcode")
)

const maxCodeAttempts = 10

// Seat is what a player receives on creating or joining a room.
type Seat struct {
	Room   *Room
	Player int
	Ticket string
}

// Lobby creates rooms, seats players and admits their websocket connections.
type Lobby struct {
	store   Store
	tickets *auth.TicketIssuer
}

func NewLobby(store Store, tickets *auth.TicketIssuer) *Lobby {
	return &Lobby{store: store, tickets: tickets}
}

// Create opens a room and seats the caller as player 1. A non-empty
// passcode makes the room private.
func (l *Lobby) Create(ctx context.Context, mode game.GameMode, passcode string) (*Seat, error) {
	if mode == "" {
		mode = game.ModeCollision
	}
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}

	var hash string
	if passcode != "" {
		var err error
		if hash, err = auth.HashPasscode(passcode); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		room := &Room{
			Code:         NewRoomCode(),
			Mode:         mode,
			PasscodeHash: hash,
			Seated:       1,
			CurrentTurn:  int(game.Player1),
			CreatedAt:    now,
			LastActive:   now,
		}
		err := l.store.Create(ctx, room)
		if errors.Is(err, ErrRoomExists) {
			continue
		}
		if err != nil {
			return nil, err
		}

		ticket, err := l.tickets.Issue(room.Code, int(game.Player1))
		if err != nil {
			return nil, err
		}
		log.Printf("[ROOM] Created room %s (mode=%s private=%v)", room.Code, room.Mode, room.Private())
		return &Seat{Room: room, Player: int(game.Player1), Ticket: ticket}, nil
	}
	return nil, fmt.Errorf("no free room code after %d attempts", maxCodeAttempts)
}

// Join seats the caller as player 2.
func (l *Lobby) Join(ctx context.Context, code, passcode string) (*Seat, error) {
	code = NormalizeCode(code)
	room, err := l.store.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPasscode(room.PasscodeHash, passcode) {
		return nil, ErrBadPasscode
	}

	seat, err := l.store.ClaimSeat(ctx, code)
	if err != nil {
		return nil, err
	}
	ticket, err := l.tickets.Issue(code, seat)
	if err != nil {
		return nil, err
	}

	room.Seated = seat
	log.Printf("[ROOM] Player %d joined room %s", seat, code)
	return &Seat{Room: room, Player: seat, Ticket: ticket}, nil
}

// Admit checks a websocket ticket against the room it is presented for and
// returns the seat it grants.
func (l *Lobby) Admit(ctx context.Context, code, rawTicket string) (int, error) {
	code = NormalizeCode(code)
	ticket, err := l.tickets.Verify(rawTicket)
	if err != nil {
		return 0, err
	}
	if ticket.Room != code || !validSeat(ticket.Player) {
		return 0, auth.ErrInvalidTicket
	}
	room, err := l.store.Get(ctx, code)
	if err != nil {
		return 0, err
	}
	if ticket.Player > room.Seated {
		return 0, auth.ErrInvalidTicket
	}
	return ticket.Player, nil
}

// Room returns the relay's record for code.
func (l *Lobby) Room(ctx context.Context, code string) (*Room, error) {
	return l.store.Get(ctx, NormalizeCode(code))
}
