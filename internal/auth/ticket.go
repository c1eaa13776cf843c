package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidTicket = errors.New("invalid ticket")

// Ticket binds a websocket connection to one seat in one room.
type Ticket struct {
	Room   string
	Player int
	Expiry time.Time
}

// TicketIssuer signs and verifies seat tickets with an HMAC secret.
type TicketIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTicketIssuer(secret string, ttl time.Duration) *TicketIssuer {
	return &TicketIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed ticket for the seat.
func (ti *TicketIssuer) Issue(room string, player int) (string, error) {
	exp := time.Now().Add(ti.ttl)
	claims := jwt.MapClaims{
		"room":   room,
		"player": player,
		"exp":    jwt.NewNumericDate(exp).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the seat.
func (ti *TicketIssuer) Verify(raw string) (*Ticket, error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return ti.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidTicket
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidTicket
	}
	room, ok := claims["room"].(string)
	if !ok || room == "" {
		return nil, ErrInvalidTicket
	}
	playerf, ok := claims["player"].(float64)
	if !ok {
		return nil, ErrInvalidTicket
	}
	expf, _ := claims["exp"].(float64)

	return &Ticket{
		Room:   room,
		Player: int(playerf),
		Expiry: time.Unix(int64(expf), 0),
	}, nil
}
