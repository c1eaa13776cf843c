package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/puckarena/backend/internal/auth"
	"github.com/puckarena/backend/internal/relay"
)

// roomError maps lobby errors onto HTTP responses.
func roomError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, relay.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
	case errors.Is(err, relay.ErrRoomFull):
		c.JSON(http.StatusConflict, gin.H{"error": "room is full"})
	case errors.Is(err, relay.ErrBadPasscode):
		c.JSON(http.StatusForbidden, gin.H{"error": "wrong passcode"})
	case errors.Is(err, relay.ErrInvalidMode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be collision or territory"})
	case errors.Is(err, auth.ErrInvalidTicket):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid ticket"})
	default:
		log.Printf("[ROOM] Request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func seatResponse(seat *relay.Seat) gin.H {
	return gin.H{
		"room":    seat.Room.Code,
		"player":  seat.Player,
		"mode":    seat.Room.Mode,
		"private": seat.Room.Private(),
		"ticket":  seat.Ticket,
	}
}
