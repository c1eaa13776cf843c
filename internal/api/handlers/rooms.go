package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/puckarena/backend/internal/game"
	"github.com/puckarena/backend/internal/relay"
)

// CreateRoom opens a room and seats the caller as player 1.
func CreateRoom(lobby *relay.Lobby) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Mode     string `json:"mode"`
			Passcode string `json:"passcode,omitempty"`
		}
		// An empty body creates an open collision room.
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
				return
			}
		}

		seat, err := lobby.Create(c.Request.Context(), game.GameMode(req.Mode), req.Passcode)
		if err != nil {
			roomError(c, err)
			return
		}
		c.JSON(http.StatusCreated, seatResponse(seat))
	}
}

// JoinRoom seats the caller as player 2.
func JoinRoom(lobby *relay.Lobby) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Passcode string `json:"passcode,omitempty"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
				return
			}
		}

		seat, err := lobby.Join(c.Request.Context(), c.Param("code"), req.Passcode)
		if err != nil {
			roomError(c, err)
			return
		}
		c.JSON(http.StatusOK, seatResponse(seat))
	}
}

// GetRoom reports who is seated and whose turn the relay last saw.
func GetRoom(lobby *relay.Lobby) gin.HandlerFunc {
	return func(c *gin.Context) {
		room, err := lobby.Room(c.Request.Context(), c.Param("code"))
		if err != nil {
			roomError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"room":         room.Code,
			"mode":         room.Mode,
			"private":      room.Private(),
			"players":      room.Seated,
			"connected":    room.Connected,
			"current_turn": room.CurrentTurn,
			"created_at":   room.CreatedAt,
		})
	}
}
