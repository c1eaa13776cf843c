package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/puckarena/backend/internal/relay"
)

// HandleRoomWebSocket admits a ticket holder to their seat and hands the
// connection to the relay hub.
func HandleRoomWebSocket(lobby *relay.Lobby, hub *relay.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ticket := c.Query("ticket")
		if ticket == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ticket required"})
			return
		}

		code := relay.NormalizeCode(c.Param("code"))
		seat, err := lobby.Admit(c.Request.Context(), code, ticket)
		if err != nil {
			roomError(c, err)
			return
		}

		if err := hub.ServeWS(c.Writer, c.Request, code, seat); err != nil {
			log.Printf("[RELAY] Websocket for seat %d in room %s: %v", seat, code, err)
		}
	}
}
