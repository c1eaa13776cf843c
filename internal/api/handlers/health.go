package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/puckarena/backend/internal/relay"
)

const serviceName = "puckarena-relay"

var startedAt = time.Now()

// Health reports liveness plus the rooms and seats this relay instance holds.
func Health(hub *relay.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := hub.Stats()
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"service":  serviceName,
			"uptime_s": int64(time.Since(startedAt).Seconds()),
			"instance": stats.Instance,
			"codec":    stats.Codec,
			"rooms":    stats.Rooms,
			"seats":    stats.Seats,
		})
	}
}
