package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/puckarena/backend/internal/api/handlers"
	"github.com/puckarena/backend/internal/config"
	"github.com/puckarena/backend/internal/middleware"
	"github.com/puckarena/backend/internal/relay"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, lobby *relay.Lobby, hub *relay.Hub, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.Health(hub))

		rooms := v1.Group("/rooms")
		{
			rooms.POST("", handlers.CreateRoom(lobby))
			rooms.GET("/:code", handlers.GetRoom(lobby))
			rooms.POST("/:code/join", handlers.JoinRoom(lobby))
			rooms.GET("/:code/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleRoomWebSocket(lobby, hub))
		}
	}
}
