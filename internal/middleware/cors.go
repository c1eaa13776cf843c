package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/puckarena/backend/internal/config"
)

var devOrigins = []string{
	"http://localhost:5173", // Vite dev server
	"http://127.0.0.1:5173",
}

// CORSMiddleware returns a CORS middleware configured for the environment
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	log.Printf("[CORS] Environment: %s, FrontendURL: %s", cfg.Environment, cfg.FrontendURL)

	corsConfig := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Length", "Content-Type", "Accept",
			"Cache-Control", "X-Requested-With",
		},
		ExposeHeaders: []string{"Content-Length"},
		AllowOrigins:  allowedOrigins(cfg),
		MaxAge:        12 * time.Hour,
	}

	if cfg.Environment != "development" {
		log.Printf("[CORS] Production allowed origins: %v", corsConfig.AllowOrigins)
	}
	return cors.New(corsConfig)
}

// WebSocketCORSCheck validates WebSocket upgrade origins. Requests without
// an Origin header come from non-browser peers and are left to the ticket
// check.
func WebSocketCORSCheck(cfg *config.Config) gin.HandlerFunc {
	origins := allowedOrigins(cfg)

	return func(c *gin.Context) {
		if strings.ToLower(c.GetHeader("Connection")) != "upgrade" ||
			strings.ToLower(c.GetHeader("Upgrade")) != "websocket" {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		allowed := false
		if cfg.Environment == "development" {
			allowed = strings.HasPrefix(origin, "http://localhost:") ||
				strings.HasPrefix(origin, "http://127.0.0.1:")
		} else {
			for _, o := range origins {
				if origin == o {
					allowed = true
					break
				}
			}
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "WebSocket origin not allowed"})
			return
		}
		c.Next()
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if cfg.Environment == "development" {
		return devOrigins
	}
	if cfg.FrontendURL != "" {
		return []string{cfg.FrontendURL}
	}
	return devOrigins
}
