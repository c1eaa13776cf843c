package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/puckarena/backend/internal/api"
	"github.com/puckarena/backend/internal/auth"
	"github.com/puckarena/backend/internal/config"
	"github.com/puckarena/backend/internal/protocol"
	"github.com/puckarena/backend/internal/redis"
	"github.com/puckarena/backend/internal/relay"
)

func main() {
	// Initialize configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[CONFIG] Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	codec, err := protocol.NewCodec(cfg.RelayCodec)
	if err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}

	// Rooms live in redis when configured so several relays can share them
	var (
		store relay.Store
		bus   relay.Bus
	)
	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()

		redisBus, err := relay.NewRedisBus(ctx, rdb)
		if err != nil {
			log.Fatalf("Failed to start relay bus: %v", err)
		}
		defer redisBus.Close()

		store = relay.NewRedisStore(rdb, cfg.RoomTTL())
		bus = redisBus
		log.Println("[ROOM] Using redis room store")
	} else {
		store = relay.NewMemoryStore()
		log.Println("[ROOM] REDIS_URL not set; rooms are kept in memory")
	}

	hub := relay.NewHub(store, bus, codec)
	go hub.Run(ctx)

	relay.StartReaper(ctx, store, hub, cfg.RoomTTL(), time.Duration(cfg.RoomReaperIntervalSeconds)*time.Second)

	lobby := relay.NewLobby(store, auth.NewTicketIssuer(cfg.JWTSecret, cfg.TicketTTL()))

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, lobby, hub, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting PuckArena relay on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
