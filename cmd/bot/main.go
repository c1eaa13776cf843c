package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/puckarena/backend/internal/config"
	"github.com/puckarena/backend/internal/game"
	"github.com/puckarena/backend/internal/peer"
	"github.com/puckarena/backend/internal/protocol"
)

type seatResponse struct {
	Room   string `json:"room"`
	Player int    `json:"player"`
	Mode   string `json:"mode"`
	Ticket string `json:"ticket"`
	Error  string `json:"error"`
}

func main() {
	var (
		addrFlag     = flag.String("addr", "http://localhost:8080", "relay base url")
		roomFlag     = flag.String("room", "", "room code to join; empty creates a room")
		modeFlag     = flag.String("mode", string(game.ModeCollision), "game mode when creating: collision|territory")
		passcodeFlag = flag.String("passcode", "", "room passcode")
		codecFlag    = flag.String("codec", "json", "frame codec: json|msgpack")
		seedFlag     = flag.Int64("seed", time.Now().UnixNano(), "strategy random seed")
		powerFlag    = flag.Float64("powerups", 0.2, "chance of arming a power-up before each placement")
	)
	flag.Parse()

	botID := uuid.NewString()
	log.SetPrefix("[bot " + botID[:8] + "] ")

	cfg := config.Load()
	if err := cfg.Game.Validate(); err != nil {
		log.Fatalf("[CONFIG] Invalid game settings: %v", err)
	}
	codec, err := protocol.NewCodec(*codecFlag)
	if err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var seat *seatResponse
	if *roomFlag == "" {
		seat, err = postSeat(ctx, *addrFlag+"/api/v1/rooms", map[string]string{"mode": *modeFlag, "passcode": *passcodeFlag})
	} else {
		seat, err = postSeat(ctx, *addrFlag+"/api/v1/rooms/"+url.PathEscape(*roomFlag)+"/join", map[string]string{"passcode": *passcodeFlag})
	}
	if err != nil {
		log.Fatalf("[PEER] %v", err)
	}
	log.Printf("[PEER] Seated as player %d in room %s (mode=%s)", seat.Player, seat.Room, seat.Mode)

	wsURL := strings.Replace(*addrFlag, "http", "ws", 1) +
		"/api/v1/rooms/" + seat.Room + "/ws?ticket=" + url.QueryEscape(seat.Ticket)
	conn, err := peer.Dial(ctx, wsURL)
	if err != nil {
		log.Fatalf("[PEER] %v", err)
	}

	strategy := peer.NewScripted(*seedFlag)
	strategy.PowerUpChance = *powerFlag

	runner := peer.NewRunner(conn, peer.Config{
		Settings:      cfg.Game,
		Mode:          game.GameMode(seat.Mode),
		Self:          game.Player(seat.Player),
		Codec:         codec,
		Strategy:      strategy,
		StopWhenEnded: true,
	})
	if err := runner.Run(ctx); err != nil {
		log.Fatalf("[PEER] %v", err)
	}
}

func postSeat(ctx context.Context, endpoint string, body map[string]string) (*seatResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	var seat seatResponse
	if err := json.NewDecoder(resp.Body).Decode(&seat); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: %s (%d)", endpoint, seat.Error, resp.StatusCode)
	}
	return &seat, nil
}
