package relay

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/puckarena/backend/internal/auth"
	"github.com/puckarena/backend/internal/game"
)

func seedRoom(t *testing.T, store Store, code string, lastActive time.Time) {
	t.Helper()
	room := &Room{
		Code:        code,
		Mode:        game.ModeCollision,
		Seated:      2,
		CurrentTurn: 1,
		CreatedAt:   lastActive,
		LastActive:  lastActive,
	}
	if err := store.Create(context.Background(), room); err != nil {
		t.Fatalf("seed room %s: %v", code, err)
	}
}

func TestRoomCodeAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := NewRoomCode()
		if len(code) != roomCodeLength {
			t.Fatalf("code %q has length %d", code, len(code))
		}
		for _, r := range code {
			if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
				t.Fatalf("code %q contains %q", code, r)
			}
		}
	}
	if got := NormalizeCode("  ab12cd "); got != "AB12CD" {
		t.Errorf("NormalizeCode = %q", got)
	}
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	room := &Room{Code: "ROOM01", Mode: game.ModeTerritory, Seated: 1, CurrentTurn: 1, LastActive: now}
	if err := store.Create(ctx, room); err != nil {
		t.Fatal(err)
	}
	if err := store.Create(ctx, room); !errors.Is(err, ErrRoomExists) {
		t.Errorf("duplicate create: got %v", err)
	}

	// Returned rooms are copies.
	got, _ := store.Get(ctx, "ROOM01")
	got.Seated = 2
	if again, _ := store.Get(ctx, "ROOM01"); again.Seated != 1 {
		t.Error("Get leaked internal state")
	}

	if _, err := store.SetConnected(ctx, "ROOM01", 2, true); err == nil {
		t.Error("connecting an unclaimed seat should fail")
	}
	seat, err := store.ClaimSeat(ctx, "ROOM01")
	if err != nil || seat != 2 {
		t.Fatalf("ClaimSeat = %d, %v", seat, err)
	}
	if _, err := store.ClaimSeat(ctx, "ROOM01"); !errors.Is(err, ErrRoomFull) {
		t.Errorf("third seat: got %v", err)
	}

	if _, err := store.SetConnected(ctx, "ROOM01", 1, true); err != nil {
		t.Fatal(err)
	}
	r, err := store.SetConnected(ctx, "ROOM01", 2, true)
	if err != nil || !r.BothConnected() {
		t.Errorf("both seats should be connected: %+v %v", r, err)
	}

	if err := store.SetTurn(ctx, "ROOM01", 2); err != nil {
		t.Fatal(err)
	}
	if r, _ := store.Get(ctx, "ROOM01"); r.CurrentTurn != 2 {
		t.Errorf("turn %d", r.CurrentTurn)
	}

	if err := store.Delete(ctx, "ROOM01"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, "ROOM01"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("after delete: got %v", err)
	}
	if err := store.Touch(ctx, "ROOM01", now); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("touch missing room: got %v", err)
	}
}

func TestReapIdleRooms(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()
	seedRoom(t, store, "STALE1", now.Add(-time.Hour))
	seedRoom(t, store, "FRESH1", now)

	if n := reapIdleRooms(ctx, store, nil, now.Add(-30*time.Minute)); n != 1 {
		t.Errorf("reaped %d rooms, want 1", n)
	}
	if _, err := store.Get(ctx, "STALE1"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("stale room survived: %v", err)
	}
	if _, err := store.Get(ctx, "FRESH1"); err != nil {
		t.Errorf("fresh room reaped: %v", err)
	}
}

func newTestLobby() (*Lobby, *MemoryStore, *auth.TicketIssuer) {
	store := NewMemoryStore()
	tickets := auth.NewTicketIssuer("test-secret", time.Hour)
	return NewLobby(store, tickets), store, tickets
}

func TestLobbyCreateAndJoin(t *testing.T) {
	ctx := context.Background()
	lobby, _, _ := newTestLobby()

	host, err := lobby.Create(ctx, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if host.Player != 1 || host.Room.Mode != game.ModeCollision || host.Room.Private() {
		t.Errorf("unexpected host seat %+v", host)
	}
	if seat, err := lobby.Admit(ctx, host.Room.Code, host.Ticket); err != nil || seat != 1 {
		t.Errorf("Admit host = %d, %v", seat, err)
	}

	guest, err := lobby.Join(ctx, host.Room.Code, "")
	if err != nil {
		t.Fatal(err)
	}
	if guest.Player != 2 {
		t.Errorf("guest seat %d", guest.Player)
	}
	if seat, err := lobby.Admit(ctx, host.Room.Code, guest.Ticket); err != nil || seat != 2 {
		t.Errorf("Admit guest = %d, %v", seat, err)
	}

	if _, err := lobby.Join(ctx, host.Room.Code, ""); !errors.Is(err, ErrRoomFull) {
		t.Errorf("third join: got %v", err)
	}
	if _, err := lobby.Join(ctx, "NOPE00", ""); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("join unknown room: got %v", err)
	}
}

func TestLobbyPrivateRoom(t *testing.T) {
	ctx := context.Background()
	lobby, _, _ := newTestLobby()

	host, err := lobby.Create(ctx, game.ModeTerritory, "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if !host.Room.Private() {
		t.Fatal("room with passcode should be private")
	}
	if _, err := lobby.Join(ctx, host.Room.Code, "wrong"); !errors.Is(err, ErrBadPasscode) {
		t.Errorf("wrong passcode: got %v", err)
	}
	// Codes are case-insensitive.
	if _, err := lobby.Join(ctx, strings.ToLower(host.Room.Code), "hunter2"); err != nil {
		t.Errorf("join with passcode: %v", err)
	}
}

func TestLobbyRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	lobby, _, tickets := newTestLobby()

	if _, err := lobby.Create(ctx, game.GameMode("snooker"), ""); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("invalid mode: got %v", err)
	}

	host, err := lobby.Create(ctx, game.ModeCollision, "")
	if err != nil {
		t.Fatal(err)
	}
	other, _ := lobby.Create(ctx, game.ModeCollision, "")

	if _, err := lobby.Admit(ctx, other.Room.Code, host.Ticket); !errors.Is(err, auth.ErrInvalidTicket) {
		t.Errorf("ticket for another room: got %v", err)
	}
	unclaimed, _ := tickets.Issue(host.Room.Code, 2)
	if _, err := lobby.Admit(ctx, host.Room.Code, unclaimed); !errors.Is(err, auth.ErrInvalidTicket) {
		t.Errorf("ticket for unclaimed seat: got %v", err)
	}
	gone, _ := tickets.Issue("GONE00", 1)
	if _, err := lobby.Admit(ctx, "GONE00", gone); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("ticket for missing room: got %v", err)
	}
	if _, err := lobby.Admit(ctx, host.Room.Code, "garbage"); !errors.Is(err, auth.ErrInvalidTicket) {
		t.Errorf("garbage ticket: got %v", err)
	}
}
