package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puckarena/backend/internal/protocol"
)

var ErrHubClosed = errors.New("relay hub is not running")

const storeTimeout = 2 * time.Second

type seats [2]*Client

// Hub seats websocket clients in rooms and forwards game frames from each
// seat to the other one. Frames are never echoed to their sender. With a
// Bus, seats held by other instances are reached through it.
type Hub struct {
	store    Store
	bus      Bus
	codec    protocol.Codec
	instance string

	rooms      map[string]*seats
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a hub. bus may be nil for a single instance; codec encodes
// the relay's own control messages and defaults to JSON.
func NewHub(store Store, bus Bus, codec protocol.Codec) *Hub {
	if codec == nil {
		codec = protocol.JSONCodec{}
	}
	return &Hub{
		store:      store,
		bus:        bus,
		codec:      codec,
		instance:   uuid.NewString(),
		rooms:      make(map[string]*seats),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and bus traffic until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	log.Printf("[RELAY] Hub %s running (codec=%s)", h.instance, h.codec.Name())

	var inbound <-chan BusFrame
	if h.bus != nil {
		inbound = h.bus.Frames()
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			log.Println("[RELAY] Hub stopped")
			return
		case c := <-h.register:
			h.handleRegister(c)
		case c := <-h.unregister:
			h.handleUnregister(c)
		case f, ok := <-inbound:
			if !ok {
				inbound = nil
				continue
			}
			h.deliverRemote(f)
		}
	}
}

// ServeWS upgrades the request and seats the connection. The caller must
// already have authorised room and seat.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, room string, seat int) error {
	if !validSeat(seat) {
		return fmt.Errorf("invalid seat %d", seat)
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade: %w", err)
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		room: room,
		seat: seat,
		send: make(chan frame, sendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return ErrHubClosed
	}

	go client.writePump()
	go client.readPump()
	return nil
}

// CloseRoom tells both seats why the room is going away and disconnects them.
func (h *Hub) CloseRoom(code, reason string) {
	for seat := 1; seat <= 2; seat++ {
		h.deliverMsg(code, seat, protocol.ErrorMsg{Message: reason}, true)
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.closeSend()
	}
}

func (h *Hub) handleRegister(c *Client) {
	h.mu.Lock()
	s, exists := h.rooms[c.room]
	if !exists {
		s = &seats{}
		h.rooms[c.room] = s
	}
	if old := s[c.seat-1]; old != nil {
		log.Printf("[RELAY] Seat %d in room %s reconnecting, closing old connection %s", c.seat, c.room, old.id)
		old.closeSend()
	}
	s[c.seat-1] = c
	h.mu.Unlock()

	ctx, cancel := storeContext()
	defer cancel()

	room, err := h.store.SetConnected(ctx, c.room, c.seat, true)
	if err != nil {
		log.Printf("[ROOM] Cannot seat %d in room %s: %v", c.seat, c.room, err)
		h.sendTo(c, protocol.ErrorMsg{Message: "room not available"})
		c.closeSend()
		return
	}

	log.Printf("[RELAY] Seat %d connected to room %s (conn %s)", c.seat, c.room, c.id)

	h.sendTo(c, protocol.RoomJoinedMsg{Room: c.room, Player: c.seat, Mode: string(room.Mode)})
	h.deliverMsg(c.room, otherSeat(c.seat), protocol.PeerJoinedMsg{Player: c.seat}, false)

	if room.BothConnected() {
		log.Printf("[ROOM] Both players connected to room %s, starting game", c.room)
		for seat := 1; seat <= 2; seat++ {
			h.deliverMsg(c.room, seat, protocol.StartGameMsg{
				Room:        c.room,
				Player:      seat,
				Mode:        string(room.Mode),
				CurrentTurn: room.CurrentTurn,
			}, false)
		}
	}
}

func (h *Hub) handleUnregister(c *Client) {
	h.mu.Lock()
	s := h.rooms[c.room]
	current := s != nil && s[c.seat-1] == c
	if current {
		s[c.seat-1] = nil
		if s[0] == nil && s[1] == nil {
			delete(h.rooms, c.room)
		}
	}
	h.mu.Unlock()

	c.closeSend()
	if !current {
		return
	}

	log.Printf("[RELAY] Seat %d disconnected from room %s", c.seat, c.room)

	// Losing a peer is fatal to the match, so the room goes with it.
	ctx, cancel := storeContext()
	defer cancel()
	if err := h.store.Delete(ctx, c.room); err != nil {
		log.Printf("[ROOM] Failed to delete room %s: %v", c.room, err)
	}
	h.deliverMsg(c.room, otherSeat(c.seat), protocol.PeerLeftMsg{Player: c.seat}, true)
	log.Printf("[ROOM] Room %s closed", c.room)
}

// forward relays a frame read from c to the other seat.
func (h *Hub) forward(c *Client, f frame) {
	t, err := protocol.ForFrame(f.binary).PeekType(f.data)
	if err != nil {
		log.Printf("[RELAY] Malformed frame from seat %d in room %s: %v", c.seat, c.room, err)
		h.sendTo(c, protocol.ErrorMsg{Message: "malformed message"})
		return
	}
	if !t.IsGameMessage() {
		h.sendTo(c, protocol.ErrorMsg{Message: fmt.Sprintf("unexpected message type %q", t)})
		return
	}

	ctx, cancel := storeContext()
	defer cancel()

	if err := h.store.Touch(ctx, c.room, time.Now()); err != nil {
		log.Printf("[ROOM] Touch room %s: %v", c.room, err)
	}
	switch t {
	case protocol.TypeLaunch:
		err = h.store.SetTurn(ctx, c.room, otherSeat(c.seat))
	case protocol.TypeReset:
		err = h.store.SetTurn(ctx, c.room, 1)
	}
	if err != nil {
		log.Printf("[ROOM] Turn bookkeeping for room %s: %v", c.room, err)
	}

	if !h.deliver(c.room, otherSeat(c.seat), f, false) {
		log.Printf("[RELAY] No peer for %s in room %s, frame dropped", t, c.room)
	}
}

func (h *Hub) sendTo(c *Client, msg protocol.Message) {
	data, err := h.codec.Encode(msg)
	if err != nil {
		log.Printf("[RELAY] Error encoding %s: %v", msg.MessageType(), err)
		return
	}
	c.enqueue(frame{binary: h.codec.Binary(), data: data})
}

func (h *Hub) deliverMsg(room string, seat int, msg protocol.Message, closeAfter bool) bool {
	data, err := h.codec.Encode(msg)
	if err != nil {
		log.Printf("[RELAY] Error encoding %s: %v", msg.MessageType(), err)
		return false
	}
	return h.deliver(room, seat, frame{binary: h.codec.Binary(), data: data}, closeAfter)
}

// deliver hands f to the seat, locally if this instance holds it and over
// the bus otherwise.
func (h *Hub) deliver(room string, seat int, f frame, closeAfter bool) bool {
	if target := h.local(room, seat); target != nil {
		ok := target.enqueue(f)
		if closeAfter {
			target.closeSend()
		}
		return ok
	}
	if h.bus == nil {
		return false
	}

	ctx, cancel := storeContext()
	defer cancel()
	err := h.bus.Publish(ctx, BusFrame{
		Origin: h.instance,
		Room:   room,
		Seat:   seat,
		Binary: f.binary,
		Data:   f.data,
		Close:  closeAfter,
	})
	if err != nil {
		log.Printf("[RELAY] Publish to room %s failed: %v", room, err)
		return false
	}
	return true
}

func (h *Hub) deliverRemote(f BusFrame) {
	if f.Origin == h.instance {
		return
	}
	target := h.local(f.Room, f.Seat)
	if target == nil {
		return
	}
	target.enqueue(frame{binary: f.Binary, data: f.Data})
	if f.Close {
		target.closeSend()
	}
}

func (h *Hub) local(room string, seat int) *Client {
	if !validSeat(seat) {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if s := h.rooms[room]; s != nil {
		return s[seat-1]
	}
	return nil
}

// HubStats is a point-in-time view of the seats this instance holds.
type HubStats struct {
	Instance string `json:"instance"`
	Codec    string `json:"codec"`
	Rooms    int    `json:"rooms"`
	Seats    int    `json:"seats"`
}

func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	st := HubStats{Instance: h.instance, Codec: h.codec.Name(), Rooms: len(h.rooms)}
	for _, s := range h.rooms {
		for _, c := range s {
			if c != nil {
				st.Seats++
			}
		}
	}
	return st
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for code, s := range h.rooms {
		for _, c := range s {
			if c != nil {
				c.closeSend()
			}
		}
		delete(h.rooms, code)
	}
}

func storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}
