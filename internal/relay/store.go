package relay

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Store holds room records. Implementations must be safe for concurrent use.
type Store interface {
	Create(ctx context.Context, room *Room) error
	Get(ctx context.Context, code string) (*Room, error)
	// ClaimSeat seats the second player and returns the seat number.
	ClaimSeat(ctx context.Context, code string) (int, error)
	SetConnected(ctx context.Context, code string, seat int, connected bool) (*Room, error)
	SetTurn(ctx context.Context, code string, turn int) error
	Touch(ctx context.Context, code string, now time.Time) error
	Delete(ctx context.Context, code string) error
	// Expired returns the codes of rooms idle since before cutoff. With
	// several relay instances each code is handed to only one of them.
	Expired(ctx context.Context, cutoff time.Time) ([]string, error)
}

// MemoryStore keeps rooms in process. Used when no redis is configured.
type MemoryStore struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]*Room)}
}

func (s *MemoryStore) Create(_ context.Context, room *Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[room.Code]; exists {
		return ErrRoomExists
	}
	s.rooms[room.Code] = room.clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, code string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room.clone(), nil
}

func (s *MemoryStore) ClaimSeat(_ context.Context, code string) (int, error) {
	var seat int
	_, err := s.update(code, func(r *Room) error {
		var err error
		seat, err = claimSeat(r)
		return err
	})
	return seat, err
}

func (s *MemoryStore) SetConnected(_ context.Context, code string, seat int, connected bool) (*Room, error) {
	return s.update(code, func(r *Room) error {
		return setConnected(r, seat, connected)
	})
}

func (s *MemoryStore) SetTurn(_ context.Context, code string, turn int) error {
	_, err := s.update(code, func(r *Room) error {
		r.CurrentTurn = turn
		return nil
	})
	return err
}

func (s *MemoryStore) Touch(_ context.Context, code string, now time.Time) error {
	_, err := s.update(code, func(r *Room) error {
		r.LastActive = now
		return nil
	})
	return err
}

func (s *MemoryStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
	return nil
}

func (s *MemoryStore) Expired(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var codes []string
	for code, room := range s.rooms {
		if room.LastActive.Before(cutoff) {
			codes = append(codes, code)
		}
	}
	return codes, nil
}

func (s *MemoryStore) update(code string, fn func(*Room) error) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	next := room.clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.rooms[code] = next
	return next.clone(), nil
}

// Mutations shared by every store.

func claimSeat(r *Room) (int, error) {
	if r.Seated >= 2 {
		return 0, ErrRoomFull
	}
	r.Seated++
	return r.Seated, nil
}

func setConnected(r *Room, seat int, connected bool) error {
	if !validSeat(seat) {
		return fmt.Errorf("invalid seat %d", seat)
	}
	if seat > r.Seated {
		return fmt.Errorf("seat %d in room %s is not claimed", seat, r.Code)
	}
	r.Connected[seat-1] = connected
	return nil
}
