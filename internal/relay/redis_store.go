package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	roomKeyPrefix   = "room:"
	roomActivitySet = "room_activity"
	maxTxRetries    = 5
)

// RedisStore keeps rooms in redis so several relay instances can share them.
// Each room is a JSON value expiring after ttl of inactivity; room_activity
// is a sorted set of last activity times used by the reaper.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func roomKey(code string) string { return roomKeyPrefix + code }

func (s *RedisStore) Create(ctx context.Context, room *Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", room.Code, err)
	}
	ok, err := s.rdb.SetNX(ctx, roomKey(room.Code), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("create room %s: %w", room.Code, err)
	}
	if !ok {
		return ErrRoomExists
	}
	z := redis.Z{Score: float64(room.LastActive.Unix()), Member: room.Code}
	if err := s.rdb.ZAdd(ctx, roomActivitySet, z).Err(); err != nil {
		// An untracked room would never be reaped.
		s.rdb.Del(ctx, roomKey(room.Code))
		return fmt.Errorf("track room %s: %w", room.Code, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, code string) (*Room, error) {
	raw, err := s.rdb.Get(ctx, roomKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room %s: %w", code, err)
	}
	return decodeRoom(code, raw)
}

func (s *RedisStore) ClaimSeat(ctx context.Context, code string) (int, error) {
	var seat int
	_, err := s.update(ctx, code, func(r *Room) error {
		var err error
		seat, err = claimSeat(r)
		return err
	})
	return seat, err
}

func (s *RedisStore) SetConnected(ctx context.Context, code string, seat int, connected bool) (*Room, error) {
	return s.update(ctx, code, func(r *Room) error {
		return setConnected(r, seat, connected)
	})
}

func (s *RedisStore) SetTurn(ctx context.Context, code string, turn int) error {
	_, err := s.update(ctx, code, func(r *Room) error {
		r.CurrentTurn = turn
		return nil
	})
	return err
}

func (s *RedisStore) Touch(ctx context.Context, code string, now time.Time) error {
	_, err := s.update(ctx, code, func(r *Room) error {
		r.LastActive = now
		return nil
	})
	if err != nil {
		return err
	}
	return s.rdb.ZAdd(ctx, roomActivitySet, redis.Z{Score: float64(now.Unix()), Member: code}).Err()
}

func (s *RedisStore) Delete(ctx context.Context, code string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, roomKey(code))
	pipe.ZRem(ctx, roomActivitySet, code)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete room %s: %w", code, err)
	}
	return nil
}

func (s *RedisStore) Expired(ctx context.Context, cutoff time.Time) ([]string, error) {
	members, err := s.rdb.ZRangeByScore(ctx, roomActivitySet, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch idle rooms: %w", err)
	}

	var codes []string
	for _, m := range members {
		// Only the instance that removes the member reaps the room.
		if removed, _ := s.rdb.ZRem(ctx, roomActivitySet, m).Result(); removed > 0 {
			codes = append(codes, m)
		}
	}
	return codes, nil
}

// update runs fn on the stored room inside an optimistic WATCH transaction.
func (s *RedisStore) update(ctx context.Context, code string, fn func(*Room) error) (*Room, error) {
	key := roomKey(code)
	var out *Room

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		room, err := decodeRoom(code, raw)
		if err != nil {
			return err
		}
		if err := fn(room); err != nil {
			return err
		}
		data, err := json.Marshal(room)
		if err != nil {
			return fmt.Errorf("encode room %s: %w", code, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err == nil {
			out = room
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("update room %s: too many concurrent writers", code)
}

func decodeRoom(code string, raw []byte) (*Room, error) {
	var room Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", code, err)
	}
	return &room, nil
}
