package relay

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const busChannelPrefix = "relay:"

// BusFrame carries a frame to a seat held by another relay instance.
type BusFrame struct {
	Origin string `msgpack:"o"`
	Room   string `msgpack:"r"`
	Seat   int    `msgpack:"s"`
	Binary bool   `msgpack:"b"`
	Data   []byte `msgpack:"d"`
	// Close asks the holder to close the seat after delivering Data.
	Close bool `msgpack:"c"`
}

// Bus fans frames out between relay instances.
type Bus interface {
	Publish(ctx context.Context, f BusFrame) error
	Frames() <-chan BusFrame
	Close() error
}

// RedisBus publishes frames on relay:<room> and listens on relay:*.
type RedisBus struct {
	rdb    *redis.Client
	pubsub *redis.PubSub
	frames chan BusFrame
}

func NewRedisBus(ctx context.Context, rdb *redis.Client) (*RedisBus, error) {
	pubsub := rdb.PSubscribe(ctx, busChannelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe relay bus: %w", err)
	}

	b := &RedisBus{
		rdb:    rdb,
		pubsub: pubsub,
		frames: make(chan BusFrame, sendBuffer),
	}
	go b.listen()
	log.Println("[RELAY] relay:* subscriber started")
	return b, nil
}

func (b *RedisBus) listen() {
	defer close(b.frames)
	for msg := range b.pubsub.Channel() {
		var f BusFrame
		if err := msgpack.Unmarshal([]byte(msg.Payload), &f); err != nil {
			log.Printf("[RELAY] invalid bus payload on %s: %v", msg.Channel, err)
			continue
		}
		b.frames <- f
	}
}

func (b *RedisBus) Publish(ctx context.Context, f BusFrame) error {
	data, err := msgpack.Marshal(&f)
	if err != nil {
		return fmt.Errorf("encode bus frame: %w", err)
	}
	return b.rdb.Publish(ctx, busChannelPrefix+f.Room, data).Err()
}

func (b *RedisBus) Frames() <-chan BusFrame { return b.frames }

func (b *RedisBus) Close() error { return b.pubsub.Close() }
