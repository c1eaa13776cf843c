package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrEmptyFrame  = errors.New("empty frame")
	ErrUnknownType = errors.New("unknown message type")
)

// Codec turns messages into websocket frames and back.
type Codec interface {
	Name() string
	// Binary reports whether frames go out as binary websocket messages.
	Binary() bool
	Encode(msg Message) ([]byte, error)
	Decode(b []byte) (Message, error)
	// PeekType reads only the discriminant of a frame.
	PeekType(b []byte) (Type, error)
}

// NewCodec returns the codec registered under name.
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

// ForFrame returns the codec matching a websocket frame's kind: msgpack
// for binary frames, JSON for text.
func ForFrame(binary bool) Codec {
	if binary {
		return MsgpackCodec{}
	}
	return JSONCodec{}
}

type jsonEnvelope struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// JSONCodec encodes frames as {"type": ..., "data": {...}} text.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }
func (JSONCodec) Binary() bool { return false }

func (JSONCodec) Encode(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, errors.New("trying to encode nil message")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonEnvelope{Type: msg.MessageType(), Data: data})
}

func (c JSONCodec) PeekType(b []byte) (Type, error) {
	env, err := c.envelope(b)
	return env.Type, err
}

func (JSONCodec) envelope(b []byte) (jsonEnvelope, error) {
	var env jsonEnvelope
	if len(b) == 0 {
		return env, ErrEmptyFrame
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

func (c JSONCodec) Decode(b []byte) (Message, error) {
	env, err := c.envelope(b)
	if err != nil {
		return nil, err
	}
	return decodeAs(env.Type, func(out any) error {
		if len(env.Data) == 0 {
			return fmt.Errorf("empty payload for type %q", env.Type)
		}
		return json.Unmarshal(env.Data, out)
	})
}

type msgpackEnvelope struct {
	Type Type               `msgpack:"type"`
	Data msgpack.RawMessage `msgpack:"data,omitempty"`
}

// MsgpackCodec encodes the same envelope as binary msgpack.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return "msgpack" }
func (MsgpackCodec) Binary() bool { return true }

func (MsgpackCodec) Encode(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, errors.New("trying to encode nil message")
	}
	data, err := msgpack.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(msgpackEnvelope{Type: msg.MessageType(), Data: data})
}

func (c MsgpackCodec) PeekType(b []byte) (Type, error) {
	env, err := c.envelope(b)
	return env.Type, err
}

func (MsgpackCodec) envelope(b []byte) (msgpackEnvelope, error) {
	var env msgpackEnvelope
	if len(b) == 0 {
		return env, ErrEmptyFrame
	}
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

func (c MsgpackCodec) Decode(b []byte) (Message, error) {
	env, err := c.envelope(b)
	if err != nil {
		return nil, err
	}
	return decodeAs(env.Type, func(out any) error {
		if len(env.Data) == 0 {
			return fmt.Errorf("empty payload for type %q", env.Type)
		}
		return msgpack.Unmarshal(env.Data, out)
	})
}

// decodeAs picks the concrete payload type for t and fills it with unmarshal.
func decodeAs(t Type, unmarshal func(any) error) (Message, error) {
	switch t {
	case TypeLaunch:
		return decodePayload[LaunchMsg](unmarshal)
	case TypeCollision:
		return decodePayload[CollisionMsg](unmarshal)
	case TypeRepelActivated, TypeGhostActivated:
		var msg PowerUpMsg
		if err := unmarshal(&msg); err != nil {
			return nil, err
		}
		if t == TypeGhostActivated {
			msg.Kind = KindGhost
		} else {
			msg.Kind = KindRepel
		}
		return msg, nil
	case TypeReset:
		return decodePayload[ResetMsg](unmarshal)
	case TypeRoomJoined:
		return decodePayload[RoomJoinedMsg](unmarshal)
	case TypePeerJoined:
		return decodePayload[PeerJoinedMsg](unmarshal)
	case TypeStartGame:
		return decodePayload[StartGameMsg](unmarshal)
	case TypePeerLeft:
		return decodePayload[PeerLeftMsg](unmarshal)
	case TypeError:
		return decodePayload[ErrorMsg](unmarshal)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
}

func decodePayload[T Message](unmarshal func(any) error) (Message, error) {
	var out T
	if err := unmarshal(&out); err != nil {
		return nil, err
	}
	return out, nil
}
