package protocol

// Type is the discriminant carried by every frame.
type Type string

// Peer-to-peer game messages. The relay forwards these untouched.
const (
	TypeLaunch         Type = "launch"
	TypeCollision      Type = "collision"
	TypeRepelActivated Type = "repelActivated"
	TypeGhostActivated Type = "ghostActivated"
	TypeReset          Type = "reset"
)

// Relay -> peer control messages.
const (
	TypeRoomJoined Type = "roomJoined"
	TypePeerJoined Type = "peerJoined"
	TypeStartGame  Type = "startGame"
	TypePeerLeft   Type = "peerLeft"
	TypeError      Type = "error"
)

// IsGameMessage reports whether t is relayed between peers.
func (t Type) IsGameMessage() bool {
	switch t {
	case TypeLaunch, TypeCollision, TypeRepelActivated, TypeGhostActivated, TypeReset:
		return true
	}
	return false
}

// Message is implemented by every payload type.
type Message interface {
	MessageType() Type
}

// PuckState is a puck as it travels on the wire. GhostStartMs is a unix
// timestamp in milliseconds, zero when the puck has no ghost.
type PuckState struct {
	ID           string  `json:"id" msgpack:"id"`
	X            float64 `json:"x" msgpack:"x"`
	Y            float64 `json:"y" msgpack:"y"`
	VX           float64 `json:"vx" msgpack:"vx"`
	VY           float64 `json:"vy" msgpack:"vy"`
	Player       int     `json:"player" msgpack:"player"`
	HasRepel     bool    `json:"hasRepel,omitempty" msgpack:"hasRepel,omitempty"`
	HasGhost     bool    `json:"hasGhost,omitempty" msgpack:"hasGhost,omitempty"`
	GhostStartMs int64   `json:"ghostStartTime,omitempty" msgpack:"ghostStartTime,omitempty"`
}

// LaunchMsg announces a freshly launched puck and whose turn follows.
type LaunchMsg struct {
	Puck     PuckState `json:"puck" msgpack:"puck"`
	NextTurn int       `json:"nextTurn" msgpack:"nextTurn"`
}

// CollisionMsg carries the post-collision state of a colliding pair.
type CollisionMsg struct {
	Puck1 PuckState `json:"puck1" msgpack:"puck1"`
	Puck2 PuckState `json:"puck2" msgpack:"puck2"`
}

// Power-up kinds carried by PowerUpMsg.
const (
	KindRepel = "repel"
	KindGhost = "ghost"
)

// PowerUpMsg announces that a player armed a power-up.
type PowerUpMsg struct {
	Kind   string `json:"kind" msgpack:"kind"`
	Player int    `json:"player" msgpack:"player"`
}

// ResetMsg restarts the match on the receiving side.
type ResetMsg struct {
	Initiator int `json:"initiator" msgpack:"initiator"`
}

type RoomJoinedMsg struct {
	Room   string `json:"room" msgpack:"room"`
	Player int    `json:"player" msgpack:"player"`
	Mode   string `json:"mode" msgpack:"mode"`
}

type PeerJoinedMsg struct {
	Player int `json:"player" msgpack:"player"`
}

// StartGameMsg is sent to each peer once both seats are connected.
type StartGameMsg struct {
	Room        string `json:"room" msgpack:"room"`
	Player      int    `json:"player" msgpack:"player"`
	Mode        string `json:"mode" msgpack:"mode"`
	CurrentTurn int    `json:"currentTurn" msgpack:"currentTurn"`
}

type PeerLeftMsg struct {
	Player int `json:"player" msgpack:"player"`
}

type ErrorMsg struct {
	Message string `json:"message" msgpack:"message"`
}

func (LaunchMsg) MessageType() Type     { return TypeLaunch }
func (CollisionMsg) MessageType() Type  { return TypeCollision }
func (ResetMsg) MessageType() Type      { return TypeReset }
func (RoomJoinedMsg) MessageType() Type { return TypeRoomJoined }
func (PeerJoinedMsg) MessageType() Type { return TypePeerJoined }
func (StartGameMsg) MessageType() Type  { return TypeStartGame }
func (PeerLeftMsg) MessageType() Type   { return TypePeerLeft }
func (ErrorMsg) MessageType() Type      { return TypeError }

// MessageType maps the power-up kind onto its activation discriminant.
func (m PowerUpMsg) MessageType() Type {
	if m.Kind == KindGhost {
		return TypeGhostActivated
	}
	return TypeRepelActivated
}
