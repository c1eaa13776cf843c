package peer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/puckarena/backend/internal/game"
	"github.com/puckarena/backend/internal/protocol"
)

var (
	ErrPeerLeft    = errors.New("peer left the room")
	ErrOutboxFull  = errors.New("outgoing buffer full")
	ErrRunnerDone  = errors.New("runner stopped")
	errMatchIsOver = errors.New("match over")
)

const (
	DefaultFrameInterval = 16 * time.Millisecond
	outboxSize           = 256
)

// Conn is the websocket surface the runner needs. *websocket.Conn
// satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Strategy drives a headless peer. Decide runs on the runner goroutine
// after every frame and returns inputs to apply immediately.
type Strategy interface {
	Decide(s *game.Session, now time.Time) []Event
}

type Config struct {
	Settings      game.Settings
	Mode          game.GameMode
	Self          game.Player
	Codec         protocol.Codec
	Clock         game.Clock
	FrameInterval time.Duration
	Strategy      Strategy
	// OnFrame is called on the runner goroutine after each frame.
	OnFrame func(View)
	// StopWhenEnded makes Run return nil once the match ends.
	StopWhenEnded bool
}

// Runner owns one peer's session. A single goroutine applies frame ticks,
// inbound messages and local input, so the match is never shared.
type Runner struct {
	cfg      Config
	conn     Conn
	session  *game.Session
	loop     *game.Loop
	viewport game.Viewport

	events  chan Event
	calls   chan func()
	inbound chan protocol.Message
	out     chan []byte
	readErr chan error
	stop    chan struct{}

	started      bool
	endReported  bool
	preview      game.Vec2
	previewValid bool
}

func NewRunner(conn Conn, cfg Config) *Runner {
	if cfg.Codec == nil {
		cfg.Codec = protocol.JSONCodec{}
	}
	if cfg.Clock == nil {
		cfg.Clock = game.SystemClock
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}

	r := &Runner{
		cfg:      cfg,
		conn:     conn,
		loop:     game.NewLoop(cfg.Settings.TickDuration()),
		viewport: game.NewViewport(cfg.Settings, 0, 0),
		events:   make(chan Event, 64),
		calls:    make(chan func()),
		inbound:  make(chan protocol.Message, 64),
		out:      make(chan []byte, outboxSize),
		readErr:  make(chan error, 1),
		stop:     make(chan struct{}),
	}
	match := game.NewMatch(cfg.Settings, cfg.Mode, cfg.Clock)
	r.session = game.NewSession(match, cfg.Self, r)
	return r
}

// Run drives the peer until ctx ends, the connection drops or the other
// peer leaves.
func (r *Runner) Run(ctx context.Context) error {
	defer func() {
		close(r.stop)
		r.conn.Close()
	}()

	go r.readLoop()
	go r.writeLoop()

	ticker := time.NewTicker(r.cfg.FrameInterval)
	defer ticker.Stop()

	log.Printf("[PEER] Runner started as %s", r.cfg.Self)
	for {
		var err error
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rerr := <-r.readErr:
			return fmt.Errorf("connection lost: %w", rerr)
		case msg := <-r.inbound:
			err = r.handleMessage(msg)
		case ev := <-r.events:
			r.handleInput(ev)
		case fn := <-r.calls:
			fn()
		case <-ticker.C:
			err = r.frame(r.cfg.Clock.Now())
		}
		if errors.Is(err, errMatchIsOver) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Input queues a local input event. Once Run has returned it fails with
// ErrRunnerDone, even if the event buffer has room.
func (r *Runner) Input(ctx context.Context, ev Event) error {
	if r.stopped() {
		return ErrRunnerDone
	}
	select {
	case r.events <- ev:
		return nil
	case <-r.stop:
		return ErrRunnerDone
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) stopped() bool {
	select {
	case <-r.stop:
		return true
	default:
		return false
	}
}

// Do runs fn on the runner goroutine and waits for it.
func (r *Runner) Do(ctx context.Context, fn func(*game.Session)) error {
	done := make(chan struct{})
	call := func() {
		fn(r.session)
		close(done)
	}
	if r.stopped() {
		return ErrRunnerDone
	}
	select {
	case r.calls <- call:
	case <-r.stop:
		return ErrRunnerDone
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}

// View reports the current state. Only call it from the runner goroutine,
// for example inside Do.
func (r *Runner) View() View {
	return View{
		Snapshot:     r.session.Match.Snapshot(),
		Preview:      r.preview,
		PreviewValid: r.previewValid,
	}
}

// Broadcast implements game.Broadcaster. It never blocks the runner.
func (r *Runner) Broadcast(msg protocol.Message) error {
	data, err := r.cfg.Codec.Encode(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.MessageType(), err)
	}
	select {
	case r.out <- data:
		return nil
	default:
		return ErrOutboxFull
	}
}

func (r *Runner) frame(now time.Time) error {
	if !r.started {
		return nil
	}
	r.loop.Advance(now, func(t time.Time) {
		r.session.Tick(t)
	})

	if r.cfg.Strategy != nil {
		for _, ev := range r.cfg.Strategy.Decide(r.session, now) {
			r.handleInput(ev)
		}
	}
	if r.cfg.OnFrame != nil {
		r.cfg.OnFrame(r.View())
	}

	m := r.session.Match
	if m.Ended() && !r.endReported {
		r.endReported = true
		log.Printf("[PEER] Match over: winner=%q scores=%d-%d", m.Winner, m.Scores.Player1, m.Scores.Player2)
		if r.cfg.StopWhenEnded {
			return errMatchIsOver
		}
	}
	return nil
}

func (r *Runner) handleInput(ev Event) {
	if !r.started {
		return
	}

	var err error
	switch ev.Kind {
	case PointerDown:
		if r.session.Match.Status == game.StatusCharging {
			_, err = r.session.Launch()
		} else {
			err = r.session.StartCharge(r.viewport.ToBoard(ev.X, ev.Y))
		}
	case PointerMove:
		r.preview = r.viewport.ToBoard(ev.X, ev.Y)
		r.previewValid = r.session.Match.IsValidPlacement(r.cfg.Self, r.preview)
	case Cancel:
		err = r.session.CancelCharge()
	case Resize:
		r.viewport = game.NewViewport(r.cfg.Settings, ev.X, ev.Y)
	case ActivatePowerUp:
		err = r.session.ActivatePowerUp(ev.PowerUp)
	case Reset:
		r.session.Reset()
		r.restart()
	}
	if err != nil {
		log.Printf("[PEER] %s rejected: %v", ev.Kind, err)
	}
}

func (r *Runner) handleMessage(msg protocol.Message) error {
	switch m := msg.(type) {
	case protocol.StartGameMsg:
		if game.Player(m.Player) != r.cfg.Self {
			log.Printf("[PEER] Relay seated us as player %d, expected %d", m.Player, r.cfg.Self)
		}
		match := r.session.Match
		if mode := game.GameMode(m.Mode); mode.Valid() {
			match.Mode = mode
		}
		match.Reset()
		if turn := game.Player(m.CurrentTurn); turn.Valid() {
			match.ActivePlayer = turn
		}
		r.started = true
		r.restart()
		log.Printf("[PEER] Game started in room %s (mode=%s)", m.Room, match.Mode)
		return nil
	case protocol.PeerLeftMsg:
		log.Printf("[PEER] Player %d left", m.Player)
		return ErrPeerLeft
	case protocol.RoomJoinedMsg:
		log.Printf("[PEER] Joined room %s as player %d", m.Room, m.Player)
		return nil
	case protocol.PeerJoinedMsg:
		log.Printf("[PEER] Player %d joined", m.Player)
		return nil
	case protocol.ErrorMsg:
		log.Printf("[PEER] Relay error: %s", m.Message)
		return nil
	}

	if !r.started {
		log.Printf("[SYNC] Dropping %s received before game start", msg.MessageType())
		return nil
	}
	if err := r.session.ApplyRemote(msg); err != nil {
		log.Printf("[SYNC] Dropping %s: %v", msg.MessageType(), err)
		return nil
	}
	if _, ok := msg.(protocol.ResetMsg); ok {
		r.restart()
	}
	return nil
}

func (r *Runner) restart() {
	r.loop.Reset()
	r.endReported = false
}

func (r *Runner) readLoop() {
	for {
		mt, data, err := r.conn.ReadMessage()
		if err != nil {
			r.readErr <- err
			return
		}
		msg, err := protocol.ForFrame(mt == websocket.BinaryMessage).Decode(data)
		if err != nil {
			log.Printf("[SYNC] Malformed frame: %v", err)
			continue
		}
		select {
		case r.inbound <- msg:
		case <-r.stop:
			return
		}
	}
}

func (r *Runner) writeLoop() {
	mt := websocket.TextMessage
	if r.cfg.Codec.Binary() {
		mt = websocket.BinaryMessage
	}
	for {
		select {
		case data := <-r.out:
			if err := r.conn.WriteMessage(mt, data); err != nil {
				log.Printf("[PEER] Write error: %v", err)
				return
			}
		case <-r.stop:
			return
		}
	}
}

// Dial opens the room websocket at url.
func Dial(ctx context.Context, url string) (*websocket.Conn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return conn, nil
}
