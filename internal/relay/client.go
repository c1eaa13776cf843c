package relay

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are checked by middleware.WebSocketCORSCheck.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type frame struct {
	binary bool
	data   []byte
}

// Client is one seated websocket connection.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	room string
	seat int

	send   chan frame
	mu     sync.Mutex
	closed bool
}

// enqueue queues f for the write pump without blocking. It reports false
// when the client is closed or its buffer is full.
func (c *Client) enqueue(f frame) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- f:
		return true
	default:
		log.Printf("[RELAY] Send buffer full for seat %d in room %s, dropping frame", c.seat, c.room)
		return false
	}
}

// closeSend stops the write pump once queued frames are flushed.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			messageType := websocket.TextMessage
			if f.binary {
				messageType = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(messageType, f.data); err != nil {
				log.Printf("[RELAY] Write error for seat %d in room %s: %v", c.seat, c.room, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[RELAY] Ping error for seat %d in room %s: %v", c.seat, c.room, err)
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[RELAY] Unexpected close for seat %d in room %s: %v", c.seat, c.room, err)
			}
			break
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		c.hub.forward(c, frame{binary: messageType == websocket.BinaryMessage, data: data})
	}
}
