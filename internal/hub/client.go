package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	util "github.com/Knocktern/The-Quiet-Game/internal/util"
)

// Conn is the subset of *websocket.Conn the hub writes through,
// abstracted so tests can substitute a recording fake.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one socket connection bound to a user inside a room. All
// writes go through the buffered send channel and a single write pump,
// which keeps the one-writer rule of gorilla/websocket.
type Client struct {
	ID       string
	UserID   string
	Username string
	RoomCode string

	conn      Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

const sendBuffer = 256

func NewClient(conn Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// WritePump drains the send channel into the connection until the
// client is closed or the write fails. Run it on its own goroutine.
func (c *Client) WritePump() {
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				util.LogWarn("Write to client %s failed: %v", c.ID, err)
				return
			}
		case <-ping.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// enqueue drops the message when the client's buffer is full; a slow
// consumer must not stall the whole room.
func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		util.LogWarn("Dropping message for slow client %s (user %s)", c.ID, c.UserID)
	}
}

// Close stops the write pump and closes the underlying connection.
// Safe to call from multiple goroutines; the hub closes replaced
// connections while their own read loop may be tearing down too.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
	_ = c.conn.Close()
}
