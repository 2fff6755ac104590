// realtime/client.go - One websocket connection in a (team, round) channel
package realtime

import (
	"log"
	"sync"
)

const sendBufferSize = 64

// Conn is the subset of a websocket connection the hub needs. Satisfied by
// *websocket.Conn from gofiber/websocket and by fakes in tests.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

// Client pairs a connection with a channel membership and a buffered
// outbound queue drained by a dedicated write pump.
type Client struct {
	hub      *Hub
	key      groupKey
	conn     Conn
	username string

	mu     sync.Mutex
	send   chan Event
	closed bool
}

func newClient(h *Hub, key groupKey, conn Conn, username string) *Client {
	if username == "" {
		username = "Teammate"
	}
	return &Client{
		hub:      h,
		key:      key,
		conn:     conn,
		username: username,
		send:     make(chan Event, sendBufferSize),
	}
}

// enqueue queues an event without blocking; a slow consumer loses events
// rather than stalling the broadcaster. A broadcaster may hold a member
// snapshot taken before the client left, so enqueue after closeSend must
// be a silent no-op, never a send on a closed channel.
func (c *Client) enqueue(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- ev:
	default:
		log.Printf("Dropping %s event for slow client (team=%d round=%d)",
			ev.Type, c.key.TeamID, c.key.RoundNumber)
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump drains the send queue onto the connection.
func (c *Client) writePump() {
	for ev := range c.send {
		if err := c.conn.WriteJSON(ev); err != nil {
			log.Printf("Write failed (team=%d round=%d): %v", c.key.TeamID, c.key.RoundNumber, err)
			return
		}
	}
}

// ReadLoop processes inbound messages until the connection drops. It runs
// on the caller's goroutine; when it returns the caller should Leave.
func (c *Client) ReadLoop() {
	for {
		var msg Inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg Inbound) {
	user := msg.User
	if user == "" {
		user = c.username
	}

	switch msg.Type {
	case "bug_fixed":
		// Cosmetic peer notification, not authoritative.
		c.hub.broadcast(c.key, Event{
			Type:       "bug_fixed",
			PageNumber: msg.PageNumber,
			BugID:      msg.BugID,
			User:       user,
		})

	case "page_completed":
		c.hub.broadcast(c.key, Event{
			Type:       "page_completed",
			PageNumber: msg.PageNumber,
			User:       user,
		})
		// Follow the peer notification with the authoritative state.
		c.hub.BroadcastState(c.key.TeamID, c.key.RoundNumber)

	case "sync_request":
		c.enqueue(c.hub.snapshotEvent(c.key.TeamID, c.key.RoundNumber))
	}
}
