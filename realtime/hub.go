// realtime/hub.go - Broadcast groups keyed by (team, round)
package realtime

import (
	"log"
	"sync"

	"bughunt/services"
)

// StateProvider supplies the authoritative, reconciled game-state snapshot
// that the hub pushes to clients.
type StateProvider interface {
	GameState(teamID uint, roundNumber int) (*services.GameState, error)
}

// Event is an outbound websocket message.
type Event struct {
	Type       string      `json:"type"`
	Data       interface{} `json:"data,omitempty"`
	PageNumber int         `json:"page_number,omitempty"`
	BugID      string      `json:"bug_id,omitempty"`
	User       string      `json:"user,omitempty"`
}

// Inbound is a message received from a client.
type Inbound struct {
	Type       string `json:"type"`
	PageNumber int    `json:"page_number"`
	BugID      string `json:"bug_id"`
	User       string `json:"user"`
}

type groupKey struct {
	TeamID      uint
	RoundNumber int
}

// Hub maps (team, round) channels to their connected clients and fans
// events out to every member of a channel.
type Hub struct {
	mu     sync.RWMutex
	groups map[groupKey]map[*Client]struct{}
	state  StateProvider
}

func NewHub(state StateProvider) *Hub {
	return &Hub{
		groups: make(map[groupKey]map[*Client]struct{}),
		state:  state,
	}
}

// Join registers a connection in the (team, round) channel, starts its
// write pump and immediately sends the current game state to it.
func (h *Hub) Join(teamID uint, roundNumber int, conn Conn, username string) *Client {
	client := newClient(h, groupKey{TeamID: teamID, RoundNumber: roundNumber}, conn, username)

	h.mu.Lock()
	group, ok := h.groups[client.key]
	if !ok {
		group = make(map[*Client]struct{})
		h.groups[client.key] = group
	}
	group[client] = struct{}{}
	h.mu.Unlock()

	go client.writePump()

	client.enqueue(h.snapshotEvent(teamID, roundNumber))
	return client
}

// Leave removes a client from its channel and closes its send queue.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	if group, ok := h.groups[c.key]; ok {
		delete(group, c)
		if len(group) == 0 {
			delete(h.groups, c.key)
		}
	}
	h.mu.Unlock()

	c.closeSend()
}

// MemberCount reports how many clients are in a channel.
func (h *Hub) MemberCount(teamID uint, roundNumber int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[groupKey{TeamID: teamID, RoundNumber: roundNumber}])
}

// Broadcast sends an event to every member of a channel.
func (h *Hub) Broadcast(teamID uint, roundNumber int, ev Event) {
	h.broadcast(groupKey{TeamID: teamID, RoundNumber: roundNumber}, ev)
}

// BroadcastState pushes a fresh authoritative snapshot to every member of
// a channel. Called after any mutation of the team's progress.
func (h *Hub) BroadcastState(teamID uint, roundNumber int) {
	h.broadcast(groupKey{TeamID: teamID, RoundNumber: roundNumber},
		h.snapshotEvent(teamID, roundNumber))
}

func (h *Hub) broadcast(key groupKey, ev Event) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.groups[key]))
	for c := range h.groups[key] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.enqueue(ev)
	}
}

// snapshotEvent builds a game_state event. A lookup failure degrades to an
// error payload inside the game_state envelope instead of dropping the
// connection.
func (h *Hub) snapshotEvent(teamID uint, roundNumber int) Event {
	state, err := h.state.GameState(teamID, roundNumber)
	if err != nil {
		log.Printf("Game state unavailable (team=%d round=%d): %v", teamID, roundNumber, err)
		return Event{Type: "game_state", Data: map[string]string{"error": err.Error()}}
	}
	return Event{Type: "game_state", Data: state}
}
