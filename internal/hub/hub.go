// Package hub maps rooms to live socket connections and performs all
// outbound fan-out. Targeting rules live here: payloads meant for the
// actor alone are delivered to the actor's connection only, decided by
// the per-connection user id, never by trusting receivers to discard.
package hub

import (
	"encoding/json"
	"sync"

	models "github.com/Knocktern/The-Quiet-Game/internal/models"
	util "github.com/Knocktern/The-Quiet-Game/internal/util"
)

type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Client
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[string]*Client)}
}

// Register binds a client to a user id within a room. A second
// connection for the same user replaces the first, which is closed.
func (h *Hub) Register(roomCode, userID, username string, c *Client) {
	c.RoomCode = roomCode
	c.UserID = userID
	c.Username = username

	h.mu.Lock()
	room, ok := h.rooms[roomCode]
	if !ok {
		room = make(map[string]*Client)
		h.rooms[roomCode] = room
	}
	prev := room[userID]
	room[userID] = c
	h.mu.Unlock()

	if prev != nil && prev != c {
		util.LogInfo("Replacing connection for user %s in room %s", userID, roomCode)
		prev.Close()
	}
}

// Unregister removes the client from its room, ignoring clients that
// were already replaced by a newer connection for the same user.
func (h *Hub) Unregister(c *Client) {
	if c.RoomCode == "" {
		return
	}

	h.mu.Lock()
	if room, ok := h.rooms[c.RoomCode]; ok {
		if current, ok := room[c.UserID]; ok && current == c {
			delete(room, c.UserID)
		}
		if len(room) == 0 {
			delete(h.rooms, c.RoomCode)
		}
	}
	h.mu.Unlock()
}

// RoomSize reports the number of connected members in a room.
func (h *Hub) RoomSize(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomCode])
}

// Broadcast delivers an event to every member of the room.
func (h *Hub) Broadcast(roomCode string, ev models.Event) {
	h.fanOut(roomCode, ev, "")
}

// BroadcastExcept delivers an event to every member except one user,
// typically the originator.
func (h *Hub) BroadcastExcept(roomCode, exceptUserID string, ev models.Event) {
	h.fanOut(roomCode, ev, exceptUserID)
}

func (h *Hub) fanOut(roomCode string, ev models.Event, exceptUserID string) {
	data, err := json.Marshal(ev)
	if err != nil {
		util.LogWarn("Marshal of %s event failed: %v", ev.Type, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for userID, c := range h.rooms[roomCode] {
		if exceptUserID != "" && userID == exceptUserID {
			continue
		}
		c.enqueue(data)
	}
}

// SendToUser delivers an event to a single member of the room. Returns
// false when the user has no live connection there.
func (h *Hub) SendToUser(roomCode, userID string, ev models.Event) bool {
	h.mu.RLock()
	c, ok := h.rooms[roomCode][userID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	h.SendTo(c, ev)
	return true
}

// SendTo delivers an event to one specific connection, registered or
// not. Used for errors and the connect handshake.
func (h *Hub) SendTo(c *Client, ev models.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		util.LogWarn("Marshal of %s event failed: %v", ev.Type, err)
		return
	}
	c.enqueue(data)
}
