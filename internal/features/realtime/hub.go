package realtime

import "sync"

// Sender is one live connection's outbound half. The network conn itself is
// managed by the gateway; the hub only ever pushes frames through this.
type Sender interface {
	Send(event string, payload any) error
	Close()
}

// Room naming is part of the wire contract with existing clients.
func GroupRoom(groupID string) string { return "group:" + groupID }
func UserRoom(userID string) string  { return "user:" + userID }

// Hub is the per-process connection registry: which connections exist and
// which rooms each one is in. It is the only shared mutable state in the
// realtime layer, so every mutation happens under the lock.
type Hub struct {
	mu        sync.RWMutex
	conns     map[string]Sender
	rooms     map[string]map[string]struct{} // room name -> conn ids
	connRooms map[string]map[string]struct{} // conn id -> room names
}

func NewHub() *Hub {
	return &Hub{
		conns:     make(map[string]Sender),
		rooms:     make(map[string]map[string]struct{}),
		connRooms: make(map[string]map[string]struct{}),
	}
}

// Register adds an authenticated connection to the registry.
func (h *Hub) Register(connID string, sender Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[connID] = sender
	if _, ok := h.connRooms[connID]; !ok {
		h.connRooms[connID] = make(map[string]struct{})
	}
}

// Unregister drops the connection and leaves all its rooms. Safe to call for
// connections that never registered.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range h.connRooms[connID] {
		delete(h.rooms[room], connID)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.connRooms, connID)
	delete(h.conns, connID)
}

// Join subscribes a registered connection to a room.
func (h *Hub) Join(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[connID]; !ok {
		return
	}
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[string]struct{})
	}
	h.rooms[room][connID] = struct{}{}
	h.connRooms[connID][room] = struct{}{}
}

// Leave unsubscribes unconditionally; leaving a room the connection is not
// in is a no-op.
func (h *Hub) Leave(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms, ok := h.connRooms[connID]; ok {
		delete(rooms, room)
	}
}

// Rooms returns the rooms a connection is currently subscribed to.
func (h *Hub) Rooms(connID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rooms := make([]string, 0, len(h.connRooms[connID]))
	for room := range h.connRooms[connID] {
		rooms = append(rooms, room)
	}
	return rooms
}

// BroadcastToAll sends to every registered connection regardless of rooms.
// Fire and forget: send errors are the gateway's read loop's problem.
func (h *Hub) BroadcastToAll(event string, payload any) {
	h.mu.RLock()
	senders := make([]Sender, 0, len(h.conns))
	for _, s := range h.conns {
		senders = append(senders, s)
	}
	h.mu.RUnlock()

	for _, s := range senders {
		_ = s.Send(event, payload)
	}
}

// BroadcastToRoom sends to the room's current subscriber set. An empty or
// unknown room is a silent no-op.
func (h *Hub) BroadcastToRoom(room, event string, payload any) {
	h.mu.RLock()
	senders := make([]Sender, 0, len(h.rooms[room]))
	for connID := range h.rooms[room] {
		if s, ok := h.conns[connID]; ok {
			senders = append(senders, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range senders {
		_ = s.Send(event, payload)
	}
}
