package http

import (
	"sync"

	"github.com/rs/zerolog/log"

	"trivia-live-service/internal/app"
)

// Hub tracks connected clients and their room memberships. It implements app.Broadcaster.
// Delivery never blocks: a client whose buffer is full misses the event.
type Hub struct {
	buffer int

	mu      sync.RWMutex
	clients map[string]chan app.Event
	rooms   map[string]map[string]struct{}
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	return &Hub{
		buffer:  buffer,
		clients: make(map[string]chan app.Event),
		rooms:   make(map[string]map[string]struct{}),
	}
}

// Register returns the outbound queue of a new client.
func (h *Hub) Register(clientID string) <-chan app.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan app.Event, h.buffer)
	h.clients[clientID] = ch
	return ch
}

// Unregister drops the client from every room and closes its queue.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.clients[clientID]
	if !ok {
		return
	}
	delete(h.clients, clientID)
	for roomID, members := range h.rooms {
		delete(members, clientID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	close(ch)
}

func (h *Hub) JoinRoom(roomID, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[clientID]; !ok {
		return
	}
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[roomID] = members
	}
	members[clientID] = struct{}{}
}

func (h *Hub) LeaveRoom(roomID, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(members, clientID)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

func (h *Hub) ToRoom(roomID string, event app.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for clientID := range h.rooms[roomID] {
		h.deliverLocked(clientID, event)
	}
}

func (h *Hub) ToClient(clientID string, event app.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.deliverLocked(clientID, event)
}

func (h *Hub) deliverLocked(clientID string, event app.Event) {
	ch, ok := h.clients[clientID]
	if !ok {
		return
	}
	select {
	case ch <- event:
	default:
		log.Warn().Str("client", clientID).Str("event", event.Type).Msg("client queue full, event dropped")
	}
}

// Stats reports connected clients and rooms with at least one member.
func (h *Hub) Stats() (clients, rooms int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients), len(h.rooms)
}
