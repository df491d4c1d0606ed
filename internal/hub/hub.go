package hub

import (
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"codecollab-backend/internal/event"
)

// TextMessage is the websocket text frame opcode (RFC 6455).
const TextMessage = 1

// ErrConnectionNotFound is returned when sending to an unknown connection.
var ErrConnectionNotFound = errors.New("connection not found")

// Conn is the minimal write surface of a websocket connection. The gofiber
// websocket.Conn satisfies it; tests substitute fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
}

// connection pairs a Conn with its write lock. Websocket writes are not
// concurrency-safe, so every write goes through writeMu.
type connection struct {
	id      string
	conn    Conn
	roomID  string
	writeMu sync.Mutex
}

func (c *connection) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(TextMessage, data)
}

// Hub tracks which connections are subscribed to which room and fans events
// out to them. "All but sender" is first-class: nearly every broadcast in
// this system excludes the originating connection.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*connection            // connectionID -> connection
	rooms map[string]map[string]*connection // roomID -> connectionID -> connection
	log   *zap.SugaredLogger
}

// New creates an empty hub.
func New(log *zap.SugaredLogger) *Hub {
	return &Hub{
		conns: make(map[string]*connection),
		rooms: make(map[string]map[string]*connection),
		log:   log,
	}
}

// Subscribe adds a connection to a room's broadcast group. Resubscribing
// moves the connection to the new room.
func (h *Hub) Subscribe(roomID, connectionID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.conns[connectionID]; ok && old.roomID != "" {
		delete(h.rooms[old.roomID], connectionID)
		if len(h.rooms[old.roomID]) == 0 {
			delete(h.rooms, old.roomID)
		}
	}

	c := &connection{id: connectionID, conn: conn, roomID: roomID}
	h.conns[connectionID] = c
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]*connection)
	}
	h.rooms[roomID][connectionID] = c

	h.log.Infof("[Hub] Connection %s subscribed to room %s (%d in room)",
		connectionID, roomID, len(h.rooms[roomID]))
}

// Unsubscribe removes a connection entirely.
func (h *Hub) Unsubscribe(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connectionID]
	if !ok {
		return
	}
	delete(h.conns, connectionID)
	if c.roomID != "" {
		delete(h.rooms[c.roomID], connectionID)
		if len(h.rooms[c.roomID]) == 0 {
			delete(h.rooms, c.roomID)
		}
	}
	h.log.Infof("[Hub] Connection %s unsubscribed", connectionID)
}

// BroadcastToRoom sends an event to every connection in the room except
// excludeConnectionID (pass "" to reach everyone).
func (h *Hub) BroadcastToRoom(roomID string, kind event.Kind, payload interface{}, excludeConnectionID string) {
	data, err := marshalEnvelope(kind, payload)
	if err != nil {
		h.log.Errorf("[Hub] Marshal %s failed: %v", kind, err)
		return
	}

	h.mu.RLock()
	targets := make([]*connection, 0, len(h.rooms[roomID]))
	for id, c := range h.rooms[roomID] {
		if id == excludeConnectionID {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(data); err != nil {
			h.log.Warnf("[Hub] Write %s to %s failed: %v", kind, c.id, err)
		}
	}
}

// SendToConnection delivers an event to a single connection.
func (h *Hub) SendToConnection(connectionID string, kind event.Kind, payload interface{}) error {
	data, err := marshalEnvelope(kind, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	c, ok := h.conns[connectionID]
	h.mu.RUnlock()
	if !ok {
		return ErrConnectionNotFound
	}
	return c.write(data)
}

// ConnectionsInRoom lists the connection ids subscribed to a room.
func (h *Hub) ConnectionsInRoom(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.rooms[roomID]))
	for id := range h.rooms[roomID] {
		ids = append(ids, id)
	}
	return ids
}

func marshalEnvelope(kind event.Kind, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(event.Envelope{Type: kind, Payload: raw})
}
