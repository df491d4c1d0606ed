package session

import (
	"sync"
	"time"
)

// State is the lifecycle of one room connection.
type State int

const (
	StateConnecting State = iota // connected, join-room not yet received
	StateJoined                  // member of a room, receiving fan-out
	StateDisconnected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Session is the explicit per-connection context. Identity fields are
// populated once at join and change only through the same member-upsert path
// as the durable record; there is no ad-hoc per-socket data bag.
type Session struct {
	ConnectionID string
	ConnectedAt  time.Time

	mu       sync.RWMutex
	state    State
	roomID   string
	clientID string
	name     string
	language string
}

// New creates a session in the Connecting state.
func New(connectionID string) *Session {
	return &Session{
		ConnectionID: connectionID,
		ConnectedAt:  time.Now(),
		state:        StateConnecting,
	}
}

// Join records the identity established by a successful join-room.
func (s *Session) Join(roomID, clientID, name, language string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateJoined
	s.roomID = roomID
	s.clientID = clientID
	s.name = name
	s.language = language
}

// Disconnect marks the session closed.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateDisconnected
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Identity returns the room and member identity recorded at join.
func (s *Session) Identity() (roomID, clientID, name, language string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomID, s.clientID, s.name, s.language
}

// RoomID returns the joined room, or "" before join.
func (s *Session) RoomID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomID
}

// Duration reports how long the connection has been up.
func (s *Session) Duration() time.Duration {
	return time.Since(s.ConnectedAt)
}
