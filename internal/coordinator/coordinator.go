package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"codecollab-backend/internal/cache"
	"codecollab-backend/internal/config"
	"codecollab-backend/internal/event"
	"codecollab-backend/internal/hub"
	"codecollab-backend/internal/model"
	"codecollab-backend/internal/session"
	"codecollab-backend/internal/store"
	"codecollab-backend/internal/translate"
)

// DefaultCode is the buffer a fresh room starts with.
const DefaultCode = "// Start coding together...\n"

var (
	// ErrNotJoined is returned for room operations on a connection that has
	// not completed join-room.
	ErrNotJoined = errors.New("connection has not joined a room")

	// ErrNotCreator is returned when a non-creator tries to start the session.
	ErrNotCreator = errors.New("only the room creator can start the session")
)

// Coordinator holds authoritative room state, fans code and cursor deltas
// out to connected participants, and drives the translation pipeline. It
// never holds its own lock across store or provider calls; atomicity is the
// store's job.
type Coordinator struct {
	store    store.RoomStore
	cache    cache.Store
	provider translate.Provider
	hub      *hub.Hub
	log      *zap.SugaredLogger

	debounceInterval time.Duration

	mu         sync.Mutex
	sessions   map[string]*session.Session // connectionID -> session
	debouncers map[string]func(func())     // pass key -> debouncer
	pending    map[string]pendingPass      // pass key -> newest buffer
	running    map[string]bool             // pass key -> pass in flight
	dirty      map[string]bool             // pass key -> rerun after current pass

	inflightMu sync.Mutex
	inflight   map[string]bool // fingerprint -> provider call in flight
}

type pendingPass struct {
	code     string
	language string
}

// New wires the coordinator.
func New(st store.RoomStore, ca cache.Store, provider translate.Provider, h *hub.Hub, cfg config.PipelineConfig, log *zap.SugaredLogger) *Coordinator {
	return &Coordinator{
		store:            st,
		cache:            ca,
		provider:         provider,
		hub:              h,
		log:              log,
		debounceInterval: cfg.DebounceInterval,
		sessions:         make(map[string]*session.Session),
		debouncers:       make(map[string]func(func())),
		pending:          make(map[string]pendingPass),
		running:          make(map[string]bool),
		dirty:            make(map[string]bool),
		inflight:         make(map[string]bool),
	}
}

// Session returns the per-connection context, creating it on first contact.
func (c *Coordinator) Session(connectionID string) *session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.sessions[connectionID]; ok {
		return s
	}
	s := session.New(connectionID)
	c.sessions[connectionID] = s
	return s
}

func (c *Coordinator) joinedSession(connectionID string) (*session.Session, error) {
	c.mu.Lock()
	s, ok := c.sessions[connectionID]
	c.mu.Unlock()
	if !ok || s.State() != session.StateJoined {
		return nil, ErrNotJoined
	}
	return s, nil
}

// Join validates the join request, upserts the member, subscribes the
// connection, and sends the joining connection the current buffer and member
// list. A rejoin with a known clientId merges into the existing member; only
// genuinely new members produce a user-joined broadcast.
func (c *Coordinator) Join(ctx context.Context, connectionID string, conn hub.Conn, p *event.JoinRoom) error {
	if err := p.Validate(); err != nil {
		return err
	}

	room, created, err := c.store.UpsertMember(ctx, p.RoomID, p.ClientID, store.MemberFields{
		Name:         store.String(p.Name),
		Language:     store.String(p.Language),
		ConnectionID: store.String(connectionID),
		IsActive:     store.Bool(true),
	})
	if err != nil {
		return err
	}

	sess := c.Session(connectionID)
	sess.Join(p.RoomID, p.ClientID, p.Name, p.Language)

	c.hub.Subscribe(p.RoomID, connectionID, conn)

	// cross-room user record; failures here never block the join
	roomID := p.RoomID
	if err := c.store.UpsertUser(ctx, model.User{
		ClientID:      p.ClientID,
		Name:          p.Name,
		Language:      p.Language,
		CurrentRoomID: &roomID,
	}); err != nil {
		c.log.Warnf("[Coordinator] User upsert for %s failed: %v", p.ClientID, err)
	}

	code := room.CurrentCode
	if code == "" {
		code = DefaultCode
	}
	if err := c.hub.SendToConnection(connectionID, event.KindInitialCode, event.InitialCode{Code: code}); err != nil {
		c.log.Warnf("[Coordinator] Initial code to %s failed: %v", connectionID, err)
	}

	users, creator := roomUsers(room)
	others := make([]event.RoomUser, 0, len(users))
	for _, u := range users {
		if u.ClientID != p.ClientID {
			others = append(others, u)
		}
	}
	if err := c.hub.SendToConnection(connectionID, event.KindRoomUsersList, event.RoomUsers{Users: others, CreatorClientID: creator}); err != nil {
		c.log.Warnf("[Coordinator] User list to %s failed: %v", connectionID, err)
	}

	// lobby views everywhere get the refreshed list, joiner included
	c.hub.BroadcastToRoom(p.RoomID, event.KindRoomUsersUpdate, event.RoomUsers{Users: users, CreatorClientID: creator}, "")

	if created {
		c.hub.BroadcastToRoom(p.RoomID, event.KindUserJoined, event.UserJoined{Name: p.Name, Language: p.Language}, connectionID)
	}

	c.log.Infof("[Coordinator] %s joined room %s (client %s, rejoin=%v)", p.Name, p.RoomID, p.ClientID, !created)
	return nil
}

// CodeChange persists the new buffer, fans it out to the other connections,
// and schedules a debounced translation pass. The broadcast never waits on
// translation.
func (c *Coordinator) CodeChange(ctx context.Context, connectionID string, p *event.CodeChange) error {
	if err := p.Validate(); err != nil {
		return err
	}
	sess, err := c.joinedSession(connectionID)
	if err != nil {
		return err
	}
	roomID, clientID, _, _ := sess.Identity()
	if p.RoomID != roomID {
		return fmt.Errorf("%w: roomId does not match joined room", event.ErrInvalidRequest)
	}

	if err := c.store.SetCode(ctx, roomID, p.Code); err != nil {
		return err
	}

	// sender already holds the authoritative value it just sent
	c.hub.BroadcastToRoom(roomID, event.KindCodeUpdate, event.CodeUpdate{Code: p.Code}, connectionID)

	c.schedulePass(roomID, clientID, p.Code, p.Language)
	return nil
}

// CursorMove is stateless fan-out: no persistence, last-sent-wins per sender.
func (c *Coordinator) CursorMove(connectionID string, p *event.CursorMove) error {
	if err := p.Validate(); err != nil {
		return err
	}
	sess, err := c.joinedSession(connectionID)
	if err != nil {
		return err
	}
	roomID, _, name, _ := sess.Identity()

	c.hub.BroadcastToRoom(roomID, event.KindCursorUpdate, event.CursorUpdate{
		ConnectionID: connectionID,
		Cursor:       p.Cursor,
		Name:         name,
	}, connectionID)
	return nil
}

// StartSession lets the room creator (first member by join order) move every
// lobby client into active editing.
func (c *Coordinator) StartSession(ctx context.Context, connectionID string, p *event.StartSession) error {
	if err := p.Validate(); err != nil {
		return err
	}

	room, err := c.store.GetRoom(ctx, p.RoomID)
	if err != nil {
		return err
	}
	if len(room.Members) == 0 || room.Members[0].ConnectionID != connectionID {
		return ErrNotCreator
	}

	// everyone transitions, initiator included
	c.hub.BroadcastToRoom(p.RoomID, event.KindSessionStarted, struct{}{}, "")
	c.log.Infof("[Coordinator] Session started for room %s", p.RoomID)
	return nil
}

// Disconnect clears the member's connection state, keeps the member record
// for future rejoins, and tells the room. No messages are buffered for the
// departed peer.
func (c *Coordinator) Disconnect(ctx context.Context, connectionID string) {
	c.mu.Lock()
	sess := c.sessions[connectionID]
	delete(c.sessions, connectionID)
	c.mu.Unlock()

	c.hub.Unsubscribe(connectionID)

	rooms, err := c.store.RemoveMemberConnection(ctx, connectionID)
	if err != nil {
		c.log.Errorf("[Coordinator] Disconnect cleanup for %s failed: %v", connectionID, err)
		return
	}

	var clientID, name string
	if sess != nil {
		_, clientID, name, _ = sess.Identity()
		sess.Disconnect()
	}

	for _, room := range rooms {
		users, creator := roomUsers(room)
		c.hub.BroadcastToRoom(room.RoomID, event.KindRoomUsersUpdate, event.RoomUsers{Users: users, CreatorClientID: creator}, "")
		if clientID != "" {
			c.hub.BroadcastToRoom(room.RoomID, event.KindUserLeft, event.UserLeft{ClientID: clientID, Name: name}, "")
		}
	}

	if sess != nil {
		c.log.Infof("[Coordinator] Connection %s disconnected after %s", connectionID, sess.Duration().Round(time.Second))
	}
}

// roomUsers converts members (already in join order) to their public view.
// The first member is the creator.
func roomUsers(room *model.Room) ([]event.RoomUser, string) {
	users := make([]event.RoomUser, 0, len(room.Members))
	creator := ""
	for i, m := range room.Members {
		if i == 0 {
			creator = m.ClientID
		}
		users = append(users, event.RoomUser{
			ClientID:     m.ClientID,
			Name:         m.Name,
			Language:     m.Language,
			ConnectionID: m.ConnectionID,
			IsActive:     m.IsActive,
		})
	}
	return users, creator
}
