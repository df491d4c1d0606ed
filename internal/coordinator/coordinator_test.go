package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codecollab-backend/internal/config"
	"codecollab-backend/internal/event"
	"codecollab-backend/internal/hub"
	"codecollab-backend/internal/logger"
	"codecollab-backend/internal/model"
	"codecollab-backend/internal/store"
)

// fakeStore is an in-memory RoomStore preserving join order.
type fakeStore struct {
	mu    sync.Mutex
	rooms map[string]*model.Room
	users map[string]model.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms: make(map[string]*model.Room),
		users: make(map[string]model.User),
	}
}

func (s *fakeStore) seedRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = &model.Room{RoomID: roomID}
}

func (s *fakeStore) snapshot(roomID string) *model.Room {
	cp := *s.rooms[roomID]
	cp.Members = append([]model.RoomMember(nil), s.rooms[roomID].Members...)
	return &cp
}

func (s *fakeStore) CreateRoom(ctx context.Context, roomID string, creator model.RoomMember) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	creator.RoomID = roomID
	s.rooms[roomID] = &model.Room{RoomID: roomID, Members: []model.RoomMember{creator}}
	return s.snapshot(roomID), nil
}

func (s *fakeStore) GetRoom(ctx context.Context, roomID string) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		return nil, store.ErrRoomNotFound
	}
	return s.snapshot(roomID), nil
}

func (s *fakeStore) UpsertMember(ctx context.Context, roomID, clientID string, fields store.MemberFields) (*model.Room, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, false, store.ErrRoomNotFound
	}
	for i := range room.Members {
		if room.Members[i].ClientID == clientID {
			applyFakeFields(&room.Members[i], fields)
			return s.snapshot(roomID), false, nil
		}
	}
	m := model.RoomMember{RoomID: roomID, ClientID: clientID, JoinedAt: time.Now()}
	applyFakeFields(&m, fields)
	room.Members = append(room.Members, m)
	return s.snapshot(roomID), true, nil
}

func (s *fakeStore) RemoveMemberConnection(ctx context.Context, connectionID string) ([]*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var affected []*model.Room
	for roomID, room := range s.rooms {
		touched := false
		for i := range room.Members {
			if room.Members[i].ConnectionID == connectionID {
				room.Members[i].ConnectionID = ""
				room.Members[i].IsActive = false
				touched = true
			}
		}
		if touched {
			affected = append(affected, s.snapshot(roomID))
		}
	}
	return affected, nil
}

func (s *fakeStore) SetCode(ctx context.Context, roomID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return store.ErrRoomNotFound
	}
	room.CurrentCode = code
	return nil
}

func (s *fakeStore) UpsertUser(ctx context.Context, user model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ClientID] = user
	return nil
}

func (s *fakeStore) ClearUserRoom(ctx context.Context, clientID string) error {
	return nil
}

func applyFakeFields(m *model.RoomMember, f store.MemberFields) {
	if f.Name != nil {
		m.Name = *f.Name
	}
	if f.Language != nil {
		m.Language = *f.Language
	}
	if f.ConnectionID != nil {
		m.ConnectionID = *f.ConnectionID
	}
	if f.IsActive != nil {
		m.IsActive = *f.IsActive
	}
}

// fakeCache is a flat in-memory Store.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*model.TranslationEntry
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*model.TranslationEntry)}
}

func (c *fakeCache) Get(ctx context.Context, fingerprint string) (*model.TranslationEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[fingerprint]
	return e, ok
}

func (c *fakeCache) Put(ctx context.Context, entry *model.TranslationEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	if _, ok := c.entries[entry.Fingerprint]; !ok {
		c.entries[entry.Fingerprint] = entry
	}
	return nil
}

func (c *fakeCache) History(ctx context.Context, roomID, clientID string) ([]model.TranslationEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.TranslationEntry
	for _, e := range c.entries {
		if e.RoomID == roomID && e.ClientID == clientID {
			out = append(out, *e)
		}
	}
	return out, nil
}

// fakeProvider translates by tagging the target locale and counts calls per
// text so cache behavior is observable.
type fakeProvider struct {
	mu        sync.Mutex
	calls     map[string]int
	failBatch bool
	failAll   bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{calls: make(map[string]int)}
}

func (p *fakeProvider) callCount(text string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[text]
}

func (p *fakeProvider) Translate(ctx context.Context, text, sourceLocale, targetLocale string) (string, error) {
	p.mu.Lock()
	p.calls[text]++
	p.mu.Unlock()
	if p.failAll {
		return "", errors.New("provider down")
	}
	return fmt.Sprintf("[%s] %s", targetLocale, text), nil
}

func (p *fakeProvider) TranslateBatch(ctx context.Context, texts []string, sourceLocale, targetLocale string) ([]string, error) {
	if p.failBatch || p.failAll {
		return nil, errors.New("batch failed")
	}
	out := make([]string, len(texts))
	for i, text := range texts {
		p.mu.Lock()
		p.calls[text]++
		p.mu.Unlock()
		out[i] = fmt.Sprintf("[%s] %s", targetLocale, text)
	}
	return out, nil
}

// fakeConn records frames written to one connection.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	f.frames = append(f.frames, cp)
	return nil
}

func (f *fakeConn) envelopes() []event.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]event.Envelope, 0, len(f.frames))
	for _, frame := range f.frames {
		var env event.Envelope
		if json.Unmarshal(frame, &env) == nil {
			out = append(out, env)
		}
	}
	return out
}

func (f *fakeConn) ofKind(kind event.Kind) []event.Envelope {
	var out []event.Envelope
	for _, env := range f.envelopes() {
		if env.Type == kind {
			out = append(out, env)
		}
	}
	return out
}

func (f *fakeConn) countOf(kind event.Kind) int {
	return len(f.ofKind(kind))
}

func decodeAs[T any](t *testing.T, env event.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Payload, &v))
	return v
}

type fixture struct {
	coord    *Coordinator
	store    *fakeStore
	cache    *fakeCache
	provider *fakeProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newFakeStore()
	ca := newFakeCache()
	pr := newFakeProvider()
	h := hub.New(logger.NewNop())
	coord := New(st, ca, pr, h, config.PipelineConfig{DebounceInterval: 10 * time.Millisecond}, logger.NewNop())
	return &fixture{coord: coord, store: st, cache: ca, provider: pr}
}

func (fx *fixture) join(t *testing.T, connID, clientID, name, language string) *fakeConn {
	t.Helper()
	conn := &fakeConn{}
	err := fx.coord.Join(context.Background(), connID, conn, &event.JoinRoom{
		RoomID:   "room1",
		Name:     name,
		Language: language,
		ClientID: clientID,
	})
	require.NoError(t, err)
	return conn
}

func TestJoinSendsInitialState(t *testing.T) {
	fx := newFixture(t)
	fx.store.seedRoom("room1")

	alice := fx.join(t, "conn-a", "alice", "Alice", "english")

	initial := alice.ofKind(event.KindInitialCode)
	require.Len(t, initial, 1)
	assert.Equal(t, DefaultCode, decodeAs[event.InitialCode](t, initial[0]).Code)

	list := alice.ofKind(event.KindRoomUsersList)
	require.Len(t, list, 1)
	assert.Empty(t, decodeAs[event.RoomUsers](t, list[0]).Users)

	update := alice.ofKind(event.KindRoomUsersUpdate)
	require.Len(t, update, 1)
	p := decodeAs[event.RoomUsers](t, update[0])
	require.Len(t, p.Users, 1)
	assert.Equal(t, "alice", p.CreatorClientID)
}

func TestJoinUnknownRoom(t *testing.T) {
	fx := newFixture(t)
	conn := &fakeConn{}

	err := fx.coord.Join(context.Background(), "conn-a", conn, &event.JoinRoom{
		RoomID: "ghost", Name: "Alice", Language: "english", ClientID: "alice",
	})

	assert.ErrorIs(t, err, store.ErrRoomNotFound)
}

func TestSecondJoinAnnouncesNewMember(t *testing.T) {
	fx := newFixture(t)
	fx.store.seedRoom("room1")
	alice := fx.join(t, "conn-a", "alice", "Alice", "english")
	bob := fx.join(t, "conn-b", "bob", "Bob", "korean")

	joined := alice.ofKind(event.KindUserJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "Bob", decodeAs[event.UserJoined](t, joined[0]).Name)

	// bob sees alice in the pre-join list and no user-joined for himself
	list := bob.ofKind(event.KindRoomUsersList)
	require.Len(t, list, 1)
	p := decodeAs[event.RoomUsers](t, list[0])
	require.Len(t, p.Users, 1)
	assert.Equal(t, "alice", p.Users[0].ClientID)
	assert.Equal(t, "alice", p.CreatorClientID)
	assert.Zero(t, bob.countOf(event.KindUserJoined))
}

func TestRejoinDoesNotAnnounce(t *testing.T) {
	fx := newFixture(t)
	fx.store.seedRoom("room1")
	alice := fx.join(t, "conn-a", "alice", "Alice", "english")
	fx.join(t, "conn-b", "bob", "Bob", "korean")
	before := alice.countOf(event.KindUserJoined)

	// bob reconnects on a fresh socket with the same client identity
	fx.join(t, "conn-b2", "bob", "Bob", "korean")

	assert.Equal(t, before, alice.countOf(event.KindUserJoined))
	room := fx.store.snapshot("room1")
	require.Len(t, room.Members, 2)
	assert.Equal(t, "conn-b2", room.Members[1].ConnectionID)
}

func TestCodeChangeFanOutExcludesSender(t *testing.T) {
	fx := newFixture(t)
	fx.store.seedRoom("room1")
	alice := fx.join(t, "conn-a", "alice", "Alice", "english")
	bob := fx.join(t, "conn-b", "bob", "Bob", "korean")

	err := fx.coord.CodeChange(context.Background(), "conn-a", &event.CodeChange{
		RoomID: "room1", Code: "let x = 1;", Language: "javascript",
	})
	require.NoError(t, err)

	updates := bob.ofKind(event.KindCodeUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, "let x = 1;", decodeAs[event.CodeUpdate](t, updates[0]).Code)
	assert.Zero(t, alice.countOf(event.KindCodeUpdate))

	assert.Equal(t, "let x = 1;", fx.store.snapshot("room1").CurrentCode)
}

func TestCodeChangeRequiresJoin(t *testing.T) {
	fx := newFixture(t)
	fx.store.seedRoom("room1")

	err := fx.coord.CodeChange(context.Background(), "stranger", &event.CodeChange{RoomID: "room1", Code: "x"})

	assert.ErrorIs(t, err, ErrNotJoined)
}

func TestPipelineTranslatesForOtherMembers(t *testing.T) {
	fx := newFixture(t)
	fx.store.seedRoom("room1")
	alice := fx.join(t, "conn-a", "alice", "Alice", "english")
	bob := fx.join(t, "conn-b", "bob", "Bob", "korean")

	err := fx.coord.CodeChange(context.Background(), "conn-a", &event.CodeChange{
		RoomID: "room1", Code: "// hello\ncode();\n", Language: "javascript",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return bob.countOf(event.KindTranslateComplete) == 1
	}, 2*time.Second, 5*time.Millisecond)

	starts := bob.ofKind(event.KindTranslateStart)
	require.Len(t, starts, 1)
	assert.Equal(t, 1, decodeAs[event.TranslateStart](t, starts[0]).Total)

	chunks := bob.ofKind(event.KindTranslateChunk)
	require.Len(t, chunks, 1)
	chunk := decodeAs[event.TranslateChunk](t, chunks[0])
	assert.Equal(t, 0, chunk.Index)
	assert.Equal(t, 0, chunk.Line)
	assert.Equal(t, "hello", chunk.OriginalText)
	assert.Equal(t, "[ko] hello", chunk.TranslatedText)
	assert.True(t, chunk.Success)
	assert.False(t, chunk.FromCache)
	assert.Equal(t, 100, chunk.Progress)
	assert.Equal(t, "alice", chunk.SenderClientID)
	assert.Equal(t, "bob", chunk.ReceiverClientID)

	// sender gets no translation stream of their own change
	assert.Zero(t, alice.countOf(event.KindTranslateStart))
}

func TestPipelineSecondPassHitsCache(t *testing.T) {
	fx := newFixture(t)
	fx.store.seedRoom("room1")
	fx.join(t, "conn-a", "alice", "Alice", "english")
	bob := fx.join(t, "conn-b", "bob", "Bob", "korean")

	change := &event.CodeChange{RoomID: "room1", Code: "// hello\n", Language: "javascript"}
	require.NoError(t, fx.coord.CodeChange(context.Background(), "conn-a", change))
	require.Eventually(t, func() bool {
		return bob.countOf(event.KindTranslateComplete) == 1
	}, 2*time.Second, 5*time.Millisecond)

	// same comment again after an unrelated edit
	change.Code = "// hello\nlet y = 2;\n"
	require.NoError(t, fx.coord.CodeChange(context.Background(), "conn-a", change))
	require.Eventually(t, func() bool {
		return bob.countOf(event.KindTranslateComplete) == 2
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, fx.provider.callCount("hello"))
	chunks := bob.ofKind(event.KindTranslateChunk)
	require.Len(t, chunks, 2)
	assert.True(t, decodeAs[event.TranslateChunk](t, chunks[1]).FromCache)
}

func TestPipelineZeroCommentsClears(t *testing.T) {
	fx := newFixture(t)
	fx.store.seedRoom("room1")
	fx.join(t, "conn-a", "alice", "Alice", "english")
	bob := fx.join(t, "conn-b", "bob", "Bob", "korean")

	err := fx.coord.CodeChange(context.Background(), "conn-a", &event.CodeChange{
		RoomID: "room1", Code: "let x = 1;\n", Language: "javascript",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return bob.countOf(event.KindTranslateClear) == 1
	}, 2*time.Second, 5*time.Millisecond)

	clear := decodeAs[event.TranslateClear](t, bob.ofKind(event.KindTranslateClear)[0])
	assert.Equal(t, "alice", clear.SenderClientID)
	assert.Zero(t, bob.countOf(event.KindTranslateStart))
}

func TestPipelineBatchFallback(t *testing.T) {
	fx := newFixture(t)
	fx.provider.failBatch = true
	fx.store.seedRoom("room1")
	fx.join(t, "conn-a", "alice", "Alice", "english")
	bob := fx.join(t, "conn-b", "bob", "Bob", "korean")

	err := fx.coord.CodeChange(context.Background(), "conn-a", &event.CodeChange{
		RoomID: "room1", Code: "// one\n// two\n", Language: "javascript",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return bob.countOf(event.KindTranslateComplete) == 1
	}, 2*time.Second, 5*time.Millisecond)

	chunks := bob.ofKind(event.KindTranslateChunk)
	require.Len(t, chunks, 2)
	for i, raw := range chunks {
		chunk := decodeAs[event.TranslateChunk](t, raw)
		assert.Equal(t, i, chunk.Index)
		assert.True(t, chunk.Success)
	}
	// each item went through the single-call fallback
	assert.Equal(t, 1, fx.provider.callCount("one"))
	assert.Equal(t, 1, fx.provider.callCount("two"))
}

func TestPipelineTotalFailureKeepsOriginalText(t *testing.T) {
	fx := newFixture(t)
	fx.provider.failAll = true
	fx.store.seedRoom("room1")
	fx.join(t, "conn-a", "alice", "Alice", "english")
	bob := fx.join(t, "conn-b", "bob", "Bob", "korean")

	err := fx.coord.CodeChange(context.Background(), "conn-a", &event.CodeChange{
		RoomID: "room1", Code: "// hello\n", Language: "javascript",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return bob.countOf(event.KindTranslateComplete) == 1
	}, 2*time.Second, 5*time.Millisecond)

	chunk := decodeAs[event.TranslateChunk](t, bob.ofKind(event.KindTranslateChunk)[0])
	assert.False(t, chunk.Success)
	assert.Equal(t, "hello", chunk.TranslatedText)
	assert.NotEmpty(t, chunk.Error)
	assert.Zero(t, fx.cache.puts)
}

func TestPipelineDebounceCollapsesEdits(t *testing.T) {
	fx := newFixture(t)
	fx.store.seedRoom("room1")
	fx.join(t, "conn-a", "alice", "Alice", "english")
	bob := fx.join(t, "conn-b", "bob", "Bob", "korean")

	// rapid edits within the quiet interval
	for _, code := range []string{"// a\n", "// ab\n", "// abc\n"} {
		require.NoError(t, fx.coord.CodeChange(context.Background(), "conn-a", &event.CodeChange{
			RoomID: "room1", Code: code, Language: "javascript",
		}))
	}

	require.Eventually(t, func() bool {
		return bob.countOf(event.KindTranslateComplete) >= 1
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	// only the final buffer was translated
	assert.Equal(t, 1, bob.countOf(event.KindTranslateComplete))
	chunk := decodeAs[event.TranslateChunk](t, bob.ofKind(event.KindTranslateChunk)[0])
	assert.Equal(t, "abc", chunk.OriginalText)
	assert.Zero(t, fx.provider.callCount("a"))
	assert.Zero(t, fx.provider.callCount("ab"))
}

func TestCursorMoveFanOut(t *testing.T) {
	fx := newFixture(t)
	fx.store.seedRoom("room1")
	alice := fx.join(t, "conn-a", "alice", "Alice", "english")
	bob := fx.join(t, "conn-b", "bob", "Bob", "korean")

	err := fx.coord.CursorMove("conn-a", &event.CursorMove{
		RoomID: "room1", Cursor: event.Cursor{Line: 3, Column: 7},
	})
	require.NoError(t, err)

	updates := bob.ofKind(event.KindCursorUpdate)
	require.Len(t, updates, 1)
	p := decodeAs[event.CursorUpdate](t, updates[0])
	assert.Equal(t, "conn-a", p.ConnectionID)
	assert.Equal(t, 3, p.Cursor.Line)
	assert.Equal(t, "Alice", p.Name)
	assert.Zero(t, alice.countOf(event.KindCursorUpdate))
}

func TestStartSessionCreatorOnly(t *testing.T) {
	fx := newFixture(t)
	fx.store.seedRoom("room1")
	alice := fx.join(t, "conn-a", "alice", "Alice", "english")
	bob := fx.join(t, "conn-b", "bob", "Bob", "korean")

	err := fx.coord.StartSession(context.Background(), "conn-b", &event.StartSession{RoomID: "room1"})
	assert.ErrorIs(t, err, ErrNotCreator)
	assert.Zero(t, bob.countOf(event.KindSessionStarted))

	err = fx.coord.StartSession(context.Background(), "conn-a", &event.StartSession{RoomID: "room1"})
	require.NoError(t, err)

	// initiator transitions too
	assert.Equal(t, 1, alice.countOf(event.KindSessionStarted))
	assert.Equal(t, 1, bob.countOf(event.KindSessionStarted))
}

func TestDisconnectRetainsMember(t *testing.T) {
	fx := newFixture(t)
	fx.store.seedRoom("room1")
	alice := fx.join(t, "conn-a", "alice", "Alice", "english")
	fx.join(t, "conn-b", "bob", "Bob", "korean")

	fx.coord.Disconnect(context.Background(), "conn-b")

	left := alice.ofKind(event.KindUserLeft)
	require.Len(t, left, 1)
	assert.Equal(t, "bob", decodeAs[event.UserLeft](t, left[0]).ClientID)

	room := fx.store.snapshot("room1")
	require.Len(t, room.Members, 2)
	assert.Empty(t, room.Members[1].ConnectionID)
	assert.False(t, room.Members[1].IsActive)

	updates := alice.ofKind(event.KindRoomUsersUpdate)
	last := decodeAs[event.RoomUsers](t, updates[len(updates)-1])
	require.Len(t, last.Users, 2)
	assert.False(t, last.Users[1].IsActive)
}

func TestPipelineSkipsDisconnectedMembers(t *testing.T) {
	fx := newFixture(t)
	fx.store.seedRoom("room1")
	fx.join(t, "conn-a", "alice", "Alice", "english")
	bob := fx.join(t, "conn-b", "bob", "Bob", "korean")
	fx.coord.Disconnect(context.Background(), "conn-b")

	require.NoError(t, fx.coord.CodeChange(context.Background(), "conn-a", &event.CodeChange{
		RoomID: "room1", Code: "// hello\n", Language: "javascript",
	}))
	time.Sleep(100 * time.Millisecond)

	assert.Zero(t, bob.countOf(event.KindTranslateStart))
	assert.Zero(t, fx.provider.callCount("hello"))
}

func TestNewCommentTranslatesPerRecipient(t *testing.T) {
	fx := newFixture(t)
	fx.store.seedRoom("room1")
	alice := fx.join(t, "conn-a", "alice", "Alice", "english")
	bob := fx.join(t, "conn-b", "bob", "Bob", "korean")

	err := fx.coord.NewComment(context.Background(), "conn-a", &event.NewComment{
		RoomID: "room1", Text: "check this", Line: 4, SenderID: "alice",
	})
	require.NoError(t, err)

	// raw comment reaches everyone
	assert.Equal(t, 1, alice.countOf(event.KindCommentNew))
	assert.Equal(t, 1, bob.countOf(event.KindCommentNew))

	require.Eventually(t, func() bool {
		return bob.countOf(event.KindCommentTranslated) == 1
	}, 2*time.Second, 5*time.Millisecond)

	p := decodeAs[event.CommentTranslated](t, bob.ofKind(event.KindCommentTranslated)[0])
	assert.Equal(t, "[ko] check this", p.Text)
	assert.Equal(t, "check this", p.OriginalText)
	assert.Equal(t, 4, p.Line)
	assert.Equal(t, "alice", p.SenderID)
	assert.Zero(t, alice.countOf(event.KindCommentTranslated))
}

func TestTranslateBatchStreamsToRequester(t *testing.T) {
	fx := newFixture(t)
	fx.store.seedRoom("room1")
	alice := fx.join(t, "conn-a", "alice", "Alice", "english")
	bob := fx.join(t, "conn-b", "bob", "Bob", "korean")

	err := fx.coord.TranslateBatch(context.Background(), "conn-b", &event.TranslateBatch{
		Texts:          []string{"first", "second"},
		TargetLanguage: "korean",
		RoomID:         "room1",
		ClientID:       "bob",
		Lines:          []int{1, 5},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return bob.countOf(event.KindTranslateComplete) == 1
	}, 2*time.Second, 5*time.Millisecond)

	chunks := bob.ofKind(event.KindTranslateChunk)
	require.Len(t, chunks, 2)
	first := decodeAs[event.TranslateChunk](t, chunks[0])
	assert.Equal(t, "[ko] first", first.TranslatedText)
	assert.Equal(t, 1, first.Line)
	assert.Equal(t, 50, first.Progress)
	second := decodeAs[event.TranslateChunk](t, chunks[1])
	assert.Equal(t, 5, second.Line)
	assert.Equal(t, 100, second.Progress)

	assert.Zero(t, alice.countOf(event.KindTranslateChunk))
}
