package store

import (
	"context"
	"errors"

	"codecollab-backend/internal/model"
)

var (
	// ErrRoomNotFound is returned when an operation references an unknown roomId.
	ErrRoomNotFound = errors.New("room not found")

	// ErrStoreUnavailable wraps infrastructure failures of the durable store.
	// Room-critical paths surface it to the caller instead of proceeding with
	// stale state.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// MemberFields carries the mutable fields of a member upsert. Nil pointers
// leave the stored value untouched, so connection state and identity can be
// updated independently.
type MemberFields struct {
	Name         *string
	Language     *string
	ConnectionID *string
	IsActive     *bool
}

// RoomStore is the durable record of rooms, membership, and buffer content.
// Member upserts are atomic per (roomId, clientId); code replacement is
// last-writer-wins with no merging.
type RoomStore interface {
	// CreateRoom stores a new room with its creator as the single member.
	CreateRoom(ctx context.Context, roomID string, creator model.RoomMember) (*model.Room, error)

	// GetRoom loads a room with members in join order, or ErrRoomNotFound.
	GetRoom(ctx context.Context, roomID string) (*model.Room, error)

	// UpsertMember inserts a member if the clientId is new to the room and
	// merges fields into the existing member otherwise, preserving join order.
	// The second result reports whether a new member was created.
	UpsertMember(ctx context.Context, roomID, clientID string, fields MemberFields) (*model.Room, bool, error)

	// RemoveMemberConnection clears connection state for every member holding
	// the given connectionId and returns the affected rooms, reloaded. The
	// member records themselves are retained.
	RemoveMemberConnection(ctx context.Context, connectionID string) ([]*model.Room, error)

	// SetCode replaces the room's code buffer wholesale.
	SetCode(ctx context.Context, roomID, code string) error

	// UpsertUser maintains the cross-room user record.
	UpsertUser(ctx context.Context, user model.User) error

	// ClearUserRoom detaches a user from their current room.
	ClearUserRoom(ctx context.Context, clientID string) error
}

// String returns a pointer to s, for building MemberFields literals.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for building MemberFields literals.
func Bool(b bool) *bool { return &b }
