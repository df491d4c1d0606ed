package model

import (
	"time"
)

// Room is a collaborative session: one shared code buffer plus a member list.
// RoomID is the short opaque identifier handed out at creation; it never changes.
type Room struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	RoomID      string    `gorm:"type:varchar(16);uniqueIndex;not null" json:"roomId"`
	CurrentCode string    `gorm:"type:text" json:"currentCode"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	// Relations
	Members []RoomMember `gorm:"foreignKey:RoomID;references:RoomID" json:"members,omitempty"`
}

func (Room) TableName() string {
	return "rooms"
}

// RoomMember is a participant's durable identity within a room. ClientID is
// chosen by the client and survives reconnects; ConnectionID is the transient
// live-connection identifier and is cleared on disconnect. Join order is the
// insertion order (ascending ID); the first member is the room creator.
type RoomMember struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	RoomID       string    `gorm:"type:varchar(16);uniqueIndex:idx_room_client;not null" json:"roomId"`
	ClientID     string    `gorm:"type:varchar(64);uniqueIndex:idx_room_client;not null" json:"clientId"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Language     string    `gorm:"type:varchar(50);not null" json:"language"`
	ConnectionID string    `gorm:"type:varchar(64);index" json:"connectionId"`
	IsActive     bool      `gorm:"default:false" json:"isActive"`
	JoinedAt     time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}

func (RoomMember) TableName() string {
	return "room_members"
}

// User is the cross-room record of a client identity.
type User struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	ClientID      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"clientId"`
	Name          string    `gorm:"type:varchar(100);not null" json:"name"`
	Language      string    `gorm:"type:varchar(50);not null" json:"language"`
	CurrentRoomID *string   `gorm:"type:varchar(16)" json:"currentRoomId,omitempty"`
	LastSeen      time.Time `gorm:"autoUpdateTime" json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}

// TranslationEntry is the durable memo of one completed translation, keyed by
// a deterministic fingerprint over (text, target locale, room, client). The
// fingerprint is functionally single-valued: re-inserting the same key is a
// no-op.
type TranslationEntry struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	Fingerprint    string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"fingerprint"`
	RoomID         string    `gorm:"type:varchar(16);index:idx_room_client_history" json:"roomId"`
	ClientID       string    `gorm:"type:varchar(64);index:idx_room_client_history" json:"clientId"`
	OriginalText   string    `gorm:"type:text;not null" json:"originalText"`
	TargetLang     string    `gorm:"type:varchar(16);not null" json:"targetLang"`
	TranslatedText string    `gorm:"type:text;not null" json:"translatedText"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (TranslationEntry) TableName() string {
	return "translation_entries"
}
