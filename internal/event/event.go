package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRequest marks a malformed or incomplete client event. It is
// surfaced to the offending connection only; no side effects are performed.
var ErrInvalidRequest = errors.New("invalid request")

// Kind enumerates every event the realtime channel carries. The set is
// closed: unknown kinds are rejected on receipt.
type Kind string

// Client -> server events.
const (
	KindJoinRoom       Kind = "join-room"
	KindCodeChange     Kind = "code-change"
	KindCursorMove     Kind = "cursor-move"
	KindStartSession   Kind = "start-session"
	KindNewComment     Kind = "new-comment"
	KindTranslateBatch Kind = "translate:batch"
)

// Server -> client events.
const (
	KindInitialCode       Kind = "initial-code"
	KindCodeUpdate        Kind = "code-update"
	KindCursorUpdate      Kind = "cursor-update"
	KindRoomUsersList     Kind = "room-users-list"
	KindRoomUsersUpdate   Kind = "room-users-update"
	KindUserJoined        Kind = "user-joined"
	KindUserLeft          Kind = "user-left"
	KindSessionStarted    Kind = "session-started"
	KindCommentNew        Kind = "comment:new"
	KindCommentTranslated Kind = "comment:translated"
	KindTranslateStart    Kind = "translate:start"
	KindTranslateChunk    Kind = "translate:chunk"
	KindTranslateComplete Kind = "translate:complete"
	KindTranslateClear    Kind = "translate:clear"
	KindTranslateError    Kind = "translate:error"
	KindError             Kind = "error"
)

var inbound = map[Kind]bool{
	KindJoinRoom:       true,
	KindCodeChange:     true,
	KindCursorMove:     true,
	KindStartSession:   true,
	KindNewComment:     true,
	KindTranslateBatch: true,
}

// Inbound reports whether clients are allowed to send this kind.
func (k Kind) Inbound() bool {
	return inbound[k]
}

// Envelope is the wire frame for every realtime event.
type Envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Decode parses a raw frame and checks that the kind is a known inbound one.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed frame", ErrInvalidRequest)
	}
	if !env.Type.Inbound() {
		return nil, fmt.Errorf("%w: unknown event %q", ErrInvalidRequest, env.Type)
	}
	return &env, nil
}

// Bind unmarshals the envelope payload into a typed struct and validates it.
func (e *Envelope) Bind(v Validator) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%w: malformed %s payload", ErrInvalidRequest, e.Type)
	}
	return v.Validate()
}

// Validator is implemented by every inbound payload type.
type Validator interface {
	Validate() error
}

func missing(fields ...string) error {
	return fmt.Errorf("%w: missing required fields: %s", ErrInvalidRequest, strings.Join(fields, ", "))
}

// Cursor is an editor position.
type Cursor struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// JoinRoom payload.
type JoinRoom struct {
	RoomID   string `json:"roomId"`
	Name     string `json:"name"`
	Language string `json:"language"`
	ClientID string `json:"clientId"`
}

func (p *JoinRoom) Validate() error {
	var f []string
	if p.RoomID == "" {
		f = append(f, "roomId")
	}
	if p.Name == "" {
		f = append(f, "name")
	}
	if p.Language == "" {
		f = append(f, "language")
	}
	if p.ClientID == "" {
		f = append(f, "clientId")
	}
	if len(f) > 0 {
		return missing(f...)
	}
	return nil
}

// CodeChange payload. Language is the editor's programming language, used
// for comment extraction.
type CodeChange struct {
	RoomID   string `json:"roomId"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

func (p *CodeChange) Validate() error {
	if p.RoomID == "" {
		return missing("roomId")
	}
	return nil
}

// CursorMove payload.
type CursorMove struct {
	RoomID string `json:"roomId"`
	Cursor Cursor `json:"cursor"`
}

func (p *CursorMove) Validate() error {
	if p.RoomID == "" {
		return missing("roomId")
	}
	return nil
}

// StartSession payload.
type StartSession struct {
	RoomID string `json:"roomId"`
}

func (p *StartSession) Validate() error {
	if p.RoomID == "" {
		return missing("roomId")
	}
	return nil
}

// NewComment payload: an explicitly posted comment, broadcast raw and then
// translated per recipient.
type NewComment struct {
	RoomID   string `json:"roomId"`
	Text     string `json:"text"`
	Line     int    `json:"line"`
	SenderID string `json:"senderId"`
}

func (p *NewComment) Validate() error {
	var f []string
	if p.RoomID == "" {
		f = append(f, "roomId")
	}
	if p.Text == "" {
		f = append(f, "text")
	}
	if p.SenderID == "" {
		f = append(f, "senderId")
	}
	if len(f) > 0 {
		return missing(f...)
	}
	return nil
}

// TranslateBatch payload: an explicit client-driven translation request.
type TranslateBatch struct {
	Texts          []string `json:"texts"`
	TargetLanguage string   `json:"targetLanguage"`
	SourceLanguage string   `json:"sourceLanguage,omitempty"`
	RoomID         string   `json:"roomId"`
	ClientID       string   `json:"clientId"`
	Lines          []int    `json:"lines,omitempty"`
}

func (p *TranslateBatch) Validate() error {
	var f []string
	if len(p.Texts) == 0 {
		f = append(f, "texts")
	}
	if p.TargetLanguage == "" {
		f = append(f, "targetLanguage")
	}
	if p.RoomID == "" {
		f = append(f, "roomId")
	}
	if p.ClientID == "" {
		f = append(f, "clientId")
	}
	if len(f) > 0 {
		return missing(f...)
	}
	return nil
}
