package event

// Outbound payload types. These mirror what the editor UI consumes; the
// chunk carries enough context for the recipient to re-associate it with a
// source line regardless of arrival order.

// InitialCode delivers the full buffer to a joining connection.
type InitialCode struct {
	Code string `json:"code"`
}

// CodeUpdate fans a full buffer out to the other room connections.
type CodeUpdate struct {
	Code string `json:"code"`
}

// CursorUpdate is the ephemeral "user is at line X" signal.
type CursorUpdate struct {
	ConnectionID string `json:"connectionId"`
	Cursor       Cursor `json:"cursor"`
	Name         string `json:"name"`
}

// RoomUser is the public view of a member.
type RoomUser struct {
	ClientID     string `json:"clientId"`
	Name         string `json:"name"`
	Language     string `json:"language"`
	ConnectionID string `json:"connectionId"`
	IsActive     bool   `json:"isActive"`
}

// RoomUsers carries the member list plus the creator identity for lobby UIs.
type RoomUsers struct {
	Users           []RoomUser `json:"users"`
	CreatorClientID string     `json:"creatorClientId"`
}

// UserJoined announces a genuinely new member (not a rejoin).
type UserJoined struct {
	Name     string `json:"name"`
	Language string `json:"language"`
}

// UserLeft announces a disconnect.
type UserLeft struct {
	ClientID string `json:"clientId"`
	Name     string `json:"name"`
}

// CommentNew is the raw comment broadcast of the new-comment path.
type CommentNew struct {
	Text     string `json:"text"`
	Line     int    `json:"line"`
	SenderID string `json:"senderId"`
	RoomID   string `json:"roomId"`
}

// CommentTranslated is the per-recipient translation of a posted comment.
type CommentTranslated struct {
	Text         string `json:"text"`
	Line         int    `json:"line"`
	OriginalText string `json:"originalText"`
	SenderID     string `json:"senderId"`
}

// TranslateStart opens a translation pass.
type TranslateStart struct {
	Total int `json:"total"`
}

// TranslateChunk is one resolved comment translation. Success=false means
// the provider failed and Text carries the original as a safe fallback.
type TranslateChunk struct {
	Index            int    `json:"index"`
	Line             int    `json:"line"`
	OriginalText     string `json:"originalText"`
	TranslatedText   string `json:"translatedText"`
	Success          bool   `json:"success"`
	Progress         int    `json:"progress"`
	FromCache        bool   `json:"fromCache,omitempty"`
	Error            string `json:"error,omitempty"`
	SenderClientID   string `json:"senderClientId,omitempty"`
	ReceiverClientID string `json:"receiverClientId,omitempty"`
}

// TranslateComplete closes a translation pass.
type TranslateComplete struct {
	Total int `json:"total"`
}

// TranslateClear tells a recipient to drop previously shown translations
// for a sender whose buffer no longer contains comments.
type TranslateClear struct {
	SenderClientID string `json:"senderClientId"`
}

// TranslateError reports a failed translation request as a whole.
type TranslateError struct {
	Error string `json:"error"`
}

// Error is the connection-scoped error event.
type Error struct {
	Message string `json:"message"`
}
