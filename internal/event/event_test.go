package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeKnownInbound(t *testing.T) {
	env, err := Decode([]byte(`{"type":"join-room","payload":{"roomId":"r1","name":"Alice","language":"korean","clientId":"c1"}}`))

	require.NoError(t, err)
	assert.Equal(t, KindJoinRoom, env.Type)

	var p JoinRoom
	require.NoError(t, env.Bind(&p))
	assert.Equal(t, "r1", p.RoomID)
	assert.Equal(t, "Alice", p.Name)
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := Decode([]byte(`{"type":"drop-tables","payload":{}}`))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestDecodeOutboundKindRejected(t *testing.T) {
	// clients must not inject server-side events
	_, err := Decode([]byte(`{"type":"code-update","payload":{"code":"x"}}`))

	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestDecodeMalformedFrame(t *testing.T) {
	_, err := Decode([]byte(`{not json`))

	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestBindMissingFields(t *testing.T) {
	env, err := Decode([]byte(`{"type":"join-room","payload":{"roomId":"r1"}}`))
	require.NoError(t, err)

	var p JoinRoom
	err = env.Bind(&p)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "language")
	assert.Contains(t, err.Error(), "clientId")
}

func TestCodeChangeAllowsEmptyCode(t *testing.T) {
	// clearing the buffer is a legitimate change
	p := CodeChange{RoomID: "r1", Code: ""}
	assert.NoError(t, p.Validate())
}

func TestTranslateBatchValidation(t *testing.T) {
	p := TranslateBatch{}
	err := p.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "texts")
	assert.Contains(t, err.Error(), "targetLanguage")
	assert.Contains(t, err.Error(), "roomId")
	assert.Contains(t, err.Error(), "clientId")

	p = TranslateBatch{Texts: []string{"hi"}, TargetLanguage: "korean", RoomID: "r1", ClientID: "c1"}
	assert.NoError(t, p.Validate())
}

func TestNewCommentValidation(t *testing.T) {
	p := NewComment{RoomID: "r1", Text: "check this", SenderID: "c1"}
	assert.NoError(t, p.Validate())

	p.Text = ""
	assert.ErrorIs(t, p.Validate(), ErrInvalidRequest)
}
