package translate

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocaleFor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"korean", "ko"},
		{"Korean", "ko"},
		{"  spanish ", "es"},
		{"english", "en"},
		{"javascript", "en"}, // programming language, not a spoken one
		{"python", "en"},
		{"ko", "ko"},
		{"pt-br", "pt-br"},
		{"klingon", "en"},
		{"", "en"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LocaleFor(tt.in), "LocaleFor(%q)", tt.in)
	}
}

func TestSplitBatch(t *testing.T) {
	sep := strings.TrimSpace(batchSeparator)
	joined := "hola" + "\n" + sep + "\n" + "mundo"

	parts, err := splitBatch(joined, 2)

	require.NoError(t, err)
	assert.Equal(t, []string{"hola", "mundo"}, parts)
}

func TestSplitBatchSeparatorLost(t *testing.T) {
	_, err := splitBatch("hola mundo", 2)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTranslationFailed)
}

func TestSplitBatchSingleItem(t *testing.T) {
	parts, err := splitBatch("  bonjour  ", 1)

	require.NoError(t, err)
	assert.Equal(t, []string{"bonjour"}, parts)
}

func TestDisabledProviderAlwaysFails(t *testing.T) {
	var p Provider = Disabled{}

	_, err := p.Translate(context.Background(), "hello", SourceAuto, "ko")
	assert.ErrorIs(t, err, ErrTranslationFailed)

	_, err = p.TranslateBatch(context.Background(), []string{"hello"}, SourceAuto, "ko")
	assert.ErrorIs(t, err, ErrTranslationFailed)
}
