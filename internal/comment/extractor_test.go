package comment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSingleAndBlock(t *testing.T) {
	code := "// hello\ncode();\n/* multi\nline */\n"

	got := Extract(code, "javascript")

	require.Len(t, got, 2)
	assert.Equal(t, Comment{Line: 0, Text: "hello", Kind: KindSingle}, got[0])
	assert.Equal(t, Comment{Line: 2, Text: "multi line", Kind: KindBlock}, got[1])
}

func TestExtractTrailingComment(t *testing.T) {
	got := Extract("let x = 1; // counter\n", "typescript")

	require.Len(t, got, 1)
	assert.Equal(t, Comment{Line: 0, Text: "counter", Kind: KindSingle}, got[0])
}

func TestExtractInlineBlock(t *testing.T) {
	got := Extract("foo(/* inline */ bar); // tail\n", "javascript")

	require.Len(t, got, 2)
	assert.Equal(t, Comment{Line: 0, Text: "inline", Kind: KindBlock}, got[0])
	assert.Equal(t, Comment{Line: 0, Text: "tail", Kind: KindSingle}, got[1])
}

func TestExtractPython(t *testing.T) {
	code := "# setup\nx = 1\n\"\"\"doc\nstring\"\"\"\nprint(x)  # done\n"

	got := Extract(code, "python")

	require.Len(t, got, 3)
	assert.Equal(t, Comment{Line: 0, Text: "setup", Kind: KindSingle}, got[0])
	assert.Equal(t, Comment{Line: 2, Text: "doc string", Kind: KindBlock}, got[1])
	assert.Equal(t, Comment{Line: 4, Text: "done", Kind: KindSingle}, got[2])
}

func TestExtractStripsDocAsterisks(t *testing.T) {
	code := "/**\n * first\n * second\n */\n"

	got := Extract(code, "java")

	require.Len(t, got, 1)
	// the leading "**" open and continuation "*" are decoration, not text
	assert.Equal(t, "first second", got[0].Text)
	assert.Equal(t, 0, got[0].Line)
}

func TestExtractUnterminatedBlock(t *testing.T) {
	got := Extract("code();\n/* dangling\nstill comment", "c")

	require.Len(t, got, 1)
	assert.Equal(t, Comment{Line: 1, Text: "dangling still comment", Kind: KindBlock}, got[0])
}

func TestExtractUnknownLanguageUsesCFamily(t *testing.T) {
	got := Extract("// fallback\n", "brainfuck")

	require.Len(t, got, 1)
	assert.Equal(t, "fallback", got[0].Text)
}

func TestExtractEmptyCommentsSkipped(t *testing.T) {
	got := Extract("//\n/* */\ncode();\n", "javascript")

	assert.Empty(t, got)
}

func TestExtractOrderIsSourceOrder(t *testing.T) {
	code := "// a\n// b\n/* c */\n// d\n"

	got := Extract(code, "go")

	require.Len(t, got, 4)
	for i, want := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, want, got[i].Text)
		assert.Equal(t, i, got[i].Line)
	}
}

func TestExtractHTML(t *testing.T) {
	got := Extract("<div>\n<!-- header -->\n</div>\n", "html")

	require.Len(t, got, 1)
	assert.Equal(t, Comment{Line: 1, Text: "header", Kind: KindBlock}, got[0])
}

func TestTexts(t *testing.T) {
	comments := []Comment{{Text: "a"}, {Text: "b"}}
	assert.Equal(t, []string{"a", "b"}, Texts(comments))
}
