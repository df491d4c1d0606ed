package comment

import (
	"strings"
)

// Kind distinguishes single-line from block comments.
type Kind string

const (
	KindSingle Kind = "single"
	KindBlock  Kind = "block"
)

// Comment is one extracted comment span. Line is the zero-based source line
// where the comment starts; Text has markers stripped and whitespace
// normalized. Output order is ascending source-line order; downstream
// translation events index into this list.
type Comment struct {
	Line int    `json:"line"`
	Text string `json:"text"`
	Kind Kind   `json:"kind"`
}

// syntax describes a language's comment markers.
type syntax struct {
	single []string
	blocks [][2]string
}

var cFamily = syntax{
	single: []string{"//"},
	blocks: [][2]string{{"/*", "*/"}},
}

var syntaxTable = map[string]syntax{
	"javascript": cFamily,
	"typescript": cFamily,
	"java":       cFamily,
	"c":          cFamily,
	"cpp":        cFamily,
	"go":         cFamily,
	"css":        {blocks: [][2]string{{"/*", "*/"}}},
	"html":       {blocks: [][2]string{{"<!--", "-->"}}},
	"python":     {single: []string{"#"}, blocks: [][2]string{{`"""`, `"""`}, {`'''`, `'''`}}},
	"ruby":       {single: []string{"#"}},
	"shell":      {single: []string{"#"}},
	"r":          {single: []string{"#"}},
	"perl":       {single: []string{"#"}},
	"lua":        {single: []string{"--"}},
	"sql":        {single: []string{"--"}},
	"haskell":    {single: []string{"--"}},
}

// Extract scans code and returns its comments in source order. Unknown
// languages use the C-family markers. The scan is character-wise, not
// line-regex based, so several comments on one line and inline block
// comments are handled.
func Extract(code, language string) []Comment {
	syn, ok := syntaxTable[strings.ToLower(strings.TrimSpace(language))]
	if !ok {
		syn = cFamily
	}

	var comments []Comment
	lines := strings.Split(code, "\n")

	inBlock := false
	var blockEnd string
	var blockStart int
	var blockParts []string

	for i, line := range lines {
		col := 0
		for col < len(line) {
			rest := line[col:]

			if inBlock {
				end := strings.Index(rest, blockEnd)
				if end < 0 {
					blockParts = appendPart(blockParts, rest)
					col = len(line)
					break
				}
				blockParts = appendPart(blockParts, rest[:end])
				if text := strings.Join(blockParts, " "); text != "" {
					comments = append(comments, Comment{Line: blockStart, Text: text, Kind: KindBlock})
				}
				inBlock = false
				blockParts = nil
				col += end + len(blockEnd)
				continue
			}

			if marker := matchSingle(rest, syn); marker != "" {
				text := strings.TrimSpace(rest[len(marker):])
				if text != "" {
					comments = append(comments, Comment{Line: i, Text: text, Kind: KindSingle})
				}
				// single-line comments run to end of line
				col = len(line)
				break
			}

			if open, end := matchBlock(rest, syn); open != "" {
				inBlock = true
				blockEnd = end
				blockStart = i
				blockParts = nil
				col += len(open)
				continue
			}

			col++
		}
	}

	// an unterminated block still yields its accumulated text
	if inBlock {
		if text := strings.Join(blockParts, " "); text != "" {
			comments = append(comments, Comment{Line: blockStart, Text: text, Kind: KindBlock})
		}
	}

	return comments
}

// Texts returns just the comment payloads, in extraction order.
func Texts(comments []Comment) []string {
	out := make([]string, len(comments))
	for i, c := range comments {
		out[i] = c.Text
	}
	return out
}

func matchSingle(rest string, syn syntax) string {
	for _, m := range syn.single {
		if strings.HasPrefix(rest, m) {
			return m
		}
	}
	return ""
}

func matchBlock(rest string, syn syntax) (open, end string) {
	for _, pair := range syn.blocks {
		if strings.HasPrefix(rest, pair[0]) {
			return pair[0], pair[1]
		}
	}
	return "", ""
}

// appendPart trims a block-comment fragment, dropping decorative leading
// asterisks from doc-comment continuation lines.
func appendPart(parts []string, fragment string) []string {
	text := strings.TrimSpace(fragment)
	text = strings.TrimSpace(strings.TrimPrefix(text, "*"))
	if text == "" {
		return parts
	}
	return append(parts, text)
}
