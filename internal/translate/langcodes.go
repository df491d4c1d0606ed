package translate

import "strings"

// localeCodes maps the human-readable language names clients pick in the UI
// to the locale codes the translation engine understands. Programming
// languages map to English because code comments default to it.
var localeCodes = map[string]string{
	"javascript": "en",
	"typescript": "en",
	"python":     "en",
	"java":       "en",
	"cpp":        "en",
	"c":          "en",
	"go":         "en",

	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"chinese":    "zh",
	"japanese":   "ja",
	"korean":     "ko",
	"arabic":     "ar",
	"hindi":      "hi",
	"portuguese": "pt",
	"russian":    "ru",
	"italian":    "it",
}

// LocaleFor resolves a preferred-language value to a locale code. Values that
// already look like locale codes ("es", "pt-BR") pass through unchanged;
// unknown names fall back to English.
func LocaleFor(language string) string {
	lang := strings.ToLower(strings.TrimSpace(language))
	if lang == "" {
		return "en"
	}
	if code, ok := localeCodes[lang]; ok {
		return code
	}
	if len(lang) == 2 || (len(lang) == 5 && lang[2] == '-') {
		return lang
	}
	return "en"
}
