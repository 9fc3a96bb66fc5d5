package uninstall

import (
	"strings"
	"unicode"
)

// minKeywordLen drops fragments such as "v2" or the letters of an acronym.
// It is measured in bytes of the lowercased word.
const minKeywordLen = 3

// stopWords are installer packaging noise that never identifies a product
var stopWords = map[string]struct{}{
	"standalone": {},
	"silent":     {},
	"setup":      {},
	"installer":  {},
	"install":    {},
	"x64":        {},
	"x86":        {},
	"amd64":      {},
	"arm64":      {},
	"win":        {},
	"win32":      {},
	"win64":      {},
	"windows":    {},
}

// ExtractKeywords splits a free-text software name into lowercase matching
// keywords, e.g. "BraveBrowserStandaloneSilentNightlySetup" yields
// [brave browser nightly].
func ExtractKeywords(name string) []string {
	var keywords []string
	for _, w := range splitWords(name) {
		if len(w) < minKeywordLen {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}

// splitWords breaks on '_', '-', ' ', '.' and before an uppercase letter
// that follows a non-empty word.
func splitWords(name string) []string {
	var (
		words   []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			words = append(words, strings.ToLower(current.String()))
			current.Reset()
		}
	}

	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			flush()
		case unicode.IsUpper(r) && current.Len() > 0:
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return words
}
