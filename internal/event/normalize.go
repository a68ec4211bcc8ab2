package event

import (
	"sort"
	"strings"
	"unicode"
)

// stopwords are dropped from matching keys: generic English plus filler
// words that event listings attach to otherwise identical titles.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"into": true, "about": true, "this": true, "that": true, "are": true,
	"was": true, "will": true, "our": true, "your": true, "its": true,
	"their": true, "how": true, "what": true, "why": true, "who": true,
	"when": true, "where": true, "can": true, "not": true, "but": true,
	"via": true, "over": true, "under": true, "between": true, "through": true,
	"seminar": true, "seminars": true, "series": true, "workshop": true,
	"workshops": true, "lecture": true, "lectures": true, "talk": true,
	"talks": true, "colloquium": true, "symposium": true, "event": true,
	"events": true, "special": true, "annual": true, "presents": true,
	"featuring": true, "join": true, "us": true, "upcoming": true,
}

// Normalize converts a title into an order-insensitive matching key.
// Two titles that differ only in word order, case, punctuation or
// stopwords normalize to the same key. Normalize is idempotent.
func Normalize(title string) string {
	s := strings.ToLower(title)
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)

	tokens := make([]string, 0, 8)
	for _, tok := range strings.Fields(s) {
		if len([]rune(tok)) <= 2 || stopwords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// TitleKey returns the identity key for title: Normalize(title), or the
// lowercased cleaned title when Normalize leaves nothing (a title made only
// of stopwords and short tokens). Such a fallback never equals a normalized
// key, and distinct short titles keep distinct keys.
func TitleKey(title string) string {
	if key := Normalize(title); key != "" {
		return key
	}
	return strings.ToLower(CleanText(title))
}
