package event

import (
	"regexp"
	"strings"
)

// DefaultDescription is the filler stored when no description was found.
const DefaultDescription = "See the event page for details."

var genericTitles = map[string]bool{
	"event":              true,
	"events":             true,
	"tba":                true,
	"tbd":                true,
	"calendar":           true,
	"calendar of events": true,
	"events calendar":    true,
	"event calendar":     true,
	"upcoming events":    true,
	"all events":         true,
	"event details":      true,
	"details":            true,
	"more info":          true,
	"read more":          true,
	"learn more":         true,
	"view event":         true,
	"view details":       true,
	"seminar":            true,
	"seminars":           true,
	"talk":               true,
	"untitled":           true,
	"untitled event":     true,
	"home":               true,
	"news":               true,
	"news and events":    true,
	"news & events":      true,
}

var genericTitlePattern = regexp.MustCompile(`^(?:upcoming |past |all |our )?(?:events?|seminars?|talks?|calendar)(?: calendar| listing| list| page| of events)?$`)

// IsGenericTitle reports whether title is a low-information placeholder.
func IsGenericTitle(title string) bool {
	t := strings.ToLower(CleanText(title))
	t = strings.Trim(t, " .:-|")
	if t == "" {
		return true
	}
	return genericTitles[t] || genericTitlePattern.MatchString(t)
}

// IsGenericDescription reports whether desc is too short to be useful
// or is the canned filler text.
func IsGenericDescription(desc string) bool {
	d := CleanText(desc)
	return len(d) < MinDescriptionLen || d == DefaultDescription
}

// MinDescriptionLen is the length below which a description is treated as missing.
const MinDescriptionLen = 40

// IsPlaceholderTime reports whether t carries no usable start time.
func IsPlaceholderTime(t string) bool {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", "tbd", "tba", strings.ToLower(TimeTBD), "all day":
		return true
	}
	return false
}
