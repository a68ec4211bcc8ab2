package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

// VirtualLocation is stored as the location of online-only events.
const VirtualLocation = "Virtual"

var (
	locationLabelRE  = regexp.MustCompile(`(?i)^\s*(?:location|venue|where|place|room|address)\s*[:\-]\s*(.+)$`)
	inlineLabelRE    = regexp.MustCompile(`(?i)\b(?:location|venue|where)\s*:\s*([^|;\n]+)`)
	buildingRE       = regexp.MustCompile(`(?i)\b(?:room|rm\.?|hall|building|bldg\.?|auditorium|center|centre|library|lab|laboratory|theater|theatre|lounge|suite)\b`)
	virtualRE        = regexp.MustCompile(`(?i)\b(?:zoom|webinar|virtual(?:ly)?|online|livestream(?:ed)?|live stream|teams meeting|microsoft teams|google meet|webex|remote(?:ly)?)\b`)
	inPersonOnlyRE   = regexp.MustCompile(`(?i)\bin[- ]person only\b`)
	registrationRE   = regexp.MustCompile(`(?i)\b(?:register|registration|rsvp|sign[- ]up|tickets?|eventbrite|pre-?register)\b`)
	noRegistrationRE = regexp.MustCompile(`(?i)\b(?:no (?:registration|rsvp|tickets?)(?: is)? (?:required|needed|necessary)|registration (?:is )?not required|free and open to the public|no need to register)\b`)
	timeOrDateLineRE = regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s*[ap]\.?m\b`)
)

const maxLocationLen = 120

// ExtractLocation returns the location named in text: a labelled line
// ("Location: ...") wins over a line that mentions a room or building.
func ExtractLocation(text string) string {
	lines := strings.Split(text, "\n")
	for _, line := range lines {
		if m := locationLabelRE.FindStringSubmatch(line); m != nil {
			if loc := trimLocation(m[1]); loc != "" {
				return loc
			}
		}
	}
	for _, line := range lines {
		if m := inlineLabelRE.FindStringSubmatch(line); m != nil {
			if loc := trimLocation(m[1]); loc != "" {
				return loc
			}
		}
	}
	for _, line := range lines {
		line = event.CleanText(line)
		if len(line) == 0 || len(line) > maxLocationLen {
			continue
		}
		if buildingRE.MatchString(line) && !timeOrDateLineRE.MatchString(line) && !IsDateTimeTitle(line) {
			return line
		}
	}
	return ""
}

func trimLocation(s string) string {
	s = event.CleanText(s)
	s = strings.Trim(s, " ,;|-")
	if len(s) > maxLocationLen {
		s = strings.TrimSpace(s[:maxLocationLen])
	}
	return s
}

// DetectVirtual reports whether text describes an online event.
func DetectVirtual(text string) bool {
	if inPersonOnlyRE.MatchString(text) {
		return false
	}
	return virtualRE.MatchString(text)
}

// DetectRegistration reports whether text asks attendees to register.
func DetectRegistration(text string) bool {
	if noRegistrationRE.MatchString(text) {
		return false
	}
	return registrationRE.MatchString(text)
}

// knownHosts maps host suffixes to institution names.
var knownHosts = map[string]string{
	"mit.edu":            "MIT",
	"harvard.edu":        "Harvard University",
	"stanford.edu":       "Stanford University",
	"berkeley.edu":       "UC Berkeley",
	"cmu.edu":            "Carnegie Mellon University",
	"broadinstitute.org": "Broad Institute",
}

// HostName derives an institution name from a URL's host: a known suffix
// maps to its institution, otherwise the registrable label is title-cased
// (or upper-cased when short, e.g. "ucsd" -> "UCSD").
func HostName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	for suffix, name := range knownHosts {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return name
		}
	}

	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return host
	}
	label := labels[len(labels)-2]
	if len(labels) >= 3 && (label == "ac" || label == "co" || label == "edu" || label == "org") {
		label = labels[len(labels)-3]
	}
	if len(label) <= 4 {
		return strings.ToUpper(label)
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
