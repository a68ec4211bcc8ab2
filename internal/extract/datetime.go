package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

const monthPattern = `(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)`

var monthAbbrevs = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

func monthByName(name string) (time.Month, bool) {
	name = strings.ToLower(name)
	if len(name) < 3 {
		return 0, false
	}
	for i, abbr := range monthAbbrevs {
		if name[:3] == abbr {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

// datePattern pairs a regexp with the submatch order of its year, month and day.
// A zero index means the part is absent; a missing year defaults to the run year.
type datePattern struct {
	re               *regexp.Regexp
	year, month, day int
	monthIsName      bool
}

// datePatterns are tried in order; the first acceptable match wins.
var datePatterns = []datePattern{
	// 10/10/2025, 10/10/25
	{re: regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})\b`), month: 1, day: 2, year: 3},
	// 2025-10-10, 2025-10-10T16:00:00
	{re: regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})(?:\b|T)`), year: 1, month: 2, day: 3},
	// October 10, 2025 / Oct. 10th 2025
	{re: regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`), month: 1, day: 2, year: 3, monthIsName: true},
	// 10 October 2025
	{re: regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+` + monthPattern + `\.?,?\s+(\d{4})\b`), day: 1, month: 2, year: 3, monthIsName: true},
	// October 10 / Oct 10th (year inferred)
	{re: regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b`), month: 1, day: 2, monthIsName: true},
}

// relativePhrase maps a keyword to a fixed day offset from the run date.
type relativePhrase struct {
	phrase string
	days   int
}

// Longer phrases come first so "next week" wins over "week".
var relativePhrases = []relativePhrase{
	{"this weekend", 4},
	{"next month", 30},
	{"this month", 14},
	{"next week", 7},
	{"this week", 3},
	{"day after tomorrow", 2},
	{"tomorrow", 1},
	{"tonight", 0},
	{"today", 0},
}

// ExtractDate finds the first calendar date in text that is not earlier than
// runDate. A parsed date before runDate is moved one year forward and
// discarded if it is still in the past. When no explicit date survives, a
// relative phrase ("tomorrow", "next week", ...) is mapped to a fixed offset.
func ExtractDate(text string, runDate time.Time) (time.Time, bool) {
	if strings.TrimSpace(text) == "" {
		return time.Time{}, false
	}
	today := event.Day(runDate)

	// Spans seen by an earlier pattern are not reinterpreted by a looser
	// one, so a discarded "January 5, 2020" does not come back as "January 5".
	var seen [][2]int
	for _, p := range datePatterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			if overlapsAny(seen, loc[0], loc[1]) {
				continue
			}
			seen = append(seen, [2]int{loc[0], loc[1]})

			d, ok := p.parse(submatches(text, loc), today.Year())
			if !ok {
				continue
			}
			if !d.Before(today) {
				return d, true
			}
			rolled, ok := addYear(d)
			if ok && !rolled.Before(today) {
				return rolled, true
			}
		}
	}

	lower := strings.ToLower(text)
	for _, rp := range relativePhrases {
		if containsWord(lower, rp.phrase) {
			return today.AddDate(0, 0, rp.days), true
		}
	}
	return time.Time{}, false
}

func submatches(text string, loc []int) []string {
	m := make([]string, len(loc)/2)
	for i := range m {
		if loc[2*i] >= 0 {
			m[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return m
}

func overlapsAny(spans [][2]int, start, end int) bool {
	for _, sp := range spans {
		if start < sp[1] && sp[0] < end {
			return true
		}
	}
	return false
}

func (p datePattern) parse(m []string, defaultYear int) (time.Time, bool) {
	year := defaultYear
	if p.year > 0 {
		y, err := strconv.Atoi(m[p.year])
		if err != nil {
			return time.Time{}, false
		}
		if len(m[p.year]) == 2 {
			y += 2000
		}
		year = y
	}

	var month time.Month
	if p.monthIsName {
		mon, ok := monthByName(m[p.month])
		if !ok {
			return time.Time{}, false
		}
		month = mon
	} else {
		n, err := strconv.Atoi(m[p.month])
		if err != nil || n < 1 || n > 12 {
			return time.Time{}, false
		}
		month = time.Month(n)
	}

	day, err := strconv.Atoi(m[p.day])
	if err != nil {
		return time.Time{}, false
	}
	return validDate(year, month, day)
}

// validDate rejects days that time.Date would silently normalize (Feb 30).
func validDate(year int, month time.Month, day int) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func addYear(t time.Time) (time.Time, bool) {
	return validDate(t.Year()+1, t.Month(), t.Day())
}

func containsWord(lower, phrase string) bool {
	idx := strings.Index(lower, phrase)
	for idx >= 0 {
		end := idx + len(phrase)
		beforeOK := idx == 0 || !isWordByte(lower[idx-1])
		afterOK := end == len(lower) || !isWordByte(lower[end])
		if beforeOK && afterOK {
			return true
		}
		next := strings.Index(lower[idx+1:], phrase)
		if next < 0 {
			break
		}
		idx += next + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

var (
	dashReplacer      = strings.NewReplacer("–", "-", "—", "-", "‒", "-", "−", "-", "‐", "-")
	isoDateTimeRE     = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})T(\d{2}:\d{2})`)
	parentheticalRE   = regexp.MustCompile(`\([^)]*\)`)
	timezoneRE        = regexp.MustCompile(`\b(?:[ECMP][SD]T|[ECMP]T|UTC|GMT)(?:[+-]\d{1,2}(?::?\d{2})?)?\b`)
	timeRangeRE       = regexp.MustCompile(`(?i)\b(\d{1,2}(?::\d{2})?)(?:\s*([ap]\.?\s?m\b\.?))?\s*(?:-|\bto\b|\buntil\b)\s*\d{1,2}(?::\d{2})?(?:\s*([ap]\.?\s?m\b\.?)|\b)`)
	colonMeridiemRE   = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*([ap])\.?\s?m\b\.?`)
	bareMeridiemRE    = regexp.MustCompile(`(?i)\b(\d{1,2})\s*([ap])\.?\s?m\b\.?`)
	compactMeridiemRE = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})([ap])\b`)
	twentyFourHourRE  = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	noonMidnightRE    = regexp.MustCompile(`(?i)\b(noon|midnight)\b`)
)

// timeCandidate is one (hour, minute) reading found in the text.
type timeCandidate struct {
	pos      int
	hour     int
	minute   int
	explicit bool // carried an am/pm marker or was spelled out
}

// ExtractTime returns the most plausible event start time in text rendered as
// "H:MM AM/PM". Ranges keep only their start. Ambiguous numeric tokens are
// scored by how likely they are to be an event start so phone or room numbers
// lose against a real time.
func ExtractTime(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	s := dashReplacer.Replace(text)
	s = isoDateTimeRE.ReplaceAllString(s, "$1 $2")
	s = parentheticalRE.ReplaceAllString(s, " ")
	s = timezoneRE.ReplaceAllString(s, " ")
	s = timeRangeRE.ReplaceAllStringFunc(s, keepRangeStart)

	candidates := collectTimes(s)
	if len(candidates) == 0 {
		return "", false
	}

	best := -1
	bestScore := -1
	for i, c := range candidates {
		score := plausibility(c.hour, c.minute)
		if score == 0 && !c.explicit {
			continue
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return "", false
	}
	return FormatClock(candidates[best].hour, candidates[best].minute), true
}

// keepRangeStart rewrites "2-3pm" to "2pm" and "10:00 am - noon" to "10:00 am".
func keepRangeStart(match string) string {
	m := timeRangeRE.FindStringSubmatch(match)
	start := m[1]
	switch {
	case m[2] != "":
		return start + " " + m[2]
	case m[3] != "":
		return start + " " + m[3]
	}
	return start
}

func collectTimes(s string) []timeCandidate {
	var out []timeCandidate
	var covered [][2]int

	add := func(loc []int, hour, minute int, explicit bool) {
		if overlapsAny(covered, loc[0], loc[1]) {
			return
		}
		covered = append(covered, [2]int{loc[0], loc[1]})
		out = append(out, timeCandidate{pos: loc[0], hour: hour, minute: minute, explicit: explicit})
	}

	for _, loc := range colonMeridiemRE.FindAllStringSubmatchIndex(s, -1) {
		h, _ := strconv.Atoi(s[loc[2]:loc[3]])
		m, _ := strconv.Atoi(s[loc[4]:loc[5]])
		if hour, ok := to24(h, s[loc[6]:loc[7]]); ok && m < 60 {
			add(loc[:2], hour, m, true)
		}
	}
	for _, loc := range compactMeridiemRE.FindAllStringSubmatchIndex(s, -1) {
		h, _ := strconv.Atoi(s[loc[2]:loc[3]])
		m, _ := strconv.Atoi(s[loc[4]:loc[5]])
		if hour, ok := to24(h, s[loc[6]:loc[7]]); ok && m < 60 {
			add(loc[:2], hour, m, true)
		}
	}
	for _, loc := range bareMeridiemRE.FindAllStringSubmatchIndex(s, -1) {
		h, _ := strconv.Atoi(s[loc[2]:loc[3]])
		if hour, ok := to24(h, s[loc[4]:loc[5]]); ok {
			add(loc[:2], hour, 0, true)
		}
	}
	for _, loc := range twentyFourHourRE.FindAllStringSubmatchIndex(s, -1) {
		h, _ := strconv.Atoi(s[loc[2]:loc[3]])
		m, _ := strconv.Atoi(s[loc[4]:loc[5]])
		add(loc[:2], h, m, false)
	}
	for _, loc := range noonMidnightRE.FindAllStringIndex(s, -1) {
		if strings.EqualFold(s[loc[0]:loc[1]], "noon") {
			add(loc, 12, 0, true)
		} else {
			add(loc, 0, 0, true)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].pos < out[j].pos })
	return out
}

func to24(hour int, meridiem string) (int, bool) {
	if hour < 1 || hour > 12 {
		return 0, false
	}
	pm := strings.EqualFold(meridiem, "p")
	switch {
	case pm && hour != 12:
		return hour + 12, true
	case !pm && hour == 12:
		return 0, true
	}
	return hour, true
}

// plausibility scores how likely hour:minute is a real event start.
func plausibility(hour, minute int) int {
	minutes := hour*60 + minute
	switch {
	case minutes >= 8*60 && minutes <= 20*60:
		return 3
	case minutes >= 7*60 && minutes <= 22*60:
		return 2
	case minutes >= 6*60 && minutes <= 23*60:
		return 1
	}
	return 0
}

// FormatClock renders a 24-hour time as "H:MM AM/PM".
func FormatClock(hour, minute int) string {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return strconv.Itoa(h) + ":" + twoDigits(minute) + " " + suffix
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
