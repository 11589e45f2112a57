// Package keydate turns the loosely structured, AI-extracted qualification
// metadata attached to a notice into concrete, display-ready key-date
// entries. Parsing is best effort: "could not parse" is an expected outcome,
// reported as a missing timestamp rather than an error.
package keydate

import (
	"regexp"
	"strings"
	"time"
)

// YearRolloverWindow controls year inference when the fragment carries no
// explicit year: if the resolved date is further than this in the past, the
// year rolls forward by one. Announcements near a year boundary routinely
// reference next year's date without stating the year. The threshold is a
// heuristic tuned to academic-calendar patterns, not a hard invariant.
const YearRolloverWindow = 60 * 24 * time.Hour

var (
	yearRe       = regexp.MustCompile(`(20\d{2})\s*년?`)
	monthDaySeps = regexp.MustCompile(`(\d{1,2})\s*[./\-]\s*(\d{1,2})`)
	monthDayKo   = regexp.MustCompile(`(\d{1,2})\s*월\s*(\d{1,2})\s*일?`)
	monthDayBare = regexp.MustCompile(`(\d{1,2})\s+(\d{1,2})\s*일`)

	timeColon = regexp.MustCompile(`(\d{1,2})\s*:\s*(\d{2})`)
	timeAmPm  = regexp.MustCompile(`(오전|오후)\s*(\d{1,2})\s*시?(?:\s*(\d{1,2})\s*분)?`)
	timeHour  = regexp.MustCompile(`(\d{1,2})\s*시(?:\s*(\d{1,2})\s*분)?`)
)

// deadlineKeywords mark a fragment (or its type label) as describing an
// end-of-window moment. Without an explicit time, deadline context defaults
// to 23:59 and anything else to 09:00.
var deadlineKeywords = []string{
	"마감", "까지", "기한", "접수", "종료", "제출", "deadline",
}

// Parse resolves a free-text Korean date/time fragment into a concrete
// timestamp. typeLabel supplies extra context for the deadline heuristic and
// may be empty. The second return value is false when the month or day could
// not be determined — those are never guessed.
func Parse(text, typeLabel string) (time.Time, bool) {
	return ParseAt(text, typeLabel, time.Now())
}

// ParseAt is Parse with an explicit "now", used for year inference.
func ParseAt(text, typeLabel string, now time.Time) (time.Time, bool) {
	full := strings.Join(strings.Fields(text), " ")
	s := normalizeFragment(full)
	if s == "" {
		return time.Time{}, false
	}

	year, explicitYear, s := extractYear(s, now)

	month, day, ok := extractMonthDay(s)
	if !ok {
		return time.Time{}, false
	}

	hour, minute, ok := extractClock(s)
	if !ok {
		// Deadline wording anywhere in the original fragment or the type
		// label counts, including portions the range handling trimmed.
		if isDeadlineContext(full + " " + typeLabel) {
			hour, minute = 23, 59
		} else {
			hour, minute = 9, 0
		}
	}

	month = clampInt(month, 1, 12)
	day = clampInt(day, 1, 31)
	hour = clampInt(hour, 0, 23)
	minute = clampInt(minute, 0, 59)

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, now.Location())

	if !explicitYear && now.Sub(t) > YearRolloverWindow {
		t = t.AddDate(1, 0, 0)
	}

	return t, true
}

// normalizeFragment reduces range syntax to the segment that names the
// deadline: "A ~ B" keeps B, "A부터 ..." keeps A.
func normalizeFragment(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "~"))

	if idx := strings.LastIndex(s, "~"); idx >= 0 {
		s = strings.TrimSpace(s[idx+len("~"):])
	}
	if idx := strings.Index(s, "부터"); idx >= 0 {
		s = strings.TrimSpace(s[:idx])
	}

	return s
}

// extractYear pulls an explicit 4-digit year in the 2000s out of the
// fragment, removing it so it cannot be re-matched as a month/day pair.
// Without one the current year is assumed and flagged as inferred.
func extractYear(s string, now time.Time) (year int, explicit bool, rest string) {
	if m := yearRe.FindStringSubmatchIndex(s); m != nil {
		y := 0
		for _, c := range s[m[2]:m[3]] {
			y = y*10 + int(c-'0')
		}
		return y, true, strings.TrimSpace(s[:m[0]] + " " + s[m[1]:])
	}
	return now.Year(), false, s
}

// extractMonthDay tries the supported month/day notations in fixed order.
// Within a pattern the last match wins (the terminal date of a fragment is
// the one that matters). A match with an out-of-range month or day rejects
// the whole pattern rather than being clamped into validity.
func extractMonthDay(s string) (month, day int, ok bool) {
	for _, re := range []*regexp.Regexp{monthDaySeps, monthDayKo, monthDayBare} {
		matches := re.FindAllStringSubmatch(s, -1)
		if len(matches) == 0 {
			continue
		}
		last := matches[len(matches)-1]
		m := atoi(last[1])
		d := atoi(last[2])
		if m < 1 || m > 12 || d < 1 || d > 31 {
			continue
		}
		return m, d, true
	}
	return 0, 0, false
}

// extractClock tries the supported time notations in fixed order: H:MM,
// Korean AM/PM, the midnight keyword, then a bare H시(MM분)? form.
func extractClock(s string) (hour, minute int, ok bool) {
	if matches := timeColon.FindAllStringSubmatch(s, -1); len(matches) > 0 {
		last := matches[len(matches)-1]
		return atoi(last[1]), atoi(last[2]), true
	}

	if m := timeAmPm.FindStringSubmatch(s); m != nil {
		h := atoi(m[2])
		// 오후 12시 stays 12; 오전 12시 is midnight.
		if m[1] == "오후" && h != 12 {
			h += 12
		}
		if m[1] == "오전" && h == 12 {
			h = 0
		}
		min := 0
		if m[3] != "" {
			min = atoi(m[3])
		}
		return h, min, true
	}

	if strings.Contains(s, "자정") {
		// End-of-day convention, not 00:00 of the same date.
		return 23, 59, true
	}

	if m := timeHour.FindStringSubmatch(s); m != nil {
		min := 0
		if m[2] != "" {
			min = atoi(m[2])
		}
		return atoi(m[1]), min, true
	}

	return 0, 0, false
}

func isDeadlineContext(s string) bool {
	s = strings.ToLower(s)
	for _, kw := range deadlineKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
