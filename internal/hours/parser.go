// Package hours turns free-text weekly opening-hours lines into per-day
// business-hours windows.
//
// Lines look like "Monday: 9:00 AM – 5:00 PM", "Tuesday: Closed",
// "Sunday: Open 24 hours" or their localized equivalents. Anything that
// cannot be parsed resolves to an unknown window; the parser never guesses.
package hours

import (
	"itinerary-service/internal/domain"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

var closedKeywords = []string{
	"closed", "fermé", "geschlossen", "cerrado", "chiuso",
	"休業", "定休日", "휴무", "휴업", "休息",
}

var allDayKeywords = []string{
	"24 hours", "24hours", "24 時間", "24時間", "24시간", "24 시간",
	"24 heures", "24h/24", "24 stunden", "24 horas", "24 小时", "24小时", "24 小時", "24小時", "24/7",
}

var (
	pmMarkers = []string{"p. m.", "p.m.", "p.m", "pm", "午後", "下午", "오후"}
	amMarkers = []string{"a. m.", "a.m.", "a.m", "am", "午前", "上午", "오전"}
)

var clockPattern = regexp.MustCompile(`(\d{1,2})(?:\s*(?:[:：.h]|時)\s*(\d{2}))?`)

var spaceReplacer = strings.NewReplacer(
	"\u202f", " ", // narrow no-break space before AM/PM
	"\u2009", " ",
	"\u00a0", " ",
)

var dashReplacer = strings.NewReplacer(
	"\u2013", "-", "\u2014", "-", "\u2010", "-", "\u2212", "-",
	"~", "-", "～", "-", "〜", "-",
	" to ", "-",
)

type meridiem int

const (
	noMeridiem meridiem = iota
	am
	pm
)

type clockTime struct {
	hour     int
	minute   int
	meridiem meridiem
}

// ResolveWindowForDate selects the schedule line for date's weekday and
// classifies it.
//
// A line matches when it starts with a localized name of the weekday. When no
// line matches and exactly seven lines exist, they are read positionally,
// Monday first. Otherwise the window is unknown.
func ResolveWindowForDate(lines []string, date time.Time) domain.BusinessHoursWindow {
	line, ok := selectLine(lines, date.Weekday())
	if !ok {
		return domain.UnknownWindow()
	}

	return ParseWindow(stripDayLabel(line))
}

func selectLine(lines []string, wd time.Weekday) (string, bool) {
	for _, l := range lines {
		if matchesWeekday(l, wd) {
			return l, true
		}
	}

	if len(lines) == 7 {
		return lines[mondayFirstIndex(wd)], true
	}

	return "", false
}

// stripDayLabel drops a leading "Monday:" style label. The label is only
// removed when it contains no digits, so "09:00-17:00" is left intact.
func stripDayLabel(line string) string {
	idx := strings.IndexAny(line, ":：")
	if idx <= 0 {
		return strings.TrimSpace(line)
	}

	label := line[:idx]
	if strings.IndexFunc(label, unicode.IsDigit) >= 0 {
		return strings.TrimSpace(line)
	}

	_, size := utf8.DecodeRuneInString(line[idx:])
	return strings.TrimSpace(line[idx+size:])
}

// ParseWindow classifies the hours text of a single day.
//
// Multiple comma-separated ranges collapse to {min(open), max(close)}; gaps
// such as lunch closures are not modeled.
func ParseWindow(text string) domain.BusinessHoursWindow {
	lower := strings.ToLower(strings.TrimSpace(spaceReplacer.Replace(text)))
	if lower == "" {
		return domain.UnknownWindow()
	}

	if containsAny(lower, closedKeywords) {
		return domain.ClosedWindow()
	}
	if containsAny(lower, allDayKeywords) {
		return domain.OpenWindow(0, domain.MinutesPerDay)
	}

	openMin, closeMin := 0, 0
	found := false
	for _, part := range splitRanges(lower) {
		o, c, ok := parseRange(part)
		if !ok {
			continue
		}

		if !found || o < openMin {
			openMin = o
		}
		if !found || c > closeMin {
			closeMin = c
		}
		found = true
	}

	if !found {
		return domain.UnknownWindow()
	}

	return domain.OpenWindow(openMin, closeMin)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func splitRanges(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '，' || r == '、' || r == ';'
	})
}

// parseRange parses "start-end" into minutes since midnight. A close at or
// before the open time crosses midnight.
func parseRange(s string) (int, int, bool) {
	parts := strings.SplitN(dashReplacer.Replace(" "+s+" "), "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	start, ok := parseClock(parts[0])
	if !ok {
		return 0, 0, false
	}
	end, ok := parseClock(parts[1])
	if !ok {
		return 0, 0, false
	}

	closeMin, ok := end.minutes(end.meridiem)
	if !ok {
		return 0, 0, false
	}

	openMin, ok := start.minutes(start.meridiem)
	if !ok {
		return 0, 0, false
	}

	// "5:00 – 10:00 PM": the start borrows the end's meridiem when that keeps
	// the range in order.
	if start.meridiem == noMeridiem && end.meridiem != noMeridiem {
		if borrowed, ok := start.minutes(end.meridiem); ok && borrowed <= closeMin {
			openMin = borrowed
		}
	}

	if closeMin <= openMin {
		closeMin += domain.MinutesPerDay
	}

	return openMin, closeMin, true
}

func parseClock(s string) (clockTime, bool) {
	s = strings.TrimSpace(s)

	var ct clockTime
	for _, m := range pmMarkers {
		if strings.Contains(s, m) {
			ct.meridiem = pm
			s = strings.ReplaceAll(s, m, " ")
			break
		}
	}
	if ct.meridiem == noMeridiem {
		for _, m := range amMarkers {
			if strings.Contains(s, m) {
				ct.meridiem = am
				s = strings.ReplaceAll(s, m, " ")
				break
			}
		}
	}

	match := clockPattern.FindStringSubmatch(s)
	if match == nil {
		return clockTime{}, false
	}

	h, err := strconv.Atoi(match[1])
	if err != nil {
		return clockTime{}, false
	}
	ct.hour = h

	if match[2] != "" {
		m, err := strconv.Atoi(match[2])
		if err != nil {
			return clockTime{}, false
		}
		ct.minute = m
	}

	return ct, true
}

// minutes converts the clock to minutes since midnight under mer.
func (c clockTime) minutes(mer meridiem) (int, bool) {
	if c.minute < 0 || c.minute > 59 {
		return 0, false
	}

	switch mer {
	case am, pm:
		if c.hour < 1 || c.hour > 12 {
			return 0, false
		}
		h := c.hour % 12
		if mer == pm {
			h += 12
		}
		return h*60 + c.minute, true
	default:
		if c.hour > 24 || (c.hour == 24 && c.minute > 0) {
			return 0, false
		}
		return c.hour*60 + c.minute, true
	}
}
