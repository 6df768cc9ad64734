package hours

import (
	"itinerary-service/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var weeklyEnglish = []string{
	"Monday: 9:00 AM – 5:00 PM",
	"Tuesday: 9:00 AM – 5:00 PM",
	"Wednesday: Closed",
	"Thursday: 11:30 AM – 2:30 PM, 5:00 – 10:00 PM",
	"Friday: 6:00 PM – 2:00 AM",
	"Saturday: Open 24 hours",
	"Sunday: 10:00\u202fAM\u2009–\u20094:00\u202fPM",
}

// 2026-01-05 is a Monday.
func day(offset int) time.Time {
	return time.Date(2026, 1, 5+offset, 12, 0, 0, 0, time.UTC)
}

func TestParseWindow(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want domain.BusinessHoursWindow
	}{
		{"24h range", "09:00-17:00", domain.OpenWindow(540, 1020)},
		{"crosses midnight", "22:00-02:00", domain.OpenWindow(1320, 1560)},
		{"12h with meridiem", "9:00 AM – 5:00 PM", domain.OpenWindow(540, 1020)},
		{"dotted meridiem", "9 a.m. to 5 p.m.", domain.OpenWindow(540, 1020)},
		{"spanish spaced meridiem", "9:00\u00a0a.\u00a0m.\u2009\u2013\u20095:30\u00a0p.\u00a0m.", domain.OpenWindow(540, 1050)},
		{"spanish spaced meridiem ascii", "10:00 a. m. - 2:00 p. m.", domain.OpenWindow(600, 840)},
		{"start borrows end meridiem", "5:00 – 10:00 PM", domain.OpenWindow(1020, 1320)},
		{"start keeps own half of day", "11 – 2 PM", domain.OpenWindow(660, 840)},
		{"noon to midnight", "12:00 PM – 12:00 AM", domain.OpenWindow(720, 1440)},
		{"multiple ranges collapse", "11:30 AM – 2:30 PM, 5:00 – 10:00 PM", domain.OpenWindow(690, 1320)},
		{"japanese", "9時00分～17時30分", domain.OpenWindow(540, 1050)},
		{"japanese meridiem prefix", "午前9:00～午後6:00", domain.OpenWindow(540, 1080)},
		{"korean meridiem", "오전 10:00~오후 9:00", domain.OpenWindow(600, 1260)},
		{"french h separator", "9h30 – 18h00", domain.OpenWindow(570, 1080)},
		{"closed", "Closed", domain.ClosedWindow()},
		{"closed localized", "Geschlossen", domain.ClosedWindow()},
		{"closed japanese", "定休日", domain.ClosedWindow()},
		{"24 hours", "Open 24 hours", domain.OpenWindow(0, 1440)},
		{"24 hours japanese", "24 時間営業", domain.OpenWindow(0, 1440)},
		{"empty", "", domain.UnknownWindow()},
		{"garbage", "by appointment", domain.UnknownWindow()},
		{"out of range hour", "25:00-26:00", domain.UnknownWindow()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ParseWindow(tc.in))
		})
	}
}

func TestResolveWindowForDateByWeekdayName(t *testing.T) {
	cases := []struct {
		name string
		date time.Time
		want domain.BusinessHoursWindow
	}{
		{"monday", day(0), domain.OpenWindow(540, 1020)},
		{"wednesday closed", day(2), domain.ClosedWindow()},
		{"thursday split hours", day(3), domain.OpenWindow(690, 1320)},
		{"friday past midnight", day(4), domain.OpenWindow(1080, 1560)},
		{"saturday all day", day(5), domain.OpenWindow(0, 1440)},
		{"sunday narrow spaces", day(6), domain.OpenWindow(600, 960)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ResolveWindowForDate(weeklyEnglish, tc.date))
		})
	}
}

func TestResolveWindowForDateIgnoresLineOrder(t *testing.T) {
	shuffled := []string{
		"Sunday: Closed",
		"Tuesday: 10:00 – 18:00",
		"Monday: 08:00 – 12:00",
	}

	require.Equal(t, domain.OpenWindow(480, 720), ResolveWindowForDate(shuffled, day(0)))
	require.Equal(t, domain.ClosedWindow(), ResolveWindowForDate(shuffled, day(6)))
	// No Friday line and fewer than seven lines: never guess.
	require.Equal(t, domain.UnknownWindow(), ResolveWindowForDate(shuffled, day(4)))
}

func TestResolveWindowForDateLocalizedNames(t *testing.T) {
	french := []string{"lundi: 09:00–18:00", "mardi: Fermé"}
	require.Equal(t, domain.OpenWindow(540, 1080), ResolveWindowForDate(french, day(0)))
	require.Equal(t, domain.ClosedWindow(), ResolveWindowForDate(french, day(1)))

	japanese := []string{"月曜日: 10時00分～20時00分", "火曜日: 定休日"}
	require.Equal(t, domain.OpenWindow(600, 1200), ResolveWindowForDate(japanese, day(0)))
	require.Equal(t, domain.ClosedWindow(), ResolveWindowForDate(japanese, day(1)))
}

func TestResolveWindowForDatePositionalFallback(t *testing.T) {
	// Seven unlabeled lines are read Monday first.
	lines := []string{
		"08:00-16:00",
		"08:00-17:00",
		"08:00-18:00",
		"08:00-19:00",
		"08:00-20:00",
		"closed",
		"10:00-14:00",
	}

	require.Equal(t, domain.OpenWindow(480, 960), ResolveWindowForDate(lines, day(0)))
	require.Equal(t, domain.OpenWindow(480, 1200), ResolveWindowForDate(lines, day(4)))
	require.Equal(t, domain.ClosedWindow(), ResolveWindowForDate(lines, day(5)))
	require.Equal(t, domain.OpenWindow(600, 840), ResolveWindowForDate(lines, day(6)))

	require.Equal(t, domain.UnknownWindow(), ResolveWindowForDate(lines[:6], day(0)))
	require.Equal(t, domain.UnknownWindow(), ResolveWindowForDate(nil, day(0)))
}
