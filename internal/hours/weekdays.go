package hours

import (
	"strings"
	"time"
)

// Lowercased weekday name prefixes accepted at the start of a schedule line.
var weekdayPrefixes = map[time.Weekday][]string{
	time.Monday:    {"monday", "mon", "lundi", "montag", "lunes", "月曜", "星期一", "周一", "週一", "월요일"},
	time.Tuesday:   {"tuesday", "tue", "mardi", "dienstag", "martes", "火曜", "星期二", "周二", "週二", "화요일"},
	time.Wednesday: {"wednesday", "wed", "mercredi", "mittwoch", "miércoles", "miercoles", "水曜", "星期三", "周三", "週三", "수요일"},
	time.Thursday:  {"thursday", "thu", "jeudi", "donnerstag", "jueves", "木曜", "星期四", "周四", "週四", "목요일"},
	time.Friday:    {"friday", "fri", "vendredi", "freitag", "viernes", "金曜", "星期五", "周五", "週五", "금요일"},
	time.Saturday:  {"saturday", "sat", "samedi", "samstag", "sábado", "sabado", "土曜", "星期六", "周六", "週六", "토요일"},
	time.Sunday:    {"sunday", "sun", "dimanche", "sonntag", "domingo", "日曜", "星期日", "星期天", "周日", "週日", "일요일"},
}

func matchesWeekday(line string, wd time.Weekday) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	for _, p := range weekdayPrefixes[wd] {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// mondayFirstIndex maps a weekday onto a Monday-first week (Monday=0).
func mondayFirstIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
