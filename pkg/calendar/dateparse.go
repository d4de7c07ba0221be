package calendar

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	boldSpan    = regexp.MustCompile(`\*\*[^*]*\*\*`)
	parenSpan   = regexp.MustCompile(`\([^)]*\)`)
	spaceComma  = regexp.MustCompile(`\s+,`)
	dateTime    = regexp.MustCompile(`(?i)^([a-z]{3,9})\.?\s+(\d{1,2}),?\s+(\d{1,2}):(\d{2})\s*([ap])\.?\s*m\.?`)
	dateTime24  = regexp.MustCompile(`(?i)^([a-z]{3,9})\.?\s+(\d{1,2}),?\s+(\d{1,2}):(\d{2})\b`)
	daySpan     = regexp.MustCompile(`(?i)^([a-z]{3,9})\.?\s+(\d{1,2})((?:\s*[-,–]\s*\d{1,2})+)\s*$`)
	singleDay   = regexp.MustCompile(`(?i)^([a-z]{3,9})\.?\s+(\d{1,2})\s*$`)
	spanDayNums = regexp.MustCompile(`\d{1,2}`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseDueDate interprets the due-date strings found in course documents.
// "Jan 12, 11:59 pm" is a point in time (the end is one minute later);
// "Feb 9, 10, 11", "Mar 16-17-18" and "Mar 16" are all-day spans.
// TBA, empty and unrecognised values return ok=false.
func ParseDueDate(raw string, year int, loc *time.Location) (start, end time.Time, ok bool) {
	s := clean(raw)
	if s == "" || strings.EqualFold(s, "tba") || strings.EqualFold(s, "tbd") {
		return time.Time{}, time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}

	if m := dateTime.FindStringSubmatch(s); m != nil {
		return pointInTime(m[1], m[2], m[3], m[4], strings.ToLower(m[5]), year, loc)
	}
	if m := dateTime24.FindStringSubmatch(s); m != nil {
		return pointInTime(m[1], m[2], m[3], m[4], "", year, loc)
	}
	if m := daySpan.FindStringSubmatch(s); m != nil {
		days := spanDayNums.FindAllString(m[3], -1)
		return allDay(m[1], m[2], days[len(days)-1], year, loc)
	}
	if m := singleDay.FindStringSubmatch(s); m != nil {
		return allDay(m[1], m[2], m[2], year, loc)
	}
	return time.Time{}, time.Time{}, false
}

func clean(raw string) string {
	s := boldSpan.ReplaceAllString(raw, " ")
	s = parenSpan.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	s = spaceComma.ReplaceAllString(s, ",")
	return strings.TrimSpace(s)
}

func month(name string) (time.Month, bool) {
	if len(name) < 3 {
		return 0, false
	}
	m, ok := months[strings.ToLower(name[:3])]
	return m, ok
}

func validDay(year int, m time.Month, day int) bool {
	if day < 1 {
		return false
	}
	last := time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return day <= last
}

func pointInTime(monthName, dayStr, hourStr, minStr, meridiem string, year int, loc *time.Location) (time.Time, time.Time, bool) {
	m, ok := month(monthName)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	day, _ := strconv.Atoi(dayStr)
	hour, _ := strconv.Atoi(hourStr)
	minute, _ := strconv.Atoi(minStr)
	if !validDay(year, m, day) || minute > 59 {
		return time.Time{}, time.Time{}, false
	}
	switch meridiem {
	case "a":
		if hour < 1 || hour > 12 {
			return time.Time{}, time.Time{}, false
		}
		if hour == 12 {
			hour = 0
		}
	case "p":
		if hour < 1 || hour > 12 {
			return time.Time{}, time.Time{}, false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return time.Time{}, time.Time{}, false
		}
	}
	start := time.Date(year, m, day, hour, minute, 0, 0, loc)
	return start, start.Add(time.Minute), true
}

func allDay(monthName, firstStr, lastStr string, year int, loc *time.Location) (time.Time, time.Time, bool) {
	m, ok := month(monthName)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	first, _ := strconv.Atoi(firstStr)
	last, _ := strconv.Atoi(lastStr)
	if !validDay(year, m, first) || !validDay(year, m, last) || last < first {
		return time.Time{}, time.Time{}, false
	}
	start := time.Date(year, m, first, 0, 0, 0, 0, loc)
	end := time.Date(year, m, last, 23, 59, 0, 0, loc)
	return start, end, true
}
