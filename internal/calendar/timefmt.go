package calendar

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidTime is returned for time ranges that are not two
	// "H:MM AM|PM" clock readings separated by a dash.
	ErrInvalidTime = errors.New("invalid time format")

	// ErrInvalidDate is returned for dates that are not MM/DD/YYYY.
	ErrInvalidDate = errors.New("invalid date format, expected MM/DD/YYYY")
)

var (
	clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*([AP]M)$`)
	datePart     = regexp.MustCompile(`^\d{1,2}$`)
	yearPart     = regexp.MustCompile(`^\d{4}$`)
)

// weekdayCodes maps the portal's day letters to RFC 5545 BYDAY codes.
var weekdayCodes = map[rune]string{
	'M': "MO",
	'T': "TU",
	'W': "WE",
	'R': "TH",
	'F': "FR",
	'S': "SA",
	'U': "SU",
}

// weekdayNumbers numbers the day letters Sunday=0 .. Saturday=6, matching
// time.Weekday.
var weekdayNumbers = map[rune]time.Weekday{
	'U': time.Sunday,
	'M': time.Monday,
	'T': time.Tuesday,
	'W': time.Wednesday,
	'R': time.Thursday,
	'F': time.Friday,
	'S': time.Saturday,
}

// WeekdayCode returns the two-letter BYDAY code for a day letter.
func WeekdayCode(letter rune) (string, bool) {
	code, ok := weekdayCodes[letter]
	return code, ok
}

// ParseTimeRange converts "9:00 AM - 9:50 AM" into zero-padded 24-hour
// "HHMM" start and end values.
func ParseTimeRange(s string) (start, end string, err error) {
	parts := strings.Split(s, "-")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	start, ok := to24Hour(strings.TrimSpace(parts[0]))
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	end, ok = to24Hour(strings.TrimSpace(parts[1]))
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return start, end, nil
}

// to24Hour applies the noon/midnight rule: 12 PM stays 12, 12 AM is 00 and
// PM hours below 12 add 12. The clock must be the whole string with an hour
// of 1-12 and minutes below 60.
func to24Hour(clock string) (string, bool) {
	m := clockPattern.FindStringSubmatch(clock)
	if m == nil {
		return "", false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil || hour < 1 || hour > 12 {
		return "", false
	}
	if minute, err := strconv.Atoi(m[2]); err != nil || minute > 59 {
		return "", false
	}
	switch {
	case m[3] == "PM" && hour < 12:
		hour += 12
	case m[3] == "AM" && hour == 12:
		hour = 0
	}
	return fmt.Sprintf("%02d%s", hour, m[2]), true
}

// FormatDate converts "MM/DD/YYYY" into "YYYYMMDD", zero-padding month and
// day. Month and day take one or two digits, the year four, and the result
// must be a real calendar date.
func FormatDate(s string) (string, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	month, day, year := parts[0], parts[1], parts[2]
	if !datePart.MatchString(month) || !datePart.MatchString(day) || !yearPart.MatchString(year) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	out := year + padLeft(month, 2) + padLeft(day, 2)
	if _, err := time.Parse("20060102", out); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return out, nil
}

// FirstOccurrence returns the first date on or after start ("YYYYMMDD")
// that falls on the weekday of letter. A start date already on that weekday
// is returned unchanged.
func FirstOccurrence(start string, letter rune) (string, error) {
	target, ok := weekdayNumbers[letter]
	if !ok {
		return "", fmt.Errorf("unknown day letter %q", letter)
	}

	date, err := parseCompactDate(start)
	if err != nil {
		return "", err
	}

	diff := (int(target) - int(date.Weekday()) + 7) % 7
	if diff == 0 {
		return start, nil
	}
	return date.AddDate(0, 0, diff).Format("20060102"), nil
}

// parseCompactDate reads "YYYYMMDD" and rejects dates that do not exist.
func parseCompactDate(s string) (time.Time, error) {
	t, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
