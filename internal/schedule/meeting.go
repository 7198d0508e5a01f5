package schedule

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"strings"
)

// Sentinel values substituted for fields that could not be extracted.
const (
	UnknownCourse = "Unknown Course"
	UnknownType   = "Unknown Type"
	NoDays        = "None"
	NoTime        = "No Time Found"
	UnknownField  = "Unknown"
	NoDateRange   = "N/A"
)

// WeekdayLetters is the single-letter weekday alphabet used by the portal's
// day picker, Monday through Sunday (R is Thursday, U is Sunday).
const WeekdayLetters = "MTWRFSU"

// MeetingEvent is one course-meeting occurrence pattern.
type MeetingEvent struct {
	CourseName string `json:"courseName"`
	Type       string `json:"type"`
	Days       string `json:"days"`
	Time       string `json:"time"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Location   string `json:"location"`
}

// IsExportable reports whether the event carries enough data to become a
// calendar entry. Events without selected days or without a time are dropped
// by the encoder.
func (m MeetingEvent) IsExportable() bool {
	return m.Days != NoDays && m.Time != NoTime
}

// Summary is the calendar title of the meeting, "CS 101 (Lecture)".
func (m MeetingEvent) Summary() string {
	return fmt.Sprintf("%s (%s)", m.CourseName, m.Type)
}

// IsWeekdayLetter reports whether r belongs to WeekdayLetters.
func IsWeekdayLetter(r rune) bool {
	return strings.ContainsRune(WeekdayLetters, r)
}

// JoinDays concatenates day abbreviations in the order given and returns
// NoDays for an empty selection.
func JoinDays(abbreviations []string) string {
	days := strings.Join(abbreviations, "")
	if days == "" {
		return NoDays
	}
	return days
}

// Fingerprint returns a deterministic hash of an extracted schedule. Two
// scrapes of an unchanged page produce the same fingerprint.
func Fingerprint(events []MeetingEvent) string {
	data, err := json.Marshal(events)
	if err != nil {
		// MeetingEvent only holds strings
		panic(err)
	}
	h := sha1.New()
	h.Write(data)
	return fmt.Sprintf("%x", h.Sum(nil))
}
