package schedule

import (
	"fmt"
	"strings"
)

// Filter narrows an extracted schedule before it is exported. An empty
// filter matches every meeting.
type Filter struct {
	// Course name filtering (case-insensitive substring match)
	Courses []string `json:"courses,omitempty"`

	// Meeting type filtering (case-insensitive substring match)
	Types []string `json:"types,omitempty"`

	// Days keeps meetings held on at least one of these weekday letters
	Days string `json:"days,omitempty"`

	// Location filtering (case-insensitive substring match)
	Locations []string `json:"locations,omitempty"`
}

// IsEmpty reports whether the filter has no active criteria.
func (f *Filter) IsEmpty() bool {
	return f == nil ||
		len(f.Courses) == 0 &&
			len(f.Types) == 0 &&
			f.Days == "" &&
			len(f.Locations) == 0
}

// Validate rejects day letters outside WeekdayLetters.
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}
	for _, r := range strings.ToUpper(f.Days) {
		if !IsWeekdayLetter(r) {
			return fmt.Errorf("invalid day letter %q (use %s)", r, WeekdayLetters)
		}
	}
	return nil
}

// Matches reports whether m passes every active criterion. Meetings without
// selected days never match a day filter.
func (f *Filter) Matches(m MeetingEvent) bool {
	if f.IsEmpty() {
		return true
	}

	if len(f.Courses) > 0 && !containsAny(m.CourseName, f.Courses) {
		return false
	}
	if len(f.Types) > 0 && !containsAny(m.Type, f.Types) {
		return false
	}
	if len(f.Locations) > 0 && !containsAny(m.Location, f.Locations) {
		return false
	}

	if f.Days != "" {
		if m.Days == NoDays {
			return false
		}
		if !strings.ContainsAny(strings.ToUpper(m.Days), strings.ToUpper(f.Days)) {
			return false
		}
	}

	return true
}

// Apply returns the meetings that match. An empty filter returns events
// unchanged.
func (f *Filter) Apply(events []MeetingEvent) []MeetingEvent {
	if f.IsEmpty() {
		return events
	}

	filtered := make([]MeetingEvent, 0, len(events))
	for _, evt := range events {
		if f.Matches(evt) {
			filtered = append(filtered, evt)
		}
	}
	return filtered
}

// String returns a human-readable description of the active criteria.
// Format: "Courses: CS 101 | Types: Lab | Days: MW"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string
	if len(f.Courses) > 0 {
		parts = append(parts, fmt.Sprintf("Courses: %s", strings.Join(f.Courses, ", ")))
	}
	if len(f.Types) > 0 {
		parts = append(parts, fmt.Sprintf("Types: %s", strings.Join(f.Types, ", ")))
	}
	if f.Days != "" {
		parts = append(parts, fmt.Sprintf("Days: %s", strings.ToUpper(f.Days)))
	}
	if len(f.Locations) > 0 {
		parts = append(parts, fmt.Sprintf("Locations: %s", strings.Join(f.Locations, ", ")))
	}
	return strings.Join(parts, " | ")
}

func containsAny(field string, needles []string) bool {
	lower := strings.ToLower(field)
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
