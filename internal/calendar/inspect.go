package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"
	_ "time/tzdata" // TZID lookups must not depend on the host zoneinfo

	ical "github.com/arran4/golang-ical"
)

// ExportedEvent is one VEVENT read back from an exported calendar.
type ExportedEvent struct {
	UID      string    `json:"uid"`
	Summary  string    `json:"summary"`
	Location string    `json:"location"`
	TimeZone string    `json:"timezone,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	RRule    string    `json:"rrule,omitempty"`
}

// Inspect parses an iCalendar document and returns its events in file order.
func Inspect(r io.Reader) ([]ExportedEvent, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parsing calendar: %w", err)
	}

	events := make([]ExportedEvent, 0)
	for i, ve := range cal.Events() {
		evt, err := readEvent(ve)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i+1, err)
		}
		events = append(events, evt)
	}
	return events, nil
}

func readEvent(ve *ical.VEvent) (ExportedEvent, error) {
	var evt ExportedEvent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		evt.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		evt.Summary = unescapeICS(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		evt.Location = unescapeICS(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		evt.RRule = p.Value
	}

	start, tz, err := readDateTime(ve.GetProperty(ical.ComponentPropertyDtStart))
	if err != nil {
		return evt, fmt.Errorf("DTSTART: %w", err)
	}
	end, _, err := readDateTime(ve.GetProperty(ical.ComponentPropertyDtEnd))
	if err != nil {
		return evt, fmt.Errorf("DTEND: %w", err)
	}
	evt.Start, evt.End, evt.TimeZone = start, end, tz

	return evt, nil
}

// readDateTime reads a DATE-TIME value in its TZID zone, or in UTC for the
// "Z" form.
func readDateTime(p *ical.IANAProperty) (time.Time, string, error) {
	if p == nil {
		return time.Time{}, "", fmt.Errorf("missing")
	}

	value := strings.TrimSpace(p.Value)
	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse("20060102T150405Z", value)
		return t, "UTC", err
	}

	loc := time.UTC
	tz := ""
	if tzs, ok := p.ICalParameters[string(ical.ParameterTzid)]; ok && len(tzs) > 0 {
		tz = tzs[0]
		l, err := time.LoadLocation(tz)
		if err != nil {
			return time.Time{}, "", fmt.Errorf("unknown TZID %q: %w", tz, err)
		}
		loc = l
	}

	t, err := time.ParseInLocation("20060102T150405", value, loc)
	return t, tz, err
}

var icsUnescaper = strings.NewReplacer(`\\`, `\`, `\,`, ",", `\;`, ";", `\n`, "\n", `\N`, "\n")

func unescapeICS(s string) string {
	return icsUnescaper.Replace(s)
}
