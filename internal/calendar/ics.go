package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/webscheduleplus/webschedule/internal/logger"
	"github.com/webscheduleplus/webschedule/internal/schedule"
)

const (
	DefaultProductID = "BetterWebSchedule"
	DefaultUIDDomain = "betterwebschedule"
	DefaultTimeZone  = "America/Los_Angeles"

	LineEndingLF   = "\n"
	LineEndingCRLF = "\r\n"
)

// Encoder serializes meeting records into an iCalendar document with one
// weekly-recurring VEVENT per meeting day.
type Encoder struct {
	productID  string
	uidDomain  string
	timeZone   string
	lineEnding string
	uids       UIDGenerator
	now        func() time.Time
	log        *logger.Logger
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithProductID sets the name placed in PRODID:-//<name>//EN.
func WithProductID(id string) Option {
	return func(e *Encoder) { e.productID = id }
}

// WithUIDDomain sets the domain suffix of every UID.
func WithUIDDomain(domain string) Option {
	return func(e *Encoder) { e.uidDomain = domain }
}

// WithTimeZone sets the TZID used on DTSTART and DTEND.
func WithTimeZone(tz string) Option {
	return func(e *Encoder) { e.timeZone = tz }
}

// WithLineEnding sets the line terminator (LineEndingLF or LineEndingCRLF).
func WithLineEnding(eol string) Option {
	return func(e *Encoder) { e.lineEnding = eol }
}

// WithUIDs sets the UID token generator.
func WithUIDs(g UIDGenerator) Option {
	return func(e *Encoder) { e.uids = g }
}

// WithClock sets the source of the DTSTAMP time.
func WithClock(now func() time.Time) Option {
	return func(e *Encoder) { e.now = now }
}

// WithLogger sets the logger used for dropped events.
func WithLogger(l *logger.Logger) Option {
	return func(e *Encoder) { e.log = l }
}

// NewEncoder creates an Encoder with Pacific time, random UIDs and the
// wall clock unless overridden.
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{
		productID:  DefaultProductID,
		uidDomain:  DefaultUIDDomain,
		timeZone:   DefaultTimeZone,
		lineEnding: LineEndingLF,
		uids:       RandomUIDs(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Report summarizes one Encode call.
type Report struct {
	Events  int `json:"events"`
	Skipped int `json:"skipped"` // no days or no time
	Failed  int `json:"failed"`  // malformed time or date
	Blocks  int `json:"blocks"`  // VEVENT blocks written
}

// Encode serializes events. Events that cannot be encoded are dropped; the
// result is always a complete calendar, possibly without any VEVENT.
func (e *Encoder) Encode(events []schedule.MeetingEvent) string {
	out, _ := e.EncodeReport(events)
	return out
}

// EncodeReport is Encode plus counts of what was written and dropped.
func (e *Encoder) EncodeReport(events []schedule.MeetingEvent) (string, Report) {
	report := Report{Events: len(events)}
	stamp := formatICSTime(e.now())

	var ics strings.Builder
	e.writeLine(&ics, "BEGIN:VCALENDAR")
	e.writeLine(&ics, "VERSION:2.0")
	e.writeLine(&ics, "CALSCALE:GREGORIAN")
	e.writeLine(&ics, fmt.Sprintf("PRODID:-//%s//EN", e.productID))

	for _, evt := range events {
		if !evt.IsExportable() {
			report.Skipped++
			continue
		}

		blocks, err := e.encodeEvent(evt, stamp)
		if err != nil {
			report.Failed++
			logger.IncrCounter("calendar.events_failed")
			e.eventLogger().Warnf("skipping meeting that could not be encoded", logger.Fields{
				"course": evt.CourseName,
				"type":   evt.Type,
				"time":   evt.Time,
				"start":  evt.StartDate,
				"end":    evt.EndDate,
			}, err)
			continue
		}

		for _, block := range blocks {
			ics.WriteString(block)
		}
		report.Blocks += len(blocks)
	}

	ics.WriteString("END:VCALENDAR")

	logger.AddCounter("calendar.blocks_emitted", int64(report.Blocks))
	return ics.String(), report
}

// encodeEvent renders every VEVENT for one meeting. Nothing is returned
// unless all of them could be built.
func (e *Encoder) encodeEvent(evt schedule.MeetingEvent, stamp string) ([]string, error) {
	startTime, endTime, err := ParseTimeRange(evt.Time)
	if err != nil {
		return nil, err
	}
	startDate, err := FormatDate(evt.StartDate)
	if err != nil {
		return nil, fmt.Errorf("start date: %w", err)
	}
	endDate, err := FormatDate(evt.EndDate)
	if err != nil {
		return nil, fmt.Errorf("end date: %w", err)
	}

	blocks := make([]string, 0, len(evt.Days))
	for _, day := range evt.Days {
		weekday, ok := WeekdayCode(day)
		if !ok {
			continue
		}

		first, err := FirstOccurrence(startDate, day)
		if err != nil {
			return nil, err
		}

		var b strings.Builder
		e.writeLine(&b, "BEGIN:VEVENT")
		e.writeLine(&b, "DTSTAMP:"+stamp)
		e.writeLine(&b, fmt.Sprintf("UID:%s@%s", e.uids.Next(), e.uidDomain))
		e.writeLine(&b, "SUMMARY:"+escapeICS(evt.Summary()))
		e.writeLine(&b, fmt.Sprintf("DTSTART;TZID=%s:%sT%s00", e.timeZone, first, startTime))
		e.writeLine(&b, fmt.Sprintf("DTEND;TZID=%s:%sT%s00", e.timeZone, first, endTime))
		e.writeLine(&b, "LOCATION:"+escapeICS(locationOrTBD(evt.Location)))
		e.writeLine(&b, fmt.Sprintf("RRULE:FREQ=WEEKLY;BYDAY=%s;UNTIL=%sT235900Z", weekday, endDate))
		e.writeLine(&b, "END:VEVENT")
		blocks = append(blocks, b.String())
	}

	return blocks, nil
}

func (e *Encoder) writeLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteString(e.lineEnding)
}

func (e *Encoder) eventLogger() *logger.Logger {
	if e.log != nil {
		return e.log
	}
	return logger.Default()
}

func locationOrTBD(location string) string {
	if location == "" {
		return "TBD"
	}
	return location
}

// formatICSTime formats a time.Time as an iCalendar UTC datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar text values
func escapeICS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
