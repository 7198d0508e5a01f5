package calendar

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/webscheduleplus/webschedule/internal/logger"
	"github.com/webscheduleplus/webschedule/internal/schedule"
)

var fixedClock = func() time.Time {
	return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
}

func testEncoder(opts ...Option) *Encoder {
	base := []Option{
		WithUIDs(CounterUIDs("uid-")),
		WithClock(fixedClock),
		WithLogger(logger.New(logger.LevelError, &bytes.Buffer{})),
	}
	return NewEncoder(append(base, opts...)...)
}

func cs101() schedule.MeetingEvent {
	return schedule.MeetingEvent{
		CourseName: "CS 101",
		Type:       "Lecture",
		Days:       "TR",
		Time:       "9:00 AM - 9:50 AM",
		StartDate:  "01/06/2025",
		EndDate:    "05/23/2025",
		Location:   "Skyline Campus Bldg 10 201",
	}
}

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		in        string
		wantStart string
		wantEnd   string
		wantErr   bool
	}{
		{"9:00 AM - 9:50 AM", "0900", "0950", false},
		{"12:00 PM - 1:05 PM", "1200", "1305", false},
		{"12:00 AM - 12:30 AM", "0000", "0030", false},
		{"6:30 PM - 9:20 PM", "1830", "2120", false},
		{"10:10AM-11:00AM", "1010", "1100", false},
		{"9:00 AM", "", "", true},
		{"TBA - TBA", "", "", true},
		{"", "", "", true},
		{"x9:00 AMy - 9:50 AMz", "", "", true},
		{"13:00 PM - 25:00 AM", "", "", true},
		{"0:30 AM - 1:00 AM", "", "", true},
		{"9:75 AM - 10:00 AM", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			start, end, err := ParseTimeRange(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTime) {
					t.Errorf("ParseTimeRange(%q) error = %v, want ErrInvalidTime", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeRange(%q) unexpected error: %v", tt.in, err)
			}
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("ParseTimeRange(%q) = %q, %q, want %q, %q", tt.in, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"01/06/2025", "20250106", false},
		{"1/6/2025", "20250106", false},
		{"12/31/2024", "20241231", false},
		{"N/A", "", true},
		{"", "", true},
		{"2025-01-06", "", true},
		{"aa/bb/cccc", "", true},
		{"05/23/25", "", true},
		{"13/45/2025", "", true},
		{"001/02/2025", "", true},
		{"02/30/2025", "", true},
		{"+1/06/2025", "", true},
		{"02/29/2024", "20240229", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := FormatDate(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDate) {
					t.Errorf("FormatDate(%q) error = %v, want ErrInvalidDate", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FormatDate(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("FormatDate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFirstOccurrence(t *testing.T) {
	// 2025-09-02 is a Tuesday.
	tests := []struct {
		start  string
		letter rune
		want   string
	}{
		{"20250902", 'M', "20250908"},
		{"20250902", 'T', "20250902"},
		{"20250902", 'W', "20250903"},
		{"20250902", 'R', "20250904"},
		{"20250902", 'F', "20250905"},
		{"20250902", 'S', "20250906"},
		{"20250902", 'U', "20250907"},
		{"20241230", 'F', "20250103"},
	}

	for _, tt := range tests {
		t.Run(tt.start+string(tt.letter), func(t *testing.T) {
			got, err := FirstOccurrence(tt.start, tt.letter)
			if err != nil {
				t.Fatalf("FirstOccurrence() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FirstOccurrence(%q, %q) = %q, want %q", tt.start, tt.letter, got, tt.want)
			}
		})
	}

	if _, err := FirstOccurrence("20250902", 'X'); err == nil {
		t.Error("FirstOccurrence() with unknown letter returned nil error")
	}
	// Impossible dates fail whether or not a roll is needed.
	for _, start := range []string{"20251345", "20250230"} {
		if _, err := FirstOccurrence(start, 'T'); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("FirstOccurrence(%q) error = %v, want ErrInvalidDate", start, err)
		}
	}
}

func TestWeekdayCode(t *testing.T) {
	for letter, want := range map[rune]string{'M': "MO", 'R': "TH", 'U': "SU", 'S': "SA"} {
		if got, ok := WeekdayCode(letter); !ok || got != want {
			t.Errorf("WeekdayCode(%q) = %q, %v, want %q", letter, got, ok, want)
		}
	}
	if _, ok := WeekdayCode('X'); ok {
		t.Error("WeekdayCode('X') ok = true, want false")
	}
}

func TestEncode_SingleCourse(t *testing.T) {
	got := testEncoder().Encode([]schedule.MeetingEvent{cs101()})

	want := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"CALSCALE:GREGORIAN",
		"PRODID:-//BetterWebSchedule//EN",
		"BEGIN:VEVENT",
		"DTSTAMP:20250101T120000Z",
		"UID:uid-1@betterwebschedule",
		"SUMMARY:CS 101 (Lecture)",
		"DTSTART;TZID=America/Los_Angeles:20250107T090000",
		"DTEND;TZID=America/Los_Angeles:20250107T095000",
		"LOCATION:Skyline Campus Bldg 10 201",
		"RRULE:FREQ=WEEKLY;BYDAY=TU;UNTIL=20250523T235900Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"DTSTAMP:20250101T120000Z",
		"UID:uid-2@betterwebschedule",
		"SUMMARY:CS 101 (Lecture)",
		"DTSTART;TZID=America/Los_Angeles:20250109T090000",
		"DTEND;TZID=America/Los_Angeles:20250109T095000",
		"LOCATION:Skyline Campus Bldg 10 201",
		"RRULE:FREQ=WEEKLY;BYDAY=TH;UNTIL=20250523T235900Z",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\n")

	if got != want {
		t.Errorf("Encode() mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestEncode_EmptyInput(t *testing.T) {
	got, report := testEncoder().EncodeReport(nil)

	want := "BEGIN:VCALENDAR\nVERSION:2.0\nCALSCALE:GREGORIAN\nPRODID:-//BetterWebSchedule//EN\nEND:VCALENDAR"
	if got != want {
		t.Errorf("EncodeReport(nil) = %q, want %q", got, want)
	}
	if report != (Report{}) {
		t.Errorf("report = %+v, want zero", report)
	}
}

func TestEncode_SkipsUnschedulable(t *testing.T) {
	online := cs101()
	online.Days = schedule.NoDays
	tba := cs101()
	tba.Time = schedule.NoTime

	got, report := testEncoder().EncodeReport([]schedule.MeetingEvent{online, tba})
	if strings.Contains(got, "BEGIN:VEVENT") {
		t.Errorf("Encode() wrote VEVENT for unschedulable meetings:\n%s", got)
	}
	if report.Skipped != 2 || report.Failed != 0 || report.Blocks != 0 {
		t.Errorf("report = %+v, want 2 skipped", report)
	}
}

func TestEncode_DayOrderAndAnchoring(t *testing.T) {
	evt := schedule.MeetingEvent{
		CourseName: "BIO 110",
		Type:       "Lecture",
		Days:       "MWF",
		Time:       "10:00 AM - 10:50 AM",
		StartDate:  "09/02/2025",
		EndDate:    "12/12/2025",
		Location:   "Room 5",
	}

	got := testEncoder().Encode([]schedule.MeetingEvent{evt})

	wantStarts := []string{
		"DTSTART;TZID=America/Los_Angeles:20250908T100000",
		"DTSTART;TZID=America/Los_Angeles:20250903T100000",
		"DTSTART;TZID=America/Los_Angeles:20250905T100000",
	}
	pos := 0
	for _, want := range wantStarts {
		idx := strings.Index(got[pos:], want)
		if idx < 0 {
			t.Fatalf("Encode() missing %q after offset %d:\n%s", want, pos, got)
		}
		pos += idx + len(want)
	}
	for _, code := range []string{"BYDAY=MO", "BYDAY=WE", "BYDAY=FR"} {
		if !strings.Contains(got, code) {
			t.Errorf("Encode() missing %q", code)
		}
	}
}

func TestEncode_UnknownDayLetterIgnored(t *testing.T) {
	evt := cs101()
	evt.Days = "TX"

	_, report := testEncoder().EncodeReport([]schedule.MeetingEvent{evt})
	if report.Blocks != 1 || report.Failed != 0 {
		t.Errorf("report = %+v, want 1 block and no failures", report)
	}
}

func TestEncode_PartialFailure(t *testing.T) {
	bad := cs101()
	bad.CourseName = "ART 5"
	bad.Time = "TBA - TBA"
	noDates := cs101()
	noDates.CourseName = "ART 6"
	noDates.StartDate = schedule.NoDateRange
	noDates.EndDate = ""

	var logs bytes.Buffer
	enc := NewEncoder(
		WithUIDs(CounterUIDs("uid-")),
		WithClock(fixedClock),
		WithLogger(logger.New(logger.LevelWarn, &logs)),
	)
	got, report := enc.EncodeReport([]schedule.MeetingEvent{bad, cs101(), noDates})

	if report.Failed != 2 || report.Blocks != 2 || report.Events != 3 {
		t.Errorf("report = %+v, want 2 failed and 2 blocks", report)
	}
	if strings.Contains(got, "ART") {
		t.Errorf("Encode() kept a failed meeting:\n%s", got)
	}
	if !strings.HasSuffix(got, "END:VCALENDAR") {
		t.Errorf("Encode() output is not a complete calendar")
	}
	if c := strings.Count(logs.String(), "\n"); c != 2 {
		t.Errorf("logged %d warnings, want 2:\n%s", c, logs.String())
	}
}

func TestEncode_MalformedDatesDropEvent(t *testing.T) {
	shortYear := cs101()
	shortYear.CourseName = "ART 7"
	shortYear.EndDate = "05/23/25"
	badMonth := cs101()
	badMonth.CourseName = "ART 8"
	badMonth.StartDate = "13/45/2025"

	got, report := testEncoder().EncodeReport([]schedule.MeetingEvent{shortYear, cs101(), badMonth})

	want := Report{Events: 3, Failed: 2, Blocks: 2}
	if report != want {
		t.Errorf("report = %+v, want %+v", report, want)
	}
	if strings.Contains(got, "ART") || strings.Contains(got, "UNTIL=250523") {
		t.Errorf("Encode() kept a meeting with a malformed date:\n%s", got)
	}
}

func TestEncode_Idempotent(t *testing.T) {
	events := []schedule.MeetingEvent{cs101()}

	first := testEncoder(WithUIDs(SeededUIDs("term"))).Encode(events)
	second := testEncoder(WithUIDs(SeededUIDs("term"))).Encode(events)
	if first != second {
		t.Errorf("Encode() with equal seeds differs:\n%s\n---\n%s", first, second)
	}
}

func TestEncode_Options(t *testing.T) {
	evt := cs101()
	evt.CourseName = "CS 101, Section A; Honors"
	evt.Location = ""

	got := testEncoder(
		WithLineEnding(LineEndingCRLF),
		WithProductID("Campus"),
		WithUIDDomain("example.edu"),
		WithTimeZone("America/Denver"),
	).Encode([]schedule.MeetingEvent{evt})

	checks := []string{
		"PRODID:-//Campus//EN\r\n",
		"UID:uid-1@example.edu\r\n",
		"SUMMARY:CS 101\\, Section A\\; Honors (Lecture)\r\n",
		"DTSTART;TZID=America/Denver:20250107T090000\r\n",
		"LOCATION:TBD\r\n",
	}
	for _, want := range checks {
		if !strings.Contains(got, want) {
			t.Errorf("Encode() missing %q", want)
		}
	}
	if strings.HasSuffix(got, "\r\n") {
		t.Error("Encode() output ends with a line terminator")
	}
	if strings.Contains(strings.ReplaceAll(got, "\r\n", ""), "\n") {
		t.Error("Encode() mixes LF into CRLF output")
	}
}

func TestEncode_Fixture(t *testing.T) {
	events := []schedule.MeetingEvent{
		cs101(),
		{CourseName: "CS 101", Type: "Lab", Days: "F", Time: "1:00 PM - 3:50 PM", StartDate: "01/06/2025", EndDate: "05/23/2025", Location: "Skyline Campus Bldg 10 201"},
		{CourseName: "MATH 200", Type: "Online", Days: schedule.NoDays, Time: schedule.NoTime, StartDate: "01/06/2025", EndDate: "05/23/2025"},
		{CourseName: schedule.UnknownCourse, Type: schedule.UnknownType, Days: "WM", Time: "6:30 PM - 9:20 PM", StartDate: schedule.NoDateRange},
	}

	got, report := testEncoder().EncodeReport(events)
	want := Report{Events: 4, Skipped: 1, Failed: 1, Blocks: 3}
	if report != want {
		t.Errorf("report = %+v, want %+v", report, want)
	}
	if !strings.Contains(got, "DTSTART;TZID=America/Los_Angeles:20250110T130000") {
		t.Errorf("Encode() missing Friday lab start:\n%s", got)
	}
}

func TestUIDGenerators(t *testing.T) {
	c := CounterUIDs("x")
	if a, b := c.Next(), c.Next(); a != "x1" || b != "x2" {
		t.Errorf("CounterUIDs = %q, %q, want x1, x2", a, b)
	}

	s1, s2 := SeededUIDs("a"), SeededUIDs("a")
	if s1.Next() != s2.Next() {
		t.Error("SeededUIDs with equal seeds diverged")
	}
	if SeededUIDs("a").Next() == SeededUIDs("b").Next() {
		t.Error("SeededUIDs with different seeds collided")
	}

	r := RandomUIDs()
	if r.Next() == r.Next() {
		t.Error("RandomUIDs repeated a token")
	}
}

func TestInspect_RoundTrip(t *testing.T) {
	evt := cs101()
	evt.CourseName = "CS 101, Honors"
	out := testEncoder().Encode([]schedule.MeetingEvent{evt})

	got, err := Inspect(strings.NewReader(out))
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Inspect() returned %d events, want 2", len(got))
	}

	first := got[0]
	if first.UID != "uid-1@betterwebschedule" {
		t.Errorf("UID = %q", first.UID)
	}
	if first.Summary != "CS 101, Honors (Lecture)" {
		t.Errorf("Summary = %q", first.Summary)
	}
	if first.TimeZone != DefaultTimeZone {
		t.Errorf("TimeZone = %q", first.TimeZone)
	}
	if first.Start.Weekday() != time.Tuesday || first.Start.Hour() != 9 {
		t.Errorf("Start = %v, want Tuesday 09:00", first.Start)
	}
	if d := first.End.Sub(first.Start); d != 50*time.Minute {
		t.Errorf("duration = %v, want 50m", d)
	}
	if first.RRule != "FREQ=WEEKLY;BYDAY=TU;UNTIL=20250523T235900Z" {
		t.Errorf("RRule = %q", first.RRule)
	}
}

func TestInspect_Invalid(t *testing.T) {
	bad := "BEGIN:VCALENDAR\nBEGIN:VEVENT\nUID:x\nDTSTART:notadate\nEND:VEVENT\nEND:VCALENDAR"
	if _, err := Inspect(strings.NewReader(bad)); err == nil {
		t.Error("Inspect() error = nil, want error for malformed DTSTART")
	}
}

func TestOccurrences(t *testing.T) {
	out := testEncoder().Encode([]schedule.MeetingEvent{cs101()})
	events, err := Inspect(strings.NewReader(out))
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}

	all, err := Occurrences(events[0], 100)
	if err != nil {
		t.Fatalf("Occurrences() error: %v", err)
	}
	if len(all) != 20 {
		t.Fatalf("Occurrences() returned %d dates, want 20 Tuesdays", len(all))
	}
	if !all[0].Equal(events[0].Start) {
		t.Errorf("first occurrence = %v, want DTSTART %v", all[0], events[0].Start)
	}
	last := all[len(all)-1]
	if last.Month() != time.May || last.Day() != 20 {
		t.Errorf("last occurrence = %v, want May 20", last)
	}

	capped, err := Occurrences(events[0], 5)
	if err != nil {
		t.Fatalf("Occurrences() error: %v", err)
	}
	if len(capped) != 5 {
		t.Errorf("Occurrences(limit 5) returned %d dates", len(capped))
	}
}

func TestOccurrences_NoRule(t *testing.T) {
	start := time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC)
	got, err := Occurrences(ExportedEvent{Start: start}, 0)
	if err != nil {
		t.Fatalf("Occurrences() error: %v", err)
	}
	if len(got) != 1 || !got[0].Equal(start) {
		t.Errorf("Occurrences() = %v, want [%v]", got, start)
	}
}
