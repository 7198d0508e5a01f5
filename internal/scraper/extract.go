package scraper

import (
	"regexp"
	"strings"

	"github.com/webscheduleplus/webschedule/internal/schedule"
)

var (
	// clockPattern identifies spans that carry a clock time. Only a full
	// range inside such a span becomes the meeting time.
	clockPattern = regexp.MustCompile(`\d{1,2}:\d{2}\s*[AP]M`)

	// timeRangePattern is the fallback scan over a whole meeting block.
	timeRangePattern = regexp.MustCompile(`\d{1,2}:\d{2}\s*[AP]M\s*-\s*\d{1,2}:\d{2}\s*[AP]M`)

	whitespace = regexp.MustCompile(`\s+`)
)

// CourseWrapper is one course block of the schedule list view.
type CourseWrapper interface {
	// Title returns the course title and whether a title element exists.
	Title() (string, bool)
	Meetings() []MeetingBlock
}

// MeetingBlock is one "meeting information" block of a course. The lists it
// returns are positional and need not have equal lengths.
type MeetingBlock interface {
	// DateRanges returns texts of the form "MM/DD/YYYY -- MM/DD/YYYY".
	DateRanges() []string
	// DayCodes returns, per day picker, the selected day abbreviations in
	// document order.
	DayCodes() [][]string
	// TypeLabels returns the text following each "Type:" label.
	TypeLabels() []string
	// TimeTexts returns the texts of elements that carry a clock time.
	TimeTexts() []string
	LocationParts() LocationParts
	// Text is the full text of the block.
	Text() string
}

// LocationParts holds the raw values of the three location labels. Empty
// strings mark labels that were not found.
type LocationParts struct {
	Location string
	Building string
	Room     string
}

// String joins the parts as "location building room", substituting
// schedule.UnknownField for missing parts and squeezing whitespace.
func (p LocationParts) String() string {
	parts := []string{
		orUnknown(p.Location),
		orUnknown(p.Building),
		orUnknown(p.Room),
	}
	return squeeze(strings.Join(parts, " "))
}

// Extract turns course wrappers into meeting records. Each meeting block
// yields max(len(dateRanges), len(dayPickers), len(typeLabels), len(timeTexts))
// records.
func Extract(wrappers []CourseWrapper) []schedule.MeetingEvent {
	events := make([]schedule.MeetingEvent, 0)

	for _, wrapper := range wrappers {
		courseName := schedule.UnknownCourse
		if title, ok := wrapper.Title(); ok {
			courseName = strings.TrimSpace(title)
		}

		for _, meeting := range wrapper.Meetings() {
			events = append(events, extractMeeting(courseName, meeting)...)
		}
	}

	return events
}

func extractMeeting(courseName string, meeting MeetingBlock) []schedule.MeetingEvent {
	dateRanges := meeting.DateRanges()
	pickers := meeting.DayCodes()
	typeLabels := meeting.TypeLabels()
	timeTexts := meeting.TimeTexts()
	location := meeting.LocationParts().String()

	total := max(len(dateRanges), len(pickers), len(typeLabels), len(timeTexts))
	events := make([]schedule.MeetingEvent, 0, total)

	for i := 0; i < total; i++ {
		startDate, endDate := splitDateRange(pickDateRange(dateRanges, i))

		typeText := schedule.UnknownType
		if i < len(typeLabels) {
			if label := strings.TrimSpace(replaceNBSP(typeLabels[i])); label != "" {
				typeText = label
			}
		}

		timeText := schedule.NoTime
		if i < len(timeTexts) {
			if match := timeRangePattern.FindString(replaceNBSP(timeTexts[i])); match != "" {
				timeText = squeeze(match)
			}
		}
		if timeText == schedule.NoTime {
			if match := timeRangePattern.FindString(replaceNBSP(meeting.Text())); match != "" {
				timeText = squeeze(match)
			}
		}

		days := schedule.NoDays
		if i < len(pickers) {
			days = schedule.JoinDays(pickers[i])
		}

		events = append(events, schedule.MeetingEvent{
			CourseName: courseName,
			Type:       typeText,
			Days:       days,
			Time:       timeText,
			StartDate:  startDate,
			EndDate:    endDate,
			Location:   location,
		})
	}

	return events
}

// pickDateRange returns range i, falling back to the first range and then to
// schedule.NoDateRange. Type labels and times have no such fallback.
func pickDateRange(ranges []string, i int) string {
	if i < len(ranges) && ranges[i] != "" {
		return ranges[i]
	}
	if len(ranges) > 0 && ranges[0] != "" {
		return ranges[0]
	}
	return schedule.NoDateRange
}

// splitDateRange splits "MM/DD/YYYY -- MM/DD/YYYY". A range without the
// delimiter yields an empty end date, which fails later at encode time.
func splitDateRange(s string) (start, end string) {
	parts := strings.Split(s, "--")
	start = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		end = strings.TrimSpace(parts[1])
	}
	return start, end
}

func replaceNBSP(s string) string {
	return strings.ReplaceAll(s, "\u00a0", " ")
}

func squeeze(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(replaceNBSP(s), " "))
}

func orUnknown(s string) string {
	s = strings.TrimSpace(replaceNBSP(s))
	if s == "" {
		return schedule.UnknownField
	}
	return s
}
