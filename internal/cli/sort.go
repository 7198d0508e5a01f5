package cli

import (
	"sort"
	"strings"

	"github.com/webscheduleplus/webschedule/internal/calendar"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortNone       SortOrder = ""
	SortByStart    SortOrder = "start"
	SortBySummary  SortOrder = "summary"
	SortByLocation SortOrder = "location"
)

func parseSortOrder(s string) (SortOrder, bool) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case SortNone, SortByStart, SortBySummary, SortByLocation:
		return order, true
	}
	return "", false
}

// sortEvents sorts calendar events in place. SortNone keeps file order.
func sortEvents(events []calendar.ExportedEvent, order SortOrder) {
	switch order {
	case SortByStart:
		sort.SliceStable(events, func(i, j int) bool {
			return compareByStart(events[i], events[j])
		})
	case SortBySummary:
		sort.SliceStable(events, func(i, j int) bool {
			si, sj := strings.ToLower(events[i].Summary), strings.ToLower(events[j].Summary)
			if si != sj {
				return si < sj
			}
			// If summaries are equal, sort by start
			return compareByStart(events[i], events[j])
		})
	case SortByLocation:
		sort.SliceStable(events, func(i, j int) bool {
			if events[i].Location != events[j].Location {
				return events[i].Location < events[j].Location
			}
			return compareByStart(events[i], events[j])
		})
	}
}

// compareByStart orders by weekday and clock time of the first
// occurrence, then by date, so a week reads Monday to Sunday.
func compareByStart(i, j calendar.ExportedEvent) bool {
	wi, wj := mondayFirst(int(i.Start.Weekday())), mondayFirst(int(j.Start.Weekday()))
	if wi != wj {
		return wi < wj
	}
	ci, cj := i.Start.Hour()*60+i.Start.Minute(), j.Start.Hour()*60+j.Start.Minute()
	if ci != cj {
		return ci < cj
	}
	return i.Start.Before(j.Start)
}

func mondayFirst(weekday int) int {
	return (weekday + 6) % 7
}
