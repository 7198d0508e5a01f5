package calendar

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// DefaultOccurrenceLimit caps Occurrences when no limit is given.
const DefaultOccurrenceLimit = 20

// Occurrences expands an exported event's RRULE into concrete start times,
// beginning with its DTSTART and covering at most one year.
func Occurrences(evt ExportedEvent, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = DefaultOccurrenceLimit
	}
	if evt.RRule == "" {
		return []time.Time{evt.Start}, nil
	}

	r, err := rrule.StrToRRule(evt.RRule)
	if err != nil {
		return nil, fmt.Errorf("parsing RRULE %q: %w", evt.RRule, err)
	}
	r.DTStart(evt.Start)

	all := r.Between(evt.Start, evt.Start.AddDate(1, 0, 0), true)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
