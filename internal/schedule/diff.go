package schedule

import (
	"fmt"
	"sort"
	"strings"
)

// Change kinds reported by Diff.
const (
	ChangeNew      = "new"
	ChangeRemoved  = "removed"
	ChangeTime     = "time"
	ChangeDates    = "dates"
	ChangeLocation = "location"
)

// Change is one difference between two scrapes of the same schedule.
type Change struct {
	Key      string `json:"key"`
	Summary  string `json:"summary"`
	Kind     string `json:"kind"`
	OldValue string `json:"oldValue,omitempty"`
	NewValue string `json:"newValue,omitempty"`
}

func (c Change) String() string {
	switch c.Kind {
	case ChangeNew:
		return fmt.Sprintf("+ %s", c.Key)
	case ChangeRemoved:
		return fmt.Sprintf("- %s", c.Key)
	default:
		return fmt.Sprintf("~ %s %s: %s -> %s", c.Key, c.Kind, c.OldValue, c.NewValue)
	}
}

// StableKey identifies a meeting across scrapes: its summary and days.
// Time, dates and location may change under the same key.
func (m MeetingEvent) StableKey() string {
	return m.Summary() + " " + m.Days
}

// keyed indexes meetings by StableKey. A key seen again gets a "#n" suffix
// in page order so repeated sections stay distinct.
func keyed(events []MeetingEvent) map[string]MeetingEvent {
	out := make(map[string]MeetingEvent, len(events))
	seen := make(map[string]int, len(events))
	for _, evt := range events {
		key := evt.StableKey()
		seen[key]++
		if n := seen[key]; n > 1 {
			key = fmt.Sprintf("%s #%d", key, n)
		}
		out[key] = evt
	}
	return out
}

// Diff compares the meetings of a previous scrape with the current one and
// returns the changes sorted by key. A nil previous reports every current
// meeting as new.
func Diff(previous, current []MeetingEvent) []Change {
	prev := keyed(previous)
	curr := keyed(current)

	var changes []Change
	for key, evt := range curr {
		old, exists := prev[key]
		if !exists {
			changes = append(changes, Change{Key: key, Summary: evt.Summary(), Kind: ChangeNew})
			continue
		}
		changes = append(changes, detectChanges(key, old, evt)...)
	}
	for key, evt := range prev {
		if _, exists := curr[key]; !exists {
			changes = append(changes, Change{Key: key, Summary: evt.Summary(), Kind: ChangeRemoved})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Key != changes[j].Key {
			return changes[i].Key < changes[j].Key
		}
		return changes[i].Kind < changes[j].Kind
	})
	return changes
}

func detectChanges(key string, previous, current MeetingEvent) []Change {
	var changes []Change
	add := func(kind, oldValue, newValue string) {
		changes = append(changes, Change{
			Key:      key,
			Summary:  current.Summary(),
			Kind:     kind,
			OldValue: oldValue,
			NewValue: newValue,
		})
	}

	if previous.Time != current.Time {
		add(ChangeTime, previous.Time, current.Time)
	}

	oldDates := dateRange(previous)
	newDates := dateRange(current)
	if oldDates != newDates {
		add(ChangeDates, oldDates, newDates)
	}

	if !strings.EqualFold(previous.Location, current.Location) {
		add(ChangeLocation, previous.Location, current.Location)
	}
	return changes
}

func dateRange(m MeetingEvent) string {
	return m.StartDate + " -- " + m.EndDate
}
