package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/webscheduleplus/webschedule/internal/calendar"
	"github.com/webscheduleplus/webschedule/internal/campus"
	"github.com/webscheduleplus/webschedule/internal/logger"
	"github.com/webscheduleplus/webschedule/internal/professor"
	"github.com/webscheduleplus/webschedule/internal/schedule"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// ExportResult describes one export run.
type ExportResult struct {
	Source      string            `json:"source"`
	Path        string            `json:"path,omitempty"`
	Meetings    int               `json:"meetings"`
	Filter      string            `json:"filter,omitempty"`
	Report      calendar.Report   `json:"report"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Changed     *bool             `json:"changed,omitempty"`
	Changes     []schedule.Change `json:"changes,omitempty"`
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// WriteExport writes an export result in the specified format
func WriteExport(w io.Writer, result *ExportResult, format OutputFormat, verbose bool) error {
	if format == FormatJSON {
		return writeJSON(w, result)
	}

	r := result.Report
	if result.Path != "" {
		fmt.Fprintf(w, "Wrote %s\n", result.Path)
	}
	fmt.Fprintf(w, "%d meetings read, %d calendar events written", result.Meetings, r.Blocks)
	if r.Skipped > 0 || r.Failed > 0 {
		fmt.Fprintf(w, " (%d without days or time, %d unreadable)", r.Skipped, r.Failed)
	}
	fmt.Fprintln(w)
	if result.Filter != "" {
		fmt.Fprintf(w, "Filter: %s\n", result.Filter)
	}
	if result.Changed != nil && !*result.Changed {
		fmt.Fprintln(w, "Schedule unchanged, nothing delivered.")
	}
	for _, c := range result.Changes {
		fmt.Fprintf(w, "  %s\n", c)
	}
	if verbose {
		writeMetrics(w)
	}
	return nil
}

func writeMetrics(w io.Writer) {
	snapshot := logger.GetMetricsSnapshot()
	fmt.Fprintln(w, "\nMetrics:")
	if counters, ok := snapshot["counters"].(map[string]int64); ok {
		names := make([]string, 0, len(counters))
		for name := range counters {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %d\n", name, counters[name])
		}
	}
	if timings, ok := snapshot["timings"].(map[string]map[string]interface{}); ok {
		names := make([]string, 0, len(timings))
		for name := range timings {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %v\n", name, timings[name]["total"])
		}
	}
}

// WriteInspect lists calendar events read back from a file.
func WriteInspect(w io.Writer, events []calendar.ExportedEvent, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, events)
	}
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}
	for _, evt := range events {
		fmt.Fprintf(w, "%s\n", evt.Summary)
		fmt.Fprintf(w, "     When: %s %s-%s (%s)\n",
			evt.Start.Format("Mon 01/02/2006"), evt.Start.Format("15:04"), evt.End.Format("15:04"), evt.TimeZone)
		fmt.Fprintf(w, "     Where: %s\n", evt.Location)
		if evt.RRule != "" {
			fmt.Fprintf(w, "     Repeats: %s\n", evt.RRule)
		}
		fmt.Fprintf(w, "     UID: %s\n", evt.UID)
	}
	fmt.Fprintf(w, "\nTotal: %d events\n", len(events))
	return nil
}

// Preview is the occurrence list of one calendar event.
type Preview struct {
	Summary     string      `json:"summary"`
	Occurrences []time.Time `json:"occurrences"`
}

// WritePreview prints occurrence dates per event.
func WritePreview(w io.Writer, previews []Preview, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, previews)
	}
	for _, p := range previews {
		fmt.Fprintf(w, "%s (%d occurrences)\n", p.Summary, len(p.Occurrences))
		for _, t := range p.Occurrences {
			fmt.Fprintf(w, "  %s\n", t.Format("Mon Jan 02 2006 15:04 MST"))
		}
	}
	return nil
}

// WriteCard prints a professor rating card.
func WriteCard(w io.Writer, card professor.Card, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, card)
	}
	_, err := io.WriteString(w, card.String())
	return err
}

// BuildingResult is a resolved building and the map view around it.
type BuildingResult struct {
	Query  string             `json:"query"`
	Ref    campus.BuildingRef `json:"ref"`
	Marker *campus.Marker     `json:"marker,omitempty"`
	View   *campus.View       `json:"view,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// WriteBuildings prints resolved buildings.
func WriteBuildings(w io.Writer, results []BuildingResult, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, results)
	}
	for _, r := range results {
		fmt.Fprintf(w, "%s -> %s / %s\n", r.Query, r.Ref.Campus, r.Ref.Building)
		if r.Marker != nil {
			fmt.Fprintf(w, "     %s: %s (%.4f, %.4f)\n", r.Marker.Name, r.Marker.Description, r.Marker.Lat, r.Marker.Lng)
		}
		if r.View != nil {
			b := r.View.Bounds
			fmt.Fprintf(w, "     Map: zoom %d, bounds [%.4f, %.4f] - [%.4f, %.4f]\n",
				r.View.Zoom, b.SouthWest[1], b.SouthWest[0], b.NorthEast[1], b.NorthEast[0])
		}
		if r.Error != "" {
			fmt.Fprintf(w, "     %s\n", r.Error)
		}
	}
	return nil
}
