package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/webscheduleplus/webschedule/internal/calendar"
)

func (a *app) inspectCmd() *cobra.Command {
	var format, order string

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "List the events of an exported calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format)
			if err != nil {
				return err
			}
			sortOrder, ok := parseSortOrder(order)
			if !ok {
				return fmt.Errorf("invalid sort: %s (must be 'start', 'summary' or 'location')", order)
			}

			events, err := a.readCalendar(args[0])
			if err != nil {
				return err
			}
			sortEvents(events, sortOrder)
			return WriteInspect(a.stdout, events, outFormat)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&order, "sort", "", "Sort by start, summary or location (default file order)")
	return cmd
}

func (a *app) previewCmd() *cobra.Command {
	var format string
	var limit int

	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Expand the recurrence of each event into dates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format)
			if err != nil {
				return err
			}

			events, err := a.readCalendar(args[0])
			if err != nil {
				return err
			}

			previews := make([]Preview, 0, len(events))
			for _, evt := range events {
				dates, err := calendar.Occurrences(evt, limit)
				if err != nil {
					return fmt.Errorf("%s: %w", evt.Summary, err)
				}
				previews = append(previews, Preview{Summary: evt.Summary, Occurrences: dates})
			}
			return WritePreview(a.stdout, previews, outFormat)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().IntVar(&limit, "limit", calendar.DefaultOccurrenceLimit, "Maximum dates per event")
	return cmd
}

// readCalendar parses path, or stdin for "-".
func (a *app) readCalendar(path string) ([]calendar.ExportedEvent, error) {
	var r io.Reader = a.stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening calendar: %w", err)
		}
		defer f.Close()
		r = f
	}
	return calendar.Inspect(r)
}
