package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/webscheduleplus/webschedule/internal/calendar"
	"github.com/webscheduleplus/webschedule/internal/capture"
	"github.com/webscheduleplus/webschedule/internal/logger"
	"github.com/webscheduleplus/webschedule/internal/notifier"
	"github.com/webscheduleplus/webschedule/internal/schedule"
	"github.com/webscheduleplus/webschedule/internal/scraper"
	"github.com/webscheduleplus/webschedule/internal/storage"
)

var (
	// ErrNoSchedule is returned when a page has no schedule entries.
	ErrNoSchedule = errors.New("no schedule data found")
	// ErrNoMatch is returned when a filter drops every meeting.
	ErrNoMatch = errors.New("no meetings match the filter")
)

// source says where the schedule page comes from.
type source struct {
	input string // file path, or "-" for stdin
	url   string
	http  bool // fetch url without a browser
}

func (s source) validate() error {
	switch {
	case s.input == "" && s.url == "":
		return errors.New("one of --input or --url is required")
	case s.input != "" && s.url != "":
		return errors.New("--input and --url are mutually exclusive")
	}
	return nil
}

func (s source) String() string {
	if s.url != "" {
		return s.url
	}
	if s.input == "-" {
		return "stdin"
	}
	return s.input
}

type exportOptions struct {
	src         source
	filter      schedule.Filter
	format      string
	seed        string
	toStdout    bool
	emitMessage bool
}

func (a *app) exportCmd() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Extract the schedule and write an .ics calendar",
		Long: `Reads a WebSchedule list view page, extracts every meeting and writes
one weekly-recurring event per meeting day.

Exit codes: 0 on success, 1 on error, 2 when the page holds no schedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runExport(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.src.input, "input", "i", "", "Saved schedule page, or - for stdin")
	f.StringVar(&opts.src.url, "url", "", "Live schedule page URL (rendered in headless Chrome)")
	f.BoolVar(&opts.src.http, "http", false, "Fetch --url over plain HTTP instead of a browser")
	f.String("output-dir", "", "Directory for the calendar file")
	f.String("filename", "", "Calendar file name")
	f.String("line-ending", "", "Line ending: lf or crlf")
	f.String("capture-timeout", "", "Browser render timeout, e.g. 45s")
	f.StringVar(&opts.format, "format", "text", "Output format: text or json")
	f.StringVar(&opts.seed, "seed", "", "Derive UIDs from this seed so re-exports are identical")
	f.BoolVar(&opts.toStdout, "stdout", false, "Write the calendar to stdout instead of a file")
	f.BoolVar(&opts.emitMessage, "emit-message", false, "Print an icsExported JSON message after delivery")
	addFilterFlags(f, &opts.filter)
	return cmd
}

func addFilterFlags(f *pflag.FlagSet, filter *schedule.Filter) {
	f.StringSliceVar(&filter.Courses, "course", nil, "Keep courses whose name contains this text (repeatable)")
	f.StringSliceVar(&filter.Types, "type", nil, "Keep meetings of this type, e.g. Lab (repeatable)")
	f.StringVar(&filter.Days, "days", "", "Keep meetings held on any of these day letters, e.g. MW")
	f.StringSliceVar(&filter.Locations, "location", nil, "Keep meetings whose location contains this text (repeatable)")
}

// filterMeetings applies f and fails with ErrNoMatch when nothing is left.
func filterMeetings(events []schedule.MeetingEvent, f *schedule.Filter) ([]schedule.MeetingEvent, error) {
	if f.IsEmpty() {
		return events, nil
	}
	kept := f.Apply(events)
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w (%s)", ErrNoMatch, f)
	}
	logger.Debug("meetings filtered", logger.Fields{
		"kept":    len(kept),
		"dropped": len(events) - len(kept),
		"filter":  f.String(),
	})
	return kept, nil
}

func (a *app) runExport(ctx context.Context, opts exportOptions) error {
	format, err := parseFormat(opts.format)
	if err != nil {
		return &ExitCodeError{Code: ExitError, Err: err}
	}
	if err := opts.src.validate(); err != nil {
		return &ExitCodeError{Code: ExitError, Err: err}
	}
	if err := opts.filter.Validate(); err != nil {
		return &ExitCodeError{Code: ExitError, Err: err}
	}

	alerts := notifier.NewConsoleNotifier(a.stderr)
	start := time.Now()

	events, err := a.extract(ctx, opts.src)
	if err != nil {
		a.log.Error("export failed", logger.Fields{"source": opts.src.String()}, err)
		_ = alerts.Alert(notifier.ExportFailedMessage)
		return &ExitCodeError{Code: ExitError, Err: err}
	}
	if len(events) == 0 {
		_ = alerts.Alert(notifier.NoScheduleMessage)
		return &ExitCodeError{Code: ExitNoData}
	}
	events, err = filterMeetings(events, &opts.filter)
	if err != nil {
		return &ExitCodeError{Code: ExitNoData, Err: err}
	}

	content, report := a.encoder(opts.seed).EncodeReport(events)

	result := &ExportResult{
		Source:   opts.src.String(),
		Meetings: len(events),
		Report:   report,
	}
	if !opts.filter.IsEmpty() {
		result.Filter = opts.filter.String()
	}

	if opts.toStdout {
		if _, err := io.WriteString(a.stdout, content); err != nil {
			return &ExitCodeError{Code: ExitError, Err: err}
		}
		logger.RecordTiming("export.duration", time.Since(start))
		return nil
	}

	path, err := a.deliver(content)
	if err != nil {
		a.log.Error("export failed", logger.Fields{"source": opts.src.String()}, err)
		_ = alerts.Alert(notifier.ExportFailedMessage)
		return &ExitCodeError{Code: ExitError, Err: err}
	}
	result.Path = path
	result.Fingerprint = schedule.Fingerprint(events)

	var messenger notifier.Messenger = notifier.NewDryRunMessenger()
	if opts.emitMessage {
		messenger = notifier.NewJSONMessenger(a.stdout)
	}
	if err := messenger.Send(notifier.Message{Action: notifier.ActionICSExported, Path: path, Blocks: report.Blocks}); err != nil {
		a.log.Warnf("host message not delivered", nil, err)
	}

	logger.RecordTiming("export.duration", time.Since(start))
	if err := WriteExport(a.stdout, result, format, a.verbose); err != nil {
		return &ExitCodeError{Code: ExitError, Err: fmt.Errorf("writing output: %w", err)}
	}
	return nil
}

// extract loads the schedule page from src and returns its meetings.
func (a *app) extract(ctx context.Context, src source) ([]schedule.MeetingEvent, error) {
	sc := scraper.New()

	switch {
	case src.url != "" && src.http:
		return sc.Fetch(src.url)
	case src.url != "":
		html, err := a.render(ctx, capture.Options{URL: src.url, Timeout: a.cfg.CaptureTimeout})
		if err != nil {
			return nil, err
		}
		return sc.ExtractReader(strings.NewReader(html))
	case src.input == "-":
		return sc.ExtractReader(a.stdin)
	default:
		return sc.ExtractFile(src.input)
	}
}

func (a *app) encoder(seed string) *calendar.Encoder {
	opts := append(a.cfg.EncoderOptions(),
		calendar.WithClock(a.now),
		calendar.WithLogger(a.log),
	)
	if seed != "" {
		opts = append(opts, calendar.WithUIDs(calendar.SeededUIDs(seed)))
	}
	return calendar.NewEncoder(opts...)
}

func (a *app) deliver(content string) (string, error) {
	d, err := storage.NewFileDeliverer(a.cfg.OutputDir)
	if err != nil {
		return "", err
	}
	return d.Deliver(a.cfg.Filename, content)
}
