package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/webscheduleplus/webschedule/internal/logger"
	"github.com/webscheduleplus/webschedule/internal/notifier"
	"github.com/webscheduleplus/webschedule/internal/schedule"
	"github.com/webscheduleplus/webschedule/internal/storage"
)

func (a *app) watchCmd() *cobra.Command {
	var (
		src    source
		filter schedule.Filter
		spec   string
		format string
		seed   string
		once   bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-export on a schedule whenever the class list changes",
		Long: `Re-reads the schedule page on a cron schedule ("@every 5m", "0 * * * *")
and writes a new calendar only when the extracted meetings differ from the
last delivered ones. Stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outFormat, err := parseFormat(format)
			if err != nil {
				return &ExitCodeError{Code: ExitError, Err: err}
			}
			if err := src.validate(); err != nil {
				return &ExitCodeError{Code: ExitError, Err: err}
			}
			if err := filter.Validate(); err != nil {
				return &ExitCodeError{Code: ExitError, Err: err}
			}
			if spec == "" {
				spec = a.cfg.WatchSchedule
			}
			if _, err := cron.ParseStandard(spec); err != nil {
				return &ExitCodeError{Code: ExitError, Err: fmt.Errorf("invalid schedule %q: %w", spec, err)}
			}

			store, err := storage.New(a.cfg.StateDir)
			if err != nil {
				return &ExitCodeError{Code: ExitError, Err: err}
			}
			w := &watcher{app: a, src: src, filter: filter, seed: seed, store: store, format: outFormat}

			if once {
				return w.runOnce(cmd.Context())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return w.loop(ctx, spec)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&src.input, "input", "i", "", "Saved schedule page to re-read")
	f.StringVar(&src.url, "url", "", "Live schedule page URL")
	f.BoolVar(&src.http, "http", false, "Fetch --url over plain HTTP instead of a browser")
	f.StringVar(&spec, "schedule", "", "Cron schedule (default from config watch_schedule)")
	f.StringVar(&format, "format", "text", "Output format: text or json")
	f.StringVar(&seed, "seed", "", "Derive UIDs from this seed")
	f.BoolVar(&once, "once", false, "Run a single check and exit")
	f.String("output-dir", "", "Directory for the calendar file")
	f.String("filename", "", "Calendar file name")
	f.String("state-dir", "", "Directory for the watch state file")
	addFilterFlags(f, &filter)
	return cmd
}

type watcher struct {
	app    *app
	src    source
	filter schedule.Filter
	seed   string
	store  *storage.Storage
	format OutputFormat

	mu sync.Mutex
}

// check extracts the schedule and delivers it when its fingerprint differs
// from the saved one. A delivery reports what changed since the last one.
func (w *watcher) check(ctx context.Context) (*ExportResult, error) {
	a := w.app
	events, err := a.extract(ctx, w.src)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNoSchedule
	}
	events, err = filterMeetings(events, &w.filter)
	if err != nil {
		return nil, err
	}

	state, err := w.store.LoadState()
	if err != nil {
		return nil, err
	}

	fingerprint := schedule.Fingerprint(events)
	changed := fingerprint != state.Fingerprint
	content, report := a.encoder(w.seed).EncodeReport(events)
	result := &ExportResult{
		Source:      w.src.String(),
		Meetings:    len(events),
		Report:      report,
		Fingerprint: fingerprint,
		Changed:     &changed,
	}
	if !w.filter.IsEmpty() {
		result.Filter = w.filter.String()
	}
	if !changed {
		result.Path = state.Path
		return result, nil
	}

	path, err := a.deliver(content)
	if err != nil {
		return nil, err
	}
	result.Path = path
	result.Changes = schedule.Diff(state.Meetings, events)

	next := &storage.State{Fingerprint: fingerprint, Path: path, Events: len(events), Meetings: events}
	if err := w.store.SaveState(next); err != nil {
		return nil, err
	}
	logger.IncrCounter("watch.deliveries")
	return result, nil
}

// runOnce performs one check and maps its outcome to an exit code.
func (w *watcher) runOnce(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	alerts := notifier.NewConsoleNotifier(w.app.stderr)
	result, err := w.check(ctx)
	switch {
	case errors.Is(err, ErrNoSchedule):
		_ = alerts.Alert(notifier.NoScheduleMessage)
		return &ExitCodeError{Code: ExitNoData}
	case errors.Is(err, ErrNoMatch):
		return &ExitCodeError{Code: ExitNoData, Err: err}
	case err != nil:
		w.app.log.Error("watch check failed", logger.Fields{"source": w.src.String()}, err)
		_ = alerts.Alert(notifier.ExportFailedMessage)
		return &ExitCodeError{Code: ExitError, Err: err}
	}
	return WriteExport(w.app.stdout, result, w.format, false)
}

// loop runs a check immediately and then on every tick of spec until ctx
// is done. Failed checks are logged and retried on the next tick.
func (w *watcher) loop(ctx context.Context, spec string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() { w.tick(ctx) }); err != nil {
		return &ExitCodeError{Code: ExitError, Err: fmt.Errorf("scheduling watch: %w", err)}
	}

	w.app.log.Info("watch started", logger.Fields{"schedule": spec, "source": w.src.String()})
	w.tick(ctx)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	w.app.log.Info("watch stopped", nil)
	return nil
}

func (w *watcher) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := w.runOnce(ctx); err != nil {
		var exitErr *ExitCodeError
		if errors.As(err, &exitErr) && exitErr.Code == ExitNoData {
			w.app.log.Warn("no schedule data on watched page", logger.Fields{"source": w.src.String()})
		}
	}
}
