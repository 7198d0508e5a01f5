package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/webscheduleplus/webschedule/internal/capture"
	"github.com/webscheduleplus/webschedule/internal/config"
	"github.com/webscheduleplus/webschedule/internal/logger"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitNoData  = 2
)

// ExitCodeError carries a process exit code out of a command. A nil Err means
// the user has already been told what happened.
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

// app holds what every command shares: I/O streams, the resolved config and
// the hooks tests replace.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	now    func() time.Time
	render func(context.Context, capture.Options) (string, error)

	configPath string
	logLevel   string
	verbose    bool

	cfg *config.Config
	log *logger.Logger
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
		render: capture.Render,
	}
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newApp(os.Stdin, os.Stdout, os.Stderr).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webschedule",
		Short: "Export a WebSchedule class list to an iCalendar file",
		Long: `A CLI tool that reads a saved or live WebSchedule list view,
extracts every course meeting and writes a weekly-recurring .ics calendar.
It can also read calendars back, preview occurrences, look up instructor
ratings and locate campus buildings.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (default "+config.DefaultPath()+")")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.BoolVar(&a.verbose, "verbose", false, "Enable verbose logging and print metrics")

	cmd.AddCommand(
		a.exportCmd(),
		a.inspectCmd(),
		a.previewCmd(),
		a.professorCmd(),
		a.buildingCmd(),
		a.watchCmd(),
		a.configCmd(),
	)
	return cmd
}

// setup loads configuration and installs the logger before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config" {
		a.cfg = config.Default()
	} else {
		cfg, err := config.Load(a.configPath, cmd.Flags())
		if err != nil {
			return &ExitCodeError{Code: ExitError, Err: err}
		}
		a.cfg = cfg
	}

	level := a.cfg.Level()
	if a.logLevel != "" {
		parsed, err := logger.ParseLevel(a.logLevel)
		if err != nil {
			return &ExitCodeError{Code: ExitError, Err: err}
		}
		level = parsed
	}
	if a.verbose {
		level = logger.LevelDebug
	}
	a.log = logger.New(level, a.stderr)
	logger.SetDefault(a.log)
	return nil
}

// Run executes the CLI with args and returns the process exit code.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return newApp(stdin, stdout, stderr).run(args)
}

func (a *app) run(args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintf(a.stderr, "Error: %v\n", exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	return ExitError
}

// Execute runs the CLI
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
