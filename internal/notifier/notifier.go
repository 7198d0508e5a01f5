package notifier

import (
	"fmt"
	"io"
	"os"
)

// User-facing alert texts.
const (
	NoScheduleMessage   = "No schedule data found. Please make sure you're on the schedule list view page."
	ExportFailedMessage = "Error generating calendar file. Please check the console for details."
)

// Notifier defines the interface for showing an alert to the user
type Notifier interface {
	Alert(msg string) error
}

// ConsoleNotifier writes alerts as single lines.
type ConsoleNotifier struct {
	w io.Writer
}

// NewConsoleNotifier writes to w, or to stderr when w is nil.
func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleNotifier{w: w}
}

// Alert prints msg.
func (n *ConsoleNotifier) Alert(msg string) error {
	_, err := fmt.Fprintln(n.w, msg)
	return err
}
