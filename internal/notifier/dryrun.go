package notifier

import (
	"github.com/webscheduleplus/webschedule/internal/logger"
)

// DryRunMessenger logs what would be sent without sending it
type DryRunMessenger struct{}

// NewDryRunMessenger creates a new dry-run messenger
func NewDryRunMessenger() *DryRunMessenger {
	return &DryRunMessenger{}
}

// Send logs msg at debug level.
func (m *DryRunMessenger) Send(msg Message) error {
	logger.Debug("message not sent (dry run)", logger.Fields{
		"action": msg.Action,
		"path":   msg.Path,
	})
	return nil
}
