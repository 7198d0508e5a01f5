package notifier

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// ActionICSExported is sent after a calendar has been delivered.
const ActionICSExported = "icsExported"

// Message is a host notification.
type Message struct {
	Action string `json:"action"`
	Path   string `json:"path,omitempty"`
	Blocks int    `json:"blocks,omitempty"`
}

// Messenger delivers host notifications.
type Messenger interface {
	Send(msg Message) error
}

// JSONMessenger writes each message as one JSON line.
type JSONMessenger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewJSONMessenger creates a messenger writing to w.
func NewJSONMessenger(w io.Writer) *JSONMessenger {
	return &JSONMessenger{w: w}
}

// Send encodes msg followed by a newline.
func (m *JSONMessenger) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := fmt.Fprintln(m.w, string(data)); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}
