package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/webscheduleplus/webschedule/internal/schedule"
)

// DefaultFilename is the name of the exported calendar file.
const DefaultFilename = "schedule.ics"

// Deliverer hands finished calendar text to the user.
type Deliverer interface {
	Deliver(filename, content string) (string, error)
}

// FileDeliverer writes calendars into a directory.
type FileDeliverer struct {
	dir string
}

// NewFileDeliverer creates the output directory if needed.
func NewFileDeliverer(dir string) (*FileDeliverer, error) {
	dir, err := expandHome(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &FileDeliverer{dir: dir}, nil
}

// Dir returns the resolved output directory.
func (d *FileDeliverer) Dir() string {
	return d.dir
}

// Deliver writes content to filename inside the output directory and
// returns the full path. Only the base name of filename is used. The file
// is replaced atomically so a failed write leaves no partial calendar.
func (d *FileDeliverer) Deliver(filename, content string) (string, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = DefaultFilename
	}
	path := filepath.Join(d.dir, name)

	if err := writeAtomic(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing calendar: %w", err)
	}
	return path, nil
}

// State is what the watch loop remembers between runs.
type State struct {
	Fingerprint string `json:"fingerprint"`
	Path        string `json:"path,omitempty"`
	Events      int    `json:"events"`
	UpdatedAt   string `json:"updated_at,omitempty"`

	// Meetings is the last delivered scrape, kept for change reports.
	Meetings []schedule.MeetingEvent `json:"meetings,omitempty"`
}

// Storage handles persistence of watch state.
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	dataDir, err := expandHome(dataDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{dataDir: dataDir}, nil
}

func (s *Storage) statePath() string {
	return filepath.Join(s.dataDir, "state.json")
}

// LoadState reads the saved state. A missing file yields an empty State.
func (s *Storage) LoadState() (*State, error) {
	data, err := os.ReadFile(s.statePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	return &state, nil
}

// SaveState stamps and writes state.
func (s *Storage) SaveState(state *State) error {
	state.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	if err := writeAtomic(s.statePath(), data, 0644); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	return nil
}

func expandHome(dir string) (string, error) {
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return dir, nil
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
