// Package campus holds the building and parking markers of the three
// district campuses and resolves portal building text to a marker.
package campus

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/webscheduleplus/webschedule/internal/logger"
)

//go:embed data/locations.json
var locationsJSON []byte

const (
	Skyline = "skyline"
	CSM     = "csm"
	Canada  = "canada"

	// DefaultPadding is the half-width, in degrees, of the map bounds box.
	DefaultPadding = 0.01
	// DefaultZoom is the zoom level used when flying to a campus.
	DefaultZoom = 17
)

var (
	ErrUnknownCampus   = errors.New("unknown campus")
	ErrUnknownBuilding = errors.New("building not found")
)

// Icon kinds for markers.
const (
	IconBuilding = "building"
	IconParking  = "parking"
)

// LngLat is a [longitude, latitude] pair.
type LngLat [2]float64

// Marker is a labelled point on a campus map.
type Marker struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Lng         float64 `json:"lng"`
	Lat         float64 `json:"lat"`
	Icon        string  `json:"icon,omitempty"`
}

// Dataset is one campus: its map center and markers.
type Dataset struct {
	Key            string   `json:"-"`
	Name           string   `json:"name"`
	Center         LngLat   `json:"center"`
	Buildings      []Marker `json:"buildings"`
	StudentParking []Marker `json:"studentParking"`
}

// Markers returns buildings followed by parking lots, each tagged with its
// icon kind.
func (d Dataset) Markers() []Marker {
	out := make([]Marker, 0, len(d.Buildings)+len(d.StudentParking))
	for _, m := range d.Buildings {
		m.Icon = IconBuilding
		out = append(out, m)
	}
	for _, m := range d.StudentParking {
		m.Icon = IconParking
		out = append(out, m)
	}
	return out
}

// Bounds is the south-west and north-east corners of a map box.
type Bounds struct {
	SouthWest LngLat `json:"southWest"`
	NorthEast LngLat `json:"northEast"`
}

// BoundsAround returns the box center ± padding on both axes.
func BoundsAround(center LngLat, padding float64) Bounds {
	return Bounds{
		SouthWest: LngLat{center[0] - padding, center[1] - padding},
		NorthEast: LngLat{center[0] + padding, center[1] + padding},
	}
}

// Contains reports whether p lies inside b, edges included.
func (b Bounds) Contains(p LngLat) bool {
	return p[0] >= b.SouthWest[0] && p[0] <= b.NorthEast[0] &&
		p[1] >= b.SouthWest[1] && p[1] <= b.NorthEast[1]
}

var (
	loadOnce sync.Once
	datasets map[string]Dataset
	loadErr  error
)

// Datasets returns the bundled campus datasets keyed by campus key.
func Datasets() (map[string]Dataset, error) {
	loadOnce.Do(func() {
		datasets, loadErr = ParseDatasets(locationsJSON)
	})
	return datasets, loadErr
}

// ParseDatasets decodes a locations document.
func ParseDatasets(data []byte) (map[string]Dataset, error) {
	var raw map[string]Dataset
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing campus locations: %w", err)
	}
	for key, ds := range raw {
		ds.Key = key
		raw[key] = ds
	}
	return raw, nil
}

// Keys returns the campus keys in sorted order.
func Keys(sets map[string]Dataset) []string {
	keys := make([]string, 0, len(sets))
	for k := range sets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// View is what a map shows after a campus switch.
type View struct {
	Campus  string   `json:"campus"`
	Center  LngLat   `json:"center"`
	Zoom    int      `json:"zoom"`
	Bounds  Bounds   `json:"bounds"`
	Markers []Marker `json:"markers"`
}

// Controller tracks the selected campus. The zero value is not usable; use
// NewController.
type Controller struct {
	mu       sync.Mutex
	datasets map[string]Dataset
	current  string
	padding  float64
}

// NewController starts on the Skyline campus.
func NewController(sets map[string]Dataset) (*Controller, error) {
	if _, ok := sets[Skyline]; !ok {
		return nil, fmt.Errorf("%w: %s dataset missing", ErrUnknownCampus, Skyline)
	}
	return &Controller{datasets: sets, current: Skyline, padding: DefaultPadding}, nil
}

// SelectCampus switches to the campus with the given key.
func (c *Controller) SelectCampus(key string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.datasets[key]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCampus, key)
	}
	if key != c.current {
		logger.Debug("campus selected", logger.Fields{"campus": key, "previous": c.current})
	}
	c.current = key
	return nil
}

// Current returns the selected campus key.
func (c *Controller) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// View describes the map for the selected campus.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	ds := c.datasets[c.current]
	return View{
		Campus:  c.current,
		Center:  ds.Center,
		Zoom:    DefaultZoom,
		Bounds:  BoundsAround(ds.Center, c.padding),
		Markers: ds.Markers(),
	}
}

// FlyToBuilding selects campusKey and returns the building marker named
// name. A marker matches when its name equals name, or starts with name
// followed by a space, ignoring case.
func (c *Controller) FlyToBuilding(campusKey, name string) (Marker, error) {
	if err := c.SelectCampus(campusKey); err != nil {
		return Marker{}, err
	}

	c.mu.Lock()
	ds := c.datasets[c.current]
	c.mu.Unlock()

	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return Marker{}, fmt.Errorf("%w: empty name", ErrUnknownBuilding)
	}
	for _, m := range ds.Markers() {
		got := strings.ToLower(m.Name)
		if got == want || strings.HasPrefix(got, want+" ") {
			return m, nil
		}
	}
	return Marker{}, fmt.Errorf("%w: %q on %s", ErrUnknownBuilding, name, ds.Key)
}
