package professor

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// DataUpdated is the date the bundled tables were scraped.
const DataUpdated = "11/03/2025"

// Card is the rating summary shown for a faculty name.
type Card struct {
	Query               string    `json:"query"`
	Found               bool      `json:"found"`
	Professor           Professor `json:"professor"`
	RatingEmoji         string    `json:"ratingEmoji,omitempty"`
	DifficultyEmoji     string    `json:"difficultyEmoji,omitempty"`
	WouldTakeAgainColor string    `json:"wouldTakeAgainColor,omitempty"`
	SearchURL           string    `json:"searchUrl,omitempty"`
	DataUpdated         string    `json:"dataUpdated,omitempty"`
}

// RatingEmoji grades an average rating out of 5.
func RatingEmoji(avg float64) string {
	switch {
	case avg >= 3.0:
		return "😁"
	case avg >= 2.0:
		return "😅"
	default:
		return "😰"
	}
}

// DifficultyEmoji grades an average difficulty out of 5.
func DifficultyEmoji(avg float64) string {
	if avg >= 3.0 {
		return "🤕"
	}
	return "😌"
}

// WouldTakeAgainColor is green at 50% and above, red below.
func WouldTakeAgainColor(percent float64) string {
	if percent >= 50 {
		return "green"
	}
	return "red"
}

// SearchURL returns a web search for the name on Rate My Professor.
func SearchURL(fullName string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(fullName+" rate my professor")
}

// Summarize builds the card for p.
func Summarize(query string, p Professor) Card {
	return Card{
		Query:               query,
		Found:               true,
		Professor:           p,
		RatingEmoji:         RatingEmoji(p.AvgRating),
		DifficultyEmoji:     DifficultyEmoji(p.AvgDifficulty),
		WouldTakeAgainColor: WouldTakeAgainColor(p.WouldTakeAgainPercent),
		DataUpdated:         DataUpdated,
	}
}

// NotFound builds the card for a name missing from every table.
func NotFound(query string) Card {
	return Card{
		Query:     query,
		SearchURL: SearchURL(query),
	}
}

// Card looks up fullName and returns its card either way.
func (d *Directory) Card(fullName string) Card {
	fullName = strings.TrimSpace(fullName)
	if p, ok := d.Lookup(fullName); ok {
		return Summarize(fullName, p)
	}
	return NotFound(fullName)
}

// String renders the card as plain text lines.
func (c Card) String() string {
	var b strings.Builder
	if !c.Found {
		b.WriteString("🧐 This professor was not found in existing data for this school.\n")
		fmt.Fprintf(&b, "Search for %s on Rate My Professor: %s\n", c.Query, c.SearchURL)
		return b.String()
	}

	p := c.Professor
	fmt.Fprintf(&b, "%s (%s, %s)\n", p.FullName(), p.Department, p.Campus)
	fmt.Fprintf(&b, "%s %.1f / 5 (%d ratings)\n", c.RatingEmoji, p.AvgRating, p.NumRatings)
	fmt.Fprintf(&b, "%s Difficulty: %.1f\n", c.DifficultyEmoji, p.AvgDifficulty)
	fmt.Fprintf(&b, "👍 Would take again: %.0f%% (%s)\n", p.WouldTakeAgainPercent, c.WouldTakeAgainColor)
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(p.Tags, ", "))
	} else {
		b.WriteString("No tags\n")
	}
	if p.ProfileURL != "" {
		fmt.Fprintf(&b, "🔗 %s\n", p.ProfileURL)
	}
	fmt.Fprintf(&b, "Data Last Updated: %s\n", c.DataUpdated)
	return b.String()
}

// Tracker remembers the last faculty name shown so a repeated name is not
// rendered twice in a row.
type Tracker struct {
	mu   sync.Mutex
	last string
}

// Observe records name and reports whether it differs from the previous one.
func (t *Tracker) Observe(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if name == t.last {
		return false
	}
	t.last = name
	return true
}
