// Package professor looks up instructor ratings in the bundled
// Rate My Professor tables for Skyline, CSM and Cañada.
package professor

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/webscheduleplus/webschedule/internal/logger"
)

//go:embed data/*.json
var bundled embed.FS

// Professor is one row of a ratings table.
type Professor struct {
	FirstName             string   `json:"firstName"`
	LastName              string   `json:"lastName"`
	Department            string   `json:"department"`
	AvgRating             float64  `json:"avgRating"`
	AvgDifficulty         float64  `json:"avgDifficulty"`
	NumRatings            int      `json:"numRatings"`
	WouldTakeAgainPercent float64  `json:"wouldTakeAgainPercent"`
	Tags                  []string `json:"tags"`
	ProfileURL            string   `json:"profileUrl"`
	Campus                string   `json:"campus,omitempty"`
}

// FullName returns "First Last".
func (p Professor) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Tables lists the campus tables in lookup order.
var Tables = []struct {
	Campus string
	File   string
}{
	{"skyline", "all_professors_Skyline.json"},
	{"csm", "all_professors_CSM.json"},
	{"canada", "all_professors_Canada.json"},
}

// Directory is the merged, read-only set of professors from every table.
type Directory struct {
	professors []Professor
	index      map[string]int
}

// Load reads the three campus tables concurrently. With an empty dataDir the
// bundled tables are used. A table that is missing or not valid JSON
// contributes no rows.
func Load(ctx context.Context, dataDir string) (*Directory, error) {
	var fsys fs.FS
	if dataDir == "" {
		sub, err := fs.Sub(bundled, "data")
		if err != nil {
			return nil, fmt.Errorf("opening bundled tables: %w", err)
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dataDir)
	}

	results := make([][]Professor, len(Tables))
	g, ctx := errgroup.WithContext(ctx)
	for i, table := range Tables {
		i, table := i, table
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, err := loadTable(fsys, table.File)
			if err != nil {
				logger.Warnf("professor table unavailable", logger.Fields{"file": table.File}, err)
				return nil
			}
			for j := range rows {
				rows[j].Campus = table.Campus
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Professor
	for _, rows := range results {
		all = append(all, rows...)
	}
	logger.SetGauge("professor.rows", float64(len(all)))
	return NewDirectory(all), nil
}

func loadTable(fsys fs.FS, name string) ([]Professor, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	var rows []Professor
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return rows, nil
}

// NewDirectory indexes professors by normalized first and last name. When
// two rows share a name the earlier one wins.
func NewDirectory(professors []Professor) *Directory {
	d := &Directory{
		professors: professors,
		index:      make(map[string]int, len(professors)),
	}
	for i, p := range professors {
		key := nameKey(p.FirstName, p.LastName)
		if _, ok := d.index[key]; !ok {
			d.index[key] = i
		}
	}
	return d
}

// Len returns the number of rows.
func (d *Directory) Len() int {
	return len(d.professors)
}

// Lookup finds the first professor whose first and last name match the
// normalized fullName, ignoring case.
func (d *Directory) Lookup(fullName string) (Professor, bool) {
	first, last, ok := NormalizeName(fullName)
	if !ok {
		return Professor{}, false
	}
	i, found := d.index[nameKey(first, last)]
	if !found {
		return Professor{}, false
	}
	return d.professors[i], true
}

var (
	nameToken   = regexp.MustCompile(`^[A-Za-z.'-]+$`)
	punctuation = strings.NewReplacer(".", "", "'", "", "-", "")
)

var honorifics = map[string]bool{
	"dr": true, "prof": true, "mr": true, "mrs": true, "ms": true, "jr": true, "sr": true,
}

// NormalizeName reduces a displayed faculty name to its first and last
// alphabetic tokens. "Dr. Daniel J. O'Connor" becomes ("Daniel", "OConnor").
func NormalizeName(full string) (first, last string, ok bool) {
	var tokens []string
	for _, tok := range strings.Fields(full) {
		if !nameToken.MatchString(tok) {
			continue
		}
		clean := punctuation.Replace(tok)
		if clean == "" || honorifics[strings.ToLower(clean)] {
			continue
		}
		tokens = append(tokens, clean)
	}
	if len(tokens) == 0 {
		return "", "", false
	}
	return tokens[0], tokens[len(tokens)-1], true
}

func nameKey(first, last string) string {
	return strings.ToLower(punctuation.Replace(first)) + "|" + strings.ToLower(punctuation.Replace(last))
}
