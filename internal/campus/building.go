package campus

import (
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// SelectedMeetingCells matches the highlighted meeting-time cells of the
// portal's weekly grid.
const SelectedMeetingCells = "td.selected[data-property='meetingTime']"

// BuildingRef is a campus key plus a normalized building name.
type BuildingRef struct {
	Campus   string `json:"campusKey"`
	Building string `json:"buildingName"`
}

var (
	campusPrefix    = regexp.MustCompile(`(?i)^(SKY|CSM|CA[ÑN]ADA?)\s+`)
	trailingDash    = regexp.MustCompile(`\s*-\s*$`)
	bldgAbbrev      = regexp.MustCompile(`(?i)\b(bldg|bld)\.?\s*`)
	leadingDigits   = regexp.MustCompile(`^\d+`)
	titleBuilding   = regexp.MustCompile(`(?i)Building:\s*([\s\S]*?)(?:\s*-\s*)?(?:\s+Room:|$)`)
	tooltipBuilding = regexp.MustCompile(`(?i)Building:\s*([^\n]+)`)
)

// ParseBuilding reads portal building text such as "CSM Bldg 10 -" into a
// campus key and a marker-style name ("Building 10"). Text without a campus
// prefix belongs to Skyline.
func ParseBuilding(s string) (BuildingRef, bool) {
	text := strings.TrimSpace(s)
	if text == "" {
		return BuildingRef{}, false
	}

	ref := BuildingRef{Campus: Skyline, Building: text}
	if m := campusPrefix.FindStringSubmatch(text); m != nil {
		switch strings.ToUpper(m[1]) {
		case "SKY":
			ref.Campus = Skyline
		case "CSM":
			ref.Campus = CSM
		default:
			ref.Campus = Canada
		}
		ref.Building = text[len(m[0]):]
	}

	name := strings.TrimSpace(trailingDash.ReplaceAllString(ref.Building, ""))
	if loc := bldgAbbrev.FindStringIndex(name); loc != nil {
		name = name[:loc[0]] + "Building " + name[loc[1]:]
	}
	name = strings.TrimSpace(name)
	if leadingDigits.MatchString(name) {
		name = "Building " + name
	}

	ref.Building = strings.TrimSpace(name)
	if ref.Building == "" {
		return BuildingRef{}, false
	}
	return ref, true
}

// ExtractBuildingFromCell returns the raw building text of a meeting cell,
// taken from its title attribute ("Building: SKY 7 - Room: 7-101") or else
// from a ".tooltip-row" that mentions "Building:".
func ExtractBuildingFromCell(cell *goquery.Selection) (string, bool) {
	if title, ok := cell.Attr("title"); ok && title != "" {
		if m := titleBuilding.FindStringSubmatch(title); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}

	var found string
	cell.Find(".tooltip-row").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		text := row.Text()
		if !strings.Contains(text, "Building:") {
			return true
		}
		m := tooltipBuilding.FindStringSubmatch(text)
		if m == nil {
			return true
		}
		if span := row.Find("span").First(); span.Length() > 0 && !strings.Contains(span.Text(), "Building:") {
			found = strings.TrimSpace(span.Text())
		} else {
			found = strings.TrimSpace(m[1])
		}
		return false
	})
	return found, found != ""
}

// Dedup is the set of meeting cells already resolved, keyed by data-id.
type Dedup struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// Seen reports whether id has been added.
func (d *Dedup) Seen(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[id]
	return ok
}

// Add records id.
func (d *Dedup) Add(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = make(map[string]struct{})
	}
	d.seen[id] = struct{}{}
}

// Clear forgets every id.
func (d *Dedup) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = nil
}

// Len returns the number of recorded ids.
func (d *Dedup) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// ScanSelected resolves the buildings of newly selected meeting cells in
// doc. Cells already in dedup are skipped and an id is recorded only once
// its building parses. When no cell is selected dedup is cleared.
func ScanSelected(doc *goquery.Document, dedup *Dedup) []BuildingRef {
	cells := doc.Find(SelectedMeetingCells)
	if cells.Length() == 0 {
		dedup.Clear()
		return nil
	}

	var refs []BuildingRef
	cells.Each(func(_ int, cell *goquery.Selection) {
		id, _ := cell.Attr("data-id")
		if dedup.Seen(id) {
			return
		}
		raw, ok := ExtractBuildingFromCell(cell)
		if !ok {
			return
		}
		ref, ok := ParseBuilding(raw)
		if !ok {
			return
		}
		dedup.Add(id)
		refs = append(refs, ref)
	})
	return refs
}
