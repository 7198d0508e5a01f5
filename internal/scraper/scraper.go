package scraper

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/webscheduleplus/webschedule/internal/logger"
	"github.com/webscheduleplus/webschedule/internal/schedule"
)

const (
	// ScheduleContainer selects the rendered schedule list view.
	ScheduleContainer = "#scheduleListView"

	UserAgent = "webschedule/1.0 (github.com/webscheduleplus/webschedule)"
	Timeout   = 30 * time.Second
)

// Scraper reads schedule list views from files, readers or plain HTTP pages.
type Scraper struct {
	client *http.Client
}

// New creates a new Scraper instance
func New() *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
	}
}

// Fetch downloads a page that already contains the rendered schedule (for
// example a saved copy served over HTTP) and extracts its meetings.
func (s *Scraper) Fetch(url string) ([]schedule.MeetingEvent, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return s.ExtractReader(resp.Body)
}

// ExtractFile extracts meetings from a saved HTML page.
func (s *Scraper) ExtractFile(path string) ([]schedule.MeetingEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer f.Close()

	return s.ExtractReader(f)
}

// ExtractReader parses HTML from r and extracts its meetings. A page without
// a schedule container yields an empty slice and no error.
func (s *Scraper) ExtractReader(r io.Reader) ([]schedule.MeetingEvent, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return s.ExtractDocument(doc), nil
}

// ExtractDocument extracts meetings from an already parsed document.
func (s *Scraper) ExtractDocument(doc *goquery.Document) []schedule.MeetingEvent {
	wrappers := FromDocument(doc)
	if wrappers == nil {
		logger.Debug("schedule container not found", logger.Fields{"selector": ScheduleContainer})
		return []schedule.MeetingEvent{}
	}

	events := Extract(wrappers)

	logger.SetGauge("scraper.courses", float64(len(wrappers)))
	logger.AddCounter("scraper.meetings_extracted", int64(len(events)))
	logger.Debug("meetings extracted", logger.Fields{
		"courses":  len(wrappers),
		"meetings": len(events),
	})

	return events
}

// FromDocument adapts the portal's list view markup. It returns nil when the
// document has no schedule container.
func FromDocument(doc *goquery.Document) []CourseWrapper {
	container := doc.Find(ScheduleContainer).First()
	if container.Length() == 0 {
		return nil
	}

	wrappers := make([]CourseWrapper, 0)
	container.Find(".listViewWrapper").Each(func(i int, sel *goquery.Selection) {
		wrappers = append(wrappers, htmlWrapper{sel: sel})
	})
	return wrappers
}

type htmlWrapper struct {
	sel *goquery.Selection
}

func (w htmlWrapper) Title() (string, bool) {
	title := w.sel.Find(".list-view-course-title a").First()
	if title.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(title.Text()), true
}

func (w htmlWrapper) Meetings() []MeetingBlock {
	blocks := make([]MeetingBlock, 0)
	w.sel.Find(".listViewMeetingInformation").Each(func(i int, sel *goquery.Selection) {
		blocks = append(blocks, htmlMeeting{sel: sel})
	})
	return blocks
}

type htmlMeeting struct {
	sel *goquery.Selection
}

func (m htmlMeeting) DateRanges() []string {
	ranges := make([]string, 0)
	m.sel.Find("span.meetingTimes").Each(func(i int, span *goquery.Selection) {
		ranges = append(ranges, strings.TrimSpace(span.Text()))
	})
	return ranges
}

func (m htmlMeeting) DayCodes() [][]string {
	pickers := make([][]string, 0)
	m.sel.Find(".ui-pillbox").Each(func(i int, pillbox *goquery.Selection) {
		selected := make([]string, 0)
		pillbox.Find("li.ui-state-highlight").Each(func(j int, li *goquery.Selection) {
			abbr, _ := li.Attr("data-abbreviation")
			selected = append(selected, abbr)
		})
		pickers = append(pickers, selected)
	})
	return pickers
}

func (m htmlMeeting) TypeLabels() []string {
	labels := make([]string, 0)
	m.sel.Find("span.bold").Each(func(i int, span *goquery.Selection) {
		if strings.Contains(span.Text(), "Type:") {
			labels = append(labels, siblingText(span))
		}
	})
	return labels
}

func (m htmlMeeting) TimeTexts() []string {
	texts := make([]string, 0)
	m.sel.Find("span").Each(func(i int, span *goquery.Selection) {
		text := span.Text()
		if clockPattern.MatchString(replaceNBSP(text)) {
			texts = append(texts, text)
		}
	})
	return texts
}

func (m htmlMeeting) LocationParts() LocationParts {
	return LocationParts{
		Location: m.labelValue("Location:"),
		Building: m.labelValue("Building:"),
		Room:     m.labelValue("Room:"),
	}
}

func (m htmlMeeting) Text() string {
	return m.sel.Text()
}

// labelValue reads the node after the first bold label containing label.
func (m htmlMeeting) labelValue(label string) string {
	span := m.sel.Find("span.bold").FilterFunction(func(i int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), label)
	}).First()
	if span.Length() == 0 {
		return ""
	}
	return siblingText(span)
}

// siblingText returns the text of the node immediately following the
// selection, which is usually a bare text node holding the label's value.
func siblingText(sel *goquery.Selection) string {
	if len(sel.Nodes) == 0 || sel.Nodes[0].NextSibling == nil {
		return ""
	}
	return strings.TrimSpace(replaceNBSP(nodeText(sel.Nodes[0].NextSibling)))
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}
