package export

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/umputun/chanscope/pkg/domain"
)

// RSS represents the root RSS 2.0 element
type RSS struct {
	XMLName xml.Name    `xml:"rss"`
	Version string      `xml:"version,attr"`
	Atom    string      `xml:"xmlns:atom,attr"`
	Channel *RSSChannel `xml:"channel"`
}

// RSSChannel represents an RSS channel
type RSSChannel struct {
	XMLName       xml.Name   `xml:"channel"`
	Title         string     `xml:"title"`
	Link          string     `xml:"link"`
	Description   string     `xml:"description"`
	AtomLink      *AtomLink  `xml:"http://www.w3.org/2005/Atom link"`
	LastBuildDate string     `xml:"lastBuildDate"`
	Items         []*RSSItem `xml:"item"`
}

// AtomLink represents an Atom link element within RSS
type AtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// RSSItem represents an item in an RSS feed
type RSSItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

const titleLen = 80

// Generator renders stored messages of a source as an RSS 2.0 feed
type Generator struct {
	baseURL string
}

// NewGenerator creates a new feed generator
func NewGenerator(baseURL string) *Generator {
	return &Generator{baseURL: strings.TrimRight(baseURL, "/")}
}

// GenerateRSS creates a feed for the source, newest messages first
func (g *Generator) GenerateRSS(source string, msgs []domain.Message) (string, error) {
	sorted := make([]domain.Message, len(msgs))
	copy(sorted, msgs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })

	items := make([]*RSSItem, 0, len(sorted))
	for _, m := range sorted {
		items = append(items, g.convertToRSSItem(source, m))
	}

	sourceLink := g.baseURL + "/" + url.PathEscape(source)
	feed := &RSS{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: &RSSChannel{
			Title:         source,
			Link:          sourceLink,
			Description:   fmt.Sprintf("Messages of %s, %d total", source, len(msgs)),
			AtomLink:      &AtomLink{Href: sourceLink, Rel: "self", Type: "application/rss+xml"},
			LastBuildDate: time.Now().Format(time.RFC1123Z),
			Items:         items,
		},
	}

	output, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal RSS: %w", err)
	}
	return xml.Header + string(output), nil
}

func (g *Generator) convertToRSSItem(source string, m domain.Message) *RSSItem {
	return &RSSItem{
		Title:       itemTitle(m),
		Link:        fmt.Sprintf("%s/%s/%d", g.baseURL, url.PathEscape(source), m.ID),
		GUID:        fmt.Sprintf("%s:%d", source, m.ID),
		Description: m.Text,
		PubDate:     m.PostedAt.Format(time.RFC1123Z),
	}
}

// itemTitle is the first line of the text, cut to titleLen runes
func itemTitle(m domain.Message) string {
	line, _, _ := strings.Cut(strings.TrimSpace(m.Text), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return fmt.Sprintf("message %d", m.ID)
	}
	if utf8.RuneCountInString(line) <= titleLen {
		return line
	}
	r := []rune(line)
	return string(r[:titleLen]) + "…"
}
