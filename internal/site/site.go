// Package site renders the post and index pages of the static site.
package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/starford/dailybrief/internal/brief"
	"github.com/starford/dailybrief/internal/models"
)

// Date layouts used on rendered pages.
const (
	LongDateLayout  = "January 2, 2006"
	ShortDateLayout = "Jan 2, 2006"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed templates/style.css
var defaultStylesheet []byte

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Link is an external link shown in the page footer.
type Link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

// Meta holds the fixed site identity rendered on every page.
type Meta struct {
	Title   string `yaml:"title"`
	Tagline string `yaml:"tagline"`
	Author  string `yaml:"author"`
	Links   []Link `yaml:"links"`
}

// DefaultMeta returns the identity of the Tucson Daily Brief site.
func DefaultMeta() Meta {
	return Meta{
		Title:   "Tucson Daily Brief",
		Tagline: "An AI-powered local news pipeline by Nicholas De Leon",
		Author:  "Nicholas De Leon",
		Links: []Link{
			{Label: "Apple Podcasts", URL: "https://podcasts.apple.com/us/podcast/tucson-daily-brief/id1795533938"},
			{Label: "YouTube", URL: "https://www.youtube.com/@TucsonDailyBrief"},
		},
	}
}

// DefaultStylesheet returns the stylesheet written when a site has none.
func DefaultStylesheet() []byte {
	return bytes.Clone(defaultStylesheet)
}

// LongDate formats t as "February 18, 2026".
func LongDate(t time.Time) string { return t.Format(LongDateLayout) }

// ShortDate formats t as "Feb 18, 2026".
func ShortDate(t time.Time) string { return t.Format(ShortDateLayout) }

type postPage struct {
	Meta     Meta
	Slug     string
	LongDate string
	Lede     string
	Body     template.HTML
}

type indexEntry struct {
	Slug      string
	ShortDate string
	LongDate  string
	Lede      template.HTML
}

type indexPage struct {
	Meta    Meta
	Entries []indexEntry
}

// RenderPost renders the full post page for date around an already rendered
// body. The lede is stored in the page's description meta tag so a later
// rebuild recovers it unchanged.
func RenderPost(meta Meta, date time.Time, lede, bodyHTML string) ([]byte, error) {
	return execute("post.html", postPage{
		Meta:     meta,
		Slug:     date.Format(models.SlugLayout),
		LongDate: LongDate(date),
		Lede:     lede,
		Body:     template.HTML(bodyHTML), //nolint:gosec // produced by brief.RenderBlocks
	})
}

// RenderIndex renders the index page listing posts in the order given.
// Ledes are escaped here; an empty list renders the placeholder entry.
func RenderIndex(meta Meta, posts []models.Post) ([]byte, error) {
	entries := make([]indexEntry, len(posts))
	for i, p := range posts {
		entries[i] = indexEntry{
			Slug:      p.Slug,
			ShortDate: ShortDate(p.Date),
			LongDate:  LongDate(p.Date),
			Lede:      template.HTML(brief.Escape(p.Lede)), //nolint:gosec // escaped above
		}
	}
	return execute("index.html", indexPage{Meta: meta, Entries: entries})
}

func execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("site: render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
