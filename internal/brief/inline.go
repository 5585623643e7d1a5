package brief

import (
	"regexp"
	"strings"
)

var boldRe = regexp.MustCompile(`\*\*(.+?)\*\*`)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// Escape makes text safe to embed in HTML element content and attribute values.
func Escape(text string) string {
	return escaper.Replace(text)
}

// Inline escapes text and then wraps every **bold** span in <strong>.
// Escaping runs first so the inserted tags survive intact.
func Inline(text string) string {
	return boldRe.ReplaceAllString(Escape(text), "<strong>$1</strong>")
}

// RenderBlocks renders blocks as HTML fragments, one per line.
// Headings and citations are escaped only; paragraphs also get emphasis.
func RenderBlocks(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		switch b.Kind {
		case KindRule:
			parts = append(parts, "<hr>")
		case KindCitation:
			parts = append(parts, `<p class="source">`+Escape(b.Text)+"</p>")
		case KindHeading:
			parts = append(parts, "<h2>"+Escape(b.Text)+"</h2>")
		default:
			parts = append(parts, "<p>"+Inline(b.Text)+"</p>")
		}
	}
	return strings.Join(parts, "\n")
}

// Render parses a raw briefing and returns its body HTML.
func Render(text string) string {
	return RenderBlocks(Parse(text))
}
