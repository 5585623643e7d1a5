// Package brief parses the daily briefing dialect into blocks and renders them as HTML.
package brief

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// TitlePrefix marks the optional first line of a briefing. The rendered title
// comes from the file date, so the line is dropped.
const TitlePrefix = "Tucson Daily Brief"

// Citation marker glyphs.
const (
	newspaperGlyph = "\U0001F4F0"
	pageGlyph      = "\U0001F4C4"
)

// footerPrefixes are the metadata lines the upstream pipeline appends after the body.
var footerPrefixes = []string{
	"Briefing saved:",
	"Sources fetched:",
	"Failed sources:",
	"Next update:",
}

var ruleRe = regexp.MustCompile(`^[─\-]{3,}$`)

// Kind identifies the structural type of a Block.
type Kind int

const (
	KindParagraph Kind = iota
	KindHeading
	KindCitation
	KindRule
)

func (k Kind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindCitation:
		return "citation"
	case KindRule:
		return "rule"
	default:
		return "paragraph"
	}
}

// MarshalText lets blocks serialise with readable kinds.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name written by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "paragraph":
		*k = KindParagraph
	case "heading":
		*k = KindHeading
	case "citation":
		*k = KindCitation
	case "rule":
		*k = KindRule
	default:
		return fmt.Errorf("brief: unknown block kind %q", text)
	}
	return nil
}

// Block is one classified unit of a parsed briefing. Rule blocks carry no text.
type Block struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text,omitempty"`
}

// classifier reports whether a trimmed line starts a block of its kind.
type classifier struct {
	kind  Kind
	match func(line string) bool
}

// blockStarts is evaluated in order; the first match wins. Anything that
// matches none of them begins or continues a paragraph.
var blockStarts = []classifier{
	{KindRule, isRule},
	{KindCitation, isCitation},
	{KindHeading, isHeading},
}

func isRule(line string) bool {
	return ruleRe.MatchString(line)
}

func isCitation(line string) bool {
	return strings.HasPrefix(line, newspaperGlyph) || strings.HasPrefix(line, pageGlyph)
}

func isHeading(line string) bool {
	if strings.HasPrefix(line, "**") {
		return false
	}
	r, _ := utf8.DecodeRuneInString(line)
	return isPictographic(r)
}

// isPictographic covers the symbol ranges section headings start with.
func isPictographic(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r == 0xFE0F:
		return true
	}
	return false
}

func classify(line string) (Kind, bool) {
	for _, c := range blockStarts {
		if c.match(line) {
			return c.kind, true
		}
	}
	return KindParagraph, false
}

// Parse splits a raw briefing into an ordered sequence of blocks.
//
// A leading title line and any contiguous run of trailing footer lines are
// excluded. Documents with no content yield an empty slice.
func Parse(text string) []Block {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	start := 0
	if strings.HasPrefix(lines[0], TitlePrefix) {
		start = 1
	}
	end := bodyEnd(lines)

	blocks := []Block{}
	for i := start; i < end; {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			continue
		}

		if kind, ok := classify(line); ok {
			blocks = append(blocks, newBlock(kind, line))
			i++
			continue
		}

		para := []string{line}
		for i++; i < end; i++ {
			next := strings.TrimSpace(lines[i])
			if next == "" {
				break
			}
			if _, ok := classify(next); ok {
				break
			}
			para = append(para, next)
		}
		blocks = append(blocks, Block{Kind: KindParagraph, Text: strings.Join(para, " ")})
	}
	return blocks
}

// bodyEnd returns the index just past the last non-footer line. Scanning
// stops at the first trailing line that is not a footer, blank lines included.
func bodyEnd(lines []string) int {
	end := len(lines)
	for j := len(lines) - 1; j >= 0; j-- {
		if !isFooter(strings.TrimSpace(lines[j])) {
			break
		}
		end = j
	}
	return end
}

func isFooter(line string) bool {
	for _, p := range footerPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func newBlock(kind Kind, line string) Block {
	switch kind {
	case KindRule:
		return Block{Kind: KindRule}
	case KindCitation:
		text := strings.ReplaceAll(line, newspaperGlyph, "")
		text = strings.ReplaceAll(text, pageGlyph, "")
		return Block{Kind: KindCitation, Text: strings.TrimSpace(text)}
	default:
		return Block{Kind: kind, Text: line}
	}
}
