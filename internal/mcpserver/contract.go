package mcpserver

// BriefingFormat describes the plain-text briefing format the publisher
// accepts. It is served as a tool result and as a resource.
const BriefingFormat = `# Tucson Daily Brief Format

A briefing is a UTF-8 text file named with its date, e.g. ` + "`" + `tucson-brief-2026-02-18.md` + "`" + `.
The first ` + "`" + `YYYY-MM-DD` + "`" + ` in the file name becomes the post's date and URL slug.

## Lines

- **Title.** If the first line starts with ` + "`" + `Tucson Daily Brief` + "`" + ` it is dropped; the site
  header already carries the title.
- **Section heading.** A line starting with an emoji (🏛️, 🌵, 🚧 ...) becomes an ` + "`" + `<h2>` + "`" + `.
  A line starting with ` + "`" + `**` + "`" + ` is never a heading.
- **Citation.** A line starting with 📰 or 📄 becomes a source line; the glyph is removed.
- **Rule.** Three or more ` + "`" + `-` + "`" + ` or ` + "`" + `─` + "`" + ` characters alone on a line.
- **Paragraph.** Consecutive other lines are joined with one space. A blank line or any of
  the lines above ends the paragraph.
- **Footer.** Trailing ` + "`" + `Briefing saved:` + "`" + `, ` + "`" + `Sources fetched:` + "`" + `,
  ` + "`" + `Failed sources:` + "`" + ` and ` + "`" + `Next update:` + "`" + ` lines are removed. Keep them
  contiguous at the very end; a blank line between them ends the footer.

## Inline markup

Only ` + "`" + `**bold**` + "`" + ` is recognised, and only inside paragraphs. Everything else is shown
literally; ` + "`" + `&` + "`" + `, ` + "`" + `<` + "`" + `, ` + "`" + `>` + "`" + ` and ` + "`" + `"` + "`" + ` are escaped.

## Lede

The first bold span in the file, minus one trailing period, is the post's summary on the
index page. Ledes longer than 120 characters are cut to 117 and end in ` + "`" + `...` + "`" + `.
Open the first story with its headline in bold to control it.

## Example

` + "```" + `text
Tucson Daily Brief — Wednesday, February 18, 2026

🏛️ Government

**Council approves water plan.** The vote was 5-2 after a long session.
📰 Arizona Daily Star

───

🌵 Outdoors

Trails reopen Friday.

Briefing saved: 2026-02-18 06:00
Sources fetched: 12
` + "```" + `
`
