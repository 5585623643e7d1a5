package brief

import "strings"

const (
	maxLedeLen  = 120
	ledeKeepLen = 117
	ellipsis    = "..."
)

// Lede returns the first bold span in the briefing, title line included, or
// "" if there is none. One trailing period is dropped and long spans are cut
// to 117 characters plus an ellipsis. The result is not escaped.
func Lede(text string) string {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		m := boldRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return shorten(strings.TrimSuffix(m[1], "."))
	}
	return ""
}

func shorten(s string) string {
	r := []rune(s)
	if len(r) <= maxLedeLen {
		return s
	}
	return string(r[:ledeKeepLen]) + ellipsis
}
