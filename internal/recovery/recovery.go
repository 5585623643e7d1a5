// Package recovery rebuilds the post list from previously rendered HTML.
//
// The rendered posts directory is the only persistent record of what has been
// published: each post's date comes from its file name and its lede is read
// back out of the file itself.
package recovery

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/starford/dailybrief/internal/apperr"
	"github.com/starford/dailybrief/internal/models"
)

var dateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// DateFromName extracts the first YYYY-MM-DD date from the stem of a file
// name. It returns apperr.ErrNoDate if there is none or it is not a real date.
func DateFromName(name string) (time.Time, error) {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	stem := strings.TrimSuffix(base, path.Ext(base))
	m := dateRe.FindString(stem)
	if m == "" {
		return time.Time{}, fmt.Errorf("%w: %s", apperr.ErrNoDate, stem)
	}
	d, err := time.Parse(models.SlugLayout, m)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", apperr.ErrNoDate, stem)
	}
	return d, nil
}

// CollectDir recovers posts from the *.html files in dir. A missing
// directory yields an empty list.
func CollectDir(dir string, logger *slog.Logger) ([]models.Post, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Post{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("recovery: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("recovery: not a directory: %s", dir)
	}
	return Collect(os.DirFS(dir), logger)
}

// Collect recovers posts from the *.html files at the root of fsys. Files
// without a date in their name are skipped silently; unreadable files are
// logged and skipped. When several files carry the same date only the first
// in name order is kept. The result is in no particular order.
func Collect(fsys fs.FS, logger *slog.Logger) ([]models.Post, error) {
	if logger == nil {
		logger = slog.Default()
	}
	names, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, fmt.Errorf("recovery: glob: %w", err)
	}

	posts := make([]models.Post, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		date, err := DateFromName(name)
		if err != nil {
			continue
		}
		slug := date.Format(models.SlugLayout)
		if _, dup := seen[slug]; dup {
			logger.Debug("recovery: duplicate date skipped", slog.String("file", name))
			continue
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			logger.Warn("recovery: read failed", slog.String("file", name), slog.String("error", err.Error()))
			continue
		}
		seen[slug] = struct{}{}
		posts = append(posts, models.NewPost(date, Lede(data)))
	}
	return posts, nil
}

// Lede recovers the summary line stored in a rendered page. It prefers the
// description meta tag written at publish time, then a post-lede element,
// then the first strong span with one trailing period removed, and
// otherwise returns "". Returned text is unescaped.
func Lede(page []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return ""
	}
	if lede, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		return lede
	}
	if sel := doc.Find("p.post-lede").First(); sel.Length() > 0 {
		return sel.Text()
	}
	if sel := doc.Find("strong").First(); sel.Length() > 0 {
		return strings.TrimSuffix(sel.Text(), ".")
	}
	return ""
}

// Merge replaces any record sharing current's slug with current and returns
// the posts sorted newest first.
func Merge(existing []models.Post, current models.Post) []models.Post {
	out := make([]models.Post, 0, len(existing)+1)
	for _, p := range existing {
		if p.Slug != current.Slug {
			out = append(out, p)
		}
	}
	out = append(out, current)
	SortNewestFirst(out)
	return out
}

// SortNewestFirst orders posts by date descending. Equal dates fall back to
// slug order so output is deterministic.
func SortNewestFirst(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].Date.Equal(posts[j].Date) {
			return posts[i].Date.After(posts[j].Date)
		}
		return posts[i].Slug > posts[j].Slug
	})
}
