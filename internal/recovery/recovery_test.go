package recovery

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/starford/dailybrief/internal/apperr"
	"github.com/starford/dailybrief/internal/models"
)

var quiet = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(models.SlugLayout, s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestDateFromName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"tucson-brief-2026-02-18.md", "2026-02-18", false},
		{"/tmp/briefs/2026-01-30.html", "2026-01-30", false},
		{"2026-02-18-extra-2026-03-01.md", "2026-02-18", false},
		{"brief.md", "", true},
		{"2026-2-18.md", "", true},
		{"2026-13-45.md", "", true},
		{"2026-02-18/brief.md", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DateFromName(tt.name)
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrNoDate) {
					t.Fatalf("err = %v, want ErrNoDate", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Format(models.SlugLayout) != tt.want {
				t.Errorf("date = %s, want %s", got.Format(models.SlugLayout), tt.want)
			}
		})
	}
}

func TestLede_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{"description meta", `<meta name="description" content="Tom &amp; Jerry"><strong>Other.</strong>`, "Tom & Jerry"},
		{"empty description meta", `<meta name="description" content=""><strong>Other.</strong>`, ""},
		{"meta without content", `<meta name="description"><strong>Other.</strong>`, "Other"},
		{"post-lede marker", `<p class="post-lede">Stored lede</p><strong>Other.</strong>`, "Stored lede"},
		{"marker with extra attrs", `<p class="post-lede" data-x="1">Stored</p>`, "Stored"},
		{"first strong", `<p>x <strong>Council votes.</strong> <strong>Second</strong></p>`, "Council votes"},
		{"entities decoded", `<p><strong>Tom &amp; Jerry</strong></p>`, "Tom & Jerry"},
		{"nothing", `<p>plain</p>`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Lede([]byte(tt.page)); got != tt.want {
				t.Errorf("Lede = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCollect(t *testing.T) {
	fsys := fstest.MapFS{
		"2026-02-18.html":     {Data: []byte(`<article><p><strong>Water plan passes.</strong></p></article>`)},
		"2026-02-01.html":     {Data: []byte(`<p>No emphasis here</p>`)},
		"about.html":          {Data: []byte(`<strong>ignored</strong>`)},
		"2026-01-30.txt":      {Data: []byte(`<strong>wrong ext</strong>`)},
		"old-2026-02-18.html": {Data: []byte(`<strong>duplicate</strong>`)},
		"sub/2025-12-31.html": {Data: []byte(`<strong>nested</strong>`)},
	}
	posts, err := Collect(fsys, quiet)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	got := map[string]string{}
	for _, p := range posts {
		got[p.Slug] = p.Lede
	}
	want := map[string]string{
		"2026-02-18": "Water plan passes",
		"2026-02-01": "",
	}
	if len(got) != len(want) || len(posts) != len(want) {
		t.Fatalf("posts = %+v, want %v", posts, want)
	}
	for slug, lede := range want {
		if got[slug] != lede {
			t.Errorf("lede[%s] = %q, want %q", slug, got[slug], lede)
		}
	}
}

func TestCollectDir_Missing(t *testing.T) {
	posts, err := CollectDir(filepath.Join(t.TempDir(), "posts"), quiet)
	if err != nil {
		t.Fatalf("CollectDir: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("posts = %+v, want none", posts)
	}
}

func TestCollectDir_NotADirectory(t *testing.T) {
	f := filepath.Join(t.TempDir(), "posts")
	_ = os.WriteFile(f, []byte("x"), 0o644)
	if _, err := CollectDir(f, quiet); err == nil {
		t.Error("expected error for file path")
	}
}

func TestCollectDir(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "2026-02-18.html"), []byte(`<p class="post-meta">x</p><p><strong>Hello.</strong></p>`), 0o644)
	posts, err := CollectDir(dir, quiet)
	if err != nil {
		t.Fatalf("CollectDir: %v", err)
	}
	if len(posts) != 1 || posts[0].Lede != "Hello" || posts[0].Slug != "2026-02-18" {
		t.Errorf("posts = %+v", posts)
	}
}

func TestMerge_ReplacesAndSorts(t *testing.T) {
	existing := []models.Post{
		models.NewPost(mustDate(t, "2026-02-01"), "b"),
		models.NewPost(mustDate(t, "2026-02-18"), "stale"),
		models.NewPost(mustDate(t, "2026-01-30"), "c"),
	}
	merged := Merge(existing, models.NewPost(mustDate(t, "2026-02-18"), "fresh"))

	var slugs []string
	for _, p := range merged {
		slugs = append(slugs, p.Slug)
	}
	if got := strings.Join(slugs, ","); got != "2026-02-18,2026-02-01,2026-01-30" {
		t.Errorf("order = %s", got)
	}
	if merged[0].Lede != "fresh" {
		t.Errorf("lede = %q, want fresh", merged[0].Lede)
	}
}

func TestMerge_EmptyExisting(t *testing.T) {
	merged := Merge(nil, models.NewPost(mustDate(t, "2026-02-18"), "only"))
	if len(merged) != 1 || merged[0].Lede != "only" {
		t.Errorf("merged = %+v", merged)
	}
}
