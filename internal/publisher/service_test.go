package publisher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/dailybrief/internal/apperr"
	"github.com/starford/dailybrief/internal/brief"
	"github.com/starford/dailybrief/internal/site"
	"github.com/starford/dailybrief/internal/testutil"
)

const briefing = `Tucson Daily Brief — February 18, 2026

🏛️ Government

**Council approves water plan.** The vote was 5-2 & final.
📰 Arizona Daily Star

Briefing saved: 2026-02-18 06:00
Sources fetched: 12`

func newService(t *testing.T) (*Service, string) {
	t.Helper()
	dir, store := testutil.TestSite(t)
	return NewService(store, site.DefaultMeta(), WithLogger(testutil.QuietLogger())), dir
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read %s: %v", p, err)
	}
	return string(data)
}

func TestPublish_WritesPostAndIndex(t *testing.T) {
	svc, dir := newService(t)
	src := testutil.WriteBriefing(t, "tucson-brief-2026-02-18.md", briefing)

	res, err := svc.Publish(context.Background(), src)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.PostPath != "posts/2026-02-18.html" || res.PostCount != 1 {
		t.Errorf("result = %+v", res)
	}
	if res.Post.Lede != "Council approves water plan" {
		t.Errorf("lede = %q", res.Post.Lede)
	}

	post := readFile(t, filepath.Join(dir, "posts", "2026-02-18.html"))
	for _, want := range []string{
		`<article id="2026-02-18">`,
		"<h2>🏛️ Government</h2>",
		"<p><strong>Council approves water plan.</strong> The vote was 5-2 &amp; final.</p>",
		`<p class="source">Arizona Daily Star</p>`,
	} {
		if !strings.Contains(post, want) {
			t.Errorf("post missing %q", want)
		}
	}
	if strings.Contains(post, "Briefing saved") || strings.Contains(post, "Sources fetched") {
		t.Error("footer leaked into post")
	}

	index := readFile(t, filepath.Join(dir, "index.html"))
	if !strings.Contains(index, `<p class="post-lede">Council approves water plan</p>`) {
		t.Errorf("index missing lede:\n%s", index)
	}
	if _, err := os.Stat(filepath.Join(dir, "style.css")); err != nil {
		t.Errorf("stylesheet not written: %v", err)
	}
}

func TestPublish_Idempotent(t *testing.T) {
	svc, dir := newService(t)
	src := testutil.WriteBriefing(t, "tucson-brief-2026-02-18.md", briefing)

	for i := 0; i < 2; i++ {
		if _, err := svc.Publish(context.Background(), src); err != nil {
			t.Fatalf("Publish #%d: %v", i+1, err)
		}
	}
	res, err := svc.Reindex(context.Background())
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if res.PostCount != 1 {
		t.Errorf("PostCount = %d, want 1", res.PostCount)
	}
	index := readFile(t, filepath.Join(dir, "index.html"))
	if n := strings.Count(index, `href="posts/2026-02-18.html"`); n != 1 {
		t.Errorf("index lists the post %d times, want 1", n)
	}
}

func TestReindex_KeepsTruncatedLede(t *testing.T) {
	_, store := testutil.TestSite(t)
	db := testutil.TestCatalog(t)
	svc := NewService(store, site.DefaultMeta(), WithCatalog(db), WithLogger(testutil.QuietLogger()))
	dir := store.Root()

	long := "**" + strings.Repeat("x", 150) + ".** Story."
	res, err := svc.PublishText(context.Background(), "2026-02-17", long)
	if err != nil {
		t.Fatalf("PublishText: %v", err)
	}
	want := strings.Repeat("x", 117) + "..."
	if res.Post.Lede != want {
		t.Fatalf("published lede = %q", res.Post.Lede)
	}
	published := readFile(t, filepath.Join(dir, "index.html"))

	if _, err := svc.Reindex(context.Background()); err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if rebuilt := readFile(t, filepath.Join(dir, "index.html")); rebuilt != published {
		t.Errorf("index changed on rebuild:\nbefore:\n%s\nafter:\n%s", published, rebuilt)
	}

	posts, err := svc.Posts()
	if err != nil || len(posts) != 1 || posts[0].Lede != want {
		t.Errorf("recovered posts = %+v, err = %v", posts, err)
	}
	row, err := db.GetPost("2026-02-17")
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if row.Lede != want {
		t.Errorf("catalog lede = %q, want %q", row.Lede, want)
	}
}

func TestPublish_RepublishReplacesLede(t *testing.T) {
	svc, dir := newService(t)
	ctx := context.Background()
	if _, err := svc.PublishText(ctx, "2026-02-18", "**First version.**"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.PublishText(ctx, "2026-02-18", "**Second version.**"); err != nil {
		t.Fatal(err)
	}
	index := readFile(t, filepath.Join(dir, "index.html"))
	if strings.Contains(index, "First version") || !strings.Contains(index, "Second version") {
		t.Errorf("index not replaced:\n%s", index)
	}
}

func TestPublish_SortOrder(t *testing.T) {
	svc, dir := newService(t)
	ctx := context.Background()
	for _, d := range []string{"2026-02-01", "2026-02-18", "2026-01-30"} {
		if _, err := svc.PublishText(ctx, d, "**Story "+d+"**"); err != nil {
			t.Fatal(err)
		}
	}
	index := readFile(t, filepath.Join(dir, "index.html"))
	a := strings.Index(index, "posts/2026-02-18.html")
	b := strings.Index(index, "posts/2026-02-01.html")
	c := strings.Index(index, "posts/2026-01-30.html")
	if !(a >= 0 && a < b && b < c) {
		t.Errorf("unexpected order %d %d %d", a, b, c)
	}
}

func TestPublish_RecoveredLedeNotDoubleEscaped(t *testing.T) {
	svc, dir := newService(t)
	ctx := context.Background()
	if _, err := svc.PublishText(ctx, "2026-02-01", "**Tom & Jerry return.**"); err != nil {
		t.Fatal(err)
	}
	// The second publish recovers the first post's lede from its HTML.
	if _, err := svc.PublishText(ctx, "2026-02-02", "**Next day.**"); err != nil {
		t.Fatal(err)
	}
	index := readFile(t, filepath.Join(dir, "index.html"))
	if !strings.Contains(index, `<p class="post-lede">Tom &amp; Jerry return</p>`) {
		t.Errorf("recovered lede escaped incorrectly:\n%s", index)
	}
}

func TestPublish_NoDateInFilename(t *testing.T) {
	svc, dir := newService(t)
	src := testutil.WriteBriefing(t, "tucson-brief.md", briefing)

	_, err := svc.Publish(context.Background(), src)
	if !errors.Is(err, apperr.ErrNoDate) {
		t.Fatalf("err = %v, want ErrNoDate", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("site dir not empty after failed publish: %v", entries)
	}
}

func TestPublish_MissingFile(t *testing.T) {
	svc, dir := newService(t)
	_, err := svc.Publish(context.Background(), filepath.Join(t.TempDir(), "tucson-brief-2026-02-18.md"))
	if !errors.Is(err, apperr.ErrNotRegularFile) {
		t.Fatalf("err = %v, want ErrNotRegularFile", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("site dir not empty after failed publish: %v", entries)
	}
}

func TestPublish_DirectoryInput(t *testing.T) {
	svc, _ := newService(t)
	d := filepath.Join(t.TempDir(), "2026-02-18.md")
	_ = os.Mkdir(d, 0o755)
	if _, err := svc.Publish(context.Background(), d); !errors.Is(err, apperr.ErrNotRegularFile) {
		t.Fatalf("err = %v, want ErrNotRegularFile", err)
	}
}

func TestPublish_CancelledContext(t *testing.T) {
	svc, dir := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.PublishText(ctx, "2026-02-18", "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "posts")); err == nil {
		t.Error("posts dir created despite cancellation")
	}
}

func TestReindex_EmptyCorpus(t *testing.T) {
	svc, dir := newService(t)
	res, err := svc.Reindex(context.Background())
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if res.PostCount != 0 {
		t.Errorf("PostCount = %d", res.PostCount)
	}
	index := readFile(t, filepath.Join(dir, "index.html"))
	if !strings.Contains(index, `<li class="empty">No briefings yet.</li>`) {
		t.Errorf("placeholder missing:\n%s", index)
	}
}

func TestReindex_PicksUpLegacyPosts(t *testing.T) {
	svc, dir := newService(t)
	_ = os.MkdirAll(filepath.Join(dir, "posts"), 0o755)
	_ = os.WriteFile(filepath.Join(dir, "posts", "2025-12-31.html"), []byte(`<p><strong>Legacy post.</strong></p>`), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "posts", "drafts.html"), []byte(`<strong>skip</strong>`), 0o644)

	res, err := svc.Reindex(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.PostCount != 1 {
		t.Errorf("PostCount = %d, want 1", res.PostCount)
	}
	if !strings.Contains(readFile(t, filepath.Join(dir, "index.html")), "Legacy post") {
		t.Error("legacy lede missing from index")
	}
}

func TestEnsureStylesheet_KeepsExisting(t *testing.T) {
	svc, dir := newService(t)
	_ = os.WriteFile(filepath.Join(dir, "style.css"), []byte("custom"), 0o644)
	if _, err := svc.Reindex(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(dir, "style.css")); got != "custom" {
		t.Errorf("stylesheet overwritten: %q", got)
	}
}

func TestPublish_WithCatalog(t *testing.T) {
	_, store := testutil.TestSite(t)
	db := testutil.TestCatalog(t)
	svc := NewService(store, site.DefaultMeta(), WithCatalog(db), WithLogger(testutil.QuietLogger()))

	if _, err := svc.PublishText(context.Background(), "2026-02-18", "**Cataloged.**"); err != nil {
		t.Fatal(err)
	}
	row, err := db.GetPost("2026-02-18")
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if row.Lede != "Cataloged" {
		t.Errorf("catalog lede = %q", row.Lede)
	}
}

func TestPublish_CustomPostsDir(t *testing.T) {
	_, store := testutil.TestSite(t)
	svc := NewService(store, site.DefaultMeta(), WithPostsDir("archive"), WithLogger(testutil.QuietLogger()))
	res, err := svc.PublishText(context.Background(), "2026-02-18", "x")
	if err != nil {
		t.Fatal(err)
	}
	if res.PostPath != "archive/2026-02-18.html" {
		t.Errorf("PostPath = %q", res.PostPath)
	}
}

func TestPreviewBriefing(t *testing.T) {
	p, err := PreviewBriefing("2026-02-18", briefing)
	if err != nil {
		t.Fatal(err)
	}
	if p.Lede != "Council approves water plan" || len(p.Blocks) != 3 {
		t.Errorf("preview = %+v", p)
	}
	if p.Blocks[0].Kind != brief.KindHeading {
		t.Errorf("first block = %+v", p.Blocks[0])
	}
	if _, err := PreviewBriefing("today", briefing); !errors.Is(err, apperr.ErrNoDate) {
		t.Errorf("err = %v, want ErrNoDate", err)
	}
}

func TestReadPostAndPosts(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, _ = svc.PublishText(ctx, "2026-02-01", "**A**")
	_, _ = svc.PublishText(ctx, "2026-02-18", "**B**")

	page, err := svc.ReadPost("2026-02-18")
	if err != nil || !strings.Contains(string(page), "<strong>B</strong>") {
		t.Errorf("ReadPost = %q, %v", page, err)
	}
	if _, err := svc.ReadPost("2020-01-01"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	posts, err := svc.Posts()
	if err != nil || len(posts) != 2 || posts[0].Slug != "2026-02-18" {
		t.Errorf("Posts = %+v, %v", posts, err)
	}
}

func TestListPosts_Pagination(t *testing.T) {
	svc, _ := newService(t)
	for _, name := range []string{"2026-02-16.md", "2026-02-17.md", "2026-02-18.md"} {
		if _, err := svc.Publish(context.Background(), testutil.WriteBriefing(t, name, briefing)); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		limit, offset int
		want          string
	}{
		{0, 0, "2026-02-18,2026-02-17,2026-02-16"},
		{2, 0, "2026-02-18,2026-02-17"},
		{1, 2, "2026-02-16"},
		{5, 10, ""},
		{0, -1, "2026-02-18,2026-02-17,2026-02-16"},
	}
	for _, tt := range tests {
		posts, total, err := svc.ListPosts(tt.limit, tt.offset)
		if err != nil {
			t.Fatalf("ListPosts(%d, %d): %v", tt.limit, tt.offset, err)
		}
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
		var slugs []string
		for _, p := range posts {
			slugs = append(slugs, p.Slug)
		}
		if got := strings.Join(slugs, ","); got != tt.want {
			t.Errorf("ListPosts(%d, %d) = %q, want %q", tt.limit, tt.offset, got, tt.want)
		}
	}
}

func TestSearch_RequiresCatalog(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Search("water", 0); !errors.Is(err, apperr.ErrNoCatalog) {
		t.Fatalf("err = %v, want ErrNoCatalog", err)
	}

	_, store := testutil.TestSite(t)
	withDB := NewService(store, site.DefaultMeta(),
		WithLogger(testutil.QuietLogger()),
		WithCatalog(testutil.TestCatalog(t)),
	)
	if _, err := withDB.Publish(context.Background(), testutil.WriteBriefing(t, "2026-02-18.md", briefing)); err != nil {
		t.Fatal(err)
	}
	posts, err := withDB.Search("water", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(posts) != 1 || posts[0].Slug != "2026-02-18" {
		t.Errorf("posts = %+v", posts)
	}
}
