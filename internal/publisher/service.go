// Package publisher turns one briefing file into a published post and
// rebuilds the site index from the posts already on disk.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/starford/dailybrief/internal/apperr"
	"github.com/starford/dailybrief/internal/brief"
	"github.com/starford/dailybrief/internal/catalog"
	"github.com/starford/dailybrief/internal/models"
	"github.com/starford/dailybrief/internal/recovery"
	"github.com/starford/dailybrief/internal/site"
	"github.com/starford/dailybrief/internal/storage"
)

// Site-relative output locations.
const (
	DefaultPostsDir = "posts"
	IndexFile       = "index.html"
	StylesheetFile  = "style.css"
)

// Result describes one publishing event.
type Result struct {
	Post      models.Post `json:"post"`
	PostPath  string      `json:"post_path"`
	IndexPath string      `json:"index_path"`
	PostCount int         `json:"post_count"`
}

// Preview is a parsed briefing that has not been written anywhere.
type Preview struct {
	Slug   string        `json:"slug"`
	Lede   string        `json:"lede"`
	Blocks []brief.Block `json:"blocks"`
	HTML   string        `json:"html"`
}

// Service coordinates rendering, storage, and the optional catalog.
// Publish and Reindex are serialised so the site directory sees one writer.
type Service struct {
	store    storage.Provider
	meta     site.Meta
	postsDir string
	db       catalog.Store
	logger   *slog.Logger

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithCatalog mirrors every publish into db.
func WithCatalog(db catalog.Store) Option {
	return func(s *Service) { s.db = db }
}

// WithPostsDir overrides the site-relative posts directory.
func WithPostsDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.postsDir = dir
		}
	}
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a publisher writing through store.
func NewService(store storage.Provider, meta site.Meta, opts ...Option) *Service {
	s := &Service{
		store:    store,
		meta:     meta,
		postsDir: DefaultPostsDir,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying site storage.
func (s *Service) Store() storage.Provider { return s.store }

// PostsDir returns the site-relative posts directory.
func (s *Service) PostsDir() string { return s.postsDir }

// Catalog returns the configured catalog, or nil.
func (s *Service) Catalog() catalog.Store { return s.db }

// CheckBriefing validates a briefing path before anything is written: the
// file name must carry a date and the path must be a regular file.
func CheckBriefing(briefingPath string) (models.Post, error) {
	date, err := recovery.DateFromName(briefingPath)
	if err != nil {
		return models.Post{}, err
	}
	info, err := os.Stat(briefingPath)
	if err != nil {
		return models.Post{}, fmt.Errorf("%w: %s: %w", apperr.ErrNotRegularFile, briefingPath, err)
	}
	if !info.Mode().IsRegular() {
		return models.Post{}, fmt.Errorf("%w: %s", apperr.ErrNotRegularFile, briefingPath)
	}
	return models.NewPost(date, ""), nil
}

// Publish renders the briefing at briefingPath into a post page and
// rebuilds the index. Re-publishing a date replaces its earlier entry.
func (s *Service) Publish(ctx context.Context, briefingPath string) (*Result, error) {
	post, err := CheckBriefing(briefingPath)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(briefingPath)
	if err != nil {
		return nil, fmt.Errorf("publisher: read briefing: %w", err)
	}
	return s.PublishText(ctx, post.Date.Format(models.SlugLayout), string(raw))
}

// PublishText publishes raw briefing text for the date given as YYYY-MM-DD.
func (s *Service) PublishText(ctx context.Context, slug, text string) (*Result, error) {
	date, err := recovery.DateFromName(slug)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post := models.NewPost(date, brief.Lede(text))
	page, err := site.RenderPost(s.meta, date, post.Lede, brief.Render(text))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	postPath := path.Join(s.postsDir, post.FileName())
	if err := s.store.Write(postPath, page); err != nil {
		return nil, fmt.Errorf("publisher: write post: %w", err)
	}
	s.logger.Info("publisher: wrote post", slog.String("path", postPath), slog.String("lede", post.Lede))

	if err := s.ensureStylesheet(); err != nil {
		return nil, err
	}

	existing, err := s.collect()
	if err != nil {
		return nil, err
	}
	posts := recovery.Merge(existing, post)
	if err := s.writeIndex(posts); err != nil {
		return nil, err
	}

	return &Result{
		Post:      post,
		PostPath:  postPath,
		IndexPath: IndexFile,
		PostCount: len(posts),
	}, nil
}

// Reindex rebuilds the index from the posts on disk alone.
func (s *Service) Reindex(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.collect()
	if err != nil {
		return nil, err
	}
	recovery.SortNewestFirst(posts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ensureStylesheet(); err != nil {
		return nil, err
	}
	if err := s.writeIndex(posts); err != nil {
		return nil, err
	}
	return &Result{IndexPath: IndexFile, PostCount: len(posts)}, nil
}

// PreviewBriefing parses a briefing without writing anything.
func PreviewBriefing(slug, text string) (*Preview, error) {
	date, err := recovery.DateFromName(slug)
	if err != nil {
		return nil, err
	}
	blocks := brief.Parse(text)
	return &Preview{
		Slug:   date.Format(models.SlugLayout),
		Lede:   brief.Lede(text),
		Blocks: blocks,
		HTML:   brief.RenderBlocks(blocks),
	}, nil
}

// ReadPost returns the rendered page for slug.
func (s *Service) ReadPost(slug string) ([]byte, error) {
	date, err := recovery.DateFromName(slug)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, slug)
	}
	p := path.Join(s.postsDir, models.NewPost(date, "").FileName())
	data, err := s.store.Read(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, slug)
	}
	return data, err
}

// Posts returns the recovered posts newest first.
func (s *Service) Posts() ([]models.Post, error) {
	posts, err := s.collect()
	if err != nil {
		return nil, err
	}
	recovery.SortNewestFirst(posts)
	return posts, nil
}

func (s *Service) collect() ([]models.Post, error) {
	dir := filepath.Join(s.store.Root(), filepath.FromSlash(s.postsDir))
	return recovery.CollectDir(dir, s.logger)
}

func (s *Service) writeIndex(posts []models.Post) error {
	page, err := site.RenderIndex(s.meta, posts)
	if err != nil {
		return err
	}
	if err := s.store.Write(IndexFile, page); err != nil {
		return fmt.Errorf("publisher: write index: %w", err)
	}
	s.logger.Info("publisher: wrote index", slog.String("path", IndexFile), slog.Int("posts", len(posts)))

	if s.db != nil {
		if err := catalog.Sync(s.db, s.store, s.postsDir, s.logger); err != nil {
			s.logger.Warn("publisher: catalog sync failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *Service) ensureStylesheet() error {
	ok, err := s.store.Exists(StylesheetFile)
	if err != nil {
		return fmt.Errorf("publisher: stat stylesheet: %w", err)
	}
	if ok {
		return nil
	}
	if err := s.store.Write(StylesheetFile, site.DefaultStylesheet()); err != nil {
		return fmt.Errorf("publisher: write stylesheet: %w", err)
	}
	s.logger.Info("publisher: wrote default stylesheet", slog.String("path", StylesheetFile))
	return nil
}
