package publisher

import (
	"github.com/starford/dailybrief/internal/apperr"
	"github.com/starford/dailybrief/internal/catalog"
	"github.com/starford/dailybrief/internal/models"
)

const defaultSearchLimit = 20

// ListPosts returns a page of posts newest first and the total count. It
// reads the catalog when one is configured and otherwise recovers metadata
// from the posts directory. limit <= 0 means no limit.
func (s *Service) ListPosts(limit, offset int) ([]models.Post, int, error) {
	if s.db != nil {
		rows, total, err := s.db.ListPosts(limit, offset)
		if err != nil {
			return nil, 0, err
		}
		return rowPosts(rows), total, nil
	}

	posts, err := s.Posts()
	if err != nil {
		return nil, 0, err
	}
	total := len(posts)
	offset = min(max(offset, 0), total)
	posts = posts[offset:]
	if limit > 0 && limit < len(posts) {
		posts = posts[:limit]
	}
	return posts, total, nil
}

// Search matches query against cataloged ledes. It needs the catalog and
// returns apperr.ErrNoCatalog without one.
func (s *Service) Search(query string, limit int) ([]models.Post, error) {
	if s.db == nil {
		return nil, apperr.ErrNoCatalog
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	rows, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return rowPosts(rows), nil
}

func rowPosts(rows []catalog.PostRow) []models.Post {
	posts := make([]models.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.Post())
	}
	return posts
}
