package api

import (
	"path"

	"github.com/starford/dailybrief/internal/models"
	"github.com/starford/dailybrief/internal/site"
)

// PublishRequest is the body of POST /api/publish.
type PublishRequest struct {
	Path string `json:"path" example:"inbox/2025-06-01.md"`
}

// PostItem is one entry in a post listing.
type PostItem struct {
	Slug string `json:"slug" example:"2025-06-01"`
	Date string `json:"date" example:"Jun 1, 2025"`
	Lede string `json:"lede" example:"City council approves budget"`
	URL  string `json:"url" example:"/posts/2025-06-01.html"`
}

// PostListResponse wraps a page of posts, newest first.
type PostListResponse struct {
	Posts []PostItem `json:"posts"`
	Total int        `json:"total" example:"42"`
}

// PostDetail is a single rendered post.
type PostDetail struct {
	PostItem
	HTML string `json:"html"`
}

// SearchResponse wraps search hits.
type SearchResponse struct {
	Results []PostItem `json:"results"`
}

func newPostItem(postsDir string, p models.Post) PostItem {
	return PostItem{
		Slug: p.Slug,
		Date: site.ShortDate(p.Date),
		Lede: p.Lede,
		URL:  path.Join("/", postsDir, p.FileName()),
	}
}
