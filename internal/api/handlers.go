package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dailybrief/internal/apperr"
	"github.com/starford/dailybrief/internal/checksum"
	"github.com/starford/dailybrief/internal/models"
	"github.com/starford/dailybrief/internal/publisher"
	"github.com/starford/dailybrief/internal/recovery"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *publisher.Service
	events Broadcaster
}

// NewHandler creates a new Handler. events may be nil.
func NewHandler(svc *publisher.Service, events Broadcaster) *Handler {
	return &Handler{svc: svc, events: events}
}

// ListPosts handles GET /api/posts.
//
//	@Summary	List published posts, newest first
//	@Tags		posts
//	@Produce	json
//	@Param		limit	query		int	false	"Page size"
//	@Param		offset	query		int	false	"Page offset"
//	@Success	200		{object}	PostListResponse
//	@Security	BearerAuth
//	@Router		/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	posts, total, err := h.svc.ListPosts(limit, offset)
	if err != nil {
		slog.Error("api: list posts", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	items := make([]PostItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, newPostItem(h.svc.PostsDir(), p))
	}
	writeJSON(w, http.StatusOK, PostListResponse{Posts: items, Total: total})
}

// GetPost handles GET /api/posts/{slug}.
//
//	@Summary	Get one rendered post
//	@Tags		posts
//	@Produce	json
//	@Param		slug	path		string	true	"Post date, YYYY-MM-DD"
//	@Success	200		{object}	PostDetail
//	@Success	304		"Not modified"
//	@Failure	404		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/posts/{slug} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	page, err := h.svc.ReadPost(slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("api: read post", slog.String("slug", slug), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	etag := checksum.ETag(page)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	// ReadPost only succeeds for dated slugs.
	date, _ := recovery.DateFromName(slug)
	post := models.NewPost(date, recovery.Lede(page))
	writeJSON(w, http.StatusOK, PostDetail{
		PostItem: newPostItem(h.svc.PostsDir(), post),
		HTML:     string(page),
	})
}

// Search handles GET /api/search.
//
//	@Summary	Search post ledes
//	@Tags		search
//	@Produce	json
//	@Param		q		query		string	true	"Search query"
//	@Param		limit	query		int		false	"Max results"
//	@Success	200		{object}	SearchResponse
//	@Failure	400		{object}	errResponse
//	@Failure	503		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	posts, err := h.svc.Search(q, limit)
	if err != nil {
		if errors.Is(err, apperr.ErrNoCatalog) {
			writeJSON(w, http.StatusServiceUnavailable, errorBody("search requires the sqlite catalog"))
			return
		}
		slog.Error("api: search", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	results := make([]PostItem, 0, len(posts))
	for _, p := range posts {
		results = append(results, newPostItem(h.svc.PostsDir(), p))
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Publish handles POST /api/publish.
//
//	@Summary	Publish a briefing file from disk
//	@Tags		posts
//	@Accept		json
//	@Produce	json
//	@Param		body	body		PublishRequest	true	"Briefing location"
//	@Success	201		{object}	publisher.Result
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/publish [post]
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}

	res, err := h.svc.Publish(r.Context(), req.Path)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNoDate), errors.Is(err, apperr.ErrNotRegularFile):
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		default:
			slog.Error("api: publish", slog.String("path", req.Path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	if h.events != nil {
		h.events.PublishPost(res.Post.Slug, res.Post.Lede)
	}
	writeJSON(w, http.StatusCreated, res)
}
