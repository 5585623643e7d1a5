package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dailybrief/internal/publisher"
)

// Broadcaster streams live-reload events and is told about new posts.
type Broadcaster interface {
	http.Handler
	PublishPost(slug, lede string)
}

// NewRouter creates a chi router with all API routes mounted.
// events, if non-nil, is mounted at GET /events behind the same auth.
func NewRouter(svc *publisher.Service, authEnabled bool, token string, events Broadcaster) chi.Router {
	h := NewHandler(svc, events)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/posts", h.ListPosts)
	r.Get("/posts/{slug}", h.GetPost)
	r.Get("/search", h.Search)
	r.Post("/publish", h.Publish)

	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	return r
}
