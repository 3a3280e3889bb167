package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-blog/internal/feeds"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/internal/resources"
	"github.com/goliatone/go-blog/internal/search"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

type healthResponse struct {
	Status   string    `json:"status"`
	Posts    int       `json:"posts"`
	LoadedAt time.Time `json:"loadedAt"`
}

type postListResponse struct {
	Posts []posts.Summary `json:"posts"`
	Total int             `json:"total"`
	Query string          `json:"query,omitempty"`
	Stage search.Stage    `json:"stage"`
}

type categoryPostsResponse struct {
	Category posts.Category `json:"category"`
	postListResponse
}

type resourcesResponse struct {
	Categories []resources.Category `json:"categories"`
	Stats      resources.Stats      `json:"stats"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Posts:    len(s.deps.Catalog.All()),
		LoadedAt: s.deps.Catalog.LoadedAt(),
	})
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := search.Query{
		Text: query.Get("q"),
		Tags: splitList(query.Get("tags")),
		Mode: search.ParseMode(query.Get("mode")),
	}
	writeJSON(w, http.StatusOK, s.listResponse(s.deps.Catalog.Uncategorized(), q))
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.deps.Catalog.Get(chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts.NewDetail(post, s.postURL(post)))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Catalog.Categories())
}

func (s *Server) handleListCategoryPosts(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "category")
	category, ok := s.deps.Catalog.Category(slug)
	if !ok {
		writeError(w, fmt.Errorf("%w: %s", errCategoryUnknown, slug))
		return
	}

	query := r.URL.Query()
	listed := posts.FilterTier(s.deps.Catalog.ByCategory(category.Slug), query.Get("tier"))
	q := search.Query{
		Text: query.Get("q"),
		Tags: splitList(query.Get("tags")),
		Mode: search.ModeFuzzy,
	}
	writeJSON(w, http.StatusOK, categoryPostsResponse{
		Category:         category,
		postListResponse: s.listResponse(listed, q),
	})
}

func (s *Server) handleGetCategoryPost(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if _, ok := s.deps.Catalog.Category(category); !ok {
		writeError(w, fmt.Errorf("%w: %s", errCategoryUnknown, category))
		return
	}
	post, err := s.deps.Catalog.GetInCategory(category, chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts.NewDetail(post, s.postURL(post)))
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Catalog.Tags())
}

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	dir := s.resources()
	if dir == nil {
		writeError(w, errResourcesUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, resourcesResponse{
		Categories: dir.Categories(),
		Stats:      dir.Stats(),
	})
}

// handleGetResource returns one resource category with its subcategories
// ordered by ascending link count.
func (s *Server) handleGetResource(w http.ResponseWriter, r *http.Request) {
	dir := s.resources()
	if dir == nil {
		writeError(w, errResourcesUnavailable)
		return
	}
	slug := chi.URLParam(r, "slug")
	category, err := dir.Category(slug)
	if err != nil {
		writeError(w, err)
		return
	}
	subcategories, err := dir.Subcategories(slug)
	if err != nil {
		writeError(w, err)
		return
	}
	category.Subcategories = subcategories
	writeJSON(w, http.StatusOK, category)
}

func (s *Server) handleRSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", s.deps.Feeds.CacheControl())
	writeText(w, feeds.RSSContentType, s.deps.Feeds.RSS(s.deps.Catalog.All(), s.now()))
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	writeText(w, feeds.SitemapContentType, s.deps.Feeds.Sitemap(s.deps.Catalog.All(), s.now()))
}

func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	writeText(w, feeds.RobotsContentType, s.deps.Feeds.Robots())
}

func (s *Server) listResponse(listed []*interfaces.Post, q search.Query) postListResponse {
	result := s.deps.Search.Search(listed, q)
	return postListResponse{
		Posts: posts.Summaries(result.Posts, s.postURL),
		Total: len(result.Posts),
		Query: q.Text,
		Stage: result.Stage,
	}
}

func (s *Server) postURL(post *interfaces.Post) string {
	if s.deps.URLs == nil {
		return ""
	}
	return s.deps.URLs.Post(post)
}

func (s *Server) resources() *resources.Directory {
	if s.deps.Resources == nil {
		return nil
	}
	return s.deps.Resources()
}
