package urls

import (
	"fmt"
	"net/url"
	"strings"

	goslug "github.com/goliatone/go-slug"
	urlkit "github.com/goliatone/go-urlkit"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Route names registered on the site group.
const (
	RouteBlog             = "blog"
	RoutePost             = "post"
	RouteCategory         = "category"
	RouteCategoryPost     = "category_post"
	RouteRSS              = "rss"
	RouteSitemap          = "sitemap"
	RouteRobots           = "robots"
	RouteResources        = "resources"
	RouteResourceCategory = "resource_category"
)

const siteGroup = "site"

// Builder produces absolute URLs for blog resources from a go-urlkit route
// manager rooted at the site base URL.
type Builder struct {
	base    string
	manager *urlkit.RouteManager
	group   *urlkit.Group
}

// New constructs a Builder for baseURL, which must be an absolute http(s)
// URL. Trailing slashes are dropped.
func New(baseURL string) (*Builder, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	parsed, err := url.Parse(base)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("urls: invalid base url %q", baseURL)
	}

	manager := urlkit.NewRouteManager(&urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name:    siteGroup,
				BaseURL: base,
				Paths: map[string]string{
					RouteBlog:             "/blog",
					RoutePost:             "/blog/:slug",
					RouteCategory:         "/blog/:category",
					RouteCategoryPost:     "/blog/:category/:slug",
					RouteRSS:              "/rss",
					RouteSitemap:          "/sitemap.xml",
					RouteRobots:           "/robots.txt",
					RouteResources:        "/resources",
					RouteResourceCategory: "/resources/:slug",
				},
			},
		},
	})

	group, err := lookupGroup(manager, siteGroup)
	if err != nil {
		return nil, err
	}
	return &Builder{base: base, manager: manager, group: group}, nil
}

// MustNew is New that panics on an invalid base URL.
func MustNew(baseURL string) *Builder {
	b, err := New(baseURL)
	if err != nil {
		panic(err)
	}
	return b
}

// Base returns the normalized base URL.
func (b *Builder) Base() string {
	return b.base
}

// Route builds the named route with params.
func (b *Builder) Route(name string, params map[string]any) (string, error) {
	builder, err := safeBuilder(b.group, name)
	if err != nil {
		return "", err
	}
	for key, value := range params {
		builder.WithParam(key, value)
	}
	return builder.Build()
}

// Absolute joins path onto the base URL. "/" and "" yield the base itself.
func (b *Builder) Absolute(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || path == "/" {
		return b.base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return b.base + path
}

// Post returns the canonical URL of post. Categorized posts live under their
// category.
func (b *Builder) Post(post *interfaces.Post) string {
	if post.Categorized() {
		return b.CategoryPost(post.FrontMatter.Category, post.Slug)
	}
	return b.fallback(RoutePost, "/blog/"+post.Slug, map[string]any{"slug": post.Slug})
}

// CategorySlug returns the URL path segment of a category name, so
// "Side Projects" becomes "side-projects".
func CategorySlug(category string) string {
	trimmed := strings.ToLower(strings.TrimSpace(category))
	if trimmed == "" {
		return ""
	}
	if normalized, err := goslug.Normalize(trimmed); err == nil && normalized != "" {
		return normalized
	}
	return trimmed
}

// CategoryPost returns the URL of slug within category.
func (b *Builder) CategoryPost(category, slug string) string {
	category = CategorySlug(category)
	return b.fallback(RouteCategoryPost, "/blog/"+category+"/"+slug, map[string]any{
		"category": category,
		"slug":     slug,
	})
}

// Category returns the listing URL of category.
func (b *Builder) Category(category string) string {
	category = CategorySlug(category)
	return b.fallback(RouteCategory, "/blog/"+category, map[string]any{"category": category})
}

// ResourceCategory returns the URL of a resource directory category.
func (b *Builder) ResourceCategory(slug string) string {
	return b.fallback(RouteResourceCategory, "/resources/"+slug, map[string]any{"slug": slug})
}

// Blog returns the blog listing URL.
func (b *Builder) Blog() string { return b.fallback(RouteBlog, "/blog", nil) }

// RSS returns the feed URL.
func (b *Builder) RSS() string { return b.fallback(RouteRSS, "/rss", nil) }

// Sitemap returns the sitemap URL.
func (b *Builder) Sitemap() string { return b.fallback(RouteSitemap, "/sitemap.xml", nil) }

func (b *Builder) fallback(route, path string, params map[string]any) string {
	if built, err := b.Route(route, params); err == nil && built != "" {
		return built
	}
	return b.Absolute(path)
}

func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("urls: route group %q not found", name)
		}
	}()
	group = manager.Group(name)
	return group, err
}

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("urls: route %q not found: %v", route, rec)
		}
	}()
	builder = group.Builder(route)
	return builder, err
}
