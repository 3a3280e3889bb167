package posts

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/runtimeconfig"
	"github.com/goliatone/go-blog/internal/urls"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Category is a configured category with the number of posts filed under it.
type Category struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// Option customises a Catalog.
type Option func(*Catalog)

// WithLogger sets the catalog logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCategories replaces the default category catalog.
func WithCategories(categories []runtimeconfig.CategoryConfig) Option {
	return func(c *Catalog) {
		c.categories = append([]runtimeconfig.CategoryConfig(nil), categories...)
	}
}

// Catalog serves queries over an immutable snapshot of every post. Reload
// swaps the snapshot; readers never observe a partial load.
type Catalog struct {
	source     interfaces.PostSource
	categories []runtimeconfig.CategoryConfig
	logger     interfaces.Logger

	mu   sync.RWMutex
	snap *snapshot
}

type snapshot struct {
	all      []*interfaces.Post
	bySlug   map[string]*interfaces.Post
	loadedAt time.Time
}

// NewCatalog constructs an empty catalog over source. Call Reload to load it.
func NewCatalog(source interfaces.PostSource, opts ...Option) *Catalog {
	c := &Catalog{
		source:     source,
		categories: runtimeconfig.DefaultCategories(),
		logger:     logging.NoOp(),
		snap:       newSnapshot(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newSnapshot(posts []*interfaces.Post) *snapshot {
	all := make([]*interfaces.Post, 0, len(posts))
	bySlug := make(map[string]*interfaces.Post, len(posts))
	for _, post := range posts {
		if post == nil {
			continue
		}
		all = append(all, post)
		bySlug[post.Slug] = post
	}
	SortByDate(all)
	return &snapshot{all: all, bySlug: bySlug, loadedAt: time.Now()}
}

// Reload loads every post from the source and swaps the snapshot.
func (c *Catalog) Reload(ctx context.Context) error {
	start := time.Now()
	loaded, err := c.source.LoadAll(ctx)
	if err != nil {
		c.logger.Error("posts.catalog.reload.failed", "error", err)
		return fmt.Errorf("posts: reload: %w", err)
	}
	snap := newSnapshot(loaded)

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()

	c.logger.Info("posts.catalog.reload.completed",
		"posts", len(snap.all),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Replace installs posts as the current snapshot without touching the source.
func (c *Catalog) Replace(posts []*interfaces.Post) {
	snap := newSnapshot(posts)
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
}

func (c *Catalog) current() *snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// LoadedAt reports when the current snapshot was built.
func (c *Catalog) LoadedAt() time.Time {
	return c.current().loadedAt
}

// All returns every post, newest first.
func (c *Catalog) All() []*interfaces.Post {
	return slices.Clone(c.current().all)
}

// Get returns the post stored under slug.
func (c *Catalog) Get(slug string) (*interfaces.Post, error) {
	post, ok := c.current().bySlug[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPostNotFound, slug)
	}
	return post, nil
}

// GetInCategory returns the post stored under slug when it belongs to
// category.
func (c *Catalog) GetInCategory(category, slug string) (*interfaces.Post, error) {
	post, err := c.Get(slug)
	if err != nil {
		return nil, err
	}
	if !post.Categorized() || !SameCategory(post.FrontMatter.Category, category) {
		return nil, fmt.Errorf("%w: %s/%s", ErrPostNotFound, category, slug)
	}
	return post, nil
}

// ByCategory returns the posts filed under category ordered by tier
// priority, then newest first.
func (c *Catalog) ByCategory(category string) []*interfaces.Post {
	category = markdown.NormalizeCategory(category)
	if category == "" {
		return []*interfaces.Post{}
	}
	var matched []*interfaces.Post
	for _, post := range c.current().all {
		if post.Categorized() && SameCategory(post.FrontMatter.Category, category) {
			matched = append(matched, post)
		}
	}
	SortByTier(matched)
	if matched == nil {
		return []*interfaces.Post{}
	}
	return matched
}

// SlugsByCategory returns the slugs of ByCategory.
func (c *Catalog) SlugsByCategory(category string) []string {
	posts := c.ByCategory(category)
	slugs := make([]string, len(posts))
	for i, post := range posts {
		slugs[i] = post.Slug
	}
	return slugs
}

// Uncategorized returns posts without a category, newest first. These make
// up the main blog listing.
func (c *Catalog) Uncategorized() []*interfaces.Post {
	posts := []*interfaces.Post{}
	for _, post := range c.current().all {
		if !post.Categorized() {
			posts = append(posts, post)
		}
	}
	return posts
}

// Tags returns the sorted unique tags of uncategorized posts.
func (c *Catalog) Tags() []string {
	seen := map[string]struct{}{}
	tags := []string{}
	for _, post := range c.Uncategorized() {
		for _, tag := range post.FrontMatter.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	slices.Sort(tags)
	return tags
}

// Categories returns configured categories that hold at least one post, in
// configuration order.
func (c *Catalog) Categories() []Category {
	categories := []Category{}
	for _, cfg := range c.categories {
		slug := markdown.NormalizeCategory(cfg.Slug)
		count := len(c.ByCategory(slug))
		if count == 0 {
			continue
		}
		categories = append(categories, Category{
			Slug:        slug,
			Title:       cfg.Title,
			Description: cfg.Description,
			Count:       count,
		})
	}
	return categories
}

// Category returns the configured category for slug, including a zero count.
// slug may be the category name or its URL form.
func (c *Catalog) Category(slug string) (Category, bool) {
	for _, cfg := range c.categories {
		if !SameCategory(cfg.Slug, slug) {
			continue
		}
		normalized := markdown.NormalizeCategory(cfg.Slug)
		return Category{
			Slug:        normalized,
			Title:       cfg.Title,
			Description: cfg.Description,
			Count:       len(c.ByCategory(normalized)),
		}, true
	}
	return Category{}, false
}

// SameCategory reports whether two category names refer to the same
// category, either as normalized names or by URL form.
func SameCategory(a, b string) bool {
	a, b = markdown.NormalizeCategory(a), markdown.NormalizeCategory(b)
	if a == "" || b == "" {
		return a == b
	}
	return a == b || urls.CategorySlug(a) == urls.CategorySlug(b)
}
