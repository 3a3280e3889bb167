package resources

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sort"
	"strings"

	slug "github.com/goliatone/go-slug"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/validation"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

//go:embed schema.json
var schemaJSON []byte

var documentSchema = validation.MustCompile("resources.schema.json", schemaJSON)

// Link is a single curated resource.
type Link struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Subcategory groups links under a heading.
type Subcategory struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Links       []Link `json:"links"`
}

// Category is a top-level resource section addressed by slug.
type Category struct {
	Slug          string        `json:"slug"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Document is the on-disk resources file.
type Document struct {
	Categories []Category `json:"categories"`
}

// Stats summarises a directory.
type Stats struct {
	Categories    int `json:"categories"`
	Subcategories int `json:"subcategories"`
	Links         int `json:"links"`
}

// Option customises Load.
type Option func(*loadOptions)

type loadOptions struct {
	logger interfaces.Logger
	fs     fs.FS
}

// WithLogger sets the logger used while loading.
func WithLogger(logger interfaces.Logger) Option {
	return func(o *loadOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFilesystem reads the document from filesystem instead of the OS.
func WithFilesystem(filesystem fs.FS) Option {
	return func(o *loadOptions) {
		o.fs = filesystem
	}
}

// Load reads the resources document at path, validates it against the
// embedded schema and checks category slugs.
func Load(ctx context.Context, path string, opts ...Option) (*Directory, error) {
	options := loadOptions{logger: logging.NoOp()}
	for _, opt := range opts {
		opt(&options)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var (
		data []byte
		err  error
	)
	if options.fs != nil {
		data, err = fs.ReadFile(options.fs, path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentMissing, path)
		}
		return nil, fmt.Errorf("resources: read %s: %w", path, err)
	}

	dir, err := Parse(data)
	if err != nil {
		options.logger.Error("resources.load.invalid", "path", path, "error", err)
		return nil, err
	}

	stats := dir.Stats()
	options.logger.Debug("resources.load.completed",
		"path", path,
		"categories", stats.Categories,
		"subcategories", stats.Subcategories,
		"links", stats.Links,
	)
	return dir, nil
}

// Parse validates raw JSON and builds a Directory.
func Parse(data []byte) (*Directory, error) {
	if err := documentSchema.ValidateJSON(data); err != nil {
		return nil, invalidDocument(err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, invalidDocument(err)
	}
	if err := checkSlugs(doc.Categories); err != nil {
		return nil, err
	}
	return NewDirectory(doc), nil
}

func checkSlugs(categories []Category) error {
	var issues []string
	seen := make(map[string]int, len(categories))
	for i, category := range categories {
		value := strings.TrimSpace(category.Slug)
		if !slug.IsValid(value) {
			issues = append(issues, fmt.Sprintf("/categories/%d/slug: %q is not a valid slug", i, category.Slug))
			continue
		}
		if first, ok := seen[value]; ok {
			issues = append(issues, fmt.Sprintf("/categories/%d/slug: %q duplicates /categories/%d", i, value, first))
			continue
		}
		seen[value] = i
	}
	if len(issues) > 0 {
		return invalidDocument(errors.New(strings.Join(issues, "; ")))
	}
	return nil
}

// Directory serves read-only queries over a validated document.
type Directory struct {
	categories []Category
	bySlug     map[string]int
}

// NewDirectory indexes doc by trimmed category slug. The document is copied
// so later edits to doc do not leak into the directory.
func NewDirectory(doc Document) *Directory {
	categories := cloneCategories(doc.Categories)
	bySlug := make(map[string]int, len(categories))
	for i := range categories {
		categories[i].Slug = strings.TrimSpace(categories[i].Slug)
		bySlug[categories[i].Slug] = i
	}
	return &Directory{categories: categories, bySlug: bySlug}
}

// Categories returns every category in document order.
func (d *Directory) Categories() []Category {
	if d == nil {
		return []Category{}
	}
	return cloneCategories(d.categories)
}

// Category returns the category with slug.
func (d *Directory) Category(slug string) (Category, error) {
	if d == nil {
		return Category{}, fmt.Errorf("%w: %s", ErrCategoryNotFound, slug)
	}
	idx, ok := d.bySlug[strings.TrimSpace(slug)]
	if !ok {
		return Category{}, fmt.Errorf("%w: %s", ErrCategoryNotFound, slug)
	}
	return cloneCategory(d.categories[idx]), nil
}

// Subcategories returns the category's subcategories ordered by link count,
// fewest first. Equal counts keep document order.
func (d *Directory) Subcategories(slug string) ([]Subcategory, error) {
	category, err := d.Category(slug)
	if err != nil {
		return nil, err
	}
	subs := category.Subcategories
	sort.SliceStable(subs, func(i, j int) bool {
		return len(subs[i].Links) < len(subs[j].Links)
	})
	return subs, nil
}

// Stats counts categories, subcategories and links.
func (d *Directory) Stats() Stats {
	var stats Stats
	if d == nil {
		return stats
	}
	stats.Categories = len(d.categories)
	for _, category := range d.categories {
		stats.Subcategories += len(category.Subcategories)
		for _, sub := range category.Subcategories {
			stats.Links += len(sub.Links)
		}
	}
	return stats
}

// Document returns a copy of the underlying document.
func (d *Directory) Document() Document {
	return Document{Categories: d.Categories()}
}

func cloneCategories(categories []Category) []Category {
	out := make([]Category, len(categories))
	for i, category := range categories {
		out[i] = cloneCategory(category)
	}
	return out
}

func cloneCategory(category Category) Category {
	subs := make([]Subcategory, len(category.Subcategories))
	for i, sub := range category.Subcategories {
		sub.Links = slices.Clone(sub.Links)
		subs[i] = sub
	}
	category.Subcategories = subs
	return category
}
