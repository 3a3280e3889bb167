package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MarkdownParser defines how raw Markdown bytes are converted into HTML.
// Implementations must be safe for concurrent use so a single instance can
// serve the loader workers and the HTTP handlers.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown rendering. Field names stay readable for
// YAML configuration and CLI flags.
type ParseOptions struct {
	Extensions  []string `yaml:"extensions" json:"extensions"`
	HardWraps   bool     `yaml:"hard_wraps" json:"hard_wraps"`
	SafeMode    bool     `yaml:"safe_mode" json:"safe_mode"`
	Typographer bool     `yaml:"typographer" json:"typographer"`
}

// ComponentExpander rewrites component tags embedded in Markdown/MDX sources
// into HTML before the Markdown renderer runs.
type ComponentExpander interface {
	Expand(ctx context.Context, source []byte) ([]byte, error)
}

// Document represents a Markdown file with parsed metadata and content.
type Document struct {
	FilePath     string
	Slug         string
	FrontMatter  FrontMatter
	Body         []byte
	BodyHTML     []byte
	LastModified time.Time
	// Checksum stores the SHA-256 digest of the original file content so sync
	// workflows can detect changes without re-reading rendered output.
	Checksum []byte
}

// FrontMatter models the metadata block at the top of a post. Defaults are
// applied during parsing so every field is populated for consumers.
type FrontMatter struct {
	Title       string         `yaml:"title" json:"title"`
	Date        string         `yaml:"date" json:"date"`
	Description string         `yaml:"description" json:"description"`
	Tags        []string       `yaml:"tags" json:"tags"`
	ReadTime    string         `yaml:"readTime" json:"readTime"`
	ClientSide  bool           `yaml:"clientSide" json:"clientSide"`
	Category    string         `yaml:"category" json:"category,omitempty"`
	Tier        string         `yaml:"tier" json:"tier,omitempty"`
	Image       string         `yaml:"image" json:"image,omitempty"`
	Custom      map[string]any `yaml:",inline" json:"custom,omitempty"`
	// PublishedAt is Date parsed into a time. It is zero when Date cannot be
	// interpreted.
	PublishedAt time.Time `yaml:"-" json:"-"`
	// Keys lists the frontmatter keys present in the source, before defaults.
	Keys []string `yaml:"-" json:"-"`
}

// Post is a rendered blog entry keyed by its slug.
type Post struct {
	ID          uuid.UUID   `json:"id"`
	Slug        string      `json:"slug"`
	FrontMatter FrontMatter `json:"frontMatter"`
	Body        string      `json:"-"`
	HTML        string      `json:"content,omitempty"`
	Plain       string      `json:"-"`
	Path        string      `json:"-"`
	Checksum    string      `json:"checksum,omitempty"`
	ModTime     time.Time   `json:"-"`
}

// Categorized reports whether the post belongs to a themed category.
func (p *Post) Categorized() bool {
	return p != nil && p.FrontMatter.Category != ""
}

// PostSource loads posts from a backing store.
type PostSource interface {
	LoadAll(ctx context.Context) ([]*Post, error)
	Load(ctx context.Context, slug string) (*Post, error)
}
