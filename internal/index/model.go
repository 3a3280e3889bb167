package index

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

// PostRecord is the persisted projection of a post. Rendered HTML stays on
// disk; the index only carries what listings and change detection need.
type PostRecord struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID          uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Slug        string    `bun:"slug,notnull,unique" json:"slug"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description" json:"description"`
	Category    string    `bun:"category" json:"category,omitempty"`
	Tier        string    `bun:"tier" json:"tier,omitempty"`
	Tags        []string  `bun:"tags,type:jsonb" json:"tags"`
	PublishedAt time.Time `bun:"published_at,nullzero" json:"published_at"`
	ReadTime    string    `bun:"read_time" json:"read_time"`
	Checksum    string    `bun:"checksum,notnull" json:"checksum"`
	Path        string    `bun:"path" json:"path"`
	CreatedAt   time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// NewRecord projects post into a record. Timestamps are left to the caller.
func NewRecord(post *interfaces.Post) *PostRecord {
	tags := append([]string{}, post.FrontMatter.Tags...)
	return &PostRecord{
		ID:          post.ID,
		Slug:        post.Slug,
		Title:       post.FrontMatter.Title,
		Description: post.FrontMatter.Description,
		Category:    post.FrontMatter.Category,
		Tier:        post.FrontMatter.Tier,
		Tags:        tags,
		PublishedAt: post.FrontMatter.PublishedAt,
		ReadTime:    post.FrontMatter.ReadTime,
		Checksum:    post.Checksum,
		Path:        post.Path,
	}
}

// updatableColumns lists the columns Sync rewrites when a checksum changes.
var updatableColumns = []string{
	"title",
	"description",
	"category",
	"tier",
	"tags",
	"published_at",
	"read_time",
	"checksum",
	"path",
	"updated_at",
}
