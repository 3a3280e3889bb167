package search

import "github.com/goliatone/go-blog/pkg/interfaces"

// IndexEntry is the client side search document for one post.
type IndexEntry struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category,omitempty"`
	Tier        string   `json:"tier,omitempty"`
	Date        string   `json:"date"`
	Text        string   `json:"text"`
}

// BuildIndex projects posts into search documents, preserving order.
func BuildIndex(posts []*interfaces.Post) []IndexEntry {
	entries := make([]IndexEntry, 0, len(posts))
	for _, post := range posts {
		f := fields(post)
		tags := post.FrontMatter.Tags
		if tags == nil {
			tags = []string{}
		}
		entries = append(entries, IndexEntry{
			Slug:        post.Slug,
			Title:       post.FrontMatter.Title,
			Description: post.FrontMatter.Description,
			Tags:        tags,
			Category:    post.FrontMatter.Category,
			Tier:        post.FrontMatter.Tier,
			Date:        post.FrontMatter.Date,
			Text:        f[0],
		})
	}
	return entries
}
