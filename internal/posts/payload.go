package posts

import "github.com/goliatone/go-blog/pkg/interfaces"

// Summary is the listing shape of a post. It carries no rendered content.
type Summary struct {
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	Date          string   `json:"date"`
	FormattedDate string   `json:"formattedDate"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	ReadTime      string   `json:"readTime"`
	ClientSide    bool     `json:"clientSide"`
	Category      string   `json:"category,omitempty"`
	Tier          string   `json:"tier,omitempty"`
	Image         string   `json:"image,omitempty"`
	URL           string   `json:"url,omitempty"`
}

// Detail is a summary plus the rendered body and any extra frontmatter.
type Detail struct {
	Summary
	Content string         `json:"content"`
	Custom  map[string]any `json:"custom,omitempty"`
}

// NewSummary projects post into a Summary. url is the canonical link and may
// be empty.
func NewSummary(post *interfaces.Post, url string) Summary {
	fm := post.FrontMatter
	tags := fm.Tags
	if tags == nil {
		tags = []string{}
	}
	return Summary{
		Slug:          post.Slug,
		Title:         fm.Title,
		Date:          fm.Date,
		FormattedDate: FormatDate(fm.PublishedAt),
		Description:   fm.Description,
		Tags:          tags,
		ReadTime:      fm.ReadTime,
		ClientSide:    fm.ClientSide,
		Category:      fm.Category,
		Tier:          fm.Tier,
		Image:         fm.Image,
		URL:           url,
	}
}

// NewDetail projects post into a Detail.
func NewDetail(post *interfaces.Post, url string) Detail {
	detail := Detail{
		Summary: NewSummary(post, url),
		Content: post.HTML,
	}
	if len(post.FrontMatter.Custom) > 0 {
		detail.Custom = post.FrontMatter.Custom
	}
	return detail
}

// Summaries projects every post, keeping order. link may be nil.
func Summaries(all []*interfaces.Post, link func(*interfaces.Post) string) []Summary {
	out := make([]Summary, 0, len(all))
	for _, post := range all {
		url := ""
		if link != nil {
			url = link(post)
		}
		out = append(out, NewSummary(post, url))
	}
	return out
}
