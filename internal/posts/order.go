package posts

import (
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// TierAll is the tier filter value that keeps every post.
const TierAll = "all"

// TierPriority ranks tiers for category listings. Unknown tiers rank 0.
func TierPriority(tier string) int {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case markdown.TierReference:
		return 3
	case markdown.TierRevisit:
		return 2
	case markdown.TierRead:
		return 1
	default:
		return 0
	}
}

// FilterTier keeps posts whose tier equals tier. An empty tier or "all"
// returns the input unchanged.
func FilterTier(posts []*interfaces.Post, tier string) []*interfaces.Post {
	tier = strings.ToLower(strings.TrimSpace(tier))
	if tier == "" || tier == TierAll {
		return posts
	}
	filtered := make([]*interfaces.Post, 0, len(posts))
	for _, post := range posts {
		if post.FrontMatter.Tier == tier {
			filtered = append(filtered, post)
		}
	}
	return filtered
}

// FormatDate renders t the way post listings show it. The zero time renders
// as an empty string.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("January 2, 2006")
}

// SortByDate orders posts newest first in place. Posts without a parseable
// date sort last and ties break by slug.
func SortByDate(posts []*interfaces.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return newer(posts[i], posts[j])
	})
}

// SortByTier orders posts by tier priority and then newest first, in place.
func SortByTier(posts []*interfaces.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		pi, pj := TierPriority(posts[i].FrontMatter.Tier), TierPriority(posts[j].FrontMatter.Tier)
		if pi != pj {
			return pi > pj
		}
		return newer(posts[i], posts[j])
	})
}

func newer(a, b *interfaces.Post) bool {
	ta, tb := a.FrontMatter.PublishedAt, b.FrontMatter.PublishedAt
	switch {
	case ta.IsZero() != tb.IsZero():
		return tb.IsZero()
	case !ta.Equal(tb):
		return ta.After(tb)
	default:
		return a.Slug < b.Slug
	}
}
