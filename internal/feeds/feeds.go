package feeds

import (
	"fmt"
	"html"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/internal/runtimeconfig"
	"github.com/goliatone/go-blog/internal/urls"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Content types served with each document.
const (
	RSSContentType     = "application/xml; charset=utf-8"
	SitemapContentType = "application/xml"
	RobotsContentType  = "text/plain"
)

// DefaultCacheControl is sent with the feed when none is configured.
const DefaultCacheControl = "public, max-age=3600, s-maxage=3600"

// Builder renders the RSS feed, the sitemap and robots.txt.
type Builder struct {
	site     runtimeconfig.SiteConfig
	sitemap  runtimeconfig.SitemapConfig
	robots   runtimeconfig.RobotsConfig
	maxItems int
	cache    string
	urls     *urls.Builder
}

// New constructs a Builder from cfg, producing links through builder.
func New(cfg runtimeconfig.Config, builder *urls.Builder) *Builder {
	cache := strings.TrimSpace(cfg.Generator.FeedCacheControl)
	if cache == "" {
		cache = DefaultCacheControl
	}
	return &Builder{
		site:     cfg.Site,
		sitemap:  cfg.Sitemap,
		robots:   cfg.Robots,
		maxItems: cfg.Generator.MaxFeedItems,
		cache:    cache,
		urls:     builder,
	}
}

// CacheControl returns the Cache-Control value for the feed.
func (b *Builder) CacheControl() string {
	return b.cache
}

// RSS renders an RSS 2.0 feed of posts, newest first. generatedAt becomes
// the channel lastBuildDate.
func (b *Builder) RSS(all []*interfaces.Post, generatedAt time.Time) string {
	items := slices.Clone(all)
	posts.SortByDate(items)
	if b.maxItems > 0 && len(items) > b.maxItems {
		items = items[:b.maxItems]
	}

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">` + "\n")
	builder.WriteString("  <channel>\n")
	builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(b.site.Title)))
	builder.WriteString(fmt.Sprintf("    <link>%s</link>\n", escapeXML(b.urls.Blog())))
	builder.WriteString(fmt.Sprintf("    <description>%s</description>\n", escapeXML(b.site.Description)))
	builder.WriteString(fmt.Sprintf("    <language>%s</language>\n", escapeXML(b.site.Language)))
	builder.WriteString(fmt.Sprintf("    <lastBuildDate>%s</lastBuildDate>\n", generatedAt.UTC().Format(time.RFC1123Z)))
	builder.WriteString(fmt.Sprintf(`    <atom:link href="%s" rel="self" type="application/rss+xml" />`+"\n", escapeXMLAttr(b.urls.RSS())))
	for _, post := range items {
		link := b.urls.Post(post)
		builder.WriteString("    <item>\n")
		builder.WriteString(fmt.Sprintf("      <title>%s</title>\n", escapeXML(post.FrontMatter.Title)))
		builder.WriteString(fmt.Sprintf("      <link>%s</link>\n", escapeXML(link)))
		builder.WriteString(fmt.Sprintf("      <guid isPermaLink=\"true\">%s</guid>\n", escapeXML(link)))
		builder.WriteString(fmt.Sprintf("      <description>%s</description>\n", escapeXML(post.FrontMatter.Description)))
		if published := post.FrontMatter.PublishedAt; !published.IsZero() {
			builder.WriteString(fmt.Sprintf("      <pubDate>%s</pubDate>\n", published.UTC().Format(time.RFC1123Z)))
		}
		for _, tag := range post.FrontMatter.Tags {
			builder.WriteString(fmt.Sprintf("      <category>%s</category>\n", escapeXML(tag)))
		}
		builder.WriteString("    </item>\n")
	}
	builder.WriteString("  </channel>\n")
	builder.WriteString(`</rss>` + "\n")
	return builder.String()
}

// Sitemap renders the configured static routes followed by one entry per
// post. Static routes use generatedAt as their lastmod.
func (b *Builder) Sitemap(all []*interfaces.Post, generatedAt time.Time) string {
	items := slices.Clone(all)
	posts.SortByDate(items)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, route := range b.sitemap.Routes {
		writeSitemapEntry(&builder, b.urls.Absolute(route.Path), generatedAt.UTC().Format(time.RFC3339), route.ChangeFreq, route.Priority)
	}
	for _, post := range items {
		lastMod := ""
		if published := post.FrontMatter.PublishedAt; !published.IsZero() {
			lastMod = published.UTC().Format("2006-01-02")
		}
		writeSitemapEntry(&builder, b.urls.Post(post), lastMod, b.sitemap.PostChangeFreq, b.sitemap.PostPriority)
	}
	builder.WriteString(`</urlset>` + "\n")
	return builder.String()
}

func writeSitemapEntry(builder *strings.Builder, location, lastMod, changeFreq string, priority float64) {
	builder.WriteString("  <url>\n")
	builder.WriteString(fmt.Sprintf("    <loc>%s</loc>\n", escapeXML(location)))
	if lastMod != "" {
		builder.WriteString(fmt.Sprintf("    <lastmod>%s</lastmod>\n", lastMod))
	}
	if changeFreq != "" {
		builder.WriteString(fmt.Sprintf("    <changefreq>%s</changefreq>\n", escapeXML(changeFreq)))
	}
	builder.WriteString("    <priority>" + strconv.FormatFloat(priority, 'f', -1, 64) + "</priority>\n")
	builder.WriteString("  </url>\n")
}

// Robots renders robots.txt with a trailing sitemap reference.
func (b *Builder) Robots() string {
	userAgent := strings.TrimSpace(b.robots.UserAgent)
	if userAgent == "" {
		userAgent = "*"
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("User-agent: %s\n", userAgent))
	for _, path := range b.robots.Allow {
		builder.WriteString(fmt.Sprintf("Allow: %s\n", path))
	}
	for _, path := range b.robots.Disallow {
		builder.WriteString(fmt.Sprintf("Disallow: %s\n", path))
	}
	builder.WriteString("\n")
	builder.WriteString(fmt.Sprintf("Sitemap: %s\n", b.urls.Sitemap()))
	return builder.String()
}

func escapeXML(value string) string {
	return html.EscapeString(value)
}

func escapeXMLAttr(value string) string {
	return html.EscapeString(value)
}
