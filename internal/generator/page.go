package generator

import (
	"bytes"
	"html/template"

	"github.com/goliatone/go-blog/internal/posts"
)

var pageTemplate = template.Must(template.New("post").Parse(`<!DOCTYPE html>
<html lang="{{.Language}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Post.Title}} | {{.SiteTitle}}</title>
<link rel="alternate" type="application/rss+xml" title="{{.SiteTitle}}" href="{{.FeedURL}}">
</head>
<body>
<article>
<h1>{{.Post.Title}}</h1>
<p>{{if .Post.FormattedDate}}<time datetime="{{.Post.Date}}">{{.Post.FormattedDate}}</time> · {{end}}{{.Post.ReadTime}}</p>
{{.Content}}
</article>
</body>
</html>
`))

type pageData struct {
	Language  string
	SiteTitle string
	FeedURL   string
	Post      posts.Detail
	Content   template.HTML
}

// renderPage wraps rendered post HTML in a minimal document. The body was
// produced by the Markdown renderer and is trusted.
func renderPage(data pageData) ([]byte, error) {
	data.Content = template.HTML(data.Post.Content)
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
