package urls

import (
	"testing"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

func TestNewRejectsInvalidBase(t *testing.T) {
	for _, raw := range []string{"", "kaivlya.com", "ftp://kaivlya.com", "https://"} {
		if _, err := New(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestBuilderURLs(t *testing.T) {
	b := MustNew("https://kaivlya.com/")

	uncategorized := &interfaces.Post{Slug: "hello-world"}
	categorized := &interfaces.Post{Slug: "go-testing", FrontMatter: interfaces.FrontMatter{Category: "tech"}}

	cases := map[string]struct{ got, want string }{
		"base":          {b.Base(), "https://kaivlya.com"},
		"home":          {b.Absolute("/"), "https://kaivlya.com"},
		"about":         {b.Absolute("about"), "https://kaivlya.com/about"},
		"blog":          {b.Blog(), "https://kaivlya.com/blog"},
		"rss":           {b.RSS(), "https://kaivlya.com/rss"},
		"sitemap":       {b.Sitemap(), "https://kaivlya.com/sitemap.xml"},
		"post":          {b.Post(uncategorized), "https://kaivlya.com/blog/hello-world"},
		"category post": {b.Post(categorized), "https://kaivlya.com/blog/tech/go-testing"},
		"category":      {b.Category("travel"), "https://kaivlya.com/blog/travel"},
		"resources":     {b.ResourceCategory("tools"), "https://kaivlya.com/resources/tools"},
	}
	for name, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("%s: got %q, want %q", name, tc.got, tc.want)
		}
	}
}

func TestCategoryURLsUseSlugForm(t *testing.T) {
	b := MustNew("https://kaivlya.com")
	post := &interfaces.Post{Slug: "weekend-build", FrontMatter: interfaces.FrontMatter{Category: "side projects"}}

	if got := b.Post(post); got != "https://kaivlya.com/blog/side-projects/weekend-build" {
		t.Fatalf("unexpected post url %q", got)
	}
	if got := b.Category("Side Projects"); got != "https://kaivlya.com/blog/side-projects" {
		t.Fatalf("unexpected category url %q", got)
	}
	if got := CategorySlug("  "); got != "" {
		t.Fatalf("expected empty slug, got %q", got)
	}
}

func TestRouteUnknown(t *testing.T) {
	if _, err := MustNew("http://localhost:3000").Route("nope", nil); err == nil {
		t.Fatal("expected error for unknown route")
	}
}
