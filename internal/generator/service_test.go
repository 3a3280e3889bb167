package generator

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-blog/internal/feeds"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/internal/resources"
	"github.com/goliatone/go-blog/internal/runtimeconfig"
	"github.com/goliatone/go-blog/internal/urls"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

var buildTime = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func fixturePosts() []*interfaces.Post {
	return []*interfaces.Post{
		{
			Slug:     "hello-world",
			HTML:     "<p>Welcome to the blog.</p>",
			Checksum: "sum-hello",
			FrontMatter: interfaces.FrontMatter{
				Title:       "Hello World",
				Date:        "2024-03-01",
				Description: "First post",
				Tags:        []string{"intro"},
				ReadTime:    "1 min read",
				PublishedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			Slug:     "go-testing",
			HTML:     "<p>Tables.</p>",
			Checksum: "sum-testing",
			FrontMatter: interfaces.FrontMatter{
				Title:       "Table Driven Tests",
				Date:        "2024-02-10",
				Category:    "tech",
				Tier:        "reference",
				Tags:        []string{"go"},
				ReadTime:    "2 min read",
				PublishedAt: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
			},
		},
	}
}

type fixture struct {
	catalog *posts.Catalog
	store   *MemoryStore
	service *Service
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	catalog := posts.NewCatalog(nil)
	catalog.Replace(fixturePosts())

	builder := urls.MustNew("https://kaivlya.com")
	directory := resources.NewDirectory(resources.Document{Categories: []resources.Category{{
		Slug:  "tools",
		Title: "Tools",
		Subcategories: []resources.Subcategory{{
			Title: "Editors",
			Links: []resources.Link{{Name: "Helix", URL: "https://helix-editor.com"}},
		}},
	}}})

	store := NewMemoryStore()
	service := NewService(cfg, Dependencies{
		Posts:     catalog,
		Feeds:     feeds.New(runtimeconfig.DefaultConfig(), builder),
		URLs:      builder,
		Resources: func() *resources.Directory { return directory },
		Store:     store,
	}, WithNow(func() time.Time { return buildTime }))
	return &fixture{catalog: catalog, store: store, service: service}
}

func defaultConfig() Config {
	return Config{OutputDir: "dist", Workers: 2, WriteHTML: true, SiteTitle: "Kaivlya's Blog"}
}

func TestBuildWritesEveryArtifact(t *testing.T) {
	f := newFixture(t, defaultConfig())

	result, err := f.service.Build(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.PagesBuilt != 2 || result.PagesSkipped != 0 {
		t.Fatalf("unexpected page counts %+v", result)
	}

	want := []string{
		".build-manifest.json",
		"api/categories.json",
		"api/posts.json",
		"api/posts/go-testing.json",
		"api/posts/hello-world.json",
		"api/resources.json",
		"api/search-index.json",
		"api/tags.json",
		"blog/go-testing/index.html",
		"blog/hello-world/index.html",
		"robots.txt",
		"rss.xml",
		"sitemap.xml",
	}
	if diff := cmp.Diff(want, f.store.Paths()); diff != "" {
		t.Fatalf("artifact mismatch (-want +got):\n%s", diff)
	}
	if result.ArtifactsWritten != len(want)-1 {
		t.Fatalf("expected %d artifacts written, got %d", len(want)-1, result.ArtifactsWritten)
	}
	if got := f.store.ContentType("rss.xml"); got != feeds.RSSContentType {
		t.Fatalf("unexpected rss content type %q", got)
	}

	var summaries []map[string]any
	readJSON(t, f.store, "api/posts.json", &summaries)
	if len(summaries) != 2 || summaries[0]["slug"] != "hello-world" {
		t.Fatalf("unexpected summaries %+v", summaries)
	}
	if _, ok := summaries[0]["content"]; ok {
		t.Fatalf("summaries must not carry content: %+v", summaries[0])
	}

	var detail posts.Detail
	readJSON(t, f.store, "api/posts/go-testing.json", &detail)
	if detail.Content != "<p>Tables.</p>" || detail.URL != "https://kaivlya.com/blog/tech/go-testing" {
		t.Fatalf("unexpected detail %+v", detail)
	}

	var tags []string
	readJSON(t, f.store, "api/tags.json", &tags)
	if diff := cmp.Diff([]string{"intro"}, tags); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}

	page, _ := f.store.Read(context.Background(), "blog/hello-world/index.html")
	html := string(page)
	for _, fragment := range []string{"<h1>Hello World</h1>", "<p>Welcome to the blog.</p>", "March 1, 2024", `<html lang="en">`} {
		if !strings.Contains(html, fragment) {
			t.Fatalf("expected %q in page:\n%s", fragment, html)
		}
	}
}

func TestBuildSkipsUnchangedPosts(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	if _, err := f.service.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("first build: %v", err)
	}

	result, err := f.service.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if result.PagesBuilt != 0 || result.PagesSkipped != 2 {
		t.Fatalf("expected every post skipped, got %+v", result)
	}

	changed := fixturePosts()
	changed[0].Checksum = "sum-hello-2"
	changed[0].HTML = "<p>Updated.</p>"
	f.catalog.Replace(changed)

	result, err = f.service.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("third build: %v", err)
	}
	if result.PagesBuilt != 1 || result.PagesSkipped != 1 {
		t.Fatalf("expected one rebuilt post, got %+v", result)
	}
	var detail posts.Detail
	readJSON(t, f.store, "api/posts/hello-world.json", &detail)
	if detail.Content != "<p>Updated.</p>" {
		t.Fatalf("post was not rebuilt: %+v", detail)
	}

	result, err = f.service.Build(ctx, BuildOptions{Force: true})
	if err != nil {
		t.Fatalf("forced build: %v", err)
	}
	if result.PagesBuilt != 2 || result.PagesSkipped != 0 {
		t.Fatalf("force should rebuild every post, got %+v", result)
	}
}

func TestBuildRebuildsWhenSettingsChange(t *testing.T) {
	ctx := context.Background()
	catalog := posts.NewCatalog(nil)
	catalog.Replace(fixturePosts())
	store := NewMemoryStore()

	newService := func(baseURL string, cfg Config) *Service {
		builder := urls.MustNew(baseURL)
		return NewService(cfg, Dependencies{
			Posts: catalog,
			Feeds: feeds.New(runtimeconfig.DefaultConfig(), builder),
			URLs:  builder,
			Store: store,
		}, WithNow(func() time.Time { return buildTime }))
	}

	noHTML := defaultConfig()
	noHTML.WriteHTML = false
	if _, err := newService("https://old.example.com", noHTML).Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("first build: %v", err)
	}

	result, err := newService("https://new.example.com", defaultConfig()).Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if result.PagesBuilt != 2 || result.PagesSkipped != 0 {
		t.Fatalf("expected every post rebuilt after a settings change, got %+v", result)
	}
	var detail posts.Detail
	readJSON(t, store, "api/posts/hello-world.json", &detail)
	if detail.URL != "https://new.example.com/blog/hello-world" {
		t.Fatalf("expected post json to carry the new base URL, got %q", detail.URL)
	}
	if _, err := store.Read(ctx, "blog/hello-world/index.html"); err != nil {
		t.Fatalf("expected html page after enabling pages: %v", err)
	}

	rendered := defaultConfig()
	rendered.Fingerprint = "hard-wraps"
	result, err = newService("https://new.example.com", rendered).Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("third build: %v", err)
	}
	if result.PagesBuilt != 2 {
		t.Fatalf("expected a render settings change to rebuild posts, got %+v", result)
	}

	result, err = newService("https://new.example.com", noHTML).Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("fourth build: %v", err)
	}
	if result.PagesBuilt != 2 {
		t.Fatalf("expected disabling pages to rebuild posts, got %+v", result)
	}
	for _, path := range store.Paths() {
		if strings.HasSuffix(path, ".html") {
			t.Fatalf("page left behind after disabling pages: %s", path)
		}
	}
}

func TestBuildRemovesDeletedPosts(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	if _, err := f.service.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("first build: %v", err)
	}
	f.catalog.Replace(fixturePosts()[:1])

	result, err := f.service.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if result.PagesRemoved != 1 {
		t.Fatalf("expected one removed post, got %+v", result)
	}
	for _, path := range f.store.Paths() {
		if strings.Contains(path, "go-testing") {
			t.Fatalf("stale output left behind: %s", path)
		}
	}
}

func TestBuildWithoutHTML(t *testing.T) {
	cfg := defaultConfig()
	cfg.WriteHTML = false
	f := newFixture(t, cfg)

	if _, err := f.service.Build(context.Background(), BuildOptions{}); err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, path := range f.store.Paths() {
		if strings.HasSuffix(path, ".html") {
			t.Fatalf("unexpected html output %s", path)
		}
	}
}

func TestDryRunWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	catalog := posts.NewCatalog(nil)
	catalog.Replace(fixturePosts())
	service := NewService(Config{OutputDir: dir, WriteHTML: true}, Dependencies{Posts: catalog})

	result, err := service.Build(context.Background(), BuildOptions{DryRun: true})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !result.DryRun || result.ArtifactsWritten != 0 || len(result.Artifacts) == 0 {
		t.Fatalf("unexpected dry run result %+v", result)
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("dry run touched the output directory: %v", err)
	}
}

func TestBuildToFilesystem(t *testing.T) {
	catalog := posts.NewCatalog(nil)
	catalog.Replace(fixturePosts())
	service := NewService(Config{OutputDir: "unused", WriteHTML: true}, Dependencies{Posts: catalog})

	dir := filepath.Join(t.TempDir(), "site")
	result, err := service.Build(context.Background(), BuildOptions{OutputDir: dir})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.OutputDir != dir {
		t.Fatalf("expected output dir %s, got %s", dir, result.OutputDir)
	}
	data, err := os.ReadFile(filepath.Join(dir, "blog", "hello-world", "index.html"))
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	if !strings.Contains(string(data), "Hello World") {
		t.Fatalf("unexpected page %s", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "rss.xml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("feeds should be skipped without a feed builder: %v", err)
	}
}

func TestBuildHonoursCancellation(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.service.Build(ctx, BuildOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBuildRequiresPosts(t *testing.T) {
	service := NewService(Config{}, Dependencies{})
	if _, err := service.Build(context.Background(), BuildOptions{}); !errors.Is(err, ErrPostsRequired) {
		t.Fatalf("expected ErrPostsRequired, got %v", err)
	}
}

func readJSON(t *testing.T, store *MemoryStore, path string, target any) {
	t.Helper()
	data, err := store.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}
