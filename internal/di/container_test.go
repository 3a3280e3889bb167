package di

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	command "github.com/goliatone/go-command"

	blogcmd "github.com/goliatone/go-blog/internal/commands/blog"
	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/logging/gologger"
	"github.com/goliatone/go-blog/internal/logging/zaplog"
	"github.com/goliatone/go-blog/internal/runtimeconfig"
	"github.com/goliatone/go-blog/pkg/testsupport"
)

const resourcesJSON = `{
  "categories": [{
    "slug": "tools",
    "title": "Tools",
    "description": "Things I use",
    "subcategories": [{
      "title": "Editors",
      "description": "Text editors",
      "links": [{"name": "Helix", "description": "Modal editor", "url": "https://helix-editor.com"}]
    }]
  }]
}`

func contentFS() fstest.MapFS {
	return fstest.MapFS{
		"hello-world.md": {Data: []byte("---\ntitle: Hello World\ndate: 2024-03-01\ndescription: First post\ntags: [intro]\n---\nWelcome to the blog.\n")},
		"go-testing.mdx": {Data: []byte("---\ntitle: Table Driven Tests\ndate: 2024-02-10\ndescription: Tables\ncategory: tech\ntier: reference\n---\nUse tables.\n")},
	}
}

func testConfig() runtimeconfig.Config {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Site.BaseURL = "https://kaivlya.com"
	cfg.Content.ResourcesFile = "resources.json"
	return cfg
}

func noEnv(string) string { return "" }

func newTestContainer(t *testing.T, cfg runtimeconfig.Config, opts ...Option) *Container {
	t.Helper()
	base := []Option{
		WithGetenv(noEnv),
		WithLoggerProvider(nil),
		WithContentFS(contentFS()),
		WithResourcesFS(fstest.MapFS{"resources.json": {Data: []byte(resourcesJSON)}}),
		WithNow(func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }),
	}
	container, err := NewContainer(cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })
	return container
}

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Content.Dir = ""
	if _, err := NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrContentDirRequired) {
		t.Fatalf("expected ErrContentDirRequired, got %v", err)
	}
}

func TestConfigureLoggerProviderUsesGoLoggerAdapter(t *testing.T) {
	cfg := testConfig()
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	container := newTestContainer(t, cfg)
	if _, ok := container.LoggerProvider().(*gologger.Provider); !ok {
		t.Fatalf("expected go-logger provider, got %T", container.LoggerProvider())
	}
}

func TestConfigureLoggerProviderUsesZap(t *testing.T) {
	cfg := testConfig()
	cfg.Logging.Provider = "zap"
	cfg.Logging.Format = "json"

	container := newTestContainer(t, cfg)
	if _, ok := container.LoggerProvider().(*zaplog.Provider); !ok {
		t.Fatalf("expected zap provider, got %T", container.LoggerProvider())
	}
}

func TestResolvesBaseURLFromEnvironment(t *testing.T) {
	container := newTestContainer(t, testConfig(), WithGetenv(func(key string) string {
		if key == runtimeconfig.EnvBaseURL {
			return "https://example.dev/"
		}
		return ""
	}))
	if container.BaseURL() != "https://example.dev" {
		t.Fatalf("expected env base url, got %q", container.BaseURL())
	}
}

func TestLoadReadsPostsAndResources(t *testing.T) {
	container := newTestContainer(t, testConfig())
	if err := container.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	all := container.Catalog().All()
	if len(all) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(all))
	}
	if all[0].Slug != "hello-world" {
		t.Fatalf("expected newest post first, got %s", all[0].Slug)
	}
	if got := container.Catalog().ByCategory("tech"); len(got) != 1 || got[0].Slug != "go-testing" {
		t.Fatalf("expected go-testing in tech, got %v", got)
	}

	dir := container.Resources()
	if dir == nil {
		t.Fatal("expected resources loaded")
	}
	if stats := dir.Stats(); stats.Links != 1 {
		t.Fatalf("expected 1 link, got %+v", stats)
	}
}

func TestMissingResourcesFileClearsDirectory(t *testing.T) {
	container := newTestContainer(t, testConfig(), WithResourcesFS(fstest.MapFS{}))
	if err := container.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if container.Resources() != nil {
		t.Fatal("expected no resources")
	}
}

func TestGeneratorWritesThroughArtifactStore(t *testing.T) {
	store := generator.NewMemoryStore()
	container := newTestContainer(t, testConfig(), WithArtifactStore(store))
	if err := container.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	result, err := container.Generator().Build(context.Background(), generator.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.PagesBuilt != 2 {
		t.Fatalf("expected 2 pages built, got %d", result.PagesBuilt)
	}
	if _, err := store.Read(context.Background(), "api/resources.json"); err != nil {
		t.Fatalf("expected resources artifact: %v", err)
	}
	if _, err := store.Read(context.Background(), "rss.xml"); err != nil {
		t.Fatalf("expected feed artifact: %v", err)
	}
}

func TestIndexDisabled(t *testing.T) {
	container := newTestContainer(t, testConfig())
	if _, err := container.Index(context.Background()); !errors.Is(err, ErrIndexDisabled) {
		t.Fatalf("expected ErrIndexDisabled, got %v", err)
	}

	set, err := container.Commands(context.Background(), nil)
	if err != nil {
		t.Fatalf("Commands: %v", err)
	}
	if set.Sync != nil {
		t.Fatal("expected no sync handler without an index")
	}
}

func TestCommandsSyncIndex(t *testing.T) {
	container := newTestContainer(t, testConfig(), WithBunDB(testsupport.NewBunDB(t)))
	if err := container.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	set, err := container.Commands(context.Background(), nil)
	if err != nil {
		t.Fatalf("Commands: %v", err)
	}
	if set.Sync == nil || set.Build == nil || set.Reload == nil || set.Validate == nil {
		t.Fatalf("expected every handler, got %+v", set)
	}
	if err := set.Sync.Execute(context.Background(), blogcmd.SyncIndexCommand{DeleteMissing: true}); err != nil {
		t.Fatalf("sync: %v", err)
	}

	store, err := container.Index(context.Background())
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 indexed posts, got %d", count)
	}

	server, err := container.HTTPServer(container.Config().Server)
	if err != nil {
		t.Fatalf("HTTPServer: %v", err)
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/index/posts/hello-world", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected indexed post, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestScheduleIndexSync(t *testing.T) {
	var expressions []string
	var jobs []func() error
	record := func(cfg command.HandlerConfig, handler any) error {
		expressions = append(expressions, cfg.Expression)
		if fn, ok := handler.(func() error); ok {
			jobs = append(jobs, fn)
		}
		return nil
	}

	idle := newTestContainer(t, testConfig(), WithBunDB(testsupport.NewBunDB(t)))
	scheduled, err := idle.ScheduleIndexSync(context.Background(), record)
	if err != nil || scheduled {
		t.Fatalf("expected no schedule without an interval, got %v %v", scheduled, err)
	}

	cfg := testConfig()
	cfg.Index.SyncInterval = 90 * time.Second
	container := newTestContainer(t, cfg, WithBunDB(testsupport.NewBunDB(t)))
	if err := container.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	scheduled, err = container.ScheduleIndexSync(context.Background(), record)
	if err != nil || !scheduled {
		t.Fatalf("expected schedule, got %v %v", scheduled, err)
	}
	if len(jobs) != 1 || expressions[0] != "@every 1m30s" {
		t.Fatalf("expected one @every 1m30s job, got %v", expressions)
	}
	if err := jobs[0](); err != nil {
		t.Fatalf("job: %v", err)
	}

	store, err := container.Index(context.Background())
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 indexed posts, got %d", count)
	}
}

func TestScheduleIndexSyncSkipsDisabledIndex(t *testing.T) {
	cfg := testConfig()
	cfg.Index.SyncInterval = time.Minute
	container := newTestContainer(t, cfg)
	scheduled, err := container.ScheduleIndexSync(context.Background(), func(command.HandlerConfig, any) error {
		t.Fatal("unexpected registration")
		return nil
	})
	if err != nil || scheduled {
		t.Fatalf("expected no schedule for a disabled index, got %v %v", scheduled, err)
	}
}

func TestHTTPServerServesLoadedPosts(t *testing.T) {
	container := newTestContainer(t, testConfig())
	if err := container.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	server, err := container.HTTPServer(container.Config().Server)
	if err != nil {
		t.Fatalf("HTTPServer: %v", err)
	}

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 1 {
		t.Fatalf("expected one uncategorized post, got %d", body.Total)
	}

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/index/posts", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected index routes absent without an index, got %d", rec.Code)
	}
}

func TestWatcherUsesContentSettings(t *testing.T) {
	container := newTestContainer(t, testConfig())
	watcher, err := container.Watcher(10 * time.Millisecond)
	if err != nil {
		t.Fatalf("Watcher: %v", err)
	}
	if watcher == nil {
		t.Fatal("expected watcher")
	}
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	if logging.ModuleLogger(nil, logging.IndexModule) == nil {
		t.Fatal("expected a logger")
	}
}
