package blog

import (
	"context"
	"errors"
	"net"

	"github.com/goliatone/go-blog/internal/commands"
	blogcmd "github.com/goliatone/go-blog/internal/commands/blog"
	"github.com/goliatone/go-blog/internal/di"
	"github.com/goliatone/go-blog/internal/feeds"
	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/httpapi"
	"github.com/goliatone/go-blog/internal/index"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/internal/resources"
	"github.com/goliatone/go-blog/internal/search"
	"github.com/goliatone/go-blog/internal/urls"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Post exports the loaded post type.
type Post = interfaces.Post

// FrontMatter exports post metadata.
type FrontMatter = interfaces.FrontMatter

// Catalog exports the in-memory post catalog.
type Catalog = posts.Catalog

// Category exports a configured category with its post count.
type Category = posts.Category

// SearchQuery exports the search request.
type SearchQuery = search.Query

// SearchResult exports the search response.
type SearchResult = search.Result

// ResourceDirectory exports the curated link directory.
type ResourceDirectory = resources.Directory

// BuildOptions exports the static build options.
type BuildOptions = generator.BuildOptions

// IndexStore exports the persistent post index.
type IndexStore = index.Store

// IndexFilter exports the index list filter.
type IndexFilter = index.Filter

// BuildResult exports the static build summary.
type BuildResult = generator.BuildResult

// HandlerSet exports the blog command handlers.
type HandlerSet = blogcmd.HandlerSet

// CommandRegistry exports the command registry contract.
type CommandRegistry = blogcmd.CommandRegistry

// Option exports container overrides.
type Option = di.Option

// Module is the top level blog runtime.
type Module struct {
	container *di.Container
}

// New constructs a blog module using the provided configuration and optional
// DI overrides. Content is not read until Load.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Config returns the validated configuration.
func (m *Module) Config() Config {
	return m.container.Config()
}

// BaseURL returns the resolved public origin.
func (m *Module) BaseURL() string {
	return m.container.BaseURL()
}

// URLs returns the canonical URL builder.
func (m *Module) URLs() *urls.Builder {
	return m.container.URLs()
}

// Load reads posts and resources from disk.
func (m *Module) Load(ctx context.Context) error {
	return m.container.Load(ctx)
}

// Reload refreshes posts and resources.
func (m *Module) Reload(ctx context.Context) error {
	return m.container.Reload(ctx)
}

// Posts returns the post catalog.
func (m *Module) Posts() *Catalog {
	return m.container.Catalog()
}

// Search runs query over every uncategorized post.
func (m *Module) Search(query SearchQuery) SearchResult {
	return m.container.Search().Search(m.container.Catalog().Uncategorized(), query)
}

// SearchCategory runs query over the posts of category.
func (m *Module) SearchCategory(category string, query SearchQuery) SearchResult {
	return m.container.Search().Search(m.container.Catalog().ByCategory(category), query)
}

// Resources returns the resource directory, or nil when none is loaded.
func (m *Module) Resources() *ResourceDirectory {
	return m.container.Resources()
}

// Feeds returns the RSS, sitemap and robots builder.
func (m *Module) Feeds() *feeds.Builder {
	return m.container.Feeds()
}

// Build writes the static site.
func (m *Module) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	return m.container.Generator().Build(ctx, opts)
}

// Commands builds the blog command handlers and registers them with reg when
// it is non-nil.
func (m *Module) Commands(ctx context.Context, reg CommandRegistry, opts ...blogcmd.Option) (*HandlerSet, error) {
	return m.container.Commands(ctx, reg, opts...)
}

// Index opens the persistent post index. It fails with di.ErrIndexDisabled
// when Config.Index.Enabled is false and no database was injected.
func (m *Module) Index(ctx context.Context) (*IndexStore, error) {
	return m.container.Index(ctx)
}

// HTTPServer builds the API server from Config.Server.
func (m *Module) HTTPServer() (*httpapi.Server, error) {
	return m.container.HTTPServer(m.container.Config().Server)
}

// Serve loads content and runs the HTTP API until ctx is done. When
// Config.Server.Watch is set the content directory is watched and reloaded
// on change. A positive Config.Index.SyncInterval re-syncs an enabled index
// on that interval.
func (m *Module) Serve(ctx context.Context) error {
	server, err := m.prepareServe(ctx)
	if err != nil {
		return err
	}
	return m.withBackground(ctx, func() error { return server.Run(ctx) })
}

// ServeListener behaves like Serve on an existing listener.
func (m *Module) ServeListener(ctx context.Context, listener net.Listener) error {
	server, err := m.prepareServe(ctx)
	if err != nil {
		return err
	}
	return m.withBackground(ctx, func() error { return server.Serve(ctx, listener) })
}

func (m *Module) prepareServe(ctx context.Context) (*httpapi.Server, error) {
	if err := m.Load(ctx); err != nil {
		return nil, err
	}
	return m.HTTPServer()
}

// withBackground runs the content watcher and the scheduled index sync for
// the lifetime of run.
func (m *Module) withBackground(ctx context.Context, run func() error) error {
	return m.withIndexSync(ctx, func() error { return m.withWatcher(ctx, run) })
}

func (m *Module) withIndexSync(ctx context.Context, run func() error) error {
	logger := logging.ModuleLogger(m.container.LoggerProvider(), logging.CommandsModule)
	scheduler := commands.NewIntervalScheduler(logger)
	scheduled, err := m.container.ScheduleIndexSync(ctx, scheduler.Register)
	if err != nil {
		return err
	}
	if !scheduled {
		return run()
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logger.Info("blog.serve.index_sync", "every", m.container.Config().Index.SyncInterval.String())
	return run()
}

func (m *Module) withWatcher(ctx context.Context, run func() error) error {
	cfg := m.container.Config().Server
	if !cfg.Watch {
		return run()
	}
	watcher, err := m.container.Watcher(cfg.WatchDebounce)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	logging.ModuleLogger(m.container.LoggerProvider(), logging.RootModule).
		Info("blog.serve.watching", "dir", m.container.Config().Content.Dir)
	return run()
}

// Close releases resources held by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}

// IsNotFound reports whether err means a post, category or resource is
// unknown.
func IsNotFound(err error) bool {
	return errors.Is(err, posts.ErrPostNotFound) || errors.Is(err, resources.ErrCategoryNotFound)
}
