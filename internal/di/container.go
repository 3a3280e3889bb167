package di

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/uptrace/bun"

	blogcmd "github.com/goliatone/go-blog/internal/commands/blog"
	"github.com/goliatone/go-blog/internal/components"
	"github.com/goliatone/go-blog/internal/feeds"
	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/httpapi"
	"github.com/goliatone/go-blog/internal/index"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/logging/console"
	"github.com/goliatone/go-blog/internal/logging/gologger"
	"github.com/goliatone/go-blog/internal/logging/zaplog"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/internal/resources"
	"github.com/goliatone/go-blog/internal/runtimeconfig"
	"github.com/goliatone/go-blog/internal/search"
	"github.com/goliatone/go-blog/internal/urls"
	"github.com/goliatone/go-blog/internal/watch"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// ErrIndexDisabled is returned by Index when the post index is turned off.
var ErrIndexDisabled = errors.New("di: post index disabled")

// Option customises a Container.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected by Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithBunDB supplies the post index database instead of opening
// Config.Index.DSN.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.db = db
	}
}

// WithContentFS reads posts from filesystem instead of Config.Content.Dir.
func WithContentFS(filesystem fs.FS) Option {
	return func(c *Container) {
		c.contentFS = filesystem
	}
}

// WithResourcesFS resolves Config.Content.ResourcesFile inside filesystem.
func WithResourcesFS(filesystem fs.FS) Option {
	return func(c *Container) {
		c.resourcesFS = filesystem
	}
}

// WithArtifactStore sends generator output to store.
func WithArtifactStore(store interfaces.ArtifactStore) Option {
	return func(c *Container) {
		c.artifactStore = store
	}
}

// WithGetenv replaces os.Getenv when resolving the base URL.
func WithGetenv(getenv func(string) string) Option {
	return func(c *Container) {
		c.getenv = getenv
	}
}

// WithNow overrides the clock used for generated timestamps.
func WithNow(now func() time.Time) Option {
	return func(c *Container) {
		if now != nil {
			c.now = now
		}
	}
}

// Container wires every blog service from a Config.
type Container struct {
	cfg            runtimeconfig.Config
	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger
	getenv         func(string) string
	now            func() time.Time

	contentFS     fs.FS
	resourcesFS   fs.FS
	artifactStore interfaces.ArtifactStore

	baseURL   string
	urls      *urls.Builder
	markdown  *markdown.Service
	catalog   *posts.Catalog
	searcher  *search.Searcher
	feeds     *feeds.Builder
	generator *generator.Service
	resources atomic.Pointer[resources.Directory]

	indexMu sync.Mutex
	db      *bun.DB
	ownsDB  bool
	index   *index.Store
}

// NewContainer validates cfg and builds the services. Nothing is read from
// disk until Load is called.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.loggerProvider == nil {
		provider, err := newLoggerProvider(cfg.Logging)
		if err != nil {
			return nil, err
		}
		c.loggerProvider = provider
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, logging.RootModule)

	baseURL, err := runtimeconfig.ResolveBaseURL(cfg, c.getenv)
	if err != nil {
		return nil, err
	}
	c.baseURL = baseURL
	builder, err := urls.New(baseURL)
	if err != nil {
		return nil, err
	}
	c.urls = builder

	c.configureContent()
	c.searcher = search.New(search.WithLogger(logging.ModuleLogger(c.loggerProvider, logging.SearchModule)))
	c.feeds = feeds.New(cfg, c.urls)
	c.configureGenerator()
	return c, nil
}

func newLoggerProvider(cfg runtimeconfig.LoggingConfig) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gologger":
		return gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
	case "zap":
		return zaplog.NewProvider(zaplog.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
		})
	default:
		opts := console.Options{}
		if level, ok := console.ParseLevel(cfg.Level); ok {
			opts.MinLevel = &level
		}
		return console.NewProvider(opts), nil
	}
}

func (c *Container) configureContent() {
	parseOpts := interfaces.ParseOptions{
		Extensions:  c.cfg.Markdown.ParseExtensions(),
		HardWraps:   c.cfg.Markdown.HardWraps,
		SafeMode:    c.cfg.Markdown.SafeMode,
		Typographer: c.cfg.Markdown.Typographer,
	}
	parser := markdown.NewGoldmarkParser(parseOpts)
	markdownLogger := logging.MarkdownLogger(c.loggerProvider)

	mdOpts := []markdown.Option{
		markdown.WithLogger(markdownLogger),
		markdown.WithFilesystem(c.contentFS),
	}
	if c.cfg.Markdown.Components {
		expander := components.NewExpander(
			components.WithLogger(markdownLogger),
			components.WithRendererOptions(components.WithInnerRenderer(func(_ context.Context, source []byte) ([]byte, error) {
				return parser.ParseWithOptions(source, parseOpts)
			})),
		)
		mdOpts = append(mdOpts, markdown.WithComponents(expander))
	}

	c.markdown = markdown.NewService(markdown.Config{
		BasePath:       c.cfg.Content.Dir,
		Extensions:     c.cfg.Content.Extensions,
		WordsPerMinute: c.cfg.Content.WordsPerMinute,
		Workers:        c.cfg.Generator.Workers,
		Parser:         parseOpts,
	}, parser, mdOpts...)

	c.catalog = posts.NewCatalog(c.markdown,
		posts.WithLogger(logging.PostsLogger(c.loggerProvider)),
		posts.WithCategories(c.cfg.Categories),
	)
}

func (c *Container) configureGenerator() {
	c.generator = generator.NewService(generator.Config{
		OutputDir:   c.cfg.Generator.OutputDir,
		Workers:     c.cfg.Generator.Workers,
		WriteHTML:   c.cfg.Generator.WriteHTML,
		SiteTitle:   c.cfg.Site.Title,
		Language:    c.cfg.Site.Language,
		Fingerprint: c.cfg.RenderFingerprint(),
	}, generator.Dependencies{
		Posts:     c.catalog,
		Feeds:     c.feeds,
		URLs:      c.urls,
		Resources: c.Resources,
		Store:     c.artifactStore,
	},
		generator.WithLogger(logging.GeneratorLogger(c.loggerProvider)),
		generator.WithNow(c.now),
	)
}

// Load reads every post and the resources file.
func (c *Container) Load(ctx context.Context) error {
	if err := c.catalog.Reload(ctx); err != nil {
		return err
	}
	return c.ReloadResources(ctx)
}

// ReloadResources re-reads the resources file. A missing file clears the
// directory; an invalid one keeps the previous directory and returns the
// error.
func (c *Container) ReloadResources(ctx context.Context) error {
	path := strings.TrimSpace(c.cfg.Content.ResourcesFile)
	if path == "" {
		c.resources.Store(nil)
		return nil
	}
	logger := logging.ModuleLogger(c.loggerProvider, logging.ResourcesModule)
	opts := []resources.Option{resources.WithLogger(logger)}
	if c.resourcesFS != nil {
		opts = append(opts, resources.WithFilesystem(c.resourcesFS))
	}

	dir, err := resources.Load(ctx, path, opts...)
	switch {
	case errors.Is(err, resources.ErrDocumentMissing):
		logger.Warn("resources.load.missing", "path", path)
		c.resources.Store(nil)
		return nil
	case err != nil:
		return err
	}
	c.resources.Store(dir)
	return nil
}

// Reload refreshes posts and resources. The watcher calls it.
func (c *Container) Reload(ctx context.Context) error {
	return c.Load(ctx)
}

// Config returns the validated configuration.
func (c *Container) Config() runtimeconfig.Config { return c.cfg }

// LoggerProvider returns the active logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

// BaseURL returns the resolved site origin.
func (c *Container) BaseURL() string { return c.baseURL }

// URLs returns the canonical URL builder.
func (c *Container) URLs() *urls.Builder { return c.urls }

// Markdown returns the post loader and renderer.
func (c *Container) Markdown() *markdown.Service { return c.markdown }

// Catalog returns the post catalog.
func (c *Container) Catalog() *posts.Catalog { return c.catalog }

// Search returns the post searcher.
func (c *Container) Search() *search.Searcher { return c.searcher }

// Feeds returns the RSS, sitemap and robots builder.
func (c *Container) Feeds() *feeds.Builder { return c.feeds }

// Generator returns the static site generator.
func (c *Container) Generator() *generator.Service { return c.generator }

// Resources returns the loaded resource directory, or nil.
func (c *Container) Resources() *resources.Directory { return c.resources.Load() }

// Index opens, migrates and returns the post index on first use.
func (c *Container) Index(ctx context.Context) (*index.Store, error) {
	c.indexMu.Lock()
	defer c.indexMu.Unlock()
	if c.index != nil {
		return c.index, nil
	}
	if !c.cfg.Index.Enabled && c.db == nil {
		return nil, ErrIndexDisabled
	}

	db := c.db
	if db == nil {
		opened, err := index.Open(c.cfg.Index)
		if err != nil {
			return nil, err
		}
		db = opened
		c.ownsDB = true
	}

	opts := []index.StoreOption{
		index.WithLogger(logging.ModuleLogger(c.loggerProvider, logging.IndexModule)),
		index.WithNow(c.now),
	}
	if c.cfg.Index.CacheTTL > 0 {
		service, serializer, err := index.NewCache(c.cfg.Index.CacheTTL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, index.WithCache(service, serializer))
	}
	store := index.NewStore(db, opts...)
	if err := store.Migrate(ctx); err != nil {
		if c.ownsDB {
			_ = db.Close()
		}
		return nil, fmt.Errorf("di: migrate index: %w", err)
	}
	c.db = db
	c.index = store
	return store, nil
}

// Commands builds the blog command handlers and registers them with reg
// when it is non-nil. The index handler is only built when the index is
// enabled.
func (c *Container) Commands(ctx context.Context, reg blogcmd.CommandRegistry, opts ...blogcmd.Option) (*blogcmd.HandlerSet, error) {
	services := blogcmd.Services{
		Builder:    c.generator,
		Posts:      c.catalog,
		Reloader:   c,
		Extensions: c.cfg.Content.Extensions,
	}
	if c.cfg.Index.Enabled || c.db != nil {
		store, err := c.Index(ctx)
		if err != nil {
			return nil, err
		}
		services.Index = store
	}
	return blogcmd.RegisterBlogCommands(reg, services, c.loggerProvider, opts...)
}

// HTTPServer builds the API server over the current services. The index
// routes are mounted when the index is enabled or a database was injected;
// the index itself opens on the first request.
func (c *Container) HTTPServer(cfg runtimeconfig.ServerConfig) (*httpapi.Server, error) {
	deps := httpapi.Dependencies{
		Catalog:   c.catalog,
		Search:    c.searcher,
		Feeds:     c.feeds,
		URLs:      c.urls,
		Resources: c.Resources,
	}
	if c.cfg.Index.Enabled || c.db != nil {
		deps.Index = lazyIndex{container: c}
	}
	return httpapi.NewServer(cfg, deps,
		httpapi.WithLogger(logging.ModuleLogger(c.loggerProvider, logging.HTTPModule)),
		httpapi.WithNow(c.now),
	)
}

type lazyIndex struct {
	container *Container
}

func (l lazyIndex) List(ctx context.Context, filter index.Filter) ([]*index.PostRecord, int, error) {
	store, err := l.container.Index(ctx)
	if err != nil {
		return nil, 0, err
	}
	return store.List(ctx, filter)
}

func (l lazyIndex) Get(ctx context.Context, slug string) (*index.PostRecord, error) {
	store, err := l.container.Index(ctx)
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, slug)
}

// Watcher builds a content watcher that runs the reload command after
// changes to posts or the resources file.
func (c *Container) Watcher(debounce time.Duration) (*watch.Watcher, error) {
	var files []string
	if path := strings.TrimSpace(c.cfg.Content.ResourcesFile); path != "" {
		files = append(files, path)
	}
	reload := blogcmd.NewReloadContentHandler(c, logging.ModuleLogger(c.loggerProvider, logging.CommandsModule))
	return watch.New(watch.Config{
		Dir:        c.cfg.Content.Dir,
		Extensions: c.cfg.Content.Extensions,
		Files:      files,
		Debounce:   debounce,
	}, func(ctx context.Context) error {
		return reload.Execute(ctx, blogcmd.ReloadContentCommand{})
	}, watch.WithLogger(logging.ModuleLogger(c.loggerProvider, logging.WatchModule)))
}

// ScheduleIndexSync registers a periodic index sync with reg. It reports
// false without registering when the index is disabled or
// Index.SyncInterval is zero.
func (c *Container) ScheduleIndexSync(ctx context.Context, reg blogcmd.CronRegistrar) (bool, error) {
	interval := c.cfg.Index.SyncInterval
	if interval <= 0 || (!c.cfg.Index.Enabled && c.db == nil) {
		return false, nil
	}
	set, err := c.Commands(ctx, nil)
	if err != nil {
		return false, err
	}
	cfg := command.HandlerConfig{Expression: "@every " + interval.String()}
	msg := blogcmd.SyncIndexCommand{DeleteMissing: true}
	if err := blogcmd.RegisterIndexSyncCron(reg, set.Sync, cfg, msg); err != nil {
		return false, err
	}
	return true, nil
}

// Close releases the index database when the container opened it.
func (c *Container) Close() error {
	c.indexMu.Lock()
	defer c.indexMu.Unlock()
	if c.db != nil && c.ownsDB {
		err := c.db.Close()
		c.db = nil
		c.index = nil
		return err
	}
	return nil
}
