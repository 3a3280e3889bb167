package generator

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-blog/internal/feeds"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/internal/resources"
	"github.com/goliatone/go-blog/internal/search"
	"github.com/goliatone/go-blog/internal/urls"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// ErrPostsRequired is returned when the generator has no post source.
var ErrPostsRequired = errors.New("generator: post lister is required")

// Artifact categories recorded on writes.
const (
	CategoryFeed     = "feed"
	CategorySitemap  = "sitemap"
	CategoryRobots   = "robots"
	CategoryAPI      = "api"
	CategoryPage     = "page"
	CategoryManifest = "manifest"
)

const (
	jsonContentType = "application/json; charset=utf-8"
	htmlContentType = "text/html; charset=utf-8"
)

// PostLister is the read side of the post catalog the generator needs.
type PostLister interface {
	All() []*interfaces.Post
	Categories() []posts.Category
	Tags() []string
}

// Config captures runtime behaviour for the generator.
type Config struct {
	OutputDir string
	// Workers bounds concurrent renders and writes. Zero means runtime.NumCPU.
	Workers   int
	WriteHTML bool
	SiteTitle string
	Language  string
	// Fingerprint identifies the render settings behind post content, such as
	// Markdown and component options. Changing it rebuilds every post.
	Fingerprint string
}

// Dependencies lists the services the generator reads from.
type Dependencies struct {
	Posts PostLister
	Feeds *feeds.Builder
	URLs  *urls.Builder
	// Resources returns the current resource directory. A nil func or a nil
	// directory skips api/resources.json.
	Resources func() *resources.Directory
	// Store overrides the filesystem store rooted at Config.OutputDir.
	Store interfaces.ArtifactStore
}

// BuildOptions narrows a generator run.
type BuildOptions struct {
	// OutputDir overrides Config.OutputDir for this run.
	OutputDir string
	// DryRun renders everything but writes nothing.
	DryRun bool
	// Force ignores the build manifest and rebuilds every post.
	Force bool
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	OutputDir        string
	PagesBuilt       int
	PagesSkipped     int
	PagesRemoved     int
	ArtifactsWritten int
	Artifacts        []string
	Duration         time.Duration
	Errors           []error
	DryRun           bool
}

// Option customises a Service.
type Option func(*Service)

// WithLogger sets the generator logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNow overrides the build clock.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStoreFactory changes how a store is built for an output directory.
func WithStoreFactory(factory func(dir string) interfaces.ArtifactStore) Option {
	return func(s *Service) {
		if factory != nil {
			s.newStore = factory
		}
	}
}

// Service builds the static site.
type Service struct {
	cfg      Config
	deps     Dependencies
	logger   interfaces.Logger
	now      func() time.Time
	newStore func(dir string) interfaces.ArtifactStore
}

// NewService wires a generator with cfg and deps.
func NewService(cfg Config, deps Dependencies, opts ...Option) *Service {
	if strings.TrimSpace(cfg.OutputDir) == "" {
		cfg.OutputDir = "dist"
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	s := &Service{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NoOp(),
		now:    time.Now,
		newStore: func(dir string) interfaces.ArtifactStore {
			return NewFSStore(dir)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type job struct {
	path        string
	category    string
	contentType string
	slug        string
	render      func() ([]byte, error)
}

// Build renders every artifact and writes it through the artifact store.
// Per-artifact failures are collected; the returned error joins them.
func (s *Service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.deps.Posts == nil {
		return nil, ErrPostsRequired
	}

	start := time.Now()
	outputDir := strings.TrimSpace(opts.OutputDir)
	store := s.deps.Store
	switch {
	case outputDir != "":
		store = s.newStore(outputDir)
	case store == nil:
		outputDir = s.cfg.OutputDir
		store = s.newStore(outputDir)
	default:
		outputDir = s.cfg.OutputDir
	}

	logger := logging.WithFields(logging.WithOperation(s.logger, "build"), map[string]any{
		"output_dir": outputDir,
		"dry_run":    opts.DryRun,
		"force":      opts.Force,
	})

	result := &BuildResult{OutputDir: outputDir, DryRun: opts.DryRun}
	all := s.deps.Posts.All()
	generatedAt := s.now().UTC()

	previous := newBuildManifest()
	if !opts.Force {
		loaded, err := s.loadManifest(ctx, store)
		if err != nil {
			logger.Warn("generator.manifest.load_failed", "error", err)
		} else {
			previous = loaded
		}
	}
	next := newBuildManifest()
	next.GeneratedAt = generatedAt
	next.Fingerprint = s.fingerprint()
	reuse := !opts.Force && previous.Fingerprint == next.Fingerprint
	if !opts.Force && !reuse && len(previous.Posts) > 0 {
		logger.Info("generator.manifest.settings_changed")
	}

	jobs := s.siteJobs(all, generatedAt)
	live := make(map[string]struct{}, len(all))
	checksums := make(map[string]string, len(all))
	pending := map[string][]string{}
	for _, post := range all {
		live[post.Slug] = struct{}{}
		checksums[post.Slug] = post.Checksum
		if reuse && previous.shouldSkip(post.Slug, post.Checksum) {
			result.PagesSkipped++
			next.Posts[post.Slug] = previous.Posts[post.Slug]
			continue
		}
		postJobs := s.postJobs(post)
		for _, j := range postJobs {
			pending[post.Slug] = append(pending[post.Slug], j.path)
		}
		jobs = append(jobs, postJobs...)
	}

	if !opts.DryRun {
		if err := store.EnsureDir(ctx, "."); err != nil {
			return nil, fmt.Errorf("generator: prepare output: %w", err)
		}
	}

	var (
		mu     sync.Mutex
		errs   []error
		failed = map[string]struct{}{}
	)
	collect := func(j job, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, fmt.Errorf("generator: %s: %w", j.path, err))
			if j.slug != "" {
				failed[j.slug] = struct{}{}
			}
			return
		}
		result.Artifacts = append(result.Artifacts, j.path)
		if !opts.DryRun {
			result.ArtifactsWritten++
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers())
	for _, j := range jobs {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			data, err := j.render()
			if err != nil {
				collect(j, err)
				return nil
			}
			if !opts.DryRun {
				if err := s.write(groupCtx, store, j, data); err != nil {
					if ctxErr := groupCtx.Err(); ctxErr != nil {
						return ctxErr
					}
					collect(j, err)
					return nil
				}
			}
			collect(j, nil)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		result.Duration = time.Since(start)
		return result, err
	}

	for slug, outputs := range pending {
		if _, bad := failed[slug]; bad {
			continue
		}
		result.PagesBuilt++
		sort.Strings(outputs)
		next.Posts[slug] = manifestPost{
			Slug:       slug,
			Checksum:   checksums[slug],
			Outputs:    outputs,
			RenderedAt: generatedAt,
		}
	}

	if !opts.DryRun {
		for slug := range pending {
			if _, bad := failed[slug]; bad {
				continue
			}
			for _, output := range previous.orphaned(slug, next.Posts[slug].Outputs) {
				if err := store.Remove(ctx, output); err != nil {
					errs = append(errs, fmt.Errorf("generator: remove %s: %w", output, err))
				}
			}
		}
		for _, entry := range previous.stale(live) {
			if err := s.removeOutputs(ctx, store, entry); err != nil {
				errs = append(errs, err)
				continue
			}
			result.PagesRemoved++
		}
		if len(errs) == 0 {
			if err := s.persistManifest(ctx, store, next); err != nil {
				errs = append(errs, err)
			}
		}
	}

	sort.Strings(result.Artifacts)
	result.Errors = errs
	result.Duration = time.Since(start)

	logger.Info("generator.build.completed",
		"pages_built", result.PagesBuilt,
		"pages_skipped", result.PagesSkipped,
		"pages_removed", result.PagesRemoved,
		"artifacts", len(result.Artifacts),
		"errors", len(errs),
		"duration", result.Duration,
	)
	return result, errors.Join(errs...)
}

func (s *Service) siteJobs(all []*interfaces.Post, generatedAt time.Time) []job {
	var jobs []job
	if s.deps.Feeds != nil {
		jobs = append(jobs,
			job{path: "rss.xml", category: CategoryFeed, contentType: feeds.RSSContentType, render: func() ([]byte, error) {
				return []byte(s.deps.Feeds.RSS(all, generatedAt)), nil
			}},
			job{path: "sitemap.xml", category: CategorySitemap, contentType: feeds.SitemapContentType, render: func() ([]byte, error) {
				return []byte(s.deps.Feeds.Sitemap(all, generatedAt)), nil
			}},
			job{path: "robots.txt", category: CategoryRobots, contentType: feeds.RobotsContentType, render: func() ([]byte, error) {
				return []byte(s.deps.Feeds.Robots()), nil
			}},
		)
	}

	jobs = append(jobs,
		job{path: "api/posts.json", category: CategoryAPI, contentType: jsonContentType, render: func() ([]byte, error) {
			return encodeJSON(posts.Summaries(all, s.link))
		}},
		job{path: "api/categories.json", category: CategoryAPI, contentType: jsonContentType, render: func() ([]byte, error) {
			return encodeJSON(s.deps.Posts.Categories())
		}},
		job{path: "api/tags.json", category: CategoryAPI, contentType: jsonContentType, render: func() ([]byte, error) {
			return encodeJSON(s.deps.Posts.Tags())
		}},
		job{path: "api/search-index.json", category: CategoryAPI, contentType: jsonContentType, render: func() ([]byte, error) {
			return encodeJSON(search.BuildIndex(all))
		}},
	)

	if s.deps.Resources != nil {
		if dir := s.deps.Resources(); dir != nil {
			jobs = append(jobs, job{path: "api/resources.json", category: CategoryAPI, contentType: jsonContentType, render: func() ([]byte, error) {
				return encodeJSON(dir.Document())
			}})
		}
	}
	return jobs
}

func (s *Service) postJobs(post *interfaces.Post) []job {
	detail := posts.NewDetail(post, s.link(post))
	jobs := []job{{
		path:        postJSONPath(post.Slug),
		category:    CategoryAPI,
		contentType: jsonContentType,
		slug:        post.Slug,
		render: func() ([]byte, error) {
			return encodeJSON(detail)
		},
	}}
	if s.cfg.WriteHTML {
		jobs = append(jobs, job{
			path:        postPagePath(post.Slug),
			category:    CategoryPage,
			contentType: htmlContentType,
			slug:        post.Slug,
			render: func() ([]byte, error) {
				feedURL := ""
				if s.deps.URLs != nil {
					feedURL = s.deps.URLs.RSS()
				}
				return renderPage(pageData{
					Language:  s.cfg.Language,
					SiteTitle: s.cfg.SiteTitle,
					FeedURL:   feedURL,
					Post:      detail,
				})
			},
		})
	}
	return jobs
}

func (s *Service) write(ctx context.Context, store interfaces.ArtifactStore, j job, data []byte) error {
	sum := sha256.Sum256(data)
	return store.Write(ctx, interfaces.Artifact{
		Path:        j.path,
		Content:     bytes.NewReader(data),
		Size:        int64(len(data)),
		Category:    j.category,
		ContentType: j.contentType,
		Checksum:    hex.EncodeToString(sum[:]),
	})
}

func (s *Service) removeOutputs(ctx context.Context, store interfaces.ArtifactStore, entry manifestPost) error {
	outputs := entry.Outputs
	if len(outputs) == 0 {
		outputs = []string{postJSONPath(entry.Slug), postPagePath(entry.Slug)}
	}
	for _, output := range outputs {
		if err := store.Remove(ctx, output); err != nil {
			return fmt.Errorf("generator: remove %s: %w", output, err)
		}
	}
	if err := store.Remove(ctx, "blog/"+entry.Slug); err != nil {
		return fmt.Errorf("generator: remove blog/%s: %w", entry.Slug, err)
	}
	return nil
}

func (s *Service) loadManifest(ctx context.Context, store interfaces.ArtifactStore) (*buildManifest, error) {
	reader, ok := store.(interfaces.ArtifactReader)
	if !ok {
		return newBuildManifest(), nil
	}
	data, err := reader.Read(ctx, manifestFileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newBuildManifest(), nil
		}
		return nil, err
	}
	return parseManifest(data)
}

func (s *Service) persistManifest(ctx context.Context, store interfaces.ArtifactStore, manifest *buildManifest) error {
	data, err := manifest.marshal()
	if err != nil {
		return fmt.Errorf("generator: encode manifest: %w", err)
	}
	return s.write(ctx, store, job{
		path:        manifestFileName,
		category:    CategoryManifest,
		contentType: jsonContentType,
	}, data)
}

// fingerprint hashes every setting that shapes per-post artifacts.
func (s *Service) fingerprint() string {
	settings := struct {
		BaseURL   string `json:"base_url"`
		WriteHTML bool   `json:"write_html"`
		SiteTitle string `json:"site_title"`
		Language  string `json:"language"`
		Render    string `json:"render"`
	}{
		WriteHTML: s.cfg.WriteHTML,
		SiteTitle: s.cfg.SiteTitle,
		Language:  s.cfg.Language,
		Render:    s.cfg.Fingerprint,
	}
	if s.deps.URLs != nil {
		settings.BaseURL = s.deps.URLs.Base()
	}
	data, _ := json.Marshal(settings)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *Service) link(post *interfaces.Post) string {
	if s.deps.URLs == nil {
		return ""
	}
	return s.deps.URLs.Post(post)
}

func (s *Service) workers() int {
	if s.cfg.Workers > 0 {
		return s.cfg.Workers
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}

func postJSONPath(slug string) string {
	return "api/posts/" + slug + ".json"
}

func postPagePath(slug string) string {
	return "blog/" + slug + "/index.html"
}

func encodeJSON(value any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
