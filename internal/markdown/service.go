package markdown

import (
	"context"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-blog/internal/identity"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Config controls how the Markdown service discovers and renders posts.
type Config struct {
	BasePath       string
	Extensions     []string
	WordsPerMinute int
	// Workers bounds concurrent file loads. Zero means runtime.NumCPU.
	Workers int
	Parser  interfaces.ParseOptions
}

// Option customises a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithComponents expands component tags before rendering.
func WithComponents(expander interfaces.ComponentExpander) Option {
	return func(s *Service) {
		s.components = expander
	}
}

// WithFilesystem replaces the os.DirFS rooted at Config.BasePath.
func WithFilesystem(filesystem fs.FS) Option {
	return func(s *Service) {
		if filesystem != nil {
			s.fs = filesystem
		}
	}
}

// Service loads posts from disk and renders them. It implements
// interfaces.PostSource.
type Service struct {
	cfg        Config
	fs         fs.FS
	parser     interfaces.MarkdownParser
	components interfaces.ComponentExpander
	loader     *Loader
	logger     interfaces.Logger
}

var _ interfaces.PostSource = (*Service)(nil)

// NewService constructs a Markdown service. When parser is nil a goldmark
// parser with cfg.Parser defaults is used. A missing content directory is
// not an error; it loads as an empty blog.
func NewService(cfg Config, parser interfaces.MarkdownParser, opts ...Option) *Service {
	if strings.TrimSpace(cfg.BasePath) == "" {
		cfg.BasePath = "."
	}
	if parser == nil {
		parser = NewGoldmarkParser(cfg.Parser)
	}

	svc := &Service{
		cfg:    cfg,
		parser: parser,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.fs == nil {
		svc.fs = os.DirFS(cfg.BasePath)
	}
	svc.loader = NewLoader(svc.fs, LoaderConfig{
		Extensions:     cfg.Extensions,
		WordsPerMinute: cfg.WordsPerMinute,
	})
	return svc
}

// BasePath returns the directory posts are loaded from.
func (s *Service) BasePath() string {
	return s.cfg.BasePath
}

// Loader exposes the underlying file loader.
func (s *Service) Loader() *Loader {
	return s.loader
}

// LoadAll loads and renders every post. Files that fail to parse are logged
// and skipped. The result is ordered by slug.
func (s *Service) LoadAll(ctx context.Context) ([]*interfaces.Post, error) {
	entries, err := s.loader.Discover(ctx)
	if err != nil {
		if errors.Is(err, ErrContentDirMissing) {
			s.logger.Warn("markdown.load_all.missing_dir", "dir", s.cfg.BasePath)
			return []*interfaces.Post{}, nil
		}
		return nil, err
	}

	posts := make([]*interfaces.Post, len(entries))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers())

	for i, entry := range entries {
		group.Go(func() error {
			post, err := s.loadEntry(groupCtx, entry)
			if err != nil {
				if ctxErr := groupCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				logging.WithPostContext(s.logger, entry.Slug, entry.Path).
					Warn("markdown.load_all.skipped", "error", err)
				return nil
			}
			posts[i] = post
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	loaded := make([]*interfaces.Post, 0, len(posts))
	for _, post := range posts {
		if post != nil {
			loaded = append(loaded, post)
		}
	}
	s.logger.Debug("markdown.load_all.completed", "discovered", len(entries), "loaded", len(loaded))
	return loaded, nil
}

// Load loads a single post by slug. It returns an error wrapping
// ErrDocumentNotFound when no file backs the slug.
func (s *Service) Load(ctx context.Context, slug string) (*interfaces.Post, error) {
	entry, err := s.loader.Resolve(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.loadEntry(ctx, entry)
}

// LoadDocument returns the parsed, unrendered document for slug.
func (s *Service) LoadDocument(ctx context.Context, slug string) (*interfaces.Document, error) {
	entry, err := s.loader.Resolve(ctx, slug)
	if err != nil {
		return nil, err
	}
	result, err := s.loader.LoadFile(ctx, entry)
	if err != nil {
		return nil, err
	}
	return result.Document, nil
}

// Render expands components and converts Markdown into HTML.
func (s *Service) Render(ctx context.Context, markdown []byte) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	source := markdown
	if s.components != nil {
		expanded, err := s.components.Expand(ctx, source)
		if err != nil {
			return nil, err
		}
		source = expanded
	}
	return s.parser.ParseWithOptions(source, s.cfg.Parser)
}

func (s *Service) loadEntry(ctx context.Context, entry Entry) (*interfaces.Post, error) {
	result, err := s.loader.LoadFile(ctx, entry)
	if err != nil {
		return nil, err
	}
	doc := result.Document

	html, err := s.Render(ctx, doc.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// A post that fails to render is still listed, with empty content.
		logging.WithPostContext(s.logger, doc.Slug, doc.FilePath).
			Error("markdown.render.failed", "error", err)
		html = nil
	}
	doc.BodyHTML = html

	return NewPost(doc), nil
}

// NewPost converts a document into a Post.
func NewPost(doc *interfaces.Document) *interfaces.Post {
	plain := PlainText(doc.BodyHTML)
	if plain == "" {
		plain = strings.Join(strings.Fields(string(doc.Body)), " ")
	}
	return &interfaces.Post{
		ID:          identity.PostID(doc.Slug),
		Slug:        doc.Slug,
		FrontMatter: doc.FrontMatter,
		Body:        string(doc.Body),
		HTML:        string(doc.BodyHTML),
		Plain:       plain,
		Path:        doc.FilePath,
		Checksum:    hex.EncodeToString(doc.Checksum),
		ModTime:     doc.LastModified,
	}
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
