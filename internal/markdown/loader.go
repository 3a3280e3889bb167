package markdown

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

// ErrDocumentNotFound is returned when no file backs a requested slug.
var ErrDocumentNotFound = errors.New("markdown: document not found")

// ErrContentDirMissing is returned by Discover when the content directory
// does not exist.
var ErrContentDirMissing = errors.New("markdown: content directory missing")

// LoaderConfig configures how post files are discovered.
type LoaderConfig struct {
	// Extensions lists accepted file extensions in precedence order.
	Extensions     []string
	WordsPerMinute int
}

// Loader turns files at the top level of a filesystem into documents.
type Loader struct {
	fs         fs.FS
	extensions []string
	wpm        int
}

// Entry pairs a slug with the file chosen to back it.
type Entry struct {
	Slug string
	Path string
}

// DocumentResult carries the parsed document along with the raw source.
type DocumentResult struct {
	Document *interfaces.Document
	Source   []byte
}

// NewLoader constructs a Loader over filesystem.
func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	extensions := make([]string, 0, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" {
			extensions = append(extensions, ext)
		}
	}
	if len(extensions) == 0 {
		extensions = []string{".mdx", ".md"}
	}
	return &Loader{
		fs:         filesystem,
		extensions: extensions,
		wpm:        cfg.WordsPerMinute,
	}
}

// Extensions returns the accepted extensions in precedence order.
func (l *Loader) Extensions() []string {
	return append([]string(nil), l.extensions...)
}

// Discover lists one entry per slug, sorted by slug. When several files share
// a slug the extension listed first wins.
func (l *Loader) Discover(ctx context.Context) ([]Entry, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	dirEntries, err := fs.ReadDir(l.fs, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrContentDirMissing
		}
		return nil, fmt.Errorf("markdown loader read dir: %w", err)
	}

	chosen := map[string]int{}
	paths := map[string]string{}
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		rank := l.rank(name)
		if rank < 0 {
			continue
		}
		slug := strings.TrimSuffix(name, path.Ext(name))
		if slug == "" {
			continue
		}
		if current, ok := chosen[slug]; ok && current <= rank {
			continue
		}
		chosen[slug] = rank
		paths[slug] = name
	}

	entries := make([]Entry, 0, len(paths))
	for slug, name := range paths {
		entries = append(entries, Entry{Slug: slug, Path: name})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Slug < entries[j].Slug
	})
	return entries, nil
}

// Resolve finds the file backing slug, trying extensions in precedence order.
func (l *Loader) Resolve(ctx context.Context, slug string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	slug = strings.TrimSpace(slug)
	if slug == "" || strings.ContainsAny(slug, `/\`) || !fs.ValidPath(slug) {
		return Entry{}, fmt.Errorf("%w: %q", ErrDocumentNotFound, slug)
	}
	for _, ext := range l.extensions {
		name := slug + ext
		info, err := fs.Stat(l.fs, name)
		if err == nil && !info.IsDir() {
			return Entry{Slug: slug, Path: name}, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Entry{}, fmt.Errorf("markdown loader stat %s: %w", name, err)
		}
	}
	return Entry{}, fmt.Errorf("%w: %q", ErrDocumentNotFound, slug)
}

// LoadFile reads and parses the file behind entry.
func (l *Loader) LoadFile(ctx context.Context, entry Entry) (*DocumentResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := fs.ReadFile(l.fs, entry.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, entry.Path)
		}
		return nil, fmt.Errorf("markdown loader read %s: %w", entry.Path, err)
	}

	info, err := fs.Stat(l.fs, entry.Path)
	if err != nil {
		return nil, fmt.Errorf("markdown loader stat %s: %w", entry.Path, err)
	}

	fm, body, err := ParseFrontMatter(data, FrontMatterOptions{
		ModTime:        info.ModTime(),
		WordsPerMinute: l.wpm,
	})
	if err != nil {
		return nil, fmt.Errorf("markdown loader %s: %w", entry.Path, err)
	}

	sum := sha256.Sum256(data)
	return &DocumentResult{
		Document: &interfaces.Document{
			FilePath:     entry.Path,
			Slug:         entry.Slug,
			FrontMatter:  fm,
			Body:         body,
			LastModified: info.ModTime(),
			Checksum:     sum[:],
		},
		Source: data,
	}, nil
}

func (l *Loader) rank(name string) int {
	ext := strings.ToLower(path.Ext(name))
	for i, candidate := range l.extensions {
		if ext == candidate {
			return i
		}
	}
	return -1
}
