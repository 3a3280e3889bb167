// Package generator exposes the static site build for hosts that embed the
// blog. Use NewService with Config and Dependencies, then call Build to write
// the feeds, the JSON API snapshot and the post pages.
package generator

import (
	internal "github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

type (
	Service      = internal.Service
	Config       = internal.Config
	Dependencies = internal.Dependencies
	PostLister   = internal.PostLister
	BuildOptions = internal.BuildOptions
	BuildResult  = internal.BuildResult
	Option       = internal.Option
	FSStore      = internal.FSStore
	MemoryStore  = internal.MemoryStore
)

var ErrPostsRequired = internal.ErrPostsRequired

const (
	CategoryFeed     = internal.CategoryFeed
	CategorySitemap  = internal.CategorySitemap
	CategoryRobots   = internal.CategoryRobots
	CategoryAPI      = internal.CategoryAPI
	CategoryPage     = internal.CategoryPage
	CategoryManifest = internal.CategoryManifest
)

// NewService wires a generator over the supplied dependencies.
func NewService(cfg Config, deps Dependencies, opts ...Option) *Service {
	return internal.NewService(cfg, deps, opts...)
}

// WithLogger sets the generator logger.
func WithLogger(logger interfaces.Logger) Option {
	return internal.WithLogger(logger)
}

// WithStoreFactory changes how a store is built for an output directory.
func WithStoreFactory(factory func(dir string) interfaces.ArtifactStore) Option {
	return internal.WithStoreFactory(factory)
}

// NewFSStore writes artifacts below dir.
func NewFSStore(dir string) *FSStore {
	return internal.NewFSStore(dir)
}

// NewMemoryStore keeps artifacts in memory.
func NewMemoryStore() *MemoryStore {
	return internal.NewMemoryStore()
}
