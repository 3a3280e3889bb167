package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// ErrRecordNotFound is returned when no record matches a slug.
var ErrRecordNotFound = errors.New("index: record not found")

// Filter narrows List results. Zero values disable a clause.
type Filter struct {
	Category string
	Tag      string
	Limit    int
	Offset   int
}

// SyncOptions controls Sync.
type SyncOptions struct {
	// DeleteMissing removes records whose slug is absent from the input.
	DeleteMissing bool
}

// SyncResult summarises a Sync run.
type SyncResult struct {
	Created int     `json:"created"`
	Updated int     `json:"updated"`
	Deleted int     `json:"deleted"`
	Skipped int     `json:"skipped"`
	Errors  []error `json:"-"`
}

// Err joins the per-post failures.
func (r SyncResult) Err() error {
	return errors.Join(r.Errors...)
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithCache routes single record reads and all writes through
// go-repository-cache so writes invalidate cached records.
func WithCache(service cache.CacheService, serializer cache.KeySerializer) StoreOption {
	return func(s *Store) {
		s.cacheService = service
		s.serializer = serializer
	}
}

// WithLogger sets the store logger.
func WithLogger(logger interfaces.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNow overrides the clock used for timestamps.
func WithNow(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store persists post records. Lists always hit the database; Get and the
// writes in Sync go through the cache when one is configured.
type Store struct {
	db           *bun.DB
	base         repository.Repository[*PostRecord]
	repo         repository.Repository[*PostRecord]
	cacheService cache.CacheService
	serializer   cache.KeySerializer
	logger       interfaces.Logger
	now          func() time.Time
}

// NewStore builds a store over db.
func NewStore(db *bun.DB, opts ...StoreOption) *Store {
	s := &Store{
		db:     db,
		logger: logging.NoOp(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.base = NewPostRepository(db)
	s.repo = s.base
	if s.cacheService != nil && s.serializer != nil {
		s.repo = repositorycache.NewWithIdentifierFields(s.base, s.cacheService, s.serializer, "Slug")
	}
	return s
}

// NewCache builds the in-memory cache service used by WithCache.
func NewCache(ttl time.Duration) (cache.CacheService, cache.KeySerializer, error) {
	cfg := cache.DefaultConfig()
	if ttl > 0 {
		cfg.TTL = ttl
	}
	service, err := cache.NewCacheService(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("index: cache service: %w", err)
	}
	return service, cache.NewDefaultKeySerializer(), nil
}

// Migrate creates the posts table when it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*PostRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("index: create posts table: %w", err)
	}
	return nil
}

// Get returns the record for slug.
func (s *Store) Get(ctx context.Context, slug string) (*PostRecord, error) {
	record, err := s.repo.GetByIdentifier(ctx, slug)
	if err != nil {
		return nil, mapRepositoryError(err, slug)
	}
	return record, nil
}

// List returns records newest first along with the unpaginated total.
// Records without a publish date sort last.
func (s *Store) List(ctx context.Context, filter Filter) ([]*PostRecord, int, error) {
	criteria := []repository.SelectCriteria{
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("CASE WHEN ?TableAlias.published_at IS NULL THEN 1 ELSE 0 END ASC").
				OrderExpr("?TableAlias.published_at DESC").
				OrderExpr("?TableAlias.slug ASC")
		}),
	}
	if category := strings.ToLower(strings.TrimSpace(filter.Category)); category != "" {
		criteria = append(criteria, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.category = ?", category)
		}))
	}
	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		encoded, _ := json.Marshal(tag)
		pattern := "%" + string(encoded) + "%"
		criteria = append(criteria, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("CAST(?TableAlias.tags AS TEXT) LIKE ?", pattern)
		}))
	}
	if filter.Limit > 0 {
		criteria = append(criteria, repository.SelectPaginate(filter.Limit, filter.Offset))
	}

	records, total, err := s.base.List(ctx, criteria...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list posts: %w", err)
	}
	return records, total, nil
}

// Sync reconciles the table with posts. Records are matched by slug; a record
// is rewritten only when its checksum changed. Per-post failures are collected
// in the result and joined into the returned error.
func (s *Store) Sync(ctx context.Context, posts []*interfaces.Post, opts SyncOptions) (SyncResult, error) {
	logger := logging.WithOperation(s.logger, "sync")
	var result SyncResult

	existing, _, err := s.base.List(ctx)
	if err != nil {
		return result, fmt.Errorf("index: load records: %w", err)
	}
	bySlug := make(map[string]*PostRecord, len(existing))
	for _, record := range existing {
		bySlug[record.Slug] = record
	}

	seen := make(map[string]struct{}, len(posts))
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if post == nil || post.Slug == "" {
			continue
		}
		if _, dup := seen[post.Slug]; dup {
			continue
		}
		seen[post.Slug] = struct{}{}

		record := NewRecord(post)
		now := s.now().UTC()
		current, ok := bySlug[post.Slug]
		switch {
		case !ok:
			record.CreatedAt = now
			record.UpdatedAt = now
			if _, err := s.repo.Create(ctx, record); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("index: create %s: %w", post.Slug, err))
				continue
			}
			result.Created++
		case current.Checksum == record.Checksum:
			result.Skipped++
		default:
			record.ID = current.ID
			record.CreatedAt = current.CreatedAt
			record.UpdatedAt = now
			if _, err := s.repo.Update(ctx, record,
				repository.UpdateByID(record.ID.String()),
				repository.UpdateColumns(updatableColumns...),
			); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("index: update %s: %w", post.Slug, err))
				continue
			}
			result.Updated++
		}
	}

	if opts.DeleteMissing {
		for slug, record := range bySlug {
			if _, ok := seen[slug]; ok {
				continue
			}
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if err := s.repo.Delete(ctx, record); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("index: delete %s: %w", slug, err))
				continue
			}
			result.Deleted++
		}
	}

	logger.Info("index.sync.completed",
		"created", result.Created,
		"updated", result.Updated,
		"deleted", result.Deleted,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)
	return result, result.Err()
}

// Count returns the number of indexed posts.
func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.db.NewSelect().Model((*PostRecord)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("index: count posts: %w", err)
	}
	return count, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func mapRepositoryError(err error, slug string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, slug)
	}
	return fmt.Errorf("index: get %s: %w", slug, err)
}
