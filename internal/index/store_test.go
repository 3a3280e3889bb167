package index_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-blog/internal/identity"
	"github.com/goliatone/go-blog/internal/index"
	"github.com/goliatone/go-blog/pkg/interfaces"
	"github.com/goliatone/go-blog/pkg/testsupport"
)

func newPost(slug, category, checksum string, published time.Time, tags ...string) *interfaces.Post {
	return &interfaces.Post{
		ID:   identity.PostID(slug),
		Slug: slug,
		FrontMatter: interfaces.FrontMatter{
			Title:       "Title " + slug,
			Description: "About " + slug,
			Category:    category,
			Tags:        tags,
			ReadTime:    "1 min read",
			PublishedAt: published,
		},
		Checksum: checksum,
		Path:     slug + ".md",
	}
}

func newStore(t *testing.T, opts ...index.StoreOption) *index.Store {
	t.Helper()
	db := testsupport.NewBunDB(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	opts = append([]index.StoreOption{index.WithNow(func() time.Time { return now })}, opts...)
	store := index.NewStore(db, opts...)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func slugs(records []*index.PostRecord) []string {
	out := make([]string, 0, len(records))
	for _, record := range records {
		out = append(out, record.Slug)
	}
	return out
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestSyncCreatesUpdatesSkipsAndDeletes(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	initial := []*interfaces.Post{
		newPost("alpha", "", "sum-a", day(1), "go"),
		newPost("beta", "tech", "sum-b", day(2)),
		newPost("gamma", "", "sum-c", day(3)),
	}
	result, err := store.Sync(ctx, initial, index.SyncOptions{DeleteMissing: true})
	if err != nil {
		t.Fatalf("initial sync: %v", err)
	}
	if result.Created != 3 || result.Updated != 0 || result.Skipped != 0 || result.Deleted != 0 {
		t.Fatalf("unexpected initial result %+v", result)
	}

	next := []*interfaces.Post{
		newPost("alpha", "", "sum-a", day(1), "go"),
		newPost("beta", "tech", "sum-b2", day(2), "systems"),
		newPost("delta", "", "sum-d", day(4)),
	}
	result, err = store.Sync(ctx, next, index.SyncOptions{DeleteMissing: true})
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	want := index.SyncResult{Created: 1, Updated: 1, Deleted: 1, Skipped: 1}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("sync result mismatch (-want +got):\n%s", diff)
	}

	beta, err := store.Get(ctx, "beta")
	if err != nil {
		t.Fatalf("get beta: %v", err)
	}
	if beta.Checksum != "sum-b2" || len(beta.Tags) != 1 || beta.Tags[0] != "systems" {
		t.Fatalf("beta was not updated: %+v", beta)
	}
	if beta.ID != identity.PostID("beta") {
		t.Fatalf("beta id changed: %s", beta.ID)
	}

	if _, err := store.Get(ctx, "gamma"); !errors.Is(err, index.ErrRecordNotFound) {
		t.Fatalf("expected gamma to be deleted, got %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 records, got %d", count)
	}
}

func TestSyncKeepsMissingWithoutDeleteFlag(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	if _, err := store.Sync(ctx, []*interfaces.Post{
		newPost("alpha", "", "a", day(1)),
		newPost("beta", "", "b", day(2)),
	}, index.SyncOptions{}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	result, err := store.Sync(ctx, []*interfaces.Post{newPost("alpha", "", "a", day(1))}, index.SyncOptions{})
	if err != nil {
		t.Fatalf("resync: %v", err)
	}
	if result.Deleted != 0 || result.Skipped != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, err := store.Get(ctx, "beta"); err != nil {
		t.Fatalf("beta should remain: %v", err)
	}
}

func TestListOrdersNewestFirstAndFilters(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	posts := []*interfaces.Post{
		newPost("old", "", "1", day(1), "go"),
		newPost("undated", "", "2", time.Time{}, "go"),
		newPost("new", "", "3", day(9), "golang"),
		newPost("tech-one", "tech", "4", day(5), "go"),
	}
	if _, err := store.Sync(ctx, posts, index.SyncOptions{}); err != nil {
		t.Fatalf("sync: %v", err)
	}

	all, total, err := store.List(ctx, index.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected total 4, got %d", total)
	}
	if diff := cmp.Diff([]string{"new", "tech-one", "old", "undated"}, slugs(all)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	tech, _, err := store.List(ctx, index.Filter{Category: "tech"})
	if err != nil {
		t.Fatalf("list tech: %v", err)
	}
	if diff := cmp.Diff([]string{"tech-one"}, slugs(tech)); diff != "" {
		t.Fatalf("category filter mismatch (-want +got):\n%s", diff)
	}

	tagged, total, err := store.List(ctx, index.Filter{Tag: "go"})
	if err != nil {
		t.Fatalf("list tag: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 tagged posts, got %d", total)
	}
	if diff := cmp.Diff([]string{"tech-one", "old", "undated"}, slugs(tagged)); diff != "" {
		t.Fatalf("tag filter mismatch (-want +got):\n%s", diff)
	}

	page, total, err := store.List(ctx, index.Filter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected unpaginated total 4, got %d", total)
	}
	if diff := cmp.Diff([]string{"tech-one", "old"}, slugs(page)); diff != "" {
		t.Fatalf("page mismatch (-want +got):\n%s", diff)
	}
}

func TestCachedReads(t *testing.T) {
	ctx := context.Background()
	service, serializer, err := index.NewCache(time.Minute)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	store := newStore(t, index.WithCache(service, serializer))

	if _, err := store.Sync(ctx, []*interfaces.Post{newPost("alpha", "", "a", day(1))}, index.SyncOptions{}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	for i := 0; i < 2; i++ {
		record, err := store.Get(ctx, "alpha")
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if record.Title != "Title alpha" {
			t.Fatalf("unexpected record %+v", record)
		}
	}
}

func TestCachedGetSeesSyncUpdates(t *testing.T) {
	ctx := context.Background()
	service, serializer, err := index.NewCache(time.Minute)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	store := newStore(t, index.WithCache(service, serializer))

	if _, err := store.Sync(ctx, []*interfaces.Post{newPost("alpha", "", "sum-1", day(1))}, index.SyncOptions{}); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if _, err := store.Get(ctx, "alpha"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	changed := newPost("alpha", "tech", "sum-2", day(2))
	changed.FrontMatter.Title = "Alpha revised"
	result, err := store.Sync(ctx, []*interfaces.Post{changed}, index.SyncOptions{})
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("expected one update, got %+v", result)
	}

	record, err := store.Get(ctx, "alpha")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if record.Title != "Alpha revised" || record.Checksum != "sum-2" || record.Category != "tech" {
		t.Fatalf("expected updated record, got %+v", record)
	}

	if _, err := store.Sync(ctx, nil, index.SyncOptions{DeleteMissing: true}); err != nil {
		t.Fatalf("delete sync: %v", err)
	}
	if _, err := store.Get(ctx, "alpha"); !errors.Is(err, index.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound after delete, got %v", err)
	}
}

func TestSyncHonoursCancellation(t *testing.T) {
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Sync(ctx, []*interfaces.Post{newPost("alpha", "", "a", day(1))}, index.SyncOptions{}); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}
