package blogcmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/index"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

type stubBuilder struct {
	calls  []generator.BuildOptions
	result *generator.BuildResult
	err    error
}

func (s *stubBuilder) Build(_ context.Context, opts generator.BuildOptions) (*generator.BuildResult, error) {
	s.calls = append(s.calls, opts)
	return s.result, s.err
}

type stubLister struct {
	posts []*interfaces.Post
}

func (s stubLister) All() []*interfaces.Post { return s.posts }

type stubSyncer struct {
	posts  []*interfaces.Post
	opts   []index.SyncOptions
	result index.SyncResult
	err    error
}

func (s *stubSyncer) Sync(_ context.Context, posts []*interfaces.Post, opts index.SyncOptions) (index.SyncResult, error) {
	s.posts = posts
	s.opts = append(s.opts, opts)
	return s.result, s.err
}

type stubReloader struct {
	calls int
	err   error
}

func (s *stubReloader) Reload(context.Context) error {
	s.calls++
	return s.err
}

func TestBuildSiteHandlerForwardsOptions(t *testing.T) {
	builder := &stubBuilder{result: &generator.BuildResult{PagesBuilt: 3, DryRun: true}}
	var observed *generator.BuildResult
	handler := NewBuildSiteHandler(builder, logging.NoOp(), func(result *generator.BuildResult) {
		observed = result
	})

	err := handler.Execute(context.Background(), BuildSiteCommand{OutputDir: "out", DryRun: true, Force: true})
	if err != nil {
		t.Fatalf("execute build: %v", err)
	}
	if len(builder.calls) != 1 {
		t.Fatalf("expected one build call, got %d", len(builder.calls))
	}
	want := generator.BuildOptions{OutputDir: "out", DryRun: true, Force: true}
	if builder.calls[0] != want {
		t.Fatalf("expected options %+v, got %+v", want, builder.calls[0])
	}
	if observed == nil || observed.PagesBuilt != 3 {
		t.Fatalf("expected observer to receive result, got %+v", observed)
	}
}

func TestBuildSiteHandlerWrapsFailures(t *testing.T) {
	builder := &stubBuilder{result: &generator.BuildResult{}, err: errors.New("disk full")}
	handler := NewBuildSiteHandler(builder, nil, nil)

	err := handler.Execute(context.Background(), BuildSiteCommand{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}

func TestSyncIndexHandlerPassesPosts(t *testing.T) {
	posts := []*interfaces.Post{{Slug: "a"}, {Slug: "b"}}
	syncer := &stubSyncer{result: index.SyncResult{Created: 2}}
	var observed index.SyncResult
	handler := NewSyncIndexHandler(stubLister{posts: posts}, syncer, logging.NoOp(), func(result index.SyncResult) {
		observed = result
	})

	if err := handler.Execute(context.Background(), SyncIndexCommand{DeleteMissing: true}); err != nil {
		t.Fatalf("execute sync: %v", err)
	}
	if len(syncer.posts) != 2 {
		t.Fatalf("expected two posts synced, got %d", len(syncer.posts))
	}
	if len(syncer.opts) != 1 || !syncer.opts[0].DeleteMissing {
		t.Fatalf("expected delete missing forwarded, got %+v", syncer.opts)
	}
	if observed.Created != 2 {
		t.Fatalf("expected observer result, got %+v", observed)
	}
}

func TestSyncIndexHandlerContextCancellation(t *testing.T) {
	syncer := &stubSyncer{}
	handler := NewSyncIndexHandler(stubLister{}, syncer, logging.NoOp(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handler.Execute(ctx, SyncIndexCommand{})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if len(syncer.opts) != 0 {
		t.Fatal("expected sync not to run")
	}
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestValidateContentHandlerReportsFindings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.md", "---\ntitle: Good\ndate: 2024-01-01\ndescription: Fine\n---\nBody\n")
	writeFile(t, dir, "bad.md", "---\ntitle: Bad\n---\n```go\nfmt.Println()\n")

	var reports []markdown.LintReport
	handler := NewValidateContentHandler([]string{".md"}, logging.NoOp(), func(r []markdown.LintReport) {
		reports = r
	})

	err := handler.Execute(context.Background(), ValidateContentCommand{Directory: dir})
	if !errors.Is(err, ErrContentInvalid) {
		t.Fatalf("expected ErrContentInvalid, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected two reports, got %d", len(reports))
	}
	if reports[0].Path != "bad.md" || reports[0].OK() {
		t.Fatalf("expected bad.md to fail, got %+v", reports[0])
	}
	if !reports[1].OK() {
		t.Fatalf("expected good.md to pass, got %+v", reports[1])
	}
}

func TestValidateContentHandlerPassesCleanDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.mdx", "---\ntitle: Good\ndate: 2024-01-01\ndescription: Fine\n---\nBody\n")

	handler := NewValidateContentHandler([]string{".mdx", ".md"}, nil, nil)
	if err := handler.Execute(context.Background(), ValidateContentCommand{Directory: dir}); err != nil {
		t.Fatalf("expected clean run, got %v", err)
	}
}

func TestValidateContentHandlerRequiresDirectory(t *testing.T) {
	handler := NewValidateContentHandler(nil, nil, nil)
	err := handler.Execute(context.Background(), ValidateContentCommand{Directory: "  "})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
}

func TestValidateContentHandlerMissingDirectory(t *testing.T) {
	handler := NewValidateContentHandler(nil, nil, nil)
	err := handler.Execute(context.Background(), ValidateContentCommand{Directory: filepath.Join(t.TempDir(), "missing")})
	if !errors.Is(err, markdown.ErrContentDirMissing) {
		t.Fatalf("expected missing dir error, got %v", err)
	}
}

func TestReloadContentHandler(t *testing.T) {
	reloader := &stubReloader{}
	handler := NewReloadContentHandler(reloader, logging.NoOp())

	if err := handler.Execute(context.Background(), ReloadContentCommand{}); err != nil {
		t.Fatalf("execute reload: %v", err)
	}
	if reloader.calls != 1 {
		t.Fatalf("expected one reload, got %d", reloader.calls)
	}

	reloader.err = errors.New("boom")
	if err := handler.Execute(context.Background(), ReloadContentCommand{}); err == nil {
		t.Fatal("expected reload error")
	}
}
