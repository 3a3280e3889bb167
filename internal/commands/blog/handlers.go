package blogcmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	command "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-blog/internal/commands"
	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/index"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

const (
	buildOperation    = "site.build"
	syncOperation     = "index.sync"
	validateOperation = "content.validate"
	reloadOperation   = "content.reload"
)

// CodeContentLintFailed is the text code carried by lint failures.
const CodeContentLintFailed = "CONTENT_LINT_FAILED"

// ErrContentInvalid is returned when linting finds at least one problem.
var ErrContentInvalid = errors.New("blog command: content has lint findings")

var (
	_ command.Commander[BuildSiteCommand]       = (*BuildSiteHandler)(nil)
	_ command.Commander[SyncIndexCommand]       = (*SyncIndexHandler)(nil)
	_ command.Commander[ValidateContentCommand] = (*ValidateContentHandler)(nil)
	_ command.Commander[ReloadContentCommand]   = (*ReloadContentHandler)(nil)
)

// SiteBuilder renders the static site.
type SiteBuilder interface {
	Build(ctx context.Context, opts generator.BuildOptions) (*generator.BuildResult, error)
}

// PostLister lists the loaded posts.
type PostLister interface {
	All() []*interfaces.Post
}

// IndexSyncer mirrors posts into the post index.
type IndexSyncer interface {
	Sync(ctx context.Context, posts []*interfaces.Post, opts index.SyncOptions) (index.SyncResult, error)
}

// ContentReloader reloads posts from their source.
type ContentReloader interface {
	Reload(ctx context.Context) error
}

// BuildSiteHandler runs generator builds.
type BuildSiteHandler struct {
	inner *commands.Handler[BuildSiteCommand]
}

// NewBuildSiteHandler creates a handler bound to builder. observe, when set,
// receives every build result.
func NewBuildSiteHandler(builder SiteBuilder, logger interfaces.Logger, observe func(*generator.BuildResult), opts ...commands.HandlerOption[BuildSiteCommand]) *BuildSiteHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg BuildSiteCommand) error {
		result, err := builder.Build(ctx, generator.BuildOptions{
			OutputDir: msg.OutputDir,
			DryRun:    msg.DryRun,
			Force:     msg.Force,
		})
		if result != nil {
			if observe != nil {
				observe(result)
			}
			logging.WithFields(baseLogger, map[string]any{
				"pages_built":   result.PagesBuilt,
				"pages_skipped": result.PagesSkipped,
				"pages_removed": result.PagesRemoved,
				"artifacts":     len(result.Artifacts),
				"dry_run":       result.DryRun,
			}).Info("blog.command.site_build.completed")
		}
		return err
	}

	handlerOpts := []commands.HandlerOption[BuildSiteCommand]{
		commands.WithLogger[BuildSiteCommand](baseLogger),
		commands.WithOperation[BuildSiteCommand](buildOperation),
		commands.WithMessageFields(func(msg BuildSiteCommand) map[string]any {
			fields := map[string]any{}
			if msg.OutputDir != "" {
				fields["output_dir"] = msg.OutputDir
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			if msg.Force {
				fields["force"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[BuildSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildSiteHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[BuildSiteCommand].
func (h *BuildSiteHandler) Execute(ctx context.Context, msg BuildSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// SyncIndexHandler mirrors the catalog into the post index.
type SyncIndexHandler struct {
	inner *commands.Handler[SyncIndexCommand]
}

// NewSyncIndexHandler creates a handler syncing the posts of lister into
// syncer. observe, when set, receives every sync result.
func NewSyncIndexHandler(lister PostLister, syncer IndexSyncer, logger interfaces.Logger, observe func(index.SyncResult), opts ...commands.HandlerOption[SyncIndexCommand]) *SyncIndexHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg SyncIndexCommand) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, err := syncer.Sync(ctx, lister.All(), index.SyncOptions{DeleteMissing: msg.DeleteMissing})
		if observe != nil {
			observe(result)
		}
		logging.WithFields(baseLogger, map[string]any{
			"created_count":  result.Created,
			"updated_count":  result.Updated,
			"deleted_count":  result.Deleted,
			"skipped_count":  result.Skipped,
			"error_count":    len(result.Errors),
			"delete_missing": msg.DeleteMissing,
		}).Info("blog.command.index_sync.completed")
		return err
	}

	handlerOpts := []commands.HandlerOption[SyncIndexCommand]{
		commands.WithLogger[SyncIndexCommand](baseLogger),
		commands.WithOperation[SyncIndexCommand](syncOperation),
		commands.WithMessageFields(func(msg SyncIndexCommand) map[string]any {
			return map[string]any{"delete_missing": msg.DeleteMissing}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[SyncIndexCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SyncIndexHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[SyncIndexCommand].
func (h *SyncIndexHandler) Execute(ctx context.Context, msg SyncIndexCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ValidateContentHandler lints a content directory.
type ValidateContentHandler struct {
	inner *commands.Handler[ValidateContentCommand]
}

// NewValidateContentHandler creates a handler linting files with one of
// extensions. observe, when set, receives the reports of every run. The
// handler fails with ErrContentInvalid when any report has findings.
func NewValidateContentHandler(extensions []string, logger interfaces.Logger, observe func([]markdown.LintReport), opts ...commands.HandlerOption[ValidateContentCommand]) *ValidateContentHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg ValidateContentCommand) error {
		reports, err := markdown.LintDirectory(ctx, os.DirFS(msg.Directory), extensions)
		if err != nil {
			return err
		}
		if observe != nil {
			observe(reports)
		}
		failed := markdown.Failed(reports)
		logging.WithFields(baseLogger, map[string]any{
			"files":  len(reports),
			"failed": len(failed),
		}).Info("blog.command.content_validate.completed")
		if len(failed) > 0 {
			return goerrors.Wrap(fmt.Errorf("%w: %d of %d files", ErrContentInvalid, len(failed), len(reports)),
				goerrors.CategoryValidation, "content validation failed").
				WithTextCode(CodeContentLintFailed)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ValidateContentCommand]{
		commands.WithLogger[ValidateContentCommand](baseLogger),
		commands.WithOperation[ValidateContentCommand](validateOperation),
		commands.WithMessageFields(func(msg ValidateContentCommand) map[string]any {
			return map[string]any{"directory": msg.Directory}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ValidateContentCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ValidateContentHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[ValidateContentCommand].
func (h *ValidateContentHandler) Execute(ctx context.Context, msg ValidateContentCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ReloadContentHandler reloads the post catalog.
type ReloadContentHandler struct {
	inner *commands.Handler[ReloadContentCommand]
}

// NewReloadContentHandler creates a handler bound to reloader.
func NewReloadContentHandler(reloader ContentReloader, logger interfaces.Logger, opts ...commands.HandlerOption[ReloadContentCommand]) *ReloadContentHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, _ ReloadContentCommand) error {
		return reloader.Reload(ctx)
	}

	handlerOpts := []commands.HandlerOption[ReloadContentCommand]{
		commands.WithLogger[ReloadContentCommand](baseLogger),
		commands.WithOperation[ReloadContentCommand](reloadOperation),
		commands.WithTelemetry(commands.DefaultTelemetry[ReloadContentCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ReloadContentHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[ReloadContentCommand].
func (h *ReloadContentHandler) Execute(ctx context.Context, msg ReloadContentCommand) error {
	return h.inner.Execute(ctx, msg)
}
