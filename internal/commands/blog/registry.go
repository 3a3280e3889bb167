package blogcmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-blog/internal/commands"
	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/index"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// CommandRegistry is the registration contract used when wiring handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CronRegistrar matches the function signature used by go-command registries.
type CronRegistrar func(command.HandlerConfig, any) error

// Services are the collaborators the handlers drive. Handlers whose
// collaborators are nil are not built.
type Services struct {
	Builder  SiteBuilder
	Posts    PostLister
	Index    IndexSyncer
	Reloader ContentReloader
	// Extensions lists the post file extensions linted by validate.
	Extensions []string
}

// HandlerSet groups the handlers built by RegisterBlogCommands.
type HandlerSet struct {
	Build    *BuildSiteHandler
	Sync     *SyncIndexHandler
	Validate *ValidateContentHandler
	Reload   *ReloadContentHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	onBuild func(*generator.BuildResult)
	onSync  func(index.SyncResult)
	onLint  func([]markdown.LintReport)
}

// WithBuildObserver receives the result of every site build.
func WithBuildObserver(fn func(*generator.BuildResult)) Option {
	return func(cfg *options) { cfg.onBuild = fn }
}

// WithSyncObserver receives the result of every index sync.
func WithSyncObserver(fn func(index.SyncResult)) Option {
	return func(cfg *options) { cfg.onSync = fn }
}

// WithLintObserver receives the reports of every content validation.
func WithLintObserver(fn func([]markdown.LintReport)) Option {
	return func(cfg *options) { cfg.onLint = fn }
}

// RegisterBlogCommands builds the blog command handlers and registers them
// with reg when it is non-nil.
func RegisterBlogCommands(reg CommandRegistry, services Services, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "blog")
	set := &HandlerSet{
		Validate: NewValidateContentHandler(services.Extensions, logger, cfg.onLint),
	}
	handlers := []any{set.Validate}

	if services.Builder != nil {
		set.Build = NewBuildSiteHandler(services.Builder, logger, cfg.onBuild)
		handlers = append(handlers, set.Build)
	}
	if services.Index != nil {
		if services.Posts == nil {
			return nil, errors.New("blog command registration: index sync needs a post lister")
		}
		set.Sync = NewSyncIndexHandler(services.Posts, services.Index, logger, cfg.onSync)
		handlers = append(handlers, set.Sync)
	}
	if services.Reloader != nil {
		set.Reload = NewReloadContentHandler(services.Reloader, logger)
		handlers = append(handlers, set.Reload)
	}

	if reg != nil {
		for _, handler := range handlers {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// RegisterIndexSyncCron schedules msg on handler through reg. The handler
// runs with a background context.
func RegisterIndexSyncCron(reg CronRegistrar, handler *SyncIndexHandler, cfg command.HandlerConfig, msg SyncIndexCommand) error {
	if reg == nil || handler == nil {
		return nil
	}
	return reg(cfg, func() error {
		return handler.Execute(context.Background(), msg)
	})
}
