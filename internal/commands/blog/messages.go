package blogcmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	BuildSiteMessageType       = "blog.site.build"
	SyncIndexMessageType       = "blog.index.sync"
	ValidateContentMessageType = "blog.content.validate"
	ReloadContentMessageType   = "blog.content.reload"
)

// BuildSiteCommand renders the static site.
type BuildSiteCommand struct {
	// OutputDir overrides the configured output directory.
	OutputDir string `json:"output_dir,omitempty"`
	// DryRun renders every artifact without writing any.
	DryRun bool `json:"dry_run,omitempty"`
	// Force rebuilds pages the manifest reports as unchanged.
	Force bool `json:"force,omitempty"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return BuildSiteMessageType }

// SyncIndexCommand mirrors the loaded posts into the post index.
type SyncIndexCommand struct {
	// DeleteMissing drops index rows whose post no longer exists.
	DeleteMissing bool `json:"delete_missing,omitempty"`
}

// Type implements command.Message.
func (SyncIndexCommand) Type() string { return SyncIndexMessageType }

// ValidateContentCommand lints every post file in Directory.
type ValidateContentCommand struct {
	Directory string `json:"directory"`
}

// Type implements command.Message.
func (ValidateContentCommand) Type() string { return ValidateContentMessageType }

// Validate ensures a directory is supplied.
func (cmd ValidateContentCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("blog.content.validate.directory_required", "directory is required")
			}
			return nil
		})),
	)
}

// ReloadContentCommand reloads every post from disk into the catalog.
type ReloadContentCommand struct{}

// Type implements command.Message.
func (ReloadContentCommand) Type() string { return ReloadContentMessageType }
