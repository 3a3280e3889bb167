package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-blog"
	blogcmd "github.com/goliatone/go-blog/internal/commands/blog"
	"github.com/goliatone/go-blog/internal/index"
)

func (a *app) syncIndexCmd() *cobra.Command {
	var (
		dsn           string
		deleteMissing bool
	)
	cmd := &cobra.Command{
		Use:   "sync-index",
		Short: "Mirror the loaded posts into the SQL post index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			module, err := a.module(cmd.Context(), func(cfg *blog.Config) {
				cfg.Index.Enabled = true
				if dsn != "" {
					cfg.Index.DSN = dsn
				}
			})
			if err != nil {
				return err
			}
			defer module.Close()

			var result index.SyncResult
			set, err := module.Commands(cmd.Context(), nil, blogcmd.WithSyncObserver(func(r index.SyncResult) {
				result = r
			}))
			if err != nil {
				return err
			}
			if err := set.Sync.Execute(cmd.Context(), blogcmd.SyncIndexCommand{DeleteMissing: deleteMissing}); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "index: %d created, %d updated, %d deleted, %d unchanged\n",
				result.Created, result.Updated, result.Deleted, result.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "index database DSN (overrides index.dsn)")
	cmd.Flags().BoolVar(&deleteMissing, "delete-missing", true, "drop rows for posts that no longer exist")
	return cmd
}
