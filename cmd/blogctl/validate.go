package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	blogcmd "github.com/goliatone/go-blog/internal/commands/blog"
	"github.com/goliatone/go-blog/internal/markdown"
)

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [dir]",
		Short: "Lint post files for frontmatter and code fence problems",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			dir := cfg.Content.Dir
			if len(args) == 1 {
				dir = args[0]
			}

			var reports []markdown.LintReport
			handler := blogcmd.NewValidateContentHandler(cfg.Content.Extensions, nil, func(r []markdown.LintReport) {
				reports = r
			})
			execErr := handler.Execute(cmd.Context(), blogcmd.ValidateContentCommand{Directory: dir})

			failed := markdown.Failed(reports)
			for _, report := range failed {
				for _, finding := range report.Findings {
					fmt.Fprintf(a.out, "%s: [%s] %s\n", report.Path, finding.Rule, finding.Message)
				}
			}
			switch {
			case errors.Is(execErr, blogcmd.ErrContentInvalid):
				fmt.Fprintf(a.out, "%d of %d files have findings\n", len(failed), len(reports))
				return errFindings
			case execErr != nil:
				return execErr
			}
			fmt.Fprintf(a.out, "%d files ok\n", len(reports))
			return nil
		},
	}
}
