package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-blog"
	blogcmd "github.com/goliatone/go-blog/internal/commands/blog"
	"github.com/goliatone/go-blog/internal/generator"
)

func (a *app) buildCmd() *cobra.Command {
	var (
		out    string
		dryRun bool
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render the static site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			module, err := a.module(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer module.Close()

			var result *generator.BuildResult
			set, err := module.Commands(cmd.Context(), nil, blogcmd.WithBuildObserver(func(r *generator.BuildResult) {
				result = r
			}))
			if err != nil {
				return err
			}
			execErr := set.Build.Execute(cmd.Context(), blogcmd.BuildSiteCommand{
				OutputDir: out,
				DryRun:    dryRun,
				Force:     force,
			})
			if result != nil {
				printBuildResult(a, result)
			}
			return execErr
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (overrides generator.output_dir)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render without writing files")
	cmd.Flags().BoolVar(&force, "force", false, "rebuild unchanged pages")
	return cmd
}

func printBuildResult(a *app, result *blog.BuildResult) {
	verb := "wrote"
	if result.DryRun {
		verb = "would write"
	}
	fmt.Fprintf(a.out, "%s %d artifacts to %s\n", verb, len(result.Artifacts), result.OutputDir)
	fmt.Fprintf(a.out, "pages: %d built, %d skipped, %d removed in %s\n",
		result.PagesBuilt, result.PagesSkipped, result.PagesRemoved, result.Duration.Round(time.Millisecond))
	for _, err := range result.Errors {
		fmt.Fprintf(a.errOut, "error: %v\n", err)
	}
}
