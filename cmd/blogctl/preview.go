package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

func (a *app) previewCmd() *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "preview <slug>",
		Short: "Render a post in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := a.module(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer module.Close()

			post, err := module.Posts().Get(args[0])
			if err != nil {
				return err
			}

			renderer, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(width),
			)
			if err != nil {
				return fmt.Errorf("preview: renderer: %w", err)
			}
			body, err := renderer.Render(post.Body)
			if err != nil {
				return fmt.Errorf("preview: render %s: %w", post.Slug, err)
			}

			fm := post.FrontMatter
			fmt.Fprintln(a.out, titleStyle.Render(fm.Title))
			meta := []string{displayDate(post), fm.ReadTime}
			if fm.Category != "" {
				meta = append(meta, fm.Category)
			}
			if len(fm.Tags) > 0 {
				meta = append(meta, "#"+strings.Join(fm.Tags, " #"))
			}
			fmt.Fprintln(a.out, mutedStyle.Render(strings.Join(meta, " · ")))
			fmt.Fprintln(a.out, mutedStyle.Render(module.URLs().Post(post)))
			fmt.Fprint(a.out, body)
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 80, "word wrap width")
	return cmd
}
