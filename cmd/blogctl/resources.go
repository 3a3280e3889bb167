package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func (a *app) resourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources [slug]",
		Short: "Show the resource directory or one of its categories",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := a.module(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer module.Close()

			dir := module.Resources()
			if dir == nil {
				return errors.New("no resources file loaded")
			}

			if len(args) == 0 {
				t := newTable("SLUG", "TITLE", "SECTIONS", "LINKS")
				for _, category := range dir.Categories() {
					links := 0
					for _, sub := range category.Subcategories {
						links += len(sub.Links)
					}
					t.addRow(category.Slug, category.Title, strconv.Itoa(len(category.Subcategories)), strconv.Itoa(links))
				}
				fmt.Fprint(a.out, t.render())
				stats := dir.Stats()
				fmt.Fprintln(a.out, mutedStyle.Render(fmt.Sprintf("%d categories, %d sections, %d links",
					stats.Categories, stats.Subcategories, stats.Links)))
				return nil
			}

			category, err := dir.Category(args[0])
			if err != nil {
				return err
			}
			subcategories, err := dir.Subcategories(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, titleStyle.Render(category.Title))
			if category.Description != "" {
				fmt.Fprintln(a.out, mutedStyle.Render(category.Description))
			}
			for _, sub := range subcategories {
				fmt.Fprintln(a.out)
				t := newTable(sub.Title, "DESCRIPTION", "URL")
				for _, link := range sub.Links {
					t.addRow(link.Name, link.Description, link.URL)
				}
				fmt.Fprint(a.out, t.render())
			}
			return nil
		},
	}
}
