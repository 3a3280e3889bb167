package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-blog"
	"github.com/goliatone/go-blog/internal/index"
	"github.com/goliatone/go-blog/internal/posts"
)

func (a *app) listCmd() *cobra.Command {
	var (
		category  string
		tier      string
		tag       string
		quiet     bool
		fromIndex bool
		dsn       string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fromIndex {
				return a.listIndexed(cmd.Context(), dsn, blog.IndexFilter{Category: category, Tag: tag}, tier, quiet)
			}
			module, err := a.module(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer module.Close()

			selected := module.Posts().All()
			if category != "" {
				if _, ok := module.Posts().Category(category); !ok {
					return fmt.Errorf("unknown category %q", category)
				}
				selected = posts.FilterTier(module.Posts().ByCategory(category), tier)
			} else if tier != "" {
				selected = posts.FilterTier(selected, tier)
			}
			if tag != "" {
				selected = slices.DeleteFunc(selected, func(post *blog.Post) bool {
					return !slices.Contains(post.FrontMatter.Tags, tag)
				})
			}

			if quiet {
				for _, post := range selected {
					fmt.Fprintln(a.out, post.Slug)
				}
				return nil
			}
			if len(selected) == 0 {
				fmt.Fprintln(a.out, mutedStyle.Render("no posts"))
				return nil
			}

			t := newTable("SLUG", "TITLE", "DATE", "CATEGORY", "TIER", "TAGS")
			for _, post := range selected {
				fm := post.FrontMatter
				t.addRow(post.Slug, fm.Title, displayDate(post), fm.Category, fm.Tier, strings.Join(fm.Tags, ", "))
			}
			fmt.Fprint(a.out, t.render())
			fmt.Fprintln(a.out, mutedStyle.Render(fmt.Sprintf("%d posts", len(selected))))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only posts in this category, ordered by tier")
	cmd.Flags().StringVar(&tier, "tier", "", "only posts with this tier (reference, revisit, read or all)")
	cmd.Flags().StringVar(&tag, "tag", "", "only posts carrying this tag")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print slugs only")
	cmd.Flags().BoolVar(&fromIndex, "from-index", false, "read posts from the SQL post index instead of the content directory")
	cmd.Flags().StringVar(&dsn, "dsn", "", "index database DSN used with --from-index (overrides index.dsn)")
	return cmd
}

// listIndexed prints rows from the post index, newest first.
func (a *app) listIndexed(ctx context.Context, dsn string, filter blog.IndexFilter, tier string, quiet bool) error {
	module, err := a.module(ctx, func(cfg *blog.Config) {
		cfg.Index.Enabled = true
		if dsn != "" {
			cfg.Index.DSN = dsn
		}
	})
	if err != nil {
		return err
	}
	defer module.Close()

	store, err := module.Index(ctx)
	if err != nil {
		return err
	}
	records, total, err := store.List(ctx, filter)
	if err != nil {
		return err
	}
	tier = strings.ToLower(strings.TrimSpace(tier))
	if tier != "" && tier != posts.TierAll {
		records = slices.DeleteFunc(records, func(record *index.PostRecord) bool {
			return record.Tier != tier
		})
		total = len(records)
	}

	if quiet {
		for _, record := range records {
			fmt.Fprintln(a.out, record.Slug)
		}
		return nil
	}
	if len(records) == 0 {
		fmt.Fprintln(a.out, mutedStyle.Render("no indexed posts"))
		return nil
	}

	t := newTable("SLUG", "TITLE", "DATE", "CATEGORY", "TIER", "TAGS")
	for _, record := range records {
		date := ""
		if !record.PublishedAt.IsZero() {
			date = record.PublishedAt.Format("2006-01-02")
		}
		t.addRow(record.Slug, record.Title, date, record.Category, record.Tier, strings.Join(record.Tags, ", "))
	}
	fmt.Fprint(a.out, t.render())
	fmt.Fprintln(a.out, mutedStyle.Render(fmt.Sprintf("%d indexed posts", total)))
	return nil
}

func displayDate(post *blog.Post) string {
	if !post.FrontMatter.PublishedAt.IsZero() {
		return post.FrontMatter.PublishedAt.Format("2006-01-02")
	}
	return post.FrontMatter.Date
}
