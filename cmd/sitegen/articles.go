package main

import (
	"fmt"
	"math/rand"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"codent.ru/codent-web/internal/blog"
	"codent.ru/codent-web/internal/format"
)

func newArticlesCmd(root *rootOptions) *cobra.Command {
	var (
		related string
		seed    int64
	)
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "List the article catalogue",
		Long: `List every configured article in listing order.

With --related <id>, print the articles that would be offered next to <id>,
ranked by shared tags. --seed fixes the tie order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			catalog, err := blog.NewCatalog(cfg.Site.Blog.Articles)
			if err != nil {
				return err
			}
			list := catalog.All()
			if related != "" {
				current, err := catalog.Get(related)
				if err != nil {
					return err
				}
				var rng *rand.Rand
				if seed != 0 {
					rng = rand.New(rand.NewSource(seed))
				}
				list = blog.Related(current, list, cfg.Site.Blog.RelatedCount, rng)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tTITLE\tTAGS")
			for _, a := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ID, format.ISODate(format.ParseDate(a.PublishDate)), a.Title, strings.Join(a.Tags, ", "))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&related, "related", "", "show related articles for this id")
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed for tie order (0 keeps catalogue order)")
	return cmd
}
