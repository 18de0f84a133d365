package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCrawlCmd() *cobra.Command {
	var authorID int

	cmd := &cobra.Command{
		Use:   "crawl <author-url>",
		Short: "Scrapes every book on an author page into the catalog",
		Long: `Walks an author's listing page on the content site, extracts each
book's metadata and page contents, and persists the finished books to
the internal catalog. Books behind a login wall are recorded in the
skip log and left out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			orch, err := app.Orchestrator()
			if err != nil {
				return fmt.Errorf("build crawl pipeline: %w", err)
			}

			if err := orch.CrawlAuthor(cmd.Context(), args[0], authorID); err != nil {
				return fmt.Errorf("crawl author: %w", err)
			}
			app.Logger.Info("crawl finished",
				zap.String("author_url", args[0]),
				zap.Int("author_id", authorID),
			)
			return nil
		},
	}

	cmd.Flags().IntVar(&authorID, "author-id", 0, "catalog author id the scraped books belong to")
	_ = cmd.MarkFlagRequired("author-id")

	return cmd
}
