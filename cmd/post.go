package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post",
		Short: "Posts unposted catalog books to the publishing platform",
		Long: `Fetches every catalog book whose posted flag is unset and pushes it
to the publishing platform, rotating through the verified user tokens.
A book counts as posted once the platform answers, whatever it says.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			if err := app.Publisher().Run(cmd.Context()); err != nil {
				return fmt.Errorf("post books: %w", err)
			}
			app.Logger.Info("post finished")
			return nil
		},
	}
}
