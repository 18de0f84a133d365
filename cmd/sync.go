package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconciles the author ledger with the source and catalog",
		Long: `Pages through the external author source, appends authors missing
from the spreadsheet ledger, and promotes every unscraped ledger row
into the internal catalog.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			manager, err := app.SyncManager(cmd.Context())
			if err != nil {
				return fmt.Errorf("build sync pipeline: %w", err)
			}

			if err := manager.Reconcile(cmd.Context()); err != nil {
				return fmt.Errorf("reconcile authors: %w", err)
			}
			app.Logger.Info("sync finished")
			return nil
		},
	}
}
