package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/samircd4/bookspointer/internal/api"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the ops HTTP server",
		Long: `Serves health and metrics endpoints plus HTTP triggers for the
crawl, sync, and post pipelines. The crawl trigger needs crawl.author_url
and crawl.author_id in the configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			runners, err := buildRunners(app)
			if err != nil {
				return err
			}

			server := api.NewServer(runners, app.Logger)
			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", app.Config.Server.Port),
				Handler:           server.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info("ops server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
					return
				}
				errCh <- nil
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown server: %w", err)
			}
			app.Logger.Info("ops server stopped")
			return <-errCh
		},
	}
}

// buildRunners wires the pipeline triggers. The crawl runner is only
// registered when the configuration names a target author.
func buildRunners(app *App) (map[string]api.Runner, error) {
	runners := map[string]api.Runner{
		"sync": func(ctx context.Context) error {
			manager, err := app.SyncManager(ctx)
			if err != nil {
				return err
			}
			return manager.Reconcile(ctx)
		},
		"post": func(ctx context.Context) error {
			return app.Publisher().Run(ctx)
		},
	}

	if app.Config.Crawl.AuthorURL != "" && app.Config.Crawl.AuthorID != 0 {
		runners["crawl"] = func(ctx context.Context) error {
			orch, err := app.Orchestrator()
			if err != nil {
				return err
			}
			return orch.CrawlAuthor(ctx, app.Config.Crawl.AuthorURL, app.Config.Crawl.AuthorID)
		}
	}

	return runners, nil
}
