package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaekwang-park/listo/internal/fakeapi"
	"github.com/jaekwang-park/listo/internal/repository"
)

func newMockServerCmd() *cobra.Command {
	var addr, databaseURL string
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run a checklist backend for local development",
		Long: "Run a checklist backend, in memory or on PostgreSQL with --database-url. Callers are " +
			"identified by X-User-ID or by the unverified subject of a bearer token, so never expose " +
			"it beyond localhost.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

			var backend fakeapi.Backend = fakeapi.NewStore()
			if databaseURL != "" {
				db, err := repository.NewDB(ctx, databaseURL)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := repository.Migrate(ctx, db); err != nil {
					return err
				}
				backend = repository.NewPostgresChecklist(db)
				logger.Info("database connected")
			}
			return fakeapi.NewServer(addr, backend, logger).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("LISTO_DATABASE_URL"),
		"PostgreSQL connection string; the in-memory store is used when empty")
	return cmd
}
