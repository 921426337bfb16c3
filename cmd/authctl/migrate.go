package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables, indexes and collections",
		Long: `Prepare the configured stores. PostgreSQL gets its schema applied,
MongoDB gets its indexes. The memory and redis stores need nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.openStores(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			for _, l := range b.opened {
				if err := l.Ping(cmd.Context()); err != nil {
					return oops.Code("DB_CONNECT_FAILED").With("operation", "ping store").Wrap(err)
				}
				if err := l.Migrate(cmd.Context()); err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "apply migrations").Wrap(err)
				}
			}

			cmd.Println("Migrations applied successfully")
			return nil
		},
	}
}
