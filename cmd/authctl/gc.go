package main

import (
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/aloks98/authcore/cleanup"
)

func newGCCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "gc",
		Short: "Delete expired refresh tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.openStores(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			w := cleanup.NewWorker(&cleanup.Config{Store: b.tokens, Logger: a.logger})
			n, err := w.RunOnce(cmd.Context())
			if err != nil {
				return oops.Code("CLEANUP_FAILED").With("operation", "delete expired tokens").Wrap(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired refresh tokens\n", n)
			return nil
		},
	}
}
