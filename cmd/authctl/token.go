package main

import (
	"fmt"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/aloks98/authcore/token"
)

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and verify access tokens",
	}
	cmd.AddCommand(newTokenIssueCmd(a))
	cmd.AddCommand(newTokenVerifyCmd(a))
	return cmd
}

func (a *app) accessIssuer() (*token.AccessIssuer, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	issuer, err := token.NewAccessIssuer(&token.Config{
		Secret:         a.cfg.Secret,
		SigningMethod:  string(a.cfg.SigningMethod),
		AccessTokenTTL: a.cfg.AccessTokenTTL,
	})
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return issuer, nil
}

func newTokenIssueCmd(a *app) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue an access token for a user id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			issuer, err := a.accessIssuer()
			if err != nil {
				return err
			}
			signed, expires, err := issuer.Issue(subject)
			if err != nil {
				return oops.Code("TOKEN_ISSUE_FAILED").With("sub", subject).Wrap(err)
			}
			a.logger.Debug("issued access token", "sub", subject, "expires_at", expires)
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			fmt.Fprintf(cmd.OutOrStdout(), "expires %s\n", expires.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "sub", "", "user id to place in the sub claim")
	_ = cmd.MarkFlagRequired("sub")

	return cmd
}

func newTokenVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Verify an access token and print its subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer, err := a.accessIssuer()
			if err != nil {
				return err
			}
			sub, err := issuer.Verify(args[0])
			if err != nil {
				return oops.Code("TOKEN_INVALID").Wrap(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), sub)
			return nil
		},
	}
}
