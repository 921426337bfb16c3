package main

import (
	"encoding/json"
	"io"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aloks98/authcore"
	"github.com/aloks98/authcore/store"
)

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List and create users",
	}
	cmd.AddCommand(newUsersListCmd(a))
	cmd.AddCommand(newUsersCreateCmd(a))
	return cmd
}

func newUsersListCmd(a *app) *cobra.Command {
	var (
		page, perPage     int
		name, email, role string
		output            string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter store.ListFilter
			if cmd.Flags().Changed("name") {
				filter.Name = &name
			}
			if cmd.Flags().Changed("email") {
				filter.Email = &email
			}
			if cmd.Flags().Changed("role") {
				filter.Role = &role
			}

			svc, b, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			users, err := svc.ListUsers(cmd.Context(), filter, page, perPage)
			if err != nil {
				return oops.Code("USERS_LIST_FAILED").With("page", page, "per_page", perPage).Wrap(err)
			}

			out := make([]store.PublicUser, 0, len(users))
			for _, u := range users {
				out = append(out, u.Public())
			}
			return writeOutput(cmd.OutOrStdout(), output, out)
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&perPage, "per-page", store.DefaultPerPage, "users per page")
	cmd.Flags().StringVar(&name, "name", "", "only users with this exact name")
	cmd.Flags().StringVar(&email, "email", "", "only the user with this email")
	cmd.Flags().StringVar(&role, "role", "", "only users with this role")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "json or yaml")

	return cmd
}

func newUsersCreateCmd(a *app) *cobra.Command {
	var (
		in     authcore.NewUser
		role   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a user with a password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Role = store.Role(role)

			svc, b, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			u, err := svc.Register(cmd.Context(), in)
			if err != nil {
				return oops.Code("USER_CREATE_FAILED").With("email", in.Email).Wrap(err)
			}
			return writeOutput(cmd.OutOrStdout(), output, u.Public())
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "plaintext password")
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(store.RoleUser), "user or admin")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "json or yaml")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return oops.Code("INPUT_INVALID").Errorf("unknown output format %q", format)
	}
}
