package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/aloks98/authcore/password"
)

func newHashCmd(a *app) *cobra.Command {
	var (
		plaintext string
		algorithm string
		check     string
	)

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Hash a password",
		Long: `Hash a password with bcrypt at the configured cost, or with Argon2id.
Without --password the first line of stdin is used. With --check the
password is verified against an existing hash instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if plaintext == "" {
				line, err := bufio.NewReader(a.stdin).ReadString('\n')
				if err != nil && line == "" {
					return oops.Code("INPUT_INVALID").With("operation", "read password").Wrap(err)
				}
				plaintext = strings.TrimRight(line, "\r\n")
			}
			if plaintext == "" {
				return oops.Code("INPUT_INVALID").Errorf("password is empty")
			}

			hasher, err := a.hasher(algorithm)
			if err != nil {
				return err
			}

			if check != "" {
				ok, err := hasher.Verify(plaintext, check)
				if err != nil {
					return oops.Code("HASH_INVALID").Wrap(err)
				}
				if !ok {
					return oops.Code("HASH_MISMATCH").Errorf("password does not match")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			}

			encoded, err := hasher.Hash(plaintext)
			if err != nil {
				return oops.Code("HASH_FAILED").Wrap(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return nil
		},
	}

	cmd.Flags().StringVarP(&plaintext, "password", "p", "", "password to hash (reads stdin when empty)")
	cmd.Flags().StringVar(&algorithm, "algorithm", "bcrypt", "bcrypt or argon2")
	cmd.Flags().StringVar(&check, "check", "", "verify the password against this hash")

	return cmd
}

func (a *app) hasher(algorithm string) (password.Hasher, error) {
	switch algorithm {
	case "bcrypt":
		return password.NewBcryptHasher(password.ConfigFor(a.cfg.BcryptCost, a.cfg.TestMode)), nil
	case "argon2":
		if a.cfg.TestMode {
			return password.NewArgon2Hasher(password.TestArgon2Config()), nil
		}
		return password.NewArgon2Hasher(password.DefaultArgon2Config()), nil
	default:
		return nil, oops.Code("INPUT_INVALID").With("algorithm", algorithm).Errorf("unknown algorithm %q", algorithm)
	}
}
