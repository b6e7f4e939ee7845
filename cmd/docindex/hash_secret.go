package main

import (
	"github.com/spf13/cobra"

	"docindex/internal/auth"
)

func newHashSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-secret <value>",
		Short: "Print a bcrypt hash for auth.admin_secret_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashSecret(args[0])
			if err != nil {
				return err
			}
			return writePlain("%s\n", hash)
		},
	}
}
