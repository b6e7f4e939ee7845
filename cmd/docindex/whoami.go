package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docindex/internal/api"
	"docindex/internal/auth"
	"docindex/internal/config"
)

func newWhoamiCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var require string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the role granted by DOCINDEX_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := auth.ParseRole(require); err != nil {
				return fmt.Errorf("--require: %w", err)
			}
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Me(cmd.Context())
				if err != nil {
					return err
				}

				if *jsonOutput {
					if err := writeJSON(resp); err != nil {
						return err
					}
				} else {
					_ = writePlain("%s\n", resp.Level)
				}

				_, err = checkRole(resp.Level, require)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&require, "require", "", "fail unless the role is at least this level (team|admin)")
	return cmd
}

// checkRole parses the level reported by the server and compares it with the
// required level. An empty requirement accepts any role.
func checkRole(level, require string) (auth.Role, error) {
	role, err := auth.ParseRole(level)
	if err != nil {
		return auth.RoleGuest, fmt.Errorf("server reported %w", err)
	}
	required, err := auth.ParseRole(require)
	if err != nil {
		return role, err
	}
	if !role.AtLeast(required) {
		return role, fmt.Errorf("role %s is below required %s", role, required)
	}
	return role, nil
}
