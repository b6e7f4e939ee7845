package main

import (
	"github.com/spf13/cobra"

	"docindex/internal/api"
	"docindex/internal/config"
)

func newRmCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				for _, id := range args {
					if err := client.DeleteFile(cmd.Context(), id); err != nil {
						return err
					}
					if !*jsonOutput {
						_ = writePlain("deleted %s\n", id)
					}
				}
				if *jsonOutput {
					return writeJSON(api.SuccessResponse{Success: true})
				}
				return nil
			})
		},
	}
}
