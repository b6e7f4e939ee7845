package main

import (
	"github.com/spf13/cobra"

	"docindex/internal/api"
	"docindex/internal/config"
	"docindex/internal/format"
)

func newInfoCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show index statistics (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Info(cmd.Context())
				if err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(resp)
				}

				_ = writePlain("api_url: %s\n", cfg.APIURL())
				_ = writePlain("schema_version: %d\n", resp.SchemaVersion)
				_ = writePlain("total_files: %d\n", resp.TotalFiles)
				_ = writePlain("total_bytes: %s\n", format.Size(resp.TotalBytes))
				_ = writePlain("total_tags: %d\n", resp.TotalTags)
				_ = writePlain("distinct_tags: %d\n", resp.DistinctTags)
				return nil
			})
		},
	}
}
