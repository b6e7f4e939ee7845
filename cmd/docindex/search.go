package main

import (
	"strings"

	"github.com/spf13/cobra"

	"docindex/internal/api"
	"docindex/internal/config"
)

func newSearchCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search files by filename or tag",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withClient(cfg, func(client *api.Client) error {
				files, err := client.Search(cmd.Context(), query)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(files)
				}
				return writeFileList(files)
			})
		},
	}
}
