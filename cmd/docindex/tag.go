package main

import (
	"strings"

	"github.com/spf13/cobra"

	"docindex/internal/api"
	"docindex/internal/config"
)

func newTagCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <id> [tag...]",
		Short: "Replace a file's tags; no tags clears them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, tags := args[0], args[1:]
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.ReplaceTags(cmd.Context(), id, tags)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writePlain("%s: %s\n", id, strings.Join(resp.Tags, " "))
			})
		},
	}
}
