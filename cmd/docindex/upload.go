package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"docindex/internal/api"
	"docindex/internal/config"
	"docindex/internal/models"
)

func newUploadCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var tags string

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a file with optional tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := uploadPath(cmd, client, args[0], models.SplitTagString(tags))
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writePlain("%s\n", resp.ID)
			})
		},
	}

	cmd.Flags().StringVar(&tags, "tags", "", "whitespace-separated tags")
	return cmd
}

func uploadPath(cmd *cobra.Command, client *api.Client, path string, tags []string) (api.UploadResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return api.UploadResponse{}, err
	}
	defer f.Close()
	return client.Upload(cmd.Context(), filepath.Base(path), f, tags)
}
