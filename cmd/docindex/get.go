package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"docindex/internal/api"
	"docindex/internal/config"
)

func newGetCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Download a file; -o - writes to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withClient(cfg, func(client *api.Client) error {
				if outputPath == "-" {
					_, err := client.Download(cmd.Context(), id, os.Stdout)
					return err
				}

				tmp, err := os.CreateTemp(".", ".docindex-download-*")
				if err != nil {
					return err
				}
				defer os.Remove(tmp.Name())

				file, err := client.Download(cmd.Context(), id, tmp)
				if closeErr := tmp.Close(); err == nil {
					err = closeErr
				}
				if err != nil {
					return err
				}

				dest := outputPath
				if dest == "" {
					dest = dispositionFilename(file.ContentDisposition, id)
				}
				if err := os.Rename(tmp.Name(), dest); err != nil {
					return fmt.Errorf("save %s: %w", dest, err)
				}

				if *jsonOutput {
					return writeJSON(map[string]any{
						"id":           id,
						"path":         dest,
						"size":         file.Size,
						"content_type": file.ContentType,
					})
				}
				return writePlain("%s (%d bytes)\n", dest, file.Size)
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path (default: server filename)")
	return cmd
}

// dispositionFilename extracts a safe local filename from a
// Content-Disposition header, falling back to the id.
func dispositionFilename(header, fallback string) string {
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return fallback
	}
	name := filepath.Base(params["filename"])
	if name == "." || name == string(filepath.Separator) || name == "" {
		return fallback
	}
	return name
}
