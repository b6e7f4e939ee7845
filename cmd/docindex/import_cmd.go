package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"docindex/internal/api"
	"docindex/internal/config"
	"docindex/internal/models"
)

// importManifest lists files to upload in bulk.
//
//	files:
//	  - path: reports/q1.pdf
//	    tags: [finance, q1]
type importManifest struct {
	Files []importEntry `yaml:"files"`
}

type importEntry struct {
	Path string   `yaml:"path"`
	Tags []string `yaml:"tags"`
}

type importResult struct {
	Path  string   `json:"path"`
	ID    string   `json:"id,omitempty"`
	Tags  []string `json:"tags"`
	Error string   `json:"error,omitempty"`
}

func newImportCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		dryRun          bool
		continueOnError bool
	)

	cmd := &cobra.Command{
		Use:   "import <manifest.yaml>",
		Short: "Upload files listed in a YAML manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loadImportManifest(args[0])
			if err != nil {
				return err
			}

			if dryRun {
				results := make([]importResult, 0, len(entries))
				for _, entry := range entries {
					results = append(results, importResult{Path: entry.Path, Tags: entry.Tags})
				}
				return writeImportResults(results, *jsonOutput)
			}

			return withClient(cfg, func(client *api.Client) error {
				results := make([]importResult, 0, len(entries))
				var failed int
				for _, entry := range entries {
					result := importResult{Path: entry.Path, Tags: entry.Tags}
					resp, err := uploadPath(cmd, client, entry.Path, entry.Tags)
					if err != nil {
						result.Error = err.Error()
						failed++
						results = append(results, result)
						if !continueOnError {
							_ = writeImportResults(results, *jsonOutput)
							return fmt.Errorf("import %s: %w", entry.Path, err)
						}
						continue
					}
					result.ID = resp.ID
					results = append(results, result)
				}

				if err := writeImportResults(results, *jsonOutput); err != nil {
					return err
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d files failed to import", failed, len(entries))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list files and tags without uploading")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "keep importing after a failed upload")
	return cmd
}

// loadImportManifest parses a manifest and resolves relative paths against
// the manifest's directory. Tags are normalized.
func loadImportManifest(path string) ([]importEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var manifest importManifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&manifest); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(manifest.Files) == 0 {
		return nil, errors.New("manifest lists no files")
	}

	base := filepath.Dir(path)
	entries := make([]importEntry, 0, len(manifest.Files))
	for i, entry := range manifest.Files {
		filePath := strings.TrimSpace(entry.Path)
		if filePath == "" {
			return nil, fmt.Errorf("manifest entry %d: path is required", i+1)
		}
		if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(base, filePath)
		}
		entries = append(entries, importEntry{
			Path: filePath,
			Tags: models.NormalizeTags(entry.Tags),
		})
	}
	return entries, nil
}

func writeImportResults(results []importResult, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(results)
	}
	for _, result := range results {
		switch {
		case result.Error != "":
			_ = writePlain("FAIL %s: %s\n", result.Path, result.Error)
		case result.ID != "":
			_ = writePlain("ok   %s -> %s\n", result.Path, result.ID)
		default:
			_ = writePlain("plan %s [%s]\n", result.Path, strings.Join(result.Tags, " "))
		}
	}
	return nil
}
