package main

import (
	"fmt"
	"os"
	"strings"

	"docindex/internal/api"
	"docindex/internal/format"
)

var outputFormatter format.Formatter = format.JSONFormatter{}

func writeJSON(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeFileList(files []api.FileResponse) error {
	if len(files) == 0 {
		return writePlain("No files found\n")
	}
	for _, file := range files {
		if err := writePlain("%s\n", formatFileLine(file)); err != nil {
			return err
		}
	}
	return nil
}

func formatFileLine(file api.FileResponse) string {
	line := fmt.Sprintf("%s  %s  %s  %s", file.ID, format.Millis(file.CreatedAt), format.Size(file.Size), file.Filename)
	if len(file.Tags) > 0 {
		line += "  [" + strings.Join(file.Tags, " ") + "]"
	}
	return line
}
