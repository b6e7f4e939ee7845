package main

import (
	"context"
	"errors"
	"net"

	"docindex/internal/api"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "unauthorized":
			lines = append(lines, "hint: set DOCINDEX_SECRET to the team or admin secret.")
		case "forbidden":
			lines = append(lines, "hint: this command needs the admin secret in DOCINDEX_SECRET.")
		case "resource_exhausted":
			lines = append(lines, "hint: too many failed logins from this address; retry later.")
		case "not_found":
			lines = append(lines, "hint: the file id is unknown; use `docindex search` to find ids.")
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify DOCINDEX_API_URL points to a docindex server.")
		}
		if apiErr.Status >= 500 {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase DOCINDEX_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a docindex server is running at DOCINDEX_API_URL.",
			"hint: start a server with: docindex srv",
			"hint: you can increase DOCINDEX_HTTP_TIMEOUT for slower environments.",
		)
		return uniqueLines(lines)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
