package main

import (
	"context"
	"fmt"
	"net"
	"testing"

	"docindex/internal/api"
)

func TestFormatCLIError_NetworkGuidance(t *testing.T) {
	err := &net.DNSError{Err: "dial tcp: connection refused", Name: "127.0.0.1", IsTemporary: true}
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: ensure a docindex server is running at DOCINDEX_API_URL.") {
		t.Fatalf("expected connectivity guidance, got %v", lines)
	}
	if !containsLine(lines, "hint: start a server with: docindex srv") {
		t.Fatalf("expected manual-start guidance, got %v", lines)
	}
}

func TestFormatCLIError_APIUnknownServiceGuidance(t *testing.T) {
	err := &api.APIError{Status: 404, Message: "api error: 404 Not Found"}
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: verify DOCINDEX_API_URL points to a docindex server.") {
		t.Fatalf("expected api-url guidance, got %v", lines)
	}
}

func TestFormatCLIError_APIAuthGuidance(t *testing.T) {
	cases := map[string]string{
		"unauthorized": "hint: set DOCINDEX_SECRET to the team or admin secret.",
		"forbidden":    "hint: this command needs the admin secret in DOCINDEX_SECRET.",
	}
	for code, hint := range cases {
		err := &api.APIError{Status: 401, Code: code, Message: code}
		if lines := formatCLIError(err); !containsLine(lines, hint) {
			t.Fatalf("expected %q for %s, got %v", hint, code, lines)
		}
	}
}

func TestFormatCLIError_APIInternalGuidance(t *testing.T) {
	err := &api.APIError{Status: 500, Code: "internal", Message: "internal error"}
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: server returned an internal error; check server logs for details.") {
		t.Fatalf("expected internal-error guidance, got %v", lines)
	}
}

func TestFormatCLIError_Timeout(t *testing.T) {
	err := fmt.Errorf("search: %w", context.DeadlineExceeded)
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: request timed out; check server health or increase DOCINDEX_HTTP_TIMEOUT.") {
		t.Fatalf("expected timeout guidance, got %v", lines)
	}
}

func containsLine(lines []string, expected string) bool {
	for _, line := range lines {
		if line == expected {
			return true
		}
	}
	return false
}
