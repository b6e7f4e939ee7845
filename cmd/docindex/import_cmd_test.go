package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "manifest.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadImportManifest(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(t.TempDir(), "elsewhere.pdf")
	path := writeManifest(t, dir, `files:
  - path: reports/q1.pdf
    tags: [" Finance", finance, Q1, ""]
  - path: `+abs+`
`)

	entries, err := loadImportManifest(path)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Path != filepath.Join(dir, "reports", "q1.pdf") {
		t.Fatalf("expected path relative to manifest dir, got %q", entries[0].Path)
	}
	if strings.Join(entries[0].Tags, ",") != "finance,q1" {
		t.Fatalf("expected normalized tags, got %v", entries[0].Tags)
	}
	if entries[1].Path != abs {
		t.Fatalf("expected absolute path kept, got %q", entries[1].Path)
	}
	if len(entries[1].Tags) != 0 {
		t.Fatalf("expected no tags, got %v", entries[1].Tags)
	}
}

func TestLoadImportManifestErrors(t *testing.T) {
	cases := map[string]string{
		"empty":         "files: []\n",
		"missing path":  "files:\n  - tags: [a]\n",
		"unknown field": "files:\n  - path: a.txt\n    label: x\n",
		"not yaml":      "files: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), body)
			if _, err := loadImportManifest(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDispositionFilename(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"inline; filename*=UTF-8''q1%20report.pdf", "q1 report.pdf"},
		{"inline; filename*=UTF-8''..%2F..%2Fetc%2Fpasswd", "passwd"},
		{"", "fallback-id"},
		{"inline", "fallback-id"},
	}
	for _, tc := range cases {
		if got := dispositionFilename(tc.header, "fallback-id"); got != tc.want {
			t.Fatalf("dispositionFilename(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}
