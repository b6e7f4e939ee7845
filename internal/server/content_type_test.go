package server

import (
	"bufio"
	"bytes"
	"io"
	"testing"
)

func TestContentDisposition(t *testing.T) {
	cases := map[string]string{
		"report.pdf":     "inline; filename*=UTF-8''report.pdf",
		"q1 report.pdf":  "inline; filename*=UTF-8''q1%20report.pdf",
		"naïve+plan.txt": "inline; filename*=UTF-8''na%C3%AFve%2Bplan.txt",
		`quote".txt`:     "inline; filename*=UTF-8''quote%22.txt",
	}
	for filename, want := range cases {
		if got := contentDisposition(filename); got != want {
			t.Fatalf("contentDisposition(%q) = %q, want %q", filename, got, want)
		}
	}
}

func TestResolveUploadContentTypeKeepsStreamIntact(t *testing.T) {
	content := append(append([]byte(nil), pngHeader...), bytes.Repeat([]byte{0}, 1024)...)
	reader := bufio.NewReaderSize(bytes.NewReader(content), sniffLen)

	if got := resolveUploadContentType("", reader); got != "image/png" {
		t.Fatalf("expected image/png, got %q", got)
	}
	rest, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read remaining: %v", err)
	}
	if !bytes.Equal(rest, content) {
		t.Fatal("expected sniffing to leave the full payload readable")
	}
}

func TestResolveUploadContentTypeEmptyPayload(t *testing.T) {
	reader := bufio.NewReaderSize(bytes.NewReader(nil), sniffLen)
	if got := resolveUploadContentType("application/octet-stream", reader); got != fallbackContentType {
		t.Fatalf("expected fallback type, got %q", got)
	}
}

func TestNormalizeMediaType(t *testing.T) {
	if got := normalizeMediaType(" Text/HTML; charset=utf-8 "); got != "text/html" {
		t.Fatalf("unexpected media type %q", got)
	}
	if got := normalizeMediaType("not a type;;"); got != "" {
		t.Fatalf("expected invalid type to normalize to empty, got %q", got)
	}
}
