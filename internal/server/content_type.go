package server

import (
	"bufio"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/h2non/filetype"
)

// sniffLen covers both magic-number matching and http.DetectContentType.
const sniffLen = 512

// resolveUploadContentType picks the stored content type for an upload: the
// declared part type unless it is empty or generic, then magic-number
// matching, then the net/http sniffer.
func resolveUploadContentType(declared string, content *bufio.Reader) string {
	if mediaType := normalizeMediaType(declared); mediaType != "" && mediaType != fallbackContentType {
		return strings.TrimSpace(declared)
	}

	head, _ := content.Peek(sniffLen)
	if len(head) == 0 {
		return fallbackContentType
	}
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown && kind.MIME.Value != "" {
		return kind.MIME.Value
	}
	return http.DetectContentType(head)
}

func normalizeMediaType(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed)
}

// contentDisposition renders an inline disposition with an RFC 5987
// encoded filename.
func contentDisposition(filename string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(filename), "+", "%20")
	return "inline; filename*=UTF-8''" + encoded
}
