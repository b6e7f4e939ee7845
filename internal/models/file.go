package models

import (
	"strings"
	"time"
)

// File is one indexed document. StorageKey always equals ID so every file
// maps to exactly one blob.
type File struct {
	ID         string   `json:"id"`
	Filename   string   `json:"filename"`
	StorageKey string   `json:"-"`
	Size       int64    `json:"size"`
	CreatedAt  int64    `json:"created_at"`
	Tags       []string `json:"tags"`
}

// CreatedTime returns CreatedAt as a time value.
func (f File) CreatedTime() time.Time {
	return time.UnixMilli(f.CreatedAt).UTC()
}

// NormalizeTag trims and lowercases one tag. Empty results are not valid tags.
func NormalizeTag(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizeTags normalizes tags, drops empties, and dedupes while keeping
// first-seen order.
func NormalizeTags(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		tag := NormalizeTag(value)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// SplitTagString splits a whitespace-separated tag string into normalized tags.
func SplitTagString(raw string) []string {
	return NormalizeTags(strings.Fields(raw))
}
