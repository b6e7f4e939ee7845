// Package cache holds the shared response cache used by the file delivery
// path. Entries are keyed by request URL.
package cache

import (
	"context"
	"net/url"
	"time"
)

// Entry is one cached file response.
type Entry struct {
	Body               []byte `json:"body"`
	ContentType        string `json:"content_type"`
	ContentDisposition string `json:"content_disposition"`
}

// ResponseCache stores file responses. Get returns nil, nil on a miss.
type ResponseCache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// TokenParam is the query parameter that carries a delivery credential.
const TokenParam = "token"

// KeyForURL returns the cache key for a request URL. Only the escaped path
// is used: the query never reaches the key, so a delivery credential stays
// out of the cache and one invalidation covers every variant of the URL.
func KeyForURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.EscapedPath()
}

// KeyForPath returns the cache key for a path with no query.
func KeyForPath(path string) string {
	return KeyForURL(&url.URL{Path: path})
}
