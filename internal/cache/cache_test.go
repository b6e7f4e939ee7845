package cache

import (
	"context"
	"net/url"
	"testing"
	"time"
)

func TestKeyForURLDropsQuery(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "/api/file/abc?token=secret", want: "/api/file/abc"},
		{raw: "/api/file/abc", want: "/api/file/abc"},
		{raw: "/api/file/abc?token=secret&v=2", want: "/api/file/abc"},
		{raw: "/api/file/abc?dl=1", want: "/api/file/abc"},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.raw)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.raw, err)
		}
		if got := KeyForURL(u); got != tt.want {
			t.Fatalf("KeyForURL(%q)=%q want %q", tt.raw, got, tt.want)
		}
	}
	if got := KeyForPath("/api/file/abc"); got != "/api/file/abc" {
		t.Fatalf("unexpected path key %q", got)
	}
}

func TestMemoryCacheSetGetDelete(t *testing.T) {
	c := NewMemoryCache(4)
	ctx := context.Background()

	if got, err := c.Get(ctx, "k"); err != nil || got != nil {
		t.Fatalf("expected miss, got %#v err=%v", got, err)
	}

	entry := &Entry{Body: []byte("data"), ContentType: "text/plain"}
	if err := c.Set(ctx, "k", entry, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || got == nil {
		t.Fatalf("expected hit, got %#v err=%v", got, err)
	}
	if string(got.Body) != "data" || got.ContentType != "text/plain" {
		t.Fatalf("unexpected entry: %#v", got)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := c.Get(ctx, "k"); got != nil {
		t.Fatalf("expected miss after delete, got %#v", got)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(4)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if err := c.Set(ctx, "k", &Entry{Body: []byte("x")}, time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	now = now.Add(2 * time.Second)
	if got, _ := c.Get(ctx, "k"); got != nil {
		t.Fatalf("expected expired entry to miss, got %#v", got)
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry removed, len=%d", c.Len())
	}
}

func TestMemoryCacheEvictsWhenFull(t *testing.T) {
	c := NewMemoryCache(2)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.Set(ctx, "a", &Entry{}, time.Minute)
	_ = c.Set(ctx, "b", &Entry{}, 2*time.Minute)
	_ = c.Set(ctx, "c", &Entry{}, 3*time.Minute)

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if got, _ := c.Get(ctx, "a"); got != nil {
		t.Fatal("expected soonest-expiring entry to be evicted")
	}
	if got, _ := c.Get(ctx, "c"); got == nil {
		t.Fatal("expected newest entry to be present")
	}
}
