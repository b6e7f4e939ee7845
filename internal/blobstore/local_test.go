package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

func TestLocalStorePutOpenDelete(t *testing.T) {
	bs, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	ctx := context.Background()

	result, err := bs.Put(ctx, "3f1c2a6e-0000-4000-8000-000000000001", bytes.NewBufferString("hello"), "text/plain")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if result.SizeBytes != 5 || result.SHA256 == "" {
		t.Fatalf("unexpected put result: %#v", result)
	}

	obj, err := bs.Open(ctx, result.Key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, err := io.ReadAll(obj.Reader)
	_ = obj.Reader.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("expected hello, got %q", string(data))
	}
	if obj.ContentType != "text/plain" {
		t.Fatalf("expected stored content type, got %q", obj.ContentType)
	}
	if obj.SizeBytes != 5 {
		t.Fatalf("expected size 5, got %d", obj.SizeBytes)
	}

	if err := bs.Delete(ctx, result.Key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := bs.Delete(ctx, result.Key); err != nil {
		t.Fatalf("delete missing should be noop: %v", err)
	}
	if _, err := bs.Open(ctx, result.Key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestLocalStorePutReplacesExisting(t *testing.T) {
	bs, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	ctx := context.Background()

	if _, err := bs.Put(ctx, "abc", bytes.NewBufferString("one"), ""); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if _, err := bs.Put(ctx, "abc", bytes.NewBufferString("two!"), "application/pdf"); err != nil {
		t.Fatalf("put second: %v", err)
	}
	obj, err := bs.Open(ctx, "abc")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer obj.Reader.Close()
	data, _ := io.ReadAll(obj.Reader)
	if string(data) != "two!" || obj.ContentType != "application/pdf" {
		t.Fatalf("expected replaced object, got %q %q", string(data), obj.ContentType)
	}
}

func TestLocalStoreRejectsInvalidKeys(t *testing.T) {
	bs, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	for _, key := range []string{"", "../etc", "a/b", `a\b`, ".hidden", "x.meta"} {
		if _, err := bs.Put(context.Background(), key, bytes.NewBufferString("x"), ""); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestLocalStoreOpenMissing(t *testing.T) {
	bs, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	if _, err := bs.Open(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
