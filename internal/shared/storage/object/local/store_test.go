package local

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestPutThenOpen(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	n, err := store.Put(ctx, "articles/abc.txt", "text/plain", strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != int64(len("hello world")) {
		t.Fatalf("unexpected size %d", n)
	}

	rc, err := store.Open(ctx, "articles/abc.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "hello world" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestPutRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Put(context.Background(), "../escape.txt", "text/plain", strings.NewReader("x")); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
}
