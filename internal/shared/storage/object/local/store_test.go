package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"cv-builder/internal/shared/storage/object"
	"cv-builder/internal/shared/util"
)

func TestSaveAndOpen(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	key, size, mimeType, err := store.Save(ctx, "guest:abc", "job.txt", strings.NewReader("Senior Go engineer"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != int64(len("Senior Go engineer")) {
		t.Fatalf("unexpected size %d", size)
	}
	if !strings.HasPrefix(mimeType, "text/plain") {
		t.Fatalf("unexpected mime type %q", mimeType)
	}
	if !strings.HasPrefix(key, util.HashOwnerKey("guest:abc")+"/uploads/") {
		t.Fatalf("key not namespaced by owner: %s", key)
	}
	if !strings.HasSuffix(key, "_job.txt") {
		t.Fatalf("key lost file name: %s", key)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "Senior Go engineer" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestSaveWithKeyAndDelete(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()
	key := "owner/cvs/1/CV_Jane.docx"

	n, err := store.SaveWithKey(ctx, key, "application/octet-stream", bytes.NewReader([]byte("PK")))
	if err != nil {
		t.Fatalf("SaveWithKey: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 bytes, got %d", n)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(ctx, key); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("deleting a missing key should succeed: %v", err)
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()
	for _, key := range []string{"../escape", "/abs/path", "."} {
		if _, err := store.SaveWithKey(ctx, key, "", strings.NewReader("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
		if _, err := store.Open(ctx, key); err == nil {
			t.Fatalf("expected open error for key %q", key)
		}
	}
	if _, _, _, err := store.Save(ctx, "user:1", "../x", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error for traversal file name")
	}
}

func TestCanceledContext(t *testing.T) {
	store := New(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, _, err := store.Save(ctx, "user:1", "a.txt", strings.NewReader("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
