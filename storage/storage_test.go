package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hlxportal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDirStorePut(t *testing.T) {
	store, err := NewDirStore(t.TempDir(), discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	name, url, err := store.Put(context.Background(), "HLX-2744-0918", "passport.pdf",
		strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(name, "HLX-2744-0918/") || !strings.HasSuffix(name, "/passport.pdf") {
		t.Errorf("unexpected blob name %q", name)
	}
	if !strings.HasPrefix(url, "file://") {
		t.Errorf("unexpected url %q", url)
	}

	contents, err := os.ReadFile(filepath.Join(store.dir, filepath.FromSlash(name)))
	if err != nil {
		t.Fatal(err)
	}
	if string(contents) != "pdf bytes" {
		t.Errorf("blob contents got %q", contents)
	}
}

// TestDirStorePutNoCollision checks repeated uploads of the same file name
// produce distinct blobs.
func TestDirStorePutNoCollision(t *testing.T) {
	store, err := NewDirStore(t.TempDir(), discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	first, _, err := store.Put(context.Background(), "HLX-1-0001", "id.png", strings.NewReader("a"))
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := store.Put(context.Background(), "HLX-1-0001", "id.png", strings.NewReader("b"))
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Errorf("blob names collide: %q", first)
	}
}

func TestNewSelectsDirStore(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.LocalDir = t.TempDir()

	store, err := New(context.Background(), cfg, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*DirStore); !ok {
		t.Errorf("expected a *DirStore, got %T", store)
	}
}
