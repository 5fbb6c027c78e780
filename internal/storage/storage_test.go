package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}

	path, err := store.Save(context.Background(), "abc_report.pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if path != filepath.Join(dir, "abc_report.pdf") {
		t.Errorf("unexpected path %q", path)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "%PDF-1.4" {
		t.Errorf("unexpected content %q (%v)", got, err)
	}
}

func TestLocalStore_StaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewLocalStore(dir)

	path, err := store.Save(context.Background(), "../../etc/evil.pdf", []byte("x"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("file escaped upload dir: %q", path)
	}
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"a.pdf":         "a.pdf",
		"x/y/z.pdf":     "z.pdf",
		"../secret.pdf": "secret.pdf",
		"":              "upload",
		"/":             "upload",
	}
	for in, want := range tests {
		if got := safeName(in); got != want {
			t.Errorf("safeName(%q) = %q, want %q", in, got, want)
		}
	}
}
