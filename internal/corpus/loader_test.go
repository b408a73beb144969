package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "The sky is blue")
	writeFile(t, dir, "b.txt", "Grass is green")
	writeFile(t, dir, "blank.txt", "   \n\t")
	writeFile(t, dir, "notes.md", "ignored extension")

	docs, err := New(zap.NewNop()).Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	for i, doc := range docs {
		wantID := string(rune('1' + i))
		if doc.ID != wantID {
			t.Errorf("doc %d: id = %q, want %q", i, doc.ID, wantID)
		}
		if doc.Content == "" {
			t.Errorf("doc %d: empty content", i)
		}
		if doc.Embedded() {
			t.Errorf("doc %d: embedding must be empty after load", i)
		}
	}
}

func TestLoad_EmptyDir(t *testing.T) {
	docs, err := New(zap.NewNop()).Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}
}

func TestLoad_MissingDir(t *testing.T) {
	if _, err := New(zap.NewNop()).Load(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
