package papers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromPDFRejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.pdf")
	if err := os.WriteFile(path, []byte("just some text"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := FromPDF(path, ""); err == nil {
		t.Fatal("expected error for non-PDF content")
	}
}

func TestFromPDFMissingFile(t *testing.T) {
	if _, err := FromPDF(filepath.Join(t.TempDir(), "missing.pdf"), ""); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFileHashDeterministic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.bin")
	if err := os.WriteFile(path, []byte("content"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	h1, err := fileHash(path)
	if err != nil {
		t.Fatalf("hashing: %v", err)
	}
	h2, err := fileHash(path)
	if err != nil {
		t.Fatalf("hashing again: %v", err)
	}
	if h1 != h2 {
		t.Errorf("hash not deterministic: %s vs %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(h1))
	}
}
