package storage

import (
	"io"
	"strings"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plan étage.pdf", "plan__tage.pdf"},
		{"../../etc/passwd", "passwd"},
		{"  ", "fichier"},
		{"devis-2026.pdf", "devis-2026.pdf"},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Fatalf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSaveAndOpen(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	rel, size, err := store.Save(1, "notes.txt", strings.NewReader("moodboard salon"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if size != int64(len("moodboard salon")) {
		t.Fatalf("size = %d", size)
	}
	f, err := store.Open(rel)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	content, _ := io.ReadAll(f)
	if string(content) != "moodboard salon" {
		t.Fatalf("content = %q", content)
	}
}

func TestOpenRejectsEscape(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Open("../outside.txt"); err == nil {
		t.Fatal("path escape must be rejected")
	}
}
