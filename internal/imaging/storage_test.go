package imaging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskStoreLifecycle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "imagenes")
	s, err := NewDiskStore(dir, "/imagenes/")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	ref, err := s.Save("pan.jpg", []byte("data"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ref != "/imagenes/pan.jpg" {
		t.Errorf("expected /imagenes/pan.jpg, got %q", ref)
	}
	if !s.Exists(ref) {
		t.Fatal("expected stored file to exist")
	}
	if _, err := os.Stat(filepath.Join(dir, "pan.jpg")); err != nil {
		t.Errorf("expected file on disk: %v", err)
	}

	if err := s.Delete(ref); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Exists(ref) {
		t.Error("expected file to be gone")
	}

	// Deleting again is a no-op.
	if err := s.Delete(ref); err != nil {
		t.Errorf("Delete of missing file: %v", err)
	}
}

func TestDiskStoreStaysInsideDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "imagenes")
	s, err := NewDiskStore(dir, "/imagenes")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	outside := filepath.Join(root, "secreto.txt")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete("/imagenes/../secreto.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Error("file outside the image directory was removed")
	}

	if got := s.Path("/otra/ruta/foto.png"); got != filepath.Join(dir, "foto.png") {
		t.Errorf("expected path inside dir, got %q", got)
	}
}

func TestDiskStoreEmptyRef(t *testing.T) {
	s, _ := NewDiskStore(t.TempDir(), "/imagenes")
	if s.Exists("") {
		t.Error("empty reference must not exist")
	}
	if err := s.Delete(""); err != nil {
		t.Errorf("Delete(\"\"): %v", err)
	}
}
