package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.bf")
	if err := os.WriteFile(path, []byte("+[-]"), 0o644); err != nil {
		t.Fatal(err)
	}

	src, full, err := ReadSource(path)
	if err != nil {
		t.Fatalf("ReadSource: %v", err)
	}
	if src != "+[-]" {
		t.Errorf("source: got %q", src)
	}
	if !filepath.IsAbs(full) {
		t.Errorf("path %q is not absolute", full)
	}

	if _, _, err := ReadSource(filepath.Join(dir, "missing.bf")); err == nil {
		t.Error("missing file: expected error")
	}
}

func TestGetPathInfo(t *testing.T) {
	full, parent, err := GetPathInfo(filepath.Join("a", "b.bf"))
	if err != nil {
		t.Fatalf("GetPathInfo: %v", err)
	}
	if filepath.Base(full) != "b.bf" || filepath.Base(parent) != "a" {
		t.Errorf("GetPathInfo = %q, %q", full, parent)
	}
}
