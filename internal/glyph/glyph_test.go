package glyph

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileDegrades(t *testing.T) {
	tbl := Load(filepath.Join(t.TempDir(), "missing.bin"))
	if !tbl.Degraded() {
		t.Fatal("expected degraded table for missing file")
	}
	g, ok := tbl.Lookup('?')
	if !ok || g != fallback {
		t.Fatalf("fallback glyph mismatch: %v, ok=%v", g, ok)
	}
}

func TestLoadWrongSizeDegrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "font.bin")
	if err := os.WriteFile(path, make([]byte, 10), 0o644); err != nil {
		t.Fatal(err)
	}
	tbl := Load(path)
	if !tbl.Degraded() {
		t.Fatal("expected degraded table for undersized file")
	}
}

func TestLoadValidBlob(t *testing.T) {
	data := make([]byte, BlobSize)
	// Mark the glyph for 'A' (index 'A'-32) distinctly.
	idx := int('A') - FirstChar
	copy(data[idx*Width:(idx+1)*Width], []byte{1, 2, 3, 4, 5})

	path := filepath.Join(t.TempDir(), "font.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	tbl := Load(path)
	if tbl.Degraded() {
		t.Fatal("expected non-degraded table")
	}
	g, ok := tbl.Lookup('A')
	if !ok || g != [Width]byte{1, 2, 3, 4, 5} {
		t.Fatalf("glyph mismatch: %v, ok=%v", g, ok)
	}
}

func TestLookupOutOfRange(t *testing.T) {
	tbl := Fallback()
	if _, ok := tbl.Lookup(31); ok {
		t.Fatal("expected out-of-range miss below FirstChar")
	}
	if _, ok := tbl.Lookup(127); ok {
		t.Fatal("expected out-of-range miss above LastChar")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(make([]byte, BlobSize)); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := Validate(make([]byte, 1)); err == nil {
		t.Fatal("expected error for wrong size")
	}
}
