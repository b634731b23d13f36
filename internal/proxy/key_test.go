package proxy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewCacheKey(t *testing.T) {
	tests := []struct {
		path  string
		mtime time.Time
		want  CacheKey
	}{
		{"abc", time.Unix(1700000000, 0), "900150983cd24fb0d6963f7d28e17f72_1700000000"},
		{"abc", time.Unix(1700000000, 999_000_000), "900150983cd24fb0d6963f7d28e17f72_1700000000"},
		{"", time.Unix(0, 0), "d41d8cd98f00b204e9800998ecf8427e_0"},
	}
	for _, tt := range tests {
		if got := NewCacheKey(tt.path, tt.mtime); got != tt.want {
			t.Errorf("NewCacheKey(%q, %v) = %q, want %q", tt.path, tt.mtime, got, tt.want)
		}
	}
}

func TestCacheKey_FileName(t *testing.T) {
	k := CacheKey("abc_1")
	if got := k.FileName(); got != "abc_1.mp4" {
		t.Errorf("FileName() = %q", got)
	}
	if k.String() != "abc_1" {
		t.Errorf("String() = %q", k.String())
	}
}

func TestDeriveKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.mov")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Unix(1600000000, 0)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	got, err := DeriveKey(path)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if want := NewCacheKey(path, mtime); got != want {
		t.Errorf("DeriveKey() = %q, want %q", got, want)
	}

	// distinct paths give distinct keys for the same mtime
	other := filepath.Join(t.TempDir(), "in.mov")
	if NewCacheKey(other, mtime) == got {
		t.Error("different paths produced the same key")
	}
}

func TestDeriveKey_Missing(t *testing.T) {
	_, err := DeriveKey(filepath.Join(t.TempDir(), "nope.mp4"))
	if !errors.Is(err, ErrMetadataRead) {
		t.Errorf("DeriveKey() error = %v, want ErrMetadataRead", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("DeriveKey() error = %v, want wrapped ErrNotExist", err)
	}
}
